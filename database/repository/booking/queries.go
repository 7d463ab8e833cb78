// File: database/repository/booking/queries.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"bookly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoBookingRepo) FetchBookings(ctx context.Context, ownerID string) ([]models.Booking, error) {
	filter := bson.M{"$or": []bson.M{{"client_id": ownerID}, {"master_id": ownerID}}}
	return r.find(ctx, filter)
}

func (r *mongoBookingRepo) FetchCompanyBookings(ctx context.Context, companyID string) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"company_id": companyID})
}

func (r *mongoBookingRepo) FetchMasterDay(ctx context.Context, masterID, date string) ([]models.Booking, error) {
	filter := bson.M{
		"master_id": masterID,
		"date":      date,
		"status":    bson.M{"$in": models.ActiveStatuses},
	}
	return r.find(ctx, filter)
}

func (r *mongoBookingRepo) FetchByStatus(ctx context.Context, status models.BookingStatus) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"status": status})
}

func (r *mongoBookingRepo) find(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}
