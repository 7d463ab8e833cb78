// File: database/repository/booking/booking_mongo.go
package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookly/database"
	"bookly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	bookingsCollection = "bookings"
	activeSlotIndex    = "active_slot_unique"
	uniqueIDIndex      = "unique_id"
)

// mongoBookingRepo implements BookingRepository on MongoDB.
type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a BookingRepository on the configured database.
func NewMongoBookingRepo() BookingRepository {
	return &mongoBookingRepo{coll: database.Database().Collection(bookingsCollection)}
}

// NewMongoBookingRepoFor wraps an existing collection.
func NewMongoBookingRepoFor(coll *mongo.Collection) BookingRepository {
	return &mongoBookingRepo{coll: coll}
}

func (r *mongoBookingRepo) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking %s: %w", id, err)
	}
	return &booking, nil
}

func (r *mongoBookingRepo) CreateBooking(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	booking.Active = booking.Status.IsActive()
	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		if mapped := mapWriteError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

// UpdateBooking applies patch in a single FindOneAndUpdate. When ExpectStatus
// is set and no document matches, the booking is re-read to tell a missing
// booking from a concurrent status change.
func (r *mongoBookingRepo) UpdateBooking(ctx context.Context, id string, patch Patch) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id}
	if len(patch.ExpectStatus) > 0 {
		filter["status"] = bson.M{"$in": patch.ExpectStatus}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Booking
	err := r.coll.FindOneAndUpdate(ctx, filter, patchUpdate(patch), opts).Decode(&updated)
	switch {
	case err == nil:
		return &updated, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		if _, getErr := r.GetBooking(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrStateChanged
	default:
		if mapped := mapWriteError(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("error updating booking %s: %w", id, err)
	}
}

func (r *mongoBookingRepo) DeleteBooking(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("error deleting booking %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func patchUpdate(patch Patch) bson.M {
	set := bson.M{}
	if patch.Date != nil {
		set["date"] = *patch.Date
	}
	if patch.Time != nil {
		set["time"] = *patch.Time
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
		set["active"] = patch.Status.IsActive()
	}
	if patch.Cancellation != nil {
		set["cancellation"] = patch.Cancellation
	}
	if !patch.UpdatedAt.IsZero() {
		set["updated_at"] = patch.UpdatedAt
	}

	update := bson.M{"$set": set}
	if patch.IncrementReschedule {
		update["$inc"] = bson.M{"reschedule_count": 1}
	}
	return update
}

// mapWriteError turns duplicate-key failures into repository sentinels.
func mapWriteError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, activeSlotIndex):
		return ErrSlotTaken
	case strings.Contains(msg, uniqueIDIndex):
		return ErrDuplicateID
	}
	return ErrSlotTaken
}
