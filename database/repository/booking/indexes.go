// File: database/repository/booking/indexes.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the booking indexes. The partial unique index on the
// slot triple is what makes concurrent creates first-write-wins.
func EnsureIndexes(ctx context.Context, repo BookingRepository) error {
	r, ok := repo.(*mongoBookingRepo)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(uniqueIDIndex),
		},
		{
			Keys: bson.D{{Key: "master_id", Value: 1}, {Key: "date", Value: 1}, {Key: "time", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName(activeSlotIndex).
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		{
			Keys:    bson.D{{Key: "client_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("client_date_idx"),
		},
		{
			Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("company_status_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
