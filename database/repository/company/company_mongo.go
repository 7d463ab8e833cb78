// File: database/repository/company/company_mongo.go
package companyRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookly/database"
	"bookly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoCompanyRepo struct {
	companies *mongo.Collection
	services  *mongo.Collection
}

// NewMongoCompanyRepo constructs a CompanyRepository on the configured database.
func NewMongoCompanyRepo() CompanyRepository {
	db := database.Database()
	return &mongoCompanyRepo{
		companies: db.Collection("companies"),
		services:  db.Collection("services"),
	}
}

func (r *mongoCompanyRepo) GetCompany(ctx context.Context, companyID string) (*models.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var company models.Company
	err := r.companies.FindOne(ctx, bson.M{"id": companyID}).Decode(&company)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching company %s: %w", companyID, err)
	}
	return &company, nil
}

func (r *mongoCompanyRepo) FetchWorkingHours(ctx context.Context, companyID string) (models.WorkingHours, error) {
	company, err := r.GetCompany(ctx, companyID)
	if err != nil {
		return models.WorkingHours{}, err
	}
	return company.WorkingHours, nil
}

func (r *mongoCompanyRepo) FetchCancellationPolicy(ctx context.Context, companyID string) (models.CancellationPolicy, error) {
	company, err := r.GetCompany(ctx, companyID)
	if err != nil {
		return models.CancellationPolicy{}, err
	}
	return company.CancellationPolicy, nil
}

func (r *mongoCompanyRepo) UpdateSettings(ctx context.Context, company models.Company) (*models.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"working_hours":            company.WorkingHours,
		"cancellation_policy":      company.CancellationPolicy,
		"slot_granularity_minutes": company.SlotGranularityMinutes,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Company
	err := r.companies.FindOneAndUpdate(ctx, bson.M{"id": company.ID}, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error updating settings for company %s: %w", company.ID, err)
	}
	return &updated, nil
}

func (r *mongoCompanyRepo) SaveCompany(ctx context.Context, company models.Company) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := r.companies.ReplaceOne(ctx, bson.M{"id": company.ID}, company, opts); err != nil {
		return fmt.Errorf("error saving company %s: %w", company.ID, err)
	}
	return nil
}

func (r *mongoCompanyRepo) GetService(ctx context.Context, serviceID string) (*models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var service models.Service
	err := r.services.FindOne(ctx, bson.M{"id": serviceID}).Decode(&service)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching service %s: %w", serviceID, err)
	}
	return &service, nil
}

func (r *mongoCompanyRepo) ListServices(ctx context.Context, companyID string) ([]models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	cursor, err := r.services.Find(ctx, bson.M{"company_id": companyID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing services: %w", err)
	}
	defer cursor.Close(ctx)

	services := []models.Service{}
	if err := cursor.All(ctx, &services); err != nil {
		return nil, fmt.Errorf("error decoding services: %w", err)
	}
	return services, nil
}

func (r *mongoCompanyRepo) SaveService(ctx context.Context, service models.Service) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := r.services.ReplaceOne(ctx, bson.M{"id": service.ID}, service, opts); err != nil {
		return fmt.Errorf("error saving service %s: %w", service.ID, err)
	}
	return nil
}

// EnsureIndexes creates unique id indexes on both collections.
func EnsureIndexes(ctx context.Context, repo CompanyRepository) error {
	r, ok := repo.(*mongoCompanyRepo)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	unique := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_id"),
	}
	if _, err := r.companies.Indexes().CreateOne(ctx, unique); err != nil {
		return fmt.Errorf("failed to create company indexes: %w", err)
	}
	serviceIndexes := []mongo.IndexModel{
		unique,
		{
			Keys:    bson.D{{Key: "company_id", Value: 1}},
			Options: options.Index().SetName("company_idx"),
		},
	}
	if _, err := r.services.Indexes().CreateMany(ctx, serviceIndexes); err != nil {
		return fmt.Errorf("failed to create service indexes: %w", err)
	}
	return nil
}
