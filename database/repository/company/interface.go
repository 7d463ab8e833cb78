// File: database/repository/company/interface.go
package companyRepo

import (
	"context"
	"errors"

	"bookly/models"
)

var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrServiceNotFound = errors.New("service not found")
)

// CompanyRepository serves company scheduling settings and the services
// offered under them.
type CompanyRepository interface {
	GetCompany(ctx context.Context, companyID string) (*models.Company, error)
	// FetchWorkingHours and FetchCancellationPolicy read single settings for
	// collaborators that do not need the whole company. The scheduler loads
	// the company once through GetCompany instead.
	FetchWorkingHours(ctx context.Context, companyID string) (models.WorkingHours, error)
	FetchCancellationPolicy(ctx context.Context, companyID string) (models.CancellationPolicy, error)
	// UpdateSettings stores the company's working hours, policy and granularity.
	UpdateSettings(ctx context.Context, company models.Company) (*models.Company, error)
	SaveCompany(ctx context.Context, company models.Company) error

	GetService(ctx context.Context, serviceID string) (*models.Service, error)
	ListServices(ctx context.Context, companyID string) ([]models.Service, error)
	SaveService(ctx context.Context, service models.Service) error
}
