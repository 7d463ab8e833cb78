// File: database/repository/company/memory.go
package companyRepo

import (
	"context"
	"sort"
	"sync"

	"bookly/models"
)

type memoryCompanyRepo struct {
	mu        sync.RWMutex
	companies map[string]models.Company
	services  map[string]models.Service
}

// NewMemoryCompanyRepo constructs an empty in-memory CompanyRepository.
func NewMemoryCompanyRepo() CompanyRepository {
	return &memoryCompanyRepo{
		companies: make(map[string]models.Company),
		services:  make(map[string]models.Service),
	}
}

func (r *memoryCompanyRepo) GetCompany(ctx context.Context, companyID string) (*models.Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	company, ok := r.companies[companyID]
	if !ok {
		return nil, ErrCompanyNotFound
	}
	company.WorkingHours = copyHours(company.WorkingHours)
	return &company, nil
}

func (r *memoryCompanyRepo) FetchWorkingHours(ctx context.Context, companyID string) (models.WorkingHours, error) {
	company, err := r.GetCompany(ctx, companyID)
	if err != nil {
		return models.WorkingHours{}, err
	}
	return company.WorkingHours, nil
}

func (r *memoryCompanyRepo) FetchCancellationPolicy(ctx context.Context, companyID string) (models.CancellationPolicy, error) {
	company, err := r.GetCompany(ctx, companyID)
	if err != nil {
		return models.CancellationPolicy{}, err
	}
	return company.CancellationPolicy, nil
}

func (r *memoryCompanyRepo) UpdateSettings(ctx context.Context, company models.Company) (*models.Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.companies[company.ID]
	if !ok {
		return nil, ErrCompanyNotFound
	}
	stored.WorkingHours = copyHours(company.WorkingHours)
	stored.CancellationPolicy = company.CancellationPolicy
	stored.SlotGranularityMinutes = company.SlotGranularityMinutes
	r.companies[company.ID] = stored

	out := stored
	out.WorkingHours = copyHours(stored.WorkingHours)
	return &out, nil
}

func (r *memoryCompanyRepo) SaveCompany(ctx context.Context, company models.Company) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	company.WorkingHours = copyHours(company.WorkingHours)
	r.companies[company.ID] = company
	return nil
}

func (r *memoryCompanyRepo) GetService(ctx context.Context, serviceID string) (*models.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	service, ok := r.services[serviceID]
	if !ok {
		return nil, ErrServiceNotFound
	}
	service.MasterIDs = append([]string(nil), service.MasterIDs...)
	return &service, nil
}

func (r *memoryCompanyRepo) ListServices(ctx context.Context, companyID string) ([]models.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Service{}
	for _, s := range r.services {
		if s.CompanyID == companyID {
			s.MasterIDs = append([]string(nil), s.MasterIDs...)
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryCompanyRepo) SaveService(ctx context.Context, service models.Service) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	service.MasterIDs = append([]string(nil), service.MasterIDs...)
	r.services[service.ID] = service
	return nil
}

// copyHours detaches the day map so callers cannot mutate stored settings.
func copyHours(h models.WorkingHours) models.WorkingHours {
	days := make(map[string]models.DayHours, len(h.Days))
	for k, v := range h.Days {
		days[k] = v
	}
	out := models.WorkingHours{Days: days}
	if h.Break != nil {
		b := *h.Break
		out.Break = &b
	}
	return out
}
