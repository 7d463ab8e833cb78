package scheduling

import (
	"context"
	"errors"

	companyRepo "bookly/database/repository/company"
	"bookly/models"
	"bookly/services/schederr"

	"go.uber.org/zap"
)

func (s *Scheduler) ownCompany(ctx context.Context, identity models.Identity) (*models.Company, error) {
	if identity.Role != models.RoleCompany || identity.CompanyID == "" {
		return nil, schederr.New(schederr.Forbidden, "only a company can manage its settings")
	}
	company, err := s.Companies.GetCompany(ctx, identity.CompanyID)
	if errors.Is(err, companyRepo.ErrCompanyNotFound) {
		return nil, schederr.New(schederr.NotFound, "company %s not found", identity.CompanyID)
	}
	if err != nil {
		return nil, schederr.FromRemote(err, "fetch company")
	}
	return company, nil
}

// CompanySettings returns the caller's company with its schedule and policy.
func (s *Scheduler) CompanySettings(ctx context.Context, identity models.Identity) (*models.Company, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.ownCompany(ctx, identity)
}

// UpdateCompanySettings validates and stores new working hours, break,
// cancellation policy or granularity. Invalid settings are rejected whole.
func (s *Scheduler) UpdateCompanySettings(ctx context.Context, identity models.Identity, update models.CompanySettingsUpdate) (*models.Company, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	company, err := s.ownCompany(ctx, identity)
	if err != nil {
		return nil, err
	}
	next, err := update.Apply(*company)
	if err != nil {
		return nil, schederr.Wrap(schederr.Validation, err, "invalid company settings")
	}
	updated, err := s.Companies.UpdateSettings(ctx, next)
	if err != nil {
		return nil, schederr.FromRemote(err, "update company settings")
	}
	s.Logger.Info("company settings updated", zap.String("companyID", updated.ID))
	return updated, nil
}
