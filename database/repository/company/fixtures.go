// File: database/repository/company/fixtures.go
package companyRepo

import (
	"context"
	"fmt"

	"bookly/models"
)

// Fixtures returns the demo catalogue the service starts with when no
// database is configured.
func Fixtures() ([]models.Company, []models.Service) {
	newCompany := func(id, name string) models.Company {
		return models.Company{
			ID:                 id,
			Name:               name,
			WorkingHours:       models.DefaultWorkingHours(),
			CancellationPolicy: models.DefaultCancellationPolicy(),
		}
	}

	companies := []models.Company{
		newCompany("elegant-beauty", "Elegant Beauty Salon"),
		newCompany("relax-spa", "Relax Spa Center"),
		newCompany("techfix", "TechFix Service Center"),
		newCompany("sparkle-cleaning", "Sparkle Cleaning Co."),
		newCompany("fitlife", "FitLife Gym"),
	}

	services := []models.Service{
		{ID: "1", CompanyID: "elegant-beauty", Name: "Haircut and Styling", Price: 35, MasterIDs: []string{"1"}},
		{ID: "2", CompanyID: "relax-spa", Name: "Back Massage", Price: 55, MasterIDs: []string{"2"}},
		{ID: "3", CompanyID: "techfix", Name: "Phone Repair", Price: 65, MasterIDs: []string{"3"}},
		{ID: "4", CompanyID: "sparkle-cleaning", Name: "Deep Cleaning", Price: 120, MasterIDs: []string{}},
		{ID: "5", CompanyID: "elegant-beauty", Name: "Manicure & Pedicure", Price: 45, MasterIDs: []string{"4"}},
		{ID: "6", CompanyID: "fitlife", Name: "Personal Training", Price: 40, MasterIDs: []string{"5"}},
	}
	return companies, services
}

// Seed writes the fixtures through repo.
func Seed(ctx context.Context, repo CompanyRepository) error {
	companies, services := Fixtures()
	for _, c := range companies {
		if err := repo.SaveCompany(ctx, c); err != nil {
			return fmt.Errorf("seed company %s: %w", c.ID, err)
		}
	}
	for _, s := range services {
		if err := repo.SaveService(ctx, s); err != nil {
			return fmt.Errorf("seed service %s: %w", s.ID, err)
		}
	}
	return nil
}
