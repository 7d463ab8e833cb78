package models

import "fmt"

// DeductionType selects how a late-cancellation penalty is computed.
type DeductionType string

const (
	DeductionPercentage DeductionType = "percentage" // percent of the service price
	DeductionFixed      DeductionType = "fixed"      // fixed monetary amount
)

// CancellationPolicy is a company's cancellation and reschedule rule set.
type CancellationPolicy struct {
	MinCancelHours  int           `bson:"min_cancel_hours" json:"minCancelHours"`
	DeductionType   DeductionType `bson:"deduction_type" json:"deductionType"`
	DeductionValue  float64       `bson:"deduction_value" json:"deductionValue"`
	AllowReschedule bool          `bson:"allow_reschedule" json:"allowReschedule"`
	AutoDeduction   bool          `bson:"auto_deduction" json:"autoDeduction"`
}

func (p CancellationPolicy) Validate() error {
	if p.MinCancelHours < 0 {
		return &ConfigError{Field: "minCancelHours", Message: "must not be negative"}
	}
	if p.DeductionValue < 0 {
		return &ConfigError{Field: "deductionValue", Message: "must not be negative"}
	}
	switch p.DeductionType {
	case DeductionPercentage:
		if p.DeductionValue > 100 {
			return &ConfigError{Field: "deductionValue", Message: "percentage must not exceed 100"}
		}
	case DeductionFixed:
	default:
		return &ConfigError{Field: "deductionType", Message: fmt.Sprintf("unknown deduction type %q", p.DeductionType)}
	}
	return nil
}

// DefaultCancellationPolicy mirrors the settings form defaults.
func DefaultCancellationPolicy() CancellationPolicy {
	return CancellationPolicy{
		MinCancelHours:  24,
		DeductionType:   DeductionPercentage,
		DeductionValue:  10,
		AllowReschedule: true,
		AutoDeduction:   true,
	}
}

// Company owns the schedule and the policy its masters are booked under.
type Company struct {
	ID                     string             `bson:"id" json:"id"`
	Name                   string             `bson:"name" json:"name"`
	WorkingHours           WorkingHours       `bson:"working_hours" json:"workingHours"`
	CancellationPolicy     CancellationPolicy `bson:"cancellation_policy" json:"cancellationPolicy"`
	SlotGranularityMinutes int                `bson:"slot_granularity_minutes,omitempty" json:"slotGranularityMinutes,omitempty"`
}

// Service is a bookable offering of a company, performed by its masters.
type Service struct {
	ID        string   `bson:"id" json:"id"`
	CompanyID string   `bson:"company_id" json:"companyId"`
	Name      string   `bson:"name" json:"name"`
	Price     float64  `bson:"price" json:"price"`
	MasterIDs []string `bson:"master_ids" json:"masterIds"`
}

// HasMaster reports whether masterID performs the service.
func (s Service) HasMaster(masterID string) bool {
	for _, id := range s.MasterIDs {
		if id == masterID {
			return true
		}
	}
	return false
}

// CompanySettingsUpdate is a partial update of company scheduling settings.
type CompanySettingsUpdate struct {
	WorkingHours           *WorkingHours       `json:"workingHours,omitempty"`
	CancellationPolicy     *CancellationPolicy `json:"cancellationPolicy,omitempty"`
	SlotGranularityMinutes *int                `json:"slotGranularityMinutes,omitempty"`
}

// Apply returns c with the update's fields set and validates the result.
func (u CompanySettingsUpdate) Apply(c Company) (Company, error) {
	if u.WorkingHours != nil {
		c.WorkingHours = *u.WorkingHours
	}
	if u.CancellationPolicy != nil {
		c.CancellationPolicy = *u.CancellationPolicy
	}
	if u.SlotGranularityMinutes != nil {
		if *u.SlotGranularityMinutes < 5 || *u.SlotGranularityMinutes > 24*60 {
			return c, &ConfigError{Field: "slotGranularityMinutes", Message: "must be between 5 and 1440"}
		}
		c.SlotGranularityMinutes = *u.SlotGranularityMinutes
	}
	if err := c.WorkingHours.Validate(); err != nil {
		return c, err
	}
	if err := c.CancellationPolicy.Validate(); err != nil {
		return c, err
	}
	return c, nil
}
