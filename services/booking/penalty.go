package booking

import (
	"time"

	"bookly/models"

	"github.com/shopspring/decimal"
)

// Penalty is the late-cancellation charge computed for one cancellation.
type Penalty struct {
	Applied bool
	Amount  decimal.Decimal
	Type    models.DeductionType
}

var hundred = decimal.NewFromInt(100)

// ComputePenalty applies the policy to a cancellation made notice before the
// appointment. Notice shorter than MinCancelHours owes the deduction: a
// percentage of price or a fixed amount, rounded to cents. A zero deduction
// is not a penalty.
func ComputePenalty(policy models.CancellationPolicy, price float64, notice time.Duration) Penalty {
	if notice >= time.Duration(policy.MinCancelHours)*time.Hour {
		return Penalty{}
	}

	value := decimal.NewFromFloat(policy.DeductionValue)
	var amount decimal.Decimal
	switch policy.DeductionType {
	case models.DeductionFixed:
		amount = value
	default:
		amount = decimal.NewFromFloat(price).Mul(value).Div(hundred)
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return Penalty{}
	}
	return Penalty{Applied: true, Amount: amount, Type: policy.DeductionType}
}

func roundHours(d time.Duration) float64 {
	return decimal.NewFromFloat(d.Hours()).Round(2).InexactFloat64()
}
