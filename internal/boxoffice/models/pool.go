package models

import (
	"math/bits"

	id "boxoffice/pkg/domain"
	dErrors "boxoffice/pkg/domain-errors"
)

// DefaultProtectionRate is the premium, in percent of the admission fee.
const DefaultProtectionRate = 5

// CostOfProtection returns price * ratePercent / 100, truncated. The product
// is computed in 128 bits so large prices cannot overflow.
func CostOfProtection(price id.Amount, ratePercent uint64) id.Amount {
	if ratePercent > 100 {
		ratePercent = 100
	}
	hi, lo := bits.Mul64(uint64(price), ratePercent)
	q, _ := bits.Div64(hi, lo, 100)
	return id.Amount(q)
}

// Pool is the insurance pool's running total of premiums collected. It is an
// audit figure: claims are paid from the vault account and never reduce it.
type Pool struct {
	Premiums id.Amount `json:"premiums"`
}

// Collect returns the pool with amount added.
func (p Pool) Collect(amount id.Amount) (Pool, error) {
	sum, carry := bits.Add64(uint64(p.Premiums), uint64(amount), 0)
	if carry != 0 {
		return p, dErrors.New(dErrors.CodeInvariantViolation, "insurance pool total overflow")
	}
	return Pool{Premiums: id.Amount(sum)}, nil
}
