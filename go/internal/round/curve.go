package round

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Curve maps elapsed round time to a multiplier value. Implementations must
// be deterministic and monotonically non-decreasing so every observer can
// recompute the timeline independently. The scheduler clamps the output to
// the crash point; curves never need to know it.
type Curve interface {
	At(elapsed time.Duration) decimal.Decimal
}

// StepCurve grows by a fixed step once per tick interval, the behavior of
// the classic count-up (1.0, 1.1, 1.2, ...).
type StepCurve struct {
	Step     decimal.Decimal
	Interval time.Duration
}

func (c StepCurve) At(elapsed time.Duration) decimal.Decimal {
	if elapsed <= 0 {
		return one
	}
	ticks := int64(elapsed / c.Interval)
	return one.Add(c.Step.Mul(decimal.NewFromInt(ticks))).Truncate(2)
}

// ExpoCurve grows exponentially with elapsed time: 1.0 * e^(rate*t).
type ExpoCurve struct {
	// Rate is the growth exponent per second.
	Rate float64
}

func (c ExpoCurve) At(elapsed time.Duration) decimal.Decimal {
	if elapsed <= 0 {
		return one
	}
	value := math.Exp(c.Rate * elapsed.Seconds())
	return decimal.NewFromFloat(value).Truncate(2)
}
