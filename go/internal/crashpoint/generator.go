package crashpoint

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/shopspring/decimal"
)

// Crash points are drawn uniformly from [1.01, 10.00] at cent precision.
// The draw happens once per round, before betting opens, and the result must
// not leave the engine until the round crashes.
var (
	floor   = decimal.RequireFromString("1.01")
	ceiling = decimal.RequireFromString("10.00")
)

// span is the number of distinct two-decimal values in [1.01, 10.00].
const span = 900

// Generator produces the committed crash multiplier for a round.
type Generator interface {
	Generate() (decimal.Decimal, error)
}

// RandomGenerator draws from crypto/rand.
type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

// Generate returns a uniform two-decimal multiplier in [1.01, 10.00].
func (g *RandomGenerator) Generate() (decimal.Decimal, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return decimal.Zero, fmt.Errorf("failed to read entropy: %w", err)
	}

	// Rejection sampling keeps the draw uniform across the 900 cent steps.
	bound := (^uint64(0) / span) * span
	n := binary.BigEndian.Uint64(buf[:])
	for n >= bound {
		if _, err := rand.Read(buf[:]); err != nil {
			return decimal.Zero, fmt.Errorf("failed to read entropy: %w", err)
		}
		n = binary.BigEndian.Uint64(buf[:])
	}

	cents := int64(n % span)
	return floor.Add(decimal.New(cents, -2)), nil
}

// FixedGenerator always returns the same crash point. Test use only.
type FixedGenerator struct {
	Value decimal.Decimal
}

func NewFixedGenerator(value decimal.Decimal) *FixedGenerator {
	return &FixedGenerator{Value: value}
}

func (g *FixedGenerator) Generate() (decimal.Decimal, error) {
	return g.Value, nil
}
