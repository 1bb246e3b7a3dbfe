package vesting

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
)

const (
	// Decimals is the number of fractional digits of the display unit.
	Decimals = 8
	// BaseUnitsPerToken is the number of on-chain base units in one display unit.
	BaseUnitsPerToken = 100_000_000
)

var ErrInvalidAmount = errors.New("invalid amount")

// ToDisplayAmount converts on-chain base units to a display amount.
func ToDisplayAmount(baseUnits uint64) float64 {
	return float64(baseUnits) / BaseUnitsPerToken
}

// ToBaseUnits converts a display amount to base units, rounding to the nearest unit.
func ToBaseUnits(display float64) (uint64, error) {
	if math.IsNaN(display) || math.IsInf(display, 0) || display < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, display)
	}
	v := math.Round(display * BaseUnitsPerToken)
	if v >= math.MaxUint64 {
		return 0, fmt.Errorf("%w: %v overflows base units", ErrInvalidAmount, display)
	}
	return uint64(v), nil
}

// ParseDisplayAmount parses a decimal string such as "1.5" into base units without
// going through float64. Digits beyond the eighth decimal are rounded half up.
func ParseDisplayAmount(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "/eE") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if r.Sign() < 0 {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	r.Mul(r, new(big.Rat).SetInt64(BaseUnitsPerToken))
	// round half up: (2*num + den) / (2*den)
	num := new(big.Int).Mul(r.Num(), big.NewInt(2))
	num.Add(num, r.Denom())
	den := new(big.Int).Mul(r.Denom(), big.NewInt(2))
	q := new(big.Int).Quo(num, den)
	if !q.IsUint64() {
		return 0, fmt.Errorf("%w: %q overflows base units", ErrInvalidAmount, s)
	}
	return q.Uint64(), nil
}

// FormatBaseUnits renders base units as a display decimal with trailing zeros trimmed.
func FormatBaseUnits(baseUnits uint64) string {
	whole := baseUnits / BaseUnitsPerToken
	frac := baseUnits % BaseUnitsPerToken
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	fs := strings.TrimRight(fmt.Sprintf("%08d", frac), "0")
	return fmt.Sprintf("%d.%s", whole, fs)
}
