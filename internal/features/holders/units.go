package holders

import (
	"fmt"
	"math/big"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// pctScale is the fixed-point scale of percentages: 1e6 keeps four decimal places of percent.
var pctScale = big.NewInt(1_000_000)

// PercentOf returns num/den as a percentage using integer division at pctScale.
// A non-positive denominator yields 0.
func PercentOf(num, den *big.Int) float64 {
	if num == nil || den == nil || den.Sign() <= 0 {
		return 0
	}
	q := new(big.Int).Mul(num, pctScale)
	q.Quo(q, den)
	f, _ := new(big.Float).SetInt(q).Float64()
	return f / 1e4
}

func clampPct(p, lo, hi float64) float64 {
	if p < lo {
		return lo
	}
	if p > hi {
		return hi
	}
	return p
}

// FormatUnits renders raw smallest units as an exact decimal string.
func FormatUnits(raw *big.Int, decimals int) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}

// ParseUnits is the exact inverse of FormatUnits.
func ParseUnits(s string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount %q: %w", s, err)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimals", s, decimals)
	}
	return shifted.BigInt(), nil
}

// HumanUnits renders raw units for display, e.g. "1,234,567.89".
func HumanUnits(raw *big.Int, decimals int) string {
	if raw == nil {
		return "0"
	}
	f, _ := decimal.NewFromBigInt(raw, -int32(decimals)).Float64()
	return humanize.CommafWithDigits(f, 2)
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func nonNegative(v *big.Int) *big.Int {
	if v == nil || v.Sign() < 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
