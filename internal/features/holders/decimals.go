package holders

import (
	"math/big"
	"sort"

	"holder-map/internal/domain"
)

const (
	maxDecimals      = 18
	defaultDecimals  = 18
	decimalSampleMax = 500
)

var bigTen = big.NewInt(10)

// InferDecimals picks the display decimals of a token. The modal indexer hint
// wins; without hints the modal count of trailing zeros among the largest
// values is used. confident is false only when nothing could be observed.
func InferDecimals(transfers []domain.Transfer) (decimals int, confident bool) {
	hints := make(map[int]int)
	for _, t := range transfers {
		if t.DecimalHint == nil {
			continue
		}
		if d := *t.DecimalHint; d >= 0 && d <= maxDecimals {
			hints[d]++
		}
	}
	if len(hints) > 0 {
		return modeLargest(hints), true
	}

	values := make([]*big.Int, 0, len(transfers))
	for _, t := range transfers {
		if t.Value != nil && t.Value.Sign() > 0 {
			values = append(values, t.Value)
		}
	}
	if len(values) == 0 {
		return defaultDecimals, false
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Cmp(values[j]) > 0 })
	if len(values) > decimalSampleMax {
		values = values[:decimalSampleMax]
	}

	zeros := make(map[int]int)
	for _, v := range values {
		zeros[trailingZeros10(v)]++
	}
	return modeLargest(zeros), true
}

// trailingZeros10 counts trailing base-10 zeros of a positive value, capped at 18.
func trailingZeros10(v *big.Int) int {
	n := new(big.Int).Set(v)
	rem := new(big.Int)
	count := 0
	for count < maxDecimals && n.Sign() > 0 {
		q, r := new(big.Int).QuoRem(n, bigTen, rem)
		if r.Sign() != 0 {
			break
		}
		n = q
		count++
	}
	return count
}

// modeLargest returns the most frequent key, preferring the larger key on ties.
func modeLargest(counts map[int]int) int {
	best, bestCount := -1, -1
	for k, c := range counts {
		if c > bestCount || (c == bestCount && k > best) {
			best, bestCount = k, c
		}
	}
	return best
}
