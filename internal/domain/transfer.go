package domain

import (
	"math/big"
	"sort"
)

// Transfer is one token transfer log entry as returned by the indexer.
type Transfer struct {
	TxHash      string   `json:"hash"`
	BlockNumber uint64   `json:"blockNumber"`
	LogIndex    uint64   `json:"logIndex"`
	Timestamp   int64    `json:"timeStamp"`
	From        Address  `json:"from"`
	To          Address  `json:"to"`
	Value       *big.Int `json:"value"`
	// DecimalHint is the indexer's tokenDecimal field, nil when absent.
	DecimalHint *int `json:"tokenDecimal,omitempty"`
}

// Amount returns the transfer value, treating nil as zero.
func (t Transfer) Amount() *big.Int {
	if t.Value == nil {
		return new(big.Int)
	}
	return t.Value
}

// Less orders transfers by (timestamp, block, log index).
func Less(a, b Transfer) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	if a.BlockNumber != b.BlockNumber {
		return a.BlockNumber < b.BlockNumber
	}
	return a.LogIndex < b.LogIndex
}

// SortTransfers returns a canonically ordered copy; the input is left untouched.
func SortTransfers(in []Transfer) []Transfer {
	out := make([]Transfer, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// CanonicalTransfers returns a sorted copy of in with every address
// normalized, so mixed-case input from any source keys the same ledger entry.
func CanonicalTransfers(in []Transfer) []Transfer {
	out := make([]Transfer, len(in))
	for i, t := range in {
		t.From = NormalizeAddress(t.From.String())
		t.To = NormalizeAddress(t.To.String())
		out[i] = t
	}
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// NativeTx is a base-currency transaction from an account's history.
type NativeTx struct {
	Hash      string   `json:"hash"`
	From      Address  `json:"from"`
	To        Address  `json:"to"`
	Value     *big.Int `json:"value"`
	Timestamp int64    `json:"timeStamp"`
}
