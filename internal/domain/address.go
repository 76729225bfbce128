package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address is a lower-cased 0x-prefixed account address.
type Address string

const (
	ZeroAddress Address = "0x0000000000000000000000000000000000000000"
	DeadAddress Address = "0x000000000000000000000000000000000000dead"
)

// NormalizeAddress canonicalises s so that map keys never differ only by case.
// Non-hex input is only trimmed and lower-cased.
func NormalizeAddress(s string) Address {
	s = strings.TrimSpace(s)
	if common.IsHexAddress(s) {
		return Address(strings.ToLower(common.HexToAddress(s).Hex()))
	}
	return Address(strings.ToLower(s))
}

// IsHex reports whether a is a well-formed 20-byte hex address.
func (a Address) IsHex() bool {
	return strings.HasPrefix(string(a), "0x") && common.IsHexAddress(string(a))
}

// IsBurnSink reports whether tokens credited to a leave the supply.
func (a Address) IsBurnSink() bool {
	return a == ZeroAddress || a == DeadAddress
}

func (a Address) String() string { return string(a) }

// Short renders 0x1234…abcd for labels.
func (a Address) Short() string {
	s := string(a)
	if len(s) <= 12 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}

// AddressSet is a set of canonical addresses.
type AddressSet map[Address]struct{}

func NewAddressSet(addrs ...Address) AddressSet {
	s := make(AddressSet, len(addrs))
	for _, a := range addrs {
		s.Add(a)
	}
	return s
}

// ParseAddressSet normalises raw strings, skipping empty ones.
func ParseAddressSet(raw []string) AddressSet {
	s := make(AddressSet, len(raw))
	for _, r := range raw {
		a := NormalizeAddress(r)
		if a == "" {
			continue
		}
		s.Add(a)
	}
	return s
}

func (s AddressSet) Add(a Address) { s[a] = struct{}{} }

func (s AddressSet) Has(a Address) bool {
	_, ok := s[a]
	return ok
}

// Merge returns a new set holding the union of s and others.
func (s AddressSet) Merge(others ...AddressSet) AddressSet {
	out := make(AddressSet, len(s))
	for a := range s {
		out.Add(a)
	}
	for _, o := range others {
		for a := range o {
			out.Add(a)
		}
	}
	return out
}
