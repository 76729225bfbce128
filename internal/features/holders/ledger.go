package holders

import (
	"math/big"

	"holder-map/internal/domain"
)

// Supply is the supply accounting of a replay. Circulating is filled once
// pools, vesting accounts and proxies are known.
type Supply struct {
	Minted      *big.Int `json:"minted"`
	Burned      *big.Int `json:"burned"`
	Current     *big.Int `json:"current"`
	Circulating *big.Int `json:"circulating"`
}

// Ledger is the per-address state produced by replaying the transfer log.
type Ledger struct {
	token      domain.Address
	balances   map[domain.Address]*big.Int
	inflow     map[domain.Address]*big.Int
	outflow    map[domain.Address]*big.Int
	recipients map[domain.Address]domain.AddressSet
	minted     *big.Int
	burned     *big.Int
}

// BuildLedger replays transfers, which must already be in canonical order.
// Flow counters and recipient sets see every transfer; balances skip
// transfers touching the token contract and never credit burn sinks.
func BuildLedger(token domain.Address, transfers []domain.Transfer) *Ledger {
	l := &Ledger{
		token:      token,
		balances:   make(map[domain.Address]*big.Int),
		inflow:     make(map[domain.Address]*big.Int),
		outflow:    make(map[domain.Address]*big.Int),
		recipients: make(map[domain.Address]domain.AddressSet),
		minted:     new(big.Int),
		burned:     new(big.Int),
	}
	for _, t := range transfers {
		l.apply(t)
	}
	return l
}

func (l *Ledger) apply(t domain.Transfer) {
	v := t.Amount()

	addTo(l.inflow, t.To, v)
	addTo(l.outflow, t.From, v)
	set, ok := l.recipients[t.From]
	if !ok {
		set = domain.AddressSet{}
		l.recipients[t.From] = set
	}
	set.Add(t.To)

	if t.From == domain.ZeroAddress {
		l.minted.Add(l.minted, v)
	}
	if t.To.IsBurnSink() {
		l.burned.Add(l.burned, v)
	}

	if t.From == l.token || t.To == l.token {
		return
	}
	if !t.From.IsBurnSink() {
		addTo(l.balances, t.From, new(big.Int).Neg(v))
	}
	if !t.To.IsBurnSink() {
		addTo(l.balances, t.To, v)
	}
}

func addTo(m map[domain.Address]*big.Int, a domain.Address, v *big.Int) {
	cur, ok := m[a]
	if !ok {
		cur = new(big.Int)
		m[a] = cur
	}
	cur.Add(cur, v)
}

func read(m map[domain.Address]*big.Int, a domain.Address) *big.Int {
	if v, ok := m[a]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

// Balance is the signed ledger balance of a.
func (l *Ledger) Balance(a domain.Address) *big.Int { return read(l.balances, a) }

func (l *Ledger) Inflow(a domain.Address) *big.Int  { return read(l.inflow, a) }
func (l *Ledger) Outflow(a domain.Address) *big.Int { return read(l.outflow, a) }

// Recipients is the number of distinct addresses a has sent to.
func (l *Ledger) Recipients(a domain.Address) int { return len(l.recipients[a]) }

// Senders lists every address that sent at least one transfer.
func (l *Ledger) Senders() []domain.Address {
	out := make([]domain.Address, 0, len(l.recipients))
	for a := range l.recipients {
		out = append(out, a)
	}
	return out
}

// Positive returns a copy of every strictly positive balance.
func (l *Ledger) Positive() map[domain.Address]*big.Int {
	out := make(map[domain.Address]*big.Int)
	for a, v := range l.balances {
		if v.Sign() > 0 {
			out[a] = new(big.Int).Set(v)
		}
	}
	return out
}

// RecipientsOf lists the distinct recipients of transfers sent by any of from.
func (l *Ledger) RecipientsOf(from domain.AddressSet) domain.AddressSet {
	out := domain.AddressSet{}
	for a := range from {
		for to := range l.recipients[a] {
			out.Add(to)
		}
	}
	return out
}

// Supply derives minted, burned and current supply, clamping current at zero.
func (l *Ledger) Supply() Supply {
	current := new(big.Int).Sub(l.minted, l.burned)
	if current.Sign() < 0 {
		current.SetInt64(0)
	}
	return Supply{
		Minted:      new(big.Int).Set(l.minted),
		Burned:      new(big.Int).Set(l.burned),
		Current:     current,
		Circulating: new(big.Int).Set(current),
	}
}
