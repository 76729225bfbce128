package holders

import (
	"math/big"
	"sort"

	"holder-map/internal/domain"
)

type ProxyReason string

const (
	ProxyBehavioral ProxyReason = "distributor"
	ProxyKnown      ProxyReason = "system"
)

// ProxyFlag marks an address excluded as a pass-through mechanism.
type ProxyFlag struct {
	Address    domain.Address `json:"address"`
	Reason     ProxyReason    `json:"reason"`
	Recipients int            `json:"recipients"`
	Inflow     *big.Int       `json:"inflow"`
	Outflow    *big.Int       `json:"outflow"`
	Balance    *big.Int       `json:"balance"`
}

// DetectProxies flags a sender as a behavioural proxy when all of these hold:
//
//	recipients(a) >= ProxyMinRecipients (distinct addresses it sent to)
//	balance(a) == 0
//	outflow(a) > 0
//	outflow(a)*100 >= ProxyOutflowSharePct*inflow(a)
//
// The share is measured against inflow, so a sender that never received
// anything passes the last test. Known system addresses are always flagged.
// The result depends only on the ledger and is sorted by address.
func DetectProxies(l *Ledger, cfg Config) []ProxyFlag {
	cfg = cfg.withDefaults()
	share := big.NewInt(cfg.ProxyOutflowSharePct)
	hundred := big.NewInt(100)

	seen := domain.AddressSet{}
	var out []ProxyFlag
	for _, a := range l.Senders() {
		// Sinks and the contract never hold a tracked balance.
		if a.IsBurnSink() || a == l.token {
			continue
		}
		if l.Recipients(a) < cfg.ProxyMinRecipients {
			continue
		}
		if l.Balance(a).Sign() != 0 {
			continue
		}
		in, outflow := l.Inflow(a), l.Outflow(a)
		if outflow.Sign() == 0 {
			continue
		}
		// outflow*100 >= share*inflow
		lhs := new(big.Int).Mul(outflow, hundred)
		rhs := new(big.Int).Mul(share, in)
		if lhs.Cmp(rhs) < 0 {
			continue
		}
		out = append(out, proxyFlag(l, a, ProxyBehavioral))
		seen.Add(a)
	}
	for a := range cfg.KnownSystem {
		if !seen.Has(a) {
			out = append(out, proxyFlag(l, a, ProxyKnown))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func proxyFlag(l *Ledger, a domain.Address, reason ProxyReason) ProxyFlag {
	return ProxyFlag{
		Address:    a,
		Reason:     reason,
		Recipients: l.Recipients(a),
		Inflow:     l.Inflow(a),
		Outflow:    l.Outflow(a),
		Balance:    l.Balance(a),
	}
}

func proxySet(flags []ProxyFlag) domain.AddressSet {
	s := make(domain.AddressSet, len(flags))
	for _, f := range flags {
		s.Add(f.Address)
	}
	return s
}
