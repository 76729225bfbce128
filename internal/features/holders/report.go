package holders

import (
	"math/big"
	"time"

	"holder-map/internal/domain"
)

// Report is the immutable result of a classification run.
type Report struct {
	Token             domain.Address `json:"token"`
	Creator           domain.Address `json:"creator,omitempty"`
	GeneratedAt       time.Time      `json:"generatedAt"`
	Decimals          int            `json:"decimals"`
	DecimalsConfident bool           `json:"decimalsConfident"`
	TransferCount     int            `json:"transferCount"`

	Supply  Supply        `json:"supply"`
	Holders []HolderEntry `json:"holders"`
	Top     []HolderEntry `json:"top"`
	Pools   []Account     `json:"pools"`
	Vested  []Account     `json:"vested"`
	Proxies []ProxyFlag   `json:"proxies"`
	Buyers  []BuyerRecord `json:"buyers"`
	Early   EarlyWindow   `json:"early"`

	BotRecipients []domain.Address `json:"botRecipients"`
	Stats         Stats            `json:"stats"`
	Degraded      Degraded         `json:"degraded"`
}

// Stats are the headline figures of a report. Percentages are of current supply
// except BurnPctVsMinted.
type Stats struct {
	HolderCount     int      `json:"holderCount"`
	Top10Pct        float64  `json:"top10Pct"`
	CreatorPct      float64  `json:"creatorPct"`
	LPUnits         *big.Int `json:"lpUnits"`
	LPPct           float64  `json:"lpPct"`
	VestedUnits     *big.Int `json:"vestedUnits"`
	VestedPct       float64  `json:"vestedPct"`
	BurnPctVsMinted float64  `json:"burnPctVsMinted"`
	CirculatingPct  float64  `json:"circulatingPct"`
	SnipeCount      int      `json:"snipeCount"`
	InsiderCount    int      `json:"insiderCount"`
}

// Degraded counts the external reads that fell back to ledger data.
type Degraded struct {
	PairDiscoveryFailed bool `json:"pairDiscoveryFailed,omitempty"`
	CreatorLookupFailed bool `json:"creatorLookupFailed,omitempty"`
	PoolReadsFailed     int  `json:"poolReadsFailed,omitempty"`
	VestedReadsFailed   int  `json:"vestedReadsFailed,omitempty"`
	UnverifiedHolders   int  `json:"unverifiedHolders,omitempty"`
	FundingLookupFailed int  `json:"fundingLookupFailed,omitempty"`
}

// Any reports whether any external read degraded.
func (d Degraded) Any() bool {
	return d.PairDiscoveryFailed || d.CreatorLookupFailed || d.PoolReadsFailed > 0 ||
		d.VestedReadsFailed > 0 || d.UnverifiedHolders > 0 || d.FundingLookupFailed > 0
}

// EarlyBuyer returns the early-window entry for a, if any.
func (r *Report) EarlyBuyer(a domain.Address) (EarlyBuyer, bool) {
	for _, eb := range r.Early.Buyers {
		if eb.Address == a {
			return eb, true
		}
	}
	return EarlyBuyer{}, false
}

// Flagged returns the snipe and insider flags of a.
func (r *Report) Flagged(a domain.Address) (snipe, insider bool) {
	eb, ok := r.EarlyBuyer(a)
	return ok && eb.Snipe, ok && eb.Insider
}

// IsBotRecipient reports whether a received tokens from a configured bot address.
func (r *Report) IsBotRecipient(a domain.Address) bool {
	for _, b := range r.BotRecipients {
		if b == a {
			return true
		}
	}
	return false
}
