package holders

import (
	"time"

	"holder-map/internal/domain"
)

// Config holds every tunable threshold of a classification run.
// It is passed explicitly to Classify; the engine keeps no package state.
type Config struct {
	// Distributor detection.
	ProxyMinRecipients   int
	ProxyOutflowSharePct int64

	// Authoritative verification of the largest holders.
	VerifyTopN        int
	VerifyConcurrency int
	VerifyRetries     int
	VerifyBackoff     time.Duration

	// First-buyer resolution.
	FirstBuyersLimit int
	MaxHopDepth      int

	// Early-window classification.
	EarlyWindow        time.Duration
	SnipeMinBps        int64
	SnipeTopK          int
	FundingSample      int
	FundingLookback    time.Duration
	FundingGrace       time.Duration
	FundingConcurrency int
	InsiderFunderMin   int

	// Output shaping.
	RenderTopN int
	TopListN   int

	KnownSystem   domain.AddressSet
	AlwaysExclude domain.AddressSet
	BotAddresses  domain.AddressSet
	Vesting       domain.AddressSet
	// ExtraPools are pool addresses known in advance, merged with pair discovery.
	ExtraPools domain.AddressSet
}

// Default router and bot contracts on Abstract.
const (
	DefaultBotAddress    = "0x1c4ae91dfa56e49fca849ede553759e1f5f04d9f"
	DefaultRouterAddress = "0xcca5047e4c9f9d72f11c199b4ff1960f88a4748d"
)

func DefaultConfig() Config {
	return Config{
		ProxyMinRecipients:   8,
		ProxyOutflowSharePct: 90,
		VerifyTopN:           150,
		VerifyConcurrency:    3,
		VerifyRetries:        2,
		VerifyBackoff:        250 * time.Millisecond,
		FirstBuyersLimit:     25,
		MaxHopDepth:          4,
		EarlyWindow:          180 * time.Second,
		SnipeMinBps:          20,
		SnipeTopK:            10,
		FundingSample:        150,
		FundingLookback:      6 * time.Hour,
		FundingGrace:         60 * time.Second,
		FundingConcurrency:   3,
		InsiderFunderMin:     3,
		RenderTopN:           500,
		TopListN:             25,
		KnownSystem:          domain.NewAddressSet(DefaultBotAddress, DefaultRouterAddress),
		AlwaysExclude:        domain.AddressSet{},
		BotAddresses:         domain.NewAddressSet(DefaultBotAddress),
		Vesting:              domain.AddressSet{},
		ExtraPools:           domain.AddressSet{},
	}
}

// withDefaults replaces zero or out-of-range thresholds with the defaults.
// Fields where zero is meaningful are only clamped at zero: VerifyTopN,
// SnipeTopK and FundingSample set to zero switch off balance verification,
// rank-based snipes and funding lookups; VerifyRetries and FundingGrace
// may also be zero.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ProxyMinRecipients <= 0 {
		c.ProxyMinRecipients = d.ProxyMinRecipients
	}
	if c.ProxyOutflowSharePct <= 0 || c.ProxyOutflowSharePct > 100 {
		c.ProxyOutflowSharePct = d.ProxyOutflowSharePct
	}
	if c.VerifyTopN < 0 {
		c.VerifyTopN = 0
	}
	if c.VerifyConcurrency <= 0 {
		c.VerifyConcurrency = d.VerifyConcurrency
	}
	if c.VerifyRetries < 0 {
		c.VerifyRetries = 0
	}
	if c.FirstBuyersLimit <= 0 {
		c.FirstBuyersLimit = d.FirstBuyersLimit
	}
	if c.MaxHopDepth <= 0 {
		c.MaxHopDepth = d.MaxHopDepth
	}
	if c.EarlyWindow <= 0 {
		c.EarlyWindow = d.EarlyWindow
	}
	if c.SnipeMinBps <= 0 {
		c.SnipeMinBps = d.SnipeMinBps
	}
	if c.SnipeTopK < 0 {
		c.SnipeTopK = 0
	}
	if c.FundingSample < 0 {
		c.FundingSample = 0
	}
	if c.FundingLookback <= 0 {
		c.FundingLookback = d.FundingLookback
	}
	if c.FundingGrace < 0 {
		c.FundingGrace = 0
	}
	if c.FundingConcurrency <= 0 {
		c.FundingConcurrency = d.FundingConcurrency
	}
	if c.InsiderFunderMin <= 0 {
		c.InsiderFunderMin = d.InsiderFunderMin
	}
	if c.RenderTopN <= 0 {
		c.RenderTopN = d.RenderTopN
	}
	if c.TopListN <= 0 {
		c.TopListN = d.TopListN
	}
	for _, set := range []*domain.AddressSet{&c.KnownSystem, &c.AlwaysExclude, &c.BotAddresses, &c.Vesting, &c.ExtraPools} {
		if *set == nil {
			*set = domain.AddressSet{}
		}
	}
	return c
}
