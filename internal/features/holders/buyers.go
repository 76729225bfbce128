package holders

import (
	"math/big"
	"sort"

	"holder-map/internal/domain"
)

type BuyerStatus string

const (
	StatusHold     BuyerStatus = "hold"
	StatusSoldAll  BuyerStatus = "soldAll"
	StatusSoldPart BuyerStatus = "soldPart"
	StatusMore     BuyerStatus = "more"
)

// BuyerRecord is one of the first real buyers of the token.
type BuyerRecord struct {
	Address      domain.Address `json:"address"`
	InitialUnits *big.Int       `json:"initialUnits"`
	Timestamp    int64          `json:"timestamp"`
	TxHash       string         `json:"txHash"`

	Status       BuyerStatus `json:"status"`
	CurrentUnits *big.Int    `json:"currentUnits"`
	SoldUnits    *big.Int    `json:"soldUnits"`
	BoughtUnits  *big.Int    `json:"boughtUnits"`
	InitPct      float64     `json:"initPct"`
	SoldPct      float64     `json:"soldPct"`
	BoughtPct    float64     `json:"boughtPct"`
	ProgressPct  float64     `json:"progressPct"`

	Early    bool           `json:"early"`
	Snipe    bool           `json:"snipe"`
	Insider  bool           `json:"insider"`
	FundedBy domain.Address `json:"fundedBy,omitempty"`
}

// txGroup is the transfers of one transaction ordered by log index.
type txGroup struct {
	hash      string
	transfers []domain.Transfer
}

func (g txGroup) first() domain.Transfer { return g.transfers[0] }

// groupByTx groups transfers by hash and orders the groups by the
// (timestamp, block, log index) of their first transfer.
func groupByTx(transfers []domain.Transfer) []txGroup {
	index := make(map[string]int)
	var groups []txGroup
	for _, t := range transfers {
		i, ok := index[t.TxHash]
		if !ok {
			i = len(groups)
			index[t.TxHash] = i
			groups = append(groups, txGroup{hash: t.TxHash})
		}
		groups[i].transfers = append(groups[i].transfers, t)
	}
	for _, g := range groups {
		sort.SliceStable(g.transfers, func(i, j int) bool {
			return g.transfers[i].LogIndex < g.transfers[j].LogIndex
		})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return domain.Less(groups[i].first(), groups[j].first())
	})
	return groups
}

// recipientResolver finds the economically real recipient behind router hops.
type recipientResolver struct {
	excluded domain.AddressSet
	pools    domain.AddressSet
	maxDepth int
}

func (r recipientResolver) acceptable(a domain.Address) bool {
	return !r.excluded.Has(a) && !r.pools.Has(a) && !a.IsBurnSink()
}

// resolve walks the from->to edges of one transaction breadth first from
// seed and returns the first acceptable address within maxDepth levels.
func (r recipientResolver) resolve(g txGroup, seed domain.Address) (domain.Address, bool) {
	edges := make(map[domain.Address][]domain.Address)
	for _, t := range g.transfers {
		edges[t.From] = append(edges[t.From], t.To)
	}

	seen := domain.NewAddressSet(seed)
	frontier := []domain.Address{seed}
	for depth := 0; depth < r.maxDepth && len(frontier) > 0; depth++ {
		var next []domain.Address
		for _, u := range frontier {
			if r.acceptable(u) {
				return u, true
			}
			for _, v := range edges[u] {
				if seen.Has(v) {
					continue
				}
				seen.Add(v)
				next = append(next, v)
			}
		}
		frontier = next
	}
	if r.acceptable(seed) {
		return seed, true
	}
	return "", false
}

// creditsTo sums every transfer crediting a within the transaction.
func creditsTo(g txGroup, a domain.Address) *big.Int {
	sum := new(big.Int)
	for _, t := range g.transfers {
		if t.To == a {
			sum.Add(sum, t.Amount())
		}
	}
	return sum
}

// poolSeeds returns the transfers sent by a pool, largest first.
func poolSeeds(g txGroup, pools domain.AddressSet) []domain.Transfer {
	var seeds []domain.Transfer
	for _, t := range g.transfers {
		if pools.Has(t.From) {
			seeds = append(seeds, t)
		}
	}
	sort.SliceStable(seeds, func(i, j int) bool {
		return seeds[i].Amount().Cmp(seeds[j].Amount()) > 0
	})
	return seeds
}

// FirstBuyers returns up to limit unique real recipients of pool outflows in
// transaction order, then sorted by timestamp. transfers must be in
// canonical order.
func FirstBuyers(transfers []domain.Transfer, pools, excluded domain.AddressSet, limit, maxDepth int) []BuyerRecord {
	if limit <= 0 || len(pools) == 0 {
		return nil
	}
	r := recipientResolver{excluded: excluded, pools: pools, maxDepth: maxDepth}
	seen := domain.AddressSet{}
	var buyers []BuyerRecord

	for _, g := range groupByTx(transfers) {
		for _, seed := range poolSeeds(g, pools) {
			addr, ok := r.resolve(g, seed.To)
			if !ok || seen.Has(addr) {
				continue
			}
			credit := creditsTo(g, addr)
			if credit.Sign() == 0 {
				continue
			}
			seen.Add(addr)
			buyers = append(buyers, BuyerRecord{
				Address:      addr,
				InitialUnits: credit,
				Timestamp:    g.first().Timestamp,
				TxHash:       g.hash,
			})
			if len(buyers) >= limit {
				return sortBuyers(buyers)
			}
		}
	}
	return sortBuyers(buyers)
}

func sortBuyers(b []BuyerRecord) []BuyerRecord {
	sort.SliceStable(b, func(i, j int) bool { return b[i].Timestamp < b[j].Timestamp })
	return b
}

// enrichBuyer compares the initial buy with the current position.
func enrichBuyer(b *BuyerRecord, current, supply *big.Int) {
	initial := cloneInt(b.InitialUnits)
	current = nonNegative(current)
	b.CurrentUnits = current

	switch c := current.Cmp(initial); {
	case current.Sign() == 0:
		b.Status = StatusSoldAll
	case c > 0:
		b.Status = StatusMore
	case c < 0:
		b.Status = StatusSoldPart
	default:
		b.Status = StatusHold
	}

	b.SoldUnits, b.BoughtUnits = new(big.Int), new(big.Int)
	if initial.Cmp(current) > 0 {
		b.SoldUnits.Sub(initial, current)
	} else {
		b.BoughtUnits.Sub(current, initial)
	}

	b.InitPct = PercentOf(initial, supply)
	b.SoldPct = PercentOf(b.SoldUnits, supply)
	b.BoughtPct = PercentOf(b.BoughtUnits, supply)

	if initial.Sign() > 0 {
		ratio := new(big.Int).Mul(current, big.NewInt(10_000))
		ratio.Quo(ratio, initial)
		f, _ := new(big.Float).SetInt(ratio).Float64()
		b.ProgressPct = clampPct(f/100, 0, 200)
	}
}
