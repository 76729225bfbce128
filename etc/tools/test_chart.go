package main

import (
	"fmt"
	"math/big"
	"os"

	"holder-map/internal/domain"
	"holder-map/internal/features/holders"
	"holder-map/internal/features/tg_charts"
)

// go run etc/tools/test_chart.go
// renders a synthetic holder map to etc/charts/test_holder_map.png
func main() {
	fmt.Println("Generating test chart...")

	addr := func(n int) domain.Address { return domain.Address(fmt.Sprintf("0x%040x", n)) }
	rep := &holders.Report{
		Token:  addr(0x70),
		Pools:  []holders.Account{{Address: addr(0x900), Label: "LP-1", Units: big.NewInt(300_000_000), Pct: 30}},
		Vested: []holders.Account{{Address: addr(0x800), Label: "VESTED", Units: big.NewInt(150_000_000), Pct: 15}},
		Early: holders.EarlyWindow{Buyers: []holders.EarlyBuyer{
			{Address: addr(2), Snipe: true},
			{Address: addr(5), Insider: true},
		}},
		BotRecipients: []domain.Address{addr(9)},
	}
	for i := 1; i <= 300; i++ {
		units := int64(60_000_000 / (i*i/4 + 1))
		rep.Holders = append(rep.Holders, holders.HolderEntry{
			Address: addr(i),
			Units:   big.NewInt(units),
			Pct:     float64(units) / 1e7,
		})
	}

	chartPath, err := tg_charts.GenerateBubbleMap(rep, "etc/charts/test_holder_map.png")
	if err != nil {
		fmt.Printf("Error generating chart: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Chart generated successfully: %s\n", chartPath)
}
