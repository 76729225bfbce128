package tg_charts

import (
	"fmt"
	"image/color"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"sort"

	"holder-map/internal/domain"
	"holder-map/internal/features/holders"
	logging "holder-map/internal/infra/log"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
)

const (
	mapWidth  = 1600
	mapHeight = 1600

	maxBubbleRadius = 170.0
	minBubbleRadius = 3.0
	bubbleGap       = 2.0

	spiralStep     = 0.35 // radians per step
	spiralSpacing  = 2.2  // pixels of radius gained per radian
	maxSpiralSteps = 20000

	labelMinRadius = 28.0
	titleFontSize  = 34.0
	labelFontSize  = 15.0
	legendFontSize = 20.0
)

type BubbleKind int

const (
	KindHolder BubbleKind = iota
	KindPool
	KindVested
)

// Bubble is one placed circle of the holder map.
type Bubble struct {
	Address domain.Address
	Kind    BubbleKind
	Label   string
	Units   *big.Int
	Pct     float64
	Snipe   bool
	Insider bool
	Bot     bool

	X, Y, R float64
}

var (
	backgroundColor = color.RGBA{12, 14, 22, 255}
	holderFill      = color.RGBA{76, 132, 255, 210}
	poolFill        = color.RGBA{46, 204, 113, 210}
	vestedFill      = color.RGBA{155, 89, 182, 210}
	snipeRing       = color.RGBA{255, 159, 28, 255}
	insiderRing     = color.RGBA{231, 76, 60, 255}
	botRing         = color.RGBA{241, 196, 15, 255}
)

// collectBubbles turns a report into unplaced bubbles, largest first.
// Accounts with no units are left out.
func collectBubbles(rep *holders.Report) []Bubble {
	var out []Bubble
	add := func(a domain.Address, kind BubbleKind, label string, units *big.Int, pct float64) {
		if units == nil || units.Sign() <= 0 {
			return
		}
		b := Bubble{Address: a, Kind: kind, Label: label, Units: units, Pct: pct}
		if kind == KindHolder {
			b.Snipe, b.Insider = rep.Flagged(a)
			b.Bot = rep.IsBotRecipient(a)
		}
		out = append(out, b)
	}
	for _, h := range rep.Holders {
		add(h.Address, KindHolder, h.Address.Short(), h.Units, h.Pct)
	}
	for _, p := range rep.Pools {
		add(p.Address, KindPool, p.Label, p.Units, p.Pct)
	}
	for _, v := range rep.Vested {
		add(v.Address, KindVested, v.Label, v.Units, v.Pct)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Units.Cmp(out[j].Units); c != 0 {
			return c > 0
		}
		return out[i].Address < out[j].Address
	})
	return out
}

// sizeBubbles scales radii by sqrt(units) relative to the largest bubble.
func sizeBubbles(bubbles []Bubble) {
	if len(bubbles) == 0 {
		return
	}
	maxUnits, _ := new(big.Float).SetInt(bubbles[0].Units).Float64()
	if maxUnits <= 0 {
		return
	}
	for i := range bubbles {
		u, _ := new(big.Float).SetInt(bubbles[i].Units).Float64()
		r := maxBubbleRadius * math.Sqrt(u/maxUnits)
		if r < minBubbleRadius {
			r = minBubbleRadius
		}
		bubbles[i].R = r
	}
}

// packBubbles places each bubble, largest first, at the first point on an
// outward spiral where it overlaps nothing already placed and fits the canvas.
// Bubbles that find no room are dropped.
func packBubbles(bubbles []Bubble, width, height float64) []Bubble {
	cx, cy := width/2, height/2
	placed := make([]Bubble, 0, len(bubbles))
	// Later bubbles are no larger, so they rarely fit far inside the last hit.
	last := 0
	for _, b := range bubbles {
		ok := false
		for step := last / 2; step < maxSpiralSteps; step++ {
			theta := float64(step) * spiralStep
			dist := spiralSpacing * theta
			x := cx + dist*math.Cos(theta)
			y := cy + dist*math.Sin(theta)
			if x-b.R < 0 || x+b.R > width || y-b.R < 0 || y+b.R > height {
				if dist > math.Hypot(width, height) {
					break
				}
				continue
			}
			if overlapsAny(placed, x, y, b.R) {
				continue
			}
			b.X, b.Y = x, y
			last = step
			ok = true
			break
		}
		if ok {
			placed = append(placed, b)
		}
	}
	return placed
}

func overlapsAny(placed []Bubble, x, y, r float64) bool {
	for _, p := range placed {
		if math.Hypot(p.X-x, p.Y-y) < p.R+r+bubbleGap {
			return true
		}
	}
	return false
}

// LayoutBubbles sizes and packs every account of the report for a canvas of
// the given size.
func LayoutBubbles(rep *holders.Report, width, height float64) []Bubble {
	bubbles := collectBubbles(rep)
	sizeBubbles(bubbles)
	return packBubbles(bubbles, width, height)
}

func fillFor(k BubbleKind) color.Color {
	switch k {
	case KindPool:
		return poolFill
	case KindVested:
		return vestedFill
	default:
		return holderFill
	}
}

// GenerateBubbleMap renders the holder map of rep as a PNG at path.
func GenerateBubbleMap(rep *holders.Report, path string) (string, error) {
	if rep == nil {
		return "", fmt.Errorf("report is nil")
	}
	bubbles := LayoutBubbles(rep, mapWidth, mapHeight)
	if len(bubbles) == 0 {
		return "", fmt.Errorf("no accounts with a balance to render")
	}

	dc := gg.NewContext(mapWidth, mapHeight)
	dc.SetColor(backgroundColor)
	dc.Clear()

	fontPath := findFont()
	setFont := func(size float64) {
		if fontPath != "" {
			dc.LoadFontFace(fontPath, size)
		}
	}

	for _, b := range bubbles {
		dc.DrawCircle(b.X, b.Y, b.R)
		dc.SetColor(fillFor(b.Kind))
		dc.Fill()

		ring := 0.0
		for _, rc := range []struct {
			on bool
			c  color.Color
		}{{b.Insider, insiderRing}, {b.Snipe, snipeRing}, {b.Bot, botRing}} {
			if !rc.on {
				continue
			}
			dc.SetLineWidth(3)
			dc.SetColor(rc.c)
			dc.DrawCircle(b.X, b.Y, b.R+ring)
			dc.Stroke()
			ring += 4
		}
	}

	setFont(labelFontSize)
	dc.SetColor(color.White)
	for _, b := range bubbles {
		if b.R < labelMinRadius {
			continue
		}
		dc.DrawStringAnchored(b.Label, b.X, b.Y-8, 0.5, 0.5)
		dc.DrawStringAnchored(fmt.Sprintf("%.2f%%", b.Pct), b.X, b.Y+12, 0.5, 0.5)
	}

	setFont(titleFontSize)
	dc.SetColor(color.White)
	dc.DrawString(fmt.Sprintf("Holder map %s", rep.Token.Short()), 40, 60)

	setFont(legendFontSize)
	legend := []struct {
		text string
		c    color.Color
	}{
		{"holder", holderFill},
		{"pool", poolFill},
		{"vested", vestedFill},
		{"snipe", snipeRing},
		{"insider", insiderRing},
		{"bot", botRing},
	}
	for i, l := range legend {
		y := 110 + float64(i)*32
		dc.DrawCircle(52, y-6, 9)
		dc.SetColor(l.c)
		dc.Fill()
		dc.SetColor(color.White)
		dc.DrawString(l.text, 72, y)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create charts directory: %w", err)
	}
	if err := dc.SavePNG(path); err != nil {
		return "", fmt.Errorf("failed to save chart: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat chart file: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(path)
		logging.LogError("Chart file is empty after rendering", zap.String("filename", path))
		return "", fmt.Errorf("chart file is empty after rendering")
	}

	logging.LogInfo("Bubble map generated",
		zap.String("filename", path),
		zap.Int64("fileSize", info.Size()),
		zap.Int("bubbles", len(bubbles)))
	return path, nil
}
