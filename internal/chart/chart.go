// Package chart converts a category breakdown into a renderer-agnostic pie
// chart model: slice angles, colors and legend labels.
package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/BurairCodes/Expense-tracker/internal/aggregate"
	"github.com/BurairCodes/Expense-tracker/internal/core"
)

const (
	// StartAngle is where the first slice begins: twelve o'clock, in degrees.
	StartAngle = -90.0
	FullCircle = 360.0

	FallbackColor = "#95a5a6"
	EmptyColor    = "#ecf0f1"
	EmptyLabel    = "No data to display"

	BalancePositiveColor = "#27ae60"
	BalanceNegativeColor = "#e74c3c"
)

var categoryColors = map[string]string{
	"Food":           "#e74c3c",
	"Transportation": "#3498db",
	"Entertainment":  "#9b59b6",
	"Shopping":       "#e91e63",
	"Bills":          "#f39c12",
	"Healthcare":     "#27ae60",
	"Education":      "#34495e",
	"Travel":         "#ff9800",
	"Salary":         "#2ecc71",
	"Freelance":      "#1abc9c",
	"Investment":     "#8e44ad",
	"Other":          "#95a5a6",
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"CAD": "$",
	"AUD": "$",
}

// Slice is one wedge of the pie. Angles are in degrees, clockwise.
type Slice struct {
	Category        string  `json:"category"`
	Color           string  `json:"color"`
	StartAngle      float64 `json:"startAngle"`
	SweepAngle      float64 `json:"sweepAngle"`
	Percentage      float64 `json:"percentage"`
	Amount          float64 `json:"amount"`
	PercentageLabel string  `json:"percentageLabel"`
	AmountLabel     string  `json:"amountLabel"`
}

// LegendEntry pairs a category with its swatch and labels.
type LegendEntry struct {
	Category        string `json:"category"`
	Color           string `json:"color"`
	PercentageLabel string `json:"percentageLabel"`
	AmountLabel     string `json:"amountLabel"`
}

type Model struct {
	Slices     []Slice       `json:"slices"`
	Legend     []LegendEntry `json:"legend"`
	Total      float64       `json:"total"`
	TotalLabel string        `json:"totalLabel"`
	Empty      bool          `json:"empty"`
	EmptyLabel string        `json:"emptyLabel,omitempty"`
}

// Options tune label rendering. Currency is an ISO code; unknown or empty
// codes render amounts without a symbol.
type Options struct {
	Currency string
}

// ToChartModel lays the summary's categories out clockwise from StartAngle,
// in breakdown order. A summary without records yields a single neutral
// full-circle slice flagged Empty.
func ToChartModel(s aggregate.Summary, opts Options) Model {
	symbol := CurrencySymbol(opts.Currency)
	m := Model{
		Slices:     []Slice{},
		Legend:     []LegendEntry{},
		Total:      s.Total.Decimal(),
		TotalLabel: FormatAmount(s.Total, symbol),
	}

	if s.Count == 0 || s.Total.Cents == 0 {
		m.Empty = true
		m.EmptyLabel = EmptyLabel
		m.Slices = append(m.Slices, Slice{
			Color:      EmptyColor,
			StartAngle: StartAngle,
			SweepAngle: FullCircle,
		})
		return m
	}

	angle := StartAngle
	for _, c := range s.Categories {
		sweep := c.Percentage / 100 * FullCircle
		sl := Slice{
			Category:        c.Category,
			Color:           ColorFor(c.Category),
			StartAngle:      angle,
			SweepAngle:      sweep,
			Percentage:      c.Percentage,
			Amount:          c.Total.Decimal(),
			PercentageLabel: FormatPercentage(c.Percentage),
			AmountLabel:     FormatAmount(c.Total, symbol),
		}
		m.Slices = append(m.Slices, sl)
		m.Legend = append(m.Legend, LegendEntry{
			Category:        sl.Category,
			Color:           sl.Color,
			PercentageLabel: sl.PercentageLabel,
			AmountLabel:     sl.AmountLabel,
		})
		angle += sweep
	}
	return m
}

// EndAngle is where the slice stops, in degrees.
func (s Slice) EndAngle() float64 {
	return s.StartAngle + s.SweepAngle
}

// StartRadians and SweepRadians are the angles for canvas-style renderers.
func (s Slice) StartRadians() float64 { return s.StartAngle * math.Pi / 180 }

func (s Slice) SweepRadians() float64 { return s.SweepAngle * math.Pi / 180 }

// ColorFor returns the fixed color of a category, or the fallback gray.
func ColorFor(category string) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return FallbackColor
}

// BalanceColor is green for a non-negative balance and red otherwise.
func BalanceColor(net core.Money) string {
	if net.Cents < 0 {
		return BalanceNegativeColor
	}
	return BalancePositiveColor
}

func CurrencySymbol(code string) string {
	return currencySymbols[strings.ToUpper(strings.TrimSpace(code))]
}

func FormatPercentage(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

func FormatAmount(m core.Money, symbol string) string {
	s := m.String()
	if strings.HasPrefix(s, "-") {
		return "-" + symbol + s[1:]
	}
	return symbol + s
}
