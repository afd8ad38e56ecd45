// Package render draws the aggregated views as PNG bar charts, XLSX
// workbooks and terminal tables.
package render

import (
	"fmt"
	"io"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/analysis"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	chartHeight   = 480
	barWidth      = 48
	barSpacing    = 24
	minChartWidth = 640
)

var numbers = message.NewPrinter(language.English)

// BarPNG renders one bar per label. Labels and values must have the same
// non-zero length.
func BarPNG(w io.Writer, title, yName string, labels []string, values []float64) error {
	if len(labels) == 0 || len(labels) != len(values) {
		return fmt.Errorf("bar chart needs matching labels and values, got %d and %d", len(labels), len(values))
	}
	bars := make([]chart.Value, len(values))
	lo, hi := 0.0, 0.0
	for i, v := range values {
		bars[i] = chart.Value{
			Label: labels[i],
			Value: v,
			Style: chart.Style{FillColor: barColor(i), StrokeColor: barColor(i)},
		}
		lo, hi = min(lo, v), max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}

	width := len(bars)*(barWidth+barSpacing) + 160
	if width < minChartWidth {
		width = minChartWidth
	}
	bc := chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		Width:      width,
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		XAxis:      chart.Style{FontSize: 9},
		YAxis: chart.YAxis{
			Name:  yName,
			Range: &chart.ContinuousRange{Min: lo * 1.1, Max: hi * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return numbers.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

// AffordabilityPNG charts the mean Total_cost per country.
func AffordabilityPNG(w io.Writer, costs []analysis.CountryCost) error {
	labels := make([]string, len(costs))
	values := make([]float64, len(costs))
	for i, c := range costs {
		labels[i], values[i] = c.Country, c.Mean
	}
	return BarPNG(w, analysis.AffordabilityTitle, "Mean Total_cost (USD)", labels, values)
}

// ClusterPNG charts one averaged column of a cluster table.
func ClusterPNG(w io.Writer, tbl *analysis.ClusterTable, col string) error {
	labels, values, err := tbl.Series(col)
	if err != nil {
		return err
	}
	for i := range labels {
		labels[i] = "Cluster " + labels[i]
	}
	return BarPNG(w, fmt.Sprintf("Mean %s by %s", col, tbl.By), col, labels, values)
}

// barColor cycles through a Viridis-like palette.
func barColor(i int) drawing.Color {
	palette := []drawing.Color{
		{R: 68, G: 1, B: 84, A: 255},
		{R: 59, G: 82, B: 139, A: 255},
		{R: 33, G: 145, B: 140, A: 255},
		{R: 94, G: 201, B: 98, A: 255},
		{R: 253, G: 231, B: 37, A: 255},
	}
	return palette[i%len(palette)]
}
