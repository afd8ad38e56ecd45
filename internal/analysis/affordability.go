package analysis

import (
	"strconv"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CountryCost aggregates Total_cost for one country.
type CountryCost struct {
	Country string  `json:"country"`
	Mean    float64 `json:"mean"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Rows    int     `json:"rows"`
}

// Affordability returns one entry per country with at least one Total_cost
// value, in first-seen order.
func Affordability(ds *dataset.Dataset) []CountryCost {
	var out []CountryCost
	for _, country := range ds.Countries() {
		var vals []float64
		for _, r := range ds.Rows {
			if r.Country != country {
				continue
			}
			if v, ok := r.Value(dataset.ColTotalCost); ok {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			continue
		}
		out = append(out, CountryCost{
			Country: country,
			Mean:    stat.Mean(vals, nil),
			Min:     floats.Min(vals),
			Max:     floats.Max(vals),
			Rows:    len(vals),
		})
	}
	return out
}

// Figure is a plotly figure, serialized as plotly.js expects it.
type Figure struct {
	Data   []ChoroplethTrace `json:"data"`
	Layout Layout            `json:"layout"`
}

// ChoroplethTrace colors countries by name.
type ChoroplethTrace struct {
	Type          string    `json:"type"`
	Locations     []string  `json:"locations"`
	LocationMode  string    `json:"locationmode"`
	Z             []float64 `json:"z"`
	Text          []string  `json:"text"`
	ColorScale    string    `json:"colorscale"`
	ColorBar      ColorBar  `json:"colorbar"`
	HoverTemplate string    `json:"hovertemplate"`
}

type ColorBar struct {
	Title Title `json:"title"`
}

type Title struct {
	Text string `json:"text"`
}

type Layout struct {
	Title  Title `json:"title"`
	Geo    Geo   `json:"geo"`
	Height int   `json:"height,omitempty"`
}

type Geo struct {
	ShowFrame      bool       `json:"showframe"`
	ShowCoastlines bool       `json:"showcoastlines"`
	Projection     Projection `json:"projection"`
}

type Projection struct {
	Type string `json:"type"`
}

// AffordabilityTitle heads the map widget.
const AffordabilityTitle = "Affordability by Country"

// AffordabilityFigure builds the choropleth over per-country mean Total_cost.
func AffordabilityFigure(costs []CountryCost) Figure {
	tr := ChoroplethTrace{
		Type:          "choropleth",
		LocationMode:  "country names",
		ColorScale:    "Viridis",
		ColorBar:      ColorBar{Title: Title{Text: dataset.ColTotalCost}},
		HoverTemplate: "<b>%{location}</b><br>Mean " + dataset.ColTotalCost + ": $%{z:,.0f}<br>%{text}<extra></extra>",
		Locations:     make([]string, 0, len(costs)),
		Z:             make([]float64, 0, len(costs)),
		Text:          make([]string, 0, len(costs)),
	}
	for _, c := range costs {
		tr.Locations = append(tr.Locations, c.Country)
		tr.Z = append(tr.Z, c.Mean)
		tr.Text = append(tr.Text, rowsLabel(c.Rows))
	}
	return Figure{
		Data: []ChoroplethTrace{tr},
		Layout: Layout{
			Title: Title{Text: AffordabilityTitle},
			Geo: Geo{
				ShowCoastlines: true,
				Projection:     Projection{Type: "natural earth"},
			},
			Height: 480,
		},
	}
}

func rowsLabel(n int) string {
	if n == 1 {
		return "1 program"
	}
	return strconv.Itoa(n) + " programs"
}
