// Package predict turns a (country, level, duration) selection into one model
// query, fills the fields the form does not ask for and runs inference.
package predict

import (
	"errors"
	"fmt"
	"time"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/dataset"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/model"
	"github.com/google/uuid"
)

// Duration bounds of the study-length selector.
const (
	MinDuration     = 1
	MaxDuration     = 6
	DefaultDuration = 4
)

// Placeholder strategies for the cost fields of a query.
const (
	StrategyZero        = "zero"
	StrategyCountryMean = "country_mean"
)

// ErrUnknownSelection is returned for a country or level outside the loaded dataset.
var ErrUnknownSelection = errors.New("unknown selection")

// Input is what the user picks.
type Input struct {
	Country       string `json:"country" form:"country"`
	Level         string `json:"level" form:"level"`
	DurationYears int    `json:"duration_years" form:"duration"`
}

// ClampDuration bounds d to [MinDuration, MaxDuration].
func ClampDuration(d int) int {
	if d < MinDuration {
		return MinDuration
	}
	if d > MaxDuration {
		return MaxDuration
	}
	return d
}

// Query is the one-row record handed to the model. Categorical and Numeric
// follow the fitted column order.
type Query struct {
	Categorical   []string  `json:"-"`
	Numeric       []float64 `json:"-"`
	DurationYears int       `json:"duration_years"`
}

// Columns returns the feature columns of a query in fitted order.
func (Query) Columns() []string {
	cols := make([]string, 0, len(dataset.CategoricalColumns)+len(dataset.CostColumns))
	cols = append(cols, dataset.CategoricalColumns...)
	return append(cols, dataset.CostColumns...)
}

// Record returns the query as column -> value, including Duration_Years.
func (q Query) Record() map[string]any {
	rec := make(map[string]any, len(q.Categorical)+len(q.Numeric)+1)
	for i, c := range dataset.CategoricalColumns {
		rec[c] = q.Categorical[i]
	}
	for i, c := range dataset.CostColumns {
		rec[c] = q.Numeric[i]
	}
	rec[dataset.ColDurationYears] = q.DurationYears
	return rec
}

// Prediction is the result of one inference call.
type Prediction struct {
	ID        uuid.UUID      `json:"id"`
	Query     map[string]any `json:"query"`
	TCA       float64        `json:"tca"`
	Formatted string         `json:"formatted"`
	Strategy  string         `json:"placeholder_strategy"`
	Clamped   bool           `json:"duration_clamped,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Predictor owns the read-only dataset and bundle. Safe for concurrent use.
type Predictor struct {
	ds       *dataset.Dataset
	bundle   *model.Bundle
	strategy string
}

// New checks the bundle against the fitted column contract and returns a
// Predictor. An empty strategy means StrategyZero.
func New(ds *dataset.Dataset, bundle *model.Bundle, strategy string) (*Predictor, error) {
	if ds == nil || bundle == nil {
		return nil, fmt.Errorf("predictor needs a dataset and a bundle")
	}
	switch strategy {
	case "":
		strategy = StrategyZero
	case StrategyZero, StrategyCountryMean:
	default:
		return nil, fmt.Errorf("unknown placeholder strategy %q", strategy)
	}
	if err := bundle.CheckColumns(dataset.CategoricalColumns, dataset.CostColumns); err != nil {
		return nil, err
	}
	return &Predictor{ds: ds, bundle: bundle, strategy: strategy}, nil
}

// Strategy reports the placeholder strategy in use.
func (p *Predictor) Strategy() string { return p.strategy }

// Dataset returns the dataset the predictor imputes from.
func (p *Predictor) Dataset() *dataset.Dataset { return p.ds }

// Build validates the selection and assembles the query.
func (p *Predictor) Build(in Input) (Query, error) {
	if !p.ds.Contains(dataset.ColCountry, in.Country) {
		return Query{}, fmt.Errorf("%w: country %q", ErrUnknownSelection, in.Country)
	}
	if !p.ds.Contains(dataset.ColLevel, in.Level) {
		return Query{}, fmt.Errorf("%w: level %q", ErrUnknownSelection, in.Level)
	}
	city, _ := p.ds.Mode(dataset.ColCity, dataset.ByCountry(in.Country))
	uni, _ := p.ds.Mode(dataset.ColUniversity, dataset.ByCountry(in.Country))
	program, _ := p.ds.Mode(dataset.ColProgram, nil)

	return Query{
		Categorical:   []string{in.Country, city, uni, program, in.Level},
		Numeric:       p.placeholders(in.Country, in.Level),
		DurationYears: ClampDuration(requestedDuration(in)),
	}, nil
}

// DurationOrDefault treats d == 0 as unset and returns def instead (or
// DefaultDuration when def is 0 too). Any other value is returned as is for
// ClampDuration to bound.
func DurationOrDefault(d, def int) int {
	if d != 0 {
		return d
	}
	if def != 0 {
		return def
	}
	return DefaultDuration
}

func requestedDuration(in Input) int { return DurationOrDefault(in.DurationYears, DefaultDuration) }

func (p *Predictor) placeholders(country, level string) []float64 {
	out := make([]float64, len(dataset.CostColumns))
	if p.strategy != StrategyCountryMean {
		return out
	}
	for i, col := range dataset.CostColumns {
		if v, ok := p.ds.Mean(col, dataset.ByCountryLevel(country, level)); ok {
			out[i] = v
		} else if v, ok := p.ds.Mean(col, dataset.ByCountry(country)); ok {
			out[i] = v
		}
	}
	return out
}

// Predict builds the query and runs it through the bundle.
func (p *Predictor) Predict(in Input) (*Prediction, error) {
	q, err := p.Build(in)
	if err != nil {
		return nil, err
	}
	tca, err := p.bundle.Predict(q.Categorical, q.Numeric)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return &Prediction{
		ID:        uuid.New(),
		Query:     q.Record(),
		TCA:       tca,
		Formatted: FormatUSD(tca),
		Strategy:  p.strategy,
		Clamped:   q.DurationYears != requestedDuration(in),
		CreatedAt: time.Now().UTC(),
	}, nil
}
