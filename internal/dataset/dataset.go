// Package dataset loads the cost-of-attendance CSV into read-only rows and
// answers the lookups the prediction form needs: distinct selector values,
// first-seen modes and subset means.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Column names of the dataset contract.
const (
	ColCountry    = "Country"
	ColCity       = "City"
	ColUniversity = "University"
	ColProgram    = "Program"
	ColLevel      = "Level"

	ColTuition       = "Tuition_USD"
	ColLivingCost    = "Living_Cost_Index"
	ColRent          = "Rent_USD"
	ColVisaFee       = "Visa_Fee_USD"
	ColInsurance     = "Insurance_USD"
	ColTotalCost     = "Total_cost"
	ColDurationYears = "Duration_Years"

	ColKMeansCluster  = "KMeans_Cluster"
	ColHDBSCANCluster = "HDBSCAN_Cluster"
)

// CategoricalColumns are the categorical fields, in the order the encoder was fit with.
var CategoricalColumns = []string{ColCountry, ColCity, ColUniversity, ColProgram, ColLevel}

// CostColumns are the numeric fields, in the order the scaler was fit with.
var CostColumns = []string{ColTuition, ColLivingCost, ColRent, ColVisaFee, ColInsurance, ColTotalCost}

// ClusterColumns are the precomputed cluster-label columns.
var ClusterColumns = []string{ColKMeansCluster, ColHDBSCANCluster}

// ErrMissingColumn is returned when the CSV lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Row is one dataset record. Cells holds every trimmed cell by column name;
// Values holds the parsed cells of numeric columns (empty cells are absent).
type Row struct {
	Country    string
	City       string
	University string
	Program    string
	Level      string

	Cells  map[string]string
	Values map[string]float64
}

// Field returns the raw cell of a column.
func (r Row) Field(col string) string {
	return r.Cells[col]
}

// Value returns the parsed numeric value of a column and whether it was present.
func (r Row) Value(col string) (float64, bool) {
	v, ok := r.Values[col]
	return v, ok
}

// Dataset is the loaded CSV. It is never mutated after Parse returns.
type Dataset struct {
	Name    string
	Header  []string
	Rows    []Row
	numeric []string
	kinds   map[string]bool // column -> numeric
}

// Load reads a CSV, TSV or XLSX dataset from disk, chosen by extension.
func Load(path string) (*Dataset, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return LoadXLSX(path, "")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Parse(f, filepath.Base(path), sniffDelimiter(path))
}

// Parse reads a dataset from r. A zero delimiter means comma.
func Parse(r io.Reader, name string, delim rune) (*Dataset, error) {
	if delim == 0 {
		delim = ','
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var raw [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(raw)+1, err)
		}
		raw = append(raw, rec)
	}
	return FromRecords(name, header, raw)
}

// FromRecords builds a dataset from a header and raw records. Cells are
// trimmed and short records padded.
func FromRecords(name string, header []string, records [][]string) (*Dataset, error) {
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	if err := requireColumns(header, CategoricalColumns, CostColumns); err != nil {
		return nil, err
	}

	ds := &Dataset{Name: name, Header: header}
	raw := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(header))
		for j := 0; j < len(header) && j < len(rec); j++ {
			row[j] = strings.TrimSpace(rec[j])
		}
		raw = append(raw, row)
	}

	ds.kinds = inferKinds(header, raw)
	for _, h := range header {
		if ds.kinds[h] {
			ds.numeric = append(ds.numeric, h)
		}
	}
	for _, c := range CostColumns {
		if !ds.kinds[c] {
			return nil, fmt.Errorf("column %s: expected numeric values", c)
		}
	}

	ds.Rows = make([]Row, 0, len(raw))
	for _, rec := range raw {
		row := Row{
			Cells:  make(map[string]string, len(header)),
			Values: make(map[string]float64, len(ds.numeric)),
		}
		for j, h := range header {
			v := rec[j]
			row.Cells[h] = v
			if ds.kinds[h] {
				if x, ok := parseNumber(v); ok {
					row.Values[h] = x
				}
			}
		}
		row.Country = row.Cells[ColCountry]
		row.City = row.Cells[ColCity]
		row.University = row.Cells[ColUniversity]
		row.Program = row.Cells[ColProgram]
		row.Level = row.Cells[ColLevel]
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// HasColumn reports whether the CSV header carries col.
func (d *Dataset) HasColumn(col string) bool {
	for _, h := range d.Header {
		if h == col {
			return true
		}
	}
	return false
}

// NumericColumns returns the numeric columns in header order.
func (d *Dataset) NumericColumns() []string {
	out := make([]string, len(d.numeric))
	copy(out, d.numeric)
	return out
}

// IsNumeric reports whether col was inferred as numeric.
func (d *Dataset) IsNumeric(col string) bool { return d.kinds[col] }

// Countries returns the distinct countries in first-seen order.
func (d *Dataset) Countries() []string { return d.Distinct(ColCountry) }

// Levels returns the distinct levels in first-seen order.
func (d *Dataset) Levels() []string { return d.Distinct(ColLevel) }

// Distinct returns the non-empty distinct values of a column in first-seen order.
func (d *Dataset) Distinct(col string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Rows {
		v := r.Field(col)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Contains reports whether value is one of Distinct(col). The empty value
// never matches.
func (d *Dataset) Contains(col, value string) bool {
	if value == "" {
		return false
	}
	for _, r := range d.Rows {
		if r.Field(col) == value {
			return true
		}
	}
	return false
}

// Mode returns the most frequent non-empty value of col among rows accepted by
// keep (nil keeps every row). Ties go to the value seen first. ok is false when
// no row contributes a value.
func (d *Dataset) Mode(col string, keep func(Row) bool) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, r := range d.Rows {
		if keep != nil && !keep(r) {
			continue
		}
		v := r.Field(col)
		if v == "" {
			continue
		}
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}
	best, bestN := "", 0
	for _, v := range order {
		if counts[v] > bestN {
			best, bestN = v, counts[v]
		}
	}
	return best, bestN > 0
}

// Mean averages a numeric column among rows accepted by keep, skipping empty
// cells. ok is false when no row contributes a value.
func (d *Dataset) Mean(col string, keep func(Row) bool) (float64, bool) {
	var sum float64
	var n int
	for _, r := range d.Rows {
		if keep != nil && !keep(r) {
			continue
		}
		if v, ok := r.Value(col); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// ByCountry keeps rows of one country.
func ByCountry(country string) func(Row) bool {
	return func(r Row) bool { return r.Country == country }
}

// ByCountryLevel keeps rows of one country and level.
func ByCountryLevel(country, level string) func(Row) bool {
	return func(r Row) bool { return r.Country == country && r.Level == level }
}

func requireColumns(header []string, groups ...[]string) error {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	var missing []string
	for _, g := range groups {
		for _, c := range g {
			if !have[c] {
				missing = append(missing, c)
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// inferKinds marks a column numeric when every non-empty cell parses and at
// least one cell is non-empty.
func inferKinds(header []string, raw [][]string) map[string]bool {
	kinds := make(map[string]bool, len(header))
	for j, h := range header {
		seen := false
		numeric := true
		for _, rec := range raw {
			v := rec[j]
			if isMissing(v) {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric = false
				break
			}
		}
		kinds[h] = seen && numeric
	}
	return kinds
}

func parseNumber(s string) (float64, bool) {
	if isMissing(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "na", "n/a", "null":
		return true
	}
	return false
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
