// Package analysis aggregates the loaded dataset for the dashboard widgets:
// the cluster table, the per-country affordability figure and a markdown
// summary of the whole file.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/dataset"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var dollars = message.NewPrinter(language.English)

// Options controls the dataset summary.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD); counts |z|>OutlierThreshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for the dataset summary.
func DefaultOptions() Options {
	return Options{SampleRows: 5, OutlierThreshold: 3.5}
}

// Report is a markdown-friendly summary of the dataset.
type Report struct {
	Name     string
	Rows     int
	Header   []string
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	Groups   []GroupResult
	Corr     *CorrMatrix
	// Costs is the per-country Total_cost aggregate (see Affordability).
	Costs []CountryCost
	// Clusters holds one table per cluster-label column present in the file.
	Clusters []*ClusterTable
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|categorical|text|empty
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// Summarize profiles every column of ds.
func Summarize(ds *dataset.Dataset, opt Options) (*Report, error) {
	for _, g := range opt.GroupBy {
		if !ds.HasColumn(g) {
			return nil, fmt.Errorf("group-by %w: %s", dataset.ErrMissingColumn, g)
		}
	}
	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 0
	}
	rep := &Report{Name: ds.Name, Rows: ds.Len(), Header: append([]string(nil), ds.Header...)}

	for i, r := range ds.Rows {
		if i >= sampleRows {
			break
		}
		row := make([]string, len(ds.Header))
		for j, h := range ds.Header {
			row[j] = r.Field(h)
		}
		rep.Samples = append(rep.Samples, row)
	}

	var numCols []string
	for _, h := range ds.Header {
		s := ColumnSummary{Name: h}
		if ds.IsNumeric(h) {
			vals := columnValues(ds, h)
			s.Kind = "numeric"
			s.NonNull = len(vals)
			s.Missing = ds.Len() - len(vals)
			s.Min, s.Max = floats.Min(vals), floats.Max(vals)
			s.Mean, s.Std = stat.MeanStdDev(vals, nil)
			if len(vals) < 2 {
				s.Std = 0
			}
			if opt.Outliers && len(vals) >= 8 {
				s.OutlierThreshold = outlierThreshold(opt)
				s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(vals, s.OutlierThreshold)
			}
			numCols = append(numCols, h)
		} else {
			summarizeText(ds, h, &s)
		}
		rep.Cols = append(rep.Cols, s)
	}

	if len(opt.GroupBy) > 0 {
		rep.Groups = groupBy(ds, opt.GroupBy, numCols)
	}
	if opt.Correlations && len(numCols) >= 2 {
		rep.Corr = correlations(ds, numCols)
	}
	rep.Costs = Affordability(ds)
	for _, col := range dataset.ClusterColumns {
		if !ds.HasColumn(col) {
			continue
		}
		if tbl, err := Clusters(ds, col); err == nil {
			rep.Clusters = append(rep.Clusters, tbl)
		}
	}
	if miss := missingCostRows(ds); miss > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d rows have no %s and are left out of the affordability map", miss, dataset.ColTotalCost))
	}
	return rep, nil
}

func columnValues(ds *dataset.Dataset, col string) []float64 {
	vals := make([]float64, 0, ds.Len())
	for _, r := range ds.Rows {
		if v, ok := r.Value(col); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

func summarizeText(ds *dataset.Dataset, col string, s *ColumnSummary) {
	cats := map[string]int{}
	for _, r := range ds.Rows {
		v := r.Field(col)
		if v == "" {
			s.Missing++
			continue
		}
		s.NonNull++
		if len(v) > 64 {
			if len(s.ExampleTexts) < 3 {
				s.ExampleTexts = append(s.ExampleTexts, v)
			}
			continue
		}
		cats[v]++
	}
	switch {
	case s.NonNull == 0:
		s.Kind = "empty"
		return
	case len(cats) == 0:
		s.Kind = "text"
		return
	}
	s.Kind = "categorical"
	s.Unique = len(cats)
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > 8 {
		tops = tops[:8]
	}
	s.TopValues = tops
}

func groupBy(ds *dataset.Dataset, keys, numCols []string) []GroupResult {
	type gAcc struct {
		size int
		vals map[string][]float64
	}
	groups := map[string]*gAcc{}
	for _, r := range ds.Rows {
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, safeVal(r.Field(k))))
		}
		key := strings.Join(parts, " | ")
		ga := groups[key]
		if ga == nil {
			ga = &gAcc{vals: map[string][]float64{}}
			groups[key] = ga
		}
		ga.size++
		for _, c := range numCols {
			if v, ok := r.Value(c); ok {
				ga.vals[c] = append(ga.vals[c], v)
			}
		}
	}
	out := make([]GroupResult, 0, len(groups))
	for k, ga := range groups {
		gr := GroupResult{Key: k, Size: ga.size, Metrics: map[string]NumSummary{}}
		for c, vals := range ga.vals {
			gr.Metrics[c] = NumSummary{Count: len(vals), Min: floats.Min(vals), Max: floats.Max(vals), Mean: stat.Mean(vals, nil)}
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

// correlations uses pairwise-complete rows for each pair of columns.
func correlations(ds *dataset.Dataset, cols []string) *CorrMatrix {
	n := len(cols)
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		mat[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			var xs, ys []float64
			for _, r := range ds.Rows {
				x, okx := r.Value(cols[a])
				y, oky := r.Value(cols[b])
				if okx && oky {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			var rv float64
			if len(xs) >= 2 {
				rv = stat.Correlation(xs, ys, nil)
			}
			if math.IsNaN(rv) || math.IsInf(rv, 0) {
				rv = 0
			}
			mat[a][b], mat[b][a] = rv, rv
		}
	}
	return &CorrMatrix{Columns: append([]string(nil), cols...), Values: mat}
}

func missingCostRows(ds *dataset.Dataset) int {
	n := 0
	for _, r := range ds.Rows {
		if _, ok := r.Value(dataset.ColTotalCost); !ok {
			n++
		}
	}
	return n
}

func outlierThreshold(opt Options) float64 {
	if opt.OutlierThreshold > 0 {
		return opt.OutlierThreshold
	}
	return 3.5
}

// robustOutliers counts values whose modified z-score 0.6745*(x-median)/MAD
// exceeds thr.
func robustOutliers(vals []float64, thr float64) (count int, maxAbsZ float64) {
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return count, maxAbsZ
}

// medianMAD returns the median of vals and the median absolute deviation
// around it. Even-length inputs use the lower median.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	dev := make([]float64, len(sorted))
	for i, v := range sorted {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	return median, stat.Quantile(0.5, stat.Empirical, dev, nil)
}

// Markdown renders the report as a Markdown document: schema, cost of
// attendance per country, cluster sizes, then the optional sections.
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Dataset summary: %s\n\n", orUnnamed(r.Name))
	fmt.Fprintf(&b, "%d rows, %d columns.\n", r.Rows, len(r.Cols))

	b.WriteString("\n## Columns\n\n")
	rows := make([][]string, 0, len(r.Cols))
	for _, c := range r.Cols {
		rows = append(rows, []string{orUnnamed(c.Name), c.Kind, strconv.Itoa(c.NonNull), strconv.Itoa(c.Missing), c.detail()})
	}
	writeTable(&b, []string{"Column", "Kind", "Non-null", "Missing", "Details"}, rows)

	if len(r.Costs) > 0 {
		fmt.Fprintf(&b, "\n## %s per country\n\n", dataset.ColTotalCost)
		rows = rows[:0]
		for _, c := range r.Costs {
			rows = append(rows, []string{c.Country, strconv.Itoa(c.Rows), usd(c.Mean), usd(c.Min), usd(c.Max)})
		}
		writeTable(&b, []string{"Country", "Programs", "Mean", "Min", "Max"}, rows)
	}

	if len(r.Clusters) > 0 {
		b.WriteString("\n## Clusters\n\n")
		for _, tbl := range r.Clusters {
			sizes := make([]string, len(tbl.Groups))
			for i, g := range tbl.Groups {
				sizes[i] = fmt.Sprintf("%s (n=%d)", g.Label, g.Size)
			}
			fmt.Fprintf(&b, "- %s: %s\n", tbl.By, strings.Join(sizes, ", "))
		}
	}

	if len(r.Groups) > 0 {
		b.WriteString("\n## Groups\n\n")
		for _, g := range r.Groups {
			fmt.Fprintf(&b, "- %s (n=%d)", g.Key, g.Size)
			if m, ok := g.Metrics[dataset.ColTotalCost]; ok {
				fmt.Fprintf(&b, ": mean %s %s (min %s, max %s)", dataset.ColTotalCost, usd(m.Mean), usd(m.Min), usd(m.Max))
			}
			b.WriteString("\n")
		}
	}

	if pairs := r.Corr.strongest(10); len(pairs) > 0 {
		b.WriteString("\n## Strongest correlations\n\n")
		for _, p := range pairs {
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f\n", p.a, p.b, p.r)
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n## Sample rows\n\n")
		writeTable(&b, r.Header, r.Samples)
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

// detail is the one-cell description of a column in the schema table.
func (c ColumnSummary) detail() string {
	switch c.Kind {
	case "numeric":
		d := fmt.Sprintf("min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std)
		if c.OutlierThreshold > 0 {
			d += fmt.Sprintf("; %d outliers at |z|>%.1f", c.OutliersCount, c.OutlierThreshold)
		}
		return d
	case "categorical":
		tops := make([]string, len(c.TopValues))
		for i, kv := range c.TopValues {
			tops[i] = fmt.Sprintf("%s (%d)", kv.Value, kv.Count)
		}
		d := "top: " + strings.Join(tops, ", ")
		if c.Unique > len(c.TopValues) {
			d += fmt.Sprintf("; %d distinct", c.Unique)
		}
		return d
	case "text":
		return "e.g. " + strings.Join(c.ExampleTexts, " / ")
	}
	return ""
}

type corrPair struct {
	a, b string
	r    float64
}

// strongest returns up to n column pairs ordered by |r|.
func (m *CorrMatrix) strongest(n int) []corrPair {
	if m == nil {
		return nil
	}
	var pairs []corrPair
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			pairs = append(pairs, corrPair{a: m.Columns[i], b: m.Columns[j], r: m.Values[i][j]})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return math.Abs(pairs[i].r) > math.Abs(pairs[j].r) })
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

func writeTable(b *strings.Builder, headers []string, rows [][]string) {
	cells := func(vals []string) {
		b.WriteString("|")
		for _, v := range vals {
			b.WriteString(" " + safeVal(v) + " |")
		}
		b.WriteString("\n")
	}
	cells(headers)
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	cells(sep)
	for _, row := range rows {
		cells(row)
	}
}

func usd(v float64) string { return dollars.Sprintf("$%.0f", v) }

func orUnnamed(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
