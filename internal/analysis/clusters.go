package analysis

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// ErrUnsupportedClusterColumn is returned for a grouping key other than the
// precomputed cluster-label columns.
var ErrUnsupportedClusterColumn = errors.New("unsupported cluster column")

// ClusterTable is the per-cluster mean of every averaged numeric column.
type ClusterTable struct {
	By      string         `json:"by"`
	Columns []string       `json:"columns"`
	Groups  []ClusterGroup `json:"groups"`
}

// ClusterGroup is one row of the table. Means follows ClusterTable.Columns;
// a nil entry means the group had no values for that column.
type ClusterGroup struct {
	Label string     `json:"label"`
	Size  int        `json:"size"`
	Means []*float64 `json:"means"`
}

// AveragedColumns returns the numeric columns a cluster table averages: every
// numeric column except the cluster labels, in header order. It does not
// depend on the grouping key.
func AveragedColumns(ds *dataset.Dataset) []string {
	var out []string
	for _, c := range ds.NumericColumns() {
		if !slices.Contains(dataset.ClusterColumns, c) {
			out = append(out, c)
		}
	}
	return out
}

// Clusters groups rows by a cluster-label column and averages the numeric
// columns per group. Rows with an empty label are dropped.
func Clusters(ds *dataset.Dataset, by string) (*ClusterTable, error) {
	if !slices.Contains(dataset.ClusterColumns, by) {
		return nil, fmt.Errorf("%w: %q (want one of %v)", ErrUnsupportedClusterColumn, by, dataset.ClusterColumns)
	}
	if !ds.HasColumn(by) {
		return nil, fmt.Errorf("%w: %s", dataset.ErrMissingColumn, by)
	}

	cols := AveragedColumns(ds)
	type acc struct {
		size int
		vals [][]float64
	}
	groups := map[string]*acc{}
	for _, r := range ds.Rows {
		label := r.Field(by)
		if label == "" {
			continue
		}
		g := groups[label]
		if g == nil {
			g = &acc{vals: make([][]float64, len(cols))}
			groups[label] = g
		}
		g.size++
		for j, c := range cols {
			if v, ok := r.Value(c); ok {
				g.vals[j] = append(g.vals[j], v)
			}
		}
	}

	labels := make([]string, 0, len(groups))
	for l := range groups {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labelLess(labels[i], labels[j]) })

	t := &ClusterTable{By: by, Columns: cols, Groups: make([]ClusterGroup, 0, len(labels))}
	for _, l := range labels {
		g := groups[l]
		row := ClusterGroup{Label: l, Size: g.size, Means: make([]*float64, len(cols))}
		for j, vals := range g.vals {
			if len(vals) == 0 {
				continue
			}
			m := stat.Mean(vals, nil)
			row.Means[j] = &m
		}
		t.Groups = append(t.Groups, row)
	}
	return t, nil
}

// labelLess orders numeric labels by value, then other labels lexically.
func labelLess(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		if fa != fb {
			return fa < fb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}

// Series returns the group labels and the means of one averaged column.
// Groups without a value for col are skipped.
func (t *ClusterTable) Series(col string) (labels []string, values []float64, err error) {
	j := slices.Index(t.Columns, col)
	if j < 0 {
		return nil, nil, fmt.Errorf("column %s is not averaged by the cluster table", col)
	}
	for _, g := range t.Groups {
		if m := g.Means[j]; m != nil {
			labels = append(labels, g.Label)
			values = append(values, *m)
		}
	}
	return labels, values, nil
}

// Headers returns the table header: the key, the group size and the averaged columns.
func (t *ClusterTable) Headers() []string {
	return append([]string{t.By, "Count"}, t.Columns...)
}

// Records returns the header followed by one formatted row per group.
// Missing means are empty strings.
func (t *ClusterTable) Records() [][]string {
	out := [][]string{t.Headers()}
	for _, g := range t.Groups {
		rec := make([]string, 0, len(t.Columns)+2)
		rec = append(rec, g.Label, strconv.Itoa(g.Size))
		for _, m := range g.Means {
			if m == nil {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, strconv.FormatFloat(*m, 'f', 2, 64))
		}
		out = append(out, rec)
	}
	return out
}
