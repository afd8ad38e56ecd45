package analysis

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/dataset"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/fixtures"
)

func loadFixture(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Parse(strings.NewReader(fixtures.CSV), "data_full.csv", ',')
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return ds
}

func TestClustersKMeans(t *testing.T) {
	ds := loadFixture(t)
	tbl, err := Clusters(ds, dataset.ColKMeansCluster)
	if err != nil {
		t.Fatalf("clusters: %v", err)
	}
	wantCols := []string{"Duration_Years", "Tuition_USD", "Living_Cost_Index", "Rent_USD", "Visa_Fee_USD", "Insurance_USD", "Total_cost"}
	if !reflect.DeepEqual(tbl.Columns, wantCols) {
		t.Fatalf("columns:\n got %v\nwant %v", tbl.Columns, wantCols)
	}
	var labels []string
	var sizes []int
	for _, g := range tbl.Groups {
		labels = append(labels, g.Label)
		sizes = append(sizes, g.Size)
	}
	// the Japanese row has no label and is dropped
	if !reflect.DeepEqual(labels, []string{"0", "1", "2"}) || !reflect.DeepEqual(sizes, []int{3, 1, 1}) {
		t.Fatalf("groups %v sizes %v", labels, sizes)
	}
	labels, totals, err := tbl.Series(dataset.ColTotalCost)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	want := []float64{77000.0 / 3, 29000, 98000}
	for i := range want {
		if !almostEqual(totals[i], want[i], 1e-9) {
			t.Fatalf("%s mean Total_cost = %v, want %v", labels[i], totals[i], want[i])
		}
	}

	recs := tbl.Records()
	if got := recs[0]; !reflect.DeepEqual(got[:3], []string{"KMeans_Cluster", "Count", "Duration_Years"}) {
		t.Fatalf("header %v", got)
	}
	if got := recs[1][len(recs[1])-1]; got != "25666.67" {
		t.Fatalf("formatted mean = %q", got)
	}
}

func TestClustersHDBSCANOrdersNoiseFirst(t *testing.T) {
	ds := loadFixture(t)
	tbl, err := Clusters(ds, dataset.ColHDBSCANCluster)
	if err != nil {
		t.Fatalf("clusters: %v", err)
	}
	labels, totals, _ := tbl.Series(dataset.ColTotalCost)
	if !reflect.DeepEqual(labels, []string{"-1", "0", "1"}) {
		t.Fatalf("labels %v", labels)
	}
	if !reflect.DeepEqual(totals, []float64{25000, 98000, 27000}) {
		t.Fatalf("totals %v", totals)
	}
}

func TestClustersSameColumnsForBothKeys(t *testing.T) {
	ds := loadFixture(t)
	a, err := Clusters(ds, dataset.ColKMeansCluster)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Clusters(ds, dataset.ColHDBSCANCluster)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Columns, b.Columns) {
		t.Fatalf("averaged columns differ:\n%v\n%v", a.Columns, b.Columns)
	}
	if !reflect.DeepEqual(a.Columns, AveragedColumns(ds)) {
		t.Fatalf("AveragedColumns disagrees with table")
	}
}

func TestClustersRejectsOtherColumns(t *testing.T) {
	ds := loadFixture(t)
	for _, by := range []string{"Country", "Total_cost", ""} {
		if _, err := Clusters(ds, by); !errors.Is(err, ErrUnsupportedClusterColumn) {
			t.Fatalf("by=%q: expected ErrUnsupportedClusterColumn, got %v", by, err)
		}
	}

	noLabels := "Country,City,University,Program,Level,Tuition_USD,Living_Cost_Index,Rent_USD,Visa_Fee_USD,Insurance_USD,Total_cost\n" +
		"Germany,Berlin,TU Berlin,Physics,Master,1,2,3,4,5,6\n"
	ds2, err := dataset.Parse(strings.NewReader(noLabels), "x.csv", 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Clusters(ds2, dataset.ColKMeansCluster); !errors.Is(err, dataset.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestClusterMissingMeansAreNull(t *testing.T) {
	csv := "Country,City,University,Program,Level,Tuition_USD,Living_Cost_Index,Rent_USD,Visa_Fee_USD,Insurance_USD,Total_cost,KMeans_Cluster,HDBSCAN_Cluster\n" +
		"Germany,Berlin,TU Berlin,Physics,Master,,2,3,4,5,6,0,0\n" +
		"Germany,Berlin,TU Berlin,Physics,Master,100,2,3,4,5,6,1,0\n"
	ds, err := dataset.Parse(strings.NewReader(csv), "x.csv", 0)
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := Clusters(ds, dataset.ColKMeansCluster)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Groups[0].Means[0] != nil {
		t.Fatalf("expected nil mean for empty tuition group")
	}
	if got := tbl.Records()[1][2]; got != "" {
		t.Fatalf("missing mean should render empty, got %q", got)
	}
	b, err := json.Marshal(tbl.Groups[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"means":[null,`) {
		t.Fatalf("json = %s", b)
	}
}

func TestLabelOrdering(t *testing.T) {
	labels := []string{"10", "b", "2", "-1", "a", "0"}
	sort.Slice(labels, func(i, j int) bool { return labelLess(labels[i], labels[j]) })
	if want := []string{"-1", "0", "2", "10", "a", "b"}; !reflect.DeepEqual(labels, want) {
		t.Fatalf("order %v", labels)
	}
}

func TestAffordability(t *testing.T) {
	ds := loadFixture(t)
	costs := Affordability(ds)
	if len(costs) != 2 {
		t.Fatalf("expected Germany and USA only, got %+v", costs)
	}
	de := costs[0]
	if de.Country != "Germany" || de.Mean != 26500 || de.Min != 24000 || de.Max != 29000 || de.Rows != 4 {
		t.Fatalf("germany = %+v", de)
	}
	if costs[1].Country != "USA" || costs[1].Mean != 98000 {
		t.Fatalf("usa = %+v", costs[1])
	}

	fig := AffordabilityFigure(costs)
	if len(fig.Data) != 1 {
		t.Fatalf("expected one trace")
	}
	tr := fig.Data[0]
	if tr.Type != "choropleth" || tr.LocationMode != "country names" || tr.ColorScale != "Viridis" {
		t.Fatalf("trace = %+v", tr)
	}
	if !reflect.DeepEqual(tr.Locations, []string{"Germany", "USA"}) || !reflect.DeepEqual(tr.Z, []float64{26500, 98000}) {
		t.Fatalf("locations %v z %v", tr.Locations, tr.Z)
	}
	if tr.Text[1] != "1 program" || tr.Text[0] != "4 programs" {
		t.Fatalf("text %v", tr.Text)
	}
	if fig.Layout.Title.Text != "Affordability by Country" {
		t.Fatalf("title %q", fig.Layout.Title.Text)
	}
	raw, err := json.Marshal(fig)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"locationmode":"country names"`) {
		t.Fatalf("figure json = %s", raw)
	}
}

func TestSummarizeAndMarkdown(t *testing.T) {
	ds := loadFixture(t)
	opt := DefaultOptions()
	opt.GroupBy = []string{dataset.ColLevel}
	opt.Correlations = true
	rep, err := Summarize(ds, opt)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if rep.Rows != 6 || len(rep.Cols) != 14 || len(rep.Samples) != 5 {
		t.Fatalf("rows=%d cols=%d samples=%d", rep.Rows, len(rep.Cols), len(rep.Samples))
	}

	country := columnByName(t, rep, dataset.ColCountry)
	if country.Kind != "categorical" || country.TopValues[0] != (CategoryCount{Value: "Germany", Count: 4}) || country.Unique != 3 {
		t.Fatalf("country summary %+v", country)
	}
	total := columnByName(t, rep, dataset.ColTotalCost)
	vals := []float64{28000, 24000, 25000, 29000, 98000}
	if total.Kind != "numeric" || total.NonNull != 5 || total.Missing != 1 {
		t.Fatalf("total summary %+v", total)
	}
	if !almostEqual(total.Mean, mean(vals), 1e-9) || !almostEqual(total.Std, sampleStd(vals), 1e-9) {
		t.Fatalf("mean/std = %v/%v", total.Mean, total.Std)
	}
	if total.Min != 24000 || total.Max != 98000 {
		t.Fatalf("min/max = %v/%v", total.Min, total.Max)
	}

	if len(rep.Groups) != 2 || rep.Groups[0].Key != "Level=Bachelor" || rep.Groups[0].Size != 3 {
		t.Fatalf("groups %+v", rep.Groups)
	}
	if m := rep.Groups[0].Metrics[dataset.ColTotalCost]; m.Count != 2 || m.Mean != 24500 {
		t.Fatalf("bachelor total metrics %+v", m)
	}

	if rep.Corr == nil || rep.Corr.Values[0][0] != 1 {
		t.Fatalf("expected correlation matrix")
	}
	if len(rep.Warnings) != 1 {
		t.Fatalf("warnings %v", rep.Warnings)
	}

	if len(rep.Costs) != 2 || rep.Costs[0].Country != "Germany" {
		t.Fatalf("costs %+v", rep.Costs)
	}
	if len(rep.Clusters) != 2 || rep.Clusters[0].By != dataset.ColKMeansCluster {
		t.Fatalf("clusters %+v", rep.Clusters)
	}

	md := rep.Markdown()
	for _, want := range []string{
		"# Dataset summary: data_full.csv",
		"6 rows, 14 columns.",
		"## Columns",
		"| Country | categorical | 6 | 0 | top: Germany (4), Japan (1), USA (1) |",
		"## Total_cost per country",
		"| Germany | 4 | $26,500 | $24,000 | $29,000 |",
		"## Clusters",
		"- HDBSCAN_Cluster: -1 (n=1), 0 (n=1), 1 (n=3)",
		"## Groups",
		"- Level=Bachelor (n=3): mean Total_cost $24,500",
		"## Strongest correlations",
		"## Sample rows",
		"## Notes",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestSummarizeUnknownGroup(t *testing.T) {
	ds := loadFixture(t)
	opt := DefaultOptions()
	opt.GroupBy = []string{"Region"}
	if _, err := Summarize(ds, opt); !errors.Is(err, dataset.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestRobustOutliers(t *testing.T) {
	vals := []float64{10, 11, 9.5, 10.5, 9.8, 10.2, 8.8, 9.7, 50}
	count, maxAbs := robustOutliers(vals, 3.5)
	if count != 1 || maxAbs < 3.5 {
		t.Fatalf("count=%d maxAbs=%v", count, maxAbs)
	}
	if c, _ := robustOutliers([]float64{1, 1, 1, 1}, 3.5); c != 0 {
		t.Fatalf("constant series has no outliers")
	}
}

func TestMedianMAD(t *testing.T) {
	cases := []struct {
		vals        []float64
		median, mad float64
	}{
		{[]float64{5, 1, 3}, 3, 2},
		{[]float64{4, 1, 3, 2}, 2, 1},
		{[]float64{7}, 7, 0},
		{nil, 0, 0},
	}
	for _, c := range cases {
		m, d := medianMAD(c.vals)
		if m != c.median || d != c.mad {
			t.Fatalf("medianMAD(%v) = %v, %v; want %v, %v", c.vals, m, d, c.median, c.mad)
		}
	}
}

func columnByName(t *testing.T, rep *Report, name string) ColumnSummary {
	t.Helper()
	for _, c := range rep.Cols {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %s not found", name)
	return ColumnSummary{}
}

func mean(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s / float64(len(vals))
}

func sampleStd(vals []float64) float64 {
	m := mean(vals)
	var ss float64
	for _, v := range vals {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

func almostEqual(a, b, eps float64) bool { return math.Abs(a-b) <= eps*math.Max(1, math.Abs(b)) }
