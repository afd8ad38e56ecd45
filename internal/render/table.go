package render

import (
	"strconv"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/analysis"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Table renders rows under headers with a rounded border. Columns listed in
// numeric are right-aligned.
func Table(headers []string, rows [][]string, numeric ...int) string {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case right[col]:
				return numberStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

// ClusterTable renders a cluster table with every column but the label right-aligned.
func ClusterTable(tbl *analysis.ClusterTable) string {
	recs := tbl.Records()
	numeric := make([]int, 0, len(recs[0])-1)
	for i := 1; i < len(recs[0]); i++ {
		numeric = append(numeric, i)
	}
	return Table(recs[0], recs[1:], numeric...)
}

// AffordabilityTable renders per-country costs as dollars.
func AffordabilityTable(costs []analysis.CountryCost) string {
	rows := make([][]string, 0, len(costs))
	for _, c := range costs {
		rows = append(rows, []string{
			c.Country,
			numbers.Sprintf("$%.2f", c.Mean),
			numbers.Sprintf("$%.2f", c.Min),
			numbers.Sprintf("$%.2f", c.Max),
			strconv.Itoa(c.Rows),
		})
	}
	return Table([]string{"Country", "Mean", "Min", "Max", "Rows"}, rows, 1, 2, 3, 4)
}
