package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/analysis"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/utils"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook.
const (
	SheetClusters      = "Clusters"
	SheetAffordability = "Affordability"
)

// Workbook builds a workbook with the cluster table and, when costs is
// non-empty, the per-country affordability sheet. The caller closes it.
func Workbook(tbl *analysis.ClusterTable, costs []analysis.CountryCost) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetClusters); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}

	header := tbl.Headers()
	if err := writeRow(f, SheetClusters, 1, header, bold); err != nil {
		f.Close()
		return nil, err
	}
	for i, g := range tbl.Groups {
		row := make([]any, 0, len(header))
		row = append(row, g.Label, g.Size)
		for _, m := range g.Means {
			if m == nil {
				row = append(row, nil)
				continue
			}
			row = append(row, *m)
		}
		if err := setRow(f, SheetClusters, i+2, row); err != nil {
			f.Close()
			return nil, err
		}
	}

	if len(costs) > 0 {
		if _, err := f.NewSheet(SheetAffordability); err != nil {
			f.Close()
			return nil, fmt.Errorf("new sheet: %w", err)
		}
		if err := writeRow(f, SheetAffordability, 1, []string{"Country", "Mean Total_cost", "Min Total_cost", "Max Total_cost", "Rows"}, bold); err != nil {
			f.Close()
			return nil, err
		}
		for i, c := range costs {
			if err := setRow(f, SheetAffordability, i+2, []any{c.Country, c.Mean, c.Min, c.Max, c.Rows}); err != nil {
				f.Close()
				return nil, err
			}
		}
	}
	return f, nil
}

// WriteWorkbook streams the workbook to w.
func WriteWorkbook(w io.Writer, tbl *analysis.ClusterTable, costs []analysis.CountryCost) error {
	f, err := Workbook(tbl, costs)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// SaveWorkbook writes the workbook to path, creating parent directories.
func SaveWorkbook(path string, tbl *analysis.ClusterTable, costs []analysis.CountryCost) error {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, tbl, costs); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []string, style int) error {
	vals := make([]any, len(cells))
	for i, c := range cells {
		vals[i] = c
	}
	if err := setRow(f, sheet, row, vals); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(cells), row)
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return fmt.Errorf("style %s!%s: %w", sheet, first, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	return nil
}
