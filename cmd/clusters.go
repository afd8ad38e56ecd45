package cmd

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"slices"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/analysis"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/dataset"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/render"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/utils"
	"github.com/spf13/cobra"
)

var (
	cluBy     string
	cluFormat string
	cluXLSX   string
	cluPNG    string
	cluColumn string
)

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Average the numeric columns per precomputed cluster",
	Example: `  eduspend clusters
  eduspend clusters --by HDBSCAN_Cluster --format csv
  eduspend clusters --xlsx clusters.xlsx --png rent.png --column Rent_USD`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		by := cluBy
		if by == "" {
			by = cfg.DefaultCluster
		}
		tbl, err := analysis.Clusters(ds, by)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch cluFormat {
		case "table":
			fmt.Fprintln(out, render.ClusterTable(tbl))
		case "json":
			b, err := utils.PrettyJSON(tbl)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		case "csv":
			w := csv.NewWriter(out)
			if err := w.WriteAll(tbl.Records()); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
		default:
			return fmt.Errorf("unsupported --format: %s (use table, json or csv)", cluFormat)
		}

		if cluXLSX != "" {
			if err := render.SaveWorkbook(cluXLSX, tbl, analysis.Affordability(ds)); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Wrote workbook to %s\n", cluXLSX)
		}
		if cluPNG != "" {
			if !slices.Contains(tbl.Columns, cluColumn) {
				return fmt.Errorf("--column %s is not averaged (choose one of %v)", cluColumn, tbl.Columns)
			}
			var buf bytes.Buffer
			if err := render.ClusterPNG(&buf, tbl, cluColumn); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(cluPNG, buf.Bytes()); err != nil {
				return fmt.Errorf("write png: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote chart to %s\n", cluPNG)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clustersCmd)
	clustersCmd.Flags().StringVar(&cluBy, "by", "", "cluster column: KMeans_Cluster|HDBSCAN_Cluster (default from config)")
	clustersCmd.Flags().StringVar(&cluFormat, "format", "table", "output format: table|json|csv")
	clustersCmd.Flags().StringVar(&cluXLSX, "xlsx", "", "also write an XLSX workbook to this path")
	clustersCmd.Flags().StringVar(&cluPNG, "png", "", "also write a bar chart PNG of --column to this path")
	clustersCmd.Flags().StringVar(&cluColumn, "column", dataset.ColTotalCost, "averaged column charted by --png")
}
