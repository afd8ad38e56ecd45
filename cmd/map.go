package cmd

import (
	"bytes"
	"fmt"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/analysis"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/render"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/utils"
	"github.com/spf13/cobra"
)

var (
	mapFormat string
	mapPNG    string
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Show mean total cost per country (affordability map data)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		costs := analysis.Affordability(ds)
		if len(costs) == 0 {
			return fmt.Errorf("no Total_cost values in %s", ds.Name)
		}
		out := cmd.OutOrStdout()
		switch mapFormat {
		case "table":
			fmt.Fprintln(out, analysis.AffordabilityTitle)
			fmt.Fprintln(out, render.AffordabilityTable(costs))
		case "json":
			b, err := utils.PrettyJSON(analysis.AffordabilityFigure(costs))
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		default:
			return fmt.Errorf("unsupported --format: %s (use table or json)", mapFormat)
		}
		if mapPNG != "" {
			var buf bytes.Buffer
			if err := render.AffordabilityPNG(&buf, costs); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(mapPNG, buf.Bytes()); err != nil {
				return fmt.Errorf("write png: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote chart to %s\n", mapPNG)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mapCmd)
	mapCmd.Flags().StringVar(&mapFormat, "format", "table", "output format: table|json (json prints the plotly figure)")
	mapCmd.Flags().StringVar(&mapPNG, "png", "", "also write a bar chart PNG to this path")
}
