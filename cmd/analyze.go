package cmd

import (
	"fmt"
	"strings"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/analysis"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/dataset"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/utils"
	"github.com/spf13/cobra"
)

var (
	anaOutputPath string
	anaSampleRows int
	anaGroupBy    []string
	anaCorr       bool
	anaSheetName  string
	anaOutliers   bool
	anaOutlierThr float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Summarize the dataset (or another CSV/TSV/XLSX) as Markdown",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := analysis.DefaultOptions()
		if anaSampleRows >= 0 {
			opt.SampleRows = anaSampleRows
		}
		opt.GroupBy = anaGroupBy
		opt.Correlations = anaCorr
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = anaOutliers
		} else {
			opt.Outliers = true
		}
		if anaOutlierThr > 0 {
			opt.OutlierThreshold = anaOutlierThr
		}

		var (
			ds  *dataset.Dataset
			err error
		)
		switch {
		case len(args) == 0:
			ds, err = loadDataset()
		case anaSheetName != "" && strings.HasSuffix(strings.ToLower(args[0]), ".xlsx"):
			ds, err = dataset.LoadXLSX(args[0], anaSheetName)
		default:
			ds, err = dataset.Load(args[0])
		}
		if err != nil {
			return err
		}
		rep, err := analysis.Summarize(ds, opt)
		if err != nil {
			return err
		}
		md := rep.Markdown()

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write analysis (Markdown)")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include")
	analyzeCmd.Flags().StringSliceVar(&anaGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	analyzeCmd.Flags().BoolVar(&anaCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	analyzeCmd.Flags().BoolVar(&anaOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	analyzeCmd.Flags().Float64Var(&anaOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet-name", "", "XLSX: sheet name to analyze (default first sheet)")
}
