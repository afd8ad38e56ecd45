package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/dataset"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/predict"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/render"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/utils"
	"github.com/spf13/cobra"
)

var optJSON bool

// selectorOptions mirrors what the dashboard selectors offer.
type selectorOptions struct {
	Countries      []string `json:"countries"`
	Levels         []string `json:"levels"`
	MinDuration    int      `json:"min_duration"`
	MaxDuration    int      `json:"max_duration"`
	Duration       int      `json:"default_duration"`
	ClusterColumns []string `json:"cluster_columns"`
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the countries, levels and durations a prediction accepts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		o := selectorOptions{
			Countries:      ds.Countries(),
			Levels:         ds.Levels(),
			MinDuration:    predict.MinDuration,
			MaxDuration:    predict.MaxDuration,
			Duration:       predict.ClampDuration(cfg.DefaultDuration),
			ClusterColumns: dataset.ClusterColumns,
		}
		out := cmd.OutOrStdout()
		if optJSON {
			b, err := utils.PrettyJSON(o)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintln(out, render.Table([]string{"Selector", "Values"}, [][]string{
			{"country", strings.Join(o.Countries, ", ")},
			{"level", strings.Join(o.Levels, ", ")},
			{"duration", fmt.Sprintf("%d-%d (default %s)", o.MinDuration, o.MaxDuration, strconv.Itoa(o.Duration))},
			{"cluster", strings.Join(o.ClusterColumns, ", ")},
		}))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(optionsCmd)
	optionsCmd.Flags().BoolVar(&optJSON, "json", false, "print options as JSON")
}
