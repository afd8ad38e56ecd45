package cmd

import (
	"fmt"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/predict"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/utils"
	"github.com/spf13/cobra"
)

var (
	predCountry  string
	predLevel    string
	predDuration int
	predStrategy string
	predJSON     bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Estimate the total cost of attendance for one selection",
	Example: `  eduspend predict --country Germany --level Master
  eduspend predict --country USA --level Bachelor --duration 4 --strategy country_mean --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPredictor(predStrategy)
		if err != nil {
			return err
		}
		in := predict.Input{Country: predCountry, Level: predLevel, DurationYears: cfg.DefaultDuration}
		if cmd.Flags().Changed("duration") {
			in.DurationYears = predict.DurationOrDefault(predDuration, cfg.DefaultDuration)
		}
		res, err := p.Predict(in)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if predJSON {
			b, err := utils.PrettyJSON(res)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		if res.Clamped {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: duration clamped to %v years\n", res.Query["Duration_Years"])
		}
		fmt.Fprintln(out, predict.Headline(res))
		fmt.Fprintf(out, "  city: %v, university: %v, program: %v, placeholders: %s\n",
			res.Query["City"], res.Query["University"], res.Query["Program"], res.Strategy)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().StringVar(&predCountry, "country", "", "destination country (see 'eduspend options')")
	predictCmd.Flags().StringVar(&predLevel, "level", "", "degree level (see 'eduspend options')")
	predictCmd.Flags().IntVar(&predDuration, "duration", predict.DefaultDuration, fmt.Sprintf("study duration in years (%d-%d)", predict.MinDuration, predict.MaxDuration))
	predictCmd.Flags().StringVar(&predStrategy, "strategy", "", "placeholder strategy: zero|country_mean (overrides config)")
	predictCmd.Flags().BoolVar(&predJSON, "json", false, "print the prediction as JSON")
	_ = predictCmd.MarkFlagRequired("country")
	_ = predictCmd.MarkFlagRequired("level")
}
