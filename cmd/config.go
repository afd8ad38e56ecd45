package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	cfgpkg "github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/config"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/dataset"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/predict"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/utils"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set eduspend configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "data_path: %s\n", cfg.DataPath)
		fmt.Fprintf(out, "bundle_path: %s\n", cfg.BundlePath)
		fmt.Fprintf(out, "placeholder_strategy: %s\n", cfg.PlaceholderStrategy)
		fmt.Fprintf(out, "default_duration: %d\n", cfg.DefaultDuration)
		fmt.Fprintf(out, "default_cluster: %s\n", cfg.DefaultCluster)
		fmt.Fprintf(out, "listen_addr: %s\n", cfg.ListenAddr)
		fmt.Fprintf(out, "gin_mode: %s\n", cfg.GinMode)
		fmt.Fprintf(out, "shutdown_timeout_sec: %d\n", cfg.ShutdownTimeoutSec)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if _, err := requireConfig(); err != nil {
			return err
		}
		switch key {
		case "data_path", "bundle_path":
			// saved paths must not depend on where later commands run
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve %s: %w", key, err)
			}
			if key == "data_path" {
				cfg.DataPath = utils.ResolvePath(wd, val)
			} else {
				cfg.BundlePath = utils.ResolvePath(wd, val)
			}
		case "placeholder_strategy":
			switch strings.ToLower(val) {
			case cfgpkg.PlaceholderZero, cfgpkg.PlaceholderCountryMean:
				cfg.PlaceholderStrategy = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid placeholder_strategy: %s (use %s or %s)", val, cfgpkg.PlaceholderZero, cfgpkg.PlaceholderCountryMean)
			}
		case "default_duration":
			i, err := strconv.Atoi(val)
			if err != nil || i < predict.MinDuration || i > predict.MaxDuration {
				return fmt.Errorf("invalid int for default_duration: %v (use %d-%d)", val, predict.MinDuration, predict.MaxDuration)
			}
			cfg.DefaultDuration = i
		case "default_cluster":
			switch val {
			case dataset.ColKMeansCluster, dataset.ColHDBSCANCluster:
				cfg.DefaultCluster = val
			default:
				return fmt.Errorf("invalid default_cluster: %s (use %s or %s)", val, dataset.ColKMeansCluster, dataset.ColHDBSCANCluster)
			}
		case "listen_addr":
			cfg.ListenAddr = val
		case "gin_mode":
			switch val {
			case "debug", "release", "test":
				cfg.GinMode = val
			default:
				return fmt.Errorf("invalid gin_mode: %s (use debug, release or test)", val)
			}
		case "shutdown_timeout_sec":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for shutdown_timeout_sec: %v", val)
			}
			cfg.ShutdownTimeoutSec = i
		case "log_level":
			switch strings.ToLower(val) {
			case "debug", "info", "warn", "error":
				cfg.LogLevel = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
			}
		case "log_format":
			cfg.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
