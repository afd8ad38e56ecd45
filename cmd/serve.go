package cmd

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the budget planner dashboard and its JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPredictor("")
		if err != nil {
			return err
		}
		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		s, err := server.New(p, server.Options{
			DefaultDuration: cfg.DefaultDuration,
			DefaultCluster:  cfg.DefaultCluster,
			GinMode:         cfg.GinMode,
		}, slog.Default())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Dashboard on http://%s\n", displayAddr(addr))
		return s.Run(ctx, addr, time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	},
}

// displayAddr turns ":8080" into "localhost:8080" for the banner.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
}
