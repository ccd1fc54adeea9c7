// Command reviewctl drives the review workflow from a terminal. It shares
// the server's configuration and state store, so a batch uploaded here can
// be reviewed in the browser and the other way around.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/walacakra/internal/api"
	"github.com/JaimeStill/walacakra/internal/config"
	"github.com/JaimeStill/walacakra/internal/infrastructure"
)

func main() {
	var infra *infrastructure.Infrastructure
	var cfg *config.Config

	open := func(cmd *cobra.Command) (*api.Domain, error) {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return nil, fmt.Errorf("config load failed: %w", err)
		}

		level := slog.LevelWarn
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelInfo
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		infra, err = infrastructure.NewWithLogger(cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := infra.Start(); err != nil {
			return nil, err
		}
		infra.Lifecycle.WaitForStartup()

		return api.NewDomain(cfg, infra), nil
	}

	root := newRootCmd(open)
	root.PersistentFlags().Bool("verbose", false, "log informational messages")
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if infra == nil {
			return nil
		}
		return infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
