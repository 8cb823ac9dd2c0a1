package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/logging"
)

// runtime is shared by every subcommand once the root has loaded the configuration.
type runtime struct {
	cfg    config.Config
	logger *slog.Logger

	driver   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:           "roombooking",
		Short:         "Room booking API with daily time slots",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&rt.driver, "driver", "", "storage driver: sqlite, postgres or memory (overrides ROOMBOOKING_DRIVER)")
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "log level (overrides ROOMBOOKING_LOG_LEVEL)")

	root.AddCommand(newServeCmd(rt))
	root.AddCommand(newMigrateCmd(rt))
	root.AddCommand(newSweepCmd(rt))
	root.AddCommand(newRoomsCmd(rt))
	root.AddCommand(newAccountsCmd(rt))
	root.AddCommand(newAvailabilityCmd(rt))

	return root
}

func (rt *runtime) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cmd.Flags().Changed("driver") {
		cfg.Driver = rt.driver
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = rt.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}
	rt.cfg = cfg
	rt.logger = logger.With("service", "room-booking")
	return nil
}
