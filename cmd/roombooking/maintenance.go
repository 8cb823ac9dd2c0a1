package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rt.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Close(); err != nil {
				return fmt.Errorf("close storage: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", rt.cfg.Driver)
			return nil
		},
	}
}

func newSweepCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete bookings dated before today once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withServices(cmd.Context(), func(ctx context.Context, svc services) error {
				n, err := svc.Bookings.SweepExpired(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired bookings\n", n)
				return nil
			})
		},
	}
}
