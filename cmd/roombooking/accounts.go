package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/booking"
)

func newAccountsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newAccountsAddCmd(rt))
	return cmd
}

func newAccountsAddCmd(rt *runtime) *cobra.Command {
	var username, password, role string

	c := &cobra.Command{
		Use:   "add",
		Short: "Register an account (username/password/role)",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := booking.ParseRole(role)
			if err != nil {
				return err
			}

			return rt.withServices(cmd.Context(), func(ctx context.Context, svc services) error {
				account, err := svc.Accounts.CreateAccount(ctx, application.CreateAccountParams{
					Principal: operator,
					Input:     application.AccountInput{Username: username, Password: password, Role: parsed},
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s account %q (%s)\n", account.Role, account.Username, account.ID)
				return nil
			})
		},
	}

	c.Flags().StringVar(&username, "username", "", "username")
	c.Flags().StringVar(&password, "password", "", "password")
	c.Flags().StringVar(&role, "role", "generic", "administrator, teacher, student or generic")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("password")
	return c
}
