package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediaconv/internal/app"
)

func newAccessCommand(ctx *commandContext) *cobra.Command {
	accessCmd := &cobra.Command{
		Use:   "access",
		Short: "Show or change whether conversions are permitted",
	}

	accessCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current access state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), false, func(a *app.App) error {
				permitted, explicit, err := a.Gate.State(cmd.Context())
				if err != nil {
					return fmt.Errorf("read access flag: %w", err)
				}
				source := "default"
				if explicit {
					source = "stored"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Conversions permitted: %s (%s)\n", yesNo(permitted), source)
				return nil
			})
		},
	})
	accessCmd.AddCommand(newAccessSetCommand(ctx, "grant", "Permit conversions", true))
	accessCmd.AddCommand(newAccessSetCommand(ctx, "revoke", "Refuse new conversions", false))
	accessCmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget the stored flag and use the configured default",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), false, func(a *app.App) error {
				if err := a.Gate.Reset(cmd.Context()); err != nil {
					return fmt.Errorf("reset access flag: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Access reset to default (%s)\n", yesNo(a.Config.Access.DefaultPermitted))
				return nil
			})
		},
	})

	return accessCmd
}

func newAccessSetCommand(ctx *commandContext, use, short string, permitted bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), false, func(a *app.App) error {
				if err := a.Gate.Set(cmd.Context(), permitted); err != nil {
					return fmt.Errorf("store access flag: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Conversions permitted: %s\n", yesNo(permitted))
				return nil
			})
		},
	}
}
