package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autoname/internal/daemon"
	"autoname/internal/logging"
	"autoname/internal/supplier"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var showRegistered bool

	cmd := &cobra.Command{
		Use:   "lookup <abn>",
		Short: "Resolve an ABN to the supplier name used in filenames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(logging.Options{
				Level:  "warn",
				Format: "console",
				Stdout: cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			resolver, err := daemon.NewResolver(cfg, logger)
			if err != nil {
				return err
			}

			registered, err := resolver.Resolve(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("lookup %s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			if showRegistered {
				fmt.Fprintf(out, "Registered name: %s\n", registered)
				fmt.Fprintf(out, "Display name:    %s\n", supplier.StripCorporateSuffixes(registered))
				return nil
			}
			fmt.Fprintln(out, supplier.StripCorporateSuffixes(registered))
			return nil
		},
	}

	cmd.Flags().BoolVar(&showRegistered, "registered", false, "Also print the name as registered, before suffix stripping")
	return cmd
}
