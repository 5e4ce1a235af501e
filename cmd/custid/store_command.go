package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStoreCommand(ctx *commandContext) *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Local store maintenance",
	}
	storeCmd.AddCommand(newStoreInitCommand(ctx))
	return storeCmd
}

func newStoreInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty store with operator metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			s, err := ctx.openStore()
			if err != nil {
				return err
			}
			created, err := s.Init(cmd.Context(), cfg.Store.DataSources, cfg.Store.UpdateInstructions)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if created {
				fmt.Fprintf(out, "Created store at %s\n", s.Path())
			} else {
				fmt.Fprintf(out, "Store already exists at %s\n", s.Path())
			}
			return nil
		},
	}
}
