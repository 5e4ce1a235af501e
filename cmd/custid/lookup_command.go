package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"custid/internal/identity"
	"custid/internal/services"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		save       bool
		persist    bool
		enrich     bool
		localOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "lookup <query>",
		Short: "Resolve a customer by name, office ID, tenant UID or code",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			input := strings.Join(args, " ")
			if !cmd.Flags().Changed("persist") {
				persist = cfg.Resolver.PersistRemote
			}

			s, err := ctx.openStore()
			if err != nil {
				return err
			}
			resolver, err := ctx.resolver(s)
			if err != nil {
				return err
			}

			result, err := resolver.Resolve(cmd.Context(), input, identity.ResolveOptions{
				Persist:     persist,
				EnrichLocal: enrich,
				LocalOnly:   localOnly,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
				return notFoundError(result, input)
			}

			snap, err := s.Load(cmd.Context())
			if err != nil {
				return err
			}
			now := ctx.now()
			report, err := renderReport(buildReportData(cfg, input, result, snap, now))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report)

			errOut := cmd.ErrOrStderr()
			colorize := shouldColorize(errOut)
			fmt.Fprintln(errOut, renderStatusLine("Lookup", tierStatus(result.Tier), string(result.Tier), colorize))
			if len(result.Sources) > 0 {
				fmt.Fprintln(errOut, renderStatusLine("Sources", statusInfo, strings.Join(result.Sources, ", "), colorize))
			}
			if persist && result.Tier == identity.TierRemote {
				kind, message := statusOK, "saved"
				if !result.Persisted {
					kind, message = statusWarn, "not saved"
					if result.PersistErr != nil {
						message = "not saved: " + result.PersistErr.Error()
					}
				}
				fmt.Fprintln(errOut, renderStatusLine("Store", kind, message, colorize))
			}

			if save || cfg.Output.SaveReports {
				path, err := saveReport(cfg.Output.Dir, report, now)
				if err != nil {
					return err
				}
				fmt.Fprintln(errOut, renderStatusLine("Report", statusInfo, path, colorize))
			}
			return notFoundError(result, input)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the lookup result as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "Save the report under output.dir")
	cmd.Flags().BoolVar(&persist, "persist", false, "Confirm a complete remote result into the local store (default: resolver.persist_remote)")
	cmd.Flags().BoolVar(&enrich, "enrich", false, "Fill unknown contract fields of a local hit from the contract API")
	cmd.Flags().BoolVar(&localOnly, "local-only", false, "Search the local store only")
	return cmd
}

// notFoundError turns an unresolved lookup into a non-zero exit.
func notFoundError(result *identity.Result, input string) error {
	if result.Resolved() {
		return nil
	}
	return services.Wrap(services.ErrNotFound, "lookup", "", fmt.Sprintf("no customer matches %q", strings.TrimSpace(input)), nil)
}
