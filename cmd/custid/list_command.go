package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"custid/internal/customer"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		query      string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the customers in the local store",
		Long: `Show the customers in the local store.

With --query only the stored record matching the query is shown: an exact
key match is preferred over a substring match. Remote backends are never
contacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openStore()
			if err != nil {
				return err
			}
			query = strings.TrimSpace(query)
			var records []customer.Record
			if query == "" {
				records, err = s.List(cmd.Context())
			} else {
				records, err = findStored(cmd.Context(), s, customer.Classify(query))
			}
			if err != nil {
				return err
			}
			if jsonOutput {
				if records == nil {
					records = []customer.Record{}
				}
				return writeJSON(cmd, records)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				if query != "" {
					fmt.Fprintf(out, "No stored customer matches %q\n", query)
					return nil
				}
				fmt.Fprintf(out, "No customers in %s\n", s.Path())
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.CompanyName,
					rec.TenantUID,
					rec.OfficeID,
					rec.PlanName,
					rec.PaymentMethod,
					rec.CreatedAt,
				})
			}
			headers := []string{"Company", "Tenant UID", "Office ID", "Plan", "Payment", "Registered"}
			aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			fmt.Fprintf(out, "%d customer(s)\n", len(records))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print records as JSON")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Show only the stored record matching a company name, tenant UID or office ID")
	return cmd
}

// storeFinder is the read side of the local store used by list --query.
type storeFinder interface {
	FindExact(ctx context.Context, q customer.Query) (*customer.Record, error)
	FindPartial(ctx context.Context, q customer.Query) (*customer.Record, error)
}

func findStored(ctx context.Context, s storeFinder, q customer.Query) ([]customer.Record, error) {
	rec, err := s.FindExact(ctx, q)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		if rec, err = s.FindPartial(ctx, q); err != nil {
			return nil, err
		}
	}
	if rec == nil {
		return nil, nil
	}
	return []customer.Record{*rec}, nil
}
