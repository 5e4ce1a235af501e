package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"custid/internal/customer"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var candidate customer.Partial
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Confirm a customer record into the local store",
		Long: "Add a new customer or update the existing record that shares its company name,\n" +
			"tenant UID or office ID. Unsupplied optional fields keep their stored value.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openStore()
			if err != nil {
				return err
			}
			rec, created, err := ctx.confirmer(s).Apply(cmd.Context(), candidate)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, rec)
			}

			verb := "Updated"
			if created {
				verb = "Added"
			}
			colorize := shouldColorize(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), renderStatusLine(verb, statusOK, rec.String(), colorize))
			fmt.Fprintln(cmd.OutOrStdout(), renderStatusLine("Store", statusInfo, s.Path(), colorize))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&candidate.CompanyName, "name", "", "Company name (required)")
	flags.StringVar(&candidate.TenantUID, "tenant-uid", "", "Tenant UID (required)")
	flags.StringVar(&candidate.OfficeID, "office-id", "", "Office ID (required)")
	flags.StringVar(&candidate.CorporateNumber, "corporate-number", "", "Corporate number")
	flags.StringVar(&candidate.IdentificationCode, "identification-code", "", "Identification code")
	flags.StringVar(&candidate.PlanName, "plan", "", "Plan name")
	flags.StringVar(&candidate.PaymentMethod, "payment", "", "Payment method")
	flags.StringVar(&candidate.ContractStatus, "status", "", "Contract status")
	flags.StringVar(&candidate.CreatedAt, "created-at", "", "Registration date (YYYY-MM-DD, default today)")
	flags.StringVar(&candidate.Notes, "notes", "", "Free-form notes")
	flags.BoolVar(&jsonOutput, "json", false, "Print the stored record as JSON")
	return cmd
}
