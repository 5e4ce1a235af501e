package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"custid/internal/export"
	"custid/internal/services"
	"custid/internal/services/sqlsource"
)

func newQueryCommand(ctx *commandContext) *cobra.Command {
	var (
		sqlText     string
		presetName  string
		term        string
		outputName  string
		encoding    string
		limit       int
		timeout     time.Duration
		listPresets bool
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a read-only SQL export against the relational source",
		Long: "Run a SELECT statement (or a named preset) against the relational source,\n" +
			"preview the first rows and write the full result as CSV under output.dir.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if listPresets {
				rows := make([][]string, 0)
				for _, name := range export.PresetNames() {
					rows = append(rows, []string{name, export.PresetDescription(name)})
				}
				fmt.Fprintln(out, renderTable([]string{"Preset", "Description"}, rows, nil))
				return nil
			}

			stmt, err := queryStatement(sqlText, presetName, term, ctx.now())
			if err != nil {
				return err
			}

			defer ctx.close()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			src, err := ctx.relationalSource()
			if err != nil {
				return err
			}

			runCtx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			table, err := export.Run(runCtx, src.DB(), stmt, func(q string) string {
				return sqlsource.Rebind(src.Driver(), q)
			})
			if err != nil {
				if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
					return services.Wrap(services.ErrTimeout, "export", stmt.Name, fmt.Sprintf("query exceeded %s", timeout), err)
				}
				return err
			}

			colorize := shouldColorize(out)
			if len(table.Rows) == 0 {
				fmt.Fprintln(out, renderStatusLine("Query", statusWarn, "no rows", colorize))
				return nil
			}

			aligns := make([]columnAlignment, len(table.Columns))
			fmt.Fprintln(out, renderTable(table.Columns, table.Preview(limit), aligns))
			if limit > 0 && len(table.Rows) > limit {
				fmt.Fprintf(out, "showing %d of %d rows\n", limit, len(table.Rows))
			}

			name := strings.TrimSpace(outputName)
			if name == "" {
				name = export.DefaultFilename(ctx.now())
			}
			path, err := export.WriteCSVFile(cfg.Output.Dir, name, table, encoding)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderStatusLine("Query", statusOK, fmt.Sprintf("%d rows", len(table.Rows)), colorize))
			fmt.Fprintln(out, renderStatusLine("CSV", statusInfo, path, colorize))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&sqlText, "sql", "", "SELECT statement to run")
	flags.StringVar(&presetName, "preset", "", "Predefined statement ("+strings.Join(export.PresetNames(), ", ")+")")
	flags.StringVar(&term, "term", "", "Search term for the search preset")
	flags.StringVarP(&outputName, "output", "o", "", "CSV file name, relative to output.dir unless absolute")
	flags.StringVar(&encoding, "encoding", export.EncodingUTF8, "CSV encoding (utf-8, utf-8-bom, shift_jis)")
	flags.IntVar(&limit, "limit", 20, "Rows to preview (0 shows all)")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "Query timeout")
	flags.BoolVar(&listPresets, "list-presets", false, "List predefined statements and exit")
	cmd.MarkFlagsMutuallyExclusive("sql", "preset")
	return cmd
}

func queryStatement(sqlText, presetName, term string, now time.Time) (export.Statement, error) {
	switch {
	case strings.TrimSpace(sqlText) != "":
		return export.Custom(sqlText)
	case strings.TrimSpace(presetName) != "":
		return export.Preset(presetName, now, term)
	default:
		return export.Statement{}, services.Wrap(services.ErrValidation, "export", "", "one of --sql or --preset is required", nil)
	}
}
