package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/ayatskii/panel-sub002/internal/audit"
	"github.com/ayatskii/panel-sub002/internal/output"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var outputMode string
	var operation string
	var since time.Duration
	var limit int
	var offset int
	var allContexts bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the local journal of changes made from this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFromCommand(cmd)
			if err != nil {
				return err
			}
			if rt.Journal == nil {
				return fmt.Errorf("internal: activity journal is not initialized")
			}
			format, err := output.ParseFormat(outputMode)
			if err != nil {
				return err
			}
			filter := audit.Filter{
				Operation: strings.TrimSpace(operation),
				Limit:     limit,
				Offset:    offset,
			}
			if !allContexts {
				filter.Context = rt.ResolvedContext.Name
			}
			if since > 0 {
				from := time.Now().Add(-since)
				filter.Since = &from
			}
			res, err := rt.Journal.Query(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if format != output.FormatTable {
				return output.WriteStructured(cmd.OutOrStdout(), format, res.Entries)
			}

			rows := make([][]string, 0, len(res.Entries))
			for _, e := range res.Entries {
				result := e.Outcome
				if e.Error != "" {
					result += ": " + output.Truncate(e.Error, 60)
				}
				rows = append(rows, []string{
					output.Timestamp(e.Timestamp),
					e.Context,
					e.Actor,
					e.Operation,
					result,
					e.Duration.Round(time.Millisecond).String(),
					e.RequestID,
				})
			}
			if err := writeList(cmd, format, "activity", res.Entries, []string{"TIME", "CONTEXT", "ACTOR", "OPERATION", "RESULT", "DURATION", "REQUEST ID"}, rows); err != nil {
				return err
			}
			if shown := res.Offset + len(res.Entries); shown < res.Total {
				fmt.Fprintf(cmd.OutOrStdout(), "Showing %d of %d entries (use --offset %d for more).\n", len(res.Entries), res.Total, shown)
			}
			return nil
		},
	}
	markRequiresConfig(cmd)
	addOutputFlag(cmd, &outputMode)
	cmd.Flags().StringVar(&operation, "operation", "", "Only show one operation (for example deleteSite)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only show entries newer than this (for example 24h)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries to show (default 50)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many entries")
	cmd.Flags().BoolVar(&allContexts, "all-contexts", false, "Include every context")
	return cmd
}
