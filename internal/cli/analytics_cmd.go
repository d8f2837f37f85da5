package cli

import (
	"fmt"
	"strings"

	"github.com/ayatskii/panel-sub002/internal/output"
	"github.com/ayatskii/panel-sub002/pkg/model"
	"github.com/spf13/cobra"
)

var analyticsPeriods = []string{"7d", "30d", "90d"}

func newAnalyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show traffic analytics",
	}
	markRequiresTransport(cmd)

	cmd.AddCommand(newAnalyticsSiteCmd())
	cmd.AddCommand(newAnalyticsOverviewCmd())
	cmd.AddCommand(newAnalyticsRefreshCmd())
	return cmd
}

func validPeriod(p string) bool {
	for _, v := range analyticsPeriods {
		if p == v {
			return true
		}
	}
	return false
}

func newAnalyticsSiteCmd() *cobra.Command {
	var outputMode string
	var period string
	cmd := &cobra.Command{
		Use:   "site <site-id>",
		Short: "Show analytics of one site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(outputMode)
			if err != nil {
				return err
			}
			id, err := parseID("site", args[0])
			if err != nil {
				return err
			}
			period = strings.TrimSpace(period)
			if !validPeriod(period) {
				return exitCodeError(exitValidation, fmt.Errorf("invalid period %q (expected %s)", period, strings.Join(analyticsPeriods, ", ")))
			}
			stats, err := a.GetSiteAnalytics(cmd.Context(), id, period)
			if err != nil {
				return err
			}
			if format != output.FormatTable {
				return output.WriteStructured(cmd.OutOrStdout(), format, stats)
			}
			return writeSiteAnalytics(cmd, stats)
		},
	}
	addOutputFlag(cmd, &outputMode)
	cmd.Flags().StringVar(&period, "period", "30d", "Reporting period ("+strings.Join(analyticsPeriods, "|")+")")
	return cmd
}

func writeSiteAnalytics(cmd *cobra.Command, stats model.SiteAnalytics) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Site %d, last %s: %s page views, %s unique visitors\n",
		stats.Site, stats.Period, output.Count(int64(stats.PageViews)), output.Count(int64(stats.UniqueVisitors)))
	if len(stats.TopPages) > 0 {
		fmt.Fprintln(w)
		rows := make([][]string, 0, len(stats.TopPages))
		for _, p := range stats.TopPages {
			rows = append(rows, []string{p.Path, output.Count(int64(p.Views))})
		}
		if err := output.WriteTable(w, []string{"PATH", "VIEWS"}, rows); err != nil {
			return err
		}
	}
	if len(stats.Daily) > 0 {
		fmt.Fprintln(w)
		rows := make([][]string, 0, len(stats.Daily))
		for _, d := range stats.Daily {
			rows = append(rows, []string{d.Date, output.Count(int64(d.PageViews)), output.Count(int64(d.UniqueVisitors))})
		}
		return output.WriteTable(w, []string{"DATE", "VIEWS", "VISITORS"}, rows)
	}
	return nil
}

func newAnalyticsOverviewCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show totals across all sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(outputMode)
			if err != nil {
				return err
			}
			o, err := a.GetAnalyticsOverview(cmd.Context())
			if err != nil {
				return err
			}
			return writeFields(cmd, format, o, [][2]string{
				{"Sites", output.Count(int64(o.TotalSites))},
				{"Pages", output.Count(int64(o.TotalPages))},
				{"Deployments", output.Count(int64(o.TotalDeployments))},
				{"PageViews", output.Count(int64(o.PageViews))},
				{"UniqueVisitors", output.Count(int64(o.UniqueVisitors))},
			})
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newAnalyticsRefreshCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "refresh <site-id>",
		Short: "Recompute analytics of a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(outputMode)
			if err != nil {
				return err
			}
			id, err := parseID("site", args[0])
			if err != nil {
				return err
			}
			stats, err := a.RefreshSiteAnalytics(cmd.Context(), id)
			if err != nil {
				return err
			}
			if format != output.FormatTable {
				return output.WriteStructured(cmd.OutOrStdout(), format, stats)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Analytics of site %d refreshed.\n", id)
			return nil
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}
