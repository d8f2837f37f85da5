package cli

import (
	"fmt"
	"time"

	"github.com/ayatskii/panel-sub002/internal/api"
	"github.com/ayatskii/panel-sub002/internal/cache"
	"github.com/ayatskii/panel-sub002/internal/client"
	"github.com/ayatskii/panel-sub002/internal/output"
	"github.com/ayatskii/panel-sub002/pkg/model"
	"github.com/spf13/cobra"
)

const defaultWatchInterval = 2 * time.Second

func newDeploymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deployments",
		Aliases: []string{"deployment", "deploys"},
		Short:   "Inspect and control site deployments",
	}
	markRequiresTransport(cmd)

	cmd.AddCommand(newDeploymentsListCmd())
	cmd.AddCommand(newDeploymentsGetCmd())
	cmd.AddCommand(newDeploymentsLogsCmd())
	cmd.AddCommand(newDeploymentsWatchCmd())
	cmd.AddCommand(newDeploymentsCancelCmd())
	return cmd
}

func newDeploymentsListCmd() *cobra.Command {
	var outputMode string
	var siteID int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deployments, newest first",
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
			deployments, err := a.ListDeployments(cmd.Context(), siteID)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(deployments))
			for _, d := range deployments {
				rows = append(rows, []string{
					itoa(d.ID),
					itoa(d.Site),
					string(d.Status),
					output.Timestamp(d.CreatedAt),
					deploymentDuration(d),
				})
			}
			return writeList(cmd, format, "deployments", deployments, []string{"ID", "SITE", "STATUS", "CREATED", "DURATION"}, rows)
		},
	}
	addOutputFlag(cmd, &outputMode)
	cmd.Flags().IntVar(&siteID, "site", 0, "Only show deployments of this site")
	return cmd
}

func deploymentDuration(d model.Deployment) string {
	if d.StartedAt == nil {
		return "-"
	}
	end := time.Now()
	if d.FinishedAt != nil {
		end = *d.FinishedAt
	}
	return end.Sub(*d.StartedAt).Round(time.Second).String()
}

func newDeploymentsGetCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "get <deployment-id>",
		Short: "Show one deployment",
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
			id, err := parseID("deployment", args[0])
			if err != nil {
				return err
			}
			d, err := a.GetDeployment(cmd.Context(), id)
			if err != nil {
				return err
			}
			url := d.URL
			return writeFields(cmd, format, d, [][2]string{
				{"ID", itoa(d.ID)},
				{"Site", itoa(d.Site)},
				{"Status", string(d.Status)},
				{"URL", output.OrNone(&url)},
				{"Created", output.Timestamp(d.CreatedAt)},
				{"Duration", deploymentDuration(d)},
			})
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newDeploymentsLogsCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "logs <deployment-id>",
		Short: "Print the build log of a deployment",
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
			id, err := parseID("deployment", args[0])
			if err != nil {
				return err
			}
			logs, err := a.GetDeploymentLogs(cmd.Context(), id)
			if err != nil {
				return err
			}
			if format != output.FormatTable {
				return output.WriteStructured(cmd.OutOrStdout(), format, logs)
			}
			fmt.Fprintln(cmd.OutOrStdout(), output.FormatLogs(logs.Logs))
			return nil
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newDeploymentsWatchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch <deployment-id>",
		Short: "Follow a deployment until it succeeds or fails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			id, err := parseID("deployment", args[0])
			if err != nil {
				return err
			}
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}
			return watchDeployment(cmd, a, id, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", defaultWatchInterval, "Polling interval")
	return cmd
}

// maxFailedPolls is how many polls in a row may fail to reach the panel
// before watch gives up.
const maxFailedPolls = 5

// watchDeployment polls the deployment through a cache subscription and prints
// each status transition. A failed deployment prints its logs and exits 1.
// Polls that never reach the panel are retried after interval.
func watchDeployment(cmd *cobra.Command, a *api.API, id int, interval time.Duration) error {
	rt, err := runtimeFromCommand(cmd)
	if err != nil {
		return err
	}
	sub, err := cache.Subscribe(a.Cache(), a.Deployments.Get, id, cache.WithPollingInterval(interval))
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	ctx := cmd.Context()
	var last model.DeploymentStatus
	failed := 0
	d, err := sub.Wait(ctx)
	for {
		if client.IsStatus(err, client.StatusFetchError) && ctx.Err() == nil {
			failed++
			if failed >= maxFailedPolls {
				return fmt.Errorf("deployment %d: %d polls in a row failed: %w", id, failed, err)
			}
			rt.Logger.Warn("deployment poll failed", "deployment", id, "attempt", failed, "error", err.Error())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
			d, err = sub.Refetch(ctx)
			continue
		}
		if err != nil {
			return err
		}
		failed = 0
		if d.Status != last {
			fmt.Fprintf(cmd.OutOrStdout(), "%s deployment %d: %s\n", time.Now().Format(time.TimeOnly), id, d.Status)
			last = d.Status
		}
		if d.Terminal() {
			if d.Status == model.DeploymentFailed {
				fmt.Fprintln(cmd.OutOrStdout(), output.FormatLogs(d.Logs))
				return fmt.Errorf("deployment %d failed", id)
			}
			if d.URL != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Live at %s\n", d.URL)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.Changes():
		}
		d, err = sub.Wait(ctx)
	}
}

func newDeploymentsCancelCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "cancel <deployment-id>",
		Short: "Cancel a running deployment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			id, err := parseID("deployment", args[0])
			if err != nil {
				return err
			}
			ok, err := confirm(cmd, yes, fmt.Sprintf("Cancel deployment %d?", id))
			if err != nil {
				return err
			}
			if !ok {
				return printAborted(cmd)
			}
			d, err := a.CancelDeployment(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deployment %d: %s\n", d.ID, d.Status)
			return nil
		},
	}
	addYesFlag(cmd, &yes)
	return cmd
}
