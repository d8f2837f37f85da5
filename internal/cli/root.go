package cli

import (
	"github.com/ayatskii/panel-sub002/internal/logging"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the panelctl root command tree.
func NewRootCmd(version string) *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:               "panelctl",
		Short:             "Command-line client for the site-management panel",
		SilenceUsage:      true,
		PersistentPreRunE: flags.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file (default ~/.panelctl/config.yaml, or $PANELCTL_CONFIG)")
	cmd.PersistentFlags().StringVar(&flags.context, "context", "", "Context to use instead of current-context")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level debug|info|warn|error (default $"+logging.EnvLogLevel+" or warn)")

	cmd.AddCommand(newSitesCmd())
	cmd.AddCommand(newPagesCmd())
	cmd.AddCommand(newDeploymentsCmd())
	cmd.AddCommand(newMediaCmd())
	cmd.AddCommand(newAnalyticsCmd())
	cmd.AddCommand(newIntegrationsCmd())
	cmd.AddCommand(newTemplatesCmd())
	cmd.AddCommand(newRedirectsCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newContextCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newVersionCmd(version))

	attachTeardown(cmd)
	return cmd
}
