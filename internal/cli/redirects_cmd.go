package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ayatskii/panel-sub002/internal/output"
	"github.com/ayatskii/panel-sub002/pkg/loader"
	"github.com/ayatskii/panel-sub002/pkg/model"
	"github.com/ayatskii/panel-sub002/pkg/validator"
	"github.com/spf13/cobra"
)

func newRedirectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "redirects",
		Aliases: []string{"redirect"},
		Short:   "Manage per-site redirect rules",
	}
	markRequiresTransport(cmd)

	cmd.AddCommand(newRedirectsListCmd())
	cmd.AddCommand(newRedirectsAddCmd())
	cmd.AddCommand(newRedirectsRemoveCmd())
	cmd.AddCommand(newRedirectsApplyCmd())
	return cmd
}

func addSiteFlag(cmd *cobra.Command, v *int) {
	cmd.Flags().IntVar(v, "site", 0, "Site id")
	_ = cmd.MarkFlagRequired("site")
}

func newRedirectsListCmd() *cobra.Command {
	var siteID int
	var outputMode string
	cmd := &cobra.Command{
		Use:   "list --site <site-id>",
		Short: "List redirect rules of a site",
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
			rules, err := a.ListRedirects(cmd.Context(), siteID)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(rules))
			for _, r := range rules {
				rows = append(rows, []string{itoa(r.ID), r.SourcePath, r.TargetURL, itoa(r.StatusCode)})
			}
			return writeList(cmd, format, "redirects", rules, []string{"ID", "FROM", "TO", "STATUS"}, rows)
		},
	}
	addSiteFlag(cmd, &siteID)
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newRedirectsAddCmd() *cobra.Command {
	var siteID int
	var rule model.RedirectRule
	cmd := &cobra.Command{
		Use:   "add --site <site-id> --from <path> --to <url>",
		Short: "Add a redirect rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			rule.SourcePath = strings.TrimSpace(rule.SourcePath)
			rule.TargetURL = strings.TrimSpace(rule.TargetURL)
			if err := rejectInvalid(cmd, validator.ValidateRedirects([]model.RedirectRule{rule})); err != nil {
				return err
			}
			created, err := a.CreateRedirect(cmd.Context(), siteID, rule)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Redirect %d added: %s -> %s (%d)\n", created.ID, created.SourcePath, created.TargetURL, created.StatusCode)
			return nil
		},
	}
	addSiteFlag(cmd, &siteID)
	cmd.Flags().StringVar(&rule.SourcePath, "from", "", "Source path (starts with /)")
	cmd.Flags().StringVar(&rule.TargetURL, "to", "", "Target path or URL")
	cmd.Flags().IntVar(&rule.StatusCode, "status", 301, "HTTP status (301, 302, 307 or 308)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newRedirectsRemoveCmd() *cobra.Command {
	var siteID int
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove <redirect-id> --site <site-id>",
		Short: "Remove a redirect rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			id, err := parseID("redirect", args[0])
			if err != nil {
				return err
			}
			ok, err := confirm(cmd, yes, fmt.Sprintf("Remove redirect %d from site %d?", id, siteID))
			if err != nil {
				return err
			}
			if !ok {
				return printAborted(cmd)
			}
			if err := a.DeleteRedirect(cmd.Context(), siteID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Redirect %d removed.\n", id)
			return nil
		},
	}
	addSiteFlag(cmd, &siteID)
	addYesFlag(cmd, &yes)
	return cmd
}

func newRedirectsApplyCmd() *cobra.Command {
	var siteID int
	var from string
	var outputMode string
	cmd := &cobra.Command{
		Use:   "apply -f <redirects.yaml|site-dir> --site <site-id>",
		Short: "Create every rule of a redirects file",
		Long: "Creates the rules one by one. A failed rule does not stop the rest and\n" +
			"rules created before a failure are kept; the command exits 1 if any rule failed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(outputMode)
			if err != nil {
				return err
			}
			rules, err := loadRedirectsSource(from)
			if err != nil {
				return err
			}
			if len(rules) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No redirects found.")
				return nil
			}
			if err := rejectInvalid(cmd, validator.ValidateRedirects(rules)); err != nil {
				return err
			}

			res, applyErr := a.ApplyRedirects(cmd.Context(), siteID, rules)
			type outcome struct {
				SourcePath string `json:"sourcePath" yaml:"sourcePath"`
				TargetURL  string `json:"targetUrl" yaml:"targetUrl"`
				ID         int    `json:"id,omitempty" yaml:"id,omitempty"`
				Error      string `json:"error,omitempty" yaml:"error,omitempty"`
			}
			outcomes := make([]outcome, 0, len(res.Outcomes))
			rows := make([][]string, 0, len(res.Outcomes))
			for _, o := range res.Outcomes {
				row := outcome{SourcePath: o.Rule.SourcePath, TargetURL: o.Rule.TargetURL}
				result := "created"
				if o.Created != nil {
					row.ID = o.Created.ID
				}
				if o.Err != nil {
					row.Error = o.Err.Error()
					result = "failed: " + row.Error
				}
				outcomes = append(outcomes, row)
				rows = append(rows, []string{o.Rule.SourcePath, o.Rule.TargetURL, result})
			}
			if format != output.FormatTable {
				if err := output.WriteStructured(cmd.OutOrStdout(), format, outcomes); err != nil {
					return err
				}
			} else {
				if err := output.WriteTable(cmd.OutOrStdout(), []string{"FROM", "TO", "RESULT"}, rows); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d redirects created.\n", res.Succeeded(), len(rules))
			}
			return applyErr
		},
	}
	addSiteFlag(cmd, &siteID)
	cmd.Flags().StringVarP(&from, "file", "f", "", "Redirects file, or a site directory containing redirects.yaml")
	addOutputFlag(cmd, &outputMode)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func loadRedirectsSource(from string) ([]model.RedirectRule, error) {
	info, err := os.Stat(from)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", from, err)
	}
	if info.IsDir() {
		from = filepath.Join(from, "redirects.yaml")
	}
	rules, err := loader.LoadRedirects(from)
	if err != nil {
		return nil, err
	}
	return rules, nil
}
