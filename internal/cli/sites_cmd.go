package cli

import (
	"fmt"
	"strings"

	"github.com/ayatskii/panel-sub002/internal/output"
	"github.com/ayatskii/panel-sub002/pkg/loader"
	"github.com/ayatskii/panel-sub002/pkg/model"
	"github.com/ayatskii/panel-sub002/pkg/validator"
	"github.com/spf13/cobra"
)

func newSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sites",
		Aliases: []string{"site"},
		Short:   "Manage sites",
	}
	markRequiresTransport(cmd)

	cmd.AddCommand(newSitesListCmd())
	cmd.AddCommand(newSitesGetCmd())
	cmd.AddCommand(newSitesCreateCmd())
	cmd.AddCommand(newSitesUpdateCmd())
	cmd.AddCommand(newSitesDeleteCmd())
	cmd.AddCommand(newSitesDeployCmd())
	return cmd
}

func newSitesListCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sites",
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
			sites, err := a.ListSites(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(sites))
			for _, s := range sites {
				rows = append(rows, []string{
					itoa(s.ID),
					s.BrandName,
					s.Domain,
					itoa(s.Template),
					string(s.DeploymentStatus),
					output.Ago(s.UpdatedAt),
				})
			}
			return writeList(cmd, format, "sites", sites, []string{"ID", "BRAND", "DOMAIN", "TEMPLATE", "STATUS", "UPDATED"}, rows)
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newSitesGetCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "get <site-id>",
		Short: "Show one site",
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
			site, err := a.GetSite(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeFields(cmd, format, site, siteFields(site))
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func siteFields(s model.Site) [][2]string {
	colors := "<none>"
	if s.CustomColors != nil && !s.CustomColors.IsZero() {
		colors = strings.Join([]string{s.CustomColors.Primary, s.CustomColors.Secondary, s.CustomColors.Accent}, " ")
	}
	cloudflare := "<none>"
	if s.CloudflareToken != nil {
		cloudflare = itoa(*s.CloudflareToken)
	}
	return [][2]string{
		{"ID", itoa(s.ID)},
		{"Brand", s.BrandName},
		{"Domain", s.Domain},
		{"Template", itoa(s.Template)},
		{"Status", string(s.DeploymentStatus)},
		{"Colors", colors},
		{"PageSpeed", output.YesNo(s.EnablePageSpeed)},
		{"ColorCustomization", output.YesNo(s.EnableColorCustomization)},
		{"CloudflareToken", cloudflare},
		{"Created", output.Timestamp(s.CreatedAt)},
		{"Updated", output.Timestamp(s.UpdatedAt)},
	}
}

// siteFlags collects the site form fields shared by create and update.
type siteFlags struct {
	file               string
	brandName          string
	domain             string
	template           int
	primary            string
	secondary          string
	accent             string
	pageSpeed          bool
	colorCustomization bool
	cloudflareToken    int
}

func (f *siteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Read the site from a YAML file")
	cmd.Flags().StringVar(&f.brandName, "brand-name", "", "Brand name")
	cmd.Flags().StringVar(&f.domain, "domain", "", "Site domain")
	cmd.Flags().IntVar(&f.template, "template", 0, "Template id")
	cmd.Flags().StringVar(&f.primary, "primary-color", "", "Primary colour (#rrggbb)")
	cmd.Flags().StringVar(&f.secondary, "secondary-color", "", "Secondary colour (#rrggbb)")
	cmd.Flags().StringVar(&f.accent, "accent-color", "", "Accent colour (#rrggbb)")
	cmd.Flags().BoolVar(&f.pageSpeed, "page-speed", false, "Enable page-speed optimisation")
	cmd.Flags().BoolVar(&f.colorCustomization, "color-customization", false, "Enable colour customisation")
	cmd.Flags().IntVar(&f.cloudflareToken, "cloudflare-token", 0, "Cloudflare token id")
}

// input merges the YAML file (when given) with any explicitly set flag.
func (f *siteFlags) input(cmd *cobra.Command) (model.SiteInput, error) {
	var in model.SiteInput
	if strings.TrimSpace(f.file) != "" {
		loaded, err := loader.LoadSite(f.file)
		if err != nil {
			return model.SiteInput{}, err
		}
		in = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("brand-name") {
		in.BrandName = strings.TrimSpace(f.brandName)
	}
	if flags.Changed("domain") {
		in.Domain = strings.TrimSpace(f.domain)
	}
	if flags.Changed("template") {
		in.Template = f.template
	}
	if flags.Changed("primary-color") || flags.Changed("secondary-color") || flags.Changed("accent-color") {
		colors := model.CustomColors{}
		if in.CustomColors != nil {
			colors = *in.CustomColors
		}
		if flags.Changed("primary-color") {
			colors.Primary = strings.TrimSpace(f.primary)
		}
		if flags.Changed("secondary-color") {
			colors.Secondary = strings.TrimSpace(f.secondary)
		}
		if flags.Changed("accent-color") {
			colors.Accent = strings.TrimSpace(f.accent)
		}
		in.CustomColors = &colors
	}
	if flags.Changed("page-speed") {
		v := f.pageSpeed
		in.EnablePageSpeed = &v
	}
	if flags.Changed("color-customization") {
		v := f.colorCustomization
		in.EnableColorCustomization = &v
	}
	if flags.Changed("cloudflare-token") {
		v := f.cloudflareToken
		in.CloudflareToken = &v
	}
	return in, nil
}

func newSitesCreateCmd() *cobra.Command {
	var flags siteFlags
	var outputMode string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a site",
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
			in, err := flags.input(cmd)
			if err != nil {
				return err
			}
			if err := rejectInvalid(cmd, validator.ValidateSite(in, true)); err != nil {
				return err
			}
			site, err := a.CreateSite(cmd.Context(), in)
			if err != nil {
				return err
			}
			if format != output.FormatTable {
				return output.WriteStructured(cmd.OutOrStdout(), format, site)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Site %d created: %s (%s)\n", site.ID, site.BrandName, site.Domain)
			return nil
		},
	}
	flags.register(cmd)
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newSitesUpdateCmd() *cobra.Command {
	var flags siteFlags
	var outputMode string
	cmd := &cobra.Command{
		Use:   "update <site-id>",
		Short: "Update a site",
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
			in, err := flags.input(cmd)
			if err != nil {
				return err
			}
			if in == (model.SiteInput{}) {
				return fmt.Errorf("at least one site field must be set")
			}
			if err := rejectInvalid(cmd, validator.ValidateSite(in, false)); err != nil {
				return err
			}
			site, err := a.UpdateSite(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			if format != output.FormatTable {
				return output.WriteStructured(cmd.OutOrStdout(), format, site)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Site %d updated.\n", site.ID)
			return nil
		},
	}
	flags.register(cmd)
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newSitesDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <site-id>",
		Short: "Delete a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			id, err := parseID("site", args[0])
			if err != nil {
				return err
			}
			ok, err := confirm(cmd, yes, fmt.Sprintf("Delete site %d and all of its pages?", id))
			if err != nil {
				return err
			}
			if !ok {
				return printAborted(cmd)
			}
			if err := a.DeleteSite(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Site %d deleted.\n", id)
			return nil
		},
	}
	addYesFlag(cmd, &yes)
	return cmd
}

func newSitesDeployCmd() *cobra.Command {
	var outputMode string
	var watch bool
	cmd := &cobra.Command{
		Use:   "deploy <site-id>",
		Short: "Trigger a deployment of a site",
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
			dep, err := a.TriggerDeployment(cmd.Context(), id)
			if err != nil {
				return err
			}
			if watch {
				return watchDeployment(cmd, a, dep.ID, defaultWatchInterval)
			}
			if format != output.FormatTable {
				return output.WriteStructured(cmd.OutOrStdout(), format, dep)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deployment %d started for site %d (%s).\n", dep.ID, id, dep.Status)
			return nil
		},
	}
	addOutputFlag(cmd, &outputMode)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Follow the deployment until it finishes")
	return cmd
}
