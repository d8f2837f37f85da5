package cli

import (
	"github.com/ayatskii/panel-sub002/internal/output"
	"github.com/spf13/cobra"
)

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template"},
		Short:   "Browse site templates",
	}
	markRequiresTransport(cmd)

	cmd.AddCommand(newTemplatesListCmd())
	cmd.AddCommand(newTemplatesGetCmd())
	return cmd
}

func newTemplatesListCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates",
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
			templates, err := a.ListTemplates(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(templates))
			for _, t := range templates {
				rows = append(rows, []string{
					itoa(t.ID),
					t.Name,
					output.YesNo(t.SupportsColorCustomization),
					output.YesNo(t.SupportsPageSpeed),
				})
			}
			return writeList(cmd, format, "templates", templates, []string{"ID", "NAME", "COLORS", "PAGESPEED"}, rows)
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newTemplatesGetCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "get <template-id>",
		Short: "Show one template",
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
			id, err := parseID("template", args[0])
			if err != nil {
				return err
			}
			t, err := a.GetTemplate(cmd.Context(), id)
			if err != nil {
				return err
			}
			desc, preview := t.Description, t.PreviewImage
			return writeFields(cmd, format, t, [][2]string{
				{"ID", itoa(t.ID)},
				{"Name", t.Name},
				{"Description", output.OrNone(&desc)},
				{"Preview", output.OrNone(&preview)},
				{"ColorCustomization", output.YesNo(t.SupportsColorCustomization)},
				{"PageSpeed", output.YesNo(t.SupportsPageSpeed)},
			})
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}
