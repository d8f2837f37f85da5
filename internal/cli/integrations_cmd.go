package cli

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/ayatskii/panel-sub002/internal/output"
	"github.com/ayatskii/panel-sub002/pkg/model"
	"github.com/ayatskii/panel-sub002/pkg/validator"
	"github.com/spf13/cobra"
)

func newIntegrationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integrations",
		Short: "Manage API tokens, Cloudflare credentials and AI prompts",
	}
	markRequiresTransport(cmd)

	cmd.AddCommand(newTokensCmd())
	cmd.AddCommand(newCloudflareCmd())
	cmd.AddCommand(newPromptsCmd())
	return cmd
}

func newTokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Manage panel API tokens",
	}
	cmd.AddCommand(newTokensListCmd())
	cmd.AddCommand(newTokensCreateCmd())
	cmd.AddCommand(newTokensRevokeCmd())
	return cmd
}

func newTokensListCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API tokens",
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
			tokens, err := a.ListAPITokens(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(tokens))
			for _, t := range tokens {
				lastUsed, expires := "never", "never"
				if t.LastUsedAt != nil {
					lastUsed = output.Ago(*t.LastUsedAt)
				}
				if t.ExpiresAt != nil {
					expires = output.Timestamp(*t.ExpiresAt)
				}
				rows = append(rows, []string{itoa(t.ID), t.Name, t.TokenPrefix + "...", output.Ago(t.CreatedAt), lastUsed, expires})
			}
			return writeList(cmd, format, "API tokens", tokens, []string{"ID", "NAME", "TOKEN", "CREATED", "LAST USED", "EXPIRES"}, rows)
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newTokensCreateCmd() *cobra.Command {
	var in model.APITokenInput
	var outputMode string
	cmd := &cobra.Command{
		Use:   "create --name <name>",
		Short: "Create an API token",
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
			in.Name = strings.TrimSpace(in.Name)
			if err := rejectInvalid(cmd, validator.ValidateAPIToken(in)); err != nil {
				return err
			}
			created, err := a.CreateAPIToken(cmd.Context(), in)
			if err != nil {
				return err
			}
			if format != output.FormatTable {
				return output.WriteStructured(cmd.OutOrStdout(), format, created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API token %d created: %s\n", created.ID, created.Name)
			fmt.Fprintln(cmd.OutOrStdout(), created.Token)
			fmt.Fprintln(cmd.ErrOrStderr(), "Store this token now; it is not shown again.")
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Token name")
	cmd.Flags().IntVar(&in.ExpiresInDays, "expires-in-days", 0, "Expire the token after this many days (0 never expires)")
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newTokensRevokeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "revoke <token-id>",
		Short: "Revoke an API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			id, err := parseID("token", args[0])
			if err != nil {
				return err
			}
			ok, err := confirm(cmd, yes, fmt.Sprintf("Revoke API token %d? Clients using it lose access immediately.", id))
			if err != nil {
				return err
			}
			if !ok {
				return printAborted(cmd)
			}
			if err := a.RevokeAPIToken(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API token %d revoked.\n", id)
			return nil
		},
	}
	addYesFlag(cmd, &yes)
	return cmd
}

func newCloudflareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cloudflare",
		Short: "Manage Cloudflare API credentials",
	}
	cmd.AddCommand(newCloudflareListCmd())
	cmd.AddCommand(newCloudflareAddCmd())
	cmd.AddCommand(newCloudflareRemoveCmd())
	cmd.AddCommand(newCloudflareVerifyCmd())
	return cmd
}

func newCloudflareListCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List Cloudflare tokens",
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
			tokens, err := a.ListCloudflareTokens(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(tokens))
			for _, t := range tokens {
				rows = append(rows, []string{itoa(t.ID), t.Name, t.AccountID, t.MaskedToken, output.YesNo(t.IsActive)})
			}
			return writeList(cmd, format, "Cloudflare tokens", tokens, []string{"ID", "NAME", "ACCOUNT", "TOKEN", "ACTIVE"}, rows)
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newCloudflareAddCmd() *cobra.Command {
	var in model.CloudflareTokenInput
	var tokenStdin bool
	cmd := &cobra.Command{
		Use:   "add --name <name> --account-id <id> (--token <token> | --token-stdin)",
		Short: "Store a Cloudflare API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			if tokenStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && strings.TrimSpace(line) == "" {
					return fmt.Errorf("read token from stdin: %w", err)
				}
				in.Token = line
			}
			in.Name = strings.TrimSpace(in.Name)
			in.AccountID = strings.TrimSpace(in.AccountID)
			in.Token = strings.TrimSpace(in.Token)
			if err := rejectInvalid(cmd, validator.ValidateCloudflareToken(in)); err != nil {
				return err
			}
			created, err := a.CreateCloudflareToken(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cloudflare token %d added: %s (%s)\n", created.ID, created.Name, output.MaskSecret(in.Token))
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&in.AccountID, "account-id", "", "Cloudflare account id")
	cmd.Flags().StringVar(&in.Token, "token", "", "Cloudflare API token")
	cmd.Flags().BoolVar(&tokenStdin, "token-stdin", false, "Read the token from stdin")
	cmd.MarkFlagsMutuallyExclusive("token", "token-stdin")
	return cmd
}

func newCloudflareRemoveCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove <token-id>",
		Short: "Remove a Cloudflare token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			id, err := parseID("token", args[0])
			if err != nil {
				return err
			}
			ok, err := confirm(cmd, yes, fmt.Sprintf("Remove Cloudflare token %d? Sites using it can no longer manage DNS.", id))
			if err != nil {
				return err
			}
			if !ok {
				return printAborted(cmd)
			}
			if err := a.DeleteCloudflareToken(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cloudflare token %d removed.\n", id)
			return nil
		},
	}
	addYesFlag(cmd, &yes)
	return cmd
}

func newCloudflareVerifyCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "verify <token-id>",
		Short: "Check a Cloudflare token against the Cloudflare API",
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
			id, err := parseID("token", args[0])
			if err != nil {
				return err
			}
			res, err := a.VerifyCloudflareToken(cmd.Context(), id)
			if err != nil {
				return err
			}
			if format != output.FormatTable {
				return output.WriteStructured(cmd.OutOrStdout(), format, res)
			}
			status := "valid"
			if !res.Valid {
				status = "invalid"
			}
			if res.Message != "" {
				status += ": " + res.Message
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cloudflare token %d is %s\n", id, status)
			if !res.Valid {
				return exitCodeError(exitFailure, fmt.Errorf("cloudflare token %d failed verification", id))
			}
			return nil
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newPromptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Manage AI content prompts",
	}
	cmd.AddCommand(newPromptsListCmd())
	cmd.AddCommand(newPromptsCreateCmd())
	cmd.AddCommand(newPromptsUpdateCmd())
	cmd.AddCommand(newPromptsDeleteCmd())
	return cmd
}

func newPromptsListCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List prompts",
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
			prompts, err := a.ListPrompts(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(prompts))
			for _, p := range prompts {
				rows = append(rows, []string{itoa(p.ID), p.Name, p.PromptType, output.YesNo(p.IsActive), output.Truncate(p.Content, 50)})
			}
			return writeList(cmd, format, "prompts", prompts, []string{"ID", "NAME", "TYPE", "ACTIVE", "CONTENT"}, rows)
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newPromptsCreateCmd() *cobra.Command {
	var p model.Prompt
	var file string
	var inactive bool
	cmd := &cobra.Command{
		Use:   "create --name <name> --type <type> (--content <text> | --file <path>)",
		Short: "Create a prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read prompt file: %w", err)
				}
				p.Content = string(data)
			}
			p.Name = strings.TrimSpace(p.Name)
			p.PromptType = strings.TrimSpace(p.PromptType)
			p.IsActive = !inactive
			if err := rejectInvalid(cmd, validator.ValidatePrompt(p)); err != nil {
				return err
			}
			created, err := a.CreatePrompt(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Prompt %d created: %s\n", created.ID, created.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.Name, "name", "", "Prompt name")
	cmd.Flags().StringVar(&p.PromptType, "type", "", "Prompt type (for example content or meta)")
	cmd.Flags().StringVar(&p.Content, "content", "", "Prompt text")
	cmd.Flags().StringVar(&file, "file", "", "Read the prompt text from a file")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Create the prompt disabled")
	cmd.MarkFlagsMutuallyExclusive("content", "file")
	return cmd
}

// newPromptsUpdateCmd starts from the stored prompt, applies the flags that
// were passed and sends the whole record back.
func newPromptsUpdateCmd() *cobra.Command {
	var edit model.Prompt
	var file string
	var active bool
	cmd := &cobra.Command{
		Use:   "update <prompt-id>",
		Short: "Replace the fields of a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			id, err := parseID("prompt", args[0])
			if err != nil {
				return err
			}
			prompts, err := a.ListPrompts(cmd.Context())
			if err != nil {
				return err
			}
			idx := slices.IndexFunc(prompts, func(p model.Prompt) bool { return p.ID == id })
			if idx < 0 {
				return fmt.Errorf("prompt %d not found", id)
			}
			p := prompts[idx]

			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = strings.TrimSpace(edit.Name)
			}
			if flags.Changed("type") {
				p.PromptType = strings.TrimSpace(edit.PromptType)
			}
			if flags.Changed("content") {
				p.Content = edit.Content
			}
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read prompt file: %w", err)
				}
				p.Content = string(data)
			}
			if flags.Changed("active") {
				p.IsActive = active
			}
			if err := rejectInvalid(cmd, validator.ValidatePrompt(p)); err != nil {
				return err
			}
			updated, err := a.UpdatePrompt(cmd.Context(), id, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Prompt %d updated: %s\n", updated.ID, updated.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&edit.Name, "name", "", "New prompt name")
	cmd.Flags().StringVar(&edit.PromptType, "type", "", "New prompt type")
	cmd.Flags().StringVar(&edit.Content, "content", "", "New prompt text")
	cmd.Flags().StringVar(&file, "file", "", "Read the new prompt text from a file")
	cmd.Flags().BoolVar(&active, "active", true, "Enable or disable the prompt (--active=false)")
	cmd.MarkFlagsMutuallyExclusive("content", "file")
	return cmd
}

func newPromptsDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <prompt-id>",
		Short: "Delete a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			id, err := parseID("prompt", args[0])
			if err != nil {
				return err
			}
			ok, err := confirm(cmd, yes, fmt.Sprintf("Delete prompt %d?", id))
			if err != nil {
				return err
			}
			if !ok {
				return printAborted(cmd)
			}
			if err := a.DeletePrompt(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Prompt %d deleted.\n", id)
			return nil
		},
	}
	addYesFlag(cmd, &yes)
	return cmd
}
