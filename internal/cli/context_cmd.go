package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ayatskii/panel-sub002/internal/config"
	"github.com/ayatskii/panel-sub002/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Manage panel contexts",
	}
	cmd.AddCommand(
		newContextSetCmd(),
		newContextUseCmd(),
		newContextListCmd(),
		newContextCurrentCmd(),
		newContextDeleteCmd(),
	)
	return cmd
}

// contextEdit holds the flag values of context set.
type contextEdit struct {
	server    string
	token     string
	username  string
	port      int
	rateLimit float64
	use       bool
}

// apply copies every flag the user passed onto ctx and reports whether any did.
func (e *contextEdit) apply(flags *pflag.FlagSet, ctx *config.Context) bool {
	setters := map[string]func(){
		"server":     func() { ctx.Server = strings.TrimSpace(e.server) },
		"token":      func() { ctx.Token = strings.TrimSpace(e.token) },
		"username":   func() { ctx.Username = strings.TrimSpace(e.username) },
		"port":       func() { ctx.Port = e.port },
		"rate-limit": func() { ctx.RateLimit = e.rateLimit },
	}
	touched := false
	for name, set := range setters {
		if flags.Changed(name) {
			set()
			touched = true
		}
	}
	return touched
}

func newContextSetCmd() *cobra.Command {
	edit := &contextEdit{}
	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Create or update a context entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFromCommand(cmd)
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			if name == "" {
				return errors.New("context name is required")
			}

			ctx, exists := rt.Config.Find(name)
			ctx.Name = name
			if !edit.apply(cmd.Flags(), &ctx) && !edit.use {
				return errors.New("at least one context field must be set")
			}
			if !exists && ctx.Server == "" {
				return errors.New("--server is required for a new context")
			}

			rt.Config.Upsert(ctx)
			if edit.use || strings.TrimSpace(rt.Config.CurrentContext) == "" {
				rt.Config.CurrentContext = name
			}
			if err := config.Save(rt.ConfigPath, rt.Config); err != nil {
				return err
			}
			if exists {
				fmt.Fprintf(cmd.OutOrStdout(), "Updated context %q\n", name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Created context %q\n", name)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&edit.server, "server", "", "Panel URL (https://panel.example.com or ssh://user@host)")
	f.StringVar(&edit.token, "token", "", "Static API token (skips login)")
	f.StringVar(&edit.username, "username", "", "Default login username")
	f.IntVar(&edit.port, "port", 0, "Remote panel port for ssh servers (0 uses default)")
	f.Float64Var(&edit.rateLimit, "rate-limit", 0, "Requests per second (0 uses default, negative disables)")
	f.BoolVar(&edit.use, "use", false, "Also make this the current context")
	return cmd
}

func newContextUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Switch current-context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFromCommand(cmd)
			if err != nil {
				return err
			}
			info, err := config.ResolveContext(rt.Config, args[0])
			if err != nil {
				return err
			}
			rt.Config.CurrentContext = info.Name
			if err := config.Save(rt.ConfigPath, rt.Config); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to context %q\n", info.Name)
			return nil
		},
	}
}

func newContextCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the context commands run against",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtimeFromCommand(cmd)
			if err != nil {
				return err
			}
			info, err := config.ResolveContext(rt.Config, rt.ContextOverride)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", info.Name, info.Server)
			return nil
		},
	}
}

func newContextDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a context entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFromCommand(cmd)
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			if _, ok := rt.Config.Find(name); !ok {
				return fmt.Errorf("context %q not found", name)
			}
			ok, err := confirm(cmd, yes, fmt.Sprintf("Delete context %q?", name))
			if err != nil {
				return err
			}
			if !ok {
				return printAborted(cmd)
			}
			wasCurrent := rt.Config.CurrentContext == name
			rt.Config.Remove(name)
			if err := config.Save(rt.ConfigPath, rt.Config); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted context %q\n", name)
			if wasCurrent {
				fmt.Fprintln(cmd.ErrOrStderr(), "No current context is set; run panelctl context use <name>.")
			}
			return nil
		},
	}
	addYesFlag(cmd, &yes)
	return cmd
}

type contextRow struct {
	Name     string `json:"name" yaml:"name"`
	Server   string `json:"server" yaml:"server"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`
	Current  bool   `json:"current" yaml:"current"`
}

func newContextListCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured contexts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtimeFromCommand(cmd)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(outputMode)
			if err != nil {
				return err
			}

			current := strings.TrimSpace(rt.Config.CurrentContext)
			payload := make([]contextRow, 0, len(rt.Config.Contexts))
			rows := make([][]string, 0, len(rt.Config.Contexts))
			for _, c := range rt.Config.Contexts {
				r := contextRow{Name: c.Name, Server: c.Server, Username: c.Username, Current: c.Name == current}
				if c.Token != "" {
					r.Token = output.MaskSecret(c.Token)
				}
				payload = append(payload, r)

				marker := ""
				if r.Current {
					marker = "*"
				}
				rows = append(rows, []string{marker, r.Name, r.Server, output.OrNone(&r.Username), output.OrNone(&r.Token)})
			}
			return writeList(cmd, format, "contexts", payload, []string{"CURRENT", "NAME", "SERVER", "USERNAME", "TOKEN"}, rows)
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}
