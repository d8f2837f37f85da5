package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ayatskii/panel-sub002/internal/auth"
	"github.com/ayatskii/panel-sub002/internal/config"
	"github.com/ayatskii/panel-sub002/internal/output"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var username string
	var passwordStdin bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the panel of the current context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFromCommand(cmd)
			if err != nil {
				return err
			}
			if rt.Session == nil {
				return fmt.Errorf("internal: session is not initialized")
			}
			in := bufio.NewReader(cmd.InOrStdin())
			username = strings.TrimSpace(username)
			if username == "" {
				username = rt.ResolvedContext.Username
			}
			if username == "" {
				if passwordStdin {
					return fmt.Errorf("--username is required with --password-stdin")
				}
				fmt.Fprint(cmd.OutOrStdout(), "Username: ")
				if username, err = readLine(in); err != nil {
					return err
				}
			}
			if !passwordStdin {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
			}
			password, err := readLine(in)
			if err != nil {
				return err
			}
			if username == "" || password == "" {
				return exitCodeError(exitValidation, fmt.Errorf("username and password are required"))
			}

			if err := rt.Session.Login(cmd.Context(), username, password); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := rememberUsername(rt, username); err != nil {
				rt.Logger.Warn("could not save username to config", "error", err.Error())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (context %s).\n", username, rt.ResolvedContext.Name)
			return nil
		},
	}
	markRequiresTransport(cmd)
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (defaults to the context username)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin without prompting")
	return cmd
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// rememberUsername stores the login name on the context so later logins and
// the activity journal use it.
func rememberUsername(rt *commandRuntime, username string) error {
	ctx, ok := rt.Config.Find(rt.ResolvedContext.Name)
	if !ok || ctx.Username == username {
		return nil
	}
	ctx.Username = username
	rt.Config.Upsert(ctx)
	return config.Save(rt.ConfigPath, rt.Config)
}

func newLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the session of the current context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFromCommand(cmd)
			if err != nil {
				return err
			}
			if rt.Session == nil {
				return fmt.Errorf("internal: session is not initialized")
			}
			if !rt.Session.LoggedIn() {
				fmt.Fprintf(cmd.OutOrStdout(), "Not logged in (context %s).\n", rt.ResolvedContext.Name)
				return nil
			}
			if err := rt.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out (context %s).\n", rt.ResolvedContext.Name)
			return nil
		},
	}
	markRequiresTransport(cmd)
	return cmd
}

func newWhoamiCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show who the current context is authenticated as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFromCommand(cmd)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(outputMode)
			if err != nil {
				return err
			}
			info := rt.ResolvedContext
			type whoami struct {
				Context   string `json:"context" yaml:"context"`
				Server    string `json:"server" yaml:"server"`
				Username  string `json:"username" yaml:"username"`
				Auth      string `json:"auth" yaml:"auth"`
				ExpiresAt string `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
			}
			res := whoami{Context: info.Name, Server: info.Server, Username: info.Username}

			var raw string
			if strings.TrimSpace(info.Token) != "" {
				res.Auth = "token"
				raw = info.Token
			} else {
				if rt.Session == nil || !rt.Session.LoggedIn() {
					return fmt.Errorf("%w (run 'panelctl login')", auth.ErrNotLoggedIn)
				}
				tok, err := rt.Session.Token()
				if err != nil {
					return err
				}
				res.Auth = "session"
				raw = tok.AccessToken
			}
			if name := auth.Username(raw); name != "" {
				res.Username = name
			}
			if exp, err := auth.ExpiresAt(raw); err == nil {
				res.ExpiresAt = output.Timestamp(exp)
			}

			user := res.Username
			return writeFields(cmd, format, res, [][2]string{
				{"Context", res.Context},
				{"Server", res.Server},
				{"Username", output.OrNone(&user)},
				{"Auth", res.Auth},
				{"AccessExpires", output.OrNone(&res.ExpiresAt)},
			})
		},
	}
	markRequiresTransport(cmd)
	addOutputFlag(cmd, &outputMode)
	return cmd
}
