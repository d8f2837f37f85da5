package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/ayatskii/panel-sub002/internal/api"
	"github.com/ayatskii/panel-sub002/internal/audit"
	"github.com/ayatskii/panel-sub002/internal/auth"
	"github.com/ayatskii/panel-sub002/internal/cache"
	"github.com/ayatskii/panel-sub002/internal/client"
	"github.com/ayatskii/panel-sub002/internal/config"
	dbpkg "github.com/ayatskii/panel-sub002/internal/db"
	"github.com/ayatskii/panel-sub002/internal/logging"
	"github.com/ayatskii/panel-sub002/internal/transport"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

const (
	annotationRequiresConfig    = "panelctl/requires-config"
	annotationRequiresTransport = "panelctl/requires-transport"

	defaultActor        = "local"
	journalCloseTimeout = 5 * time.Second
)

// buildTransportForContext is swapped in tests.
var buildTransportForContext = transport.NewFromContext

type runtimeKey struct{}

// commandRuntime is everything a command needs, built once per invocation by
// the root pre-run hook.
type commandRuntime struct {
	Config          config.Config
	ConfigPath      string
	ContextOverride string
	ResolvedContext config.ContextInfo
	Logger          *slog.Logger

	State     *sql.DB
	Journal   *audit.AsyncLogger
	Transport transport.Transport
	Cache     *cache.Manager
	Session   *auth.Session
	API       *api.API
}

func markRequiresConfig(cmd *cobra.Command) {
	annotate(cmd, annotationRequiresConfig)
}

// markRequiresTransport implies markRequiresConfig.
func markRequiresTransport(cmd *cobra.Command) {
	annotate(cmd, annotationRequiresConfig)
	annotate(cmd, annotationRequiresTransport)
}

func annotate(cmd *cobra.Command, key string) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[key] = "true"
}

// hasAnnotation checks cmd and its parents.
func hasAnnotation(cmd *cobra.Command, key string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[key] == "true" {
			return true
		}
	}
	return false
}

func runtimeFromCommand(cmd *cobra.Command) (*commandRuntime, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, fmt.Errorf("internal: command context is not initialized")
	}
	rt, ok := ctx.Value(runtimeKey{}).(*commandRuntime)
	if !ok || rt == nil {
		return nil, fmt.Errorf("internal: runtime is not initialized")
	}
	return rt, nil
}

func apiFromCommand(cmd *cobra.Command) (*commandRuntime, *api.API, error) {
	rt, err := runtimeFromCommand(cmd)
	if err != nil {
		return nil, nil, err
	}
	if rt.API == nil {
		return nil, nil, fmt.Errorf("internal: api is not initialized")
	}
	return rt, rt.API, nil
}

type rootFlags struct {
	configPath string
	context    string
	logLevel   string
}

func (f *rootFlags) preRun(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(config.DotEnvFile); err != nil {
		return err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), f.logLevel)
	if err != nil {
		return err
	}
	cfg, path, err := config.LoadOrEmpty(f.configPath)
	if err != nil {
		return err
	}
	if cfg.ExposedTokens {
		logger.Warn("config file holding API tokens is readable by other users", "path", path, "fix", "chmod 600 "+path)
	}
	rt := &commandRuntime{
		Config:          cfg,
		ConfigPath:      path,
		ContextOverride: strings.TrimSpace(f.context),
		Logger:          logger,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, runtimeKey{}, rt))

	if !hasAnnotation(cmd, annotationRequiresConfig) {
		return nil
	}
	info, err := config.ResolveContext(cfg, rt.ContextOverride)
	if err != nil {
		return err
	}
	rt.ResolvedContext = info
	if err := rt.openState(cmd.Context()); err != nil {
		_ = rt.Close()
		return err
	}

	if !hasAnnotation(cmd, annotationRequiresTransport) {
		return nil
	}
	if err := rt.connect(cmd.Context()); err != nil {
		_ = rt.Close()
		return err
	}
	return nil
}

func (rt *commandRuntime) actor() string {
	if name := strings.TrimSpace(rt.ResolvedContext.Username); name != "" {
		return name
	}
	return defaultActor
}

func (rt *commandRuntime) openState(ctx context.Context) error {
	state, err := dbpkg.OpenState(ctx, filepath.Join(config.Dir(rt.ConfigPath), dbpkg.DefaultStateFile))
	if err != nil {
		return err
	}
	rt.State = state
	sink, err := audit.NewSQLiteLogger(state)
	if err != nil {
		return err
	}
	logger := rt.Logger
	rt.Journal = audit.NewAsyncLogger(sink, 0, func(err error) {
		logger.Warn("activity journal write failed", "error", err.Error())
	})
	return nil
}

func (rt *commandRuntime) connect(ctx context.Context) error {
	info := rt.ResolvedContext
	tr, err := buildTransportForContext(ctx, info, transport.SSHConfig{
		Options: transport.Options{RateLimit: info.RateLimit},
	})
	if err != nil {
		return err
	}
	rt.Transport = tr

	actor := rt.actor()
	rt.Cache = cache.NewManager(cache.Options{
		Logger:   rt.Logger,
		Observer: audit.NewRecorder(rt.Journal, info.Name, actor, rt.Logger),
	})

	bare := client.New(tr, client.WithActor(actor), client.WithLogger(rt.Logger))
	session, err := auth.Open(ctx, rt.State, bare, info.Name, auth.Options{Cache: rt.Cache, Logger: rt.Logger})
	if err != nil {
		return err
	}
	rt.Session = session

	// A static token from the config or PANELCTL_TOKEN wins over the login session.
	tokens := session.TokenSource()
	if token := strings.TrimSpace(info.Token); token != "" {
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	}
	authed := client.New(tr, client.WithActor(actor), client.WithLogger(rt.Logger), client.WithTokenSource(tokens))
	rt.API, err = api.New(authed, rt.Cache)
	return err
}

// Close releases everything the runtime opened. Queued journal entries are
// flushed before the state file is closed.
func (rt *commandRuntime) Close() error {
	if rt == nil {
		return nil
	}
	var errs []error
	if rt.Cache != nil {
		rt.Cache.Close()
	}
	if rt.Transport != nil {
		if err := rt.Transport.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close transport: %w", err))
		}
		rt.Transport = nil
	}
	if rt.Journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), journalCloseTimeout)
		if err := rt.Journal.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush activity journal: %w", err))
		}
		cancel()
		rt.Journal = nil
	}
	if rt.State != nil {
		if err := rt.State.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close state file: %w", err))
		}
		rt.State = nil
	}
	return errors.Join(errs...)
}

// attachTeardown wraps every RunE below root so the runtime is closed whether
// the command succeeds or not. PersistentPostRunE only runs on success.
func attachTeardown(root *cobra.Command) {
	for _, c := range root.Commands() {
		attachTeardown(c)
	}
	run := root.RunE
	if run == nil {
		return
	}
	root.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		rt, rtErr := runtimeFromCommand(cmd)
		if rtErr != nil {
			return err
		}
		if closeErr := rt.Close(); closeErr != nil {
			rt.Logger.Warn("runtime teardown failed", "error", closeErr.Error())
		}
		return err
	}
}
