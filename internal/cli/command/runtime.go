package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minisocial-go/internal/cli/config"
	"github.com/yndnr/minisocial-go/internal/cli/connection"
	"github.com/yndnr/minisocial-go/internal/cli/output"
	"github.com/yndnr/minisocial-go/internal/core/service"
	"github.com/yndnr/minisocial-go/internal/core/task"
	"github.com/yndnr/minisocial-go/internal/infra/buildinfo"
	"github.com/yndnr/minisocial-go/internal/infra/shutdown"
	"github.com/yndnr/minisocial-go/internal/infra/tlsroots"
	"github.com/yndnr/minisocial-go/internal/storage"
	"github.com/yndnr/minisocial-go/internal/storage/memory"
	"github.com/yndnr/minisocial-go/internal/telemetry/logger"
	"github.com/yndnr/minisocial-go/internal/telemetry/metric"
	"github.com/yndnr/minisocial-go/pkg/crypto/adaptive"
)

const (
	runtimeKey = "runtime"
	ownerKey   = "ownsRuntime"

	shutdownTimeout = 5 * time.Second
)

// Runtime holds what commands share during one invocation, or across the
// lines of a shell. The store, session and services are opened on first
// use so that config and version commands work with a broken store setup.
type Runtime struct {
	ConfigPath string
	Config     *config.Config
	Printer    *output.Printer
	Logger     logger.Logger
	Metrics    *metric.Registry
	Shutdown   *shutdown.Handler

	Connections *connection.Manager
	Engine      storage.KVEngine
	Store       *storage.TokenStore
	Session     *service.SessionManager
	Posts       *service.PostService
	Comments    *service.CommentService
	Users       *service.UserService
	Tasks       *task.Group

	flags  map[string]any
	cipher adaptive.Cipher
	lines  *bufio.Reader

	openOnce sync.Once
	openErr  error

	inShell  bool
	onReload func()
}

// newRuntime loads configuration for the root context c.
func newRuntime(c *cli.Context) (*Runtime, error) {
	path := c.String("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}

	flags := flagOverrides(c)
	cfg, err := config.Load(path, flags)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		ConfigPath: path,
		Config:     cfg,
		Metrics:    metric.NewRegistry(),
		Shutdown:   shutdown.NewHandler(shutdownTimeout),
		flags:      flags,
	}
	rt.Logger = logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	rt.Printer = rt.printerFor(c)
	return rt, nil
}

// flagOverrides collects the global flags that were given explicitly, as
// dotted config keys.
func flagOverrides(c *cli.Context) map[string]any {
	flags := map[string]any{}
	if c.IsSet("server") {
		flags["server"] = c.String("server")
		if !c.IsSet("profile") {
			flags["profile"] = ""
		}
	}
	if c.IsSet("profile") {
		flags["profile"] = c.String("profile")
	}
	if c.IsSet("output") {
		flags["output"] = c.String("output")
	}
	if c.IsSet("timeout") {
		flags["timeout"] = c.Duration("timeout").String()
	}
	if c.IsSet("store") {
		flags["store.backend"] = c.String("store")
	}
	if c.Bool("ephemeral") {
		flags["store.backend"] = config.BackendMemory
	}
	if c.Bool("verbose") {
		flags["log.level"] = "debug"
	}
	return flags
}

// printerFor builds the printer for one invocation. An invalid configured
// format falls back to table; config validate reports it.
func (rt *Runtime) printerFor(c *cli.Context) *output.Printer {
	name := rt.Config.Output
	if c.IsSet("output") {
		name = c.String("output")
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		format = output.FormatTable
	}
	return output.NewPrinter(c.App.Writer, c.App.ErrWriter, format, c.Bool("wide"))
}

// runtimeFrom returns the runtime stored on the app.
func runtimeFrom(c *cli.Context) (*Runtime, bool) {
	rt, ok := c.App.Metadata[runtimeKey].(*Runtime)
	return rt, ok
}

// openRuntime returns the runtime with its store and services opened.
func openRuntime(c *cli.Context) (*Runtime, error) {
	rt, ok := runtimeFrom(c)
	if !ok {
		return nil, errors.New("runtime not initialized")
	}
	if err := rt.open(); err != nil {
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) open() error {
	rt.openOnce.Do(func() {
		rt.openErr = rt.doOpen()
	})
	return rt.openErr
}

func (rt *Runtime) doOpen() error {
	cfg := rt.Config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	engine, err := rt.openEngine()
	if err != nil {
		return fmt.Errorf("open token store: %w", err)
	}
	rt.Engine = engine
	rt.Shutdown.OnShutdown("close token store", func(context.Context) error {
		return engine.Close()
	})

	if cfg.Store.Encrypt {
		c, err := rt.openCipher()
		if err != nil {
			return fmt.Errorf("token encryption: %w", err)
		}
		rt.cipher = c
	}
	rt.Store = rt.storeFor(cfg.Namespace())

	tlsConfig, err := tlsroots.Config(tlsroots.Options{
		CAFile:   cfg.HTTP.CAFile,
		CertFile: cfg.HTTP.CertFile,
		KeyFile:  cfg.HTTP.KeyFile,
		Insecure: cfg.HTTP.Insecure,
	})
	if err != nil {
		return err
	}
	userAgent := cfg.HTTP.UserAgent
	if userAgent == "" {
		userAgent = buildinfo.UserAgent()
	}
	rt.Connections = connection.NewManager(connection.Options{
		Timeout:   cfg.Timeout,
		UserAgent: userAgent,
		RateLimit: cfg.HTTP.RateLimit,
		Burst:     cfg.HTTP.Burst,
		TLS:       tlsConfig,
		Logger:    rt.Logger,
		Metrics:   rt.Metrics,
	})
	for name, p := range cfg.Profiles {
		if err := rt.Connections.Add(connection.Profile{Name: name, Server: p.Server}); err != nil {
			return fmt.Errorf("profile %s: %w", name, err)
		}
	}
	if cfg.Profile == "" {
		if err := rt.Connections.Add(connection.Profile{Name: cfg.Namespace(), Server: cfg.Server}); err != nil {
			return err
		}
	}
	if err := rt.Connections.Use(cfg.Namespace()); err != nil {
		return err
	}
	client, err := rt.Connections.Client()
	if err != nil {
		return err
	}

	rt.Session = service.NewSessionManager(client, rt.Store,
		service.WithLogoutOnUnauthorized(cfg.Auth.LogoutOnUnauthorized),
		service.WithLogger(rt.Logger),
		service.WithMetrics(rt.Metrics),
	)
	rt.Posts = service.NewPostService(rt.Session)
	rt.Comments = service.NewCommentService(rt.Session)
	rt.Users = service.NewUserService(rt.Session)

	rt.Tasks = task.NewGroup(context.Background(),
		task.WithMetrics(rt.Metrics),
		task.WithLogger(rt.Logger),
	)
	rt.Shutdown.OnShutdown("cancel tasks", func(context.Context) error {
		rt.Tasks.Close()
		return nil
	})

	rt.Metrics.MustRegister(metric.NewSessionCollector(rt.Store.IsAuthenticated))

	rt.Logger.Debug("runtime opened",
		"server", cfg.ActiveServer(),
		"profile", cfg.Namespace(),
		"backend", cfg.Store.Backend,
	)
	return nil
}

func (rt *Runtime) openEngine() (storage.KVEngine, error) {
	st := rt.Config.Store
	switch st.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendBadger:
		if err := os.MkdirAll(st.Dir, 0700); err != nil {
			return nil, err
		}
		engine, err := storage.NewBadgerEngine(filepath.Join(st.Dir, "badger"),
			storage.WithBadgerLogger(logger.Slog(rt.Logger)),
		)
		if err != nil {
			return nil, err
		}
		return engine.RegisterMetrics(rt.Metrics.Prometheus()), nil
	default:
		if err := os.MkdirAll(st.Dir, 0700); err != nil {
			return nil, err
		}
		return storage.NewFileEngine(filepath.Join(st.Dir, "session.json"),
			storage.WithFileLogger(logger.Slog(rt.Logger)),
		)
	}
}

func (rt *Runtime) openCipher() (adaptive.Cipher, error) {
	st := rt.Config.Store
	var (
		key []byte
		err error
	)
	if st.Passphrase != "" {
		key, err = storage.KeyFromPassphrase(st.Passphrase, filepath.Join(st.Dir, "salt"))
	} else {
		keyFile := st.KeyFile
		if keyFile == "" {
			keyFile = filepath.Join(st.Dir, "token.key")
		}
		key, err = storage.LoadOrCreateKey(keyFile)
	}
	if err != nil {
		return nil, err
	}
	return adaptive.New(key)
}

// storeFor returns a token store for the namespace of a profile, sharing
// the engine and cipher of the runtime.
func (rt *Runtime) storeFor(namespace string) *storage.TokenStore {
	return storage.NewTokenStore(rt.Engine,
		storage.WithNamespace(namespace),
		storage.WithCipher(rt.cipher),
		storage.WithMetrics(rt.Metrics),
		storage.WithLogger(rt.Logger),
	)
}

// reload closes the runtime and opens it again from the config file, so a
// shell picks up a profile switch.
func (rt *Runtime) reload() error {
	if err := rt.Close(); err != nil {
		rt.Logger.Warn("close runtime", "error", err)
	}

	cfg, err := config.Load(rt.ConfigPath, rt.flags)
	if err != nil {
		return err
	}
	rt.Config = cfg
	rt.Metrics = metric.NewRegistry()
	rt.Shutdown = shutdown.NewHandler(shutdownTimeout)
	rt.openOnce = sync.Once{}
	rt.openErr = nil

	if err := rt.open(); err != nil {
		return err
	}
	if rt.onReload != nil {
		rt.onReload()
	}
	return nil
}

// Close cancels running tasks and closes the store.
func (rt *Runtime) Close() error {
	return rt.Shutdown.Shutdown()
}

// run executes fn as the keyed task key while showing a spinner. A new
// task under the same key supersedes the running one. Cancelling c's
// context cancels the task.
func (rt *Runtime) run(c *cli.Context, key, message string, fn task.Func) error {
	sp := rt.Printer.Spinner(message)
	sp.Start()
	defer sp.Stop()

	stop := context.AfterFunc(c.Context, func() { rt.Tasks.Cancel(key) })
	defer stop()

	err := rt.Tasks.Run(key, fn)
	if errors.Is(err, task.ErrDiscarded) && c.Context.Err() != nil {
		return context.Canceled
	}
	return err
}

// input returns the reader shared by prompts and the shell.
func (rt *Runtime) input(c *cli.Context) *bufio.Reader {
	if rt.lines == nil {
		rt.lines = bufio.NewReader(c.App.Reader)
	}
	return rt.lines
}
