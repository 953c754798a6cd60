package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ngrev/internal/config"
	"ngrev/internal/engine"
	"ngrev/internal/paths"
	"ngrev/internal/project"
	"ngrev/internal/slogutil"
	"ngrev/internal/states"
)

// settings is what every command resolves before touching a project.
type settings struct {
	root    string
	cfg     *config.Config
	loggers *slogutil.LoggerFactory
	opened  map[string]*slog.Logger
}

// loadSettings reads the configuration owned by projectPath (or the working
// directory when empty). A broken config file falls back to defaults; an
// invalid one is fatal.
func loadSettings(projectPath string) *settings {
	root := "."
	if projectPath != "" {
		root = paths.ProjectRoot(projectPath)
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	return &settings{
		root:    root,
		cfg:     cfg,
		loggers: slogutil.NewLoggerFactory(cfg, cliLogLevel()),
		opened:  make(map[string]*slog.Logger),
	}
}

// logger returns the file logger of subsystem, opening it once.
func (s *settings) logger(subsystem string) *slog.Logger {
	if l, ok := s.opened[subsystem]; ok {
		return l
	}
	l := s.loggers.Logger(subsystem)
	s.opened[subsystem] = l
	return l
}

// newEngine creates an engine backed by the manifest loader.
func (s *settings) newEngine() *engine.Engine {
	logger := s.logger(slogutil.SubsystemEngine)

	var searchDir string
	if s.cfg.Search.Enabled {
		dir, err := paths.GetSearchCacheDir(s.cfg.Search.CacheDir)
		if err != nil {
			logger.Warn("Search cache unavailable, using in-memory search", "error", err.Error())
		} else {
			searchDir = dir
		}
	}

	return engine.New(engine.Options{
		Loader: project.NewLoader(logger),
		Logger: logger,
		View: states.AppOptions{
			ShowLibs:    s.cfg.View.ShowLibs,
			ModulesOnly: s.cfg.View.ModulesOnly,
		},
		SearchDir: searchDir,
	})
}

func (s *settings) close() {
	_ = s.loggers.Close()
}

// mustLoad loads path into e or exits. Load errors are printed verbatim.
func mustLoad(ctx context.Context, e *engine.Engine, path string) {
	if err := e.Load(ctx, path); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading project: %v\n", err)
		os.Exit(1)
	}
}

// newContext returns a context cancelled on interrupt.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// exitOnError prints err with a prefix and exits.
func exitOnError(what string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error %s: %v\n", what, err)
		os.Exit(1)
	}
}
