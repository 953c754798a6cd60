package slogutil

import (
	"io"
	"log/slog"

	"ngrev/internal/config"
	"ngrev/internal/paths"
)

// Subsystems with their own log file under ~/.ngrev/logs.
const (
	SubsystemEngine = "engine"
	SubsystemWorker = "worker"
	SubsystemClient = "client"
)

// LoggerFactory creates appropriately configured loggers for different subsystems.
// It respects the configuration precedence: CLI flags > subsystem config > global config.
type LoggerFactory struct {
	config   *config.Config
	cliLevel slog.Level // from CLI flags (0 means not set)
	closers  []io.Closer
}

// NewLoggerFactory creates a new logger factory.
// cliLevel should be 0 if no CLI override was specified.
func NewLoggerFactory(cfg *config.Config, cliLevel slog.Level) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{config: cfg, cliLevel: cliLevel}
}

// Logger returns a file logger for subsystem. Failures to open the log file
// degrade to a discard logger; logging never blocks navigation.
func (f *LoggerFactory) Logger(subsystem string) *slog.Logger {
	logPath, err := paths.GetSubsystemLogPath(subsystem)
	if err != nil {
		return NewDiscardLogger()
	}
	if _, err := paths.EnsureLogsDir(); err != nil {
		return NewDiscardLogger()
	}

	level := f.EffectiveLevel(subsystem)
	logger, closer, err := NewFileLoggerWithRotation(logPath, f.config.Logging.Format, level,
		f.config.Logging.MaxSize, f.config.Logging.MaxBackups)
	if err != nil {
		return NewDiscardLogger()
	}

	f.closers = append(f.closers, closer)
	if h, ok := logger.Handler().(*Handler); ok {
		return slog.New(h.ForSubsystem(subsystem))
	}
	return logger.With("subsystem", subsystem)
}

// EffectiveLevel returns the effective log level for a subsystem.
// Precedence: CLI flag > subsystem config > global config > default (info)
func (f *LoggerFactory) EffectiveLevel(subsystem string) slog.Level {
	if f.cliLevel != 0 {
		return f.cliLevel
	}

	var subsystemLevel string
	switch subsystem {
	case SubsystemEngine:
		subsystemLevel = f.config.Logging.Engine
	case SubsystemWorker:
		subsystemLevel = f.config.Logging.Worker
	case SubsystemClient:
		subsystemLevel = f.config.Logging.Client
	}
	if subsystemLevel != "" {
		return LevelFromString(subsystemLevel)
	}

	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelInfo
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
