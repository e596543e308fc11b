package obs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

type correlationContextKey struct{}

// Correlation carries the identifiers of the scenario attempt a log line belongs to.
type Correlation struct {
	RunID    string
	Feature  string
	Scenario string
	Attempt  int
	Step     string
}

// Options configures the global logger.
type Options struct {
	Level slog.Level
	// Tag prefixes every message as "[TAG] msg" and is attached as env.
	Tag string
}

var (
	loggerMu sync.RWMutex
	logger   *slog.Logger
	options  Options
)

// Init configures the global structured logger. Later calls reconfigure it.
func Init(opts Options) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	options = opts
	logger = newLogger(os.Stderr, opts)
	slog.SetDefault(logger)
}

// SetOutputForTests overrides the global logger output for tests.
func SetOutputForTests(w io.Writer) func() {
	loggerMu.Lock()
	prev := logger
	logger = newLogger(w, options)
	slog.SetDefault(logger)
	loggerMu.Unlock()

	return func() {
		loggerMu.Lock()
		defer loggerMu.Unlock()
		if prev != nil {
			logger = prev
		} else {
			logger = newLogger(os.Stderr, options)
		}
		slog.SetDefault(logger)
	}
}

// ParseLevel maps a profile log level name to a slog level. Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, opts Options) *slog.Logger {
	tag := strings.TrimSpace(opts.Tag)
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: opts.Level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				t, ok := attr.Value.Any().(time.Time)
				if ok {
					return slog.String(slog.TimeKey, t.UTC().Format(time.RFC3339Nano))
				}
			case slog.MessageKey:
				if tag != "" {
					return slog.String(slog.MessageKey, "["+tag+"] "+attr.Value.String())
				}
			}
			return attr
		},
	})
	l := slog.New(handler)
	if tag != "" {
		l = l.With("env", strings.ToLower(tag))
	}
	return l
}

func globalLogger() *slog.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}
	Init(Options{Level: slog.LevelInfo})
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// Pkg returns a logger tagged with package name.
func Pkg(pkg string) *slog.Logger {
	return globalLogger().With("pkg", pkg)
}

// From returns a logger with correlation fields from context.
func From(ctx context.Context) *slog.Logger {
	l := globalLogger()
	attrs := correlationAttrs(CorrelationFromContext(ctx))
	if len(attrs) == 0 {
		return l
	}
	return l.With(attrs...)
}

// WithCorrelation merges non-empty correlation fields into context.
func WithCorrelation(ctx context.Context, corr Correlation) context.Context {
	existing := CorrelationFromContext(ctx)
	if corr.RunID != "" {
		existing.RunID = corr.RunID
	}
	if corr.Feature != "" {
		existing.Feature = corr.Feature
	}
	if corr.Scenario != "" {
		existing.Scenario = corr.Scenario
	}
	if corr.Attempt != 0 {
		existing.Attempt = corr.Attempt
	}
	if corr.Step != "" {
		existing.Step = corr.Step
	}
	return context.WithValue(ctx, correlationContextKey{}, existing)
}

// CorrelationFromContext returns correlation fields from context.
func CorrelationFromContext(ctx context.Context) Correlation {
	if ctx == nil {
		return Correlation{}
	}
	corr, ok := ctx.Value(correlationContextKey{}).(Correlation)
	if !ok {
		return Correlation{}
	}
	return corr
}

func correlationAttrs(corr Correlation) []any {
	attrs := make([]any, 0, 10)
	if corr.RunID != "" {
		attrs = append(attrs, "run_id", corr.RunID)
	}
	if corr.Feature != "" {
		attrs = append(attrs, "feature", corr.Feature)
	}
	if corr.Scenario != "" {
		attrs = append(attrs, "scenario", corr.Scenario)
	}
	if corr.Attempt != 0 {
		attrs = append(attrs, "attempt", corr.Attempt)
	}
	if corr.Step != "" {
		attrs = append(attrs, "step", corr.Step)
	}
	return attrs
}
