package logger

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

type Logger struct {
	*slog.Logger
}

func New(cfg *Config) (*Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := slog.New(createHandler(cfg))
	return &Logger{logger}, nil
}

func createHandler(cfg *Config) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     cfg.GetSlogLevel(),
		AddSource: cfg.AddSource,
	}

	switch cfg.Format {
	case "text":
		return tint.NewHandler(os.Stdout, &tint.Options{
			Level:      opts.Level,
			AddSource:  opts.AddSource,
			TimeFormat: "15:04:05",
		})
	case "json":
		fallthrough
	default:
		return slog.NewJSONHandler(os.Stdout, opts)
	}
}

func (l *Logger) Component(name string) *Logger {
	return &Logger{l.Logger.With("component", name)}
}

// WithReview tags every record with the review thread id; the engine and
// sweeper use it so one request's transitions can be grepped as a unit.
func (l *Logger) WithReview(reviewID string) *Logger {
	return &Logger{l.Logger.With("review_id", reviewID)}
}
