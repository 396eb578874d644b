// Package log wraps slog with the component convention used across the
// ledger's services and binaries.
package log

import (
	"log/slog"
	"os"
)

// Logger is a slog.Logger that stamps every record with its component. The
// stamp lives on the embedded logger, so it survives SetDefault and the
// bare slog calls made through the process default.
type Logger struct {
	*slog.Logger
	handler   slog.Handler
	component string
}

// Config holds logger configuration.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

// New creates a logger. A nil Handler gets a text handler on stdout at the
// configured level.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level})
	}
	return &Logger{
		Logger:    slog.New(handler).With(FieldComponent, config.Component),
		handler:   handler,
		component: config.Component,
	}
}

// WithComponent returns a logger stamped with a different component name.
// It rebuilds from the handler so records carry exactly one component attr.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    slog.New(l.handler).With(FieldComponent, component),
		handler:   l.handler,
		component: component,
	}
}

// Component returns the component the logger stamps on its records.
func (l *Logger) Component() string { return l.component }

// SetDefault installs the logger as the process default, so the services'
// slog calls flow through it, component stamp included.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
