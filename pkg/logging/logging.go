// Package logging builds the structured logger every host component
// shares, matching the JSON-handler convention the rest of the
// codebase's command entry points use.
package logging

import (
	"log/slog"
	"os"
)

// Options configures New.
type Options struct {
	// Level is the minimum level emitted. Defaults to slog.LevelInfo.
	Level slog.Level
	// JSON selects the JSON handler (production) over the text handler
	// (local development). The zero value selects the text handler;
	// Default sets it to true.
	JSON bool
}

// New builds a *slog.Logger writing to stdout per Options.
func New(opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
}

// Default returns the production-shaped logger: JSON, info level.
func Default() *slog.Logger {
	return New(Options{Level: slog.LevelInfo, JSON: true})
}
