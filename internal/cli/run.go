// Package cli drives the interactive terminal session: a wall-clock
// ticker pumps the engine while stdin lines become reactions and slash
// commands. Hot catalog reload rides on the same session in watch mode.
package cli

import (
	"context"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	CatalogPath string
	Character   string
	FPS         int
	Watch       bool
	Debug       bool
}

// Execute handles the 'run' command logic.
func Execute(opts RunOptions) error {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Character == "" {
		opts.Character = "default"
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	return RunSession(sigCtx, opts)
}
