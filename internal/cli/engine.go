package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	avatar "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/adapters/loam"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/adapters/memory"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/ports"
)

// DefaultIdleGroup is the motion group the CLI idles characters on when
// the catalog defines it.
const DefaultIdleGroup = "idle"

// ResolveSource picks a catalog source for path. Empty means the built-in
// catalog, a .yaml/.yml/.json file loads once, a directory opens a Loam
// document repository.
func ResolveSource(path string) (ports.CatalogSource, error) {
	if path == "" {
		return memory.NewSource(catalog.Default()), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("catalog path: %w", err)
	}
	if info.IsDir() {
		return loam.Open(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		cat, err := catalog.LoadFile(path)
		if err != nil {
			return nil, err
		}
		return memory.NewSource(cat), nil
	}
	return nil, fmt.Errorf("catalog path %s: want a directory or a .yaml/.json file", path)
}

// createEngine initializes an engine with standard CLI conventions.
func createEngine(ctx context.Context, opts RunOptions, logger *slog.Logger) (*avatar.Engine, ports.CatalogSource, error) {
	src, err := ResolveSource(opts.CatalogPath)
	if err != nil {
		return nil, nil, err
	}

	cat, err := src.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}

	engineOpts := []avatar.Option{
		avatar.WithName(opts.Character),
		avatar.WithLogger(logger),
		avatar.WithCatalog(cat),
		avatar.WithCatalogSource(src),
	}

	// Smart convention: idle the character on the standard group when the
	// catalog defines it. Catalogs without one start still.
	if _, ok := cat.Motion(DefaultIdleGroup); ok {
		engineOpts = append(engineOpts, avatar.WithIdleMotion(DefaultIdleGroup))
	}

	return avatar.New(engineOpts...), src, nil
}
