package gamebryo

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ListOptions configure ListSaves.
type ListOptions struct {
	Options
	// Concurrency bounds the number of headers read at once. Zero uses
	// GOMAXPROCS.
	Concurrency int
}

// ListSaves opens every save in dir with the layout's extension and
// returns them newest first. Files that fail to decode are logged and
// skipped.
func ListSaves(ctx context.Context, dir string, layout *Layout, opts ListOptions) ([]*SaveGame, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read saves directory: %w", err)
	}

	suffix := "." + strings.ToLower(layout.SaveExtension)
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	logger.Debug("found saves", "dir", dir, "count", len(paths))

	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var (
		mu    sync.Mutex
		saves = make([]*SaveGame, 0, len(paths))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			save, err := Open(path, layout, opts.Options)
			if err != nil {
				logger.Warn("skipping unreadable save", "file", path, "error", err)
				return nil
			}
			mu.Lock()
			saves = append(saves, save)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(saves, func(a, b *SaveGame) int {
		if c := b.CreationTime().Compare(a.CreationTime()); c != 0 {
			return c
		}
		return strings.Compare(a.Path(), b.Path())
	})
	return saves, nil
}
