package app

import (
	"context"
	stderrors "errors"
	"os"

	"agatypes/internal/core/watcher"
	"agatypes/internal/engine/types"
	"agatypes/internal/shared/observability"
)

// StartWatcher refreshes saved files under paths, or under the configured
// watch paths when none are given.
func (a *App) StartWatcher(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		paths = a.Config.Watch.Paths
	}
	w, err := watcher.NewWatcher(watcher.Options{
		Debounce:     a.Config.Watch.Debounce,
		Extensions:   a.Config.Watch.Extensions,
		ExcludeDirs:  a.Config.Watch.ExcludeDirs,
		ExcludeFiles: a.Config.Watch.ExcludeFiles,
	}, func(changed []string) {
		a.HandleChanges(ctx, changed)
	})
	if err != nil {
		return err
	}
	a.activeWatcher = w
	a.logger.Info("watching", "paths", paths)
	return w.Watch(paths)
}

// HandleChanges refreshes each changed file, waiting on that file's limiter
// first. Files that no longer exist are closed.
func (a *App) HandleChanges(ctx context.Context, paths []string) {
	svc := &typeService{app: a}
	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		if _, err := os.Stat(path); stderrors.Is(err, os.ErrNotExist) {
			a.limiters.Forget(path)
			if err := svc.Close(ctx, path); err != nil {
				a.logger.Warn("close removed document", "path", path, "error", err)
			}
			a.emit(Update{Path: path, Removed: true})
			continue
		}

		limiter := a.limiters.Get(path)
		if !limiter.Allow(1) {
			observability.WatchRefreshThrottledTotal.Inc()
			if err := limiter.Wait(ctx, 1); err != nil {
				return
			}
		}
		a.emit(a.refreshForWatch(ctx, svc, path))
	}
}

func (a *App) refreshForWatch(ctx context.Context, svc *typeService, path string) Update {
	doc := a.savedDocument(path)
	u := Update{Path: path}

	refreshed, err := svc.Refresh(ctx, doc)
	if err != nil {
		var diag *types.Diagnostic
		if stderrors.As(err, &diag) {
			u.Diagnostic = diag
			a.logger.Info("document has errors", "path", path, "error", diag.Error())
			return u
		}
		a.logger.Warn("refresh failed", "path", path, "error", err)
		return u
	}
	u.Refreshed = refreshed

	hints, err := svc.InlineHints(ctx, doc)
	if err != nil {
		a.logger.Warn("inline hints failed", "path", path, "error", err)
		return u
	}
	set, _ := a.Index.Read(ctx, doc)
	u.Tokens = len(set)
	u.Hints = len(hints)
	a.logger.Info("document refreshed", "path", path, "refreshed", refreshed, "tokens", u.Tokens, "hints", u.Hints)
	return u
}
