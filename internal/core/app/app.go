package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"agatypes/internal/core/config"
	"agatypes/internal/core/ports"
	"agatypes/internal/core/watcher"
	"agatypes/internal/data/symbols"
	"agatypes/internal/engine/backend"
	"agatypes/internal/engine/printer"
	"agatypes/internal/engine/tokens"
	"agatypes/internal/engine/types"
	"agatypes/internal/shared/util"

	"github.com/google/uuid"
)

// Update reports the outcome of one watch-driven refresh.
type Update struct {
	Path       string
	Tokens     int
	Hints      int
	Refreshed  bool
	Removed    bool
	Diagnostic *types.Diagnostic
}

// App is one editing session: a token index, the symbol table fed by it, and
// the options used to render inline hints.
type App struct {
	Config  *config.Config
	Index   *tokens.Index
	Symbols ports.SymbolStore

	id       string
	logger   *slog.Logger
	maxDepth int

	optsMu sync.RWMutex
	hints  printer.Options

	fileContentMu sync.RWMutex
	fileContents  map[string][]byte

	updateMu sync.RWMutex
	onUpdate func(Update)

	limiters      *util.LimiterRegistry
	activeWatcher *watcher.Watcher
}

// New builds a session. A nil tokenBackend runs the configured executable.
func New(cfg *config.Config, tokenBackend ports.TokenBackend) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if tokenBackend == nil {
		tokenBackend = backend.NewExecBackend(cfg.Backend.ExePath, cfg.Backend.Subcommand)
	}

	id := uuid.NewString()
	store, err := symbols.Open("agatypes-" + id)
	if err != nil {
		return nil, fmt.Errorf("open symbol store: %w", err)
	}

	a := &App{
		Config:       cfg,
		Index:        tokens.NewIndex(tokenBackend, cfg.Caches.Documents),
		Symbols:      store,
		id:           id,
		logger:       slog.Default().With("session", id),
		maxDepth:     cfg.Resolver.MaxDepth,
		hints:        hintOptions(cfg.Types),
		fileContents: make(map[string][]byte),
		limiters:     util.NewLimiterRegistry(cfg.Watch.RefreshRate, cfg.Watch.RefreshBurst, time.Minute),
	}
	a.Index.OnRefresh(a.syncSymbols)
	return a, nil
}

func hintOptions(t config.Types) printer.Options {
	return printer.Options{
		MaxLength:          t.MaxLength,
		ShowStringContents: t.ShowStrings(),
		MultilineStrings:   t.MultilineString,
	}
}

// ID is the session identifier carried on every log line.
func (a *App) ID() string {
	return a.id
}

// ApplyConfig swaps the options that may change while the session runs.
func (a *App) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.optsMu.Lock()
	a.hints = hintOptions(cfg.Types)
	a.optsMu.Unlock()
	a.logger.Info("session options updated", "max_length", cfg.Types.MaxLength, "show_string", cfg.Types.ShowStrings())
}

func (a *App) hintOpts() printer.Options {
	a.optsMu.RLock()
	defer a.optsMu.RUnlock()
	return a.hints
}

func (a *App) SetUpdateCallback(fn func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = fn
}

func (a *App) emit(u Update) {
	a.updateMu.RLock()
	fn := a.onUpdate
	a.updateMu.RUnlock()
	if fn != nil {
		fn(u)
	}
}

// DiskDocument describes a file that is not open in an editor. Its text is
// the last content the session was given, else the file on disk.
func (a *App) DiskDocument(path string) tokens.Document {
	return tokens.Document{
		Path: path,
		Content: func() []byte {
			if content := a.contentForPath(path); content != nil {
				return content
			}
			data, err := os.ReadFile(path)
			if err != nil {
				a.logger.Debug("read document failed", "path", path, "error", err)
				return nil
			}
			return data
		},
	}
}

// savedDocument describes path as it is now on disk. A successful read also
// replaces the session's cached text when path is open, so a save made
// outside the editor is what later operations see.
func (a *App) savedDocument(path string) tokens.Document {
	data, err := os.ReadFile(path)
	if err != nil {
		a.logger.Debug("read saved document failed", "path", path, "error", err)
		return a.DiskDocument(path)
	}
	a.refreshContent(path, data)
	return tokens.Document{
		Path:    path,
		Content: func() []byte { return data },
	}
}

func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			a.logger.Warn("close watcher", "error", err)
		}
		a.activeWatcher = nil
	}
	a.limiters.Close()
	if a.Symbols != nil {
		return a.Symbols.Close()
	}
	return nil
}
