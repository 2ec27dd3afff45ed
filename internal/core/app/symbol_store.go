package app

import (
	"context"

	"agatypes/internal/data/symbols"
	"agatypes/internal/engine/tokens"
)

// syncSymbols mirrors a refreshed token set into the symbol table. It runs
// from the index's refresh hook.
func (a *App) syncSymbols(ctx context.Context, doc tokens.Document, set tokens.Set) {
	if a.Symbols == nil {
		return
	}
	src := newText(a.textOf(doc))
	occurrences := make([]symbols.Occurrence, 0, len(set))
	for _, tok := range set {
		occurrences = append(occurrences, symbols.Occurrence{
			File:       doc.Path,
			Definition: tok.Definition,
			Location:   tok.Location,
			Kind:       tok.Kind,
			Label:      src.slice(tok.Location),
		})
	}
	if err := a.Symbols.ReplaceFile(ctx, doc.Path, occurrences); err != nil {
		a.logger.Warn("symbol table sync failed", "path", doc.Path, "error", err)
		return
	}
	a.logger.Debug("symbol table synced", "path", doc.Path, "occurrences", len(occurrences))
}

func (a *App) deleteSymbols(ctx context.Context, path string) error {
	if a.Symbols == nil {
		return nil
	}
	return a.Symbols.DeleteFile(ctx, path)
}
