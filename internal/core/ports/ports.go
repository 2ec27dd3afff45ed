package ports

import (
	"agatypes/internal/data/symbols"
	"agatypes/internal/engine/tokens"
	"agatypes/internal/engine/types"
	"context"
)

// TokenBackend abstracts the external tokenizer/compiler. Implementations may
// block for as long as the backend runs.
type TokenBackend interface {
	Tokens(ctx context.Context, path string) (types.FileTokens, error)
}

var _ tokens.Backend = (TokenBackend)(nil)

// SymbolStore abstracts the per-session occurrence table behind rename and
// completion.
type SymbolStore interface {
	ReplaceFile(ctx context.Context, file string, occurrences []symbols.Occurrence) error
	DeleteFile(ctx context.Context, file string) error
	References(ctx context.Context, file string, definition types.Position) ([]symbols.Occurrence, error)
	FirstOccurrences(ctx context.Context, file string) ([]symbols.Occurrence, error)
	Close() error
}

// Hint is one inline type annotation placed after a token.
type Hint struct {
	Location types.Location
	Label    string
}

// TextEdit replaces the text at Location.
type TextEdit struct {
	Location types.Location
	NewText  string
}

// CompletionItem is a distinct symbol label offered at the cursor.
type CompletionItem struct {
	Label  string
	Kind   types.TokenKind
	Detail string
}

// LegendToken is a token mapped onto the editor's semantic-token legend.
type LegendToken struct {
	Location  types.Location
	Type      string
	Modifiers []string
}

// SemanticTokensResult carries the legend-mapped tokens and, when the last
// refresh failed with a located error, that diagnostic.
type SemanticTokensResult struct {
	Tokens     []LegendToken
	Diagnostic *types.Diagnostic
}

// TypeService is the consumer-facing surface over the token index and the
// resolve, simplify and render pipeline.
type TypeService interface {
	Open(ctx context.Context, doc tokens.Document) error
	Refresh(ctx context.Context, doc tokens.Document) (bool, error)
	Close(ctx context.Context, path string) error
	Hover(ctx context.Context, doc tokens.Document, pos types.Position) (string, error)
	TypeAt(ctx context.Context, doc tokens.Document, pos types.Position, maxLength int) (string, bool, error)
	InlineHints(ctx context.Context, doc tokens.Document) ([]Hint, error)
	Definition(ctx context.Context, doc tokens.Document, pos types.Position) (types.Position, bool, error)
	PrepareRename(ctx context.Context, doc tokens.Document, pos types.Position) (types.Location, error)
	RenameEdits(ctx context.Context, doc tokens.Document, pos types.Position, newName string) ([]TextEdit, error)
	Completions(ctx context.Context, doc tokens.Document) ([]CompletionItem, error)
	SemanticTokens(ctx context.Context, doc tokens.Document) (SemanticTokensResult, error)
	LiteralHover(ctx context.Context, doc tokens.Document, pos types.Position) (string, bool)
	Module(path string) (*types.Class, bool)
}
