package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"agatypes/internal/core/config"
	"agatypes/internal/core/errors"
	"agatypes/internal/core/ports"
	"agatypes/internal/engine/tokens"
	"agatypes/internal/engine/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu     sync.Mutex
	result types.FileTokens
	err    error
	calls  int
}

func (f *fakeBackend) Tokens(ctx context.Context, path string) (types.FileTokens, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result, f.err
}

func (f *fakeBackend) set(result types.FileTokens, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result, f.err = result, err
}

func (f *fakeBackend) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func loc(l1, c1, l2, c2 int) types.Location {
	return types.Location{Start: types.Position{Line: l1, Column: c1}, End: types.Position{Line: l2, Column: c2}}
}

func pos(l, c int) types.Position {
	return types.Position{Line: l, Column: c}
}

const sampleSource = "def x = 5\ndef y = x\nfn suma(a) { ret a }\n"

// sampleTokens covers sampleSource: x is declared on line 0, y takes x's
// type through an identifier, and suma is an original function declaration.
func sampleTokens() types.FileTokens {
	xDecl := loc(0, 4, 0, 5)
	return types.FileTokens{
		Tokens: []types.SemanticToken{
			{
				Definition: pos(2, 3),
				Location:   loc(2, 3, 2, 7),
				Kind:       types.TokenFunction,
				DataType: &types.Function{
					Parameters: []types.DataType{&types.Primitive{Name: types.Number}},
					ReturnType: &types.Primitive{Name: types.Boolean},
				},
				IsOriginalDeclaration: true,
			},
			{
				Definition: pos(0, 4),
				Location:   loc(1, 8, 1, 9),
				Kind:       types.TokenVariable,
				DataType:   &types.Identifier{Location: xDecl},
			},
			{
				Definition: pos(0, 4),
				Location:   xDecl,
				Kind:       types.TokenVariable,
				Modifiers:  []types.TokenModifier{types.ModifierConstant},
				DataType:   &types.Primitive{Name: types.Number},
			},
			{
				Definition: pos(1, 4),
				Location:   loc(1, 4, 1, 5),
				Kind:       types.TokenVariable,
				DataType:   &types.Identifier{Location: xDecl},
			},
		},
		Module: &types.Class{Name: "main"},
	}
}

func newTestApp(t *testing.T, fb *fakeBackend) *App {
	t.Helper()
	a, err := New(config.DefaultConfig(), fb)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func memDoc(path string, version int, src string) tokens.Document {
	return tokens.Document{Path: path, Version: version, Content: func() []byte { return []byte(src) }}
}

func TestHover(t *testing.T) {
	fb := &fakeBackend{result: sampleTokens()}
	svc := newTestApp(t, fb).TypeService()
	ctx := context.Background()
	doc := memDoc("main.aga", 1, sampleSource)

	md, err := svc.Hover(ctx, doc, pos(1, 4))
	require.NoError(t, err)
	raw := types.Canonical(&types.Primitive{Name: types.Number})
	assert.Equal(t, "```aga\ny\n```\n### Tipo de dato\n```aga\nNumero\n```\n### Tipo de dato crudo\n```aga\n"+raw+"\n```\n", md)

	md, err = svc.Hover(ctx, doc, pos(0, 0))
	require.NoError(t, err)
	assert.Equal(t, "```aga\ndef\n```\n### Tipo de dato\nnull\n### Tipo de dato crudo\n```aga\nnull\n```\n", md)
}

func TestTypeAt(t *testing.T) {
	fb := &fakeBackend{result: sampleTokens()}
	svc := newTestApp(t, fb).TypeService()
	doc := memDoc("main.aga", 1, sampleSource)

	got, ok, err := svc.TypeAt(context.Background(), doc, pos(2, 5), -1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fn (Numero){ Buleano }", got)

	_, ok, err = svc.TypeAt(context.Background(), doc, pos(0, 0), -1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInlineHints(t *testing.T) {
	fb := &fakeBackend{result: sampleTokens()}
	svc := newTestApp(t, fb).TypeService()

	hints, err := svc.InlineHints(context.Background(), memDoc("main.aga", 1, sampleSource))
	require.NoError(t, err)
	assert.Equal(t, []ports.Hint{
		{Location: loc(0, 4, 0, 5), Label: ": Numero"},
		{Location: loc(1, 4, 1, 5), Label: ": Numero"},
		{Location: loc(2, 3, 2, 7), Label: " Buleano "},
	}, hints)
}

func TestInlineHintsSkipsNonFunctionDeclarations(t *testing.T) {
	fb := &fakeBackend{result: types.FileTokens{Tokens: []types.SemanticToken{{
		Definition:            pos(0, 8),
		Location:              loc(0, 8, 0, 12),
		Kind:                  types.TokenModule,
		DataType:              &types.Module{Path: "util"},
		IsOriginalDeclaration: true,
	}}}}
	svc := newTestApp(t, fb).TypeService()

	hints, err := svc.InlineHints(context.Background(), memDoc("main.aga", 1, "importa util\n"))
	require.NoError(t, err)
	assert.Empty(t, hints)
}

func TestDefinition(t *testing.T) {
	fb := &fakeBackend{result: sampleTokens()}
	svc := newTestApp(t, fb).TypeService()
	doc := memDoc("main.aga", 1, sampleSource)

	def, ok, err := svc.Definition(context.Background(), doc, pos(1, 8))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pos(0, 4), def)
}

func TestRename(t *testing.T) {
	fb := &fakeBackend{result: sampleTokens()}
	svc := newTestApp(t, fb).TypeService()
	ctx := context.Background()
	doc := memDoc("main.aga", 1, sampleSource)

	at, err := svc.PrepareRename(ctx, doc, pos(1, 8))
	require.NoError(t, err)
	assert.Equal(t, loc(1, 8, 1, 9), at)

	_, err = svc.PrepareRename(ctx, doc, pos(0, 0))
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	edits, err := svc.RenameEdits(ctx, doc, pos(1, 8), "total")
	require.NoError(t, err)
	assert.Equal(t, []ports.TextEdit{
		{Location: loc(0, 4, 0, 5), NewText: "total"},
		{Location: loc(1, 8, 1, 9), NewText: "total"},
	}, edits)

	_, err = svc.RenameEdits(ctx, doc, pos(1, 8), " ")
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestCompletions(t *testing.T) {
	fb := &fakeBackend{result: sampleTokens()}
	svc := newTestApp(t, fb).TypeService()

	items, err := svc.Completions(context.Background(), memDoc("main.aga", 1, sampleSource))
	require.NoError(t, err)

	labels := make([]string, 0, len(items))
	for _, item := range items {
		labels = append(labels, item.Label)
	}
	assert.Equal(t, []string{"x", "y", "suma"}, labels)
	assert.Equal(t, "Function", items[2].Detail)
}

func TestSemanticTokens(t *testing.T) {
	fb := &fakeBackend{result: sampleTokens()}
	svc := newTestApp(t, fb).TypeService()

	res, err := svc.SemanticTokens(context.Background(), memDoc("main.aga", 1, sampleSource))
	require.NoError(t, err)
	assert.Nil(t, res.Diagnostic)
	require.Len(t, res.Tokens, 4)
	assert.Equal(t, ports.LegendToken{Location: loc(0, 4, 0, 5), Type: "variable", Modifiers: []string{"readonly"}}, res.Tokens[0])
	assert.Equal(t, "function", res.Tokens[3].Type)
}

func TestSemanticTokensCarryDiagnostic(t *testing.T) {
	diag := &types.Diagnostic{Message: "unexpected token", Line: 2, Column: 0, Length: 3, File: "main.aga"}
	fb := &fakeBackend{err: fmt.Errorf("tokens: %w", diag)}
	svc := newTestApp(t, fb).TypeService()

	res, err := svc.SemanticTokens(context.Background(), memDoc("main.aga", 1, sampleSource))
	require.NoError(t, err)
	assert.Empty(t, res.Tokens)
	assert.Same(t, diag, res.Diagnostic)
}

func TestCloseForgetsDocument(t *testing.T) {
	fb := &fakeBackend{result: sampleTokens()}
	a := newTestApp(t, fb)
	svc := a.TypeService()
	ctx := context.Background()
	doc := memDoc("main.aga", 1, sampleSource)

	require.NoError(t, svc.Open(ctx, doc))
	_, ok := svc.Module("main.aga")
	assert.True(t, ok)

	require.NoError(t, svc.Close(ctx, "main.aga"))
	require.NoError(t, svc.Close(ctx, "main.aga"))
	assert.Equal(t, 0, a.Index.Len())
	_, ok = svc.Module("main.aga")
	assert.False(t, ok)

	refs, err := a.Symbols.References(ctx, "main.aga", pos(0, 4))
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestRefreshReportsBackendCalls(t *testing.T) {
	fb := &fakeBackend{result: sampleTokens()}
	svc := newTestApp(t, fb).TypeService()
	ctx := context.Background()

	refreshed, err := svc.Refresh(ctx, memDoc("main.aga", 1, sampleSource))
	require.NoError(t, err)
	assert.True(t, refreshed)

	refreshed, err = svc.Refresh(ctx, memDoc("main.aga", 1, sampleSource))
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Equal(t, 1, fb.count())

	fb.set(types.FileTokens{}, fmt.Errorf("boom"))
	refreshed, err = svc.Refresh(ctx, memDoc("main.aga", 2, sampleSource+"\n"))
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Equal(t, 2, fb.count())
}

func TestApplyConfigChangesHintWidth(t *testing.T) {
	fb := &fakeBackend{result: sampleTokens()}
	a := newTestApp(t, fb)
	cfg := config.DefaultConfig()
	cfg.Types.MaxLength = 2
	a.ApplyConfig(cfg)

	hints, err := a.TypeService().InlineHints(context.Background(), memDoc("main.aga", 1, sampleSource))
	require.NoError(t, err)
	require.NotEmpty(t, hints)
	assert.Equal(t, ": ...", hints[0].Label)
}

func TestHandleChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.aga")
	require.NoError(t, os.WriteFile(path, []byte(sampleSource), 0o644))

	fb := &fakeBackend{result: sampleTokens()}
	a := newTestApp(t, fb)

	var updates []Update
	a.SetUpdateCallback(func(u Update) { updates = append(updates, u) })

	a.HandleChanges(context.Background(), []string{path})
	require.Len(t, updates, 1)
	assert.True(t, updates[0].Refreshed)
	assert.Equal(t, 4, updates[0].Tokens)
	assert.Equal(t, 3, updates[0].Hints)

	require.NoError(t, os.Remove(path))
	a.HandleChanges(context.Background(), []string{path})
	require.Len(t, updates, 2)
	assert.True(t, updates[1].Removed)
	assert.Equal(t, 0, a.Index.Len())
}

func TestHandleChangesSeesSavesToOpenDocuments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.aga")
	require.NoError(t, os.WriteFile(path, []byte(sampleSource), 0o644))

	fb := &fakeBackend{result: sampleTokens()}
	a := newTestApp(t, fb)
	ctx := context.Background()
	require.NoError(t, a.TypeService().Open(ctx, memDoc(path, 0, sampleSource)))
	require.Equal(t, 1, fb.count())

	saved := sampleSource + "\nw = 4\n"
	require.NoError(t, os.WriteFile(path, []byte(saved), 0o644))

	var updates []Update
	a.SetUpdateCallback(func(u Update) { updates = append(updates, u) })
	a.HandleChanges(ctx, []string{path})

	require.Len(t, updates, 1)
	assert.True(t, updates[0].Refreshed)
	assert.Equal(t, 2, fb.count())
	assert.Equal(t, saved, string(a.contentForPath(path)))

	a.HandleChanges(ctx, []string{path})
	require.Len(t, updates, 2)
	assert.False(t, updates[1].Refreshed)
	assert.Equal(t, 2, fb.count())
}

func TestStartWatcherRefreshesSavedFiles(t *testing.T) {
	dir := t.TempDir()
	fb := &fakeBackend{result: sampleTokens()}
	cfg := config.DefaultConfig()
	cfg.Watch.Debounce = 20 * time.Millisecond
	a, err := New(cfg, fb)
	require.NoError(t, err)
	defer a.Close(context.Background())

	done := make(chan Update, 4)
	a.SetUpdateCallback(func(u Update) { done <- u })
	require.NoError(t, a.StartWatcher(context.Background(), []string{dir}))

	path := filepath.Join(dir, "main.aga")
	require.NoError(t, os.WriteFile(path, []byte(sampleSource), 0o644))

	select {
	case u := <-done:
		assert.Equal(t, path, u.Path)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not refresh the saved file")
	}
}
