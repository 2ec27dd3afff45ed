package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"agatypes/internal/core/errors"
	"agatypes/internal/core/ports"
	"agatypes/internal/engine/printer"
	"agatypes/internal/engine/resolver"
	"agatypes/internal/engine/simplify"
	"agatypes/internal/engine/tokens"
	"agatypes/internal/engine/types"
	"agatypes/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type typeService struct {
	app *App
}

var _ ports.TypeService = (*typeService)(nil)

func NewTypeService(app *App) ports.TypeService {
	return &typeService{app: app}
}

func (a *App) TypeService() ports.TypeService {
	return NewTypeService(a)
}

func (s *typeService) Unwrap() *App {
	return s.app
}

func (s *typeService) start(ctx context.Context, op, path string) (context.Context, func()) {
	began := time.Now()
	ctx, span := observability.Tracer.Start(ctx, "typeService."+op, trace.WithAttributes(
		attribute.String("path", path),
	))
	return ctx, func() {
		observability.SessionDuration.WithLabelValues(op).Observe(time.Since(began).Seconds())
		span.End()
	}
}

// typeOf runs a token's type through the resolve and simplify stages.
func (s *typeService) typeOf(set tokens.Set, dt types.DataType) types.DataType {
	return simplify.Simplify(resolver.New(set, s.app.maxDepth).Resolve(dt))
}

func (s *typeService) Open(ctx context.Context, doc tokens.Document) error {
	if doc.Content != nil {
		if content := doc.Content(); content != nil {
			s.app.cacheContent(doc.Path, content)
		}
	}
	_, err := s.Refresh(ctx, doc)
	return err
}

// Refresh reads doc and reports whether the backend was consulted and
// succeeded, so callers know when to redraw.
func (s *typeService) Refresh(ctx context.Context, doc tokens.Document) (bool, error) {
	ctx, end := s.start(ctx, "refresh", doc.Path)
	defer end()

	return s.app.Index.Refresh(ctx, doc)
}

func (s *typeService) Close(ctx context.Context, path string) error {
	s.app.Index.Clear(path)
	s.app.dropContent(path)
	if err := s.app.deleteSymbols(ctx, path); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "drop symbols"), errors.CtxPath, path)
	}
	s.app.logger.Debug("document closed", "path", path)
	return nil
}

func (s *typeService) Hover(ctx context.Context, doc tokens.Document, pos types.Position) (string, error) {
	ctx, end := s.start(ctx, "hover", doc.Path)
	defer end()

	set, err := s.app.Index.Read(ctx, doc)
	if err != nil {
		return "", err
	}

	var md strings.Builder
	if word, ok := identifierAt(newText(s.app.textOf(doc)), pos); ok {
		md.WriteString(codeBlock(word))
	}
	md.WriteString("### Tipo de dato\n")

	var dt types.DataType
	if tok, ok := set.FindAt(pos); ok {
		dt = s.typeOf(set, tok.DataType)
	}
	if types.IsNil(dt) {
		md.WriteString("null\n")
	} else {
		md.WriteString(codeBlock(printer.Render(dt, printer.DefaultOptions())))
	}
	md.WriteString("### Tipo de dato crudo\n")
	md.WriteString(codeBlock(types.Canonical(dt)))
	return md.String(), nil
}

func (s *typeService) TypeAt(ctx context.Context, doc tokens.Document, pos types.Position, maxLength int) (string, bool, error) {
	ctx, end := s.start(ctx, "type_at", doc.Path)
	defer end()

	set, err := s.app.Index.Read(ctx, doc)
	if err != nil {
		return "", false, err
	}
	tok, ok := set.FindAt(pos)
	if !ok {
		return "", false, nil
	}
	opts := s.app.hintOpts()
	opts.MaxLength = maxLength
	return printer.Render(s.typeOf(set, tok.DataType), opts), true, nil
}

// InlineHints annotates each declaration site. Original declarations only
// get a hint when they are functions, and then it shows the return type.
func (s *typeService) InlineHints(ctx context.Context, doc tokens.Document) ([]ports.Hint, error) {
	ctx, end := s.start(ctx, "inline_hints", doc.Path)
	defer end()

	set, err := s.app.Index.Read(ctx, doc)
	if err != nil {
		return nil, err
	}
	opts := s.app.hintOpts()
	opts.MultilineStrings = false

	hints := make([]ports.Hint, 0, len(set))
	for _, tok := range set {
		if tok.Location.Start.Column == 0 || tok.Definition != tok.Location.Start {
			continue
		}
		if tok.IsOriginalDeclaration && tok.Kind != types.TokenFunction {
			continue
		}
		dt := s.typeOf(set, tok.DataType)
		label := ": " + printer.Render(dt, opts)
		if tok.IsOriginalDeclaration {
			if ret, ok := returnType(dt); ok {
				label = " " + printer.Render(ret, opts) + " "
			}
		}
		hints = append(hints, ports.Hint{Location: tok.Location, Label: label})
	}
	return hints, nil
}

func returnType(dt types.DataType) (types.DataType, bool) {
	if types.IsNil(dt) {
		return nil, false
	}
	switch v := dt.(type) {
	case *types.Function:
		return v.ReturnType, true
	case *types.ConstructorFunction:
		return v.ReturnType, true
	}
	return nil, false
}

func (s *typeService) Definition(ctx context.Context, doc tokens.Document, pos types.Position) (types.Position, bool, error) {
	ctx, end := s.start(ctx, "definition", doc.Path)
	defer end()

	tok, ok, err := s.app.Index.FindAt(ctx, doc, pos)
	if err != nil || !ok {
		return types.Position{}, false, err
	}
	return tok.Definition, true, nil
}

func (s *typeService) PrepareRename(ctx context.Context, doc tokens.Document, pos types.Position) (types.Location, error) {
	ctx, end := s.start(ctx, "prepare_rename", doc.Path)
	defer end()

	tok, ok, err := s.app.Index.FindAt(ctx, doc, pos)
	if err != nil {
		return types.Location{}, err
	}
	if !ok {
		err := errors.New(errors.CodeNotFound, "cannot rename here")
		err = errors.AddContext(err, errors.CtxPath, doc.Path)
		return types.Location{}, errors.AddContext(err, errors.CtxPosition, pos.String())
	}
	return tok.Location, nil
}

// RenameEdits replaces every occurrence bound to the same definition as the
// symbol at pos.
func (s *typeService) RenameEdits(ctx context.Context, doc tokens.Document, pos types.Position, newName string) ([]ports.TextEdit, error) {
	ctx, end := s.start(ctx, "rename", doc.Path)
	defer end()

	if strings.TrimSpace(newName) == "" {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "new name must not be empty"), errors.CtxPath, doc.Path)
	}
	tok, ok, err := s.app.Index.FindAt(ctx, doc, pos)
	if err != nil || !ok {
		return nil, err
	}
	refs, err := s.app.Symbols.References(ctx, doc.Path, tok.Definition)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "query references"), errors.CtxPath, doc.Path)
	}
	edits := make([]ports.TextEdit, 0, len(refs))
	for _, ref := range refs {
		edits = append(edits, ports.TextEdit{Location: ref.Location, NewText: newName})
	}
	return edits, nil
}

// Completions offers each distinct label of the document once, in token
// order.
func (s *typeService) Completions(ctx context.Context, doc tokens.Document) ([]ports.CompletionItem, error) {
	ctx, end := s.start(ctx, "completions", doc.Path)
	defer end()

	if _, err := s.app.Index.Read(ctx, doc); err != nil {
		return nil, err
	}
	firsts, err := s.app.Symbols.FirstOccurrences(ctx, doc.Path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "query labels"), errors.CtxPath, doc.Path)
	}
	items := make([]ports.CompletionItem, 0, len(firsts))
	for _, occ := range firsts {
		items = append(items, ports.CompletionItem{
			Label:  occ.Label,
			Kind:   occ.Kind,
			Detail: string(occ.Kind),
		})
	}
	return items, nil
}

var legendTypes = map[types.TokenKind]string{
	types.TokenClass:          "class",
	types.TokenFunction:       "function",
	types.TokenVariable:       "variable",
	types.TokenParameter:      "parameter",
	types.TokenModule:         "namespace",
	types.TokenKeywordControl: "control",
}

var legendModifiers = map[types.TokenModifier]string{
	types.ModifierConstant: "readonly",
	types.ModifierIterable: "iterable",
}

// SemanticTokens maps the document's tokens onto the editor legend. A
// located backend failure is returned in the result rather than as an error.
func (s *typeService) SemanticTokens(ctx context.Context, doc tokens.Document) (ports.SemanticTokensResult, error) {
	ctx, end := s.start(ctx, "semantic_tokens", doc.Path)
	defer end()

	set, err := s.app.Index.Read(ctx, doc)
	if err != nil {
		var diag *types.Diagnostic
		if stderrors.As(err, &diag) {
			return ports.SemanticTokensResult{Tokens: []ports.LegendToken{}, Diagnostic: diag}, nil
		}
		return ports.SemanticTokensResult{}, err
	}

	out := make([]ports.LegendToken, 0, len(set))
	for _, tok := range set {
		typ, ok := legendTypes[tok.Kind]
		if !ok {
			continue
		}
		mods := make([]string, 0, len(tok.Modifiers))
		for _, m := range tok.Modifiers {
			if name, ok := legendModifiers[m]; ok {
				mods = append(mods, name)
			}
		}
		sort.Strings(mods)
		out = append(out, ports.LegendToken{Location: tok.Location, Type: typ, Modifiers: mods})
	}
	return ports.SemanticTokensResult{Tokens: out}, nil
}

func (s *typeService) LiteralHover(ctx context.Context, doc tokens.Document, pos types.Position) (string, bool) {
	_, end := s.start(ctx, "literal_hover", doc.Path)
	defer end()
	return literalHover(newText(s.app.textOf(doc)), pos)
}

func (s *typeService) Module(path string) (*types.Class, bool) {
	return s.app.Index.Module(path)
}

func codeBlock(code string) string {
	return fmt.Sprintf("```%s\n%s\n```\n", fenceLanguage, code)
}

const fenceLanguage = "aga"
