package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	coreapp "agatypes/internal/core/app"
	"agatypes/internal/core/errors"
	"agatypes/internal/engine/tokens"
	"agatypes/internal/engine/types"
)

func (rt *runtime) dispatch(ctx context.Context) error {
	args := rt.opts.args
	switch rt.opts.command {
	case "tokens":
		return rt.runTokens(ctx, args[0])
	case "type":
		return rt.withPosition(args, func(doc tokens.Document, pos types.Position) error {
			return rt.runType(ctx, doc, pos)
		})
	case "hover":
		return rt.withPosition(args, func(doc tokens.Document, pos types.Position) error {
			return rt.runHover(ctx, doc, pos)
		})
	case "definition":
		return rt.withPosition(args, func(doc tokens.Document, pos types.Position) error {
			return rt.runDefinition(ctx, doc, pos)
		})
	case "hints":
		return rt.runHints(ctx, rt.app.DiskDocument(args[0]))
	case "rename":
		return rt.withPosition(args[:3], func(doc tokens.Document, pos types.Position) error {
			return rt.runRename(ctx, doc, pos, args[3])
		})
	case "complete":
		return rt.runComplete(ctx, rt.app.DiskDocument(args[0]))
	case "semantic":
		return rt.runSemantic(ctx, rt.app.DiskDocument(args[0]))
	case "watch":
		return rt.runWatch(ctx, args)
	case "inspect":
		return rt.runInspect(ctx, rt.app.DiskDocument(args[0]))
	}
	return fmt.Errorf("unknown command %q", rt.opts.command)
}

func (rt *runtime) withPosition(args []string, fn func(tokens.Document, types.Position) error) error {
	pos, err := parsePosition(args[1], args[2])
	if err != nil {
		return err
	}
	return fn(rt.app.DiskDocument(args[0]), pos)
}

// reportError prints located backend failures as "file:line:col: message"
// with 1-based coordinates, and anything else as is.
func reportError(w io.Writer, err error) {
	var diag *types.Diagnostic
	if stderrors.As(err, &diag) {
		fmt.Fprintf(w, "%s:%d:%d: %s\n", diag.File, diag.Line+1, diag.Column+1, diag.Message)
		return
	}
	fmt.Fprintln(w, err.Error())
}

func (rt *runtime) runTokens(ctx context.Context, path string) error {
	set, err := rt.app.Index.Read(ctx, rt.app.DiskDocument(path))
	if err != nil {
		return err
	}
	mod := json.RawMessage("null")
	if m, ok := rt.app.Index.Module(path); ok {
		if raw, err := types.EncodeDataType(m); err == nil {
			mod = raw
		}
	}
	out, err := json.MarshalIndent(struct {
		File []types.SemanticToken `json:"file"`
		Mod  json.RawMessage       `json:"mod"`
	}{File: set, Mod: mod}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(rt.stdout, string(out))
	return nil
}

func (rt *runtime) runType(ctx context.Context, doc tokens.Document, pos types.Position) error {
	rendered, ok, err := rt.svc.TypeAt(ctx, doc, pos, rt.opts.maxLength)
	if err != nil {
		return err
	}
	if !ok {
		return errors.AddContext(errors.New(errors.CodeNotFound, "no symbol at position"), errors.CtxPosition, pos.String())
	}
	fmt.Fprintln(rt.stdout, rendered)
	return nil
}

func (rt *runtime) runHover(ctx context.Context, doc tokens.Document, pos types.Position) error {
	if md, ok := rt.svc.LiteralHover(ctx, doc, pos); ok {
		fmt.Fprint(rt.stdout, md)
		return nil
	}
	md, err := rt.svc.Hover(ctx, doc, pos)
	if err != nil {
		return err
	}
	fmt.Fprint(rt.stdout, md)
	return nil
}

func (rt *runtime) runDefinition(ctx context.Context, doc tokens.Document, pos types.Position) error {
	def, ok, err := rt.svc.Definition(ctx, doc, pos)
	if err != nil {
		return err
	}
	if !ok {
		return errors.AddContext(errors.New(errors.CodeNotFound, "no symbol at position"), errors.CtxPosition, pos.String())
	}
	fmt.Fprintf(rt.stdout, "%s:%s\n", doc.Path, def)
	return nil
}

func (rt *runtime) runHints(ctx context.Context, doc tokens.Document) error {
	hints, err := rt.svc.InlineHints(ctx, doc)
	if err != nil {
		return err
	}
	for _, h := range hints {
		fmt.Fprintf(rt.stdout, "%s\t%s\n", h.Location.End, h.Label)
	}
	return nil
}

func (rt *runtime) runRename(ctx context.Context, doc tokens.Document, pos types.Position, name string) error {
	if _, err := rt.svc.PrepareRename(ctx, doc, pos); err != nil {
		return err
	}
	edits, err := rt.svc.RenameEdits(ctx, doc, pos, name)
	if err != nil {
		return err
	}
	for _, e := range edits {
		fmt.Fprintf(rt.stdout, "%s\t%s\n", e.Location, e.NewText)
	}
	return nil
}

func (rt *runtime) runComplete(ctx context.Context, doc tokens.Document) error {
	items, err := rt.svc.Completions(ctx, doc)
	if err != nil {
		return err
	}
	for _, item := range items {
		fmt.Fprintf(rt.stdout, "%s\t%s\n", item.Label, item.Detail)
	}
	return nil
}

func (rt *runtime) runSemantic(ctx context.Context, doc tokens.Document) error {
	res, err := rt.svc.SemanticTokens(ctx, doc)
	if err != nil {
		return err
	}
	for _, tok := range res.Tokens {
		fmt.Fprintf(rt.stdout, "%s\t%s\t%s\n", tok.Location, tok.Type, strings.Join(tok.Modifiers, ","))
	}
	if res.Diagnostic != nil {
		reportError(rt.stderr, res.Diagnostic)
		return fmt.Errorf("%s has errors", doc.Path)
	}
	return nil
}

func (rt *runtime) runWatch(ctx context.Context, paths []string) error {
	rt.app.SetUpdateCallback(func(u coreapp.Update) {
		switch {
		case u.Removed:
			fmt.Fprintf(rt.stdout, "%s: closed\n", u.Path)
		case u.Diagnostic != nil:
			reportError(rt.stdout, u.Diagnostic)
		default:
			fmt.Fprintf(rt.stdout, "%s: %d tokens, %d hints\n", u.Path, u.Tokens, u.Hints)
		}
	})
	stopConfig := rt.watchConfig(ctx)
	defer stopConfig()

	if err := rt.app.StartWatcher(ctx, paths); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}
