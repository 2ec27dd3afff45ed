package cli

import (
	"context"
	stderrors "errors"

	coreapp "agatypes/internal/core/app"
	"agatypes/internal/core/ports"
	"agatypes/internal/engine/tokens"
	"agatypes/internal/engine/types"

	tea "github.com/charmbracelet/bubbletea"
)

// sessionInspector feeds the inspector from a live session.
type sessionInspector struct {
	ctx context.Context
	app *coreapp.App
	svc ports.TypeService
	doc tokens.Document
}

func (s sessionInspector) Load() updateMsg {
	set, err := s.app.Index.Read(s.ctx, s.doc)
	if err != nil {
		var diag *types.Diagnostic
		if stderrors.As(err, &diag) {
			return updateMsg{diagnostic: diag}
		}
		return updateMsg{err: err}
	}
	maxLength := s.app.Config.Types.MaxLength
	items := make([]tokenItem, 0, len(set))
	for _, tok := range set {
		rendered, _, err := s.svc.TypeAt(s.ctx, s.doc, tok.Location.Start, maxLength)
		if err != nil {
			return updateMsg{err: err}
		}
		items = append(items, tokenItem{
			label:    s.app.TextAt(s.doc, tok.Location),
			kind:     tok.Kind,
			location: tok.Location,
			rendered: rendered,
		})
	}
	return updateMsg{items: items}
}

func (s sessionInspector) Hover(pos types.Position) string {
	md, err := s.svc.Hover(s.ctx, s.doc, pos)
	if err != nil {
		return err.Error()
	}
	return md
}

func (rt *runtime) runInspect(ctx context.Context, doc tokens.Document) error {
	stopConfig := rt.watchConfig(ctx)
	defer stopConfig()

	source := sessionInspector{ctx: ctx, app: rt.app, svc: rt.svc, doc: doc}
	p := tea.NewProgram(initialModel(doc.Path, source), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if stderrors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
