// Package resolver replaces identifier types with the types of the symbols
// they point at.
package resolver

import (
	"log/slog"

	"agatypes/internal/engine/types"
	"agatypes/internal/shared/observability"
)

// DefaultMaxDepth caps how many identifier hops one chain may take.
const DefaultMaxDepth = 64

// TokenFinder answers point lookups against a document's tokens.
type TokenFinder interface {
	FindAt(pos types.Position) (types.SemanticToken, bool)
}

type Resolver struct {
	finder   TokenFinder
	maxDepth int
}

func New(finder TokenFinder, maxDepth int) *Resolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Resolver{finder: finder, maxDepth: maxDepth}
}

// Resolve returns a copy of dt with every reachable identifier replaced by the
// declared type of the token at its location. Identifiers with no token, no
// type, or that lead back to themselves resolve to nil. The input is never
// modified.
//
// Instances, classes, modules, members, calls, params, primitives and strings
// are returned as they are.
func Resolve(finder TokenFinder, dt types.DataType) types.DataType {
	return New(finder, DefaultMaxDepth).Resolve(dt)
}

func (r *Resolver) Resolve(dt types.DataType) types.DataType {
	w := walk{r: r, visiting: make(map[types.Location]bool)}
	return w.resolve(dt)
}

// walk holds the identifiers on the current chain. Entries are removed on the
// way back up so sibling branches may visit the same identifier.
type walk struct {
	r        *Resolver
	visiting map[types.Location]bool
	depth    int
}

func (w *walk) resolve(dt types.DataType) types.DataType {
	if types.IsNil(dt) {
		return nil
	}
	switch v := dt.(type) {
	case *types.Reference:
		return &types.Reference{Inner: w.resolve(v.Inner)}
	case *types.List:
		return &types.List{Inner: w.resolve(v.Inner)}
	case *types.Iterable:
		return &types.Iterable{Inner: w.resolve(v.Inner)}
	case *types.Return:
		return &types.Return{Value: w.resolve(v.Value)}
	case *types.ConstructorValue:
		return &types.ConstructorValue{Value: w.resolve(v.Value)}
	case *types.Element:
		return &types.Element{Value: w.resolve(v.Value)}
	case *types.Promise:
		return &types.Promise{Value: w.resolve(v.Value)}
	case *types.Function:
		return &types.Function{Parameters: w.resolveAll(v.Parameters), ReturnType: w.resolve(v.ReturnType)}
	case *types.ConstructorFunction:
		return &types.ConstructorFunction{Parameters: w.resolveAll(v.Parameters), ReturnType: w.resolve(v.ReturnType)}
	case *types.Union:
		return &types.Union{Alternatives: w.resolveAll(v.Alternatives)}
	case *types.Identifier:
		return w.follow(v)
	case *types.Instance, *types.Class, *types.Module, *types.Param, *types.Params,
		*types.Member, *types.Call, *types.Primitive, *types.String, *types.Opaque:
		return dt
	}
	return dt
}

func (w *walk) resolveAll(list []types.DataType) []types.DataType {
	out := make([]types.DataType, len(list))
	for i, dt := range list {
		out[i] = w.resolve(dt)
	}
	return out
}

func (w *walk) follow(id *types.Identifier) types.DataType {
	if w.visiting[id.Location] || w.depth >= w.r.maxDepth {
		observability.ResolutionCyclesTotal.Inc()
		slog.Debug("identifier resolution cut short", "location", id.Location.String(), "depth", w.depth)
		return nil
	}
	tok, ok := w.r.finder.FindAt(id.Location.Start)
	if !ok || types.IsNil(tok.DataType) {
		return nil
	}

	w.visiting[id.Location] = true
	w.depth++
	resolved := w.resolve(tok.DataType)
	w.depth--
	delete(w.visiting, id.Location)
	return resolved
}
