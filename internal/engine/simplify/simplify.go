// Package simplify canonicalizes resolved type trees.
package simplify

import "agatypes/internal/engine/types"

// Simplify returns a new tree in which unions are deduplicated and collapsed.
// Unions drop unknown alternatives and structurally equal repeats, keeping
// first-seen order; an empty union becomes nil and a union of one becomes its
// only member. The input is never modified.
//
// Simplify does not follow identifiers; run the resolver first.
func Simplify(dt types.DataType) types.DataType {
	if types.IsNil(dt) {
		return nil
	}
	switch v := dt.(type) {
	case *types.Union:
		return simplifyUnion(v)
	case *types.Reference:
		return &types.Reference{Inner: Simplify(v.Inner)}
	case *types.List:
		return &types.List{Inner: Simplify(v.Inner)}
	case *types.Iterable:
		return &types.Iterable{Inner: Simplify(v.Inner)}
	case *types.Instance:
		return &types.Instance{Name: v.Name, Properties: simplifyProps(v.Properties)}
	case *types.Class:
		return &types.Class{
			Name:               v.Name,
			StaticProperties:   simplifyProps(v.StaticProperties),
			InstanceProperties: simplifyProps(v.InstanceProperties),
		}
	case *types.Return:
		return &types.Return{Value: Simplify(v.Value)}
	case *types.ConstructorValue:
		return &types.ConstructorValue{Value: Simplify(v.Value)}
	case *types.Element:
		return &types.Element{Value: Simplify(v.Value)}
	case *types.Function:
		return &types.Function{Parameters: simplifyAll(v.Parameters), ReturnType: Simplify(v.ReturnType)}
	case *types.ConstructorFunction:
		return &types.ConstructorFunction{Parameters: simplifyAll(v.Parameters), ReturnType: Simplify(v.ReturnType)}
	case *types.Primitive, *types.String, *types.Identifier, *types.Params, *types.Param,
		*types.Promise, *types.Member, *types.Call, *types.Module, *types.Opaque:
		return dt
	}
	return dt
}

func simplifyUnion(u *types.Union) types.DataType {
	seen := make(map[string]bool, len(u.Alternatives))
	unique := make([]types.DataType, 0, len(u.Alternatives))
	for _, alt := range u.Alternatives {
		s := Simplify(alt)
		if types.IsNil(s) {
			continue
		}
		key := types.Canonical(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, s)
	}

	switch len(unique) {
	case 0:
		return nil
	case 1:
		return unique[0]
	}
	return &types.Union{Alternatives: unique}
}

// simplifyAll keeps unknown entries: parameter positions are significant.
func simplifyAll(list []types.DataType) []types.DataType {
	out := make([]types.DataType, len(list))
	for i, dt := range list {
		out[i] = Simplify(dt)
	}
	return out
}

func simplifyProps(props map[string]types.DataType) map[string]types.DataType {
	out := make(map[string]types.DataType, len(props))
	for name, dt := range props {
		out[name] = Simplify(dt)
	}
	return out
}
