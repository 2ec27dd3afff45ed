// Package printer renders type trees as short, human-readable strings.
package printer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"agatypes/internal/engine/types"
)

const (
	// Unknown is printed for a nil type.
	Unknown = "Desconocido"
	// Ellipsis replaces whatever did not fit.
	Ellipsis = "..."
	// NoLimit as MaxLength disables truncation.
	NoLimit = -1
)

// Options control one Render call.
type Options struct {
	// MaxLength bounds the rendered width in runes. A negative value means
	// no bound. A result may exceed the bound by at most len(Ellipsis).
	MaxLength int
	// ShowStringContents prints known string values instead of "Cadena".
	ShowStringContents bool
	// MultilineStrings keeps newlines in string values as a quoted
	// continuation; otherwise they are escaped inline as \n.
	MultilineStrings bool
}

// DefaultOptions renders without a bound and with string contents shown.
func DefaultOptions() Options {
	return Options{MaxLength: NoLimit, ShowStringContents: true, MultilineStrings: true}
}

// Render prints dt under opts. Identifiers should be resolved first; an
// unresolved identifier prints as its "line,column" start.
func Render(dt types.DataType, opts Options) string {
	p := printer{opts: opts}
	w := width{n: opts.MaxLength}
	if opts.MaxLength < 0 {
		w = width{inf: true}
	}
	return p.render(dt, w)
}

// width is a rune budget. Subtracting may drive n negative; render clamps it.
type width struct {
	n   int
	inf bool
}

func (w width) sub(k int) width {
	if w.inf {
		return w
	}
	return width{n: w.n - k}
}

func (w width) fits(k int) bool {
	return w.inf || k <= w.n
}

type printer struct {
	opts Options
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func (p printer) render(dt types.DataType, w width) string {
	if !w.inf && w.n < 0 {
		w.n = 0
	}
	out := p.node(dt, w)
	if !w.fits(runeLen(out) - len(Ellipsis)) {
		return Ellipsis
	}
	return out
}

func (p printer) node(dt types.DataType, w width) string {
	if types.IsNil(dt) {
		return Unknown
	}
	switch v := dt.(type) {
	case *types.Primitive:
		return capitalize(string(v.Name))
	case *types.Reference:
		return "Referencia"
	case *types.String:
		return p.stringType(v, w)
	case *types.List:
		content := p.render(v.Inner, w.sub(2))
		if content == "" {
			return ""
		}
		return "[" + content + "]"
	case *types.Iterable:
		content := p.render(v.Inner, w.sub(1))
		if content == "" {
			return ""
		}
		return "@" + content
	case *types.Function:
		return p.function(v.Parameters, v.ReturnType, w)
	case *types.ConstructorFunction:
		return "clase " + p.render(v.ReturnType, w.sub(6))
	case *types.Class:
		return "clase " + v.Name
	case *types.ConstructorValue:
		return "clase " + p.render(v.Value, w.sub(6))
	case *types.Union:
		return p.fill(v.Alternatives, " | ", w)
	case *types.Instance:
		return v.Name
	case *types.Module:
		return "importa '" + v.Path + "'"
	case *types.Param:
		return fmt.Sprintf("Param_%d?", v.Index)
	case *types.Params:
		return "@Params?"
	case *types.Element:
		return "Elemento<" + p.render(v.Value, w.sub(10)) + ">"
	case *types.Promise:
		return "asinc " + p.render(v.Value, w.sub(6))
	case *types.Return:
		return "ret " + p.render(v.Value, w.sub(4))
	case *types.Member:
		return p.member(v, w)
	case *types.Identifier:
		return fmt.Sprintf("%d,%d", v.Location.Start.Line, v.Location.Start.Column)
	case *types.Call:
		callee := p.render(v.Callee, w.sub(5))
		args := p.fill(v.Args, ", ", w.sub(runeLen(callee)+2))
		return callee + "(" + args + ")"
	case *types.Opaque:
		return types.Canonical(v)
	}
	return types.Canonical(dt)
}

// fill joins items greedily. An item is taken only if it still leaves room
// for sep plus Ellipsis when more items follow; the first item that does not
// fit is replaced by Ellipsis and the rest are dropped.
func (p printer) fill(items []types.DataType, sep string, w width) string {
	var b strings.Builder
	used := 0
	for i, item := range items {
		lead := ""
		if i > 0 {
			lead = sep
		}
		reserve := 0
		if i < len(items)-1 {
			reserve = len(sep) + len(Ellipsis)
		}
		part := p.render(item, w.sub(used+len(lead)+reserve))
		if !w.fits(used + len(lead) + runeLen(part) + reserve) {
			b.WriteString(lead)
			b.WriteString(Ellipsis)
			break
		}
		b.WriteString(lead)
		b.WriteString(part)
		used += len(lead) + runeLen(part)
	}
	return b.String()
}

// function prints "fn (<params>){ <return> }"; the return type gets what the
// parameters left over.
func (p printer) function(params []types.DataType, ret types.DataType, w width) string {
	const overhead = len("fn (){  }")
	list := p.fill(params, ", ", w.sub(overhead))
	result := p.render(ret, w.sub(overhead+runeLen(list)))
	return "fn (" + list + "){ " + result + " }"
}

func (p printer) member(v *types.Member, w width) string {
	var suffix string
	if name, ok := literalKey(v.Member); ok {
		if v.IsInstanceAccess {
			suffix = "::" + name
		} else {
			suffix = "." + name
		}
	} else {
		prefix := ""
		if v.IsInstanceAccess {
			prefix = "::"
		}
		suffix = prefix + "[" + p.render(v.Member, w.sub(len(prefix)+2)) + "]"
	}

	rest := w.sub(runeLen(suffix) + 2)
	if !rest.inf && rest.n < 0 {
		rest.n = 0
	}
	object := p.render(v.Object, rest)
	if !rest.fits(runeLen(object)) {
		object = Ellipsis
	}
	return "(" + object + ")" + suffix
}

// literalKey reports whether a member key is a statically known, non-empty
// string.
func literalKey(dt types.DataType) (string, bool) {
	s, ok := dt.(*types.String)
	if !ok || s == nil || s.Value == nil || *s.Value == "" {
		return "", false
	}
	return *s.Value, true
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return strings.ToUpper(string(r)) + s[size:]
}
