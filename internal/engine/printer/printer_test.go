package printer

import (
	"testing"
	"unicode/utf8"

	"agatypes/internal/engine/types"

	"github.com/stretchr/testify/assert"
)

var (
	number  = &types.Primitive{Name: types.Number}
	boolean = &types.Primitive{Name: types.Boolean}
	char    = &types.Primitive{Name: types.Char}
	point   = &types.Instance{Name: "Punto"}
)

func TestRenderUnbounded(t *testing.T) {
	tests := []struct {
		name string
		in   types.DataType
		want string
	}{
		{name: "unknown", in: nil, want: "Desconocido"},
		{name: "primitive", in: number, want: "Numero"},
		{name: "nothing", in: &types.Primitive{Name: types.Nothing}, want: "Nada"},
		{name: "reference", in: &types.Reference{Inner: number}, want: "Referencia"},
		{name: "list", in: &types.List{Inner: number}, want: "[Numero]"},
		{name: "list of unknown", in: &types.List{}, want: "[Desconocido]"},
		{name: "iterable", in: &types.Iterable{Inner: char}, want: "@Caracter"},
		{name: "string", in: types.StringOf("hi"), want: "'hi'"},
		{name: "unknown string", in: &types.String{}, want: "Cadena"},
		{name: "escaped string", in: types.StringOf("it's\t"), want: `'it\'s\t'`},
		{name: "function", in: &types.Function{Parameters: []types.DataType{number}, ReturnType: boolean}, want: "fn (Numero){ Buleano }"},
		{name: "function without params", in: &types.Function{}, want: "fn (){ Desconocido }"},
		{name: "constructor function", in: &types.ConstructorFunction{ReturnType: point}, want: "clase Punto"},
		{name: "class", in: &types.Class{Name: "Punto"}, want: "clase Punto"},
		{name: "constructor value", in: &types.ConstructorValue{Value: point}, want: "clase Punto"},
		{name: "union", in: &types.Union{Alternatives: []types.DataType{number, boolean}}, want: "Numero | Buleano"},
		{name: "instance", in: point, want: "Punto"},
		{name: "module", in: &types.Module{Path: "util"}, want: "importa 'util'"},
		{name: "param", in: &types.Param{Index: 1}, want: "Param_1?"},
		{name: "params", in: &types.Params{}, want: "@Params?"},
		{name: "element", in: &types.Element{Value: number}, want: "Elemento<Numero>"},
		{name: "promise", in: &types.Promise{Value: number}, want: "asinc Numero"},
		{name: "return", in: &types.Return{Value: number}, want: "ret Numero"},
		{name: "static member", in: &types.Member{Object: point, Member: types.StringOf("x")}, want: "(Punto).x"},
		{name: "instance member", in: &types.Member{Object: point, Member: types.StringOf("x"), IsInstanceAccess: true}, want: "(Punto)::x"},
		{name: "computed member", in: &types.Member{Object: point, Member: number}, want: "(Punto)[Numero]"},
		{name: "computed instance member", in: &types.Member{Object: point, Member: types.StringOf(""), IsInstanceAccess: true}, want: "(Punto)::['']"},
		{
			name: "identifier",
			in:   &types.Identifier{Location: types.Location{Start: types.Position{Line: 4, Column: 2}}},
			want: "4,2",
		},
		{name: "call", in: &types.Call{Callee: point, Args: []types.DataType{number, boolean}}, want: "Punto(Numero, Buleano)"},
		{name: "call without args", in: &types.Call{Callee: point}, want: "Punto()"},
		{name: "opaque", in: &types.Opaque{Class: "x", Raw: []byte(`{"class":"x"}`)}, want: `{"class":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.in, DefaultOptions()))
		})
	}
}

func TestRenderStringOptions(t *testing.T) {
	multi := types.StringOf("a\nb")

	assert.Equal(t, "Cadena", Render(multi, Options{MaxLength: NoLimit}))
	assert.Equal(t, "'a\\n' +\n'b'", Render(multi, Options{MaxLength: NoLimit, ShowStringContents: true, MultilineStrings: true}))
	assert.Equal(t, `'a\nb'`, Render(multi, Options{MaxLength: NoLimit, ShowStringContents: true}))
}

func TestRenderTruncatesStrings(t *testing.T) {
	opts := Options{MaxLength: 7, ShowStringContents: true}
	assert.Equal(t, "'he...'", Render(types.StringOf("hello world"), opts))
	assert.Equal(t, "'hello'", Render(types.StringOf("hello"), opts))

	opts.MaxLength = 4
	assert.Equal(t, "'...'", Render(types.StringOf("hello world"), opts))
}

func TestRenderTruncatesLists(t *testing.T) {
	union := &types.Union{Alternatives: []types.DataType{number, boolean, char}}
	assert.Equal(t, "Numero | ...", Render(union, Options{MaxLength: 20}))
	assert.Equal(t, "Numero | Buleano | Caracter", Render(union, Options{MaxLength: 27}))
	assert.Equal(t, Ellipsis, Render(union, Options{MaxLength: 2}))
}

func TestRenderWithinSlack(t *testing.T) {
	// A result may overshoot the bound by the width of the ellipsis.
	assert.Equal(t, "Numero", Render(number, Options{MaxLength: 3}))
	assert.Equal(t, Ellipsis, Render(number, Options{MaxLength: 2}))
}

func TestRenderRespectsBound(t *testing.T) {
	samples := []types.DataType{
		&types.Function{
			Parameters: []types.DataType{number, types.StringOf("una cadena larga"), &types.List{Inner: boolean}},
			ReturnType: &types.Union{Alternatives: []types.DataType{point, &types.Promise{Value: char}}},
		},
		&types.Member{Object: &types.Call{Callee: point, Args: []types.DataType{number}}, Member: types.StringOf("campo_muy_largo")},
		&types.Element{Value: &types.Iterable{Inner: &types.ConstructorValue{Value: &types.Class{Name: "Vector"}}}},
		types.StringOf("ñandú über straße"),
	}
	for _, dt := range samples {
		for n := 0; n <= 40; n++ {
			out := Render(dt, Options{MaxLength: n, ShowStringContents: true})
			assert.LessOrEqual(t, utf8.RuneCountInString(out), n+len(Ellipsis), "n=%d out=%q", n, out)
			assert.NotEmpty(t, out)
		}
	}
}
