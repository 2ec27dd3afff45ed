package simplify

import (
	"testing"

	"agatypes/internal/engine/types"

	"github.com/stretchr/testify/assert"
)

var (
	number  = &types.Primitive{Name: types.Number}
	boolean = &types.Primitive{Name: types.Boolean}
)

func TestSimplifyUnions(t *testing.T) {
	tests := []struct {
		name string
		in   types.DataType
		want types.DataType
	}{
		{name: "nil", in: nil, want: nil},
		{name: "empty union", in: &types.Union{}, want: nil},
		{name: "only unknowns", in: &types.Union{Alternatives: []types.DataType{nil, nil}}, want: nil},
		{name: "single", in: &types.Union{Alternatives: []types.DataType{number, nil}}, want: number},
		{name: "duplicates", in: &types.Union{Alternatives: []types.DataType{number, &types.Primitive{Name: types.Number}}}, want: number},
		{
			name: "keeps first-seen order",
			in:   &types.Union{Alternatives: []types.DataType{boolean, number, boolean}},
			want: &types.Union{Alternatives: []types.DataType{boolean, number}},
		},
		{
			name: "inside a list",
			in:   &types.List{Inner: &types.Union{Alternatives: []types.DataType{number, number}}},
			want: &types.List{Inner: number},
		},
		{
			name: "nested union collapses to its member",
			in: &types.Union{Alternatives: []types.DataType{
				&types.Union{Alternatives: []types.DataType{number}},
				number,
			}},
			want: number,
		},
		{
			name: "parameters keep unknown slots",
			in:   &types.Function{Parameters: []types.DataType{nil, &types.Union{}}, ReturnType: &types.Union{Alternatives: []types.DataType{boolean}}},
			want: &types.Function{Parameters: []types.DataType{nil, nil}, ReturnType: boolean},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Simplify(tt.in)
			if tt.want == nil {
				assert.True(t, types.IsNil(got), types.Canonical(got))
				return
			}
			assert.True(t, types.Equal(tt.want, got), "want %s, got %s", types.Canonical(tt.want), types.Canonical(got))
		})
	}
}

func TestSimplifyIsIdempotent(t *testing.T) {
	in := &types.Class{
		Name: "P",
		StaticProperties: map[string]types.DataType{
			"a": &types.Union{Alternatives: []types.DataType{number, boolean, number}},
		},
		InstanceProperties: map[string]types.DataType{
			"b": &types.Iterable{Inner: &types.Union{Alternatives: []types.DataType{nil}}},
		},
	}
	once := Simplify(in)
	assert.Equal(t, types.Canonical(once), types.Canonical(Simplify(once)))
}

func TestSimplifyDoesNotModifyInput(t *testing.T) {
	u := &types.Union{Alternatives: []types.DataType{number, number}}
	in := &types.List{Inner: u}
	before := types.Canonical(in)
	_ = Simplify(in)
	assert.Equal(t, before, types.Canonical(in))
	assert.Len(t, u.Alternatives, 2)
}
