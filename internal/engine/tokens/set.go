package tokens

import (
	"sort"

	"agatypes/internal/engine/types"
)

// Set is a document's tokens ordered by location start.
type Set []types.SemanticToken

// FindAt returns the first token whose location contains pos.
func (s Set) FindAt(pos types.Position) (types.SemanticToken, bool) {
	for _, tok := range s {
		if tok.Location.Start.Compare(pos) > 0 {
			break
		}
		if tok.Location.Contains(pos) {
			return tok, true
		}
	}
	return types.SemanticToken{}, false
}

// FilterAt returns every token whose location contains pos, in order.
func (s Set) FilterAt(pos types.Position) []types.SemanticToken {
	var out []types.SemanticToken
	for _, tok := range s {
		if tok.Location.Start.Compare(pos) > 0 {
			break
		}
		if tok.Location.Contains(pos) {
			out = append(out, tok)
		}
	}
	return out
}

// Sorted reports whether s is non-decreasing by location start.
func (s Set) Sorted() bool {
	return sort.SliceIsSorted(s, func(i, j int) bool {
		return s[i].Location.Start.Compare(s[j].Location.Start) < 0
	})
}

func sortTokens(tokens []types.SemanticToken) Set {
	out := make(Set, len(tokens))
	copy(out, tokens)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Location.Start.Compare(out[j].Location.Start) < 0
	})
	return out
}
