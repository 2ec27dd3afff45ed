package types

import "fmt"

// Position is a 0-based line/column pair.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Compare orders positions by line, then column.
func (p Position) Compare(o Position) int {
	switch {
	case p.Line < o.Line:
		return -1
	case p.Line > o.Line:
		return 1
	case p.Column < o.Column:
		return -1
	case p.Column > o.Column:
		return 1
	}
	return 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Location is a span with Start <= End.
type Location struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Contains reports whether p lies within l, both ends inclusive.
func (l Location) Contains(p Position) bool {
	return l.Start.Compare(p) <= 0 && p.Compare(l.End) <= 0
}

// Valid reports whether Start does not come after End.
func (l Location) Valid() bool {
	return l.Start.Line >= 0 && l.Start.Column >= 0 && l.Start.Compare(l.End) <= 0
}

func (l Location) String() string {
	return l.Start.String() + "-" + l.End.String()
}
