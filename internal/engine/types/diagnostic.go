package types

import "fmt"

// Diagnostic is a located compile error reported by the backend. Line and
// Column are 0-based; Length is at least 1.
type Diagnostic struct {
	Message string `json:"message"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Length  int    `json:"length"`
	File    string `json:"file"`
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line+1, d.Column+1, d.Message)
}

// Location is the span the diagnostic underlines.
func (d *Diagnostic) Location() Location {
	length := d.Length
	if length < 1 {
		length = 1
	}
	return Location{
		Start: Position{Line: d.Line, Column: d.Column},
		End:   Position{Line: d.Line, Column: d.Column + length},
	}
}

// FileTokens is what the backend returns for one file: its tokens in no
// particular order and the class-shaped summary of its exported surface.
type FileTokens struct {
	Tokens []SemanticToken `json:"file"`
	Module *Class          `json:"-"`
}
