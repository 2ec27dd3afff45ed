package app

import (
	"strings"

	"agatypes/internal/engine/tokens"
	"agatypes/internal/engine/types"
)

// text indexes a document by line with rune columns.
type text struct {
	lines [][]rune
}

func newText(content []byte) text {
	raw := strings.Split(string(content), "\n")
	lines := make([][]rune, len(raw))
	for i, l := range raw {
		lines[i] = []rune(strings.TrimSuffix(l, "\r"))
	}
	return text{lines: lines}
}

func (t text) line(n int) ([]rune, bool) {
	if n < 0 || n >= len(t.lines) {
		return nil, false
	}
	return t.lines[n], true
}

func clampColumn(line []rune, col int) int {
	if col < 0 {
		return 0
	}
	if col > len(line) {
		return len(line)
	}
	return col
}

// slice returns the text under loc. End is exclusive in columns, matching
// the editor's ranges.
func (t text) slice(loc types.Location) string {
	if !loc.Valid() {
		return ""
	}
	var b strings.Builder
	for n := loc.Start.Line; n <= loc.End.Line; n++ {
		line, ok := t.line(n)
		if !ok {
			break
		}
		from, to := 0, len(line)
		if n == loc.Start.Line {
			from = clampColumn(line, loc.Start.Column)
		}
		if n == loc.End.Line {
			to = clampColumn(line, loc.End.Column)
		}
		if n > loc.Start.Line {
			b.WriteByte('\n')
		}
		if from < to {
			b.WriteString(string(line[from:to]))
		}
	}
	return b.String()
}

// TextAt returns the document text under loc.
func (a *App) TextAt(doc tokens.Document, loc types.Location) string {
	return newText(a.textOf(doc)).slice(loc)
}
