package backend

import (
	"strconv"
	"strings"

	"agatypes/internal/engine/types"
)

// errorBanner opens the first stderr line of a compile error: a bold,
// bright-red "error:" in ANSI escapes.
const errorBanner = "\x1b[1m\x1b[91merror\x1b[39m:\x1b[0m"

// ParseDiagnostic extracts a located compile error from the backend's stderr.
//
// The expected shape is:
//
//	<banner> message
//	  --> path/to/file.aga:LINE:COLUMN
//	   |
//	 N | source line
//	   |     ^----
//
// LINE and COLUMN are 1-based and returned 0-based; the length is the number
// of '-' on the fifth line, at least 1. ok is false when stderr does not
// follow this shape.
func ParseDiagnostic(stderr string) (*types.Diagnostic, bool) {
	lines := strings.Split(strings.ReplaceAll(stderr, "\r\n", "\n"), "\n")
	if len(lines) < 2 || !strings.HasPrefix(lines[0], errorBanner) {
		return nil, false
	}
	message := strings.TrimSpace(strings.TrimPrefix(lines[0], errorBanner))

	parts := strings.Split(lines[1], ":")
	if len(parts) < 3 {
		return nil, false
	}
	column, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return nil, false
	}
	line, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-2]))
	if err != nil {
		return nil, false
	}
	head := strings.Join(parts[:len(parts)-2], ":")
	arrow := strings.Index(head, ">")
	if arrow < 0 {
		return nil, false
	}
	file := strings.TrimSpace(head[arrow+1:])

	length := 0
	if len(lines) > 4 {
		length = strings.Count(lines[4], "-")
	}
	if length < 1 {
		length = 1
	}

	return &types.Diagnostic{
		Message: message,
		Line:    line - 1,
		Column:  column - 1,
		Length:  length,
		File:    file,
	}, true
}
