package printer

import (
	"strings"

	"agatypes/internal/engine/types"
)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\r", `\r`,
	"\t", `\t`,
	"\x00", `\0`,
)

const (
	inlineNewline    = `\n`
	multilineNewline = "\\n' +\n'"
)

// stringType prints a string type as a quoted literal when its value is known
// and shown, else as "Cadena". A literal that does not fit keeps as many
// leading runes as leave room for the quotes and Ellipsis; under 5 runes of
// budget only "'...'" is printed.
func (p printer) stringType(v *types.String, w width) string {
	if v.Value == nil || !p.opts.ShowStringContents {
		return "Cadena"
	}
	body := escaper.Replace(*v.Value)
	if p.opts.MultilineStrings {
		body = strings.ReplaceAll(body, "\n", multilineNewline)
	} else {
		body = strings.ReplaceAll(body, "\n", inlineNewline)
	}

	if w.fits(runeLen(body) + 2) {
		return "'" + body + "'"
	}
	if w.n >= 5 {
		runes := []rune(body)
		keep := strings.TrimRight(string(runes[:w.n-5]), " \t\r\n")
		return "'" + keep + Ellipsis + "'"
	}
	return "'" + Ellipsis + "'"
}
