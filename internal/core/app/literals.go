package app

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"agatypes/internal/engine/types"
)

var (
	commentPattern  = regexp.MustCompile(`#.*$`)
	bytePattern     = regexp.MustCompile(`0by[01](?:_?[01]){0,7}`)
	identPattern    = regexp.MustCompile(`[a-zA-ZñÑ_$][a-zA-ZñÑ0-9_$]*`)
	basedPattern    = regexp.MustCompile(`0n([0-9]+)\|([0-9a-zA-Z](?:_?[0-9a-zA-Z])*)`)
	prefixedPattern = regexp.MustCompile(`0b[01](?:_?[01])*|0o[0-7]+|0d[0-9]+|0x[0-9a-fA-F]+`)
	decimalPattern  = regexp.MustCompile(`[0-9]+[0-9_]*(?:\.[0-9]+[0-9_]*)?`)
)

var prefixedBase = map[string]int{"0b": 2, "0o": 8, "0d": 10, "0x": 16}

// wordAt returns the match of re on line whose rune span contains col, end
// inclusive.
func wordAt(line []rune, col int, re *regexp.Regexp) (string, int, bool) {
	s := string(line)
	for _, m := range re.FindAllStringIndex(s, -1) {
		start := utf8.RuneCountInString(s[:m[0]])
		end := start + utf8.RuneCountInString(s[m[0]:m[1]])
		if start <= col && col <= end {
			return s[m[0]:m[1]], start, true
		}
	}
	return "", 0, false
}

// identifierAt finds the name under pos. Letters glued to a leading digit or
// following a base separator belong to a number literal, not a name.
func identifierAt(src text, pos types.Position) (string, bool) {
	line, ok := src.line(pos.Line)
	if !ok {
		return "", false
	}
	word, start, ok := wordAt(line, pos.Column, identPattern)
	if !ok {
		return "", false
	}
	if start > 0 {
		if prev := line[start-1]; prev == '|' || (prev >= '0' && prev <= '9') {
			return "", false
		}
	}
	return word, true
}

// stringLiteralAt scans quoted literals on line. A backslash escapes the
// next rune and the closing quote must match the opening one.
func stringLiteralAt(line []rune, col int) (string, bool) {
	for i := 0; i < len(line); i++ {
		q := line[i]
		if q != '"' && q != '\'' {
			continue
		}
		j := i + 1
		for j < len(line) && line[j] != q {
			if line[j] == '\\' {
				j++
			}
			j++
		}
		if j >= len(line) {
			return "", false
		}
		if i <= col && col <= j+1 {
			return string(line[i : j+1]), true
		}
		i = j
	}
	return "", false
}

// parseDigits reads digits in base, ignoring '_' separators.
func parseDigits(digits string, base int) (*big.Int, bool) {
	if base < 2 || base > 36 {
		return nil, false
	}
	return new(big.Int).SetString(strings.ReplaceAll(digits, "_", ""), base)
}

// literalHover describes the literal under pos. Names are left to the type
// hover, so a position on an identifier yields false.
func literalHover(src text, pos types.Position) (string, bool) {
	line, ok := src.line(pos.Line)
	if !ok {
		return "", false
	}
	col := pos.Column

	if word, _, ok := wordAt(line, col, commentPattern); ok {
		return codeBlock(word), true
	}
	if lit, ok := stringLiteralAt(line, col); ok {
		return codeBlock(lit) + "### Literal de texto 📝\n", true
	}
	if word, _, ok := wordAt(line, col, bytePattern); ok {
		value, _ := parseDigits(word[len("0by"):], 2)
		return codeBlock(word) + "### Literal de un byte 💾\n" + fmt.Sprintf("Valor: %s", value), true
	}
	if _, ok := identifierAt(src, pos); ok {
		return "", false
	}
	if word, _, ok := wordAt(line, col, basedPattern); ok {
		parts := basedPattern.FindStringSubmatch(word)
		base, err := strconv.Atoi(parts[1])
		if value, valid := parseDigits(parts[2], base); err == nil && valid {
			return codeBlock(word) + "### Literal Numerico 🔢\n" + fmt.Sprintf("Base: %d\nValor: %s", base, value), true
		}
	}
	if word, _, ok := wordAt(line, col, prefixedPattern); ok {
		base := prefixedBase[word[:2]]
		if value, valid := parseDigits(word[2:], base); valid {
			return codeBlock(word) + "### Literal Numerico 🔢\n" + fmt.Sprintf("Base: %d\nValor: %s", base, value), true
		}
	}
	if word, _, ok := wordAt(line, col, decimalPattern); ok {
		return codeBlock(word) + "### Literal Numerico 🔢\n", true
	}
	return "", false
}
