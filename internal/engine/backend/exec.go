// Package backend runs the external tokenizer and decodes its output.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"agatypes/internal/core/errors"
	"agatypes/internal/engine/types"
)

const DefaultSubcommand = "tokens"

// ExecBackend invokes `<ExePath> <Subcommand> <file>` once per refresh and
// blocks until the process exits.
type ExecBackend struct {
	ExePath    string
	Subcommand string
}

func NewExecBackend(exePath, subcommand string) *ExecBackend {
	if strings.TrimSpace(subcommand) == "" {
		subcommand = DefaultSubcommand
	}
	return &ExecBackend{ExePath: exePath, Subcommand: subcommand}
}

type output struct {
	File []json.RawMessage `json:"file"`
	Mod  json.RawMessage   `json:"mod"`
}

// Tokens runs the backend for path. A compile error that stderr describes in
// the expected shape comes back as a *types.Diagnostic; everything else is a
// plain error.
func (b *ExecBackend) Tokens(ctx context.Context, path string) (types.FileTokens, error) {
	if strings.TrimSpace(b.ExePath) == "" {
		return types.FileTokens{}, errors.New(errors.CodeValidationError, "backend executable path is empty")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.ExePath, b.Subcommand, path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if diag, ok := ParseDiagnostic(stderr.String()); ok {
			return types.FileTokens{}, diag
		}
		return types.FileTokens{}, fmt.Errorf("run %s %s %q: %w: %s", b.ExePath, b.Subcommand, path, err, strings.TrimSpace(stderr.String()))
	}
	return Decode(path, stdout.Bytes())
}

// Decode parses the backend's stdout. Tokens that fail to decode are skipped
// and logged; a malformed envelope or module descriptor is an error.
func Decode(path string, data []byte) (types.FileTokens, error) {
	var out output
	if err := json.Unmarshal(data, &out); err != nil {
		return types.FileTokens{}, fmt.Errorf("decode backend output for %q: %w", path, err)
	}

	result := types.FileTokens{Tokens: make([]types.SemanticToken, 0, len(out.File))}
	for i, raw := range out.File {
		var tok types.SemanticToken
		if err := json.Unmarshal(raw, &tok); err != nil {
			slog.Warn("skipping undecodable token", "path", path, "index", i, "error", err)
			continue
		}
		result.Tokens = append(result.Tokens, tok)
	}

	mod, err := types.DecodeDataType(out.Mod)
	if err != nil {
		return types.FileTokens{}, fmt.Errorf("decode module descriptor for %q: %w", path, err)
	}
	switch m := mod.(type) {
	case nil:
	case *types.Class:
		result.Module = m
	default:
		slog.Warn("module descriptor is not a class", "path", path, "kind", string(mod.Kind()))
	}
	return result, nil
}
