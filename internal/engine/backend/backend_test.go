package backend

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"agatypes/internal/core/errors"
	"agatypes/internal/engine/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStderr = errorBanner + " Se esperaba un valor\n" +
	"  --> /tmp/prog.aga:3:9\n" +
	"   |\n" +
	" 3 | def x = \n" +
	"   |         ^---\n"

func TestParseDiagnostic(t *testing.T) {
	diag, ok := ParseDiagnostic(sampleStderr)
	require.True(t, ok)
	assert.Equal(t, &types.Diagnostic{
		Message: "Se esperaba un valor",
		Line:    2,
		Column:  8,
		Length:  3,
		File:    "/tmp/prog.aga",
	}, diag)
}

func TestParseDiagnosticEdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		ok     bool
		length int
		file   string
	}{
		{name: "no banner", stderr: "panic: boom\n  --> a.aga:1:1\n", ok: false},
		{name: "one line", stderr: errorBanner + " boom", ok: false},
		{name: "no arrow", stderr: errorBanner + " boom\n a.aga:1:1\n", ok: false},
		{name: "bad number", stderr: errorBanner + " boom\n --> a.aga:x:1\n", ok: false},
		{name: "no underline", stderr: errorBanner + " boom\n --> a.aga:1:1\n", ok: true, length: 1, file: "a.aga"},
		{name: "windows path", stderr: errorBanner + " boom\r\n --> C:\\src\\a.aga:2:4\r\n |\r\n 2 | x\r\n |  ^-\r\n", ok: true, length: 1, file: "C:\\src\\a.aga"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diag, ok := ParseDiagnostic(tt.stderr)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.length, diag.Length)
			assert.Equal(t, tt.file, diag.File)
		})
	}
}

func TestDecode(t *testing.T) {
	data := `{
		"file": [
			{"definition":{"line":0,"column":4},"location":{"start":{"line":0,"column":4},"end":{"line":0,"column":5}},
			 "token_type":"Variable","token_modifier":[],"data_type":{"class":"agal","type":"numero"},"is_original_decl":false},
			"not a token"
		],
		"mod": {"class":"clase","name":"prog","static_props":{},"instance_props":{}}
	}`
	got, err := Decode("prog.aga", []byte(data))
	require.NoError(t, err)
	require.Len(t, got.Tokens, 1)
	assert.Equal(t, types.TokenVariable, got.Tokens[0].Kind)
	require.NotNil(t, got.Module)
	assert.Equal(t, "prog", got.Module.Name)

	got, err = Decode("prog.aga", []byte(`{"file":[],"mod":{"class":"mod","path":"x"}}`))
	require.NoError(t, err)
	assert.Nil(t, got.Module)

	_, err = Decode("prog.aga", []byte(`not json`))
	assert.Error(t, err)
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "backend.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func TestExecBackendTokens(t *testing.T) {
	script := writeScript(t, `printf '{"file":[],"mod":{"class":"clase","name":"%s","static_props":{},"instance_props":{}}}' "$1"`+"\n")
	b := NewExecBackend("sh", script)

	got, err := b.Tokens(context.Background(), "main")
	require.NoError(t, err)
	require.NotNil(t, got.Module)
	assert.Equal(t, "main", got.Module.Name)
}

func TestExecBackendDiagnostic(t *testing.T) {
	script := writeScript(t, "printf '\\033[1m\\033[91merror\\033[39m:\\033[0m Token inesperado\\n  --> %s:1:5\\n   |\\n 1 | x\\n   |     ^--\\n' \"$1\" >&2\nexit 1\n")
	b := NewExecBackend("sh", script)

	_, err := b.Tokens(context.Background(), "main.aga")
	var diag *types.Diagnostic
	require.True(t, stderrors.As(err, &diag), "got %v", err)
	assert.Equal(t, "Token inesperado", diag.Message)
	assert.Equal(t, 0, diag.Line)
	assert.Equal(t, 4, diag.Column)
	assert.Equal(t, 2, diag.Length)
	assert.Equal(t, "main.aga", diag.File)
}

func TestExecBackendUnstructuredFailure(t *testing.T) {
	script := writeScript(t, "echo 'segfault' >&2\nexit 2\n")
	_, err := NewExecBackend("sh", script).Tokens(context.Background(), "main.aga")
	require.Error(t, err)
	var diag *types.Diagnostic
	assert.False(t, stderrors.As(err, &diag))
	assert.Contains(t, err.Error(), "segfault")
}

func TestExecBackendRequiresExecutable(t *testing.T) {
	_, err := NewExecBackend(" ", "").Tokens(context.Background(), "main.aga")
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
	assert.Equal(t, DefaultSubcommand, NewExecBackend("aga", "").Subcommand)
}
