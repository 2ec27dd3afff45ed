package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	coreapp "agatypes/internal/core/app"
	"agatypes/internal/core/config"
	"agatypes/internal/engine/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu     sync.Mutex
	result types.FileTokens
	err    error
}

func (f *fakeBackend) Tokens(ctx context.Context, path string) (types.FileTokens, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.err
}

type fakeFactory struct {
	backend *fakeBackend
}

func (f fakeFactory) New(cfg *config.Config) (*coreapp.App, error) {
	return coreapp.New(cfg, f.backend)
}

func loc(l1, c1, l2, c2 int) types.Location {
	return types.Location{Start: types.Position{Line: l1, Column: c1}, End: types.Position{Line: l2, Column: c2}}
}

const sampleSource = "def x = 5\ndef y = x\nfn suma(a) { ret a }\n"

func sampleTokens() types.FileTokens {
	xDecl := loc(0, 4, 0, 5)
	return types.FileTokens{
		Tokens: []types.SemanticToken{
			{
				Definition: types.Position{Line: 2, Column: 3},
				Location:   loc(2, 3, 2, 7),
				Kind:       types.TokenFunction,
				DataType: &types.Function{
					Parameters: []types.DataType{&types.Primitive{Name: types.Number}},
					ReturnType: &types.Primitive{Name: types.Boolean},
				},
				IsOriginalDeclaration: true,
			},
			{
				Definition: types.Position{Line: 0, Column: 4},
				Location:   loc(1, 8, 1, 9),
				Kind:       types.TokenVariable,
				DataType:   &types.Identifier{Location: xDecl},
			},
			{
				Definition: types.Position{Line: 0, Column: 4},
				Location:   xDecl,
				Kind:       types.TokenVariable,
				DataType:   &types.Primitive{Name: types.Number},
			},
			{
				Definition: types.Position{Line: 1, Column: 4},
				Location:   loc(1, 4, 1, 5),
				Kind:       types.TokenVariable,
				DataType:   &types.Identifier{Location: xDecl},
			},
		},
		Module: &types.Class{Name: "main"},
	}
}

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.aga")
	require.NoError(t, os.WriteFile(path, []byte(sampleSource), 0o644))
	return path
}

func runWith(t *testing.T, fb *fakeBackend, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("AGATYPES_OBSERVABILITY_ENABLED", "false")
	var stdout, stderr bytes.Buffer
	args = append([]string{"--config", filepath.Join(t.TempDir(), "agatypes.toml")}, args...)
	require.NoError(t, os.WriteFile(args[1], []byte("version = 1\n"), 0o644))
	code := run(args, &stdout, &stderr, fakeFactory{backend: fb})
	return code, stdout.String(), stderr.String()
}

func TestRunVersion(t *testing.T) {
	var stdout bytes.Buffer
	code := run([]string{"--version"}, &stdout, &bytes.Buffer{}, fakeFactory{})
	assert.Equal(t, 0, code)
	assert.Equal(t, "agatypes v"+versionString+"\n", stdout.String())
}

func TestRunRejectsBadUsage(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{"type", "main.aga"}, &bytes.Buffer{}, &stderr, fakeFactory{})
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "takes 3 argument(s)")
}

func TestRunType(t *testing.T) {
	path := writeSource(t)
	fb := &fakeBackend{result: sampleTokens()}

	code, out, _ := runWith(t, fb, "type", path, "2", "4")
	assert.Equal(t, 0, code)
	assert.Equal(t, "fn (Numero){ Buleano }\n", out)

	code, out, _ = runWith(t, fb, "type", path, "2", "4", "--max", "2")
	assert.Equal(t, 0, code)
	assert.Equal(t, "...\n", out)

	code, _, errOut := runWith(t, fb, "type", path, "0", "0")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "no symbol at position")
}

func TestRunHoverAndDefinition(t *testing.T) {
	path := writeSource(t)
	fb := &fakeBackend{result: sampleTokens()}

	code, out, _ := runWith(t, fb, "hover", path, "1", "4")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "### Tipo de dato\n```aga\nNumero\n```\n")

	code, out, _ = runWith(t, fb, "hover", path, "0", "8")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "### Literal Numerico")

	code, out, _ = runWith(t, fb, "definition", path, "1", "8")
	assert.Equal(t, 0, code)
	assert.Equal(t, path+":0:4\n", out)
}

func TestRunHints(t *testing.T) {
	path := writeSource(t)
	code, out, _ := runWith(t, &fakeBackend{result: sampleTokens()}, "hints", path)
	assert.Equal(t, 0, code)
	assert.Equal(t, "0:5\t: Numero\n1:5\t: Numero\n2:7\t Buleano \n", out)
}

func TestRunRename(t *testing.T) {
	path := writeSource(t)
	code, out, _ := runWith(t, &fakeBackend{result: sampleTokens()}, "rename", path, "0", "4", "z")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "0:4-0:5\tz\n")
	assert.Contains(t, out, "1:8-1:9\tz\n")
}

func TestRunTokensPrintsJSON(t *testing.T) {
	path := writeSource(t)
	code, out, _ := runWith(t, &fakeBackend{result: sampleTokens()}, "tokens", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, `"file": [`)
	assert.Contains(t, out, `"mod": {`)
}

func TestRunReportsDiagnostics(t *testing.T) {
	path := writeSource(t)
	fb := &fakeBackend{err: &types.Diagnostic{Message: "se esperaba '='", Line: 0, Column: 6, Length: 1, File: path}}

	code, _, errOut := runWith(t, fb, "semantic", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, path+":1:7: se esperaba '='")
}

func TestReportError(t *testing.T) {
	var buf bytes.Buffer
	reportError(&buf, &types.Diagnostic{Message: "boom", Line: 2, Column: 0, File: "a.aga"})
	assert.Equal(t, "a.aga:3:1: boom\n", buf.String())

	buf.Reset()
	reportError(&buf, assert.AnError)
	assert.Equal(t, assert.AnError.Error()+"\n", buf.String())
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, path, err := loadConfig(defaultConfigPath)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, config.DefaultConfig().Backend, cfg.Backend)

	_, _, err = loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
