package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/probe/internal/types"
)

func endpointFinding(t *testing.T, key string) types.Finding {
	t.Helper()
	f, err := types.NewFinding("ra-endpoint-census", "test", key, types.FactEndpointTested,
		&types.EndpointTested{Method: "GET", Path: "/x", TestClass: "SomeTest"})
	require.NoError(t, err)
	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWriteAndLoadFindings(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "findings")
	in := []types.Finding{endpointFinding(t, "GET /a"), endpointFinding(t, "POST /b")}

	path, err := WriteFindings(dir, "test", in)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "test_findings.json"), path)

	got, err := LoadFindings(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "GET /a", got[0].Entity)
	assert.Equal(t, "POST /b", got[1].Entity)

	ep, ok := got[0].Data.(*types.EndpointTested)
	require.True(t, ok)
	assert.Equal(t, "SomeTest", ep.TestClass)

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFindings_NilIsEmptyArray(t *testing.T) {
	path, err := WriteFindings(t.TempDir(), "test", nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestWriteFindings_RequiresEnv(t *testing.T) {
	_, err := WriteFindings(t.TempDir(), " ", nil)
	assert.Error(t, err)
}

func TestLoadFindings_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.json"),
		`[{"probe":"p","env":"test","entity":"POST /b","fact":"endpoint_tested","data":{"method":"POST","path":"/b"}}]`)
	writeFile(t, filepath.Join(dir, "a.json"),
		`{"probe":"p","env":"test","entity":"GET /a","fact":"endpoint_tested","data":{"method":"GET","path":"/a"}}`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, "empty.json"), "  \n")

	got, err := LoadFindings(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "GET /a", got[0].Entity)
	assert.Equal(t, "POST /b", got[1].Entity)
}

func TestLoadFindings_EmptyDirectory(t *testing.T) {
	got, err := LoadFindings(t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoadFindings_Errors(t *testing.T) {
	_, err := LoadFindings(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	writeFile(t, bad, `[{"probe":"p"`)
	_, err = LoadFindings(bad)
	assert.Error(t, err)

	invalid := filepath.Join(t.TempDir(), "invalid.json")
	writeFile(t, invalid, `[{"probe":"p","env":"test","entity":"x","fact":"f","data":{},"confidence":2}]`)
	_, err = LoadFindings(invalid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidConfidence))
}

func TestLoadDossier(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteFindings(dir, "test", []types.Finding{endpointFinding(t, "GET /a")})
	require.NoError(t, err)

	d, err := LoadDossier(dir, "", "")
	require.NoError(t, err)
	assert.Equal(t, dir, d.Target)
	assert.Equal(t, "test", d.Env)
	assert.NotEmpty(t, d.ID)
	assert.Len(t, d.Findings, 1)

	d, err = LoadDossier(dir, "/src/warehouse", "staging")
	require.NoError(t, err)
	assert.Equal(t, "/src/warehouse", d.Target)
	assert.Equal(t, "staging", d.Env)
}

func TestWriteAndLoadResults(t *testing.T) {
	r, err := types.NewAnalysisResult("entity-model", map[string]any{"entities": []any{}}, "Entities: 0")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "results.json")
	require.NoError(t, WriteResults(path, []*types.AnalysisResult{r}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "entity-model", decoded[0]["analyzer"])

	got, err := LoadResults(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Entities: 0", got[0].Summary)
	assert.Equal(t, 1.0, got[0].Confidence)
}

func TestLoadResults_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	writeFile(t, path, `[{"analyzer":"x","data":{},"summary":"","confidence":-1}]`)
	_, err := LoadResults(path)
	assert.True(t, errors.Is(err, types.ErrInvalidConfidence))
}

func TestDiscoverFindingsInDir(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "findings")

	_, err := discoverFindingsInDir(out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "probe scan")

	writeFile(t, filepath.Join(out, "notes.json"), "[]")
	_, err = discoverFindingsInDir(out)
	assert.Error(t, err, "only *_findings.json files count")

	writeFile(t, filepath.Join(out, "test_findings.json"), "[]")
	got, err := discoverFindingsInDir(out)
	require.NoError(t, err)
	assert.Equal(t, out, got)
}

func TestDiscoverFindings_EnvOverride(t *testing.T) {
	t.Setenv(FindingsEnvVar, "/tmp/elsewhere.json")
	got, err := DiscoverFindings("findings")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/elsewhere.json", got)
}

func TestFindingsFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "z_findings.json"), "[]")
	writeFile(t, filepath.Join(dir, "a_findings.json"), "[]")
	writeFile(t, filepath.Join(dir, "other.json"), "[]")

	assert.Equal(t, []string{
		filepath.Join(dir, "a_findings.json"),
		filepath.Join(dir, "z_findings.json"),
	}, FindingsFiles(dir))
	assert.Nil(t, FindingsFiles(filepath.Join(dir, "missing")))
}
