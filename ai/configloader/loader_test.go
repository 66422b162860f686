package configloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `yaml:"name"`
	Words []string `yaml:"words"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.yaml", "name: demo\nwords: [hola, adios]\nextra: 1\n")
	writeFile(t, dir, "empty.yaml", "")
	writeFile(t, dir, "broken.yaml", "name: [unclosed\n")

	l := NewLoader(dir)

	var s sample
	require.NoError(t, l.Load("ok.yaml", &s))
	assert.Equal(t, sample{Name: "demo", Words: []string{"hola", "adios"}}, s)

	s = sample{Name: "keep"}
	require.NoError(t, l.Load("empty.yaml", &s))
	assert.Equal(t, "keep", s.Name)

	assert.Error(t, l.Load("broken.yaml", &s))
	assert.Error(t, l.Load("missing.yaml", &s))
}

func TestLoader_Strict(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "extra.yaml", "name: demo\nextra: 1\n")

	var s sample
	assert.Error(t, NewLoader(dir, WithStrict()).Load("extra.yaml", &s))
	assert.NoError(t, NewLoader(dir).Load("extra.yaml", &s))
}

func TestLoader_AbsolutePath(t *testing.T) {
	path := writeFile(t, t.TempDir(), "abs.yaml", "name: abs\n")

	var s sample
	require.NoError(t, NewLoader("/nonexistent").Load(path, &s))
	assert.Equal(t, "abs", s.Name)
}
