package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"det-ensemble/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const treeYAML = `
min_vals: [0]
max_vals: [1]
start: 0
end: 5
root: {ratio: 1, log_volume: 0}
`

func TestImportListExportDelete(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "models.db")
	src := filepath.Join(dir, "tree.yaml")
	require.NoError(t, os.WriteFile(src, []byte(treeYAML), 0o600))

	require.NoError(t, run([]string{"-db", db, "import", "unit", src}, &bytes.Buffer{}))

	var listing bytes.Buffer
	require.NoError(t, run([]string{"-db", db, "list"}, &listing))
	lines := strings.Split(strings.TrimSpace(listing.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "unit")
	assert.Contains(t, lines[1], "yaml")

	var exported bytes.Buffer
	require.NoError(t, run([]string{"-db", db, "export", "unit"}, &exported))
	assert.Equal(t, treeYAML, exported.String())

	out := filepath.Join(dir, "copy.yaml")
	require.NoError(t, run([]string{"-db", db, "export", "unit", out}, &bytes.Buffer{}))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, treeYAML, string(data))

	require.NoError(t, run([]string{"-db", db, "delete", "unit"}, &bytes.Buffer{}))
	err = run([]string{"-db", db, "delete", "unit"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, storage.ErrModelNotFound)
}

func TestImportRejectsInvalidTree(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "models.db")
	src := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"min_vals":[0],"max_vals":[],"start":0,"end":1}`), 0o600))

	err := run([]string{"-db", db, "import", "bad", src}, &bytes.Buffer{})
	require.Error(t, err)

	_, statErr := os.Stat(db)
	assert.True(t, os.IsNotExist(statErr), "store must not be created for an invalid model")
}

func TestRun_UsageErrors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "models.db")

	tests := [][]string{
		{"-db", db},
		{"-db", db, "import", "only-name"},
		{"-db", db, "export"},
		{"-db", db, "delete"},
		{"-db", db, "rename", "a", "b"},
	}
	for _, args := range tests {
		assert.Error(t, run(args, &bytes.Buffer{}), "args %v", args)
	}
}
