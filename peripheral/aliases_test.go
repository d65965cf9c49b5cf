package peripheral

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAliasesIncludesBuiltins(t *testing.T) {
	table, err := LoadAliases("")
	require.NoError(t, err)

	alias, ok := table.Lookup("232h")
	require.True(t, ok)
	assert.EqualValues(t, 0x6014, alias.PID)
}

func TestLoadAliasesMergesUserFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	content := "- name: mycustom\n  vid: 0x1fc9\n  pid: 0x0021\n  kind: USB-HID\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadAliases(path)
	require.NoError(t, err)

	alias, ok := table.Lookup("mycustom")
	require.True(t, ok)
	assert.EqualValues(t, 0x1fc9, alias.VID)

	// Built-ins are still present.
	_, ok = table.Lookup("232h")
	assert.True(t, ok)
}
