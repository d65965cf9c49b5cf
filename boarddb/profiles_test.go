package boarddb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
[[board]]
name = "lpc55"
vid = 0x1FC9
pid = 0x0021
transport = "usb-hid"

[board.memory.flash]
start = 0x00000000
size = 0x00098000
sector_size = 0x200

[board.memory.ram]
start = 0x20000000
size = 0x00024000
`

func TestLoadAndFind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boards.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o644))

	db, err := Load(path)
	require.NoError(t, err)
	require.Len(t, db.Boards, 1)

	b, ok := db.Find(0x1FC9, 0x0021)
	require.True(t, ok)
	assert.Equal(t, "lpc55", b.Name)
	assert.EqualValues(t, 0x98000, b.Memory["flash"].Size)
	assert.EqualValues(t, 0x200, b.Memory["flash"].SectorSize)

	_, ok = db.Find(0x0000, 0x0000)
	assert.False(t, ok)

	byName, ok := db.FindByName("lpc55")
	require.True(t, ok)
	assert.Equal(t, b, byName)
}
