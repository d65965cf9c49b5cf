package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlockDerivesMissingField(t *testing.T) {
	b, err := NewBlock(0x1000, 0x2000, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0x1000, b.Length)

	b, err = NewBlock(0x1000, 0, 0x500)
	require.NoError(t, err)
	assert.EqualValues(t, 0x1500, b.End)
}

func TestNewBlockRequiresEndOrLength(t *testing.T) {
	_, err := NewBlock(0x1000, 0, 0)
	assert.Error(t, err)
}

func TestNewBlockRejectsInvertedRange(t *testing.T) {
	_, err := NewBlock(0x2000, 0x1000, 0)
	assert.Error(t, err)
}

func TestBlockContains(t *testing.T) {
	outer, _ := NewBlock(0x1000, 0x3000, 0)
	inner, _ := NewBlock(0x1800, 0x2000, 0)
	assert.True(t, outer.Contains(inner))
	assert.False(t, inner.Contains(outer))
}

func TestBlockSub(t *testing.T) {
	whole, _ := NewBlock(0, 0x1000, 0)

	// No overlap: subtraction is a no-op.
	disjoint, _ := NewBlock(0x2000, 0x3000, 0)
	assert.Equal(t, []Block{whole}, whole.Sub(disjoint))

	// Middle bite: two residual blocks.
	middle, _ := NewBlock(0x400, 0x800, 0)
	residual := whole.Sub(middle)
	require.Len(t, residual, 2)
	assert.EqualValues(t, 0, residual[0].Start)
	assert.EqualValues(t, 0x400, residual[0].End)
	assert.EqualValues(t, 0x800, residual[1].Start)
	assert.EqualValues(t, 0x1000, residual[1].End)

	// Prefix bite: one residual block.
	prefix, _ := NewBlock(0, 0x400, 0)
	residual = whole.Sub(prefix)
	require.Len(t, residual, 1)
	assert.EqualValues(t, 0x400, residual[0].Start)

	// Exact cover: no residual.
	residual = whole.Sub(whole)
	assert.Len(t, residual, 0)
}

func TestAlignUpDown(t *testing.T) {
	assert.EqualValues(t, 0x1000, AlignUp(1, 0x1000))
	assert.EqualValues(t, 0x1000, AlignUp(0x1000, 0x1000))
	assert.EqualValues(t, 0x2000, AlignUp(0x1001, 0x1000))

	assert.EqualValues(t, 0, AlignDown(0xFFF, 0x1000))
	assert.EqualValues(t, 0x1000, AlignDown(0x1FFF, 0x1000))
}

func TestNewFlashDefaultsSectorSize(t *testing.T) {
	f, err := NewFlash(0, 0x10000, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, DefaultSectorSize, f.SectorSize)
}
