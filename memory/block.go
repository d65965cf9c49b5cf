// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Memory-range model: intervals used to validate addresses before destructive operations.

package memory

import "fmt"

// Block is a half-open address interval [Start, End).
type Block struct {
	Start  uint32
	End    uint32
	Length uint32
}

// NewBlock builds a Block from a start address plus exactly one of end or length. Passing both
// end and length non-zero is an error unless they agree; passing neither is an error.
func NewBlock(start, end, length uint32) (Block, error) {
	switch {
	case end == 0 && length == 0:
		return Block{}, fmt.Errorf("memory: block needs an end or a length")
	case end == 0:
		end = start + length
	case length == 0:
		length = end - start
	case end != start+length:
		return Block{}, fmt.Errorf("memory: end %#x and length %#x disagree for start %#x", end, length, start)
	}
	if start > end {
		return Block{}, fmt.Errorf("memory: start %#x is after end %#x", start, end)
	}
	return Block{Start: start, End: end, Length: length}, nil
}

func (b Block) String() string {
	return fmt.Sprintf("[%#08x, %#08x)", b.Start, b.End)
}

// Equal reports whether b and other cover the exact same interval.
func (b Block) Equal(other Block) bool {
	return b.Start == other.Start && b.End == other.End
}

// Contains reports whether other is entirely inside b.
func (b Block) Contains(other Block) bool {
	return other.Start >= b.Start && other.End <= b.End
}

// ContainsAddr reports whether addr falls in [Start, End).
func (b Block) ContainsAddr(addr uint32) bool {
	return addr >= b.Start && addr < b.End
}

// Overlaps reports whether b and other share any address.
func (b Block) Overlaps(other Block) bool {
	return b.Start < other.End && other.Start < b.End
}

// Sub computes the set-difference b - other, returning 0, 1, or 2 residual blocks such that
// their union with (b ∩ other) reconstructs b.
func (b Block) Sub(other Block) []Block {
	if !b.Overlaps(other) {
		return []Block{b}
	}

	var residual []Block

	if other.Start > b.Start {
		left, err := NewBlock(b.Start, other.Start, 0)
		if err == nil {
			residual = append(residual, left)
		}
	}
	if other.End < b.End {
		right, err := NewBlock(other.End, b.End, 0)
		if err == nil {
			residual = append(residual, right)
		}
	}

	return residual
}

// Memory is a RAM region; it is a Block with no further behaviour, kept as a distinct type so
// call sites (and decoded property values) read as "this is RAM", not "this is some interval".
type Memory struct {
	Block
}

// Flash is a flash region: a Block plus the erase/program sector size.
type Flash struct {
	Block
	SectorSize uint32
}

// DefaultSectorSize is used when a target does not report FLASH_SECTOR_SIZE.
const DefaultSectorSize = 4 * 1024

// NewFlash builds a Flash block, defaulting SectorSize to DefaultSectorSize when zero is passed.
func NewFlash(start, end, length, sectorSize uint32) (Flash, error) {
	b, err := NewBlock(start, end, length)
	if err != nil {
		return Flash{}, err
	}
	if sectorSize == 0 {
		sectorSize = DefaultSectorSize
	}
	return Flash{Block: b, SectorSize: sectorSize}, nil
}

// AlignUp rounds n up to the next multiple of base. base must be a power of two.
func AlignUp(n, base uint32) uint32 {
	return (n + base - 1) &^ (base - 1)
}

// AlignDown rounds n down to the previous multiple of base. base must be a power of two.
func AlignDown(n, base uint32) uint32 {
	return n &^ (base - 1)
}
