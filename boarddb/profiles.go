// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Board/memory-profile database: a TOML file describing known boards' USB identity and
// RAM/flash layout, looked up by VID:PID or by profile name.
// Adapted from the reference tool's drivedb converter (itself a cgo C-struct-to-TOML dump); this
// package only reads the already-converted TOML, so no cgo is involved.
package boarddb

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// MemoryProfile describes one named memory region of a board (e.g. "flash" or "ram").
type MemoryProfile struct {
	Start      uint32 `toml:"start"`
	Size       uint32 `toml:"size"`
	SectorSize uint32 `toml:"sector_size,omitempty"`
}

// BoardProfile is one entry in the database: a board's USB identity plus its known memory
// layout, keyed by name in DB.Boards.
type BoardProfile struct {
	Name      string                   `toml:"name"`
	VID       uint16                   `toml:"vid"`
	PID       uint16                   `toml:"pid"`
	Transport string                   `toml:"transport"`
	Memory    map[string]MemoryProfile `toml:"memory"`
}

// DB is the parsed contents of a board-profile TOML file.
type DB struct {
	Boards []BoardProfile `toml:"board"`
}

// Load parses a board-profile TOML file.
func Load(path string) (DB, error) {
	var db DB
	if _, err := toml.DecodeFile(path, &db); err != nil {
		return DB{}, fmt.Errorf("boarddb: decode %s: %w", path, err)
	}
	return db, nil
}

// Find looks up a board by VID:PID, returning the first matching profile.
func (db DB) Find(vid, pid uint16) (BoardProfile, bool) {
	for _, b := range db.Boards {
		if b.VID == vid && b.PID == pid {
			return b, true
		}
	}
	return BoardProfile{}, false
}

// FindByName looks up a board by its profile name.
func (db DB) FindByName(name string) (BoardProfile, bool) {
	for _, b := range db.Boards {
		if b.Name == name {
			return b, true
		}
	}
	return BoardProfile{}, false
}
