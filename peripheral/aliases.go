// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Device alias table: maps a friendly board name to its USB VID:PID (or FTDI bridge chip name),
// loaded from a YAML file so new boards can be added without a rebuild.

package peripheral

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// Alias is one entry in the device alias table.
type Alias struct {
	Name string `yaml:"name"`
	VID  uint16 `yaml:"vid"`
	PID  uint16 `yaml:"pid"`
	Kind Kind   `yaml:"kind"`
}

// AliasTable is the full set of known device aliases, keyed by name exactly as loaded.
type AliasTable map[string]Alias

// builtinFTDI mirrors the reference tool's FTDI chip-name table: every product ID FTDI has
// shipped under the 0x0403 vendor ID that is usable as an MPSSE bridge.
var builtinFTDI = AliasTable{
	"232":    {Name: "232", VID: 0x0403, PID: 0x6001, Kind: SPI},
	"232r":   {Name: "232r", VID: 0x0403, PID: 0x6001, Kind: SPI},
	"232h":   {Name: "232h", VID: 0x0403, PID: 0x6014, Kind: SPI},
	"2232":   {Name: "2232", VID: 0x0403, PID: 0x6010, Kind: SPI},
	"2232h":  {Name: "2232h", VID: 0x0403, PID: 0x6010, Kind: SPI},
	"4232":   {Name: "4232", VID: 0x0403, PID: 0x6011, Kind: SPI},
	"4232h":  {Name: "4232h", VID: 0x0403, PID: 0x6011, Kind: SPI},
	"230x":   {Name: "230x", VID: 0x0403, PID: 0x6015, Kind: SPI},
}

// LoadAliases reads a YAML alias file and merges it over the built-in FTDI table, so a user file
// can add boards without losing the FTDI bridge defaults.
func LoadAliases(path string) (AliasTable, error) {
	table := make(AliasTable, len(builtinFTDI))
	for k, v := range builtinFTDI {
		table[k] = v
	}

	if path == "" {
		return table, nil
	}

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("peripheral: read alias file: %w", err)
	}

	var entries []Alias
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("peripheral: parse alias file: %w", err)
	}
	for _, e := range entries {
		table[e.Name] = e
	}
	return table, nil
}

// Lookup resolves a board name (case-sensitive key as loaded) to its alias.
func (t AliasTable) Lookup(name string) (Alias, bool) {
	a, ok := t[name]
	return a, ok
}

// LookupByVIDPID resolves a USB VID:PID pair to its friendly alias, for annotating scan results.
func (t AliasTable) LookupByVIDPID(vid, pid uint16) (Alias, bool) {
	for _, a := range t {
		if a.VID == vid && a.PID == pid {
			return a, true
		}
	}
	return Alias{}, false
}
