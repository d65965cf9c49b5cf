// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Property value decoding: turns a raw GetProperty response into a typed, displayable value.

package proto

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Version is the 3-part "major.minor.bugfix" encoding used by CURRENT_VERSION/TARGET_VERSION.
type Version struct {
	Major, Minor, Bugfix uint8
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Bugfix)
}

func decodeVersion(raw uint32) Version {
	return Version{
		Major:  uint8((raw >> 16) & 0xFF),
		Minor:  uint8((raw >> 8) & 0xFF),
		Bugfix: uint8(raw & 0xFF),
	}
}

// ExternalMemoryAttributes is the decoded EXTERNAL_MEMORY_ATTRIBUTES property, a 6xu32 struct
// carried in the response payload rather than in a single PrimaryValue word.
type ExternalMemoryAttributes struct {
	MemoryID     uint32
	PropTags     ExtMemPropTag
	StartAddress uint32
	TotalSizeKB  uint32
	PageSize     uint32
	SectorSize   uint32
	BlockSize    uint32
}

func (a ExternalMemoryAttributes) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Memory Id: %#x", a.MemoryID))
	if a.PropTags&ExtMemStartAddress != 0 {
		parts = append(parts, fmt.Sprintf("Start Address: %#08x", a.StartAddress))
	}
	if a.PropTags&ExtMemSizeInKBytes != 0 {
		parts = append(parts, fmt.Sprintf("Total Size: %d KiB", a.TotalSizeKB))
	}
	if a.PropTags&ExtMemPageSize != 0 {
		parts = append(parts, fmt.Sprintf("Page Size: %d", a.PageSize))
	}
	if a.PropTags&ExtMemSectorSize != 0 {
		parts = append(parts, fmt.Sprintf("Sector Size: %d", a.SectorSize))
	}
	if a.PropTags&ExtMemBlockSize != 0 {
		parts = append(parts, fmt.Sprintf("Block Size: %d", a.BlockSize))
	}
	return strings.Join(parts, ", ")
}

// Region is a [start, end) pair as carried in RESERVED_REGIONS.
type Region struct {
	Start, End uint32
}

func (r Region) String() string { return fmt.Sprintf("0x%08X - 0x%08X", r.Start, r.End) }

// Decoded is the result of decoding a GetProperty response: a raw value plus a human-readable
// rendering, and, for properties whose wire form carries more than one word, the parsed struct.
type Decoded struct {
	Tag     PropertyTag
	Raw     uint32
	Display string

	Version       *Version
	Peripherals   []string
	Commands      []string
	Regions       []Region
	UniqueID      []uint32
	ExternalMem   *ExternalMemoryAttributes
}

var flashSecurityStates = map[uint32]string{
	0x00000000: "Unlocked",
	0x00000001: "Locked",
	0x5AA55AA5: "Unlocked",
	0xC33CC33C: "Locked",
}

var flashReadMarginNames = map[uint32]string{
	0: "Normal",
	1: "User",
	2: "Factory",
}

// Decode interprets resp.PrimaryValue() (and, for multi-word properties, resp.Raw) according to
// tag's wire format. memoryID is only consulted for EXTERNAL_MEMORY_ATTRIBUTES, which is only
// meaningful in the context of the external memory it was queried for.
func Decode(tag PropertyTag, resp Response, memoryID uint32) (Decoded, error) {
	raw := resp.PrimaryValue()
	d := Decoded{Tag: tag, Raw: raw}

	switch tag {
	case PropCurrentVersion, PropTargetVersion:
		v := decodeVersion(raw)
		d.Version = &v
		d.Display = v.String()

	case PropAvailablePeripherals:
		d.Peripherals = AvailablePeripheralNames(raw)
		d.Display = strings.Join(d.Peripherals, ", ")

	case PropCrcCheckStatus, PropQspiInitStatus, PropReliableUpdateStatus:
		d.Display = StatusCode(raw).Name()

	case PropVerifyWrites:
		d.Display = onOff(raw != 0)

	case PropReservedRegions:
		regions, err := decodeRegions(resp.Raw)
		if err != nil {
			return Decoded{}, err
		}
		d.Regions = regions
		var strs []string
		for _, r := range regions {
			strs = append(strs, r.String())
		}
		d.Display = strings.Join(strs, ", ")

	case PropUniqueDeviceIdent:
		words, err := wordsAfterHeader(resp.Raw)
		if err != nil {
			return Decoded{}, err
		}
		d.UniqueID = words
		var strs []string
		for _, w := range words {
			strs = append(strs, fmt.Sprintf("%08X", w))
		}
		d.Display = strings.Join(strs, " ")

	case PropFlashFacSupport:
		d.Display = "UNSUPPORTED"
		if raw != 0 {
			d.Display = "SUPPORTED"
		}

	case PropFlashSecurityState:
		if name, ok := flashSecurityStates[raw]; ok {
			d.Display = name
		} else {
			d.Display = fmt.Sprintf("Unknown (%#08x)", raw)
		}

	case PropAvailableCommands:
		d.Commands = AvailableCommandNames(raw)
		d.Display = strings.Join(d.Commands, ", ")

	case PropMaxPacketSize, PropFlashSectorSize, PropFlashSize, PropRAMSize, PropFlashAccessSegmentSize:
		d.Display = FormatBytes(raw)

	case PropRAMStartAddress, PropFlashStartAddress, PropSystemDeviceIdent:
		d.Display = fmt.Sprintf("%#08x", raw)

	case PropFlashAccessSegmentCount, PropFlashBlockCount, PropValidateRegions:
		d.Display = fmt.Sprintf("%#x", raw)

	case PropFlashReadMargin:
		if name, ok := flashReadMarginNames[raw]; ok {
			d.Display = fmt.Sprintf("%s (%#x)", name, raw)
		} else {
			d.Display = fmt.Sprintf("Unknown (%#x)", raw)
		}

	case PropExternalMemoryAttributes:
		if memoryID == 0 {
			d.Display = fmt.Sprintf("%#x", raw)
			break
		}
		attrs, err := decodeExternalMemoryAttributes(resp.Raw, memoryID)
		if err != nil {
			return Decoded{}, err
		}
		d.ExternalMem = &attrs
		d.Display = attrs.String()

	case PropIrqNotifierPin:
		pin := raw & 0xFF
		port := (raw >> 8) & 0xFF
		// The enable flag sits in bit 16, immediately above the port byte.
		enabled := raw&(1<<16) != 0
		if enabled {
			d.Display = fmt.Sprintf("Irq pin is enabled, using GPIO port[%d], pin[%d]", port, pin)
		} else {
			d.Display = "Irq pin is disabled"
		}

	case PropPfrKeystoreUpdateOpt:
		switch raw {
		case 0:
			d.Display = "FFR KeyStore Update is Key Provisioning"
		case 1:
			d.Display = "FFR KeyStore Update is Write Memory"
		default:
			d.Display = "FFR KeyStore Update is UnKnown Option"
		}

	default:
		d.Display = fmt.Sprintf("%#x", raw)
	}

	return d, nil
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// wordsAfterHeader returns the u32 words carried after the 8-byte [header][status] prefix of a
// raw response payload.
func wordsAfterHeader(raw []byte) ([]uint32, error) {
	if len(raw) < 8 {
		return nil, fmt.Errorf("proto: response too short to decode (%d bytes)", len(raw))
	}
	n := (len(raw) - 8) / 4
	words := make([]uint32, n)
	for i := 0; i < n; i++ {
		words[i] = binary.LittleEndian.Uint32(raw[8+4*i : 12+4*i])
	}
	return words, nil
}

func decodeRegions(raw []byte) ([]Region, error) {
	words, err := wordsAfterHeader(raw)
	if err != nil {
		return nil, err
	}
	var regions []Region
	for i := 0; i+1 < len(words); i += 2 {
		start, end := words[i], words[i+1]
		if start == 0 && end == 0 {
			continue
		}
		regions = append(regions, Region{Start: start, End: end})
	}
	return regions, nil
}

func decodeExternalMemoryAttributes(raw []byte, memoryID uint32) (ExternalMemoryAttributes, error) {
	if len(raw) < 8+6*4 {
		return ExternalMemoryAttributes{}, fmt.Errorf("proto: EXTERNAL_MEMORY_ATTRIBUTES response too short (%d bytes)", len(raw))
	}
	words := make([]uint32, 6)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(raw[8+4*i : 12+4*i])
	}
	return ExternalMemoryAttributes{
		MemoryID:     memoryID,
		PropTags:     ExtMemPropTag(words[0]),
		StartAddress: words[1],
		TotalSizeKB:  words[2],
		PageSize:     words[3],
		SectorSize:   words[4],
		BlockSize:    words[5],
	}, nil
}

// FormatBytes renders a byte count the way the reference tooling does: plain decimal for small
// values, with a KiB/MiB/GiB suffix once it crosses the corresponding power of 1024.
func FormatBytes(n uint32) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := uint64(n) / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
