// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Memory/flash command methods: read, write, fill, erase, external-memory configuration.

package mboot

import (
	"github.com/dswarbrick/mboot/mberr"
	"github.com/dswarbrick/mboot/proto"
)

// FillUnit selects how FillMemory packs its pattern argument into the command payload.
type FillUnit int

const (
	FillWord FillUnit = iota
	FillShort
	FillByte
)

// FlashEraseAll erases the complete flash memory identified by memoryID (0 = internal).
// Timeout defaults to 300s unless the caller overrides McuBoot.Timeout.
func (m *McuBoot) FlashEraseAll(memoryID uint32) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	cmd := proto.BuildCommand(proto.CmdFlashEraseAll, false, memoryID)
	_, err := m.itf.WriteCmd(cmd, m.eraseTimeout())
	return err
}

// FlashEraseRegion erases [addr, addr+length) in the flash identified by memoryID.
func (m *McuBoot) FlashEraseRegion(addr, length, memoryID uint32) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	cmd := proto.BuildCommand(proto.CmdFlashEraseRegion, false, addr, length, memoryID)
	_, err := m.itf.WriteCmd(cmd, m.eraseTimeout())
	return err
}

// FlashEraseAllUnsecure erases the complete flash and recovers the flash security section.
func (m *McuBoot) FlashEraseAllUnsecure() error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	cmd := proto.BuildCommand(proto.CmdFlashEraseAllUnsecure, false)
	_, err := m.itf.WriteCmd(cmd, m.eraseTimeout())
	return err
}

// ReadMemory reads length bytes starting at addr from the memory identified by memoryID.
// length must be non-zero.
func (m *McuBoot) ReadMemory(addr, length, memoryID uint32) ([]byte, error) {
	if err := m.requireOpen(); err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, mberr.NewGeneric("mboot: ReadMemory length must be non-zero")
	}
	cmd := proto.BuildCommand(proto.CmdReadMemory, true, addr, length, memoryID)
	if _, err := m.itf.WriteCmd(cmd, m.cmdTimeout()); err != nil {
		return nil, err
	}
	return m.itf.ReadData(int(length))
}

// WriteMemory writes data starting at addr to the memory identified by memoryID, chunked to the
// target's reported MAX_PACKET_SIZE, and returns the number of bytes the target acknowledges.
func (m *McuBoot) WriteMemory(addr uint32, data []byte, memoryID uint32) (uint32, error) {
	if err := m.requireOpen(); err != nil {
		return 0, err
	}
	maxPacket, err := m.GetProperty(proto.PropMaxPacketSize, 0)
	if err != nil {
		return 0, err
	}
	cmd := proto.BuildCommand(proto.CmdWriteMemory, true, addr, uint32(len(data)), memoryID)
	if _, err := m.itf.WriteCmd(cmd, m.cmdTimeout()); err != nil {
		return 0, err
	}
	return m.itf.WriteData(data, maxPacket)
}

// FillMemory fills length bytes starting at addr with pattern, packed per unit. unit=short packs
// pattern into both halves of the word; unit=byte replicates it into all four bytes; unit=word
// sends pattern unmodified. pattern that exceeds the unit's range is an argument error.
func (m *McuBoot) FillMemory(addr, length, pattern uint32, unit FillUnit) error {
	if err := m.requireOpen(); err != nil {
		return err
	}

	var packed uint32
	switch unit {
	case FillWord:
		packed = pattern
	case FillShort:
		if pattern > 0xFFFF {
			return mberr.NewGeneric("mboot: FillMemory pattern %#x exceeds short range", pattern)
		}
		packed = pattern<<16 | pattern
	case FillByte:
		if pattern > 0xFF {
			return mberr.NewGeneric("mboot: FillMemory pattern %#x exceeds byte range", pattern)
		}
		packed = pattern<<24 | pattern<<16 | pattern<<8 | pattern
	default:
		return mberr.NewGeneric("mboot: FillMemory invalid unit %d", unit)
	}

	cmd := proto.BuildCommand(proto.CmdFillMemory, false, addr, length, packed)
	_, err := m.itf.WriteCmd(cmd, m.cmdTimeout())
	return err
}

// FlashReadResource reads byteCount bytes of Flash IFR (option=0) or Flash Firmware ID
// (option=1) starting at startAddress. The actual returned length is min(byteCount, the length
// the target reports).
func (m *McuBoot) FlashReadResource(startAddress, byteCount, option uint32) ([]byte, error) {
	if err := m.requireOpen(); err != nil {
		return nil, err
	}
	cmd := proto.BuildCommand(proto.CmdFlashReadResource, true, startAddress, byteCount, option)
	rxLen, err := m.itf.WriteCmd(cmd, m.cmdTimeout())
	if err != nil {
		return nil, err
	}
	length := byteCount
	if rxLen < length {
		length = rxLen
	}
	return m.itf.ReadData(int(length))
}

// ConfigureMemory points the target at the configuration block for external memory memoryID.
func (m *McuBoot) ConfigureMemory(memoryID, address uint32) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	cmd := proto.BuildCommand(proto.CmdConfigureMemory, false, memoryID, address)
	_, err := m.itf.WriteCmd(cmd, m.cmdTimeout())
	return err
}
