// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Property command methods: get/set, plus the higher-level MCU-info and memory-range helpers
// built on top of them.

package mboot

import (
	"github.com/dswarbrick/mboot/mberr"
	"github.com/dswarbrick/mboot/memory"
	"github.com/dswarbrick/mboot/proto"
)

// GetProperty reads property tag for memoryID (0 for on-chip properties) and returns the raw
// primary value. Use GetPropertyDecoded for a human-readable rendering.
func (m *McuBoot) GetProperty(tag proto.PropertyTag, memoryID uint32) (uint32, error) {
	if err := m.requireOpen(); err != nil {
		return 0, err
	}
	cmd := proto.BuildCommand(proto.CmdGetProperty, false, uint32(tag), memoryID)
	value, err := m.itf.WriteCmd(cmd, m.cmdTimeout())
	if err != nil {
		return 0, err
	}
	return value, nil
}

// GetPropertyDecoded is GetProperty followed by proto.Decode against the transport's last raw
// response, which some properties (reserved regions, unique ID, external memory attributes)
// need in full to decode correctly.
func (m *McuBoot) GetPropertyDecoded(tag proto.PropertyTag, memoryID uint32) (proto.Decoded, error) {
	if err := m.requireOpen(); err != nil {
		return proto.Decoded{}, err
	}
	cmd := proto.BuildCommand(proto.CmdGetProperty, false, uint32(tag), memoryID)
	if _, err := m.itf.WriteCmd(cmd, m.cmdTimeout()); err != nil {
		return proto.Decoded{}, err
	}
	resp, err := proto.ParseResponse(m.itf.LastCmdResponse())
	if err != nil {
		return proto.Decoded{}, err
	}
	return proto.Decode(tag, resp, memoryID)
}

// SetProperty writes value to property tag for memoryID.
func (m *McuBoot) SetProperty(tag proto.PropertyTag, value, memoryID uint32) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	cmd := proto.BuildCommand(proto.CmdSetProperty, false, uint32(tag), value, memoryID)
	_, err := m.itf.WriteCmd(cmd, m.cmdTimeout())
	return err
}

// MCUInfo is a snapshot of the chip-identifying properties, gathered by GetMCUInfo.
type MCUInfo struct {
	CurrentVersion   proto.Version
	TargetVersion    *proto.Version
	AvailablePeripherals []string
	AvailableCommands    []string
	FlashStartAddress uint32
	FlashSize         uint32
	FlashSectorSize   uint32
	FlashBlockCount   uint32
	RAMStartAddress   uint32
	RAMSize           uint32
	UniqueDeviceIdent []uint32
}

// GetMCUInfo queries the standard set of identifying properties, skipping any that the target
// reports as unsupported (a CommandError) rather than failing the whole call; any other error
// still propagates.
func (m *McuBoot) GetMCUInfo() (MCUInfo, error) {
	var info MCUInfo

	get := func(tag proto.PropertyTag) (proto.Decoded, bool, error) {
		d, err := m.GetPropertyDecoded(tag, 0)
		if err == nil {
			return d, true, nil
		}
		if _, ok := err.(*mberr.CommandError); ok {
			return proto.Decoded{}, false, nil
		}
		return proto.Decoded{}, false, err
	}

	if d, ok, err := get(proto.PropCurrentVersion); err != nil {
		return info, err
	} else if ok && d.Version != nil {
		info.CurrentVersion = *d.Version
	}

	if d, ok, err := get(proto.PropTargetVersion); err != nil {
		return info, err
	} else if ok && d.Version != nil {
		info.TargetVersion = d.Version
	}

	if d, ok, err := get(proto.PropAvailablePeripherals); err != nil {
		return info, err
	} else if ok {
		info.AvailablePeripherals = d.Peripherals
	}

	if d, ok, err := get(proto.PropAvailableCommands); err != nil {
		return info, err
	} else if ok {
		info.AvailableCommands = d.Commands
	}

	if d, ok, err := get(proto.PropFlashStartAddress); err != nil {
		return info, err
	} else if ok {
		info.FlashStartAddress = d.Raw
	}

	if d, ok, err := get(proto.PropFlashSize); err != nil {
		return info, err
	} else if ok {
		info.FlashSize = d.Raw
	}

	if d, ok, err := get(proto.PropFlashSectorSize); err != nil {
		return info, err
	} else if ok {
		info.FlashSectorSize = d.Raw
	}

	if d, ok, err := get(proto.PropFlashBlockCount); err != nil {
		return info, err
	} else if ok {
		info.FlashBlockCount = d.Raw
	}

	if d, ok, err := get(proto.PropRAMStartAddress); err != nil {
		return info, err
	} else if ok {
		info.RAMStartAddress = d.Raw
	}

	if d, ok, err := get(proto.PropRAMSize); err != nil {
		return info, err
	} else if ok {
		info.RAMSize = d.Raw
	}

	if d, ok, err := get(proto.PropUniqueDeviceIdent); err != nil {
		return info, err
	} else if ok {
		info.UniqueDeviceIdent = d.UniqueID
	}

	return info, nil
}

// GetMemoryRange populates m.Memory and m.Flash from the target's RAM/flash properties, so
// subsequent IsInMemory/IsInFlash calls can validate addresses before issuing destructive
// operations.
func (m *McuBoot) GetMemoryRange() error {
	info, err := m.GetMCUInfo()
	if err != nil {
		return err
	}

	if info.RAMSize != 0 {
		mem, err := memory.NewBlock(info.RAMStartAddress, 0, info.RAMSize)
		if err != nil {
			return err
		}
		m.Memory = &memory.Memory{Block: mem}
	}

	if info.FlashSize != 0 {
		flash, err := memory.NewFlash(info.FlashStartAddress, 0, info.FlashSize, info.FlashSectorSize)
		if err != nil {
			return err
		}
		m.Flash = &flash
	}

	return nil
}

// IsInMemory reports whether [addr, addr+length) lies entirely within the last-fetched RAM
// range. Call GetMemoryRange first; containment defaults permissive (true) until then, since
// there is nothing yet to validate against.
func (m *McuBoot) IsInMemory(addr, length uint32) (bool, error) {
	if m.Memory == nil {
		return true, nil
	}
	block, err := memory.NewBlock(addr, 0, length)
	if err != nil {
		return false, err
	}
	return m.Memory.Contains(block), nil
}

// IsInFlash reports whether [addr, addr+length) lies entirely within the last-fetched flash
// range. Call GetMemoryRange first; containment defaults permissive (true) until then, since
// there is nothing yet to validate against.
func (m *McuBoot) IsInFlash(addr, length uint32) (bool, error) {
	if m.Flash == nil {
		return true, nil
	}
	block, err := memory.NewBlock(addr, 0, length)
	if err != nil {
		return false, err
	}
	return m.Flash.Contains(block), nil
}

// GetExternalMemoryAttributes queries EXTERNAL_MEMORY_ATTRIBUTES for memoryID and returns the
// decoded structure. It does not call ConfigureMemory; the memory must already be configured on
// the target.
func (m *McuBoot) GetExternalMemoryAttributes(memoryID uint32) (proto.ExternalMemoryAttributes, error) {
	d, err := m.GetPropertyDecoded(proto.PropExternalMemoryAttributes, memoryID)
	if err != nil {
		return proto.ExternalMemoryAttributes{}, err
	}
	if d.ExternalMem == nil {
		return proto.ExternalMemoryAttributes{}, mberr.NewGeneric("mboot: target returned no external memory attributes for memory %#x", memoryID)
	}
	return *d.ExternalMem, nil
}
