// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Control-transfer, IFR/efuse, key-provisioning, and image-write command methods.

package mboot

import (
	"time"

	"github.com/dswarbrick/mboot/mberr"
	"github.com/dswarbrick/mboot/memory"
	"github.com/dswarbrick/mboot/proto"
)

// Execute transfers control to jumpAddr (must be word-aligned) with the given argument and
// stack-pointer addresses.
func (m *McuBoot) Execute(jumpAddr, argument, spAddress uint32) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	cmd := proto.BuildCommand(proto.CmdExecute, false, jumpAddr, argument, spAddress)
	_, err := m.itf.WriteCmd(cmd, m.cmdTimeout())
	return err
}

// Call transfers control to callAddr (must be word-aligned) and returns to the bootloader
// afterwards, unlike Execute.
func (m *McuBoot) Call(callAddr, argument uint32) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	cmd := proto.BuildCommand(proto.CmdCall, false, callAddr, argument)
	_, err := m.itf.WriteCmd(cmd, m.cmdTimeout())
	return err
}

// Reset asks the target to reset. It is best-effort: any transport error after the command is
// sent is swallowed, since the target typically drops the link mid-acknowledgement. In non-CLI
// mode it then waits an interface-specific settle delay (UART 10 ms, SPI 5 ms, none for I²C);
// for USB it closes the transport and waits 400 ms, and does not reopen it: the engine is left
// closed.
func (m *McuBoot) Reset() error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	cmd := proto.BuildCommand(proto.CmdReset, false)
	_, _ = m.itf.WriteCmd(cmd, m.cmdTimeout())

	if m.cliMode {
		return nil
	}

	switch m.current {
	case InterfaceUART:
		time.Sleep(10 * time.Millisecond)
	case InterfaceSPI:
		time.Sleep(5 * time.Millisecond)
	case InterfaceUSB:
		_ = m.itf.Close()
		time.Sleep(400 * time.Millisecond)
		m.itf = nil
		m.current = InterfaceNone
		// Reopening USB requires the caller's original vid:pid; callers that need a
		// functioning engine across a reset should call OpenUSB again themselves.
	}
	return nil
}

// FlashSecurityDisable disables flash security using an 8-byte backdoor key. The key is appended
// word-reversed within each half: key[3..0] followed by key[7..4].
func (m *McuBoot) FlashSecurityDisable(key [8]byte) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	cmd := proto.BuildCommand(proto.CmdFlashSecurityDisable, false)
	cmd[3] = 2 // parameter_count: the two key words appended below
	cmd = append(cmd, key[3], key[2], key[1], key[0])
	cmd = append(cmd, key[7], key[6], key[5], key[4])
	_, err := m.itf.WriteCmd(cmd, m.cmdTimeout())
	return err
}

// FlashReadOnce reads byteCount (4 or 8) bytes from the flash program-once (IFR) region starting
// at index, returning the value as a uint64 (the top 32 bits are zero for a 4-byte read).
func (m *McuBoot) FlashReadOnce(index uint32, byteCount int) (uint64, error) {
	if err := m.requireOpen(); err != nil {
		return 0, err
	}
	if byteCount != 4 && byteCount != 8 {
		return 0, mberr.NewGeneric("mboot: FlashReadOnce invalid byte_count %d", byteCount)
	}
	cmd := proto.BuildCommand(proto.CmdFlashReadOnce, false, index, uint32(byteCount))
	if _, err := m.itf.WriteCmd(cmd, m.cmdTimeout()); err != nil {
		return 0, err
	}
	resp := m.itf.LastCmdResponse()
	if len(resp) < 12+byteCount {
		return 0, mberr.NewGeneric("mboot: FlashReadOnce response too short (%d bytes)", len(resp))
	}
	var value uint64
	for i := 0; i < byteCount; i++ {
		value |= uint64(resp[12+i]) << (8 * i)
	}
	return value, nil
}

// EfuseReadOnce reads one 4-byte word of the OCOTP field; it is an alias for FlashReadOnce(index, 4).
func (m *McuBoot) EfuseReadOnce(index uint32) (uint64, error) {
	return m.FlashReadOnce(index, 4)
}

// FlashProgramOnce writes data into the flash program-once (IFR) region at index. len(data) must
// equal byteCount (4 or 8); this replaces the reference implementation's undefined-variable
// branch with an explicit length check.
func (m *McuBoot) FlashProgramOnce(index uint32, byteCount int, data []byte) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	if byteCount != 4 && byteCount != 8 {
		return mberr.NewGeneric("mboot: FlashProgramOnce invalid byte_count %d", byteCount)
	}
	if len(data) != byteCount {
		return mberr.NewGeneric("mboot: FlashProgramOnce data length %d does not match byte_count %d", len(data), byteCount)
	}
	cmd := proto.BuildCommand(proto.CmdFlashProgramOnce, false, index, uint32(byteCount))
	cmd[3] = uint8(2 + byteCount/4) // parameter_count includes the appended data words
	cmd = append(cmd, data...)
	_, err := m.itf.WriteCmd(cmd, m.cmdTimeout())
	return err
}

// EfuseProgramOnce writes a 4-byte word; it is an alias for FlashProgramOnce(index, 4, data).
func (m *McuBoot) EfuseProgramOnce(index uint32, data []byte) error {
	return m.FlashProgramOnce(index, 4, data)
}

// ReceiveSBFile streams a pre-built SB (secure binary) image to the target.
func (m *McuBoot) ReceiveSBFile(data []byte) (uint32, error) {
	if err := m.requireOpen(); err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, mberr.NewGeneric("mboot: ReceiveSBFile data is empty")
	}
	cmd := proto.BuildCommand(proto.CmdReceiveSBFile, true, uint32(len(data)))
	maxPacket, err := m.GetProperty(proto.PropMaxPacketSize, 0)
	if err != nil {
		return 0, err
	}
	if _, err := m.itf.WriteCmd(cmd, m.cmdTimeout()); err != nil {
		return 0, err
	}
	return m.itf.WriteData(data, maxPacket)
}

// ReliableUpdate validates the backup application at address and, if valid, copies it over the
// main application region. Success is reported via RELIABLE_UPDATE_SUCCESS rather than the
// generic SUCCESS status: WriteCmd reports that non-zero status as a CommandError, which this
// method recognises and turns into a nil return. Any other error is returned unchanged.
func (m *McuBoot) ReliableUpdate(address uint32) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	cmd := proto.BuildCommand(proto.CmdReliableUpdate, false, address)
	_, err := m.itf.WriteCmd(cmd, m.cmdTimeout())
	if cmdErr, ok := err.(*mberr.CommandError); ok && cmdErr.Status == uint32(proto.StatusReliableUpdateSuccess) {
		return nil
	}
	return err
}

// GenerateKeyBlob sends dekData (the DEK key, as produced by the CST tool) and returns the
// generated 0x48-byte blob.
func (m *McuBoot) GenerateKeyBlob(dekData []byte) ([]byte, error) {
	if err := m.requireOpen(); err != nil {
		return nil, err
	}

	maxPacket, err := m.GetProperty(proto.PropMaxPacketSize, 0)
	if err != nil {
		return nil, err
	}

	sendCmd := proto.BuildCommand(proto.CmdGenerateKeyBlob, true, 0, uint32(len(dekData)), 0)
	if _, err := m.itf.WriteCmd(sendCmd, m.cmdTimeout()); err != nil {
		return nil, err
	}
	if _, err := m.itf.WriteData(dekData, maxPacket); err != nil {
		return nil, err
	}

	const blobLen = 0x48
	recvCmd := proto.BuildCommand(proto.CmdGenerateKeyBlob, false, 0, blobLen, 1)
	if _, err := m.itf.WriteCmd(recvCmd, m.cmdTimeout()); err != nil {
		return nil, err
	}
	return m.itf.ReadData(blobLen)
}

// KeyOperation enumerates the key-provisioning sub-operations.
type KeyOperation uint32

const (
	KeyOpEnroll KeyOperation = iota
	KeyOpSetUserKey
	KeyOpSetKey
	KeyOpWriteKeyNonvolatile
	KeyOpReadKeyNonvolatile
	KeyOpWriteKeyStore
	KeyOpReadKeyStore
)

// KeyProvisioning dispatches one of the seven key-provisioning sub-operations. Which arguments
// apply depends on op; unused arguments are ignored:
//   - Enroll: no arguments.
//   - SetUserKey: keyType, data (the key material to send).
//   - SetKey: keyType, arg (key size, in bytes, for the target to generate).
//   - WriteKeyNonvolatile / ReadKeyNonvolatile: arg (the external memory ID; 0 for internal).
//   - WriteKeyStore: keyType, data (the key store to send).
//   - ReadKeyStore: no arguments; returns the key store bytes read back.
func (m *McuBoot) KeyProvisioning(op KeyOperation, keyType, arg uint32, data []byte) ([]byte, error) {
	if err := m.requireOpen(); err != nil {
		return nil, err
	}

	switch op {
	case KeyOpEnroll:
		cmd := proto.BuildCommand(proto.CmdKeyProvisioning, false, uint32(op))
		_, err := m.itf.WriteCmd(cmd, m.cmdTimeout())
		return nil, err

	case KeyOpSetUserKey, KeyOpWriteKeyStore:
		cmd := proto.BuildCommand(proto.CmdKeyProvisioning, true, uint32(op), keyType, uint32(len(data)))
		maxPacket, err := m.GetProperty(proto.PropMaxPacketSize, 0)
		if err != nil {
			return nil, err
		}
		if _, err := m.itf.WriteCmd(cmd, m.cmdTimeout()); err != nil {
			return nil, err
		}
		_, err = m.itf.WriteData(data, maxPacket)
		return nil, err

	case KeyOpSetKey:
		cmd := proto.BuildCommand(proto.CmdKeyProvisioning, false, uint32(op), keyType, arg)
		_, err := m.itf.WriteCmd(cmd, m.cmdTimeout())
		return nil, err

	case KeyOpWriteKeyNonvolatile, KeyOpReadKeyNonvolatile:
		// arg here is the external memory ID; these two ops take no key type.
		cmd := proto.BuildCommand(proto.CmdKeyProvisioning, false, uint32(op), arg)
		_, err := m.itf.WriteCmd(cmd, m.cmdTimeout())
		return nil, err

	case KeyOpReadKeyStore:
		cmd := proto.BuildCommand(proto.CmdKeyProvisioning, false, uint32(op))
		length, err := m.itf.WriteCmd(cmd, m.cmdTimeout())
		if err != nil {
			return nil, err
		}
		return m.itf.ReadData(int(length))

	default:
		return nil, mberr.NewGeneric("mboot: KeyProvisioning invalid operation %d", op)
	}
}

// FlashImage writes data to address in the memory identified by memoryID. When erase is true, it
// first fetches FLASH_SECTOR_SIZE, rounds len(data) up to the next sector boundary, and erases
// that region before writing.
func (m *McuBoot) FlashImage(data []byte, address uint32, erase bool, memoryID uint32) (uint32, error) {
	if err := m.requireOpen(); err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, mberr.NewGeneric("mboot: FlashImage data is empty")
	}

	if erase {
		sectorSize, err := m.GetProperty(proto.PropFlashSectorSize, memoryID)
		if err != nil {
			return 0, err
		}
		eraseLen := memory.AlignUp(uint32(len(data)), sectorSize)
		if err := m.FlashEraseRegion(address, eraseLen, memoryID); err != nil {
			return 0, err
		}
	}

	maxPacket, err := m.GetProperty(proto.PropMaxPacketSize, memoryID)
	if err != nil {
		return 0, err
	}
	cmd := proto.BuildCommand(proto.CmdWriteMemory, true, address, uint32(len(data)), memoryID)
	if _, err := m.itf.WriteCmd(cmd, m.cmdTimeout()); err != nil {
		return 0, err
	}
	return m.itf.WriteData(data, maxPacket)
}
