// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Numeric tag tables fixed by the bootloader ROM: command tags, property tags, status codes,
// and external-memory IDs. Callers rely on numeric equality; name lookup exists for logging
// and user-visible output only.

package proto

import (
	"fmt"
	"strings"
	"unicode"
)

// CommandTag identifies an MBoot command.
type CommandTag uint8

const (
	CmdFlashEraseAll          CommandTag = 0x01
	CmdFlashEraseRegion       CommandTag = 0x02
	CmdReadMemory             CommandTag = 0x03
	CmdWriteMemory            CommandTag = 0x04
	CmdFillMemory             CommandTag = 0x05
	CmdFlashSecurityDisable   CommandTag = 0x06
	CmdGetProperty            CommandTag = 0x07
	CmdReceiveSBFile          CommandTag = 0x08
	CmdExecute                CommandTag = 0x09
	CmdCall                   CommandTag = 0x0A
	CmdReset                  CommandTag = 0x0B
	CmdSetProperty            CommandTag = 0x0C
	CmdFlashEraseAllUnsecure  CommandTag = 0x0D
	CmdFlashProgramOnce       CommandTag = 0x0E
	CmdFlashReadOnce          CommandTag = 0x0F
	CmdFlashReadResource      CommandTag = 0x10
	CmdConfigureMemory        CommandTag = 0x11
	CmdReliableUpdate         CommandTag = 0x12
	CmdGenerateKeyBlob        CommandTag = 0x13
	CmdKeyProvisioning        CommandTag = 0x15
	CmdFlashImage             CommandTag = 0x16
	CmdConfigureI2C           CommandTag = 0xC1
	CmdConfigureSPI           CommandTag = 0xC2
	CmdConfigureCAN           CommandTag = 0xC3
)

var commandNames = map[CommandTag]string{
	CmdFlashEraseAll:         "FlashEraseAll",
	CmdFlashEraseRegion:      "FlashEraseRegion",
	CmdReadMemory:            "ReadMemory",
	CmdWriteMemory:           "WriteMemory",
	CmdFillMemory:            "FillMemory",
	CmdFlashSecurityDisable:  "FlashSecurityDisable",
	CmdGetProperty:           "GetProperty",
	CmdReceiveSBFile:         "ReceiveSBFile",
	CmdExecute:               "Execute",
	CmdCall:                  "Call",
	CmdReset:                 "Reset",
	CmdSetProperty:           "SetProperty",
	CmdFlashEraseAllUnsecure: "FlashEraseAllUnsecure",
	CmdFlashProgramOnce:      "FlashProgramOnce",
	CmdFlashReadOnce:         "FlashReadOnce",
	CmdFlashReadResource:     "FlashReadResource",
	CmdConfigureMemory:       "ConfigureMemory",
	CmdReliableUpdate:        "ReliableUpdate",
	CmdGenerateKeyBlob:       "GenerateKeyBlob",
	CmdKeyProvisioning:       "KeyProvisioning",
	CmdFlashImage:            "FlashImage",
	CmdConfigureI2C:          "ConfigureI2c",
	CmdConfigureSPI:          "ConfigureSpi",
	CmdConfigureCAN:          "ConfigureCan",
}

func (c CommandTag) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CommandTag(%#02x)", uint8(c))
}

// PropertyTag identifies a readable (and sometimes writable) device property.
type PropertyTag uint32

const (
	PropListProperties            PropertyTag = 0x00
	PropCurrentVersion             PropertyTag = 0x01
	PropAvailablePeripherals        PropertyTag = 0x02
	PropFlashStartAddress           PropertyTag = 0x03
	PropFlashSize                   PropertyTag = 0x04
	PropFlashSectorSize              PropertyTag = 0x05
	PropFlashBlockCount              PropertyTag = 0x06
	PropAvailableCommands            PropertyTag = 0x07
	PropCrcCheckStatus               PropertyTag = 0x08
	PropVerifyWrites                 PropertyTag = 0x0A
	PropMaxPacketSize                PropertyTag = 0x0B
	PropReservedRegions              PropertyTag = 0x0C
	PropValidateRegions              PropertyTag = 0x0D
	PropRAMStartAddress              PropertyTag = 0x0E
	PropRAMSize                      PropertyTag = 0x0F
	PropSystemDeviceIdent            PropertyTag = 0x10
	PropFlashSecurityState           PropertyTag = 0x11
	PropUniqueDeviceIdent            PropertyTag = 0x12
	PropFlashFacSupport              PropertyTag = 0x13
	PropFlashAccessSegmentSize       PropertyTag = 0x14
	PropFlashAccessSegmentCount      PropertyTag = 0x15
	PropFlashReadMargin              PropertyTag = 0x16
	PropQspiInitStatus               PropertyTag = 0x17
	PropTargetVersion                PropertyTag = 0x18
	PropExternalMemoryAttributes     PropertyTag = 0x19
	PropReliableUpdateStatus         PropertyTag = 0x1A
	PropFlashPageSize                PropertyTag = 0x1B
	PropIrqNotifierPin               PropertyTag = 0x1C
	PropPfrKeystoreUpdateOpt         PropertyTag = 0x1D
)

var propertyNames = map[PropertyTag]string{
	PropListProperties:          "ListProperties",
	PropCurrentVersion:          "CurrentVersion",
	PropAvailablePeripherals:    "AvailablePeripherals",
	PropFlashStartAddress:       "FlashStartAddress",
	PropFlashSize:               "FlashSize",
	PropFlashSectorSize:         "FlashSectorSize",
	PropFlashBlockCount:         "FlashBlockCount",
	PropAvailableCommands:       "AvailableCommands",
	PropCrcCheckStatus:          "CrcCheckStatus",
	PropVerifyWrites:            "VerifyWrites",
	PropMaxPacketSize:           "MaxPacketSize",
	PropReservedRegions:         "ReservedRegions",
	PropValidateRegions:         "ValidateRegions",
	PropRAMStartAddress:         "RAMStartAddress",
	PropRAMSize:                 "RAMSize",
	PropSystemDeviceIdent:       "SystemDeviceIdent",
	PropFlashSecurityState:      "FlashSecurityState",
	PropUniqueDeviceIdent:       "UniqueDeviceIdent",
	PropFlashFacSupport:         "FlashFacSupport",
	PropFlashAccessSegmentSize:  "FlashAccessSegmentSize",
	PropFlashAccessSegmentCount: "FlashAccessSegmentCount",
	PropFlashReadMargin:         "FlashReadMargin",
	PropQspiInitStatus:          "QspiInitStatus",
	PropTargetVersion:           "TargetVersion",
	PropExternalMemoryAttributes: "ExternalMemoryAttributes",
	PropReliableUpdateStatus:    "ReliableUpdateStatus",
	PropFlashPageSize:           "FlashPageSize",
	PropIrqNotifierPin:          "IrqNotifierPin",
	PropPfrKeystoreUpdateOpt:    "PfrKeystoreUpdateOpt",
}

func (p PropertyTag) String() string {
	if name, ok := propertyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PropertyTag(%#02x)", uint32(p))
}

// LookupPropertyByFlagName resolves a kebab-case CLI flag value (e.g. "current-version") to its
// PropertyTag, matching propertyNames case-insensitively against the hyphenated form of the name.
func LookupPropertyByFlagName(flagName string) (PropertyTag, bool) {
	for tag, name := range propertyNames {
		if kebabCase(name) == strings.ToLower(flagName) {
			return tag, true
		}
	}
	return 0, false
}

func kebabCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(rune(name[i-1])) {
			b.WriteByte('-')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// StatusCode is the numeric result carried by every response payload.
type StatusCode uint32

const (
	StatusSuccess              StatusCode = 0
	StatusFail                 StatusCode = 1
	StatusReadOnly              StatusCode = 2
	StatusOutOfRange             StatusCode = 3
	StatusInvalidArgument        StatusCode = 4
	StatusTimeout                StatusCode = 5
	StatusNoTransferInProgress   StatusCode = 6

	StatusFlashSizeError             StatusCode = 100
	StatusFlashAlignmentError        StatusCode = 101
	StatusFlashAddressError          StatusCode = 102
	StatusFlashAccessError           StatusCode = 103
	StatusFlashProtectionViolation   StatusCode = 104
	StatusFlashCommandFailure        StatusCode = 105
	StatusFlashUnknownProperty       StatusCode = 106
	StatusFlashRegionExecuteOnly     StatusCode = 108
	StatusFlashExecInRamNotReady     StatusCode = 109
	StatusFlashCommandNotSupported   StatusCode = 111
	StatusFlashOutOfDateCfpaPage     StatusCode = 132

	StatusI2CSlaveTxUnderrun StatusCode = 200
	StatusI2CSlaveRxOverrun  StatusCode = 201
	StatusI2CArbitrationLost StatusCode = 202

	StatusSPISlaveTxUnderrun StatusCode = 300
	StatusSPISlaveRxOverrun  StatusCode = 301

	StatusQspiFlashSizeError        StatusCode = 400
	StatusQspiFlashAlignmentError   StatusCode = 401
	StatusQspiFlashAddressError     StatusCode = 402
	StatusQspiFlashCommandFailure   StatusCode = 403
	StatusQspiFlashUnknownProperty  StatusCode = 404
	StatusQspiNotConfigured         StatusCode = 405
	StatusQspiCommandNotSupported   StatusCode = 406
	StatusQspiCommandTimeout        StatusCode = 407
	StatusQspiWriteFailure          StatusCode = 408

	StatusOtfadSecurityViolation StatusCode = 500
	StatusOtfadLogicallyDisabled StatusCode = 501
	StatusOtfadInvalidKey        StatusCode = 502
	StatusOtfadInvalidKeyBlob    StatusCode = 503

	StatusUnknownCommand      StatusCode = 10000
	StatusSecurityViolation   StatusCode = 10001
	StatusAbortDataPhase      StatusCode = 10002
	StatusPingError           StatusCode = 10003
	StatusNoResponse          StatusCode = 10004
	StatusNoResponseExpected  StatusCode = 10005
	StatusUnsupportedCommand  StatusCode = 10006

	StatusRomLdrSectionOverrun          StatusCode = 10100
	StatusRomLdrSignature               StatusCode = 10101
	StatusRomLdrSectionLength            StatusCode = 10102
	StatusRomLdrUnencryptedOnly          StatusCode = 10103
	StatusRomLdrEOFReached               StatusCode = 10104
	StatusRomLdrChecksum                 StatusCode = 10105
	StatusRomLdrCrc32Error               StatusCode = 10106
	StatusRomLdrUnknownCommand           StatusCode = 10107
	StatusRomLdrIdNotFound               StatusCode = 10108
	StatusRomLdrDataUnderrun             StatusCode = 10109
	StatusRomLdrJumpReturned             StatusCode = 10110
	StatusRomLdrCallFailed               StatusCode = 10111
	StatusRomLdrKeyNotFound              StatusCode = 10112
	StatusRomLdrSecureOnly               StatusCode = 10113
	StatusRomLdrResetReturned            StatusCode = 10114
	StatusRomLdrRollbackBlocked          StatusCode = 10115
	StatusRomLdrInvalidSectionMacCount   StatusCode = 10116
	StatusRomLdrUnexpectedCommand        StatusCode = 10117

	StatusMemoryRangeInvalid                      StatusCode = 10200
	StatusMemoryReadFailed                        StatusCode = 10201
	StatusMemoryWriteFailed                       StatusCode = 10202
	StatusMemoryCumulativeWrite                   StatusCode = 10203
	StatusMemoryAppOverlapWithExecuteOnlyRegion    StatusCode = 10204
	StatusMemoryNotConfigured                      StatusCode = 10205
	StatusMemoryAlignmentError                     StatusCode = 10206
	StatusMemoryVerifyFailed                       StatusCode = 10207
	StatusMemoryWriteProtected                     StatusCode = 10208
	StatusMemoryAddressError                       StatusCode = 10209
	StatusMemoryBlankCheckFailed                   StatusCode = 10210
	StatusMemoryBlankPageReadDisallowed            StatusCode = 10211
	StatusMemoryProtectedPageReadDisallowed        StatusCode = 10212
	StatusMemoryFfrSpecRegionWriteBroken           StatusCode = 10213
	StatusMemoryUnsupportedCommand                 StatusCode = 10214

	StatusUnknownProperty      StatusCode = 10300
	StatusReadOnlyProperty      StatusCode = 10301
	StatusInvalidPropertyValue  StatusCode = 10302

	StatusAppCrcCheckPassed      StatusCode = 10400
	StatusAppCrcCheckFailed      StatusCode = 10401
	StatusAppCrcCheckInactive    StatusCode = 10402
	StatusAppCrcCheckInvalid     StatusCode = 10403
	StatusAppCrcCheckOutOfRange  StatusCode = 10404

	StatusNoPingResponse    StatusCode = 10500
	StatusInvalidPacketType StatusCode = 10501
	StatusInvalidCRC        StatusCode = 10502
	StatusNoCommandResponse StatusCode = 10503

	StatusReliableUpdateSuccess StatusCode = 10600
)

var statusNames = map[StatusCode]string{
	StatusSuccess:              "Success",
	StatusFail:                 "Fail",
	StatusReadOnly:             "ReadOnly",
	StatusOutOfRange:           "OutOfRange",
	StatusInvalidArgument:      "InvalidArgument",
	StatusTimeout:              "Timeout",
	StatusNoTransferInProgress: "NoTransferInProgress",

	StatusFlashSizeError:           "FlashSizeError",
	StatusFlashAlignmentError:      "FlashAlignmentError",
	StatusFlashAddressError:        "FlashAddressError",
	StatusFlashAccessError:         "FlashAccessError",
	StatusFlashProtectionViolation: "FlashProtectionViolation",
	StatusFlashCommandFailure:      "FlashCommandFailure",
	StatusFlashUnknownProperty:     "FlashUnknownProperty",
	StatusFlashRegionExecuteOnly:   "FlashRegionExecuteOnly",
	StatusFlashExecInRamNotReady:   "FlashExecuteInRamFunctionNotReady",
	StatusFlashCommandNotSupported: "FlashCommandNotSupported",
	StatusFlashOutOfDateCfpaPage:   "FlashOutOfDateCfpaPage",

	StatusI2CSlaveTxUnderrun: "I2cSlaveTxUnderrun",
	StatusI2CSlaveRxOverrun:  "I2cSlaveRxOverrun",
	StatusI2CArbitrationLost: "I2cArbitrationLost",

	StatusSPISlaveTxUnderrun: "SpiSlaveTxUnderrun",
	StatusSPISlaveRxOverrun:  "SpiSlaveRxOverrun",

	StatusQspiFlashSizeError:       "QspiFlashSizeError",
	StatusQspiFlashAlignmentError:  "QspiFlashAlignmentError",
	StatusQspiFlashAddressError:    "QspiFlashAddressError",
	StatusQspiFlashCommandFailure:  "QspiFlashCommandFailure",
	StatusQspiFlashUnknownProperty: "QspiFlashUnknownProperty",
	StatusQspiNotConfigured:        "QspiNotConfigured",
	StatusQspiCommandNotSupported:  "QspiCommandNotSupported",
	StatusQspiCommandTimeout:       "QspiCommandTimeout",
	StatusQspiWriteFailure:         "QspiWriteFailure",

	StatusOtfadSecurityViolation: "OtfadSecurityViolation",
	StatusOtfadLogicallyDisabled: "OtfadLogicallyDisabled",
	StatusOtfadInvalidKey:        "OtfadInvalidKey",
	StatusOtfadInvalidKeyBlob:    "OtfadInvalidKeyBlob",

	StatusUnknownCommand:     "UnknownCommand",
	StatusSecurityViolation:  "SecurityViolation",
	StatusAbortDataPhase:     "AbortDataPhase",
	StatusPingError:          "PingError",
	StatusNoResponse:         "NoResponse",
	StatusNoResponseExpected: "NoResponseExpected",
	StatusUnsupportedCommand: "UnsupportedCommand",

	StatusRomLdrSectionOverrun:        "RomLdrSectionOverrun",
	StatusRomLdrSignature:             "RomLdrSignature",
	StatusRomLdrSectionLength:         "RomLdrSectionLength",
	StatusRomLdrUnencryptedOnly:       "RomLdrUnencryptedOnly",
	StatusRomLdrEOFReached:            "RomLdrEOFReached",
	StatusRomLdrChecksum:              "RomLdrChecksum",
	StatusRomLdrCrc32Error:            "RomLdrCrc32Error",
	StatusRomLdrUnknownCommand:        "RomLdrUnknownCommand",
	StatusRomLdrIdNotFound:            "RomLdrIdNotFound",
	StatusRomLdrDataUnderrun:          "RomLdrDataUnderrun",
	StatusRomLdrJumpReturned:          "RomLdrJumpReturned",
	StatusRomLdrCallFailed:            "RomLdrCallFailed",
	StatusRomLdrKeyNotFound:           "RomLdrKeyNotFound",
	StatusRomLdrSecureOnly:            "RomLdrSecureOnly",
	StatusRomLdrResetReturned:         "RomLdrResetReturned",
	StatusRomLdrRollbackBlocked:       "RomLdrRollbackBlocked",
	StatusRomLdrInvalidSectionMacCount: "RomLdrInvalidSectionMacCount",
	StatusRomLdrUnexpectedCommand:     "RomLdrUnexpectedCommand",

	StatusMemoryRangeInvalid:                   "MemoryRangeInvalid",
	StatusMemoryReadFailed:                     "MemoryReadFailed",
	StatusMemoryWriteFailed:                    "MemoryWriteFailed",
	StatusMemoryCumulativeWrite:                "MemoryCumulativeWrite",
	StatusMemoryAppOverlapWithExecuteOnlyRegion: "MemoryAppOverlapWithExecuteOnlyRegion",
	StatusMemoryNotConfigured:                  "MemoryNotConfigured",
	StatusMemoryAlignmentError:                 "MemoryAlignmentError",
	StatusMemoryVerifyFailed:                   "MemoryVerifyFailed",
	StatusMemoryWriteProtected:                 "MemoryWriteProtected",
	StatusMemoryAddressError:                   "MemoryAddressError",
	StatusMemoryBlankCheckFailed:                "MemoryBlankCheckFailed",
	StatusMemoryBlankPageReadDisallowed:         "MemoryBlankPageReadDisallowed",
	StatusMemoryProtectedPageReadDisallowed:     "MemoryProtectedPageReadDisallowed",
	StatusMemoryFfrSpecRegionWriteBroken:        "MemoryFfrSpecRegionWriteBroken",
	StatusMemoryUnsupportedCommand:              "MemoryUnsupportedCommand",

	StatusUnknownProperty:     "UnknownProperty",
	StatusReadOnlyProperty:    "ReadOnlyProperty",
	StatusInvalidPropertyValue: "InvalidPropertyValue",

	StatusAppCrcCheckPassed:     "AppCrcCheckPassed",
	StatusAppCrcCheckFailed:     "AppCrcCheckFailed",
	StatusAppCrcCheckInactive:   "AppCrcCheckInactive",
	StatusAppCrcCheckInvalid:    "AppCrcCheckInvalid",
	StatusAppCrcCheckOutOfRange: "AppCrcCheckOutOfRange",

	StatusNoPingResponse:    "NoPingResponse",
	StatusInvalidPacketType: "InvalidPacketType",
	StatusInvalidCRC:        "InvalidCRC",
	StatusNoCommandResponse: "NoCommandResponse",

	StatusReliableUpdateSuccess: "ReliableUpdateSuccess",
}

// Name returns the status's symbolic name, or a synthesized "ErrorCode = N (0xN)" for unknown
// numeric statuses.
func (s StatusCode) Name() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode = %d (%#x)", uint32(s), uint32(s))
}

func (s StatusCode) String() string { return s.Name() }

// ExtMemID identifies an external (off-chip) memory.
type ExtMemID uint32

const (
	MemQuadSPI0          ExtMemID = 1
	MemSEMCNor           ExtMemID = 8
	MemFlexSPINor        ExtMemID = 9
	MemSPIFINor          ExtMemID = 10
	MemFlashExecuteOnly  ExtMemID = 16
	MemSEMCNand          ExtMemID = 256
	MemSPINand           ExtMemID = 257
	MemSPINorEEPROM      ExtMemID = 272
	MemI2CNorEEPROM      ExtMemID = 273
	MemSDCard            ExtMemID = 288
	MemMMCCard           ExtMemID = 289
)

var extMemNames = map[ExtMemID]string{
	MemQuadSPI0:         "QuadSPI Memory 0",
	MemSEMCNor:          "SEMC NOR Memory",
	MemFlexSPINor:       "Flex SPI NOR Memory",
	MemSPIFINor:         "SPIFI NOR Memory",
	MemFlashExecuteOnly: "Execute-Only region on internal Flash",
	MemSEMCNand:         "SEMC NAND Memory",
	MemSPINand:          "SPI NAND Memory",
	MemSPINorEEPROM:     "SPI NOR/EEPROM Memory",
	MemI2CNorEEPROM:     "I2C NOR/EEPROM Memory",
	MemSDCard:           "eSD, SD, SDHC, SDXC Memory Card",
	MemMMCCard:          "MMC, eMMC Memory Card",
}

func (m ExtMemID) String() string {
	if name, ok := extMemNames[m]; ok {
		return name
	}
	return fmt.Sprintf("ExtMemID(%d)", uint32(m))
}

// ExtMemPropTag is a bit in the bitmask returned alongside EXTERNAL_MEMORY_ATTRIBUTES, marking
// which of the six structure fields are valid for a given memory.
type ExtMemPropTag uint32

const (
	ExtMemInitStatus    ExtMemPropTag = 0x00000000
	ExtMemStartAddress  ExtMemPropTag = 0x00000001
	ExtMemSizeInKBytes  ExtMemPropTag = 0x00000002
	ExtMemPageSize      ExtMemPropTag = 0x00000004
	ExtMemSectorSize    ExtMemPropTag = 0x00000008
	ExtMemBlockSize     ExtMemPropTag = 0x00000010
)

// AvailablePeripherals bit meanings for the AVAILABLE_PERIPHERALS bitmask property, mirroring
// McuBoot's INTERFACES table (peripheral.Defaults): each interface owns a single bit.
var peripheralBitNames = map[uint32]string{
	0: "UART",
	1: "I2C-Slave",
	2: "SPI-Slave",
	3: "CAN",
	4: "USB-HID",
	5: "USB-CDC",
	6: "USB-DFU",
}

// IsCommandAvailable reports whether bit i (for command tag i) is set in mask, the raw value of
// the AVAILABLE_COMMANDS property.
func IsCommandAvailable(commandTag CommandTag, mask uint32) bool {
	return mask&(1<<uint32(commandTag)) != 0
}

// NamesFromBitmask decodes a bitmask property (AVAILABLE_PERIPHERALS) into its set bit names,
// using names when known and a numeric fallback otherwise.
func NamesFromBitmask(mask uint32, names map[uint32]string) []string {
	var out []string
	for i := uint32(0); i < 32; i++ {
		if mask&(1<<i) == 0 {
			continue
		}
		if name, ok := names[i]; ok {
			out = append(out, name)
		} else {
			out = append(out, fmt.Sprintf("bit%d", i))
		}
	}
	return out
}

// AvailablePeripheralNames decodes the AVAILABLE_PERIPHERALS bitmask into peripheral names.
func AvailablePeripheralNames(mask uint32) []string {
	return NamesFromBitmask(mask, peripheralBitNames)
}

// AvailableCommandNames decodes the AVAILABLE_COMMANDS bitmask into command names.
func AvailableCommandNames(mask uint32) []string {
	var out []string
	for i := uint32(0); i < 32; i++ {
		if mask&(1<<i) == 0 {
			continue
		}
		out = append(out, CommandTag(i).String())
	}
	return out
}
