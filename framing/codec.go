// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Framing packet encode/decode for the serial transports (UART, SPI, I²C).

package framing

import (
	"encoding/binary"
	"fmt"
)

// StartByte begins every framing packet and every ACK/NACK/ABORT/PING special form.
const StartByte = 0x5A

// Type discriminates a framing packet.
type Type uint8

const (
	TypeACK   Type = 0xA1
	TypeNACK  Type = 0xA2
	TypeABORT Type = 0xA3
	TypeCMD   Type = 0xA4
	TypeDATA  Type = 0xA5
	TypePING  Type = 0xA6
	TypePINGR Type = 0xA7
)

var typeNames = map[Type]string{
	TypeACK:   "ACK",
	TypeNACK:  "NACK",
	TypeABORT: "ABORT",
	TypeCMD:   "CMD",
	TypeDATA:  "DATA",
	TypePING:  "PING",
	TypePINGR: "PINGR",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%#02x)", uint8(t))
}

// IsSpecialForm reports whether t is sent/received as the 2-byte [StartByte, type] form with no
// length, CRC, or payload.
func (t Type) IsSpecialForm() bool {
	switch t {
	case TypeACK, TypeNACK, TypeABORT, TypePING:
		return true
	default:
		return false
	}
}

// HeaderLen is the size of a full framing packet header: start byte, type, length, CRC.
const HeaderLen = 6

// Encode builds a full framing packet: [0x5A, type, len_le16, crc_le16, payload...]. The CRC
// covers the four header bytes with the CRC field taken as zero, followed by the payload.
func Encode(t Type, payload []byte) []byte {
	if t.IsSpecialForm() {
		return []byte{StartByte, uint8(t)}
	}

	pkt := make([]byte, HeaderLen+len(payload))
	pkt[0] = StartByte
	pkt[1] = uint8(t)
	binary.LittleEndian.PutUint16(pkt[2:4], uint16(len(payload)))
	copy(pkt[HeaderLen:], payload)

	// The CRC field (pkt[4:6]) itself is not part of the CRC input.
	crc := CRC16(pkt[:4], 0)
	crc = CRC16(payload, crc)
	binary.LittleEndian.PutUint16(pkt[4:6], crc)

	return pkt
}

// Decode validates a 6-byte framing header plus its payload and returns the packet type. header
// must be exactly HeaderLen bytes (as read directly off the wire, with the CRC bytes intact).
func Decode(header []byte, payload []byte) (Type, error) {
	if len(header) != HeaderLen {
		return 0, fmt.Errorf("framing: header must be %d bytes, got %d", HeaderLen, len(header))
	}
	if header[0] != StartByte {
		return 0, fmt.Errorf("framing: bad start byte %#02x", header[0])
	}

	length := binary.LittleEndian.Uint16(header[2:4])
	if int(length) != len(payload) {
		return 0, fmt.Errorf("framing: header declares %d payload bytes, got %d", length, len(payload))
	}

	wantCRC := binary.LittleEndian.Uint16(header[4:6])

	gotCRC := CRC16(payload, CRC16(header[:4], 0))

	if gotCRC != wantCRC {
		return 0, fmt.Errorf("framing: CRC mismatch: got %#04x, want %#04x", gotCRC, wantCRC)
	}

	return Type(header[1]), nil
}
