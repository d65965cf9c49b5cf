// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Command/response payload layout: the application-layer bytes carried inside a framing CMD
// packet (serial transports) or a CMD_OUT/CMD_IN HID report (USB transport).

package proto

import (
	"encoding/binary"
	"fmt"
)

// HasDataPhase is bit 0 of the command payload's flags byte.
const HasDataPhase = 1 << 0

// BuildCommand encodes a command payload: [cmd_tag][flags][reserved][param_count][params...].
func BuildCommand(tag CommandTag, hasDataPhase bool, params ...uint32) []byte {
	flags := uint8(0)
	if hasDataPhase {
		flags |= HasDataPhase
	}

	buf := make([]byte, 4+4*len(params))
	buf[0] = uint8(tag)
	buf[1] = flags
	buf[2] = 0 // reserved
	buf[3] = uint8(len(params))
	for i, p := range params {
		binary.LittleEndian.PutUint32(buf[4+4*i:8+4*i], p)
	}
	return buf
}

// Response is a parsed response payload: [response_tag][flags][reserved][param_count]
// [status:u32][value u32s...].
type Response struct {
	Tag      uint8
	Flags    uint8
	Status   StatusCode
	Values   []uint32 // values following status, i.e. Values[0] is the "primary value"
	Raw      []byte   // the full, unparsed response payload
}

// ParseResponse decodes a response payload. It requires at least a 4-byte header plus one
// status u32; fewer bytes is a malformed response.
func ParseResponse(payload []byte) (Response, error) {
	if len(payload) < 8 {
		return Response{}, fmt.Errorf("proto: response payload too short (%d bytes)", len(payload))
	}

	paramCount := int(payload[3])
	need := 4 + 4*paramCount
	if len(payload) < need {
		return Response{}, fmt.Errorf("proto: response declares %d params but payload is %d bytes", paramCount, len(payload))
	}

	status := StatusCode(binary.LittleEndian.Uint32(payload[4:8]))

	var values []uint32
	for i := 1; i < paramCount; i++ {
		off := 4 + 4*i
		values = append(values, binary.LittleEndian.Uint32(payload[off:off+4]))
	}

	return Response{
		Tag:    payload[0],
		Flags:  payload[1],
		Status: status,
		Values: values,
		Raw:    payload,
	}, nil
}

// PrimaryValue returns the first value after status, or 0 if the response carried none.
func (r Response) PrimaryValue() uint32 {
	if len(r.Values) == 0 {
		return 0
	}
	return r.Values[0]
}
