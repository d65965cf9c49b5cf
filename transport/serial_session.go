// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Shared framing-packet state machine for the serial transports (UART, SPI, I²C). Parameterized
// only by a byte stream, so the same handshake/ACK/data-phase logic backs all three physical
// links; UART supplies the stream via go.bug.st/serial, SPI/I²C via an FTDI MPSSE adapter.

package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/dswarbrick/mboot/framing"
	"github.com/dswarbrick/mboot/mberr"
	"github.com/dswarbrick/mboot/proto"
)

// byteStream is the minimal capability serialSession needs from a physical link.
type byteStream interface {
	io.ReadWriteCloser
	SetReadTimeout(d time.Duration) error
}

const (
	byteScanTimeout = 1 * time.Second
	cmdTimeout      = 5 * time.Second
	pingTimeout     = 1 * time.Second
)

// serialSession drives the PING/ACK/CMD/DATA handshake described by the framing packet layer.
type serialSession struct {
	stream   byteStream
	lastResp []byte
}

func newSerialSession(stream byteStream) *serialSession {
	return &serialSession{stream: stream}
}

// findStartByte scans single-byte reads for 0x5A, failing with a TimeoutError once timeout has
// elapsed with no match.
func (s *serialSession) findStartByte(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 1)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return &mberr.TimeoutError{Msg: "timed out waiting for start byte"}
		}
		if err := s.stream.SetReadTimeout(remaining); err != nil {
			return err
		}
		n, err := s.stream.Read(buf)
		if err != nil {
			return err
		}
		if n == 1 && buf[0] == framing.StartByte {
			return nil
		}
	}
}

// readExact reads exactly n bytes, failing if the deadline passes first.
func (s *serialSession) readExact(n int, timeout time.Duration) ([]byte, error) {
	buf := make([]byte, n)
	if err := s.stream.SetReadTimeout(timeout); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(s.stream, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *serialSession) readFrame(timeout time.Duration) (framing.Type, []byte, error) {
	if err := s.findStartByte(timeout); err != nil {
		return 0, nil, err
	}
	rest, err := s.readExact(framing.HeaderLen-1, timeout)
	if err != nil {
		return 0, nil, err
	}
	header := append([]byte{framing.StartByte}, rest...)

	length := binary.LittleEndian.Uint16(header[2:4])
	payload, err := s.readExact(int(length), timeout)
	if err != nil {
		return 0, nil, err
	}

	typ, err := framing.Decode(header, payload)
	if err != nil {
		return 0, nil, err
	}
	return typ, payload, nil
}

// readSpecialForm reads a 2-byte [0x5A, type] special form (ACK/NACK/ABORT).
func (s *serialSession) readSpecialForm(timeout time.Duration) (framing.Type, error) {
	if err := s.findStartByte(timeout); err != nil {
		return 0, err
	}
	b, err := s.readExact(1, timeout)
	if err != nil {
		return 0, err
	}
	return framing.Type(b[0]), nil
}

func (s *serialSession) write(p []byte) error {
	_, err := s.stream.Write(p)
	return err
}

// Ping sends PING and waits for PINGR, as required before the first command on a freshly opened
// serial link.
func (s *serialSession) Ping() error {
	if err := s.write(framing.Encode(framing.TypePING, nil)); err != nil {
		return err
	}
	// PINGR has no length field: [0x5A, 0xA7, bugfix, minor, major, name, options:u16, crc:u16],
	// so after the start byte exactly 9 bytes follow.
	if err := s.findStartByte(pingTimeout); err != nil {
		return &mberr.ConnectionError{Msg: fmt.Sprintf("ping failed: %v", err)}
	}
	rest, err := s.readExact(9, pingTimeout)
	if err != nil {
		return &mberr.ConnectionError{Msg: fmt.Sprintf("ping failed: %v", err)}
	}
	if typ := framing.Type(rest[0]); typ != framing.TypePINGR {
		return &mberr.ConnectionError{Msg: fmt.Sprintf("ping: unexpected response type %s", typ)}
	}
	return nil
}

// WriteCmd re-pings the link, then sends a CMD framing packet, awaits ACK, then awaits the CMD
// response, sending ACK in reply. timeout overrides the ACK wait when non-zero.
func (s *serialSession) WriteCmd(payload []byte, timeout time.Duration) (uint32, error) {
	if err := s.Ping(); err != nil {
		return 0, err
	}

	ackTimeout := cmdTimeout
	if timeout != 0 {
		ackTimeout = timeout
	}

	if err := s.write(framing.Encode(framing.TypeCMD, payload)); err != nil {
		return 0, err
	}

	ack, err := s.readSpecialForm(ackTimeout)
	if err != nil {
		return 0, err
	}
	switch ack {
	case framing.TypeACK:
		// proceed
	case framing.TypeABORT, framing.TypeNACK:
		return 0, &mberr.CommandError{Name: fmt.Sprintf("command rejected (%s)", ack)}
	default:
		return 0, &mberr.ConnectionError{Msg: fmt.Sprintf("unexpected ack type %s", ack)}
	}

	typ, respPayload, err := s.readFrame(cmdTimeout)
	if err != nil {
		return 0, err
	}
	if typ != framing.TypeCMD {
		return 0, &mberr.ConnectionError{Msg: fmt.Sprintf("expected CMD response, got %s", typ)}
	}
	if err := s.write(framing.Encode(framing.TypeACK, nil)); err != nil {
		return 0, err
	}

	s.lastResp = respPayload
	resp, err := parseCmdResponse(respPayload)
	if err != nil {
		return 0, err
	}
	return resp, nil
}

// ReadData reads an inbound data phase: successive DATA packets (ACKed as they arrive) until
// length bytes have been collected, followed by a trailing CMD response.
func (s *serialSession) ReadData(length int) ([]byte, error) {
	data := make([]byte, 0, length)
	for len(data) < length {
		typ, payload, err := s.readFrame(cmdTimeout)
		if err != nil {
			return nil, err
		}
		switch typ {
		case framing.TypeDATA:
			data = append(data, payload...)
			if err := s.write(framing.Encode(framing.TypeACK, nil)); err != nil {
				return nil, err
			}
		case framing.TypeCMD:
			// Device-initiated abort carrying a status code in place of the expected data.
			if len(payload) < 8 {
				return nil, &mberr.ConnectionError{Msg: fmt.Sprintf("response payload too short (%d bytes)", len(payload))}
			}
			status := binary.LittleEndian.Uint32(payload[4:8])
			return nil, &mberr.DataError{Mode: "read", Status: status, Name: proto.StatusCode(status).Name()}
		default:
			return nil, &mberr.ConnectionError{Msg: fmt.Sprintf("unexpected packet type %s during data phase", typ)}
		}
	}

	// Trailing CMD response.
	typ, payload, err := s.readFrame(cmdTimeout)
	if err != nil {
		return nil, err
	}
	if typ != framing.TypeCMD {
		return nil, &mberr.ConnectionError{Msg: fmt.Sprintf("expected trailing CMD response, got %s", typ)}
	}
	if err := s.write(framing.Encode(framing.TypeACK, nil)); err != nil {
		return nil, err
	}
	s.lastResp = payload
	if _, err := parseCmdResponse(payload); err != nil {
		return nil, err
	}

	if len(data) > length {
		data = data[:length]
	}
	return data, nil
}

// WriteData sends an outbound data phase, chunked to maxPacketSize, then reads the trailing CMD
// response and returns the reported byte count.
func (s *serialSession) WriteData(data []byte, maxPacketSize uint32) (uint32, error) {
	if maxPacketSize == 0 {
		maxPacketSize = uint32(len(data))
	}

	for offset := 0; offset < len(data); {
		end := offset + int(maxPacketSize)
		if end > len(data) {
			end = len(data)
		}
		chunk := data[offset:end]

		if err := s.write(framing.Encode(framing.TypeDATA, chunk)); err != nil {
			return 0, err
		}
		ack, err := s.readSpecialForm(cmdTimeout)
		if err != nil {
			return 0, err
		}
		switch ack {
		case framing.TypeACK:
			offset = end
		case framing.TypeABORT:
			typ, payload, rerr := s.readFrame(cmdTimeout)
			if rerr == nil && typ == framing.TypeCMD && len(payload) >= 8 {
				status := binary.LittleEndian.Uint32(payload[4:8])
				return 0, &mberr.DataError{Mode: "write", Status: status, Name: proto.StatusCode(status).Name()}
			}
			return 0, &mberr.DataError{Mode: "write", Status: 0}
		default:
			return 0, &mberr.ConnectionError{Msg: fmt.Sprintf("unexpected ack type %s during write", ack)}
		}
	}

	typ, payload, err := s.readFrame(cmdTimeout)
	if err != nil {
		return 0, err
	}
	if typ != framing.TypeCMD {
		return 0, &mberr.ConnectionError{Msg: fmt.Sprintf("expected trailing CMD response, got %s", typ)}
	}
	if err := s.write(framing.Encode(framing.TypeACK, nil)); err != nil {
		return 0, err
	}
	s.lastResp = payload
	return parseCmdResponse(payload)
}

func (s *serialSession) LastCmdResponse() []byte { return s.lastResp }

func (s *serialSession) Close() error { return s.stream.Close() }

// parseCmdResponse extracts the status word from a raw response payload and returns the primary
// value. A non-success status is reported as a CommandError.
func parseCmdResponse(payload []byte) (uint32, error) {
	if len(payload) < 8 {
		return 0, &mberr.ConnectionError{Msg: fmt.Sprintf("response payload too short (%d bytes)", len(payload))}
	}
	status := binary.LittleEndian.Uint32(payload[4:8])
	if status != 0 {
		return 0, &mberr.CommandError{Status: status, Name: proto.StatusCode(status).Name()}
	}
	if len(payload) >= 12 {
		return binary.LittleEndian.Uint32(payload[8:12]), nil
	}
	return 0, nil
}
