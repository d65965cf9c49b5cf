// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Transport abstracts the physical link between host and target: serial-framed (UART, SPI,
// I²C) or report-based (USB-HID), so the command engine in package mboot never sees the wire
// format.

package transport

import "time"

// Transport is the narrow capability set the command engine needs from a physical link.
// Implementations: *UART, *SPI, *I2C (all serial-framed, package-internal shared session logic)
// and *USBHID (report-based, no framing/CRC/ping).
type Transport interface {
	// Ping checks that the target is present and responsive. Serial-framed backends send a
	// PING special form and expect PINGR; USB-HID has no ping and always succeeds.
	Ping() error

	// WriteCmd sends a command payload and returns the parsed response's primary value.
	// timeout overrides the transport's default read deadline when non-zero.
	WriteCmd(payload []byte, timeout time.Duration) (uint32, error)

	// ReadData reads length bytes of a data phase following WriteCmd.
	ReadData(length int) ([]byte, error)

	// WriteData writes a data phase following WriteCmd, chunked to maxPacketSize per
	// transfer, and returns the number of bytes the target reports it ultimately wrote.
	WriteData(data []byte, maxPacketSize uint32) (uint32, error)

	// LastCmdResponse returns the full, unparsed payload of the most recent command response,
	// for callers that need more than the primary value (e.g. proto.Decode).
	LastCmdResponse() []byte

	// Close releases the underlying device.
	Close() error
}
