// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// UART transport: the framing-packet session over a go.bug.st/serial port.

package transport

import (
	"time"

	"go.bug.st/serial"

	"github.com/dswarbrick/mboot/mberr"
	"github.com/dswarbrick/mboot/peripheral"
)

// DefaultUARTBaud matches the bootloader's UART default; a freshly reset target will not answer
// at any other rate until reconfigured.
var DefaultUARTBaud = peripheral.Speed["uart"]

// serialPortStream adapts a serial.Port to the byteStream interface serialSession needs.
type serialPortStream struct {
	serial.Port
}

func (s serialPortStream) SetReadTimeout(d time.Duration) error {
	return s.Port.SetReadTimeout(d)
}

// UART is the framing-packet transport over a plain serial port.
type UART struct {
	*serialSession
	port serial.Port
}

// OpenUART opens portName at baud (0 selects DefaultUARTBaud) and pings the target.
func OpenUART(portName string, baud int) (*UART, error) {
	if baud == 0 {
		baud = DefaultUARTBaud
	}

	port, err := serial.Open(portName, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, mberr.NewConnection("uart: open %s: %v", portName, err)
	}

	u := &UART{
		serialSession: newSerialSession(serialPortStream{port}),
		port:          port,
	}
	if err := u.Ping(); err != nil {
		port.Close()
		return nil, err
	}
	return u, nil
}
