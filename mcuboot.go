// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package mboot implements the MCU bootloader (KBoot/MBoot) host protocol: command/property
// exchange over UART, SPI, I²C, or USB-HID, plus the memory-range bookkeeping needed to validate
// flash/RAM operations before they are sent.
package mboot

import (
	"log"
	"time"

	"github.com/dswarbrick/mboot/mberr"
	"github.com/dswarbrick/mboot/memory"
	"github.com/dswarbrick/mboot/transport"
)

// Interface identifies the physical link currently in use, mirroring the bootloader's own
// INTERFACES enumeration. It exists for CLI display and reopen bookkeeping; the wire protocol
// itself does not depend on these values.
type Interface int

const (
	InterfaceNone Interface = iota
	InterfaceUART
	InterfaceI2C
	InterfaceSPI
	InterfaceCAN
	InterfaceUSB
)

func (i Interface) String() string {
	switch i {
	case InterfaceUART:
		return "UART"
	case InterfaceI2C:
		return "I2C"
	case InterfaceSPI:
		return "SPI"
	case InterfaceCAN:
		return "CAN"
	case InterfaceUSB:
		return "USB"
	default:
		return "none"
	}
}

// flashEraseTimeout is substituted whenever a caller leaves Timeout at its zero value for an
// erase command, matching the reference tool's "timeout==1 means unset" sentinel, expressed here
// as Go's natural zero-value-means-unset idiom instead.
const flashEraseTimeout = 300 * time.Second

// McuBoot is the command engine: one instance owns exactly one open transport at a time.
type McuBoot struct {
	itf     transport.Transport
	current Interface
	cliMode bool

	// Timeout bounds the ACK wait of ordinary commands; zero means "use the transport's
	// built-in default". It is never silently substituted except for the flash-erase
	// commands, which always fall back to flashEraseTimeout when Timeout is zero.
	Timeout time.Duration

	Memory *memory.Memory
	Flash  *memory.Flash

	logger *log.Logger
}

// Option configures a McuBoot at construction time.
type Option func(*McuBoot)

// WithLogger injects a logger; the default logs to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(m *McuBoot) { m.logger = l }
}

// WithCLIMode marks the engine as driven interactively, matching the reference tool's cli_mode
// flag. Open* returns its error in either mode; in CLI mode Reset returns right after sending the
// command, with no settle delay and no USB close.
func WithCLIMode(cli bool) Option {
	return func(m *McuBoot) { m.cliMode = cli }
}

func newMcuBoot(opts ...Option) *McuBoot {
	m := &McuBoot{logger: log.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OpenUART opens a UART transport on portName at baud (0 selects the bootloader default).
func OpenUART(portName string, baud int, opts ...Option) (*McuBoot, error) {
	m := newMcuBoot(opts...)
	itf, err := transport.OpenUART(portName, baud)
	if err != nil {
		return nil, m.openFailure(err)
	}
	m.itf = itf
	m.current = InterfaceUART
	return m, nil
}

// OpenSPI opens an FTDI-bridged SPI-slave transport.
func OpenSPI(speedKHz int, opts ...Option) (*McuBoot, error) {
	m := newMcuBoot(opts...)
	itf, err := transport.OpenSPI(speedKHz)
	if err != nil {
		return nil, m.openFailure(err)
	}
	m.itf = itf
	m.current = InterfaceSPI
	return m, nil
}

// OpenI2C opens an FTDI-bridged I²C-slave transport at addr (0 selects the bootloader default).
func OpenI2C(addr byte, speedKHz int, opts ...Option) (*McuBoot, error) {
	m := newMcuBoot(opts...)
	itf, err := transport.OpenI2C(addr, speedKHz)
	if err != nil {
		return nil, m.openFailure(err)
	}
	m.itf = itf
	m.current = InterfaceI2C
	return m, nil
}

// OpenUSB opens a USB-HID transport for the device identified by vid:pid.
func OpenUSB(vid, pid uint16, opts ...Option) (*McuBoot, error) {
	m := newMcuBoot(opts...)
	itf, err := transport.OpenUSBHID(vid, pid)
	if err != nil {
		return nil, m.openFailure(err)
	}
	m.itf = itf
	m.current = InterfaceUSB
	return m, nil
}

// openFailure honors cli_mode: in CLI mode every open error is returned as-is (fatal); outside
// CLI mode it is still returned as an error, since a Go caller always inspects the returned
// error (there is no Python-style "falsy object" fallback to emulate).
func (m *McuBoot) openFailure(err error) error {
	m.logger.Printf("open failed: %v", err)
	return err
}

// IsOpen reports whether a transport handle is currently held.
func (m *McuBoot) IsOpen() bool { return m.itf != nil }

// CurrentInterface returns the interface the engine is currently bound to.
func (m *McuBoot) CurrentInterface() Interface { return m.current }

// Close releases the underlying transport. Calling Close on an already-closed engine is a no-op.
func (m *McuBoot) Close() error {
	if m.itf == nil {
		return nil
	}
	err := m.itf.Close()
	m.itf = nil
	m.current = InterfaceNone
	return err
}

// requireOpen is the guard every command method calls first: there is no command without an
// open transport.
func (m *McuBoot) requireOpen() error {
	if m.itf == nil {
		return mberr.NewConnection("mboot: no transport open")
	}
	return nil
}

// cmdTimeout resolves the caller's configured Timeout (zero meaning "use transport default").
func (m *McuBoot) cmdTimeout() time.Duration {
	return m.Timeout
}

// eraseTimeout resolves the timeout used by the flash-erase family: the reference tool treats
// its own default value as "unset" and substitutes 300s; here the natural Go equivalent is to
// substitute whenever the caller left Timeout at its zero value.
func (m *McuBoot) eraseTimeout() time.Duration {
	if m.Timeout == 0 {
		return flashEraseTimeout
	}
	return m.Timeout
}
