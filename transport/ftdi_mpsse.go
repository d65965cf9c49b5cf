// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Shared FTDI MPSSE bridge: both the SPI and I²C backends talk to the target through an FTDI
// FT232H/FT2232H acting as a USB-to-MPSSE bridge, so the low-level bulk transfer plumbing (open,
// claim, set-bitmode, clock opcodes) lives here once.

package transport

import (
	"time"

	"github.com/google/gousb"

	"github.com/dswarbrick/mboot/mberr"
)

// FTDI vendor ID and the FT232H/FT2232H product IDs commonly used as MPSSE bridges.
const (
	ftdiVID     = 0x0403
	ft232hPID   = 0x6014
	ft2232hPID  = 0x6010
	mpsseBitmode = 0x02
)

// MPSSE opcodes used to clock bytes out (and simultaneously in) on the bridge's SPI/I2C pins.
const (
	mpsseClockBytesOut   = 0x11 // clock data out on falling edge, MSB first
	mpsseClockBytesInOut = 0x31 // clock data in and out, MSB first
	mpsseSetDataBitsLow  = 0x80
	mpsseSetDataBitsHigh = 0x82
)

// ftdiBridge owns the USB handle to an FTDI MPSSE device and exposes a byte-oriented read/write
// pair built from MPSSE clock commands. SPI and I²C differ only in how they frame bytes around
// this bridge (chip-select gating vs. start/stop-and-ack), not in how bytes move over USB.
type ftdiBridge struct {
	ctx    *gousb.Context
	device *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface
	epOut  *gousb.OutEndpoint
	epIn   *gousb.InEndpoint

	readTimeout time.Duration
}

func openFTDIBridge(vid, pid uint16) (*ftdiBridge, error) {
	ctx := gousb.NewContext()

	device, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, mberr.NewConnection("ftdi: open %04x:%04x: %v", vid, pid, err)
	}
	if device == nil {
		ctx.Close()
		return nil, mberr.NewConnection("ftdi: device %04x:%04x not found", vid, pid)
	}

	config, err := device.Config(1)
	if err != nil {
		device.Close()
		ctx.Close()
		return nil, mberr.NewConnection("ftdi: set config: %v", err)
	}

	intf, err := config.Interface(0, 0)
	if err != nil {
		config.Close()
		device.Close()
		ctx.Close()
		return nil, mberr.NewConnection("ftdi: claim interface: %v", err)
	}

	epOut, err := intf.OutEndpoint(1)
	if err != nil {
		intf.Close()
		config.Close()
		device.Close()
		ctx.Close()
		return nil, mberr.NewConnection("ftdi: open OUT endpoint: %v", err)
	}

	epIn, err := intf.InEndpoint(2)
	if err != nil {
		intf.Close()
		config.Close()
		device.Close()
		ctx.Close()
		return nil, mberr.NewConnection("ftdi: open IN endpoint: %v", err)
	}

	b := &ftdiBridge{ctx: ctx, device: device, config: config, intf: intf, epOut: epOut, epIn: epIn}
	if err := b.enterMPSSE(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// enterMPSSE puts the bridge into bitbang-MPSSE mode, the prerequisite for the clock opcodes.
func (b *ftdiBridge) enterMPSSE() error {
	_, err := b.device.Control(0x40, 0x0B, mpsseBitmode<<8, 1, nil)
	return err
}

// clockOut writes data via the clock-bytes-out opcode, ignoring any bytes clocked back.
func (b *ftdiBridge) clockOut(data []byte) error {
	cmd := mpsseCommand(mpsseClockBytesOut, data)
	_, err := b.epOut.Write(cmd)
	return err
}

// clockInOut writes data while simultaneously clocking the same number of bytes back, as SPI
// full-duplex requires.
func (b *ftdiBridge) clockInOut(data []byte) ([]byte, error) {
	cmd := mpsseCommand(mpsseClockBytesInOut, data)
	if _, err := b.epOut.Write(cmd); err != nil {
		return nil, err
	}
	resp := make([]byte, len(data))
	if _, err := b.epIn.Read(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func mpsseCommand(opcode byte, data []byte) []byte {
	n := len(data) - 1
	cmd := make([]byte, 3+len(data))
	cmd[0] = opcode
	cmd[1] = byte(n)
	cmd[2] = byte(n >> 8)
	copy(cmd[3:], data)
	return cmd
}

func (b *ftdiBridge) SetReadTimeout(d time.Duration) error {
	b.readTimeout = d
	return nil
}

func (b *ftdiBridge) Close() error {
	if b.intf != nil {
		b.intf.Close()
	}
	if b.config != nil {
		b.config.Close()
	}
	if b.device != nil {
		b.device.Close()
	}
	if b.ctx != nil {
		b.ctx.Close()
	}
	return nil
}
