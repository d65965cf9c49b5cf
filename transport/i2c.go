// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// I²C transport: the framing-packet session over an FTDI MPSSE bridge addressed to the target's
// I²C-slave address.

package transport

import "github.com/dswarbrick/mboot/peripheral"

// DefaultI2CSpeedKHz matches the bootloader's I²C default.
var DefaultI2CSpeedKHz = peripheral.Speed["i2c"] / 1000

// i2cStream frames reads/writes as addressed I²C transactions against a fixed slave address.
// Start/stop and ack handling live in the bridge's clock helpers; this type only shapes the byte
// stream serialSession expects.
type i2cStream struct {
	*ftdiBridge
	addr byte
}

func (s i2cStream) Write(p []byte) (int, error) {
	if err := s.clockOut(append([]byte{s.addr << 1}, p...)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s i2cStream) Read(p []byte) (int, error) {
	resp, err := s.clockInOut(make([]byte, len(p)))
	if err != nil {
		return 0, err
	}
	copy(p, resp)
	return len(resp), nil
}

// I2C is the framing-packet transport over an FTDI-bridged I²C-slave link.
type I2C struct {
	*serialSession
	bridge *ftdiBridge
}

// DefaultI2CAddress is the bootloader's default 7-bit I²C slave address.
const DefaultI2CAddress = 0x10

// OpenI2C opens the first FT232H/FT2232H MPSSE bridge found, addresses it to addr (0 selects
// DefaultI2CAddress), and pings the target.
func OpenI2C(addr byte, speedKHz int) (*I2C, error) {
	if addr == 0 {
		addr = DefaultI2CAddress
	}
	if speedKHz == 0 {
		speedKHz = DefaultI2CSpeedKHz
	}

	bridge, err := openFTDIBridge(ftdiVID, ft232hPID)
	if err != nil {
		bridge, err = openFTDIBridge(ftdiVID, ft2232hPID)
	}
	if err != nil {
		return nil, err
	}

	i := &I2C{
		serialSession: newSerialSession(i2cStream{bridge, addr}),
		bridge:        bridge,
	}
	if err := i.Ping(); err != nil {
		bridge.Close()
		return nil, err
	}
	return i, nil
}
