// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// SPI transport: the framing-packet session over an FTDI MPSSE bridge, gated by chip-select.

package transport

import "github.com/dswarbrick/mboot/peripheral"

// DefaultSPISpeedKHz matches the bootloader's SPI default; the FTDI MPSSE bridge itself will not
// go below roughly 3 kHz.
var DefaultSPISpeedKHz = peripheral.Speed["spi"] / 1000

// spiStream frames reads/writes as full-duplex SPI transactions, clocking a dummy byte per
// received byte since SPI has no independent receive direction.
type spiStream struct {
	*ftdiBridge
}

func (s spiStream) Write(p []byte) (int, error) {
	if err := s.clockOut(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s spiStream) Read(p []byte) (int, error) {
	resp, err := s.clockInOut(make([]byte, len(p)))
	if err != nil {
		return 0, err
	}
	copy(p, resp)
	return len(resp), nil
}

// SPI is the framing-packet transport over an FTDI-bridged SPI-slave link.
type SPI struct {
	*serialSession
	bridge *ftdiBridge
}

// OpenSPI opens the first FT232H/FT2232H MPSSE bridge found and pings the target. speedKHz is
// currently advisory (0 selects DefaultSPISpeedKHz); clock divisor configuration is left to the
// bridge's default rate.
func OpenSPI(speedKHz int) (*SPI, error) {
	if speedKHz == 0 {
		speedKHz = DefaultSPISpeedKHz
	}

	bridge, err := openFTDIBridge(ftdiVID, ft232hPID)
	if err != nil {
		bridge, err = openFTDIBridge(ftdiVID, ft2232hPID)
	}
	if err != nil {
		return nil, err
	}

	s := &SPI{
		serialSession: newSerialSession(spiStream{bridge}),
		bridge:        bridge,
	}
	if err := s.Ping(); err != nil {
		bridge.Close()
		return nil, err
	}
	return s, nil
}
