// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Per-transport defaults: bit position in AVAILABLE_PERIPHERALS and default link speed, mirroring
// the bootloader's own INTERFACES table.

package peripheral

// Kind identifies a physical link kind.
type Kind string

const (
	UART   Kind = "UART"
	I2C    Kind = "I2C-Slave"
	SPI    Kind = "SPI-Slave"
	CAN    Kind = "CAN"
	USBHID Kind = "USB-HID"
	USBCDC Kind = "USB-CDC"
	USBDFU Kind = "USB-DFU"
)

// Default is one row of the bootloader's own interface table: the bit it occupies in
// AVAILABLE_PERIPHERALS and its default link speed.
type Default struct {
	Bit   uint
	Speed int // baud for UART, kHz for I2C/SPI, kbit/s for CAN, bit/s nominal for USB
}

// Defaults mirrors McuBoot.INTERFACES from the reference implementation.
var Defaults = map[Kind]Default{
	UART:   {Bit: 0, Speed: 115200},
	I2C:    {Bit: 1, Speed: 400},
	SPI:    {Bit: 2, Speed: 400},
	CAN:    {Bit: 3, Speed: 500},
	USBHID: {Bit: 4, Speed: 12000000},
	USBCDC: {Bit: 5, Speed: 12000000},
	USBDFU: {Bit: 6, Speed: 12000000},
}

// Speed is a small lookup table keyed by the lowercase peripheral name, used by the transports'
// default link speeds (DefaultUARTBaud, DefaultSPISpeedKHz, DefaultI2CSpeedKHz), mirroring
// peripheral_speed in the reference tool.
var Speed = map[string]int{
	"usb":  12000000,
	"uart": 57600,
	"i2c":  100000,
	"spi":  1000000,
	"can":  500,
}
