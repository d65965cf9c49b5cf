// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Device scan collaborator: enumerates USB-HID and UART candidate devices. FTDI SPI/I2C bridges
// are not scanned.
// Grounded on original_source/mboot/peripheral.py's scan_usb/scan_uart tables.

package main

import (
	"fmt"

	"github.com/google/gousb"
	"go.bug.st/serial/enumerator"

	"github.com/dswarbrick/mboot/peripheral"
)

// Candidate is one device scan found worth offering to the user.
type Candidate struct {
	Kind peripheral.Kind
	Name string
	Port string // UART device path
	VID  uint16 // USB VID (zero for UART)
	PID  uint16 // USB PID (zero for UART)
}

// ScanUSB enumerates attached USB devices whose VID matches one of the bootloader's known
// vendor IDs (NXP: 0x15A2, 0x1FC9), annotating each with a friendly name from aliases when one
// is known.
func ScanUSB(aliases peripheral.AliasTable) ([]Candidate, error) {
	knownVIDs := map[gousb.ID]bool{0x15A2: true, 0x1FC9: true}

	ctx := gousb.NewContext()
	defer ctx.Close()

	var candidates []Candidate
	_, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if knownVIDs[desc.Vendor] {
			vid, pid := uint16(desc.Vendor), uint16(desc.Product)
			name := fmt.Sprintf("%s:%s", desc.Vendor, desc.Product)
			if a, ok := aliases.LookupByVIDPID(vid, pid); ok {
				name = a.Name
			}
			candidates = append(candidates, Candidate{
				Kind: peripheral.USBHID,
				Name: name,
				VID:  vid,
				PID:  pid,
			})
		}
		return false // never actually open; OpenDevices closes unopened descriptors
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// ScanUART enumerates USB-backed serial ports; the port's USB VID/PID is not checked.
func ScanUART() ([]Candidate, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		candidates = append(candidates, Candidate{
			Kind: peripheral.UART,
			Name: p.Name,
			Port: p.Name,
		})
	}
	return candidates, nil
}

// Scan runs every scan method and returns the combined candidate list. Friendly names are drawn
// from aliasPath, a YAML file merged over the built-in FTDI bridge table (empty path uses just
// the built-ins).
func Scan(aliasPath string) ([]Candidate, error) {
	aliases, err := peripheral.LoadAliases(aliasPath)
	if err != nil {
		return nil, fmt.Errorf("mbootctl: load aliases: %w", err)
	}

	var all []Candidate

	usb, err := ScanUSB(aliases)
	if err != nil {
		return nil, fmt.Errorf("mbootctl: USB scan: %w", err)
	}
	all = append(all, usb...)

	uarts, err := ScanUART()
	if err != nil {
		return nil, fmt.Errorf("mbootctl: UART scan: %w", err)
	}
	all = append(all, uarts...)

	return all, nil
}
