// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// USB-HID transport: raw HID reports, no framing, no CRC, no ping.

package transport

import (
	"encoding/binary"
	"time"

	"github.com/google/gousb"

	"github.com/dswarbrick/mboot/mberr"
	"github.com/dswarbrick/mboot/proto"
)

// HID report IDs used by the bootloader's HID protocol.
const (
	reportCmdOut  = 0x01
	reportDataOut = 0x02
	reportCmdIn   = 0x03
	reportDataIn  = 0x04

	hidReportSize = 32 // payload capacity of a single report, excluding the 4-byte header
	reportTimeout = 5 * time.Second
)

// USBHID talks to the bootloader over USB-HID reports carried as USB interrupt transfers.
type USBHID struct {
	ctx     *gousb.Context
	device  *gousb.Device
	config  *gousb.Config
	intf    *gousb.Interface
	epOut   *gousb.OutEndpoint
	epIn    *gousb.InEndpoint
	lastRsp []byte
}

// OpenUSBHID opens the bootloader's HID device by vendor/product ID.
func OpenUSBHID(vid, pid uint16) (*USBHID, error) {
	ctx := gousb.NewContext()

	device, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, mberr.NewConnection("usb-hid: open %04x:%04x: %v", vid, pid, err)
	}
	if device == nil {
		ctx.Close()
		return nil, mberr.NewConnection("usb-hid: device %04x:%04x not found", vid, pid)
	}

	config, err := device.Config(1)
	if err != nil {
		device.Close()
		ctx.Close()
		return nil, mberr.NewConnection("usb-hid: set config: %v", err)
	}

	intf, err := config.Interface(0, 0)
	if err != nil {
		config.Close()
		device.Close()
		ctx.Close()
		return nil, mberr.NewConnection("usb-hid: claim interface: %v", err)
	}

	epOut, err := intf.OutEndpoint(1)
	if err != nil {
		intf.Close()
		config.Close()
		device.Close()
		ctx.Close()
		return nil, mberr.NewConnection("usb-hid: open OUT endpoint: %v", err)
	}

	epIn, err := intf.InEndpoint(1)
	if err != nil {
		intf.Close()
		config.Close()
		device.Close()
		ctx.Close()
		return nil, mberr.NewConnection("usb-hid: open IN endpoint: %v", err)
	}

	return &USBHID{ctx: ctx, device: device, config: config, intf: intf, epOut: epOut, epIn: epIn}, nil
}

// Close releases the interface, config, device and context, in that order.
func (u *USBHID) Close() error {
	if u.intf != nil {
		u.intf.Close()
	}
	if u.config != nil {
		u.config.Close()
	}
	if u.device != nil {
		u.device.Close()
	}
	if u.ctx != nil {
		u.ctx.Close()
	}
	return nil
}

// Ping is a no-op: USB-HID has no handshake, the enumerated device is presumed live.
func (u *USBHID) Ping() error { return nil }

func (u *USBHID) writeReport(reportID byte, payload []byte) error {
	size := 4 + len(payload)
	if size < 4+hidReportSize {
		size = 4 + hidReportSize // zero-padded to the full report size
	}
	report := make([]byte, size)
	report[0] = reportID
	report[1] = 0
	binary.LittleEndian.PutUint16(report[2:4], uint16(len(payload)))
	copy(report[4:], payload)
	_, err := u.epOut.Write(report)
	return err
}

func (u *USBHID) readReport(wantID byte) ([]byte, error) {
	buf := make([]byte, 4+hidReportSize)
	n, err := u.epIn.Read(buf)
	if err != nil {
		return nil, err
	}
	if n < 4 {
		return nil, mberr.NewConnection("usb-hid: short report (%d bytes)", n)
	}
	if buf[0] != wantID {
		return nil, mberr.NewConnection("usb-hid: expected report %#x, got %#x", wantID, buf[0])
	}
	length := binary.LittleEndian.Uint16(buf[2:4])
	if int(length) > n-4 {
		length = uint16(n - 4)
	}
	return buf[4 : 4+length], nil
}

// WriteCmd sends one CMD_OUT report and waits for one CMD_IN report. timeout is unused; USB-HID
// transfer timeouts are governed by the gousb endpoint, not a per-call deadline.
func (u *USBHID) WriteCmd(payload []byte, _ time.Duration) (uint32, error) {
	if err := u.writeReport(reportCmdOut, payload); err != nil {
		return 0, err
	}
	resp, err := u.readReport(reportCmdIn)
	if err != nil {
		return 0, err
	}
	u.lastRsp = resp

	if len(resp) < 8 {
		return 0, mberr.NewConnection("usb-hid: response too short (%d bytes)", len(resp))
	}
	status := binary.LittleEndian.Uint32(resp[4:8])
	if status != 0 {
		return 0, &mberr.CommandError{Status: status, Name: proto.StatusCode(status).Name()}
	}
	if len(resp) >= 12 {
		return binary.LittleEndian.Uint32(resp[8:12]), nil
	}
	return 0, nil
}

// ReadData reads an inbound data phase as a sequence of DATA_IN reports, followed by a trailing
// CMD_IN report carrying the final status.
func (u *USBHID) ReadData(length int) ([]byte, error) {
	data := make([]byte, 0, length)
	for len(data) < length {
		chunk, err := u.readReport(reportDataIn)
		if err != nil {
			return nil, err
		}
		data = append(data, chunk...)
	}

	resp, err := u.readReport(reportCmdIn)
	if err != nil {
		return nil, err
	}
	u.lastRsp = resp
	if len(resp) >= 8 {
		if status := binary.LittleEndian.Uint32(resp[4:8]); status != 0 {
			return nil, &mberr.DataError{Mode: "read", Status: status, Name: proto.StatusCode(status).Name()}
		}
	}

	if len(data) > length {
		data = data[:length]
	}
	return data, nil
}

// WriteData sends an outbound data phase as DATA_OUT reports chunked to hidReportSize (the
// report's own payload capacity bounds the chunk size; maxPacketSize further limits it when
// smaller), then reads the trailing CMD_IN response.
func (u *USBHID) WriteData(data []byte, maxPacketSize uint32) (uint32, error) {
	chunkSize := uint32(hidReportSize)
	if maxPacketSize != 0 && maxPacketSize < chunkSize {
		chunkSize = maxPacketSize
	}

	for offset := 0; offset < len(data); {
		end := offset + int(chunkSize)
		if end > len(data) {
			end = len(data)
		}
		if err := u.writeReport(reportDataOut, data[offset:end]); err != nil {
			return 0, err
		}
		offset = end
	}

	resp, err := u.readReport(reportCmdIn)
	if err != nil {
		return 0, err
	}
	u.lastRsp = resp
	if len(resp) < 8 {
		return 0, mberr.NewConnection("usb-hid: response too short (%d bytes)", len(resp))
	}
	if status := binary.LittleEndian.Uint32(resp[4:8]); status != 0 {
		return 0, &mberr.DataError{Mode: "write", Status: status, Name: proto.StatusCode(status).Name()}
	}
	if len(resp) >= 12 {
		return binary.LittleEndian.Uint32(resp[8:12]), nil
	}
	return uint32(len(data)), nil
}

func (u *USBHID) LastCmdResponse() []byte { return u.lastRsp }
