// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

//go:build linux

package main

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	_LINUX_CAPABILITY_VERSION_3 = 0x20080522

	// CAP_SYS_ADMIN is what usbfs needs to claim a USB interface out from under a kernel driver
	// (gousb/libusb's detach-kernel-driver path) when the FTDI bridge is already bound to ftdi_sio.
	capSysAdmin = 1 << 21
)

type capHeader struct {
	version uint32
	pid     int
}

type capData struct {
	effective   uint32
	permitted   uint32
	inheritable uint32
}

type capsV3 struct {
	hdr  capHeader
	data [2]capData
}

// checkCaps invokes the capget syscall to check for cap_sys_admin, the one capability USB-HID and
// FTDI MPSSE access need beyond ordinary read/write permission on the device node (serial ports
// need no capability at all; udev device-node permissions are enough). This depends on the binary
// having the capability set (via setcap), or on running as root.
func checkCaps() {
	caps := new(capsV3)
	caps.hdr.version = _LINUX_CAPABILITY_VERSION_3

	_, _, e1 := unix.RawSyscall(unix.SYS_CAPGET, uintptr(unsafe.Pointer(&caps.hdr)), uintptr(unsafe.Pointer(&caps.data)), 0)
	if e1 != 0 {
		fmt.Println("capget() failed:", e1.Error())
		return
	}

	if caps.data[0].effective&capSysAdmin == 0 {
		fmt.Println("cap_sys_admin is not in effect; claiming a USB-HID or FTDI interface bound to a kernel driver will probably fail.")
	}
}
