// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// mbootctl is a thin command-line front-end over the mboot engine: it owns file reading, device
// scanning, and flag parsing, and depends on, but is not part of, the core protocol engine.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/dswarbrick/mboot"
	"github.com/dswarbrick/mboot/proto"
)

func main() {
	fmt.Println("mbootctl - MCU bootloader host tool")
	fmt.Printf("Built with %s on %s (%s)\n\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	checkCaps()

	var (
		scanFlag   = flag.Bool("scan", false, "Scan for candidate bootloader devices")
		aliasFile  = flag.String("aliases", "", "YAML device alias file (merged over built-in FTDI names)")
		uartPort   = flag.String("uart", "", "UART port to connect to, e.g. /dev/ttyUSB0")
		uartBaud   = flag.Int("baud", 0, "UART baud rate (0 = bootloader default)")
		usbVID     = flag.Uint("vid", 0, "USB vendor ID")
		usbPID     = flag.Uint("pid", 0, "USB product ID")
		getProp    = flag.String("get-property", "", "Property name to read, e.g. current-version")
		info       = flag.Bool("info", false, "Print the target's identifying properties")
		flashFile  = flag.String("flash-image", "", "File to write via flash-image")
		flashAddr  = flag.String("address", "", "Explicit load address for a flat binary image")
		eraseBeforeFlash = flag.Bool("erase", false, "Erase the target region before flashing")
		reset      = flag.Bool("reset", false, "Reset the target after the requested operation")
	)
	flag.Parse()

	if *scanFlag {
		candidates, err := Scan(*aliasFile)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		for _, c := range candidates {
			fmt.Printf("%-10s %s\n", c.Kind, c.Name)
		}
		return
	}

	m, err := openEngine(*uartPort, *uartBaud, uint16(*usbVID), uint16(*usbPID))
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer m.Close()

	if *info {
		if err := printInfo(m); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}

	if *getProp != "" {
		tag, ok := proto.LookupPropertyByFlagName(*getProp)
		if !ok {
			fmt.Printf("unknown property %q\n", *getProp)
			os.Exit(1)
		}
		d, err := m.GetPropertyDecoded(tag, 0)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("%s = %s\n", tag, d.Display)
	}

	if *flashFile != "" {
		var addr uint32
		if *flashAddr != "" {
			addr, err = parseAddr(*flashAddr)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
		}
		data, fileAddr, err := ReadFile(*flashFile, addr)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if addr == 0 {
			addr = fileAddr
		}
		n, err := m.FlashImage(data, addr, *eraseBeforeFlash, 0)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d bytes to %#08x\n", n, addr)
	}

	if *reset {
		if err := m.Reset(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}
}

func openEngine(uartPort string, uartBaud int, vid, pid uint16) (*mboot.McuBoot, error) {
	switch {
	case uartPort != "":
		return mboot.OpenUART(uartPort, uartBaud, mboot.WithCLIMode(true))
	case vid != 0 && pid != 0:
		return mboot.OpenUSB(vid, pid, mboot.WithCLIMode(true))
	default:
		return nil, fmt.Errorf("mbootctl: specify -uart or -vid/-pid (or -scan to discover devices)")
	}
}

func printInfo(m *mboot.McuBoot) error {
	info, err := m.GetMCUInfo()
	if err != nil {
		return err
	}
	fmt.Printf("Current version:  %s\n", info.CurrentVersion)
	if info.TargetVersion != nil {
		fmt.Printf("Target version:    %s\n", info.TargetVersion)
	}
	fmt.Printf("Available peripherals: %v\n", info.AvailablePeripherals)
	fmt.Printf("Available commands:    %v\n", info.AvailableCommands)
	fmt.Printf("Flash: start=%#08x size=%#x sectorSize=%#x blocks=%#x\n",
		info.FlashStartAddress, info.FlashSize, info.FlashSectorSize, info.FlashBlockCount)
	fmt.Printf("RAM:   start=%#08x size=%#x\n", info.RAMStartAddress, info.RAMSize)
	if len(info.UniqueDeviceIdent) > 0 {
		fmt.Printf("Unique ID: %v\n", info.UniqueDeviceIdent)
	}
	return nil
}
