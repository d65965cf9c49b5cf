// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// CRC-16/XMODEM, used by the serial framing packet layer.

package framing

// CRC16 computes CRC-16/XMODEM (poly 0x1021, init 0, no reflection, no xor-out) over data,
// chained from the given seed so callers can compute a running CRC across several buffers:
// CRC16(b, CRC16(a, seed)) == CRC16(a‖b, seed).
func CRC16(data []byte, seed uint16) uint16 {
	crc := seed
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
