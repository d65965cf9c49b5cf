package framing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC16Chainable(t *testing.T) {
	data := []byte("123456789")

	whole := CRC16(data, 0)
	chained := CRC16(data[5:], CRC16(data[:5], 0))

	assert.Equal(t, whole, chained)
}

func TestCRC16Empty(t *testing.T) {
	assert.EqualValues(t, 0, CRC16(nil, 0))
}

func TestCRC16KnownVector(t *testing.T) {
	// Standard XMODEM CRC-16 check value for the ASCII string "123456789".
	assert.EqualValues(t, 0x31C3, CRC16([]byte("123456789"), 0))
}
