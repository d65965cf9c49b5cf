package framing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte{0x07, 0x00, 0x00, 0x02, 0x01, 0x00, 0x00, 0x00}

	pkt := Encode(TypeCMD, payload)
	require.Len(t, pkt, HeaderLen+len(payload))
	assert.Equal(t, byte(StartByte), pkt[0])

	typ, err := Decode(pkt[:HeaderLen], pkt[HeaderLen:])
	require.NoError(t, err)
	assert.Equal(t, TypeCMD, typ)
}

func TestEncodeSpecialForm(t *testing.T) {
	pkt := Encode(TypeACK, []byte{0xDE, 0xAD})
	assert.Equal(t, []byte{StartByte, byte(TypeACK)}, pkt)
}

func TestDecodeRejectsBadCRC(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	pkt := Encode(TypeDATA, payload)
	pkt[len(pkt)-1] ^= 0xFF // corrupt last payload byte

	_, err := Decode(pkt[:HeaderLen], pkt[HeaderLen:])
	assert.Error(t, err)
}

func TestDecodeRejectsBadStartByte(t *testing.T) {
	pkt := Encode(TypeDATA, []byte{1, 2})
	pkt[0] = 0x00

	_, err := Decode(pkt[:HeaderLen], pkt[HeaderLen:])
	assert.Error(t, err)
}

// GetProperty(CURRENT_VERSION) scenario from the end-to-end spec scenarios.
func TestEncodeMatchesSpecScenario(t *testing.T) {
	payload := []byte{0x07, 0x00, 0x00, 0x02, 0x01, 0x00, 0x00, 0x00, 0, 0, 0, 0}
	pkt := Encode(TypeCMD, payload)
	assert.EqualValues(t, 0x0C, pkt[2])
	assert.EqualValues(t, 0x00, pkt[3])
}
