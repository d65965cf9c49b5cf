package transport

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dswarbrick/mboot/framing"
)

// fakeStream is an in-memory byteStream: reads come from a preloaded buffer, writes are captured
// for assertions.
type fakeStream struct {
	toRead  *bytes.Buffer
	written bytes.Buffer
}

func (f *fakeStream) Read(p []byte) (int, error)  { return f.toRead.Read(p) }
func (f *fakeStream) Write(p []byte) (int, error) { return f.written.Write(p) }
func (f *fakeStream) Close() error                { return nil }
func (f *fakeStream) SetReadTimeout(time.Duration) error {
	return nil
}

func cmdResponsePayload(status uint32, primary uint32) []byte {
	payload := make([]byte, 12)
	payload[3] = 2 // param_count: status + one value
	binary.LittleEndian.PutUint32(payload[4:8], status)
	binary.LittleEndian.PutUint32(payload[8:12], primary)
	return payload
}

func TestSerialSessionPing(t *testing.T) {
	stream := &fakeStream{toRead: bytes.NewBuffer(nil)}
	pingr := []byte{0x00, 0x02, 0x01, 0x00, 0x00, 0x00}
	stream.toRead.Write(framing.Encode(framing.TypePINGR, pingr))

	s := newSerialSession(stream)
	require.NoError(t, s.Ping())
	assert.Equal(t, []byte{framing.StartByte, byte(framing.TypePING)}, stream.written.Bytes())
}

func TestSerialSessionWriteCmd(t *testing.T) {
	stream := &fakeStream{toRead: bytes.NewBuffer(nil)}
	pingr := []byte{0x00, 0x02, 0x01, 0x00, 0x00, 0x00}
	stream.toRead.Write(framing.Encode(framing.TypePINGR, pingr))
	stream.toRead.Write([]byte{framing.StartByte, byte(framing.TypeACK)})
	stream.toRead.Write(framing.Encode(framing.TypeCMD, cmdResponsePayload(0, 0x4B030000)))

	s := newSerialSession(stream)
	value, err := s.WriteCmd([]byte{0x07, 0x00, 0x00, 0x02, 0x01, 0x00, 0x00, 0x00}, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0x4B030000, value)

	// Written bytes: the PING, then the CMD framing packet, then the trailing ACK.
	assert.Equal(t, byte(framing.TypeACK), stream.written.Bytes()[len(stream.written.Bytes())-1])
}

func TestSerialSessionWriteCmdCommandError(t *testing.T) {
	stream := &fakeStream{toRead: bytes.NewBuffer(nil)}
	pingr := []byte{0x00, 0x02, 0x01, 0x00, 0x00, 0x00}
	stream.toRead.Write(framing.Encode(framing.TypePINGR, pingr))
	stream.toRead.Write([]byte{framing.StartByte, byte(framing.TypeACK)})
	stream.toRead.Write(framing.Encode(framing.TypeCMD, cmdResponsePayload(100, 0)))

	s := newSerialSession(stream)
	_, err := s.WriteCmd([]byte{0x01, 0x00, 0x00, 0x00}, 0)
	assert.Error(t, err)
}

func TestSerialSessionReadData(t *testing.T) {
	stream := &fakeStream{toRead: bytes.NewBuffer(nil)}
	stream.toRead.Write(framing.Encode(framing.TypeDATA, []byte{1, 2, 3, 4}))
	stream.toRead.Write(framing.Encode(framing.TypeDATA, []byte{5, 6}))
	stream.toRead.Write(framing.Encode(framing.TypeCMD, cmdResponsePayload(0, 6)))

	s := newSerialSession(stream)
	data, err := s.ReadData(6)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, data)
}

func TestSerialSessionWriteData(t *testing.T) {
	stream := &fakeStream{toRead: bytes.NewBuffer(nil)}
	// Two chunks of 4 bytes each acked, then trailing CMD response.
	stream.toRead.Write([]byte{framing.StartByte, byte(framing.TypeACK)})
	stream.toRead.Write([]byte{framing.StartByte, byte(framing.TypeACK)})
	stream.toRead.Write(framing.Encode(framing.TypeCMD, cmdResponsePayload(0, 8)))

	s := newSerialSession(stream)
	n, err := s.WriteData([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 8, n)
}
