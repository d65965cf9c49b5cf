package mboot

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dswarbrick/mboot/mberr"
	"github.com/dswarbrick/mboot/proto"
)

// fakeTransport is a scriptable transport.Transport double: each WriteCmd call pops the next
// queued (value, error, rawResponse) triple.
type fakeTransport struct {
	cmds     [][]byte
	timeouts []time.Duration

	values  []uint32
	errs    []error
	raws    [][]byte
	i       int

	readData  [][]byte
	readIdx   int
	writeData [][]byte

	lastResp []byte
	closed   bool
}

func (f *fakeTransport) Ping() error { return nil }

func (f *fakeTransport) WriteCmd(payload []byte, timeout time.Duration) (uint32, error) {
	f.cmds = append(f.cmds, payload)
	f.timeouts = append(f.timeouts, timeout)
	idx := f.i
	f.i++
	if idx < len(f.raws) {
		f.lastResp = f.raws[idx]
	}
	var val uint32
	var err error
	if idx < len(f.values) {
		val = f.values[idx]
	}
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	return val, err
}

func (f *fakeTransport) ReadData(length int) ([]byte, error) {
	idx := f.readIdx
	f.readIdx++
	if idx < len(f.readData) {
		return f.readData[idx], nil
	}
	return make([]byte, length), nil
}

func (f *fakeTransport) WriteData(data []byte, maxPacketSize uint32) (uint32, error) {
	f.writeData = append(f.writeData, data)
	return uint32(len(data)), nil
}

func (f *fakeTransport) LastCmdResponse() []byte { return f.lastResp }

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func rawResponse(status, primary uint32) []byte {
	buf := make([]byte, 12)
	buf[3] = 2
	binary.LittleEndian.PutUint32(buf[4:8], status)
	binary.LittleEndian.PutUint32(buf[8:12], primary)
	return buf
}

func newTestEngine(ft *fakeTransport) *McuBoot {
	m := newMcuBoot()
	m.itf = ft
	m.current = InterfaceUART
	return m
}

func TestFlashEraseAllUsesDefaultTimeoutWhenUnset(t *testing.T) {
	ft := &fakeTransport{values: []uint32{0}}
	m := newTestEngine(ft)

	require.NoError(t, m.FlashEraseAll(0))
	assert.Equal(t, flashEraseTimeout, ft.timeouts[0])
}

func TestFlashEraseAllHonorsOverride(t *testing.T) {
	ft := &fakeTransport{values: []uint32{0}}
	m := newTestEngine(ft)
	m.Timeout = 10 * time.Second

	require.NoError(t, m.FlashEraseAll(0))
	assert.Equal(t, 10*time.Second, ft.timeouts[0])
}

func TestReadMemoryRejectsZeroLength(t *testing.T) {
	m := newTestEngine(&fakeTransport{})
	_, err := m.ReadMemory(0x1000, 0, 0)
	assert.Error(t, err)
}

func TestReadMemoryBuildsCorrectCommand(t *testing.T) {
	ft := &fakeTransport{values: []uint32{16}}
	m := newTestEngine(ft)

	_, err := m.ReadMemory(0x2000, 16, 0)
	require.NoError(t, err)
	require.Len(t, ft.cmds, 1)
	assert.Equal(t, proto.CmdReadMemory, proto.CommandTag(ft.cmds[0][0]))
	assert.EqualValues(t, 0x2000, binary.LittleEndian.Uint32(ft.cmds[0][4:8]))
	assert.EqualValues(t, 16, binary.LittleEndian.Uint32(ft.cmds[0][8:12]))
}

func TestFillMemoryPacksShortUnit(t *testing.T) {
	ft := &fakeTransport{values: []uint32{0}}
	m := newTestEngine(ft)

	require.NoError(t, m.FillMemory(0x1000, 4, 0xAB, FillShort))
	pattern := binary.LittleEndian.Uint32(ft.cmds[0][12:16])
	assert.EqualValues(t, 0x00AB00AB, pattern)
}

func TestFillMemoryRejectsOutOfRangePattern(t *testing.T) {
	m := newTestEngine(&fakeTransport{})
	err := m.FillMemory(0x1000, 4, 0x1FFFF, FillShort)
	assert.Error(t, err)
}

func TestGetPropertyDecodedCurrentVersion(t *testing.T) {
	raw := rawResponse(0, 0x01020A)
	ft := &fakeTransport{values: []uint32{0x01020A}, raws: [][]byte{raw}}
	m := newTestEngine(ft)

	d, err := m.GetPropertyDecoded(proto.PropCurrentVersion, 0)
	require.NoError(t, err)
	require.NotNil(t, d.Version)
	assert.Equal(t, "1.2.10", d.Version.String())
}

func TestReliableUpdateTreatsItsSuccessCodeAsSuccess(t *testing.T) {
	ft := &fakeTransport{errs: []error{&mberr.CommandError{Status: uint32(proto.StatusReliableUpdateSuccess)}}}
	m := newTestEngine(ft)

	require.NoError(t, m.ReliableUpdate(0x1000))
}

func TestFlashProgramOnceRejectsLengthMismatch(t *testing.T) {
	m := newTestEngine(&fakeTransport{})
	err := m.FlashProgramOnce(0, 8, []byte{1, 2, 3, 4})
	assert.Error(t, err)
}

func TestFlashSecurityDisableWordReversesKeyHalves(t *testing.T) {
	ft := &fakeTransport{values: []uint32{0}}
	m := newTestEngine(ft)
	key := [8]byte{0, 1, 2, 3, 4, 5, 6, 7}

	require.NoError(t, m.FlashSecurityDisable(key))
	appended := ft.cmds[0][4:]
	assert.Equal(t, []byte{3, 2, 1, 0, 7, 6, 5, 4}, appended)
}
