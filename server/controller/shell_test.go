package server

import (
	"bytes"
	"testing"
	"testing/iotest"

	"bugsleep_c2emu/networking"

	qt "github.com/frankban/quicktest"
)

func implantBytes(plain string) []byte {
	return networking.Transform([]byte(plain), networking.Inverse(3))
}

func TestReceiveOutput(t *testing.T) {
	c := qt.New(t)
	raw, err := ReceiveOutput(bytes.NewReader(implantBytes("hello\x00\x00\x00\x00")), 3)
	c.Assert(err, qt.IsNil)
	c.Assert(CleanOutput(raw), qt.Equals, "hello")
}

func TestReceiveOutputMarkerSplitAcrossReads(t *testing.T) {
	c := qt.New(t)
	stream := iotest.OneByteReader(bytes.NewReader(implantBytes("Volume in drive C\r\n\x00\x00\x00\x00")))
	raw, err := ReceiveOutput(stream, 3)
	c.Assert(err, qt.IsNil)
	c.Assert(CleanOutput(raw), qt.Equals, "Volume in drive C\n")
}

func TestReceiveOutputLongerThanOneRead(t *testing.T) {
	c := qt.New(t)
	long := string(bytes.Repeat([]byte("x"), 3000))
	raw, err := ReceiveOutput(bytes.NewReader(implantBytes(long+"\x00\x00\x00\x00")), 3)
	c.Assert(err, qt.IsNil)
	c.Assert(CleanOutput(raw), qt.Equals, long)
}

func TestReceiveOutputChannelClosed(t *testing.T) {
	c := qt.New(t)
	raw, err := ReceiveOutput(bytes.NewReader(implantBytes("partial")), 3)
	c.Assert(err, qt.ErrorIs, networking.ErrChannelClosed)
	c.Assert(string(raw), qt.Equals, "partial")
}

func TestCleanOutput(t *testing.T) {
	c := qt.New(t)
	c.Assert(CleanOutput([]byte("\x00\x00line1\r\nline2\r\n\x00\x00\x00\x00")), qt.Equals, "line1\nline2\n")
	c.Assert(CleanOutput([]byte("caf\xe9\x00\x00\x00\x00")), qt.Equals, "caf\uFFFD")
	c.Assert(CleanOutput([]byte("\x00\x00\x00\x00")), qt.Equals, "")
}
