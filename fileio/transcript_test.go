package fileio

import (
	"bytes"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestTranscriptRoundTrip(t *testing.T) {
	c := qt.New(t)
	folder := t.TempDir()

	transcript, err := NewTranscript(folder, "session-1")
	c.Assert(err, qt.IsNil)
	c.Assert(transcript.Path(), qt.Equals, filepath.Join(folder, "session-1.wire.lz4"))

	big := bytes.Repeat([]byte{0x03}, 200000)
	transcript.Record(INBOUND, []byte{0x0a, 0xfd, 0xfd, 0xfd})
	transcript.Record(OUTBOUND, []byte{6, 3, 3, 3})
	transcript.Record(OUTBOUND, nil)
	transcript.Record(INBOUND, big)
	c.Assert(transcript.Close(), qt.IsNil)

	// Closing twice is harmless and records after close are dropped.
	transcript.Record(INBOUND, []byte{1})
	c.Assert(transcript.Close(), qt.IsNil)

	records, err := ReadTranscript(transcript.Path())
	c.Assert(err, qt.IsNil)
	c.Assert(records, qt.HasLen, 3)
	c.Assert(records[0].Direction, qt.Equals, INBOUND)
	c.Assert(records[0].Data, qt.DeepEquals, []byte{0x0a, 0xfd, 0xfd, 0xfd})
	c.Assert(records[1].Direction.String(), qt.Equals, "out")
	c.Assert(records[2].Data, qt.DeepEquals, big)
	c.Assert(records[2].Time.IsZero(), qt.IsFalse)
}

func TestTranscriptRecordCopiesData(t *testing.T) {
	c := qt.New(t)
	transcript, err := NewTranscript(t.TempDir(), "session-2")
	c.Assert(err, qt.IsNil)

	data := []byte("abc")
	transcript.Record(OUTBOUND, data)
	data[0] = 'x'
	c.Assert(transcript.Close(), qt.IsNil)

	records, err := ReadTranscript(transcript.Path())
	c.Assert(err, qt.IsNil)
	c.Assert(string(records[0].Data), qt.Equals, "abc")
}
