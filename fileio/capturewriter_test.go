package fileio

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func capture(c *qt.C, folder string, chunks ...[]byte) *CaptureResult {
	writer := new(CaptureWriter)
	c.Assert(writer.New(folder, 2), qt.IsNil)
	stream, done := writer.StartWriting()
	for _, chunk := range chunks {
		stream <- chunk
	}
	close(stream)
	return <-done
}

func TestCaptureWriterContentAddressed(t *testing.T) {
	c := qt.New(t)
	folder := t.TempDir()

	res := capture(c, folder, []byte("0123"), []byte("456789"))
	c.Assert(res.Err, qt.IsNil)
	c.Assert(res.Size, qt.Equals, int64(10))

	want := ChecksumSHA1([]byte("0123456789"))
	c.Assert(res.Path, qt.Equals, filepath.Join(folder, want+".bin"))

	content, err := os.ReadFile(res.Path)
	c.Assert(err, qt.IsNil)
	c.Assert(string(content), qt.Equals, "0123456789")

	sum, err := GetFileChecksumSHA1(res.Path)
	c.Assert(err, qt.IsNil)
	c.Assert(CaptureName(sum), qt.Equals, want+".bin")

	// Same content again lands on the same name.
	again := capture(c, folder, []byte("0123456789"))
	c.Assert(again.Path, qt.Equals, res.Path)

	entries, err := os.ReadDir(folder)
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 1)
}

func TestCaptureWriterAbort(t *testing.T) {
	c := qt.New(t)
	folder := t.TempDir()

	writer := new(CaptureWriter)
	c.Assert(writer.New(folder, 1), qt.IsNil)
	stream, done := writer.StartWriting()
	stream <- []byte("partial")
	writer.Abort()
	close(stream)

	res := <-done
	c.Assert(res.Err, qt.IsNil)
	c.Assert(res.Path, qt.Equals, "")

	entries, err := os.ReadDir(folder)
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 0)
}

func TestCaptureWriterEmpty(t *testing.T) {
	c := qt.New(t)
	res := capture(c, t.TempDir())
	c.Assert(res.Err, qt.IsNil)
	c.Assert(filepath.Base(res.Path), qt.Equals, "da39a3ee5e6b4b0d3255bfef95601890afd80709.bin")
}

func TestCaptureWriterMissingFolder(t *testing.T) {
	c := qt.New(t)
	writer := new(CaptureWriter)
	c.Assert(writer.New(filepath.Join(t.TempDir(), "nope"), 1), qt.IsNotNil)
}
