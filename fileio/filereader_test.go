package fileio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestReadSource(t *testing.T) {
	c := qt.New(t)
	folder := t.TempDir()
	want := bytes.Repeat([]byte("payload-"), 20000)
	name := filepath.Join(folder, "implant.dll")
	c.Assert(os.WriteFile(name, want, 0o600), qt.IsNil)

	got, err := ReadSource(name)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, want)

	empty := filepath.Join(folder, "empty")
	c.Assert(os.WriteFile(empty, nil, 0o600), qt.IsNil)
	got, err = ReadSource(empty)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.HasLen, 0)
}

func TestReadSourceErrors(t *testing.T) {
	c := qt.New(t)
	folder := t.TempDir()

	_, err := ReadSource(filepath.Join(folder, "missing"))
	c.Assert(os.IsNotExist(err), qt.IsTrue)

	_, err = ReadSource(folder)
	c.Assert(err, qt.ErrorMatches, ".* is a directory")

	_, err = new(SourceReader).ReadAll()
	c.Assert(err, qt.ErrorMatches, "cannot read without file handle")
}
