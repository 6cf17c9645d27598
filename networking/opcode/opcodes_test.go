package opcode

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestParse(t *testing.T) {
	c := qt.New(t)
	for in, want := range map[string]uint8{
		"shell":    SHELL,
		" Upload ": UPLOAD,
		"download": DOWNLOAD,
		"0":        DOWNLOAD,
		"0x1":      UPLOAD,
		"2":        SHELL,
	} {
		got, ok := Parse(in)
		c.Assert(ok, qt.IsTrue, qt.Commentf("input %q", in))
		c.Assert(got, qt.Equals, want)
	}

	for _, in := range []string{"", "3", "exec", "0xff"} {
		_, ok := Parse(in)
		c.Assert(ok, qt.IsFalse, qt.Commentf("input %q", in))
	}
}

func TestName(t *testing.T) {
	c := qt.New(t)
	c.Assert(Name(SHELL), qt.Equals, "shell")
	c.Assert(Name(9), qt.Equals, "unknown(0x9)")
	c.Assert(Supported(9), qt.IsFalse)
}
