package server

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestConsole(t *testing.T) {
	c := qt.New(t)
	var out bytes.Buffer
	console := NewConsole(strings.NewReader("whoami\r\ndir C:\\"), &out)
	session := "3f2a9c1e-1111-2222-3333-444455556666"

	command, err := console.ReadCommand(session, "> ")
	c.Assert(err, qt.IsNil)
	c.Assert(command, qt.Equals, "whoami")

	// Last line without newline still counts.
	command, err = console.ReadCommand(session, "> ")
	c.Assert(err, qt.IsNil)
	c.Assert(command, qt.Equals, `dir C:\`)

	_, err = console.ReadCommand(session, "> ")
	c.Assert(err, qt.Equals, io.EOF)

	console.Show(session, "desktop\\user")
	c.Assert(out.String(), qt.Equals, "[3f2a9c1e] > [3f2a9c1e] > [3f2a9c1e] > desktop\\user\n")
}

// syncBuffer is a bytes.Buffer safe for concurrent use
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestConsoleShowWhileWaitingForOperator(t *testing.T) {
	c := qt.New(t)
	in, typing := io.Pipe()
	defer typing.Close()
	out := new(syncBuffer)
	console := NewConsole(in, out)

	read := make(chan string, 1)
	go func() {
		command, _ := console.ReadCommand("aaaaaaaa-1", "> ")
		read <- command
	}()
	for !strings.Contains(out.String(), "[aaaaaaaa] > ") {
		time.Sleep(time.Millisecond)
	}

	shown := make(chan struct{})
	go func() {
		console.Show("bbbbbbbb-2", "output of another session")
		close(shown)
	}()
	select {
	case <-shown:
	case <-time.After(5 * time.Second):
		c.Fatal("Show blocked behind a pending prompt")
	}
	c.Assert(out.String(), qt.Equals, "[aaaaaaaa] > output of another session\n")

	_, err := io.WriteString(typing, "hostname\n")
	c.Assert(err, qt.IsNil)
	c.Assert(<-read, qt.Equals, "hostname")
}

func TestShortID(t *testing.T) {
	c := qt.New(t)
	c.Assert(shortID("3f2a9c1e-1111"), qt.Equals, "3f2a9c1e")
	c.Assert(shortID("plain"), qt.Equals, "plain")
}
