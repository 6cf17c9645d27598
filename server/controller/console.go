package server

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Operator supplies shell commands and receives implant output
type Operator interface {
	ReadCommand(session, prompt string) (string, error)
	Show(session, output string)
}

// Console is an Operator on a terminal. Sessions run concurrently: reading
// a line and printing are serialised separately, so output of other sessions
// keeps flowing while one waits for the operator.
type Console struct {
	inMu  sync.Mutex
	outMu sync.Mutex
	in    *bufio.Reader
	out   io.Writer
}

// NewConsole returns console reading commands from in and printing to out
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// ReadCommand prompts and reads one line. io.EOF once input is closed.
func (c *Console) ReadCommand(session, prompt string) (string, error) {
	c.inMu.Lock()
	defer c.inMu.Unlock()

	c.outMu.Lock()
	fmt.Fprintf(c.out, "[%s] %s", shortID(session), prompt)
	c.outMu.Unlock()

	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Show prints implant output
func (c *Console) Show(session, output string) {
	c.outMu.Lock()
	defer c.outMu.Unlock()

	fmt.Fprintln(c.out, output)
}

// shortID returns the first group of a session uuid
func shortID(session string) string {
	if i := strings.IndexByte(session, '-'); i > 0 {
		return session[:i]
	}
	return session
}
