package server

import (
	"io"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	qt "github.com/frankban/quicktest"
)

// scriptedOperator replays commands and keeps everything shown to it
type scriptedOperator struct {
	mu       sync.Mutex
	commands []string
	shown    []string
}

func (s *scriptedOperator) ReadCommand(session, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.commands) == 0 {
		return "", io.EOF
	}
	command := s.commands[0]
	s.commands = s.commands[1:]
	return command, nil
}

func (s *scriptedOperator) Show(session, output string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown, output)
}

func (s *scriptedOperator) outputs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.shown...)
}

func testConfig(c *qt.C, command uint8) *Config {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.TraceLevel)

	cfg := NewConfig(command)
	cfg.HandshakeDelay = 0
	cfg.OutputFolder = c.TempDir()
	cfg.Operator = new(scriptedOperator)
	cfg.Verbosity = 5
	cfg.ProgressOutput = io.Discard
	cfg.Logger = logger
	return cfg
}

// startSession runs a handler on one end of a pipe and returns the implant end
func startSession(c *qt.C, cfg *Config) (*Handler, net.Conn, <-chan error) {
	serverConn, implantConn := net.Pipe()
	h := NewHandler(serverConn, cfg)
	done := make(chan error, 1)
	go func() {
		done <- h.Run()
	}()
	c.Cleanup(func() {
		implantConn.Close()
	})
	return h, implantConn, done
}
