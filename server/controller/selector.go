package server

import (
	"bugsleep_c2emu/networking"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
)

// Server accepts implant connections and runs one session per connection
type Server struct {
	cfg       *Config
	listener  net.Listener
	log       *logrus.Logger
	closeOnce sync.Once
	closeErr  error
}

// NewServer returns server for a validated configuration
func NewServer(cfg *Config) *Server {
	return &Server{
		cfg: cfg,
		log: cfg.logger(),
	}
}

// Listen binds listening socket
func (s *Server) Listen(addr string) error {
	lc := new(net.ListenConfig)
	l, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w on %s: %v", networking.ErrBindFailure, addr, err)
	}
	s.listener = l
	s.log.Infof("Listening on %s", l.Addr())
	return nil
}

// Addr returns bound address
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until Shutdown closes the listener
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("serve called before listen")
	}

	for {
		// Handle incoming connection.
		conn, err := s.listener.Accept()
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		if err != nil {
			s.log.Errorf("Failed to establish incoming connection: %v", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		s.tune(conn)
		s.log.Infof("Accepted connection from client: %s", conn.RemoteAddr())

		// Sessions block on the operator and the implant, keep accepting meanwhile.
		go s.handleConnection(conn)
	}
}

// tune sets socket options on an accepted connection
func (s *Server) tune(conn net.Conn) {
	if tcp, ok := conn.(*net.TCPConn); ok {
		// Set TCP_NODELAY to always immediately send.
		tcp.SetNoDelay(true)
	}
	if s.cfg.DSCP > 0 {
		// DSCP lives in the upper 6 bits of the TOS byte.
		if err := ipv4.NewConn(conn).SetTOS(s.cfg.DSCP << 2); err != nil {
			s.log.Debugf("Could not set DSCP on %s: %v", conn.RemoteAddr(), err)
		}
	}
}

// handleConnection runs a session and keeps its failure to itself
func (s *Server) handleConnection(conn net.Conn) {
	session := NewHandler(conn, s.cfg)
	if err := session.Run(); err != nil {
		session.log.Errorf("Session ended: %v", err)
		return
	}
	session.log.Info("Client connection closed")
}

// Shutdown resets and closes the listening socket so the port is free right
// away. Running sessions are not waited for.
func (s *Server) Shutdown() error {
	s.closeOnce.Do(func() {
		if s.listener == nil {
			return
		}
		s.log.Info("Shutting down, closing server socket")
		if err := setLingerReset(s.listener); err != nil {
			s.log.Warnf("Could not reset server socket: %v", err)
		}
		s.closeErr = s.listener.Close()
	})
	return s.closeErr
}
