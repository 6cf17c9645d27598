package server

import (
	"bugsleep_c2emu/constants"
	"bugsleep_c2emu/fileio"
	"bugsleep_c2emu/networking"
	"bugsleep_c2emu/networking/opcode"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle stage of a session
type State int

const (
	CONNECTED          State = iota // 0: Accepted, nothing exchanged
	HANDSHAKE_SENT                  // 1: Announce read, nonce and reply sent
	COMMAND_DISPATCHED              // 2: Tasking delivered
	SHELL_ACTIVE                    // 3: Interactive loop running
	DOWNLOADING                     // 4: Pulling a file
	UPLOADING                       // 5: Pushing a file
	CLOSED                          // 6: Socket released
)

var stateNames = [...]string{
	"connected", "handshake-sent", "command-dispatched",
	"shell-active", "downloading", "uploading", "closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "invalid"
	}
	return stateNames[s]
}

// Handler drives one implant connection from handshake to close
type Handler struct {
	id         string
	conn       net.Conn
	cfg        *Config
	crypto     *networking.Crypto
	log        *logrus.Entry
	transcript *fileio.Transcript
	closeOnce  sync.Once
	mu         sync.Mutex
	state      State
}

// NewHandler prepares a session for an accepted connection
func NewHandler(conn net.Conn, cfg *Config) *Handler {
	id := uuid.NewString()
	h := &Handler{
		id:     id,
		conn:   conn,
		cfg:    cfg,
		crypto: new(networking.Crypto).WithIncrement(cfg.Increment),
		log: cfg.logger().WithFields(logrus.Fields{
			"session": shortID(id),
			"remote":  conn.RemoteAddr().String(),
		}),
	}

	// Record raw traffic if asked to.
	if cfg.RecordFolder != "" {
		transcript, err := fileio.NewTranscript(cfg.RecordFolder, id)
		if err != nil {
			h.log.Warnf("Wire transcript disabled: %v", err)
		} else {
			h.transcript = transcript
			h.conn = &recordingConn{Conn: conn, transcript: transcript}
			h.log.Debugf("Recording wire transcript to %s", transcript.Path())
		}
	}

	return h
}

// ID returns session uuid
func (h *Handler) ID() string {
	return h.id
}

// State returns current lifecycle stage
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handler) setState(state State) {
	h.mu.Lock()
	h.state = state
	h.mu.Unlock()
	h.log.Tracef("Session state: %s", state)
}

// Run handles whole session. The connection is closed when it returns.
func (h *Handler) Run() error {
	defer h.Close()

	command := h.cfg.Command
	if !opcode.Supported(command) {
		return fmt.Errorf("%w: %s", networking.ErrUnsupportedCommand, opcode.Name(command))
	}

	// Prepare tasking up front so a bad path never leaves a half done handshake.
	tasking, err := networking.EncodeTasking(command, h.cfg.taskingPath(), h.crypto.Increment())
	if err != nil {
		return err
	}

	h.log.Infof("Handling command 0x%x (%s)", command, opcode.Name(command))

	if err := h.handshake(tasking); err != nil {
		return err
	}

	switch command {
	case opcode.SHELL:
		h.setState(SHELL_ACTIVE)
		return h.runShell()
	case opcode.DOWNLOAD:
		h.setState(DOWNLOADING)
		return h.download()
	default:
		h.setState(UPLOADING)
		return h.upload()
	}
}

// handshake reads the announce message, sends nonce and then the tasking
func (h *Handler) handshake(tasking []byte) error {
	h.log.Debug("[Phase 1] Receiving the first message from client")
	announce, err := networking.ReadFrame(h.conn, h.crypto.Increment())
	if err != nil {
		return fmt.Errorf("announce: %w", err)
	}
	h.log.Infof("Implant announced %d bytes: %q", len(announce), announce)
	h.dump(3, "Announce", announce)

	h.log.Debug("[Phase 2] Sending 4 random bytes back to the client")
	nonce := make([]byte, constants.NONCE_SIZE)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	h.dump(3, "Nonce", nonce)
	if _, err := h.conn.Write(nonce); err != nil {
		return fmt.Errorf("send nonce: %w", err)
	}

	time.Sleep(h.cfg.HandshakeDelay)

	h.log.Debug("[Phase 3] Sending the handshake reply")
	h.dump(3, "Tasking", tasking)
	if _, err := h.conn.Write(tasking); err != nil {
		return fmt.Errorf("send tasking: %w", err)
	}
	h.setState(HANDSHAKE_SENT)
	h.setState(COMMAND_DISPATCHED)

	return nil
}

// dump logs a hexdump of data when verbosity reaches level
func (h *Handler) dump(level int, label string, data []byte) {
	if h.cfg.Verbosity < level {
		return
	}
	h.log.Tracef("%s (hexdump and ASCII view):\n%s", label, hex.Dump(data))
}

// Close releases the socket exactly once
func (h *Handler) Close() {
	h.closeOnce.Do(func() {
		h.conn.Close()
		if h.transcript != nil {
			if err := h.transcript.Close(); err != nil {
				h.log.Warnf("Wire transcript incomplete: %v", err)
			}
		}
		h.setState(CLOSED)
		h.log.Debug("Closing client connection")
	})
}
