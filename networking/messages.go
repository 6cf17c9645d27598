package networking

import (
	"bugsleep_c2emu/constants"
	"bugsleep_c2emu/networking/opcode"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// The BugSleep frame header is 4 bytes wide but the implant only ever looks
// at the first one. The remaining three are the encrypted form of 0x00.
// Frames are therefore limited to 255 bytes of payload; anything larger
// travels as transfer chunks with their own explicit size fields. This is
// wire compatibility with the implant and must stay as is.

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// ReadExact fills buf from r or reports how short the stream came up
func ReadExact(r io.Reader, buf []byte) error {
	n, err := io.ReadFull(r, buf)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: got %d of %d bytes", ErrIncompleteFrame, n, len(buf))
	}
	return err
}

// DecodeHeader decodes 4 header bytes to payload length
func DecodeHeader(header []byte, increment uint8) (uint8, error) {
	if len(header) != constants.HEADER_SIZE {
		return 0, errors.New("header length should always be 4 bytes")
	}
	return header[0] + increment, nil
}

// EncodeHeader encodes payload length to 4 header bytes
func EncodeHeader(length int, increment uint8) ([]byte, error) {
	if length < 0 || length > constants.MAX_FRAME_LEN {
		return nil, fmt.Errorf("%w: %d", ErrFrameTooLong, length)
	}
	plain := make([]byte, constants.HEADER_SIZE)
	plain[0] = byte(length)
	return Transform(plain, increment), nil
}

// ReadFrame reads one length-prefixed frame and returns its decrypted payload
func ReadFrame(r io.Reader, increment uint8) ([]byte, error) {
	header := make([]byte, constants.HEADER_SIZE)

	// Read message header first.
	if err := ReadExact(r, header); err != nil {
		return nil, fmt.Errorf("frame header: %w", err)
	}

	length, err := DecodeHeader(header, increment)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, length)
	if err := ReadExact(r, payload); err != nil {
		return nil, fmt.Errorf("frame payload: %w", err)
	}

	return Transform(payload, increment), nil
}

// PackFrame prefixes payload with its header and encrypts both
func PackFrame(payload []byte, increment uint8) ([]byte, error) {
	header, err := EncodeHeader(len(payload), increment)
	if err != nil {
		return nil, err
	}
	return append(header, Transform(payload, increment)...), nil
}

// PackCommand packs shell command text to an encrypted frame
func PackCommand(command string, increment uint8) ([]byte, error) {
	for i := 0; i < len(command); i++ {
		if command[i] >= utf8.RuneSelf {
			return nil, ErrNonASCIICommand
		}
	}
	return PackFrame([]byte(command), increment)
}

// WriteCommandFrame sends packed command text as a single write
func WriteCommandFrame(w io.Writer, command string, increment uint8) error {
	out, err := PackCommand(command, increment)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// EncodeHandshakeReply returns the fixed reply announcing given command id.
// The filler bytes are literal 0x03 whatever the configured increment.
func EncodeHandshakeReply(command uint8) []byte {
	base := command + 1
	return []byte{
		base + constants.HEADER_FILLER,
		constants.HEADER_FILLER,
		constants.HEADER_FILLER,
		constants.HEADER_FILLER,
	}
}

// DecodeHandshakeReply returns the command id announced by a handshake reply
func DecodeHandshakeReply(reply []byte) (uint8, error) {
	if len(reply) != constants.HEADER_SIZE {
		return 0, errors.New("handshake reply should always be 4 bytes")
	}
	return reply[0] - constants.HEADER_FILLER - 1, nil
}

// NormalizeWindowsPath cleans a Windows path the way the Windows path API would
func NormalizeWindowsPath(p string) string {
	p = strings.ReplaceAll(p, "/", `\`)

	var prefix string
	if len(p) >= 2 && p[1] == ':' {
		prefix, p = p[:2], p[2:]
	} else if strings.HasPrefix(p, `\\`) {
		// UNC share.
		prefix, p = `\\`, p[2:]
	}

	if p == "" {
		return prefix
	}

	cleaned := path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if cleaned == "." && prefix != "" {
		return prefix
	}

	return prefix + strings.ReplaceAll(cleaned, "/", `\`)
}

// EncodeUTF16 encodes text as UTF-16LE without BOM
func EncodeUTF16(text string) ([]byte, error) {
	return utf16le.NewEncoder().Bytes([]byte(text))
}

// DecodeUTF16 decodes UTF-16LE bytes to text
func DecodeUTF16(raw []byte) (string, error) {
	text, err := utf16le.NewDecoder().Bytes(raw)
	return string(text), err
}

// EncodePathFrame packs a normalized Windows path as an encrypted UTF-16LE frame
func EncodePathFrame(windowsPath string, increment uint8) ([]byte, error) {
	encoded, err := EncodeUTF16(NormalizeWindowsPath(windowsPath))
	if err != nil {
		return nil, err
	}
	return PackFrame(encoded, increment)
}

// EncodeTasking returns handshake reply followed by the path frame for file commands.
// Everything goes out in a single write.
func EncodeTasking(command uint8, windowsPath string, increment uint8) ([]byte, error) {
	if !opcode.Supported(command) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCommand, opcode.Name(command))
	}

	buffer := bytes.NewBuffer(EncodeHandshakeReply(command))
	if command == opcode.SHELL {
		return buffer.Bytes(), nil
	}

	frame, err := EncodePathFrame(windowsPath, increment)
	if err != nil {
		return nil, err
	}
	buffer.Write(frame)

	return buffer.Bytes(), nil
}
