package comms

import (
	"bugsleep_c2emu/constants"
	"bugsleep_c2emu/networking"
	"bugsleep_c2emu/networking/opcode"
	"errors"
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
)

// Implant speaks the infected host's side of the protocol. It undoes the
// emulator's increment on everything it reads and applies the inverse on
// everything it sends.
type Implant struct {
	conn      net.Conn
	increment uint8 // What the emulator adds
	encode    uint8 // What the implant adds
}

// Tasking is what the emulator asks the implant to do
type Tasking struct {
	Nonce   []byte
	Command uint8
	Path    string // Windows path of download and upload commands
}

// Connect opens TCP connection to the emulator
func Connect(address string, increment uint8, dscp int) (*Implant, error) {
	_, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, err
	}
	conn, err := new(net.Dialer).Dial("tcp", address)
	if err != nil {
		return nil, err
	}
	// Set TCP_NODELAY to always immediately send.
	conn.(*net.TCPConn).SetNoDelay(true)
	if dscp > 0 {
		// NOTE: On Windows by default it will not apply the value.
		ipv4.NewConn(conn).SetTOS(dscp << 2)
	}
	return NewImplant(conn, increment), nil
}

// NewImplant wraps an established connection
func NewImplant(conn net.Conn, increment uint8) *Implant {
	return &Implant{
		conn:      conn,
		increment: increment,
		encode:    networking.Inverse(increment),
	}
}

// Announce sends the first message of the handshake
func (i *Implant) Announce(text string) error {
	frame, err := networking.PackFrame([]byte(text), i.encode)
	if err != nil {
		return err
	}
	_, err = i.conn.Write(frame)
	return err
}

// AwaitTasking reads nonce, handshake reply and the path of file commands
func (i *Implant) AwaitTasking() (*Tasking, error) {
	task := &Tasking{Nonce: make([]byte, constants.NONCE_SIZE)}
	if err := networking.ReadExact(i.conn, task.Nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	reply := make([]byte, constants.HEADER_SIZE)
	if err := networking.ReadExact(i.conn, reply); err != nil {
		return nil, fmt.Errorf("handshake reply: %w", err)
	}
	command, err := networking.DecodeHandshakeReply(reply)
	if err != nil {
		return nil, err
	}
	if !opcode.Supported(command) {
		return nil, fmt.Errorf("%w: %s", networking.ErrUnsupportedCommand, opcode.Name(command))
	}
	task.Command = command

	if command == opcode.SHELL {
		return task, nil
	}

	raw, err := networking.ReadFrame(i.conn, i.encode)
	if err != nil {
		return nil, fmt.Errorf("tasking path: %w", err)
	}
	if task.Path, err = networking.DecodeUTF16(raw); err != nil {
		return nil, err
	}

	return task, nil
}

// SendOutput sends shell output followed by the end-of-output marker
func (i *Implant) SendOutput(text string) error {
	return i.SendRaw(append([]byte(text), 0, 0, 0, 0))
}

// SendRaw encodes and sends plain bytes as they are
func (i *Implant) SendRaw(plain []byte) error {
	if len(plain) == 0 {
		return nil
	}
	_, err := i.conn.Write(networking.Transform(plain, i.encode))
	return err
}

// ReadCommand reads one shell command frame
func (i *Implant) ReadCommand() (string, error) {
	raw, err := networking.ReadFrame(i.conn, i.encode)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// SendFile answers a download command with metadata and content
func (i *Implant) SendFile(content []byte) error {
	meta := FileMetadata(len(content))
	if _, err := i.conn.Write(networking.EncodeTransferMetadata(meta, i.encode)); err != nil {
		return err
	}
	return i.SendRaw(content)
}

// FileMetadata describes content in 1 KB blocks the way the implant announces it
func FileMetadata(size int) *networking.TransferMetadata {
	meta := &networking.TransferMetadata{BlockCountField1: 1, BlockCountField2: 0}
	if size == 0 {
		return meta
	}
	meta.TotalBlocks = uint64((size + constants.BLOCK_SIZE - 1) / constants.BLOCK_SIZE)
	meta.LastBlockSize = uint32(size - int(meta.TotalBlocks-1)*constants.BLOCK_SIZE)
	return meta
}

// ReceiveFile answers an upload command and collects the pushed content.
// The final block is read by the padded size and the padding dropped.
func (i *Implant) ReceiveFile() ([]byte, *networking.UploadLayout, error) {
	pre := &networking.UploadPreamble{Field1: 1, Field2: 1}
	if _, err := i.conn.Write(networking.EncodeUploadPreamble(pre, i.encode)); err != nil {
		return nil, nil, err
	}

	layout, err := networking.ReadUploadLayout(i.conn, i.encode)
	if err != nil {
		return nil, nil, err
	}
	if layout.TotalBlocks == 0 || layout.LastBlockSize < constants.LAST_BLOCK_PADDING {
		return nil, layout, errors.New("malformed upload layout")
	}

	var content []byte
	for index := uint32(0); index < layout.TotalBlocks; index++ {
		final := index == layout.TotalBlocks-1
		size := constants.BLOCK_SIZE
		if final {
			size = constants.CHUNK_INDEX_SIZE + int(layout.LastBlockSize)
		}

		raw := make([]byte, size)
		if err := networking.ReadExact(i.conn, raw); err != nil {
			return content, layout, fmt.Errorf("block %d: %w", index, err)
		}
		chunk, err := networking.DecodeChunk(raw, final, i.encode)
		if err != nil {
			return content, layout, err
		}
		if chunk.Index != index {
			return content, layout, fmt.Errorf("block %d arrived as %d", index, chunk.Index)
		}
		content = append(content, chunk.Content...)
	}

	return content, layout, nil
}

// Close closes socket
func (i *Implant) Close() error {
	return i.conn.Close()
}
