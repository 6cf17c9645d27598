package comms

import (
	"bytes"
	"net"
	"testing"

	"bugsleep_c2emu/networking"
	"bugsleep_c2emu/networking/opcode"

	qt "github.com/frankban/quicktest"
)

// emulate runs the emulator side of a pipe and reports its failure
func emulate(c *qt.C, script func(conn net.Conn) error) *Implant {
	emulator, implant := net.Pipe()
	done := make(chan error, 1)
	go func() {
		defer emulator.Close()
		done <- script(emulator)
	}()
	c.Cleanup(func() {
		implant.Close()
		c.Check(<-done, qt.IsNil)
	})
	return NewImplant(implant, 3)
}

func handshake(conn net.Conn, command uint8, path string) error {
	if _, err := networking.ReadFrame(conn, 3); err != nil {
		return err
	}
	tasking, err := networking.EncodeTasking(command, path, 3)
	if err != nil {
		return err
	}
	_, err = conn.Write(append([]byte{1, 2, 3, 4}, tasking...))
	return err
}

func TestFileMetadata(t *testing.T) {
	c := qt.New(t)
	for size, want := range map[int][2]uint64{
		0:    {0, 0},
		10:   {1, 10},
		1024: {1, 1024},
		1025: {2, 1},
		5000: {5, 904},
	} {
		meta := FileMetadata(size)
		c.Assert([2]uint64{meta.TotalBlocks, uint64(meta.LastBlockSize)}, qt.Equals, want, qt.Commentf("size %d", size))
		c.Assert(meta.TotalSize(), qt.Equals, uint64(size))
	}
}

func TestAwaitTaskingDownload(t *testing.T) {
	c := qt.New(t)
	implant := emulate(c, func(conn net.Conn) error {
		return handshake(conn, opcode.DOWNLOAD, `C:\Users\victim\notes.txt`)
	})

	c.Assert(implant.Announce("HOST-01"), qt.IsNil)
	task, err := implant.AwaitTasking()
	c.Assert(err, qt.IsNil)
	c.Assert(task.Nonce, qt.DeepEquals, []byte{1, 2, 3, 4})
	c.Assert(task.Command, qt.Equals, uint8(opcode.DOWNLOAD))
	c.Assert(task.Path, qt.Equals, `C:\Users\victim\notes.txt`)
}

func TestAwaitTaskingUnsupported(t *testing.T) {
	c := qt.New(t)
	implant := emulate(c, func(conn net.Conn) error {
		if _, err := networking.ReadFrame(conn, 3); err != nil {
			return err
		}
		_, err := conn.Write(append([]byte{1, 2, 3, 4}, networking.EncodeHandshakeReply(7)...))
		return err
	})

	c.Assert(implant.Announce("HOST-01"), qt.IsNil)
	_, err := implant.AwaitTasking()
	c.Assert(err, qt.ErrorIs, networking.ErrUnsupportedCommand)
}

func TestSendOutputAppendsMarker(t *testing.T) {
	c := qt.New(t)
	implant := emulate(c, func(conn net.Conn) error {
		raw := make([]byte, 9)
		if err := networking.ReadExact(conn, raw); err != nil {
			return err
		}
		c.Check(networking.Transform(raw, 3), qt.DeepEquals, []byte("hello\x00\x00\x00\x00"))
		return nil
	})
	c.Assert(implant.SendOutput("hello"), qt.IsNil)
}

func TestReceiveFile(t *testing.T) {
	c := qt.New(t)
	content := bytes.Repeat([]byte("0123456789"), 250)
	implant := emulate(c, func(conn net.Conn) error {
		if _, err := networking.ReadUploadPreamble(conn, 3); err != nil {
			return err
		}
		layout := networking.PartitionBlocks(len(content)).Layout()
		if _, err := conn.Write(networking.EncodeUploadLayout(layout, 3)); err != nil {
			return err
		}
		for _, chunk := range networking.SplitChunks(content) {
			if _, err := conn.Write(chunk.Encode(3)); err != nil {
				return err
			}
		}
		return nil
	})

	received, layout, err := implant.ReceiveFile()
	c.Assert(err, qt.IsNil)
	c.Assert(layout, qt.DeepEquals, &networking.UploadLayout{TotalBlocks: 3, LastBlockSize: 464})
	c.Assert(received, qt.DeepEquals, content)
}

func TestReceiveFileOutOfOrder(t *testing.T) {
	c := qt.New(t)
	content := bytes.Repeat([]byte{0x90}, 2500)
	implant := emulate(c, func(conn net.Conn) error {
		if _, err := networking.ReadUploadPreamble(conn, 3); err != nil {
			return err
		}
		layout := networking.PartitionBlocks(len(content)).Layout()
		if _, err := conn.Write(networking.EncodeUploadLayout(layout, 3)); err != nil {
			return err
		}
		chunks := networking.SplitChunks(content)
		// Block 1 first; the implant gives up after it.
		_, err := conn.Write(chunks[1].Encode(3))
		return err
	})

	_, _, err := implant.ReceiveFile()
	c.Assert(err, qt.ErrorMatches, "block 0 arrived as 1")
}
