package networking

import (
	"bugsleep_c2emu/constants"
	"encoding/binary"
	"errors"
)

// Chunk is one indexed block of an upload
type Chunk struct {
	Index   uint32 // Block index, starts from 0
	Content []byte // At most 1020 bytes
	Final   bool   // Last block carries 4 padding bytes
}

// Partition describes how a file is cut into upload blocks
type Partition struct {
	FileSize      int
	FullBlocks    int // Blocks carrying exactly 1020 bytes
	LastBlockSize int // Content bytes in the final block, may be 0
}

// PartitionBlocks cuts file size into full blocks and the final partial block
func PartitionBlocks(fileSize int) Partition {
	return Partition{
		FileSize:      fileSize,
		FullBlocks:    fileSize / constants.CHUNK_CONTENT_SIZE,
		LastBlockSize: fileSize % constants.CHUNK_CONTENT_SIZE,
	}
}

// Layout returns the values announced to the implant. The last block size
// includes the padding: the implant truncates the final block by 4 bytes
// otherwise.
func (p Partition) Layout() *UploadLayout {
	return &UploadLayout{
		TotalBlocks:   uint32(p.FullBlocks + 1),
		LastBlockSize: uint32(p.LastBlockSize + constants.LAST_BLOCK_PADDING),
	}
}

// EncodeUploadLayout encrypts block count and padded last block size as two messages
func EncodeUploadLayout(layout *UploadLayout, increment uint8) []byte {
	return append(EncodeUint32(layout.TotalBlocks, increment), EncodeUint32(layout.LastBlockSize, increment)...)
}

// SplitChunks cuts content into upload chunks, the final one always present
func SplitChunks(content []byte) []*Chunk {
	part := PartitionBlocks(len(content))
	chunks := make([]*Chunk, 0, part.FullBlocks+1)

	for i := 0; i < part.FullBlocks; i++ {
		start := i * constants.CHUNK_CONTENT_SIZE
		chunks = append(chunks, &Chunk{
			Index:   uint32(i),
			Content: content[start : start+constants.CHUNK_CONTENT_SIZE],
		})
	}

	return append(chunks, &Chunk{
		Index:   uint32(part.FullBlocks),
		Content: content[part.FullBlocks*constants.CHUNK_CONTENT_SIZE:],
		Final:   true,
	})
}

// WireSize returns number of bytes the chunk occupies on the wire
func (c *Chunk) WireSize() int {
	size := constants.CHUNK_INDEX_SIZE + len(c.Content)
	if c.Final {
		size += constants.LAST_BLOCK_PADDING
	}
	return size
}

// Plain lays out index, content and padding as they go on the wire
func (c *Chunk) Plain() []byte {
	plain := make([]byte, constants.CHUNK_INDEX_SIZE, c.WireSize())
	binary.LittleEndian.PutUint32(plain, c.Index)
	plain = append(plain, c.Content...)
	if c.Final {
		plain = append(plain, make([]byte, constants.LAST_BLOCK_PADDING)...)
	}
	return plain
}

// Encode encrypts index and content as one unit
func (c *Chunk) Encode(increment uint8) []byte {
	return Transform(c.Plain(), increment)
}

// DecodeChunk decrypts a received chunk, stripping the padding of the final one
func DecodeChunk(raw []byte, final bool, increment uint8) (*Chunk, error) {
	if len(raw) < constants.CHUNK_INDEX_SIZE {
		return nil, errors.New("chunk shorter than its index")
	}

	plain := Transform(raw, increment)
	content := plain[constants.CHUNK_INDEX_SIZE:]
	if final {
		if len(content) < constants.LAST_BLOCK_PADDING {
			return nil, errors.New("final chunk missing its padding")
		}
		content = content[:len(content)-constants.LAST_BLOCK_PADDING]
	}

	return &Chunk{
		Index:   binary.LittleEndian.Uint32(plain),
		Content: content,
		Final:   final,
	}, nil
}
