package networking

import (
	"bugsleep_c2emu/constants"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// TransferMetadata is what the implant announces before sending a file.
// Every field travels as its own encrypted message.
type TransferMetadata struct {
	BlockCountField1 uint32 // Observed constant 1, not used
	BlockCountField2 uint32 // Observed constant 0, not used
	TotalBlocks      uint64 // Number of 1 KB blocks
	LastBlockSize    uint32 // Bytes in the last block
}

// TotalSize returns the file size the metadata describes
func (m *TransferMetadata) TotalSize() uint64 {
	return DownloadSize(m.TotalBlocks, m.LastBlockSize)
}

// DownloadSize returns file size for given block count and last block size.
// Sizes past uint64 saturate to math.MaxUint64, i.e. read until the implant hangs up.
func DownloadSize(totalBlocks uint64, lastBlockSize uint32) uint64 {
	if totalBlocks == 0 {
		return uint64(lastBlockSize)
	}
	if totalBlocks-1 > (math.MaxUint64-uint64(lastBlockSize))/constants.BLOCK_SIZE {
		return math.MaxUint64
	}
	return (totalBlocks-1)*constants.BLOCK_SIZE + uint64(lastBlockSize)
}

// UploadPreamble holds the two values the implant sends before receiving a file.
// Observed constants 1 and 1; their content is ignored.
type UploadPreamble struct {
	Field1 uint32
	Field2 uint32
}

// UploadLayout announces the block partition of an upload
type UploadLayout struct {
	TotalBlocks   uint32 // Full blocks + 1 for the last one
	LastBlockSize uint32 // Last block content size + padding
}

// readUint32 reads and decrypts one 4-byte little-endian message
func readUint32(r io.Reader, increment uint8) (uint32, error) {
	raw := make([]byte, 4)
	if err := ReadExact(r, raw); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(Transform(raw, increment)), nil
}

// readUint64 reads and decrypts one 8-byte little-endian message
func readUint64(r io.Reader, increment uint8) (uint64, error) {
	raw := make([]byte, 8)
	if err := ReadExact(r, raw); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(Transform(raw, increment)), nil
}

// EncodeUint32 encrypts a little-endian 4-byte value
func EncodeUint32(value uint32, increment uint8) []byte {
	return Transform(binary.LittleEndian.AppendUint32(make([]byte, 0, 4), value), increment)
}

// EncodeUint64 encrypts a little-endian 8-byte value
func EncodeUint64(value uint64, increment uint8) []byte {
	return Transform(binary.LittleEndian.AppendUint64(make([]byte, 0, 8), value), increment)
}

// ReadTransferMetadata reads the four download metadata messages in order
func ReadTransferMetadata(r io.Reader, increment uint8) (*TransferMetadata, error) {
	var err error
	meta := new(TransferMetadata)

	if meta.BlockCountField1, err = readUint32(r, increment); err != nil {
		return nil, fmt.Errorf("first metadata value: %w", err)
	}
	if meta.BlockCountField2, err = readUint32(r, increment); err != nil {
		return nil, fmt.Errorf("second metadata value: %w", err)
	}
	if meta.TotalBlocks, err = readUint64(r, increment); err != nil {
		return nil, fmt.Errorf("total blocks: %w", err)
	}
	if meta.LastBlockSize, err = readUint32(r, increment); err != nil {
		return nil, fmt.Errorf("last block size: %w", err)
	}

	return meta, nil
}

// EncodeTransferMetadata encodes metadata the way the implant sends it
func EncodeTransferMetadata(meta *TransferMetadata, increment uint8) []byte {
	out := make([]byte, 0, 20)
	out = append(out, EncodeUint32(meta.BlockCountField1, increment)...)
	out = append(out, EncodeUint32(meta.BlockCountField2, increment)...)
	out = append(out, EncodeUint64(meta.TotalBlocks, increment)...)
	return append(out, EncodeUint32(meta.LastBlockSize, increment)...)
}

// ReadUploadPreamble reads the two values preceding an upload
func ReadUploadPreamble(r io.Reader, increment uint8) (*UploadPreamble, error) {
	var err error
	pre := new(UploadPreamble)

	if pre.Field1, err = readUint32(r, increment); err != nil {
		return nil, fmt.Errorf("first preamble value: %w", err)
	}
	if pre.Field2, err = readUint32(r, increment); err != nil {
		return nil, fmt.Errorf("second preamble value: %w", err)
	}

	return pre, nil
}

// EncodeUploadPreamble encodes the preamble the way the implant sends it
func EncodeUploadPreamble(pre *UploadPreamble, increment uint8) []byte {
	return append(EncodeUint32(pre.Field1, increment), EncodeUint32(pre.Field2, increment)...)
}

// ReadUploadLayout reads the block count and padded last block size
func ReadUploadLayout(r io.Reader, increment uint8) (*UploadLayout, error) {
	var err error
	layout := new(UploadLayout)

	if layout.TotalBlocks, err = readUint32(r, increment); err != nil {
		return nil, fmt.Errorf("block count: %w", err)
	}
	if layout.LastBlockSize, err = readUint32(r, increment); err != nil {
		return nil, fmt.Errorf("last block size: %w", err)
	}

	return layout, nil
}
