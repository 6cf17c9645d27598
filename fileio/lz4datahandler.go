package fileio

import (
	"io"

	"github.com/pierrec/lz4/v4"
)

// NewCompressingWriter wraps w in an LZ4 frame writer
func NewCompressingWriter(w io.Writer) (*lz4.Writer, error) {
	zw := lz4.NewWriter(w)
	// Transcripts are small and written in bursts, 64K blocks keep memory low.
	if err := zw.Apply(lz4.BlockSizeOption(lz4.Block64Kb), lz4.ChecksumOption(true)); err != nil {
		return nil, err
	}
	return zw, nil
}

// NewDecompressingReader returns uncompressed view of an LZ4 frame stream
func NewDecompressingReader(r io.Reader) io.Reader {
	return lz4.NewReader(r)
}
