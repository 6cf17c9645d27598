package fileio

import (
	"bufio"
	"crypto/sha1"
	"fmt"
	"hash"
	"os"
	"path/filepath"
	"sync/atomic"
)

// CaptureWriter writes downloaded content to <sha1>.bin in a folder.
// Content goes to a temp file first since the name is only known once the
// last byte has been hashed.
type CaptureWriter struct {
	folder   string
	file     *os.File
	writer   *bufio.Writer
	wqLen    int
	sha1Hash hash.Hash
	aborted  atomic.Bool
}

// New creates temp file for writing in given folder or returns error upon failing to do so
func (b *CaptureWriter) New(folder string, qlen int) error {
	file, err := os.CreateTemp(folder, ".capture-*")
	if err != nil {
		return err
	}
	b.folder = folder
	b.file = file
	b.writer = bufio.NewWriter(b.file)
	b.wqLen = qlen
	b.sha1Hash = sha1.New()
	return nil
}

// Abort drops the capture instead of persisting it. Call before closing the write queue.
func (b *CaptureWriter) Abort() {
	b.aborted.Store(true)
}

// StartWriting starts goroutine for writing chunks of data to file
func (b *CaptureWriter) StartWriting() (chan []byte, chan *CaptureResult) {
	if b.file == nil {
		panic("cannot start writing without file handle")
	}
	done := make(chan *CaptureResult, 1)
	// Make write queue.
	stream := make(chan []byte, b.wqLen)
	// Start consuming queue in goroutine.
	go func(chunkStream chan []byte, result chan *CaptureResult) {
		res := new(CaptureResult)
		for chunk := range chunkStream {
			// Keep draining after a failed write so the producer never blocks.
			if res.Err == nil {
				if _, err := b.writer.Write(chunk); err != nil {
					res.Err = err
				}
			}
			progressiveChecksumSHA1(b.sha1Hash, chunk)
			res.Size += int64(len(chunk))
		}

		// Write any remaining bytes.
		if err := b.writer.Flush(); err != nil && res.Err == nil {
			res.Err = err
		}
		if err := b.file.Close(); err != nil && res.Err == nil {
			res.Err = err
		}

		res.Digest = b.sha1Hash.Sum(nil)

		if res.Err != nil || b.aborted.Load() {
			os.Remove(b.file.Name())
		} else {
			res.Path = filepath.Join(b.folder, CaptureName(res.Digest))
			if err := os.Rename(b.file.Name(), res.Path); err != nil {
				os.Remove(b.file.Name())
				res.Err = fmt.Errorf("persist capture: %w", err)
				res.Path = ""
			}
		}

		// Signal that all data has been written.
		result <- res
		close(result)
	}(stream, done)
	return stream, done
}
