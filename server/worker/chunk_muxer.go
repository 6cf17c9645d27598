package worker

import "fmt"

// ChunkMuxer takes encoded chunks in any order and reorders them for the socket writer
type ChunkMuxer struct {
	nextChunkID      uint32
	outOfOrderChunks map[uint32]*encodedChunk
	maxOOC           int
	err              error
}

// Start starts new goroutine for putting encoded chunks back in index order.
// Output channel is closed once input is exhausted or quit is closed.
func (c *ChunkMuxer) Start(maxBufferedOOC int, in <-chan *encodedChunk, out chan<- []byte, quit <-chan struct{}) {
	c.maxOOC = maxBufferedOOC
	c.nextChunkID = 0
	c.outOfOrderChunks = make(map[uint32]*encodedChunk)

	go func() {
		// Close socket writer channel.
		defer close(out)

		for chonk := range in {
			if c.err != nil {
				// Keep draining so workers can finish.
				continue
			}
			if chonk.seq == c.nextChunkID {
				// Chunk is next expected one in sequence.
				if !c.emit(chonk.raw, out, quit) {
					return
				}
				c.nextChunkID = c.nextChunkID + 1
			} else if len(c.outOfOrderChunks) < c.maxOOC {
				// Received an out-of-order chunk.
				c.outOfOrderChunks[chonk.seq] = chonk
			} else {
				c.err = fmt.Errorf("out-of-order buffer full at chunk %d, expected %d", chonk.seq, c.nextChunkID)
				continue
			}
			// Check whether buffer contains next chunk before receiving more.
			for next := c.findNext(); next != nil; next = c.findNext() {
				if !c.emit(next.raw, out, quit) {
					return
				}
			}
		}

		if c.err == nil && len(c.outOfOrderChunks) > 0 {
			c.err = fmt.Errorf("%d chunks never got their predecessor %d", len(c.outOfOrderChunks), c.nextChunkID)
		}
	}()
}

// Err returns reordering failure. Only valid once the output channel is closed.
func (c *ChunkMuxer) Err() error {
	return c.err
}

// emit passes chunk on unless the consumer gave up
func (c *ChunkMuxer) emit(raw []byte, out chan<- []byte, quit <-chan struct{}) bool {
	select {
	case out <- raw:
		return true
	case <-quit:
		return false
	}
}

// Check whether next chunk in sequence has been buffered
func (c *ChunkMuxer) findNext() *encodedChunk {
	chonky := c.outOfOrderChunks[c.nextChunkID]
	if chonky != nil {
		delete(c.outOfOrderChunks, c.nextChunkID)
		c.nextChunkID = c.nextChunkID + 1
		return chonky
	}
	return nil
}
