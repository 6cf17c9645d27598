package worker

import (
	"bugsleep_c2emu/constants"
	"bugsleep_c2emu/networking"
	"sync"
)

// ChunkProcessor encrypts upload chunks in parallel and hands them out in index order
type ChunkProcessor struct {
	mux      *ChunkMuxer
	quit     chan struct{}
	stopOnce sync.Once
}

// Start starts workers for encoding given chunks and returns ordered wire bytes
func (s *ChunkProcessor) Start(chunks []*networking.Chunk, forkCount int, crypto *networking.Crypto) <-chan []byte {
	if forkCount < 1 {
		forkCount = 1
	}
	s.quit = make(chan struct{})
	s.mux = new(ChunkMuxer)

	jobs := make(chan *networking.Chunk, constants.ENCODER_QUEUE)
	encoded := make(chan *encodedChunk, forkCount)
	emitted := make(chan []byte, forkCount)
	ordered := make(chan []byte, forkCount)

	// Chunks handed out but not yet emitted in order. Never more than the
	// muxer can buffer, whatever the worker count.
	window := make(chan struct{}, constants.MAX_OOC)

	// Start chunk muxer.
	s.mux.Start(constants.MAX_OOC, encoded, emitted, s.quit)

	go func() {
		defer close(ordered)
		for raw := range emitted {
			<-window
			select {
			case ordered <- raw:
			case <-s.quit:
				for range emitted {
				}
				return
			}
		}
	}()

	// Start all workers.
	var wg sync.WaitGroup
	for i := 0; i < forkCount; i++ {
		wg.Add(1)
		go func(in <-chan *networking.Chunk, out chan<- *encodedChunk) {
			defer wg.Done()
			for chunk := range in {
				enc := &encodedChunk{
					seq: chunk.Index,
					raw: crypto.Encrypt(chunk.Plain()),
				}
				select {
				case out <- enc:
				case <-s.quit:
					return
				}
			}
		}(jobs, encoded)
	}

	go func() {
		wg.Wait()
		close(encoded)
	}()

	// Goroutine for passing plaintext chunks to workers.
	go func() {
		defer close(jobs)
		for _, chunk := range chunks {
			select {
			case window <- struct{}{}:
			case <-s.quit:
				return
			}
			select {
			case jobs <- chunk:
			case <-s.quit:
				return
			}
		}
	}()

	return ordered
}

// Stop abandons any chunks not consumed yet. Safe to call more than once.
func (s *ChunkProcessor) Stop() {
	s.stopOnce.Do(func() {
		if s.quit != nil {
			close(s.quit)
		}
	})
}

// Err returns reordering failure once the ordered channel has been drained
func (s *ChunkProcessor) Err() error {
	if s.mux == nil {
		return nil
	}
	return s.mux.Err()
}
