package worker

// encodedChunk contains chunk index and its encrypted wire bytes
type encodedChunk struct {
	seq uint32
	raw []byte
}
