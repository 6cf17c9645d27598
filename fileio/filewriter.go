package fileio

// FileWriter persists a stream of plaintext chunks
type FileWriter interface {
	New(folder string, qlen int) error
	StartWriting() (chan []byte, chan *CaptureResult)
	Abort()
}

// CaptureResult describes a persisted capture
type CaptureResult struct {
	Digest []byte // SHA-1 of the content
	Path   string // Where the content ended up
	Size   int64  // Bytes written
	Err    error
}
