package fileio

import (
	"bugsleep_c2emu/constants"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// Direction tells who sent the recorded bytes
type Direction uint8

const (
	INBOUND  Direction = iota // 0: Implant to emulator
	OUTBOUND                  // 1: Emulator to implant
)

func (d Direction) String() string {
	if d == INBOUND {
		return "in"
	}
	return "out"
}

// TranscriptRecord is one socket read or write as it went over the wire
type TranscriptRecord struct {
	Time      time.Time `msgpack:"t"`
	Direction Direction `msgpack:"dir"`
	Data      []byte    `msgpack:"data"`
}

// Transcript appends raw session traffic to an LZ4 compressed msgpack stream
type Transcript struct {
	mu   sync.Mutex
	file *os.File
	zw   *lz4.Writer
	enc  *msgpack.Encoder
	err  error
	path string
}

// NewTranscript creates <session>.wire.lz4 in given folder
func NewTranscript(folder, session string) (*Transcript, error) {
	path := filepath.Join(folder, session+constants.TRANSCRIPT_EXTENSION)
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	zw, err := NewCompressingWriter(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &Transcript{
		file: file,
		zw:   zw,
		enc:  msgpack.NewEncoder(zw),
		path: path,
	}, nil
}

// Path returns transcript file location
func (t *Transcript) Path() string {
	return t.path
}

// Record appends a copy of data. The first failure sticks and is returned by Close.
func (t *Transcript) Record(direction Direction, data []byte) {
	if len(data) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil || t.enc == nil {
		return
	}
	t.err = t.enc.Encode(&TranscriptRecord{
		Time:      time.Now().UTC(),
		Direction: direction,
		Data:      append([]byte(nil), data...),
	})
}

// Close flushes the compressed stream and closes the file
func (t *Transcript) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enc == nil {
		return t.err
	}
	t.enc = nil
	err := errors.Join(t.err, t.zw.Close(), t.file.Close())
	t.err = err
	return err
}

// ReadTranscript decodes all records of a transcript file
func ReadTranscript(filename string) ([]TranscriptRecord, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dec := msgpack.NewDecoder(NewDecompressingReader(file))
	records := make([]TranscriptRecord, 0)
	for {
		var record TranscriptRecord
		err := dec.Decode(&record)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
}
