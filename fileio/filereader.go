package fileio

import (
	"bufio"
	"errors"
	"io"
	"os"
)

// FileReader loads a local file to be pushed to the implant
type FileReader interface {
	New(filename string) error
	ReadAll() ([]byte, error)
}

// SourceReader reads an upload source fully into memory
type SourceReader struct {
	file *os.File
	size int64
}

// New opens file for reading or returns error upon failing to do so
func (s *SourceReader) New(filename string) error {
	info, err := os.Stat(filename)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return errors.New(filename + " is a directory")
	}
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	s.file = file
	s.size = info.Size()
	return nil
}

// ReadAll reads whole file and closes it
func (s *SourceReader) ReadAll() ([]byte, error) {
	if s.file == nil {
		return nil, errors.New("cannot read without file handle")
	}
	defer s.file.Close()

	content := make([]byte, 0, s.size)
	buffer := make([]byte, 64*1024)
	reader := bufio.NewReaderSize(s.file, len(buffer))
	for {
		read, err := reader.Read(buffer)
		content = append(content, buffer[:read]...)
		if errors.Is(err, io.EOF) {
			return content, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// ReadSource opens and reads an upload source in one go
func ReadSource(filename string) ([]byte, error) {
	var reader FileReader = new(SourceReader)
	if err := reader.New(filename); err != nil {
		return nil, err
	}
	return reader.ReadAll()
}
