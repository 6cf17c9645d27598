package fileio

import (
	"bugsleep_c2emu/constants"
	"crypto/sha1"
	"encoding/hex"
	"hash"
	"io"
	"os"
)

// GetFileChecksumSHA1 returns SHA-1 checksum of given file
func GetFileChecksumSHA1(file string) ([]byte, error) {
	handle, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	hash := sha1.New()
	if _, err := io.CopyBuffer(hash, handle, make([]byte, 64*1024)); err != nil {
		return nil, err
	}

	return hash.Sum(nil), nil
}

// ChecksumSHA1 returns hex encoded SHA-1 of data
func ChecksumSHA1(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// CaptureName returns the content addressed file name for a digest
func CaptureName(digest []byte) string {
	return hex.EncodeToString(digest) + constants.CAPTURE_EXTENSION
}

// progressiveChecksumSHA1 incrementally calculates SHA-1 checksum
func progressiveChecksumSHA1(shaHash hash.Hash, data []byte) hash.Hash {
	if shaHash == nil {
		shaHash = sha1.New()
	}
	if len(data) > 0 {
		shaHash.Write(data)
	}
	return shaHash
}
