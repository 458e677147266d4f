package util

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// FileFingerprint returns the CRC32 of the whole file. Observation sheets
// are small and edits may touch any row, so the full content is hashed.
func FileFingerprint(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := crc32.NewIEEE()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("%08x", hash.Sum32()), nil
}
