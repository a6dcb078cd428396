//go:build !unix

package serialization

import (
	"fmt"
	"io"
	"os"
)

func mapFile(f *os.File, size int64) ([]byte, func() error, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, func() error { return nil }, nil
}
