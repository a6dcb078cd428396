package serialization

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Limits applied to every file before any tensor data is touched.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
)

// ValidateHeaderSize rejects header sizes that cannot fit the file or exceed
// MaxHeaderSize.
func ValidateHeaderSize(headerSize uint64, available int64) error {
	if headerSize > MaxHeaderSize {
		return &ValidationError{
			Err:     ErrHeaderTooLarge,
			Details: fmt.Sprintf("%d bytes, max %d", headerSize, MaxHeaderSize),
		}
	}
	if available >= 0 && int64(headerSize) > available {
		return &ValidationError{
			Err:     ErrOutOfBounds,
			Details: fmt.Sprintf("header size %d exceeds remaining %d bytes", headerSize, available),
		}
	}
	return nil
}

// ValidateTensorOffsets checks for overlapping tensor regions and regions
// that extend past the data section.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Err:     ErrTooManyTensors,
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
		}
	}

	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, t := range sorted {
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Err:     ErrNegativeOffset,
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d", t.Offset, t.Size),
			}
		}
		if t.Offset+t.Size > dataSize {
			return &ValidationError{
				Err:     ErrOutOfBounds,
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data size %d", t.Offset, t.Size, dataSize),
			}
		}
		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.Offset+t.Size > next.Offset {
				return &ValidationError{
					Err:     ErrOffsetOverlap,
					Tensor:  t.Name,
					Tensor2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						t.Offset, t.Offset+t.Size, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}
	return nil
}

// ValidateTensorName rejects empty names, oversized names, the path
// components "." and "..", and names with path separators or NUL bytes.
// Dots elsewhere are allowed, so image file names such as "frame..png" can
// key detections.
func ValidateTensorName(name string) error {
	switch {
	case name == "":
		return &ValidationError{Err: ErrInvalidTensorName, Details: "empty name"}
	case len(name) > MaxTensorNameLen:
		return &ValidationError{
			Err:     ErrInvalidTensorName,
			Tensor:  name[:32] + "...",
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	case name == "." || name == "..":
		return &ValidationError{Err: ErrInvalidTensorName, Tensor: name, Details: "path component"}
	case strings.ContainsAny(name, "/\\"):
		return &ValidationError{Err: ErrInvalidTensorName, Tensor: name, Details: "contains path separator"}
	case strings.Contains(name, "\x00"):
		return &ValidationError{Err: ErrInvalidTensorName, Tensor: name, Details: "contains null byte"}
	}
	return nil
}

// ValidateTensorSize checks that the byte size recorded for a tensor matches
// its shape and dtype. Shapes whose byte size does not fit in an int64 are
// rejected.
func ValidateTensorSize(meta TensorMeta, elemSize int) error {
	want := int64(elemSize)
	for _, d := range meta.Shape {
		if d < 0 {
			return &ValidationError{
				Err:     ErrShapeMismatch,
				Tensor:  meta.Name,
				Details: fmt.Sprintf("negative dimension in shape %v", meta.Shape),
			}
		}
		if d != 0 && want > math.MaxInt64/int64(d) {
			return &ValidationError{
				Err:     ErrShapeMismatch,
				Tensor:  meta.Name,
				Details: fmt.Sprintf("shape %v overflows the byte size", meta.Shape),
			}
		}
		want *= int64(d)
	}
	if want != meta.Size {
		return &ValidationError{
			Err:     ErrShapeMismatch,
			Tensor:  meta.Name,
			Details: fmt.Sprintf("shape %v needs %d bytes, file has %d", meta.Shape, want, meta.Size),
		}
	}
	return nil
}
