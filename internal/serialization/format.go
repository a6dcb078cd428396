package serialization

import (
	"time"

	"github.com/born-ml/detkit/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "DKCP"
	FormatVersion   = 1
	HeaderAlignment = 64 // Tensor data starts on a 64-byte boundary
	ChecksumSize    = 32 // SHA-256
	prefixSize      = 4 + 4 + 4 + 8 + ChecksumSize
)

// Flags for the .dkcp format.
const (
	FlagHasOptimizer uint32 = 1 << 0 // optimizer buffers included
	FlagHasMetadata  uint32 = 1 << 1 // custom metadata included
)

// Header represents the JSON header in a .dkcp file.
type Header struct {
	FormatVersion  int               `json:"format_version"`
	CreatedAt      time.Time         `json:"created_at"`
	Tensors        []TensorMeta      `json:"tensors"`
	Metadata       map[string]string `json:"metadata"`
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// CheckpointMeta contains training state information for checkpoints.
type CheckpointMeta struct {
	Epoch         int            `json:"epoch"`
	Step          int64          `json:"step"`
	Loss          float64        `json:"loss"`
	OptimizerType string         `json:"optimizer_type,omitempty"`
	GroupLRs      []float32      `json:"group_lrs,omitempty"` // learning rate per parameter group
	TrainingMeta  map[string]any `json:"training_meta,omitempty"`
}

// TensorMeta describes a tensor in the .dkcp file.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from start of the data section
	Size   int64  `json:"size"`
}

// DTypeName returns the SafeTensors spelling of dt.
func DTypeName(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return "F32"
	case tensor.Float64:
		return "F64"
	case tensor.Int32:
		return "I32"
	case tensor.Int64:
		return "I64"
	case tensor.Uint8:
		return "U8"
	default:
		return "unknown"
	}
}

// ParseDType converts a SafeTensors dtype string to tensor.DataType.
func ParseDType(s string) (tensor.DataType, bool) {
	switch s {
	case "F32":
		return tensor.Float32, true
	case "F64":
		return tensor.Float64, true
	case "I32":
		return tensor.Int32, true
	case "I64":
		return tensor.Int64, true
	case "U8":
		return tensor.Uint8, true
	default:
		return 0, false
	}
}

// alignedDataOffset returns where tensor data starts for a given header size.
func alignedDataOffset(headerSize int64) int64 {
	pos := int64(prefixSize) + headerSize
	return pos + (HeaderAlignment-pos%HeaderAlignment)%HeaderAlignment
}
