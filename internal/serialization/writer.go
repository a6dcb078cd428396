package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/born-ml/detkit/internal/tensor"
)

// WriteOptions configures a .dkcp write.
type WriteOptions struct {
	Checkpoint *CheckpointMeta   // training state, nil for a plain weight snapshot
	Metadata   map[string]string // free-form string metadata
	CreatedAt  time.Time         // zero means time.Now()
	Optimizer  bool              // sets FlagHasOptimizer
}

// WriteCheckpointFile writes tensors to path in .dkcp format.
//
// Tensors are laid out in sorted name order. The data section checksum is
// computed before anything is written, so the file is written in one pass.
func WriteCheckpointFile(path string, tensors map[string]*tensor.RawTensor, opts WriteOptions) (err error) {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	createdAt := opts.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	header := Header{
		FormatVersion:  FormatVersion,
		CreatedAt:      createdAt.UTC(),
		Tensors:        make([]TensorMeta, 0, len(names)),
		Metadata:       opts.Metadata,
		CheckpointMeta: opts.Checkpoint,
	}
	if header.Metadata == nil {
		header.Metadata = map[string]string{}
	}

	data := make([]byte, 0)
	for _, name := range names {
		raw := tensors[name]
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  DTypeName(raw.DType()),
			Shape:  append([]int(nil), raw.Shape()...),
			Offset: int64(len(data)),
			Size:   int64(raw.ByteSize()),
		})
		data = append(data, raw.Data()...)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	var flags uint32
	if opts.Optimizer {
		flags |= FlagHasOptimizer
	}
	if len(opts.Metadata) > 0 || (opts.Checkpoint != nil && len(opts.Checkpoint.TrainingMeta) > 0) {
		flags |= FlagHasMetadata
	}

	//nolint:gosec // G304: path comes from trusted caller
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	w := bufio.NewWriter(file)
	prefix := make([]byte, prefixSize)
	copy(prefix[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(prefix[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(prefix[8:12], flags)
	binary.LittleEndian.PutUint64(prefix[12:20], uint64(len(headerJSON)))
	sum := ComputeChecksum(data)
	copy(prefix[20:], sum[:])

	if _, err := w.Write(prefix); err != nil {
		return fmt.Errorf("failed to write prefix: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	pad := alignedDataOffset(int64(len(headerJSON))) - int64(prefixSize+len(headerJSON))
	if _, err := w.Write(make([]byte, pad)); err != nil {
		return fmt.Errorf("failed to write padding: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}
