package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/born-ml/detkit/internal/tensor"
)

// CheckpointReader reads .dkcp files.
type CheckpointReader struct {
	flags   uint32
	header  Header
	index   map[string]TensorMeta
	data    []byte
	release func() error
}

// OpenCheckpointFile opens path, validates prefix, header, tensor table and
// checksum, and returns a reader over the tensor data.
func OpenCheckpointFile(path string) (*CheckpointReader, error) {
	//nolint:gosec // G304: path comes from trusted caller
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() < prefixSize {
		return nil, fmt.Errorf("%w: file too short (%d bytes)", ErrInvalidMagic, info.Size())
	}

	buf, release, err := mapFile(f, info.Size())
	if err != nil {
		return nil, err
	}
	r, err := parseCheckpoint(buf)
	if err != nil {
		_ = release()
		return nil, err
	}
	r.release = release
	return r, nil
}

func parseCheckpoint(buf []byte) (*CheckpointReader, error) {
	if string(buf[0:4]) != MagicBytes {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrInvalidMagic, buf[0:4], MagicBytes)
	}
	if v := binary.LittleEndian.Uint32(buf[4:8]); v != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	flags := binary.LittleEndian.Uint32(buf[8:12])
	headerSize := binary.LittleEndian.Uint64(buf[12:20])
	var stored [ChecksumSize]byte
	copy(stored[:], buf[20:prefixSize])

	if err := ValidateHeaderSize(headerSize, int64(len(buf)-prefixSize)); err != nil {
		return nil, err
	}

	var header Header
	if err := json.Unmarshal(buf[prefixSize:prefixSize+int(headerSize)], &header); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	dataStart := alignedDataOffset(int64(headerSize))
	if dataStart > int64(len(buf)) {
		return nil, &ValidationError{Err: ErrOutOfBounds, Details: "data section starts past end of file"}
	}
	data := buf[dataStart:]

	index := make(map[string]TensorMeta, len(header.Tensors))
	for _, meta := range header.Tensors {
		if err := ValidateTensorName(meta.Name); err != nil {
			return nil, err
		}
		dt, ok := ParseDType(meta.DType)
		if !ok {
			return nil, &ValidationError{Err: ErrUnsupportedDType, Tensor: meta.Name, Details: meta.DType}
		}
		if err := ValidateTensorSize(meta, dt.Size()); err != nil {
			return nil, err
		}
		index[meta.Name] = meta
	}
	if err := ValidateTensorOffsets(header.Tensors, int64(len(data))); err != nil {
		return nil, err
	}
	if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
		return nil, err
	}

	return &CheckpointReader{
		flags:  flags,
		header: header,
		index:  index,
		data:   data,
	}, nil
}

// Header returns the parsed JSON header.
func (r *CheckpointReader) Header() Header {
	return r.header
}

// Flags returns the flag word from the file prefix.
func (r *CheckpointReader) Flags() uint32 {
	return r.flags
}

// Names returns tensor names in file order (sorted).
func (r *CheckpointReader) Names() []string {
	names := make([]string, len(r.header.Tensors))
	for i, t := range r.header.Tensors {
		names[i] = t.Name
	}
	return names
}

// Has reports whether the file contains name.
func (r *CheckpointReader) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// ReadTensor copies name into a freshly allocated RawTensor.
func (r *CheckpointReader) ReadTensor(name string) (*tensor.RawTensor, error) {
	meta, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	dt, _ := ParseDType(meta.DType)
	return tensor.NewRawFromBytes(meta.Shape, dt, tensor.CPU, r.data[meta.Offset:meta.Offset+meta.Size])
}

// ReadInto copies name into dst after checking dtype and shape.
func (r *CheckpointReader) ReadInto(name string, dst *tensor.RawTensor) error {
	meta, ok := r.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	dt, _ := ParseDType(meta.DType)
	if dt != dst.DType() || !tensor.Shape(meta.Shape).Equal(dst.Shape()) {
		return &ValidationError{
			Err:     ErrShapeMismatch,
			Tensor:  name,
			Details: fmt.Sprintf("file has %s%v, destination has %s%v", dt, meta.Shape, dst.DType(), dst.Shape()),
		}
	}
	copy(dst.Data(), r.data[meta.Offset:meta.Offset+meta.Size])
	return nil
}

// Close releases the underlying mapping.
func (r *CheckpointReader) Close() error {
	if r.release == nil {
		return nil
	}
	err := r.release()
	r.release = nil
	r.data = nil
	return err
}
