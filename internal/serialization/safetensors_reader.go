package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/born-ml/detkit/internal/tensor"
)

// SafeTensorsReader gives random access to the tensors of a SafeTensors file.
//
// On Unix the file is memory-mapped and tensors are copied out on demand.
// Call Close when done.
type SafeTensorsReader struct {
	path     string
	mapped   []byte
	release  func() error
	data     []byte // tensor data section within mapped
	tensors  map[string]TensorMeta
	metadata map[string]string
}

// OpenSafeTensors opens and validates a SafeTensors file.
func OpenSafeTensors(path string) (*SafeTensorsReader, error) {
	//nolint:gosec // G304: path comes from trusted caller
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = f.Close() // mapping stays valid after close
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() < 8 {
		return nil, &ValidationError{Err: ErrOutOfBounds, Details: fmt.Sprintf("file too short: %d bytes", info.Size())}
	}

	mapped, release, err := mapFile(f, info.Size())
	if err != nil {
		return nil, err
	}
	r, err := parseSafeTensors(path, mapped)
	if err != nil {
		_ = release()
		return nil, err
	}
	r.release = release
	return r, nil
}

// ParseSafeTensors decodes an in-memory SafeTensors blob. The reader keeps
// a reference to buf.
func ParseSafeTensors(buf []byte) (*SafeTensorsReader, error) {
	if len(buf) < 8 {
		return nil, &ValidationError{Err: ErrOutOfBounds, Details: fmt.Sprintf("buffer too short: %d bytes", len(buf))}
	}
	r, err := parseSafeTensors("", buf)
	if err != nil {
		return nil, err
	}
	r.release = func() error { return nil }
	return r, nil
}

func parseSafeTensors(path string, buf []byte) (*SafeTensorsReader, error) {
	headerSize := binary.LittleEndian.Uint64(buf[:8])
	if err := ValidateHeaderSize(headerSize, int64(len(buf)-8)); err != nil {
		return nil, err
	}
	headerEnd := 8 + int64(headerSize)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(buf[8:headerEnd], &raw); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	r := &SafeTensorsReader{
		path:    path,
		mapped:  buf,
		data:    buf[headerEnd:],
		tensors: make(map[string]TensorMeta, len(raw)),
	}

	metas := make([]TensorMeta, 0, len(raw))
	for name, msg := range raw {
		if name == "__metadata__" {
			if err := json.Unmarshal(msg, &r.metadata); err != nil {
				return nil, fmt.Errorf("failed to parse metadata: %w", err)
			}
			continue
		}
		if err := ValidateTensorName(name); err != nil {
			return nil, err
		}

		var h SafeTensorHeader
		if err := json.Unmarshal(msg, &h); err != nil {
			return nil, fmt.Errorf("failed to parse tensor %s: %w", name, err)
		}
		dt, ok := ParseDType(h.DType)
		if !ok {
			return nil, &ValidationError{Err: ErrUnsupportedDType, Tensor: name, Details: h.DType}
		}
		shape := make([]int, len(h.Shape))
		for i, d := range h.Shape {
			shape[i] = int(d)
		}
		meta := TensorMeta{
			Name:   name,
			DType:  h.DType,
			Shape:  shape,
			Offset: h.DataOffsets[0],
			Size:   h.DataOffsets[1] - h.DataOffsets[0],
		}
		if err := ValidateTensorSize(meta, dt.Size()); err != nil {
			return nil, err
		}
		metas = append(metas, meta)
		r.tensors[name] = meta
	}

	if err := ValidateTensorOffsets(metas, int64(len(r.data))); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the file path the reader was opened from.
func (r *SafeTensorsReader) Path() string {
	return r.path
}

// Names returns tensor names in sorted order.
func (r *SafeTensorsReader) Names() []string {
	names := make([]string, 0, len(r.tensors))
	for name := range r.tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Metadata returns the "__metadata__" entry of the header (may be nil).
func (r *SafeTensorsReader) Metadata() map[string]string {
	return r.metadata
}

// Info returns the header entry for name.
func (r *SafeTensorsReader) Info(name string) (TensorMeta, bool) {
	meta, ok := r.tensors[name]
	return meta, ok
}

// Bytes returns the raw little-endian bytes of name. The slice aliases the
// mapping and is only valid until Close.
func (r *SafeTensorsReader) Bytes(name string) ([]byte, error) {
	meta, ok := r.tensors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	return r.data[meta.Offset : meta.Offset+meta.Size], nil
}

// ReadTensor copies name into a freshly allocated RawTensor.
func (r *SafeTensorsReader) ReadTensor(name string) (*tensor.RawTensor, error) {
	meta, ok := r.tensors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	dt, _ := ParseDType(meta.DType)
	buf := make([]byte, meta.Size)
	copy(buf, r.data[meta.Offset:meta.Offset+meta.Size])
	return tensor.NewRawFromBytes(meta.Shape, dt, tensor.CPU, buf)
}

// ReadInto copies name into dst after checking dtype and shape.
func (r *SafeTensorsReader) ReadInto(name string, dst *tensor.RawTensor) error {
	meta, ok := r.tensors[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	dt, _ := ParseDType(meta.DType)
	if dt != dst.DType() || !tensor.Shape(meta.Shape).Equal(dst.Shape()) {
		return &ValidationError{
			Err:     ErrShapeMismatch,
			Tensor:  name,
			Details: fmt.Sprintf("file has %s%v, model has %s%v", dt, meta.Shape, dst.DType(), dst.Shape()),
		}
	}
	copy(dst.Data(), r.data[meta.Offset:meta.Offset+meta.Size])
	return nil
}

// Close releases the mapping.
func (r *SafeTensorsReader) Close() error {
	if r.release == nil {
		return nil
	}
	err := r.release()
	r.release = nil
	r.mapped, r.data = nil, nil
	return err
}
