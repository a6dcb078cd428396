package nn

import (
	"fmt"
	"sort"

	"github.com/born-ml/detkit/internal/serialization"
	"github.com/born-ml/detkit/internal/tensor"
)

// SaveNet writes every entry of model.StateDict() to a SafeTensors file.
//
// Example:
//
//	err := nn.SaveNet("faster_rcnn_1_6_10021.safetensors", model)
func SaveNet[B tensor.Backend](path string, model Module[B]) error {
	return SaveNetWithMetadata(path, model, nil)
}

// SaveNetWithMetadata is SaveNet with string metadata stored in the
// SafeTensors "__metadata__" header entry.
func SaveNetWithMetadata[B tensor.Backend](path string, model Module[B], metadata map[string]string) error {
	if err := serialization.WriteSafeTensors(path, model.StateDict(), metadata); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// LoadNet copies the tensors of a SafeTensors file into model in place.
//
// The model's own state dict keys drive the load: every key must be present
// in the file with identical dtype and shape, and keys in the file that the
// model does not have are ignored. A missing key yields an error wrapping
// serialization.ErrTensorNotFound, a mismatch one wrapping
// serialization.ErrShapeMismatch. On error some parameters may already have
// been overwritten.
func LoadNet[B tensor.Backend](path string, model Module[B]) error {
	reader, err := serialization.OpenSafeTensors(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	state := model.StateDict()
	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := reader.ReadInto(k, state[k]); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}
