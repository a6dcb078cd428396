package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/detkit/internal/tensor"
)

// ClipGradNorm rescales the gradients of model so that their global L2 norm
// does not exceed clipNorm.
//
// The global norm is sqrt(sum of squared L2 norms) over every parameter
// that requires gradients. Each such gradient is then multiplied in place by
// clipNorm / max(norm, clipNorm), which is 1 when the norm is already within
// bounds. Frozen parameters and parameters without a gradient are skipped.
//
// clipNorm must be positive; ClipGradNorm panics otherwise.
//
// Returns the global norm measured before scaling.
func ClipGradNorm[B tensor.Backend](model Module[B], clipNorm float32) float32 {
	if !(clipNorm > 0) {
		panic(fmt.Sprintf("ClipGradNorm: clip norm must be positive, got %v", clipNorm))
	}

	var grads [][]float32
	for _, p := range model.Parameters() {
		if !p.RequiresGrad() || p.Grad() == nil {
			continue
		}
		grads = append(grads, p.Grad().Data())
	}

	var sumSq float64
	for _, g := range grads {
		n := float64(blas32.Nrm2(vec(g)))
		sumSq += n * n
	}
	total := float32(math.Sqrt(sumSq))

	scale := clipNorm / max(total, clipNorm)
	for _, g := range grads {
		blas32.Scal(scale, vec(g))
	}
	return total
}

func vec(data []float32) blas32.Vector {
	return blas32.Vector{N: len(data), Inc: 1, Data: data}
}
