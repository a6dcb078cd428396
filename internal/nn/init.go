package nn

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/born-ml/detkit/internal/tensor"
)

// DefaultInitStd is the standard deviation used by detection heads.
const DefaultInitStd = 0.01

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// Parameters:
//   - rng: Random source
//   - fanIn: Number of input units
//   - fanOut: Number of output units
//   - shape: Shape of the weight tensor
//   - backend: Backend to use for tensor creation
func Xavier[B tensor.Backend](rng *rand.Rand, fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	dist := distuv.Uniform{Min: -bound, Max: bound, Src: rng}

	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = float32(dist.Rand())
	}
	return t
}

// Zeros creates a tensor filled with zeros.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Normal creates a tensor with i.i.d. samples from N(mean, std²).
func Normal[B tensor.Backend](rng *rand.Rand, mean, std float64, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	t := tensor.Zeros[float32](shape, backend)
	fillNormal(t.Data(), rng, mean, std)
	return t
}

// NormalInit re-initialises the weights of every Conv2D and Linear layer
// found in models (and their submodules) with samples from N(0, std²).
//
// Weights are overwritten in place; biases and all other layers are left
// untouched. Calling it with the same generator state always produces the
// same weights.
//
// Example:
//
//	nn.NormalInit(rng, nn.DefaultInitStd, rpnConv, rpnClsScore, rpnBboxPred)
func NormalInit[B tensor.Backend](rng *rand.Rand, std float64, models ...Module[B]) {
	for _, model := range models {
		Walk(model, func(m Module[B]) {
			switch layer := m.(type) {
			case *Conv2D[B]:
				fillNormal(layer.Weight().Tensor().Data(), rng, 0, std)
			case *Linear[B]:
				fillNormal(layer.Weight().Tensor().Data(), rng, 0, std)
			}
		})
	}
}

func fillNormal(data []float32, rng *rand.Rand, mean, std float64) {
	dist := distuv.Normal{Mu: mean, Sigma: std, Src: rng}
	for i := range data {
		data[i] = float32(dist.Rand())
	}
}
