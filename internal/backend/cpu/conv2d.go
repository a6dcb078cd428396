package cpu

import (
	"fmt"

	"github.com/born-ml/detkit/internal/parallel"
	"github.com/born-ml/detkit/internal/tensor"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape: [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_h, kernel_w]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Algorithm:
//  1. Transform input patches into rows (im2col)
//  2. Treat the kernel as a [C_out, C_in*K_h*K_w] matrix
//  3. Multiply and scatter into [N, C_out, H_out, W_out]
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape)))
	}
	if input.DType() != kernel.DType() {
		panic(fmt.Sprintf("conv2d: dtype mismatch %s vs %s", input.DType(), kernel.DType()))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid stride=%d padding=%d", stride, padding))
	}

	g := convGeometry{
		N:       inputShape[0],
		CIn:     inputShape[1],
		H:       inputShape[2],
		W:       inputShape[3],
		COut:    kernelShape[0],
		KH:      kernelShape[2],
		KW:      kernelShape[3],
		stride:  stride,
		padding: padding,
	}

	if g.CIn != kernelShape[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", g.CIn, kernelShape[1]))
	}

	g.HOut = (g.H+2*padding-g.KH)/stride + 1
	g.WOut = (g.W+2*padding-g.KW)/stride + 1
	if g.HOut <= 0 || g.WOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", g.HOut, g.WOut))
	}

	output := cpu.newResult("conv2d", tensor.Shape{g.N, g.COut, g.HOut, g.WOut}, input.DType())

	switch input.DType() {
	case tensor.Float32:
		conv2dLoop(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(), g, cpu.parallel)
	case tensor.Float64:
		conv2dLoop(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(), g, cpu.parallel)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	return output
}

type convGeometry struct {
	N, CIn, H, W    int
	COut, KH, KW    int
	HOut, WOut      int
	stride, padding int
}

func conv2dLoop[T tensor.Float](out, in, kernel []T, g convGeometry, cfg parallel.Config) {
	colWidth := g.CIn * g.KH * g.KW
	spatial := g.HOut * g.WOut
	colBuf := make([]T, g.N*spatial*colWidth)
	im2col(colBuf, in, g)

	// Each (n, c) block owns out[(n*COut+c)*spatial:][:spatial].
	parallel.ForBlocks(g.N, g.COut, func(n, c int) {
		k := kernel[c*colWidth : (c+1)*colWidth]
		dst := out[(n*g.COut+c)*spatial : (n*g.COut+c+1)*spatial]
		for pos := range dst {
			row := colBuf[(n*spatial+pos)*colWidth : (n*spatial+pos+1)*colWidth]
			var sum T
			for i, v := range row {
				sum += k[i] * v
			}
			dst[pos] = sum
		}
	}, cfg)
}

// im2col lays out every receptive field as one row of colBuf,
// zero-filling positions that fall into the padding.
func im2col[T tensor.Float](colBuf, in []T, g convGeometry) {
	idx := 0
	for n := 0; n < g.N; n++ {
		for oh := 0; oh < g.HOut; oh++ {
			for ow := 0; ow < g.WOut; ow++ {
				hStart := oh*g.stride - g.padding
				wStart := ow*g.stride - g.padding
				for c := 0; c < g.CIn; c++ {
					for kh := 0; kh < g.KH; kh++ {
						for kw := 0; kw < g.KW; kw++ {
							h, w := hStart+kh, wStart+kw
							if h >= 0 && h < g.H && w >= 0 && w < g.W {
								colBuf[idx] = in[((n*g.CIn+c)*g.H+h)*g.W+w]
							} else {
								colBuf[idx] = 0
							}
							idx++
						}
					}
				}
			}
		}
	}
}
