package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/detkit/backend/cpu"
	"github.com/born-ml/detkit/internal/serialization"
	"github.com/born-ml/detkit/tensor"
)

var red = color.NRGBA{R: 204, A: 255}

func rawF32(t *testing.T, shape tensor.Shape, data ...float32) *tensor.RawTensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, cpu.New())
	require.NoError(t, err)
	return x.Raw()
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func writeCheckpoint(t *testing.T, path string) {
	t.Helper()
	err := serialization.WriteCheckpointFile(path, map[string]*tensor.RawTensor{
		"rpn.weight": rawF32(t, tensor.Shape{2, 2}, 1, 2, 3, 4),
	}, serialization.WriteOptions{
		Checkpoint: &serialization.CheckpointMeta{
			Epoch:         3,
			Step:          120,
			Loss:          0.25,
			OptimizerType: "SGD",
			GroupLRs:      []float32{0.001, 0.002},
		},
	})
	require.NoError(t, err)
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"version"}, &out))
	assert.Contains(t, out.String(), version)
}

func TestRunUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"train"}, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "Commands:")
}

func TestInspectCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faster_rcnn_1_3_120.dkcp")
	writeCheckpoint(t, path)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"inspect", "-file", path}, &out))
	s := out.String()
	assert.Contains(t, s, "dkcp, 1 tensors")
	assert.Contains(t, s, "epoch 3, step 120")
	assert.Contains(t, s, "optimizer SGD")
	assert.Contains(t, s, "rpn.weight")
	assert.Contains(t, s, "[2, 2]")
}

func TestInspectSafeTensors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "head.safetensors")
	require.NoError(t, serialization.WriteSafeTensors(path, map[string]*tensor.RawTensor{
		"cls.bias": rawF32(t, tensor.Shape{3}, 0, 0, 0),
	}, nil))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"inspect", "-file", path}, &out))
	assert.Contains(t, out.String(), "safetensors, 1 tensors")
	assert.Contains(t, out.String(), "cls.bias")
}

func TestInspectRequiresFile(t *testing.T) {
	err := run(context.Background(), []string{"inspect"}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestOverlayDir(t *testing.T) {
	dir := t.TempDir()
	imagesDir := filepath.Join(dir, "images")
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(imagesDir, 0o750))

	white := imaging.New(32, 32, color.White)
	require.NoError(t, imaging.Save(white, filepath.Join(imagesDir, "a.png")))
	require.NoError(t, imaging.Save(white, filepath.Join(imagesDir, "b.png")))

	detsPath := filepath.Join(dir, "dets.safetensors")
	require.NoError(t, serialization.WriteSafeTensors(detsPath, map[string]*tensor.RawTensor{
		"a.png": rawF32(t, tensor.Shape{2, 5},
			4, 4, 20, 20, 0.95,
			8, 24, 30, 30, 0.3,
		),
	}, nil))

	args := []string{"overlay", "-dets", detsPath, "-images", imagesDir, "-out", outDir, "-j", "2"}
	require.NoError(t, run(context.Background(), args, &bytes.Buffer{}))

	got, err := imaging.Open(filepath.Join(outDir, "a.png"))
	require.NoError(t, err)
	assert.Equal(t, red, nrgbaAt(got, 4, 4))
	assert.Equal(t, red, nrgbaAt(got, 20, 20))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, nrgbaAt(got, 12, 12))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, nrgbaAt(got, 8, 24), "below threshold")

	_, err = os.Stat(filepath.Join(outDir, "b.png"))
	assert.ErrorIs(t, err, os.ErrNotExist, "images without detections are skipped")
}

func TestOverlayRequiresFlags(t *testing.T) {
	err := run(context.Background(), []string{"overlay", "-dets", "x"}, &bytes.Buffer{})
	require.Error(t, err)
}
