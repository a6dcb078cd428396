package main

import (
	"context"
	"flag"
	"fmt"
	"image/draw"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/born-ml/detkit/backend/cpu"
	"github.com/born-ml/detkit/internal/serialization"
	"github.com/born-ml/detkit/tensor"
	"github.com/born-ml/detkit/vis"
)

type overlayOptions struct {
	imagesDir string
	outDir    string
	thresh    float32
	className string
}

func runOverlay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("overlay", flag.ContinueOnError)
	detsPath := fs.String("dets", "", "SafeTensors file of [N,5] detections keyed by image file name")
	imagesDir := fs.String("images", "", "directory of input images")
	outDir := fs.String("out", "", "output directory for PNG overlays")
	thresh := fs.Float64("thresh", vis.DefaultThreshold, "minimum detection score")
	className := fs.String("class", "", "class name for captions; empty draws boxes only")
	jobs := fs.Int("j", runtime.NumCPU(), "images rendered concurrently")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *detsPath == "" || *imagesDir == "" || *outDir == "" {
		return fmt.Errorf("overlay: -dets, -images and -out are required")
	}

	reader, err := serialization.OpenSafeTensors(*detsPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()

	if err := os.MkdirAll(*outDir, 0o750); err != nil {
		return err
	}

	opts := overlayOptions{
		imagesDir: *imagesDir,
		outDir:    *outDir,
		thresh:    float32(*thresh),
		className: *className,
	}
	return overlayDir(ctx, reader, opts, *jobs)
}

func overlayDir(ctx context.Context, reader *serialization.SafeTensorsReader, opts overlayOptions, jobs int) error {
	entries, err := os.ReadDir(opts.imagesDir)
	if err != nil {
		return err
	}

	log.Println("overlay started")
	defer log.Println("overlay finished")

	backend := cpu.New()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if _, ok := reader.Info(name); !ok {
			log.Printf("%s: no detections, skipped", name)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return overlayImage(reader, backend, name, opts)
		})
	}
	return g.Wait()
}

func overlayImage(reader *serialization.SafeTensorsReader, backend *cpu.Backend, name string, opts overlayOptions) error {
	raw, err := reader.ReadTensor(name)
	if err != nil {
		return err
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("%s: detections must be F32, got %s", name, raw.DType())
	}
	dets := tensor.New[float32](raw, backend)

	img, err := imaging.Open(filepath.Join(opts.imagesDir, name))
	if err != nil {
		return err
	}

	var out draw.Image
	if opts.className != "" {
		out, err = vis.DrawLabeledDetections(img, opts.className, dets, opts.thresh)
	} else {
		out, err = vis.DrawDetections(img, dets, opts.thresh)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	dst := filepath.Join(opts.outDir, strings.TrimSuffix(name, filepath.Ext(name))+".png")
	if err := imaging.Save(out, dst); err != nil {
		return err
	}
	log.Printf("%s -> %s", name, dst)
	return nil
}
