package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/born-ml/detkit/internal/serialization"
)

// fileInfo is the tensor table of a weight file or checkpoint.
type fileInfo struct {
	Format     string                        `json:"format"`
	Tensors    []serialization.TensorMeta    `json:"tensors"`
	Metadata   map[string]string             `json:"metadata,omitempty"`
	Checkpoint *serialization.CheckpointMeta `json:"checkpoint,omitempty"`
}

// describe reads the header of path. The format is detected by magic bytes:
// "DKCP" is a checkpoint, anything else is treated as SafeTensors.
func describe(path string) (*fileInfo, error) {
	magic, err := readMagic(path)
	if err != nil {
		return nil, err
	}

	if magic == serialization.MagicBytes {
		reader, err := serialization.OpenCheckpointFile(path)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = reader.Close()
		}()
		header := reader.Header()
		return &fileInfo{
			Format:     "dkcp",
			Tensors:    header.Tensors,
			Metadata:   header.Metadata,
			Checkpoint: header.CheckpointMeta,
		}, nil
	}

	reader, err := serialization.OpenSafeTensors(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()
	info := &fileInfo{Format: "safetensors", Metadata: reader.Metadata()}
	for _, name := range reader.Names() {
		meta, _ := reader.Info(name)
		meta.Name = name
		info.Tensors = append(info.Tensors, meta)
	}
	return info, nil
}

func readMagic(path string) (string, error) {
	//nolint:gosec // G304: path is a CLI argument
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	buf := make([]byte, len(serialization.MagicBytes))
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(buf[:n]), nil
}

func runInspect(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	path := fs.String("file", "", "path to a .safetensors or .dkcp file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("inspect: -file is required")
	}

	info, err := describe(*path)
	if err != nil {
		return err
	}
	printInfo(stdout, *path, info)
	return nil
}

func printInfo(w io.Writer, path string, info *fileInfo) {
	fmt.Fprintf(w, "%s (%s, %d tensors)\n", path, info.Format, len(info.Tensors))
	if c := info.Checkpoint; c != nil {
		fmt.Fprintf(w, "epoch %d, step %d, loss %.4f\n", c.Epoch, c.Step, c.Loss)
		if c.OptimizerType != "" {
			fmt.Fprintf(w, "optimizer %s, group lrs %v\n", c.OptimizerType, c.GroupLRs)
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDTYPE\tSHAPE")
	for _, t := range info.Tensors {
		dims := make([]string, len(t.Shape))
		for i, d := range t.Shape {
			dims[i] = fmt.Sprint(d)
		}
		fmt.Fprintf(tw, "%s\t%s\t[%s]\n", t.Name, t.DType, strings.Join(dims, ", "))
	}
	_ = tw.Flush()
}
