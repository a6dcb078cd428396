// Package main provides the detkit CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
)

const version = "v0.1.0-dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		usage(stdout)
		return nil
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "detkit %s\n", version)
		return nil
	case "inspect":
		return runInspect(args[1:], stdout)
	case "overlay":
		return runOverlay(ctx, args[1:])
	case "serve":
		return runServe(args[1:])
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		usage(stdout)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "detkit - detection training toolkit")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  inspect    List tensors of a .safetensors or .dkcp file")
	fmt.Fprintln(w, "  overlay    Draw detections onto a directory of images")
	fmt.Fprintln(w, "  serve      Start the debug HTTP server")
}
