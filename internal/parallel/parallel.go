// Package parallel splits index ranges across goroutines for the CPU kernels.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how a range is split.
type Config struct {
	Workers  int // goroutines used; <= 1 runs inline
	MinChunk int // smallest range handed to one goroutine
}

// DefaultConfig uses one worker per CPU.
func DefaultConfig() Config {
	return Config{
		Workers:  runtime.NumCPU(),
		MinChunk: 4,
	}
}

// Serial returns a Config that never spawns goroutines.
func Serial() Config {
	return Config{Workers: 1}
}

// For calls f(i) for every i in [0, n). Each index is visited exactly once;
// f must be safe to run concurrently for distinct indices.
func For(n int, f func(i int), cfg Config) {
	if n <= 0 {
		return
	}
	chunk := max((n+cfg.Workers-1)/max(cfg.Workers, 1), cfg.MinChunk, 1)
	if cfg.Workers <= 1 || chunk >= n {
		for i := range n {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := start; i < end; i++ {
				f(i)
			}
		}()
	}
	wg.Wait()
}

// ForBlocks calls f(n, c) for every (n, c) in [0, outer) x [0, inner), the
// layout of a batch of output channels in NCHW tensors.
func ForBlocks(outer, inner int, f func(n, c int), cfg Config) {
	For(outer*inner, func(k int) {
		f(k/inner, k%inner)
	}, cfg)
}
