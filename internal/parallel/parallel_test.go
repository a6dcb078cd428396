package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForVisitsEachIndexOnce(t *testing.T) {
	configs := map[string]Config{
		"default":   DefaultConfig(),
		"serial":    Serial(),
		"many":      {Workers: 16, MinChunk: 1},
		"bigchunks": {Workers: 3, MinChunk: 500},
	}

	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			const n = 1000
			var hits [n]int32
			For(n, func(i int) {
				atomic.AddInt32(&hits[i], 1)
			}, cfg)
			for i, h := range hits {
				assert.EqualValues(t, 1, h, "index %d", i)
			}
		})
	}
}

func TestForEmpty(t *testing.T) {
	called := false
	For(0, func(int) { called = true }, DefaultConfig())
	assert.False(t, called)
}

func TestForBlocks(t *testing.T) {
	batch, channels := 3, 5
	var seen [3][5]int32

	ForBlocks(batch, channels, func(n, c int) {
		atomic.AddInt32(&seen[n][c], 1)
	}, Config{Workers: 4, MinChunk: 1})

	for n := range batch {
		for c := range channels {
			assert.EqualValues(t, 1, seen[n][c], "block (%d, %d)", n, c)
		}
	}
}
