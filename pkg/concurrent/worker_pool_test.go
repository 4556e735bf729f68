package concurrent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		parts int
		want  []Chunk
	}{
		{name: "empty", n: 0, parts: 4, want: nil},
		{name: "even", n: 8, parts: 4, want: []Chunk{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{name: "uneven", n: 7, parts: 3, want: []Chunk{{0, 3}, {3, 6}, {6, 7}}},
		{name: "more parts than items", n: 2, parts: 8, want: []Chunk{{0, 1}, {1, 2}}},
		{name: "zero parts", n: 3, parts: 0, want: []Chunk{{0, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitChunks(tt.n, tt.parts))
		})
	}
}

func TestForEachChunkCoversEveryItem(t *testing.T) {
	const n = 1000
	values := make([]int, n)

	counts := ForEachChunk(n, 7, func(c Chunk) int {
		for i := c.Lo; i < c.Hi; i++ {
			values[i] = i * 2
		}
		return c.Hi - c.Lo
	})

	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, n, total)
	for i, v := range values {
		assert.Equal(t, i*2, v)
	}
}

func TestWorkerPool(t *testing.T) {
	wp := NewWorkerPool[int, int](3, 10)
	wp.Start(func(job int) int { return job * job })
	for i := 1; i <= 10; i++ {
		wp.AddJob(i)
	}
	wp.Close()
	wp.Wait()

	sum := 0
	for r := range wp.CollectResults() {
		sum += r
	}
	assert.Equal(t, 385, sum)
}
