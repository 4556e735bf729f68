package concurrent

import (
	"sync"
)

type JobFunc[T any, G any] func(job T) G

// WorkerPool runs jobFunc over queued jobs on a fixed number of goroutines.
// Results arrive in completion order, not submission order.
type WorkerPool[T any, G any] struct {
	numWorkers int
	jobQueue   chan T
	results    chan G
	wg         sync.WaitGroup
}

func NewWorkerPool[T any, G any](numWorkers, jobQueueSize int) *WorkerPool[T, G] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan T, jobQueueSize),
		results:    make(chan G, jobQueueSize),
	}
}

func (wp *WorkerPool[T, G]) worker(jobFunc JobFunc[T, G]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		wp.results <- jobFunc(job)
	}
}

func (wp *WorkerPool[T, G]) Start(jobFunc JobFunc[T, G]) {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(jobFunc)
	}
}

// Wait blocks until every worker returned, then closes the results channel.
func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[T, G]) AddJob(job T) {
	wp.jobQueue <- job
}

func (wp *WorkerPool[T, G]) CollectResults() chan G {
	return wp.results
}

func (wp *WorkerPool[T, G]) Close() {
	close(wp.jobQueue)
}

// Chunk is a half-open range [Lo, Hi) of item positions.
type Chunk struct {
	Lo, Hi int
}

// SplitChunks cuts [0, n) into at most parts contiguous chunks of near-equal size.
func SplitChunks(n, parts int) []Chunk {
	if n <= 0 {
		return nil
	}
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	size := (n + parts - 1) / parts
	chunks := make([]Chunk, 0, parts)
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		chunks = append(chunks, Chunk{Lo: lo, Hi: hi})
	}
	return chunks
}

// ForEachChunk splits [0, n) over numWorkers goroutines and returns every
// chunk's result. handle must only write to positions inside its chunk.
func ForEachChunk[G any](n, numWorkers int, handle func(c Chunk) G) []G {
	chunks := SplitChunks(n, numWorkers)
	if len(chunks) == 0 {
		return nil
	}

	wp := NewWorkerPool[Chunk, G](numWorkers, len(chunks))
	wp.Start(handle)
	for _, c := range chunks {
		wp.AddJob(c)
	}
	wp.Close()
	wp.Wait()

	out := make([]G, 0, len(chunks))
	for res := range wp.CollectResults() {
		out = append(out, res)
	}
	return out
}
