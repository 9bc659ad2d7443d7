package export

import "context"

// workerPool bounds the number of concurrent extractions.
type workerPool struct {
	semaphore chan struct{}
}

func newWorkerPool(maxWorkers int) *workerPool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &workerPool{semaphore: make(chan struct{}, maxWorkers)}
}

// acquire blocks until a slot is free or ctx is done.
func (wp *workerPool) acquire(ctx context.Context) error {
	select {
	case wp.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (wp *workerPool) release() {
	<-wp.semaphore
}
