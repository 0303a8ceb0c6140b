package scan

import (
	"context"
	"sync"
)

// artifactPool bounds how many artifact decisions run at once. Jobs queue on
// the slot channel; once the context ends, queued jobs are dropped instead of
// started, while jobs already holding a slot run to completion.
type artifactPool struct {
	slots chan struct{}
	wg    sync.WaitGroup
}

func newArtifactPool(workers int) *artifactPool {
	if workers < 1 {
		workers = 1
	}
	return &artifactPool{slots: make(chan struct{}, workers)}
}

// Go schedules fn on the next free worker slot.
func (p *artifactPool) Go(ctx context.Context, fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if ctx.Err() != nil {
			return
		}
		select {
		case p.slots <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-p.slots }()
		fn()
	}()
}

// Wait blocks until every scheduled job has run or been dropped.
func (p *artifactPool) Wait() {
	p.wg.Wait()
}
