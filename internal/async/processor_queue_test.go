package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	mu    sync.Mutex
	seen  []uuid.UUID
	err   error
	delay time.Duration
}

func (f *fakeProcessor) ProcessDocument(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.seen = append(f.seen, id)
	f.mu.Unlock()
	return uuid.New(), f.err
}

func (f *fakeProcessor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func TestQueueProcessesAllJobs(t *testing.T) {
	proc := &fakeProcessor{}
	q := NewProcessorQueue(proc, nil, WithWorkers(2), WithQueueSize(8))

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(ctx, Job{DocumentID: uuid.New(), SubmittedAt: time.Now()}))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	q.Shutdown(shutdownCtx)

	assert.Equal(t, 5, proc.count())
}

func TestQueueEnqueueAfterShutdownIsNoop(t *testing.T) {
	proc := &fakeProcessor{}
	q := NewProcessorQueue(proc, nil, WithWorkers(1))

	ctx := context.Background()
	q.Shutdown(ctx)

	require.NoError(t, q.Enqueue(ctx, Job{DocumentID: uuid.New()}))
	assert.Equal(t, 0, proc.count())
}

func TestQueueSurvivesProcessingErrors(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("document is not a readable PDF")}
	q := NewProcessorQueue(proc, nil, WithWorkers(1), WithQueueSize(4))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(ctx, Job{DocumentID: uuid.New()}))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	q.Shutdown(shutdownCtx)

	assert.Equal(t, 3, proc.count())
}

func TestQueueBackpressureBlocksUntilDrained(t *testing.T) {
	proc := &fakeProcessor{delay: 10 * time.Millisecond}
	q := NewProcessorQueue(proc, nil, WithWorkers(1), WithQueueSize(1))

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, q.Enqueue(ctx, Job{DocumentID: uuid.New()}))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	q.Shutdown(shutdownCtx)

	assert.Equal(t, 4, proc.count())
}

func TestQueueShutdownTwice(t *testing.T) {
	q := NewProcessorQueue(&fakeProcessor{}, nil)
	ctx := context.Background()
	q.Shutdown(ctx)
	q.Shutdown(ctx)
}
