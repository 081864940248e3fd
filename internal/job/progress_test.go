package job

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingSink records progress writes and can be frozen to keep the writer
// goroutine busy.
type blockingSink struct {
	mu      sync.Mutex
	writes  []progressUpdate
	release chan struct{}
}

func (s *blockingSink) ReportProgress(_ context.Context, _ string, percent float64, message string) {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, progressUpdate{percent: percent, message: message})
}

func (s *blockingSink) snapshot() []progressUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]progressUpdate, len(s.writes))
	copy(out, s.writes)
	return out
}

func TestReporter_DeliversInOrder(t *testing.T) {
	sink := &blockingSink{}
	r := NewReporter(context.Background(), sink, "job-1", slog.New(slog.NewTextHandler(io.Discard, nil)))

	r.Report(10, "loading session")
	r.Report(55, "rendering audio")
	r.Report(100, "packaging voicebank")
	r.Close()

	writes := sink.snapshot()
	require.Len(t, writes, 3)
	assert.Equal(t, 10.0, writes[0].percent)
	assert.Equal(t, 55.0, writes[1].percent)
	assert.Equal(t, "packaging voicebank", writes[2].message)
}

func TestReporter_ReportNeverBlocks(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	r := NewReporter(context.Background(), sink, "job-1", slog.New(slog.NewTextHandler(io.Discard, nil)))

	// With the sink frozen, flood well past the buffer capacity. Every call
	// must return promptly; overflow is dropped, not queued.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < defaultReporterBuffer*4; i++ {
			r.Report(float64(i%100), "tick")
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Report blocked while the writer was stalled")
	}

	close(sink.release)
	r.Close()

	writes := sink.snapshot()
	assert.NotEmpty(t, writes)
	assert.LessOrEqual(t, len(writes), defaultReporterBuffer+1)
}

func TestReporter_DropsAfterClose(t *testing.T) {
	sink := &blockingSink{}
	r := NewReporter(context.Background(), sink, "job-1", slog.New(slog.NewTextHandler(io.Discard, nil)))

	r.Report(50, "halfway")
	r.Close()
	before := len(sink.snapshot())

	// Late callbacks from a finished generator are silently dropped.
	r.Report(99, "straggler")
	assert.Len(t, sink.snapshot(), before)
}

func TestReporter_CloseIsIdempotent(t *testing.T) {
	sink := &blockingSink{}
	r := NewReporter(context.Background(), sink, "job-1", slog.New(slog.NewTextHandler(io.Discard, nil)))

	r.Report(10, "tick")
	r.Close()
	r.Close()
}

func TestReporter_CanceledContextStopsWriter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sink := &blockingSink{}
	r := NewReporter(ctx, sink, "job-1", slog.New(slog.NewTextHandler(io.Discard, nil)))

	cancel()

	// The writer goroutine exits on cancellation; Close must still return.
	done := make(chan struct{})
	go func() {
		r.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close hung after context cancellation")
	}
}
