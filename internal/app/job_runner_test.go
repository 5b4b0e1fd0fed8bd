package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ytgrab-go/internal/domain"
)

// funcExtractor implements domain.Extractor with a pluggable Fetch
type funcExtractor struct {
	fetch func(ctx context.Context, url, formatID string, onProgress domain.ProgressCallback) error
	calls atomic.Int32
}

func (f *funcExtractor) Inspect(ctx context.Context, url string) (*domain.VideoInfo, error) {
	return &domain.VideoInfo{Formats: []domain.Format{}}, nil
}

func (f *funcExtractor) Fetch(ctx context.Context, url, formatID string, onProgress domain.ProgressCallback) error {
	f.calls.Add(1)
	return f.fetch(ctx, url, formatID, onProgress)
}

// replay emits the given events in order and then returns err
func replay(err error, events ...domain.ProgressEvent) *funcExtractor {
	return &funcExtractor{
		fetch: func(ctx context.Context, url, formatID string, onProgress domain.ProgressCallback) error {
			for _, e := range events {
				onProgress(e)
			}
			return err
		},
	}
}

type recordingNotifier struct {
	mu        sync.Mutex
	completed []string
	failed    []string
}

func (n *recordingNotifier) NotifyDownloadCompleted(jobID, url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, jobID)
}

func (n *recordingNotifier) NotifyDownloadFailed(jobID, url string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, jobID)
}

func downloading(downloaded, total float64) domain.ProgressEvent {
	return domain.ProgressEvent{
		Status:          domain.ProgressDownloading,
		DownloadedBytes: downloaded,
		TotalBytes:      total,
		Speed:           512,
		ETA:             7,
	}
}

func finished(filename string) domain.ProgressEvent {
	return domain.ProgressEvent{Status: domain.ProgressFinished, Filename: filename}
}

func newTestRunner(extractor domain.Extractor, config *domain.DownloadConfig) (*JobRunner, *ProgressStore) {
	store := NewProgressStore(nil, nil)
	return NewJobRunner(extractor, store, nil, config, nil), store
}

func request(id string) domain.JobRequest {
	return domain.JobRequest{URL: "https://example.com/watch?v=" + id, FormatID: "18", JobID: id}
}

func TestJobRunner_StartMissingParameters(t *testing.T) {
	extractor := replay(nil)
	runner, store := newTestRunner(extractor, nil)

	err := runner.Start(domain.JobRequest{URL: "x", FormatID: "", JobID: "y"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingParameters))

	runner.Wait()
	assert.Equal(t, int32(0), extractor.calls.Load(), "no job should be spawned")
	assert.True(t, store.Get("y").IsEmpty())
	assert.Equal(t, 0, store.Len())
}

func TestJobRunner_CompletedJob(t *testing.T) {
	notifier := &recordingNotifier{}
	extractor := replay(nil,
		downloading(10, 100),
		downloading(57, 100),
		finished("My Video.mp4"),
	)
	store := NewProgressStore(nil, nil)
	runner := NewJobRunner(extractor, store, notifier, &domain.DownloadConfig{}, nil)

	require.NoError(t, runner.Start(request("job-1")))
	runner.Wait()

	snapshot := store.Get("job-1")
	assert.Equal(t, 100.0, snapshot.Percent)
	assert.Equal(t, 0.0, snapshot.Speed)
	assert.Equal(t, int64(0), snapshot.ETA)
	assert.Empty(t, snapshot.Error)
	assert.Equal(t, "My Video.mp4", snapshot.Filename)
	assert.True(t, snapshot.IsComplete())
	assert.Equal(t, []string{"job-1"}, notifier.completed)
	assert.Empty(t, notifier.failed)
}

func TestJobRunner_FinishOverridesLastPercent(t *testing.T) {
	extractor := replay(nil, downloading(3, 1000), finished(""))
	runner, store := newTestRunner(extractor, nil)

	require.NoError(t, runner.Start(request("job-2")))
	runner.Wait()

	snapshot := store.Get("job-2")
	assert.Equal(t, 100.0, snapshot.Percent)
	assert.Equal(t, 0.0, snapshot.Speed)
	assert.Equal(t, int64(0), snapshot.ETA)
}

func TestJobRunner_UnknownTotalKeepsPreviousSnapshot(t *testing.T) {
	extractor := replay(nil,
		downloading(25, 100),
		downloading(90, 0),
		domain.ProgressEvent{Status: domain.ProgressDownloading, DownloadedBytes: 95},
	)
	runner, store := newTestRunner(extractor, nil)

	require.NoError(t, runner.Start(request("job-3")))
	runner.Wait()

	assert.Equal(t, 25.0, store.Get("job-3").Percent)
}

func TestJobRunner_UnknownTotalFirstEventCreatesNothing(t *testing.T) {
	extractor := replay(nil, downloading(90, 0))
	runner, store := newTestRunner(extractor, nil)

	require.NoError(t, runner.Start(request("job-4")))
	runner.Wait()

	assert.True(t, store.Get("job-4").IsEmpty())
}

func TestJobRunner_UsesTotalEstimate(t *testing.T) {
	extractor := replay(nil, domain.ProgressEvent{
		Status:             domain.ProgressDownloading,
		DownloadedBytes:    1,
		TotalBytesEstimate: 3,
	})
	runner, store := newTestRunner(extractor, nil)

	require.NoError(t, runner.Start(request("job-5")))
	runner.Wait()

	assert.Equal(t, 33.3, store.Get("job-5").Percent)
}

func TestJobRunner_PercentNonDecreasing(t *testing.T) {
	var store *ProgressStore
	var observed []float64

	extractor := &funcExtractor{
		fetch: func(ctx context.Context, url, formatID string, onProgress domain.ProgressCallback) error {
			for _, downloaded := range []float64{0, 10, 10, 45.5, 80, 100} {
				onProgress(downloading(downloaded, 100))
				observed = append(observed, store.Get("job-6").Percent)
			}
			onProgress(finished("f.webm"))
			observed = append(observed, store.Get("job-6").Percent)
			return nil
		},
	}
	runner, s := newTestRunner(extractor, nil)
	store = s

	require.NoError(t, runner.Start(request("job-6")))
	runner.Wait()

	require.Len(t, observed, 7)
	for i := 1; i < len(observed); i++ {
		assert.GreaterOrEqual(t, observed[i], observed[i-1])
	}
	assert.Equal(t, 100.0, observed[len(observed)-1])
}

func TestJobRunner_FailureRecordsOnlyError(t *testing.T) {
	notifier := &recordingNotifier{}
	extractor := replay(errors.New("ERROR: Requested format is not available"), downloading(40, 100))
	store := NewProgressStore(nil, nil)
	runner := NewJobRunner(extractor, store, notifier, nil, nil)

	require.NoError(t, runner.Start(request("job-7")))
	runner.Wait()

	snapshot := store.Get("job-7")
	assert.Equal(t, domain.SnapshotFailed, snapshot.State)
	assert.Equal(t, "ERROR: Requested format is not available", snapshot.Error)
	assert.Equal(t, 0.0, snapshot.Percent)
	assert.Equal(t, 0.0, snapshot.Speed)
	assert.Equal(t, []string{"job-7"}, notifier.failed)
}

func TestJobRunner_FullDownloadThenPostprocessFailure(t *testing.T) {
	release := make(chan struct{})
	reached := make(chan struct{})
	extractor := &funcExtractor{
		fetch: func(ctx context.Context, url, formatID string, onProgress domain.ProgressCallback) error {
			onProgress(downloading(100, 100))
			close(reached)
			<-release
			return errors.New("ERROR: Postprocessing: Conversion failed!")
		},
	}
	runner, store := newTestRunner(extractor, nil)

	require.NoError(t, runner.Start(request("job-pp")))
	<-reached

	snapshot := store.Get("job-pp")
	assert.Equal(t, 100.0, snapshot.Percent)
	assert.Equal(t, domain.SnapshotDownloading, snapshot.State)
	assert.False(t, snapshot.IsComplete())
	assert.False(t, snapshot.IsTerminal())

	close(release)
	runner.Wait()

	snapshot = store.Get("job-pp")
	assert.Equal(t, domain.FailedSnapshot("ERROR: Postprocessing: Conversion failed!"), snapshot)
	assert.False(t, snapshot.IsComplete())
}

func TestJobRunner_PanicBecomesError(t *testing.T) {
	extractor := &funcExtractor{
		fetch: func(ctx context.Context, url, formatID string, onProgress domain.ProgressCallback) error {
			panic("extractor exploded")
		},
	}
	runner, store := newTestRunner(extractor, nil)

	require.NoError(t, runner.Start(request("job-8")))
	runner.Wait()

	assert.Contains(t, store.Get("job-8").Error, "extractor exploded")
	assert.Equal(t, 0, runner.ActiveJobs())
}

func TestJobRunner_StartReturnsBeforeDownloadFinishes(t *testing.T) {
	release := make(chan struct{})
	extractor := &funcExtractor{
		fetch: func(ctx context.Context, url, formatID string, onProgress domain.ProgressCallback) error {
			<-release
			onProgress(finished(""))
			return nil
		},
	}
	runner, store := newTestRunner(extractor, nil)

	require.NoError(t, runner.Start(request("job-9")))
	assert.True(t, store.Get("job-9").IsEmpty())
	assert.True(t, runner.IsActive("job-9"))

	close(release)
	runner.Wait()
	assert.False(t, runner.IsActive("job-9"))
	assert.True(t, store.Get("job-9").IsComplete())
}

func TestJobRunner_ConcurrentJobsAreIndependent(t *testing.T) {
	const jobs = 25

	extractor := &funcExtractor{
		fetch: func(ctx context.Context, url, formatID string, onProgress domain.ProgressCallback) error {
			var n int
			fmt.Sscanf(formatID, "%d", &n)
			for i := 1; i <= n; i++ {
				onProgress(downloading(float64(i), 100))
			}
			return nil
		},
	}
	runner, store := newTestRunner(extractor, nil)

	for i := 1; i <= jobs; i++ {
		req := domain.JobRequest{
			URL:      "https://example.com/v",
			FormatID: fmt.Sprintf("%d", i),
			JobID:    fmt.Sprintf("job-%d", i),
		}
		require.NoError(t, runner.Start(req))
	}
	runner.Wait()

	for i := 1; i <= jobs; i++ {
		assert.Equal(t, float64(i), store.Get(fmt.Sprintf("job-%d", i)).Percent)
	}
	assert.Equal(t, jobs, store.Len())
}

func TestJobRunner_DuplicateIDsAllowedByDefault(t *testing.T) {
	release := make(chan struct{})
	extractor := &funcExtractor{
		fetch: func(ctx context.Context, url, formatID string, onProgress domain.ProgressCallback) error {
			<-release
			return nil
		},
	}
	runner, _ := newTestRunner(extractor, &domain.DownloadConfig{})

	require.NoError(t, runner.Start(request("same")))
	require.NoError(t, runner.Start(request("same")))
	assert.Equal(t, 2, runner.ActiveJobs())

	close(release)
	runner.Wait()
	assert.Equal(t, int32(2), extractor.calls.Load())
}

func TestJobRunner_RejectDuplicateInFlightIDs(t *testing.T) {
	release := make(chan struct{})
	extractor := &funcExtractor{
		fetch: func(ctx context.Context, url, formatID string, onProgress domain.ProgressCallback) error {
			<-release
			return nil
		},
	}
	runner, _ := newTestRunner(extractor, &domain.DownloadConfig{RejectDuplicateIDs: true})

	require.NoError(t, runner.Start(request("dup")))
	err := runner.Start(request("dup"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrJobInProgress))

	close(release)
	runner.Wait()

	// Finished identifiers may be reused
	require.NoError(t, runner.Start(request("dup")))
	runner.Wait()
	assert.Equal(t, int32(2), extractor.calls.Load())
}

func TestJobRunner_ConcurrentLimit(t *testing.T) {
	var running, peak atomic.Int32
	extractor := &funcExtractor{
		fetch: func(ctx context.Context, url, formatID string, onProgress domain.ProgressCallback) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			onProgress(finished(""))
			return nil
		},
	}
	runner, store := newTestRunner(extractor, &domain.DownloadConfig{ConcurrentLimit: 2})

	for i := 0; i < 8; i++ {
		require.NoError(t, runner.Start(request(fmt.Sprintf("lim-%d", i))))
	}
	runner.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
	for i := 0; i < 8; i++ {
		assert.True(t, store.Get(fmt.Sprintf("lim-%d", i)).IsComplete())
	}
}

func TestJobRunner_Shutdown(t *testing.T) {
	started := make(chan struct{})
	extractor := &funcExtractor{
		fetch: func(ctx context.Context, url, formatID string, onProgress domain.ProgressCallback) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
	}
	runner, store := newTestRunner(extractor, nil)

	require.NoError(t, runner.Start(request("long")))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, runner.Shutdown(ctx))

	assert.Equal(t, context.Canceled.Error(), store.Get("long").Error)
	assert.True(t, errors.Is(runner.Start(request("late")), ErrRunnerStopped))
}

func TestSnapshotForEvent(t *testing.T) {
	s, ok := snapshotForEvent(downloading(50, 200))
	require.True(t, ok)
	assert.Equal(t, 25.0, s.Percent)
	assert.Equal(t, 512.0, s.Speed)
	assert.Equal(t, int64(7), s.ETA)

	_, ok = snapshotForEvent(downloading(50, 0))
	assert.False(t, ok)

	s, ok = snapshotForEvent(finished("a.m4a"))
	require.True(t, ok)
	assert.Equal(t, domain.CompletedSnapshot("a.m4a"), s)

	_, ok = snapshotForEvent(domain.ProgressEvent{Status: "postprocessing"})
	assert.False(t, ok)
}
