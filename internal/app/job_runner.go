package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/ytgrab-go/internal/domain"
)

// ErrRunnerStopped is returned by Start after Shutdown has been called
var ErrRunnerStopped = errors.New("job runner stopped")

// JobRunner runs one background download per request and records its
// progress in a ProgressStore. Jobs cannot be cancelled individually.
type JobRunner struct {
	extractor domain.Extractor
	store     *ProgressStore
	notifier  domain.Notifier
	config    *domain.DownloadConfig
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	sem    chan struct{} // nil when concurrency is unbounded

	mu     sync.Mutex
	active map[string]int // in-flight jobs per identifier
	wg     sync.WaitGroup
}

// NewJobRunner creates a new job runner
func NewJobRunner(
	extractor domain.Extractor,
	store *ProgressStore,
	notifier domain.Notifier,
	config *domain.DownloadConfig,
	logger *zap.Logger,
) *JobRunner {
	if config == nil {
		config = &domain.DownloadConfig{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var sem chan struct{}
	if config.ConcurrentLimit > 0 {
		sem = make(chan struct{}, config.ConcurrentLimit)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &JobRunner{
		extractor: extractor,
		store:     store,
		notifier:  notifier,
		config:    config,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		sem:       sem,
		active:    make(map[string]int),
	}
}

// Start validates req and launches the download in the background.
// It returns as soon as the job has been spawned.
func (r *JobRunner) Start(req domain.JobRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if r.ctx.Err() != nil {
		return ErrRunnerStopped
	}

	r.mu.Lock()
	if r.config.RejectDuplicateIDs && r.active[req.JobID] > 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrJobInProgress, req.JobID)
	}
	r.active[req.JobID]++
	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(req)
	return nil
}

// ActiveJobs returns the number of jobs that have not finished yet
func (r *JobRunner) ActiveJobs() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, c := range r.active {
		n += c
	}
	return n
}

// IsActive reports whether a job with the given identifier is running
func (r *JobRunner) IsActive(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[jobID] > 0
}

// Wait blocks until every started job has finished
func (r *JobRunner) Wait() {
	r.wg.Wait()
}

// Shutdown stops running downloads and waits for their tasks to exit,
// giving up when ctx expires.
func (r *JobRunner) Shutdown(ctx context.Context) error {
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *JobRunner) run(req domain.JobRequest) {
	defer r.wg.Done()
	defer r.release(req.JobID)
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic: %v", p)
			r.logger.Error("Download job panicked",
				zap.String("job_id", req.JobID),
				zap.Any("panic", p))
			r.fail(req, err)
		}
	}()

	if r.sem != nil {
		select {
		case r.sem <- struct{}{}:
			defer func() { <-r.sem }()
		case <-r.ctx.Done():
			r.fail(req, r.ctx.Err())
			return
		}
	}

	r.logger.Info("job_started",
		zap.String("job_id", req.JobID),
		zap.String("url", req.URL),
		zap.String("format_id", req.FormatID))

	if err := r.extractor.Fetch(r.ctx, req.URL, req.FormatID, r.progressCallback(req.JobID)); err != nil {
		r.fail(req, err)
		return
	}

	r.logger.Info("job_completed",
		zap.String("job_id", req.JobID),
		zap.String("filename", r.store.Get(req.JobID).Filename))

	if r.notifier != nil {
		r.notifier.NotifyDownloadCompleted(req.JobID, req.URL)
	}
}

func (r *JobRunner) fail(req domain.JobRequest, err error) {
	r.store.Update(req.JobID, domain.FailedSnapshot(err.Error()))

	r.logger.Warn("job_failed",
		zap.String("job_id", req.JobID),
		zap.String("url", req.URL),
		zap.Error(err))

	if r.notifier != nil {
		r.notifier.NotifyDownloadFailed(req.JobID, req.URL, err)
	}
}

func (r *JobRunner) release(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.active[jobID]--
	if r.active[jobID] <= 0 {
		delete(r.active, jobID)
	}
}

func (r *JobRunner) progressCallback(jobID string) domain.ProgressCallback {
	return func(event domain.ProgressEvent) {
		if snapshot, ok := snapshotForEvent(event); ok {
			r.store.Update(jobID, snapshot)
		}
	}
}

// snapshotForEvent translates a raw progress event. Downloading events
// with an unknown total leave the stored snapshot untouched.
func snapshotForEvent(event domain.ProgressEvent) (domain.Snapshot, bool) {
	switch event.Status {
	case domain.ProgressDownloading:
		total := event.Total()
		if total <= 0 {
			return domain.Snapshot{}, false
		}
		percent := event.DownloadedBytes / total * 100
		return domain.DownloadingSnapshot(percent, event.Speed, int64(event.ETA)), true
	case domain.ProgressFinished:
		return domain.CompletedSnapshot(event.Filename), true
	default:
		return domain.Snapshot{}, false
	}
}
