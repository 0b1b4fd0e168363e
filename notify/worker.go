// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	errorPause          = time.Second
)

type WorkerPool struct {
	queue        *Queue
	handlers     map[string]Handler
	logger       *slog.Logger
	workerCount  int
	pollInterval time.Duration
	stop         chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func NewWorkerPool(queue *Queue, handlers map[string]Handler, logger *slog.Logger, workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{
		queue:        queue,
		handlers:     handlers,
		logger:       logger,
		workerCount:  workerCount,
		pollInterval: defaultPollInterval,
		stop:         make(chan struct{}),
	}
}

// SetPollInterval changes how long an idle worker waits before polling again.
// Call before Start.
func (p *WorkerPool) SetPollInterval(d time.Duration) {
	if d > 0 {
		p.pollInterval = d
	}
}

// Start launches the worker goroutines.
func (p *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop signals workers to stop and waits for them. Safe to call twice.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
}

// wait sleeps for d unless the pool is stopping.
func (p *WorkerPool) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-p.stop:
		return false
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			p.logger.Info("worker stopping", "id", id)
			return
		case <-ctx.Done():
			p.logger.Info("context canceled, worker exiting", "id", id)
			return
		default:
		}

		job, err := p.queue.FetchNext(ctx)
		if err != nil {
			p.logger.Error("fetch job", "error", err)
			if !p.wait(ctx, errorPause) {
				return
			}
			continue
		}
		if job == nil {
			if !p.wait(ctx, p.pollInterval) {
				return
			}
			continue
		}

		claimed, err := p.queue.Claim(ctx, job)
		if err != nil {
			p.logger.Error("claim job", "error", err, "job_id", job.ID)
			continue
		}
		if !claimed {
			continue
		}
		p.run(ctx, job)
	}
}

func (p *WorkerPool) run(ctx context.Context, job *Job) {
	// The outcome is written even when ctx was canceled mid-job, otherwise
	// the row would stay running.
	writeCtx := context.WithoutCancel(ctx)

	h, ok := p.handlers[job.Type]
	if !ok {
		job.Status = StatusFailed
		job.LastError = "no handler"
		if err := p.queue.MoveToDeadLetter(writeCtx, job); err != nil {
			p.logger.Error("move to dead letter", "error", err, "job_id", job.ID)
		}
		return
	}

	err := h(ctx, job)
	if err == nil {
		job.Status = StatusDone
		if upErr := p.queue.UpdateJob(writeCtx, job); upErr != nil {
			p.logger.Error("update job", "error", upErr, "job_id", job.ID)
		}
		return
	}

	if ctx.Err() != nil {
		// Shutting down: hand the job back without spending an attempt.
		job.Status = StatusQueued
		job.NextTryAt = nil
		p.logger.Info("job returned to queue on shutdown", "job_id", job.ID, "type", job.Type)
		if upErr := p.queue.UpdateJob(writeCtx, job); upErr != nil {
			p.logger.Error("requeue job", "error", upErr, "job_id", job.ID)
		}
		return
	}

	job.Attempts++
	job.LastError = err.Error()
	if job.Attempts >= job.MaxAttempts {
		job.Status = StatusFailed
		p.logger.Warn("job failed permanently", "job_id", job.ID, "type", job.Type, "error", err)
		if mvErr := p.queue.MoveToDeadLetter(writeCtx, job); mvErr != nil {
			p.logger.Error("move to dead letter", "error", mvErr, "job_id", job.ID)
		}
		return
	}

	next := p.queue.now().Add(BackoffDuration(job.Attempts))
	job.NextTryAt = &next
	job.Status = StatusRetry
	p.logger.Info("job scheduled for retry", "job_id", job.ID, "type", job.Type, "attempt", job.Attempts, "error", err)
	if upErr := p.queue.UpdateJob(writeCtx, job); upErr != nil {
		p.logger.Error("update job for retry", "error", upErr, "job_id", job.ID)
	}
}
