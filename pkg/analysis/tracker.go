package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultPollInterval = 2500 * time.Millisecond
	DefaultPollTimeout  = 5 * time.Minute
)

// Snapshot is the observable state of a job.
type Snapshot struct {
	ID          string          `json:"id,omitempty"`
	Kind        Kind            `json:"kind"`
	Phase       Phase           `json:"phase"`
	Progress    int             `json:"progress"`
	Stage       string          `json:"stage,omitempty"`
	Message     string          `json:"message,omitempty"`
	Error       string          `json:"error,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	LastUpdated time.Time       `json:"last_updated"`
}

// CaptureFunc produces the image data URL to upload.
type CaptureFunc func(ctx context.Context) (string, error)

// Listener receives every state change. It is called with the tracker locked and must not call back into it.
type Listener func(Snapshot)

type TrackerConfig struct {
	PollInterval time.Duration
	PollTimeout  time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Tracker drives one analysis kind through capture, upload and polling.
// At most one job is alive per tracker; starting a new one aborts the previous.
type Tracker struct {
	client   Client
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	listener Listener

	mu     sync.Mutex
	snap   Snapshot
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTracker(client Client, cfg TrackerConfig, listener Listener) *Tracker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	t := &Tracker{
		client:   client,
		interval: cfg.PollInterval,
		timeout:  cfg.PollTimeout,
		now:      cfg.Now,
		listener: listener,
	}
	t.snap = Snapshot{Kind: client.Kind(), Phase: PhaseIdle, LastUpdated: t.now()}
	return t
}

func (t *Tracker) Kind() Kind { return t.client.Kind() }

func (t *Tracker) Client() Client { return t.client }

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copyLocked()
}

// Run discards the current job and starts a new one from capture.
// Configuration problems fail the job before capture is attempted. ctx bounds the whole job
// and should outlive the caller's request.
func (t *Tracker) Run(ctx context.Context, capture CaptureFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	if err := t.client.Configured(); err != nil {
		t.resetLocked(PhaseError)
		t.snap.Error = err.Error()
		t.notifyLocked()
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	gen := t.gen

	t.resetLocked(PhaseCapturing)
	t.snap.Message = "Capturing selection"
	t.notifyLocked()

	t.wg.Add(1)
	go t.run(runCtx, gen, capture)
}

// Fail aborts any current job and records err without contacting the service.
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.resetLocked(PhaseError)
	t.snap.Error = err.Error()
	t.notifyLocked()
}

// Clear stops polling and returns to idle, discarding the job id and result.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.resetLocked(PhaseIdle)
	t.notifyLocked()
}

// CancelPending returns to idle only when the job has not been handed to the service yet.
// Jobs that have an id, or have finished, are left alone.
func (t *Tracker) CancelPending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending := t.snap.Phase == PhaseCapturing || (t.snap.Phase == PhaseQueued && t.snap.ID == "")
	if !pending {
		return false
	}
	t.stopLocked()
	t.resetLocked(PhaseIdle)
	t.notifyLocked()
	return true
}

// Close aborts outstanding work and waits for the job goroutine to exit. The last state is kept.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.stopLocked()
	t.mu.Unlock()

	t.wg.Wait()
}

// Wait blocks until the current job goroutine has exited.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

func (t *Tracker) run(ctx context.Context, gen uint64, capture CaptureFunc) {
	defer t.wg.Done()

	image, err := capture(ctx)
	if err != nil {
		t.fail(ctx, gen, fmt.Errorf("%w: %w", ErrCapture, err))
		return
	}

	if !t.update(gen, func(s *Snapshot) {
		s.Phase = PhaseQueued
		s.Message = "Uploading image"
	}) {
		return
	}

	started, err := t.client.Start(ctx, image)
	if err != nil {
		t.fail(ctx, gen, err)
		return
	}

	if started.Inline() {
		t.update(gen, func(s *Snapshot) {
			s.ID = started.JobID
			s.Phase = PhaseCompleted
			s.Progress = 100
			s.Message = ""
			s.Result = started.Result
		})
		return
	}

	if !t.update(gen, func(s *Snapshot) {
		s.ID = started.JobID
		s.Phase = PhaseQueued
		if started.Status == StatusProcessing {
			s.Phase = PhaseProcessing
		}
		if started.Message != "" {
			s.Message = started.Message
		}
	}) {
		return
	}

	t.poll(ctx, gen, started.JobID)
}

// poll issues one request per interval, never overlapping, until the job ends or the ceiling passes.
func (t *Tracker) poll(ctx context.Context, gen uint64, jobID string) {
	timer := time.NewTimer(t.interval)
	defer timer.Stop()

	var (
		first    time.Time
		pollCtx  = ctx
		deadline <-chan struct{}
	)
	timedOut := func() {
		t.fail(ctx, gen, fmt.Errorf("%w: no result after %s", ErrTimeout, t.timeout))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			timedOut()
			return
		case <-timer.C:
		}

		if first.IsZero() {
			first = t.now()
			// A hung poll must not outlive the ceiling.
			var cancel context.CancelFunc
			pollCtx, cancel = context.WithTimeout(ctx, t.timeout)
			defer cancel()
			deadline = pollCtx.Done()
		}

		resp, err := t.client.Poll(pollCtx, jobID)
		if err != nil {
			if ctx.Err() == nil && errors.Is(pollCtx.Err(), context.DeadlineExceeded) {
				timedOut()
				return
			}
			t.fail(ctx, gen, err)
			return
		}

		terminal, current := t.apply(gen, resp)
		if !current || terminal {
			return
		}

		if elapsed := t.now().Sub(first); elapsed >= t.timeout {
			timedOut()
			return
		}

		timer.Reset(t.interval)
	}
}

// apply merges a poll response into the current job. current is false when the job was replaced.
func (t *Tracker) apply(gen uint64, resp *PollResponse) (terminal bool, current bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen || t.snap.Phase.Terminal() {
		return false, false
	}

	s := &t.snap
	if resp.Stage != nil {
		s.Stage = *resp.Stage
	}
	if resp.Message != nil && *resp.Message != "" {
		s.Message = *resp.Message
	}
	if resp.HasResult() {
		s.Result = append(json.RawMessage(nil), resp.Result...)
	}

	switch resp.Status {
	case StatusCompleted:
		s.Phase = PhaseCompleted
		s.Progress = 100
		s.Error = ""
		terminal = true
	case StatusFailed:
		s.Phase = PhaseError
		s.Error = firstNonEmpty(deref(resp.Error), deref(resp.Message), ErrRemoteFailure.Error())
		terminal = true
	default:
		s.Phase = PhaseProcessing
		if resp.Progress != nil {
			if p := NormalizeProgress(*resp.Progress); p > s.Progress {
				s.Progress = p
			}
		}
	}

	s.LastUpdated = t.now()
	t.notifyLocked()
	return terminal, true
}

func (t *Tracker) update(gen uint64, fn func(*Snapshot)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen {
		return false
	}
	fn(&t.snap)
	t.snap.LastUpdated = t.now()
	t.notifyLocked()
	return true
}

// fail moves the job to error unless the failure is the job's own cancellation.
func (t *Tracker) fail(ctx context.Context, gen uint64, err error) {
	if IsCancelled(err) || ctx.Err() != nil {
		return
	}
	t.update(gen, func(s *Snapshot) {
		s.Phase = PhaseError
		s.Error = err.Error()
	})
}

// stopLocked aborts the running job and invalidates any response still in flight.
func (t *Tracker) stopLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.gen++
}

func (t *Tracker) resetLocked(phase Phase) {
	t.snap = Snapshot{Kind: t.client.Kind(), Phase: phase, LastUpdated: t.now()}
}

func (t *Tracker) copyLocked() Snapshot {
	s := t.snap
	if s.Result != nil {
		s.Result = append(json.RawMessage(nil), s.Result...)
	}
	return s
}

func (t *Tracker) notifyLocked() {
	if t.listener != nil {
		t.listener(t.copyLocked())
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
