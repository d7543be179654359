package analysis

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"skincare-gateway/internal/inference"
	"skincare-gateway/internal/shared/metrics"
	"skincare-gateway/internal/shared/storage/object"
	"skincare-gateway/internal/shared/telemetry"
)

const (
	StatusIdle      = "idle"
	StatusLoading   = "loading"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// DefaultDwell is the minimum time between loading start and hand-off, so
// the loading affordance is perceivable even for near-instant responses.
const DefaultDwell = 500 * time.Millisecond

const defaultImageName = "upload.jpg"

// Orchestrator owns the analysis request lifecycle: it stores the submitted
// image, calls the inference service, normalizes the response, and hands the
// canonical result off to the results view after the minimum dwell.
//
// At most one submission is in flight at a time; a second Submit while one
// is loading returns ErrAnalysisInFlight.
type Orchestrator struct {
	Inference   inference.Client
	Images      object.ObjectStore // optional; retains submitted images
	Repo        Repo               // optional; analyses history
	Navigator   Navigator          // optional; receives the hand-off address
	ResultsPath string
	Dwell       time.Duration // zero means DefaultDwell

	mu     sync.Mutex
	status string
	done   chan struct{}
}

// Submit runs one image through the pipeline. On success it returns the
// hand-off address after the dwell has elapsed, having also invoked the
// Navigator. Teardown via Close, or ctx cancellation, during the dwell
// cancels the scheduled hand-off: the Navigator is never invoked.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (string, error) {
	if len(req.Image) == 0 && strings.TrimSpace(req.ImageURL) == "" {
		return "", ErrNoImage
	}
	if err := o.begin(); err != nil {
		return "", err
	}
	start := time.Now()
	metrics.IncAnalysisStarted()

	rec := Record{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Status:    StatusLoading,
		CreatedAt: time.Now().UTC(),
	}
	telemetry.Info("analysis.status", map[string]any{
		"analysis_id":       rec.ID,
		"user_id":           rec.UserID,
		"status":            StatusLoading,
		"status_transition": "idle->loading",
	})

	if o.Images != nil && len(req.Image) > 0 {
		name := req.FileName
		if strings.TrimSpace(name) == "" {
			name = defaultImageName
		}
		key, _, _, err := o.Images.Save(ctx, req.UserID, name, bytes.NewReader(req.Image))
		if err != nil {
			return "", o.fail(ctx, rec, false, fmt.Errorf("store image: %w", err))
		}
		rec.ImageKey = key
	}

	recorded := false
	if o.Repo != nil {
		if err := o.Repo.Create(ctx, rec); err != nil {
			return "", o.fail(ctx, rec, false, fmt.Errorf("create analysis record: %w", err))
		}
		recorded = true
	}

	raw, err := o.Inference.Analyze(ctx, inference.Input{
		FileName: req.FileName,
		Image:    req.Image,
		ImageURL: req.ImageURL,
		Age:      req.Age,
		Gender:   req.Gender,
	})
	if err != nil {
		return "", o.fail(ctx, rec, recorded, fmt.Errorf("inference: %w", err))
	}

	result := Normalize(raw)

	o.setStatus(StatusCompleted)
	completedAt := time.Now().UTC()
	if recorded {
		if err := o.Repo.UpdateStatus(ctx, rec.ID, StatusCompleted, &result, nil, &completedAt); err != nil {
			telemetry.Error("analysis.record", map[string]any{
				"analysis_id": rec.ID,
				"error":       err.Error(),
			})
		}
	}
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	telemetry.Info("analysis.status", map[string]any{
		"analysis_id":       rec.ID,
		"user_id":           rec.UserID,
		"status":            StatusCompleted,
		"status_transition": "loading->completed",
	})

	if err := o.waitDwell(ctx, start); err != nil {
		metrics.IncHandoffCancelled()
		telemetry.Info("analysis.handoff_cancelled", map[string]any{
			"analysis_id": rec.ID,
			"reason":      err.Error(),
		})
		return "", err
	}

	target, err := EncodeResultURL(o.ResultsPath, result)
	if err != nil {
		return "", err
	}
	if o.Navigator != nil {
		o.Navigator.Navigate(target)
	}
	return target, nil
}

// Status reports the current lifecycle state.
func (o *Orchestrator) Status() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status == "" {
		return StatusIdle
	}
	return o.status
}

// IsLoading reports whether a submission is in flight. This exposure is a
// hard contract for collaborators that gate resubmission.
func (o *Orchestrator) IsLoading() bool {
	return o.Status() == StatusLoading
}

// Close tears the orchestrator down. A hand-off still waiting on its dwell
// is cancelled and will not fire. Close is idempotent.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done == nil {
		o.done = make(chan struct{})
	}
	select {
	case <-o.done:
	default:
		close(o.done)
	}
}

func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done == nil {
		o.done = make(chan struct{})
	}
	select {
	case <-o.done:
		return ErrClosed
	default:
	}
	if o.status == StatusLoading {
		return ErrAnalysisInFlight
	}
	o.status = StatusLoading
	return nil
}

func (o *Orchestrator) setStatus(status string) {
	o.mu.Lock()
	o.status = status
	o.mu.Unlock()
}

// waitDwell blocks until the minimum dwell since start has elapsed, or until
// the orchestrator is closed or ctx is cancelled.
func (o *Orchestrator) waitDwell(ctx context.Context, start time.Time) error {
	dwell := o.Dwell
	if dwell <= 0 {
		dwell = DefaultDwell
	}
	remaining := dwell - time.Since(start)
	if remaining <= 0 {
		return nil
	}

	o.mu.Lock()
	done := o.done
	o.mu.Unlock()

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) fail(ctx context.Context, rec Record, recorded bool, err error) error {
	o.setStatus(StatusFailed)
	metrics.IncAnalysisFailed()
	telemetry.Error("analysis.failed", map[string]any{
		"analysis_id": rec.ID,
		"user_id":     rec.UserID,
		"error":       err.Error(),
	})
	if recorded {
		msg := err.Error()
		completedAt := time.Now().UTC()
		if updateErr := o.Repo.UpdateStatus(ctx, rec.ID, StatusFailed, nil, &msg, &completedAt); updateErr != nil {
			telemetry.Error("analysis.record", map[string]any{
				"analysis_id": rec.ID,
				"error":       updateErr.Error(),
			})
		}
	}
	return err
}
