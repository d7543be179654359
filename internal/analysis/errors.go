package analysis

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNoImage          = errors.New("no image provided")
	ErrAnalysisInFlight = errors.New("analysis already in flight")
	ErrClosed           = errors.New("orchestrator closed")
)
