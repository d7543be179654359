package analysis

import "time"

// Finding is a single detection returned by the inference service. Only the
// problem field is interpreted; every other field passes through untouched.
type Finding map[string]any

// UnknownProblem is substituted when a finding carries no problem label.
const UnknownProblem = "Unknown"

// Problem returns the finding's problem label, or UnknownProblem when the
// field is missing, empty, or not a string.
func (f Finding) Problem() string {
	if v, ok := f["problem"].(string); ok && v != "" {
		return v
	}
	return UnknownProblem
}

// Result is the canonical analysis result. Every field is always populated,
// so the value is safe to serialize and render regardless of how malformed
// the raw inference response was.
type Result struct {
	ImageURL          string    `json:"imageUrl"`
	Findings          []Finding `json:"results"`
	PredictedProblems []string  `json:"predictedProblems"`
	Recommendations   string    `json:"recommendations"`
}

// Request carries one image submission through the pipeline. It is created
// on submission and consumed exactly once.
type Request struct {
	UserID   string
	FileName string
	Image    []byte
	ImageURL string
	Age      string
	Gender   string
}

// Record is the persisted lifecycle of one analysis request.
type Record struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Status       string     `json:"status"`
	ImageKey     string     `json:"imageKey,omitempty"`
	Result       *Result    `json:"result,omitempty"`
	ErrorMessage *string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}
