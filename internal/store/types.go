package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunConfig is the benchmark configuration as recorded with a run.
// It mirrors bench.Config to keep this package free of imports on it.
type RunConfig struct {
	Sizes      []int    `json:"sizes"`
	Variants   []string `json:"variants"`
	Iterations int      `json:"iterations"`
	Warmup     int      `json:"warmup"`
	Seed       int64    `json:"seed"`
	Pattern    string   `json:"pattern"`
	Density    float64  `json:"density,omitempty"`
}

// ResultRecord holds the timings of one (size, variant) cell of a run.
type ResultRecord struct {
	Size       int     `json:"size"`
	Variant    string  `json:"variant"`
	Iterations int     `json:"iterations"`
	MinNs      int64   `json:"minNs"`
	MeanNs     int64   `json:"meanNs"`
	MedianNs   int64   `json:"medianNs"`
	MaxNs      int64   `json:"maxNs"`
	NsPerCell  float64 `json:"nsPerCell"`
	Nodes      int     `json:"nodes"`
	Leaves     int     `json:"leaves"`
	Depth      int     `json:"depth"`
}

// Run is one persisted invocation of the benchmark driver.
type Run struct {
	// ID is a random UUID assigned by NewRun
	ID string `json:"id"`

	// Timestamp records when the run finished
	Timestamp time.Time `json:"timestamp"`

	// Backend is the vector backend active on the machine that ran it
	Backend string `json:"backend"`

	Config  RunConfig      `json:"config"`
	Results []ResultRecord `json:"results"`
}

// RunInfo is the listing view of a Run without the result table.
type RunInfo struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Backend   string    `json:"backend"`
	Sizes     []int     `json:"sizes"`
	Variants  []string  `json:"variants"`
	Results   int       `json:"results"`
}

// NewRun stamps results with a fresh ID and the current time.
func NewRun(config RunConfig, backend string, results []ResultRecord) *Run {
	return &Run{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Backend:   backend,
		Config:    config,
		Results:   results,
	}
}

// ToInfo converts a full Run to RunInfo.
func (r *Run) ToInfo() RunInfo {
	return RunInfo{
		ID:        r.ID,
		Timestamp: r.Timestamp,
		Backend:   r.Backend,
		Sizes:     r.Config.Sizes,
		Variants:  r.Config.Variants,
		Results:   len(r.Results),
	}
}

// Validate checks that the run is complete enough to be stored.
func (r *Run) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if _, err := uuid.Parse(r.ID); err != nil {
		return &ValidationError{Field: "ID", Reason: "must be a UUID"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if len(r.Config.Sizes) == 0 {
		return &ValidationError{Field: "Config.Sizes", Reason: "cannot be empty"}
	}
	if len(r.Config.Variants) == 0 {
		return &ValidationError{Field: "Config.Variants", Reason: "cannot be empty"}
	}
	if r.Config.Iterations <= 0 {
		return &ValidationError{Field: "Config.Iterations", Reason: "must be positive"}
	}
	if expected := len(r.Config.Sizes) * len(r.Config.Variants); len(r.Results) != expected {
		return &ValidationError{
			Field:  "Results",
			Reason: fmt.Sprintf("length mismatch: expected %d results for %d sizes x %d variants", expected, len(r.Config.Sizes), len(r.Config.Variants)),
		}
	}
	for i, res := range r.Results {
		if res.MinNs < 0 || res.MinNs > res.MaxNs {
			return &ValidationError{Field: fmt.Sprintf("Results[%d]", i), Reason: "min/max timings out of order"}
		}
	}
	return nil
}

// ValidationError represents a run validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
