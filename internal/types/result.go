package types

import (
	"fmt"
	"time"
)

// AnalysisResult is the output of one analyzer run. The shape of Data is
// specific to the analyzer that produced it.
type AnalysisResult struct {
	Analyzer   string         `json:"analyzer"`
	Timestamp  time.Time      `json:"timestamp"`
	Data       map[string]any `json:"data"`
	Summary    string         `json:"summary"`
	Confidence float64        `json:"confidence"`
}

// NewAnalysisResult constructs a validated result with confidence 1.0.
func NewAnalysisResult(analyzer string, data map[string]any, summary string) (*AnalysisResult, error) {
	return NewAnalysisResultWithConfidence(analyzer, data, summary, 1.0)
}

// NewAnalysisResultWithConfidence constructs a validated result.
func NewAnalysisResultWithConfidence(analyzer string, data map[string]any, summary string, confidence float64) (*AnalysisResult, error) {
	if data == nil {
		data = map[string]any{}
	}
	r := &AnalysisResult{
		Analyzer:   analyzer,
		Timestamp:  time.Now().UTC(),
		Data:       data,
		Summary:    summary,
		Confidence: confidence,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the field contract of the result.
func (r *AnalysisResult) Validate() error {
	if r.Analyzer == "" {
		return fmt.Errorf("analyzer is required")
	}
	if err := validateConfidence(r.Confidence); err != nil {
		return fmt.Errorf("analysis result %s: %w", r.Analyzer, err)
	}
	return nil
}
