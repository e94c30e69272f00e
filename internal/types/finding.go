package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfidence is returned when a confidence lies outside [0,1].
var ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")

// Finding is one atomic observation emitted by a probe.
//
// A Finding is a value: once constructed it is never mutated. The meaning of
// Entity and the concrete type of Data depend on Fact.
type Finding struct {
	Probe      string    `json:"probe"`
	Env        string    `json:"env"`
	Entity     string    `json:"entity"`
	Fact       string    `json:"fact"`
	Data       Payload   `json:"data"`
	Timestamp  time.Time `json:"ts"`
	Location   string    `json:"location,omitempty"` // "path:line", evidence only
	Confidence float64   `json:"confidence"`
	Tags       []string  `json:"tags"`
}

// FindingOption customizes a Finding built by NewFinding.
type FindingOption func(*Finding)

// WithLocation sets the source pointer of the finding.
func WithLocation(location string) FindingOption {
	return func(f *Finding) { f.Location = location }
}

// WithConfidence sets the confidence score (0.0-1.0).
func WithConfidence(confidence float64) FindingOption {
	return func(f *Finding) { f.Confidence = confidence }
}

// WithTags appends labels to the finding.
func WithTags(tags ...string) FindingOption {
	return func(f *Finding) { f.Tags = append(f.Tags, tags...) }
}

// WithTimestamp overrides the creation time.
func WithTimestamp(ts time.Time) FindingOption {
	return func(f *Finding) { f.Timestamp = ts }
}

// NewFinding constructs and validates a Finding. Confidence defaults to 1.0
// and the timestamp to the current time.
func NewFinding(probe, env, entity, fact string, data Payload, opts ...FindingOption) (Finding, error) {
	f := Finding{
		Probe:      probe,
		Env:        env,
		Entity:     entity,
		Fact:       fact,
		Data:       data,
		Timestamp:  time.Now().UTC(),
		Confidence: 1.0,
		Tags:       []string{},
	}
	for _, opt := range opts {
		opt(&f)
	}
	if f.Data == nil {
		f.Data = Opaque{}
	}
	if err := f.Validate(); err != nil {
		return Finding{}, err
	}
	return f, nil
}

// Validate checks the field contract of the finding.
func (f Finding) Validate() error {
	if err := validateConfidence(f.Confidence); err != nil {
		return fmt.Errorf("finding %s/%s %q: %w", f.Probe, f.Fact, f.Entity, err)
	}
	return nil
}

// HasTag reports whether the finding carries the given label.
func (f Finding) HasTag(tag string) bool {
	for _, t := range f.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// findingJSON mirrors Finding with raw data and optional defaults.
type findingJSON struct {
	Probe      string          `json:"probe"`
	Env        string          `json:"env"`
	Entity     string          `json:"entity"`
	Fact       string          `json:"fact"`
	Data       json.RawMessage `json:"data"`
	Timestamp  *time.Time      `json:"ts"`
	Location   *string         `json:"location"`
	Confidence *float64        `json:"confidence"`
	Tags       []string        `json:"tags"`
}

// UnmarshalJSON decodes a finding, resolving Data by fact type, applying the
// same defaults as NewFinding and validating the result.
func (f *Finding) UnmarshalJSON(b []byte) error {
	var raw findingJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	data, err := decodePayload(raw.Fact, raw.Data)
	if err != nil {
		return err
	}

	out := Finding{
		Probe:      raw.Probe,
		Env:        raw.Env,
		Entity:     raw.Entity,
		Fact:       raw.Fact,
		Data:       data,
		Timestamp:  time.Now().UTC(),
		Confidence: 1.0,
		Tags:       raw.Tags,
	}
	if raw.Timestamp != nil {
		out.Timestamp = *raw.Timestamp
	}
	if raw.Location != nil {
		out.Location = *raw.Location
	}
	if raw.Confidence != nil {
		out.Confidence = *raw.Confidence
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}

	if err := out.Validate(); err != nil {
		return err
	}
	*f = out
	return nil
}

func validateConfidence(c float64) error {
	// NaN fails both comparisons, so it is rejected too.
	if !(c >= 0 && c <= 1) {
		return fmt.Errorf("%w (got %v)", ErrInvalidConfidence, c)
	}
	return nil
}
