package types

import (
	"time"

	"github.com/google/uuid"
)

// Dossier is the complete evidence of one scan run.
//
// Findings are kept in arrival order. That order comes from parallel probes
// and varies between runs; only display code may depend on it.
type Dossier struct {
	ID        string    `json:"id,omitempty"`
	Target    string    `json:"target"`
	Env       string    `json:"env"`
	ScannedAt time.Time `json:"scanned_at"`
	Findings  []Finding `json:"findings"`
}

// NewDossier creates an empty dossier stamped with a fresh run ID and the
// current time.
func NewDossier(target, env string) *Dossier {
	return &Dossier{
		ID:        uuid.New().String(),
		Target:    target,
		Env:       env,
		ScannedAt: time.Now().UTC(),
		Findings:  []Finding{},
	}
}

// ByProbe returns the findings produced by the named probe.
func (d *Dossier) ByProbe(probe string) []Finding {
	var result []Finding
	for _, f := range d.Findings {
		if f.Probe == probe {
			result = append(result, f)
		}
	}
	return result
}

// ByFact returns the findings with the given fact type.
func (d *Dossier) ByFact(fact string) []Finding {
	var result []Finding
	for _, f := range d.Findings {
		if f.Fact == fact {
			result = append(result, f)
		}
	}
	return result
}

// ByTag returns the findings carrying the given tag.
func (d *Dossier) ByTag(tag string) []Finding {
	var result []Finding
	for _, f := range d.Findings {
		if f.HasTag(tag) {
			result = append(result, f)
		}
	}
	return result
}
