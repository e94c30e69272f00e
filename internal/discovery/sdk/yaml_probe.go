package sdk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/probe/internal/types"
)

// YAMLProbe is a probe defined in YAML. It emits one finding per regex
// match, which covers simple project-specific conventions without Go code.
//
// Example YAML file (feature-flags.yaml):
//
//	name: feature-flags
//	env: test
//	extension: .java
//	patterns:
//	  - regex: 'FeatureFlags\.enable\(\s*"([^"]+)"'
//	    fact: feature_flag
//	    entity: "flag:$1"
//	    confidence: 0.8
//	    tags: [config, feature-flag]
type YAMLProbe struct {
	config   YAMLProbeConfig
	patterns []*regexp.Regexp
}

// YAMLProbeConfig defines the YAML probe configuration structure.
type YAMLProbeConfig struct {
	Name        string         `yaml:"name"`
	Env         string         `yaml:"env"`
	Extension   string         `yaml:"extension,omitempty"`
	ExcludeDirs []string       `yaml:"exclude_dirs,omitempty"`
	Patterns    []PatternCheck `yaml:"patterns"`
}

// PatternCheck defines a regex whose matches become findings.
type PatternCheck struct {
	Regex string `yaml:"regex"`
	Fact  string `yaml:"fact"`

	// Entity template; $1..$9 expand to capture groups
	Entity     string   `yaml:"entity"`
	Confidence float64  `yaml:"confidence,omitempty"`
	Tags       []string `yaml:"tags,omitempty"`
}

// LoadYAMLProbe loads a probe definition from a YAML file.
func LoadYAMLProbe(path string) (*YAMLProbe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading YAML file: %w", err)
	}

	var config YAMLProbeConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	probe, err := NewYAMLProbe(config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return probe, nil
}

// NewYAMLProbe validates a configuration and compiles its patterns.
func NewYAMLProbe(config YAMLProbeConfig) (*YAMLProbe, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("probe name is required")
	}
	if config.Env == "" {
		return nil, fmt.Errorf("probe env is required")
	}
	if len(config.Patterns) == 0 {
		return nil, fmt.Errorf("at least one pattern is required")
	}

	probe := &YAMLProbe{config: config}
	for i, check := range config.Patterns {
		if check.Regex == "" {
			return nil, fmt.Errorf("pattern %d: regex is required", i)
		}
		if check.Fact == "" {
			return nil, fmt.Errorf("pattern %d: fact is required", i)
		}
		if check.Entity == "" {
			return nil, fmt.Errorf("pattern %d: entity is required", i)
		}
		if check.Confidence < 0 || check.Confidence > 1 {
			return nil, fmt.Errorf("pattern %d: %w", i, types.ErrInvalidConfidence)
		}
		re, err := regexp.Compile(check.Regex)
		if err != nil {
			return nil, fmt.Errorf("pattern %d: invalid regex: %w", i, err)
		}
		probe.patterns = append(probe.patterns, re)
	}
	return probe, nil
}

// Name implements discovery.Probe.
func (p *YAMLProbe) Name() string {
	return p.config.Name
}

// Env implements discovery.Probe.
func (p *YAMLProbe) Env() string {
	return p.config.Env
}

// Scan implements discovery.Probe.
func (p *YAMLProbe) Scan(ctx context.Context, target string) ([]types.Finding, error) {
	opts := DefaultPatternOptions()
	if p.config.Extension != "" {
		opts.Extension = p.config.Extension
	}
	if len(p.config.ExcludeDirs) > 0 {
		opts.ExcludeDirs = p.config.ExcludeDirs
	}

	files, err := LoadSources(ctx, target, opts)
	if err != nil {
		return nil, err
	}

	set := NewFindingSet(p.Name(), p.Env())
	for _, src := range files {
		for i, check := range p.config.Patterns {
			confidence := check.Confidence
			if confidence == 0 {
				confidence = 0.8
			}
			for _, m := range FindPattern(src, p.patterns[i]) {
				set.Add(expandEntity(check.Entity, m.Groups), check.Fact,
					types.Opaque{"match": m.Text, "groups": m.Groups, "file": src.Rel},
					types.WithLocation(src.Location(m.Line)),
					types.WithConfidence(confidence),
					types.WithTags(check.Tags...))
			}
		}
	}
	return set.Build()
}

// expandEntity substitutes $1..$9 with capture groups.
func expandEntity(template string, groups []string) string {
	out := template
	for i := len(groups); i >= 1; i-- {
		if i > 9 {
			continue
		}
		out = strings.ReplaceAll(out, fmt.Sprintf("$%d", i), groups[i-1])
	}
	return out
}

// LoadYAMLProbesFromDir loads all YAML probes from a directory, sorted by
// file name. A missing directory yields no probes.
func LoadYAMLProbesFromDir(dir string) ([]*YAMLProbe, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var probes []*YAMLProbe
	for _, name := range names {
		probe, err := LoadYAMLProbe(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		probes = append(probes, probe)
	}
	return probes, nil
}
