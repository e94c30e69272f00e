// Package storage reads and writes findings and analysis results as JSON.
//
// Findings files hold either an array of findings or a single finding
// object. A findings directory is every *.json file in it, read in file
// name order.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/steveyegge/probe/internal/types"
)

// FindingsSuffix is appended to the environment name to form the file
// written by WriteFindings.
const FindingsSuffix = "_findings.json"

// FindingsFile returns the file name used for an environment's findings.
func FindingsFile(env string) string {
	return env + FindingsSuffix
}

// LoadFindings reads findings from a JSON file or from every *.json file in
// a directory.
func LoadFindings(path string) ([]types.Finding, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("findings path: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", path, err)
		}
		sort.Strings(files)
	}

	findings := []types.Finding{}
	for _, file := range files {
		batch, err := readFindingsFile(file)
		if err != nil {
			return nil, err
		}
		findings = append(findings, batch...)
	}
	return findings, nil
}

func readFindingsFile(path string) ([]types.Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var batch []types.Finding
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return batch, nil
	}

	var single types.Finding
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return []types.Finding{single}, nil
}

// LoadDossier loads findings and wraps them in a fresh Dossier.
// An empty target defaults to path; an empty env is taken from the first
// finding that carries one.
func LoadDossier(path, target, env string) (*types.Dossier, error) {
	findings, err := LoadFindings(path)
	if err != nil {
		return nil, err
	}

	if target == "" {
		target = path
	}
	if env == "" {
		for _, f := range findings {
			if f.Env != "" {
				env = f.Env
				break
			}
		}
	}

	d := types.NewDossier(target, env)
	d.Findings = findings
	return d, nil
}

// WriteFindings writes findings to <dir>/<env>_findings.json, creating dir
// if needed, and returns the file path.
func WriteFindings(dir, env string, findings []types.Finding) (string, error) {
	if strings.TrimSpace(env) == "" {
		return "", fmt.Errorf("environment is required")
	}
	if findings == nil {
		findings = []types.Finding{}
	}
	path := filepath.Join(dir, FindingsFile(env))
	if err := writeJSON(path, findings); err != nil {
		return "", err
	}
	return path, nil
}

// WriteResults writes analysis results as a JSON array.
func WriteResults(path string, results []*types.AnalysisResult) error {
	if results == nil {
		results = []*types.AnalysisResult{}
	}
	return writeJSON(path, results)
}

// LoadResults reads analysis results written by WriteResults.
func LoadResults(path string) ([]*types.AnalysisResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var results []*types.AnalysisResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, r := range results {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return results, nil
}

// writeJSON writes v as indented JSON through a temp file in the target
// directory, so readers never see a partial file.
func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
