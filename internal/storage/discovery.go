package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindingsEnvVar names the environment variable that overrides findings
// discovery.
const FindingsEnvVar = "PROBE_FINDINGS"

// DiscoverFindings locates the findings to load when none are named on the
// command line.
//
// PROBE_FINDINGS wins when set. Otherwise outDir (relative to the working
// directory) is used if it holds at least one *_findings.json file.
// Parent directories are not searched.
func DiscoverFindings(outDir string) (string, error) {
	if path := os.Getenv(FindingsEnvVar); path != "" {
		return path, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(dir, outDir)
	}
	return discoverFindingsInDir(outDir)
}

// discoverFindingsInDir returns dir if it contains findings files.
func discoverFindingsInDir(dir string) (string, error) {
	if files := FindingsFiles(dir); len(files) > 0 {
		return dir, nil
	}
	return "", fmt.Errorf(
		"no *%s found in %s\n"+
			"  Run 'probe scan' to collect findings first\n"+
			"  Or use --findings to specify a file or directory explicitly",
		FindingsSuffix, dir)
}

// FindingsFiles lists the *_findings.json files in dir, sorted by name.
// A missing or unreadable directory yields nil.
func FindingsFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), FindingsSuffix) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files
}
