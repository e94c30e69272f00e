package sdk

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// SourceFile is one source file loaded for scanning.
type SourceFile struct {
	Path    string // Absolute or caller-relative path on disk
	Rel     string // Slash-separated path relative to the scan root
	Class   string // File name without extension (the Java top-level class)
	Content string
}

// Location formats an evidence pointer "rel:line" for this file.
func (f SourceFile) Location(line int) string {
	return fmt.Sprintf("%s:%d", f.Rel, line)
}

// PatternOptions configures which files LoadSources picks up.
type PatternOptions struct {
	// Extension of files to load, including the dot (e.g. ".java")
	Extension string

	// ExcludeDirs specifies directory names to skip
	ExcludeDirs []string
}

// DefaultPatternOptions returns options for scanning Java test sources.
func DefaultPatternOptions() PatternOptions {
	return PatternOptions{
		Extension:   ".java",
		ExcludeDirs: []string{"vendor", ".git", "node_modules", "target", "build"},
	}
}

// LoadSources reads every matching file under root, sorted by relative path.
// A root that is itself a file is loaded as a single source.
//
// Example:
//
//	files, err := sdk.LoadSources(ctx, "./src/test/java", sdk.DefaultPatternOptions())
func LoadSources(ctx context.Context, root string, opts PatternOptions) ([]SourceFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan target: %w", err)
	}

	if !info.IsDir() {
		src, err := readSource(root, filepath.Base(root))
		if err != nil {
			return nil, err
		}
		return []SourceFile{src}, nil
	}

	var files []SourceFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && isExcluded(d.Name(), opts.ExcludeDirs) {
				return filepath.SkipDir
			}
			return nil
		}

		if opts.Extension != "" && filepath.Ext(path) != opts.Extension {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		src, err := readSource(path, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		files = append(files, src)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Rel < files[j].Rel })
	return files, nil
}

func readSource(path, rel string) (SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SourceFile{}, fmt.Errorf("reading %s: %w", rel, err)
	}
	base := filepath.Base(path)
	return SourceFile{
		Path:    path,
		Rel:     rel,
		Class:   strings.TrimSuffix(base, filepath.Ext(base)),
		Content: string(data),
	}, nil
}

func isExcluded(name string, excludes []string) bool {
	for _, exclude := range excludes {
		if name == exclude {
			return true
		}
	}
	return false
}

// PatternMatch represents a regex match inside a source file.
type PatternMatch struct {
	Offset int      // Byte offset of the match start
	Line   int      // Line number (1-indexed)
	Text   string   // Matched text
	Groups []string // Submatches; Groups[0] is the first capture group
}

// FindPattern returns every non-overlapping match of re in the file.
func FindPattern(src SourceFile, re *regexp.Regexp) []PatternMatch {
	var matches []PatternMatch
	for _, loc := range re.FindAllStringSubmatchIndex(src.Content, -1) {
		m := PatternMatch{
			Offset: loc[0],
			Line:   LineAt(src.Content, loc[0]),
			Text:   src.Content[loc[0]:loc[1]],
		}
		for g := 2; g+1 < len(loc); g += 2 {
			if loc[g] < 0 {
				m.Groups = append(m.Groups, "")
				continue
			}
			m.Groups = append(m.Groups, src.Content[loc[g]:loc[g+1]])
		}
		matches = append(matches, m)
	}
	return matches
}

// LineAt returns the 1-indexed line containing the byte offset.
func LineAt(content string, offset int) int {
	if offset > len(content) {
		offset = len(content)
	}
	return strings.Count(content[:offset], "\n") + 1
}

// MatchBalanced returns the index of the bracket closing the one at open.
// Literals and comments are skipped. ok is false when open is not a
// bracket or the input ends first.
func MatchBalanced(s string, open int) (end int, ok bool) {
	if open < 0 || open >= len(s) {
		return 0, false
	}
	var closer byte
	switch s[open] {
	case '(':
		closer = ')'
	case '{':
		closer = '}'
	case '[':
		closer = ']'
	default:
		return 0, false
	}
	opener := s[open]

	depth := 0
	for i := open; i < len(s); i++ {
		if j, skipped := skipNonCode(s, i); skipped {
			i = j
			continue
		}
		switch s[i] {
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// skipNonCode reports whether a literal or comment starts at i and, if so,
// returns the index of its last byte.
func skipNonCode(s string, i int) (int, bool) {
	switch {
	case s[i] == '"' || s[i] == '\'':
		return skipLiteral(s, i), true
	case strings.HasPrefix(s[i:], "//"):
		if nl := strings.IndexByte(s[i:], '\n'); nl >= 0 {
			return i + nl, true
		}
		return len(s) - 1, true
	case strings.HasPrefix(s[i:], "/*"):
		if end := strings.Index(s[i+2:], "*/"); end >= 0 {
			return i + 2 + end + 1, true
		}
		return len(s) - 1, true
	}
	return i, false
}

// skipLiteral returns the index of the quote closing the literal at i.
func skipLiteral(s string, i int) int {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			return j
		}
	}
	return len(s) - 1
}

// SplitArgs splits a call's argument text on top-level commas.
func SplitArgs(s string) []string {
	return SplitTopLevel(s, ',')
}

// SplitTopLevel splits s on sep wherever sep is outside brackets, literals
// and comments. Parts are trimmed.
func SplitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		if j, skipped := skipNonCode(s, i); skipped {
			i = j
			continue
		}
		switch s[i] {
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" || len(parts) > 0 {
		parts = append(parts, last)
	}
	return parts
}

// StringLiteral unquotes a Java string literal. ok is false when expr is
// anything else.
func StringLiteral(expr string) (string, bool) {
	expr = strings.TrimSpace(expr)
	if len(expr) < 2 || expr[0] != '"' || expr[len(expr)-1] != '"' {
		return "", false
	}
	if skipLiteral(expr, 0) != len(expr)-1 {
		return "", false // "a" + "b"
	}
	return expr[1 : len(expr)-1], true
}

// CallArgs returns the argument text of the call whose "(" is at open.
func CallArgs(s string, open int) (string, bool) {
	end, ok := MatchBalanced(s, open)
	if !ok {
		return "", false
	}
	return s[open+1 : end], true
}
