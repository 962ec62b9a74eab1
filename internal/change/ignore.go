package change

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// loadIgnorePatterns merges the configured patterns with those from
// .gitignore and .worklogignore files found in the source repository.
func (e *Extractor) loadIgnorePatterns() []string {
	patterns := make([]string, len(e.IgnorePatterns))
	copy(patterns, e.IgnorePatterns)

	for _, name := range []string{".gitignore", ".worklogignore"} {
		extra, err := readPatternFile(filepath.Join(e.Repo, name))
		if err != nil {
			continue // absent or unreadable, not fatal
		}
		patterns = append(patterns, extra...)
	}
	return patterns
}

// isIgnored reports whether path matches any of the given glob patterns.
// Patterns are matched against the base name and the repo-relative path.
func isIgnored(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		pattern = strings.TrimSuffix(pattern, "/")
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
		// Directory pattern: ignore everything beneath it.
		if strings.HasPrefix(path, pattern+"/") {
			return true
		}
	}
	return false
}

// readPatternFile reads a gitignore-style file and returns non-empty,
// non-comment lines.
func readPatternFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}
