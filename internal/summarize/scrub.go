package summarize

import (
	"regexp"
	"strings"
)

// The prompt contract forbids headers and timestamps; these patterns strip
// them defensively when the service emits them anyway.
var (
	headerLine    = regexp.MustCompile(`^#{1,6}\s`)
	timestampLine = regexp.MustCompile(`^\[?\d{4}-\d{2}-\d{2}[ T]|^\[?\d{1,2}:\d{2}(:\d{2})?\b`)
)

// scrub normalizes the service's response into bare bullet lines: headers
// and timestamp lines are dropped, alternate bullet glyphs become "- ", and
// surrounding whitespace is trimmed. Returns "" when nothing survives.
func scrub(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if headerLine.MatchString(trimmed) || timestampLine.MatchString(trimmed) {
			continue
		}
		if after, ok := cutBullet(trimmed); ok {
			out = append(out, "- "+after)
			continue
		}
		if len(out) == 0 {
			// Leading prose before the first bullet is preamble; the
			// contract says there should be none.
			if strings.HasSuffix(trimmed, ":") {
				continue
			}
			out = append(out, "- "+trimmed)
			continue
		}
		// Continuation of the previous bullet.
		out = append(out, "  "+trimmed)
	}
	return strings.Join(out, "\n")
}

// cutBullet strips a leading bullet glyph, reporting whether one was found.
func cutBullet(line string) (string, bool) {
	for _, prefix := range []string{"- ", "* ", "• ", "– "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return line, false
}
