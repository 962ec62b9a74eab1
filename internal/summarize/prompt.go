package summarize

import (
	"fmt"
	"strings"

	"github.com/fakeyudi/worklog/internal/change"
)

// systemInstruction is the fixed prompt contract. The response is scrubbed
// defensively in case the service violates it anyway.
const systemInstruction = "You summarize source code changes for a developer activity log. " +
	"Return only a bullet-point summary of the changes, one bullet per distinct change, " +
	"mentioning the file path each change belongs to. " +
	"No headers, no timestamps, no preamble, no closing remarks."

// bytesPerToken is the rough byte-to-token ratio used to keep the request
// under the configured token budget without a tokenizer dependency.
const bytesPerToken = 4

func estimateTokens(s string) int {
	return (len(s) + bytesPerToken - 1) / bytesPerToken
}

// promptSection is one path's contribution to the user content. The header
// always survives budgeting; only bodies are cut.
type promptSection struct {
	header string
	body   string
	cut    bool
}

// buildPrompt serializes the changeset into the user content, truncating the
// largest diff bodies first until the whole prompt fits tokenBudget. Every
// path stays present by name even when its detail is cut. The bool result
// reports whether any body was truncated here.
func buildPrompt(cs *change.Changeset, tokenBudget int) (string, bool) {
	sections := make([]promptSection, len(cs.Changes))
	for i, fc := range cs.Changes {
		sections[i] = promptSection{header: sectionHeader(fc), body: fc.Diff}
	}

	truncated := false
	for overBudget(sections, tokenBudget) {
		// Largest body first; ties resolve to the earliest path so the
		// result is deterministic.
		largest := -1
		for i := range sections {
			if len(sections[i].body) == 0 {
				continue
			}
			if largest < 0 || len(sections[i].body) > len(sections[largest].body) {
				largest = i
			}
		}
		if largest < 0 {
			break // only headers remain, nothing more to cut
		}

		excess := (totalTokens(sections) - tokenBudget) * bytesPerToken
		keep := len(sections[largest].body) - excess - len(change.TruncationMarker) - 1
		if keep < 0 {
			keep = 0
		}
		body := sections[largest].body[:keep]
		if i := strings.LastIndexByte(body, '\n'); i > 0 {
			body = body[:i]
		}
		if body != "" {
			body += "\n"
		}
		sections[largest].body = body + change.TruncationMarker
		sections[largest].cut = true
		truncated = true

		// A section reduced to the bare marker cannot shrink further; treat
		// it as body-less on the next pass.
		if sections[largest].body == change.TruncationMarker {
			sections[largest].header += " " + change.TruncationMarker
			sections[largest].body = ""
		}
	}

	var sb strings.Builder
	for _, s := range sections {
		sb.WriteString(s.header)
		sb.WriteString("\n")
		if s.body != "" {
			sb.WriteString("```diff\n")
			sb.WriteString(s.body)
			if !strings.HasSuffix(s.body, "\n") {
				sb.WriteString("\n")
			}
			sb.WriteString("```\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), truncated
}

func sectionHeader(fc change.FileChange) string {
	h := fmt.Sprintf("### %s (%s)", fc.Path, fc.Kind)
	if fc.Binary {
		h += " [binary]"
	}
	return h
}

func overBudget(sections []promptSection, tokenBudget int) bool {
	return totalTokens(sections) > tokenBudget
}

func totalTokens(sections []promptSection) int {
	total := estimateTokens(systemInstruction)
	for _, s := range sections {
		total += estimateTokens(s.header) + estimateTokens(s.body) + 4 // fencing overhead
	}
	return total
}
