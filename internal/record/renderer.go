package record

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Render serializes a Record as human-readable Markdown with an embedded
// base64 JSON payload for lossless round-trip parsing.
func Render(r *Record) ([]byte, error) {
	jsonBytes, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonBytes)

	var sb strings.Builder

	// Sentinel and embedded payload.
	sb.WriteString("<!-- worklog-record-version: 1 -->\n")
	fmt.Fprintf(&sb, "<!-- worklog-data: %s -->\n\n", encoded)

	// Title.
	fmt.Fprintf(&sb, "# Worklog — %s — %s\n\n",
		r.SourceRepo,
		r.Timestamp.Format("2006-01-02 15:04:05 MST"),
	)

	fmt.Fprintf(&sb, "- Session: %s\n", r.ID)
	fmt.Fprintf(&sb, "- Files changed: %d\n", len(r.Entries))
	fmt.Fprintf(&sb, "- Diff size: %s\n", humanize.Bytes(uint64(r.DiffBytes)))
	fmt.Fprintf(&sb, "- Tokens: %d in / %d out\n", r.InputTokens, r.OutputTokens)
	if r.Truncated {
		sb.WriteString("- Note: changeset was truncated to fit request limits\n")
	}
	sb.WriteString("\n")

	// ## Changes
	sb.WriteString("## Changes\n\n")
	if len(r.Entries) == 0 {
		sb.WriteString("_No changes recorded._\n")
	} else {
		for i, e := range r.Entries {
			fmt.Fprintf(&sb, "%d. `%s` (%s)\n", i+1, e.Path, e.Kind)
			if len(e.Bullets) == 0 {
				sb.WriteString("   - _no per-file summary_\n")
			}
			for _, b := range e.Bullets {
				fmt.Fprintf(&sb, "   - %s\n", b)
			}
		}
	}
	sb.WriteString("\n")

	// ## Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString(r.Summary)
	if !strings.HasSuffix(r.Summary, "\n") {
		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}
