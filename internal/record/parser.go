package record

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Parse recovers a Record from a rendered file by extracting the embedded
// base64 JSON payload from the sentinel comments.
func Parse(data []byte) (*Record, error) {
	content := string(data)

	if !strings.Contains(content, "<!-- worklog-record-version: 1 -->") {
		return nil, fmt.Errorf("not a valid worklog record: missing version sentinel")
	}

	const prefix = "<!-- worklog-data: "
	const suffix = " -->"
	start := strings.Index(content, prefix)
	if start == -1 {
		return nil, fmt.Errorf("not a valid worklog record: missing data payload")
	}
	start += len(prefix)
	end := strings.Index(content[start:], suffix)
	if end == -1 {
		return nil, fmt.Errorf("not a valid worklog record: malformed data payload")
	}
	encoded := content[start : start+end]

	jsonBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("not a valid worklog record: corrupted base64 payload: %w", err)
	}

	var r Record
	if err := json.Unmarshal(jsonBytes, &r); err != nil {
		return nil, fmt.Errorf("not a valid worklog record: failed to parse embedded JSON: %w", err)
	}
	return &r, nil
}
