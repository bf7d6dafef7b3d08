// Package salvage turns raw generative-model output into typed content
// objects. The pipeline never returns an error to its caller: strict
// parsing, sanitized parsing, and heuristic field extraction are attempted
// in order, and the final stage always succeeds by construction because
// every field has a documented default.
package salvage

import (
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonrepair"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// extractDelimited slices the raw text between the first '{' and the last
// '}'. When no matching pair exists the slice is empty, which fails strict
// parsing and pushes the pipeline onward.
func extractDelimited(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}

// decodeStrict attempts direct structured decoding of the slice.
func decodeStrict(slice string, v any) error {
	return json.UnmarshalFromString(slice, v)
}

// controlChars matches control characters outside the allowed whitespace
// set (newline, carriage return, tab).
var controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)

// sanitize strips disallowed control characters. Escape-level problems
// (stray escaped quotes, unescaped newlines inside strings) are left for
// the repair step, which handles them structurally.
func sanitize(slice string) string {
	return controlChars.ReplaceAllString(slice, "")
}

// decodeSanitized sanitizes the slice, repairs it, and retries structured
// decoding.
func decodeSanitized(slice string, v any) error {
	cleaned := sanitize(slice)
	if err := json.UnmarshalFromString(cleaned, v); err == nil {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return err
	}
	return json.UnmarshalFromString(repaired, v)
}

// quota/billing rejections are recognized by message content; anything
// else upstream is treated as generic connectivity failure.
var quotaMarkers = []string{
	"quota",
	"billing",
	"insufficient_quota",
	"rate limit",
	"429",
	"payment",
}

// isQuotaError reports whether an upstream error message indicates a quota
// or billing condition rather than connectivity failure.
func isQuotaError(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range quotaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
