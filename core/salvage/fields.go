package salvage

import (
	"regexp"
	"strconv"
	"strings"
)

// Heuristic field recovery: an ordered list of parser strategies per field,
// combined first-success-wins with a fixed default. Each strategy returns
// (value, true) on a match; the combinator stops at the first hit.

// stringStrategy attempts to recover one string field from raw text.
type stringStrategy func(raw, label string) (string, bool)

// quotedLabelField matches `"label": "value"` with JSON-style escaping in
// the value.
func quotedLabelField(raw, label string) (string, bool) {
	re := regexp.MustCompile(`"` + regexp.QuoteMeta(label) + `"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return unescape(m[1]), true
}

// bareLabelField matches `label: "value"` where the label lost its quotes.
func bareLabelField(raw, label string) (string, bool) {
	re := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(label) + `\s*:\s*"?([^"\n]*)"?\s*,?\s*$`)
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	value := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[1]), ","))
	if value == "" {
		return "", false
	}
	return value, true
}

var stringStrategies = []stringStrategy{quotedLabelField, bareLabelField}

// extractString recovers a string field, falling back to a default when no
// strategy matches.
func extractString(raw, label, fallback string) string {
	for _, strategy := range stringStrategies {
		if v, ok := strategy(raw, label); ok {
			return v
		}
	}
	return fallback
}

// extractStringList recovers an array-shaped field: a label followed by a
// bracketed list of quoted strings.
func extractStringList(raw, label string, fallback []string) []string {
	re := regexp.MustCompile(`"` + regexp.QuoteMeta(label) + `"\s*:\s*\[([^\]]*)\]`)
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return fallback
	}
	items := quotedItem.FindAllStringSubmatch(m[1], -1)
	if len(items) == 0 {
		return fallback
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, unescape(item[1]))
	}
	return out
}

// quotedItem matches one quoted string inside an array body.
var quotedItem = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)

// extractInt recovers an integer field.
func extractInt(raw, label string, fallback int) int {
	re := regexp.MustCompile(`"` + regexp.QuoteMeta(label) + `"\s*:\s*"?(\d+)`)
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return fallback
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return fallback
	}
	return n
}

// citationObject matches one `{"reference": "...", "text": "..."}` object,
// tolerating either field order by matching reference then text within the
// same object body.
var citationObject = regexp.MustCompile(`\{[^{}]*\}`)

// extractCitations recovers a scriptures list from raw text by scanning
// object-shaped fragments for reference/text pairs.
func extractCitations(raw string, fallback []Citation) []Citation {
	var out []Citation
	for _, obj := range citationObject.FindAllString(raw, -1) {
		ref, okRef := quotedLabelField(obj, "reference")
		if !okRef {
			continue
		}
		text, _ := quotedLabelField(obj, "text")
		out = append(out, Citation{Reference: ref, Text: text})
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// unescape undoes the JSON escapes the strategies may have captured.
var escapeReplacer = strings.NewReplacer(
	`\"`, `"`,
	`\\`, `\`,
	`\n`, "\n",
	`\t`, "\t",
	`\r`, "\r",
)

func unescape(s string) string {
	return escapeReplacer.Replace(s)
}
