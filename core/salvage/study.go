package salvage

// Study is the structured result of generating a topical study. Like
// Answer, the status fields are always present and meaningful.
type Study struct {
	Title               string     `json:"title"`
	Context             string     `json:"context"`
	Scriptures          []Citation `json:"scriptures"`
	Application         string     `json:"application"`
	ReflectionQuestions []string   `json:"reflectionQuestions"`
	ReadTimeMinutes     int        `json:"readTimeMinutes"`
	IsAPIError          bool       `json:"isApiError"`
	CannotGenerate      bool       `json:"cannotGenerate"`
	Reason              string     `json:"reason,omitempty"`
}

// DefaultReflectionQuestions is the documented fallback question set.
func DefaultReflectionQuestions() []string {
	return []string{
		"What does this passage reveal about God's character?",
		"How does this truth apply to your life today?",
		"What is one step you can take this week in response?",
	}
}

// defaultReadTime is the documented fallback read-time estimate, in minutes.
const defaultReadTime = 5

const defaultStudyContext = "We were unable to produce a complete study right now."

// SalvageStudy recovers a Study from raw generative output. It never
// fails; the heuristic stage succeeds by construction.
func SalvageStudy(raw string) Study {
	slice := extractDelimited(raw)

	var s Study
	if err := decodeStrict(slice, &s); err == nil {
		return finishStudy(s, false, "")
	}

	s = Study{}
	if err := decodeSanitized(slice, &s); err == nil {
		return finishStudy(s, false, "")
	}

	s = Study{
		Title:               extractString(raw, "title", "Bible Study"),
		Context:             extractString(raw, "context", defaultStudyContext),
		Scriptures:          extractCitations(raw, []Citation{DefaultCitation()}),
		Application:         extractString(raw, "application", ""),
		ReflectionQuestions: extractStringList(raw, "reflectionQuestions", DefaultReflectionQuestions()),
		ReadTimeMinutes:     extractInt(raw, "readTimeMinutes", defaultReadTime),
	}
	return finishStudy(s, true, "The response was malformed and has been reconstructed; some fields may be approximate.")
}

// StudyFromError builds the fully static fallback when the generative call
// itself failed.
func StudyFromError(err error) Study {
	reason := connectivityReason
	if err != nil && isQuotaError(err.Error()) {
		reason = quotaReason
	}
	return Study{
		Title:               "Bible Study",
		Context:             defaultStudyContext,
		Scriptures:          []Citation{DefaultCitation()},
		ReflectionQuestions: DefaultReflectionQuestions(),
		ReadTimeMinutes:     defaultReadTime,
		IsAPIError:          true,
		CannotGenerate:      true,
		Reason:              reason,
	}
}

// finishStudy normalizes a decoded study the same way finishAnswer does.
func finishStudy(s Study, apiError bool, reason string) Study {
	if len(s.Scriptures) == 0 {
		s.Scriptures = []Citation{DefaultCitation()}
	}
	if len(s.ReflectionQuestions) == 0 {
		s.ReflectionQuestions = DefaultReflectionQuestions()
	}
	if s.ReadTimeMinutes <= 0 {
		s.ReadTimeMinutes = defaultReadTime
	}
	s.IsAPIError = apiError
	if apiError {
		s.Reason = reason
	}
	return s
}
