package salvage

// Citation is one scripture reference quoted by generated content.
type Citation struct {
	Reference string `json:"reference"`
	Text      string `json:"text"`
}

// Answer is the structured result of answering a question. The three
// status fields are always set: success paths set them false/empty and
// degraded paths set them true plus a human-readable reason. Callers
// branch on them instead of on errors.
type Answer struct {
	Answer       string     `json:"answer"`
	Scriptures   []Citation `json:"scriptures"`
	Application  string     `json:"application"`
	IsAPIError   bool       `json:"isApiError"`
	CannotAnswer bool       `json:"cannotAnswer"`
	Reason       string     `json:"reason,omitempty"`
}

// DefaultCitation is the documented fallback citation used when no
// scripture can be recovered from a response.
func DefaultCitation() Citation {
	return Citation{
		Reference: "John 3:16",
		Text:      "For God so loved the world, that he gave his only begotten Son, that whosoever believeth in him should not perish, but have everlasting life.",
	}
}

const (
	defaultAnswerBody  = "We were unable to produce a complete answer to this question right now."
	quotaReason        = "The study service has reached its usage limit. Please try again later."
	connectivityReason = "The study service could not be reached. Please check your connection and try again."
)

// SalvageAnswer recovers an Answer from raw generative output. It never
// fails; the heuristic stage succeeds by construction.
func SalvageAnswer(raw string) Answer {
	slice := extractDelimited(raw)

	var a Answer
	if err := decodeStrict(slice, &a); err == nil {
		return finishAnswer(a, false, "")
	}

	a = Answer{}
	if err := decodeSanitized(slice, &a); err == nil {
		// Sanitization is not itself a degradation signal; the content
		// survived intact.
		return finishAnswer(a, false, "")
	}

	// Heuristic field extraction, one field at a time.
	a = Answer{
		Answer:      extractString(raw, "answer", defaultAnswerBody),
		Scriptures:  extractCitations(raw, []Citation{DefaultCitation()}),
		Application: extractString(raw, "application", ""),
	}
	return finishAnswer(a, true, "The response was malformed and has been reconstructed; some fields may be approximate.")
}

// AnswerFromError builds the fully static fallback when the generative
// call itself failed. The reason distinguishes quota/billing rejection
// from generic connectivity failure by message content.
func AnswerFromError(err error) Answer {
	reason := connectivityReason
	if err != nil && isQuotaError(err.Error()) {
		reason = quotaReason
	}
	return Answer{
		Answer:       defaultAnswerBody,
		Scriptures:   []Citation{DefaultCitation()},
		Application:  "",
		IsAPIError:   true,
		CannotAnswer: true,
		Reason:       reason,
	}
}

// finishAnswer normalizes a decoded answer: status fields are forced to a
// consistent state and empty citation lists get the default citation.
func finishAnswer(a Answer, apiError bool, reason string) Answer {
	if len(a.Scriptures) == 0 {
		a.Scriptures = []Citation{DefaultCitation()}
	}
	a.IsAPIError = apiError
	if apiError {
		a.Reason = reason
	}
	// A model-supplied CannotAnswer plus its reason survives as-is.
	return a
}
