package salvage

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/havenapps/selah/core/scripture"
)

const wellFormedAnswer = `{
	"answer": "Forgiveness is central to the gospel.",
	"scriptures": [{"reference": "Matthew 6:14", "text": "For if ye forgive men their trespasses..."}],
	"application": "Forgive as you have been forgiven.",
	"cannotAnswer": false,
	"reason": ""
}`

func TestSalvageAnswerStrictParse(t *testing.T) {
	a := SalvageAnswer("Here is your answer:\n" + wellFormedAnswer + "\nHope that helps!")

	if a.IsAPIError {
		t.Error("IsAPIError = true for well-formed input")
	}
	if a.CannotAnswer {
		t.Error("CannotAnswer = true for well-formed input")
	}
	if a.Answer != "Forgiveness is central to the gospel." {
		t.Errorf("Answer = %q", a.Answer)
	}
	if len(a.Scriptures) != 1 || a.Scriptures[0].Reference != "Matthew 6:14" {
		t.Errorf("Scriptures = %+v", a.Scriptures)
	}
}

func TestSalvageAnswerSanitizedParse(t *testing.T) {
	// Control characters embedded in an otherwise recoverable document.
	dirty := "{\"answer\": \"Grace\x00 abounds\x01\", \"scriptures\": [], \"application\": \"live gratefully\"}"

	a := SalvageAnswer(dirty)
	if a.IsAPIError {
		t.Error("sanitized recovery must not set IsAPIError")
	}
	if !strings.Contains(a.Answer, "Grace") {
		t.Errorf("Answer = %q", a.Answer)
	}
	// Empty citation list is normalized to the default citation.
	if len(a.Scriptures) != 1 || a.Scriptures[0].Reference != DefaultCitation().Reference {
		t.Errorf("Scriptures = %+v", a.Scriptures)
	}
}

func TestSalvageAnswerRepairsTruncatedJSON(t *testing.T) {
	truncated := `{"answer": "Trust in the Lord", "scriptures": [{"reference": "Proverbs 3:5-6", "text": "Trust in the LORD"}`

	a := SalvageAnswer(truncated)
	if a.Answer != "Trust in the Lord" {
		t.Errorf("Answer = %q", a.Answer)
	}
}

func TestSalvageAnswerHeuristicExtraction(t *testing.T) {
	// No balanced braces at all; only labeled fragments survive.
	mangled := `The model said:
"answer": "Hope endures all things"
"application": "Hold fast to hope"`

	a := SalvageAnswer(mangled)
	if !a.IsAPIError {
		t.Error("heuristic reconstruction must set IsAPIError")
	}
	if a.Reason == "" {
		t.Error("degraded answer missing reason")
	}
	if a.Answer != "Hope endures all things" {
		t.Errorf("Answer = %q", a.Answer)
	}
	if a.Application != "Hold fast to hope" {
		t.Errorf("Application = %q", a.Application)
	}
}

func TestSalvageAnswerTotalFailure(t *testing.T) {
	a := SalvageAnswer("I'm sorry, I can't help with that at the moment.")

	if !a.IsAPIError {
		t.Error("IsAPIError = false for free-text input")
	}
	if a.Reason == "" {
		t.Error("Reason empty for free-text input")
	}
	if len(a.Scriptures) != 1 || a.Scriptures[0] != DefaultCitation() {
		t.Errorf("Scriptures = %+v, want default citation", a.Scriptures)
	}
}

func TestSalvageStudyStrictParse(t *testing.T) {
	raw := `{
		"title": "Walking in Peace",
		"context": "Peace is a fruit of the Spirit.",
		"scriptures": [{"reference": "John 14:27", "text": "Peace I leave with you"}],
		"application": "Practice stillness.",
		"reflectionQuestions": ["Where do you seek peace?"],
		"readTimeMinutes": 4
	}`

	s := SalvageStudy(raw)
	if s.IsAPIError || s.CannotGenerate {
		t.Errorf("status flags set on success: %+v", s)
	}
	if s.Title != "Walking in Peace" || s.ReadTimeMinutes != 4 {
		t.Errorf("Study = %+v", s)
	}
	if len(s.ReflectionQuestions) != 1 {
		t.Errorf("ReflectionQuestions = %v", s.ReflectionQuestions)
	}
}

func TestSalvageStudyHeuristicDefaults(t *testing.T) {
	s := SalvageStudy("the service returned html <body>oops</body>")

	if !s.IsAPIError {
		t.Error("IsAPIError = false for unparseable study")
	}
	if got, want := s.ReflectionQuestions, DefaultReflectionQuestions(); len(got) != len(want) {
		t.Errorf("ReflectionQuestions = %v", got)
	}
	if s.ReadTimeMinutes != defaultReadTime {
		t.Errorf("ReadTimeMinutes = %d, want %d", s.ReadTimeMinutes, defaultReadTime)
	}
	if len(s.Scriptures) != 1 || s.Scriptures[0] != DefaultCitation() {
		t.Errorf("Scriptures = %+v", s.Scriptures)
	}
}

func TestSalvageStudyPartialHeuristic(t *testing.T) {
	mangled := `"title": "On Courage"
"reflectionQuestions": ["What holds you back?", "Who walks with you?"]
"readTimeMinutes": 7`

	s := SalvageStudy(mangled)
	if s.Title != "On Courage" {
		t.Errorf("Title = %q", s.Title)
	}
	if len(s.ReflectionQuestions) != 2 {
		t.Errorf("ReflectionQuestions = %v", s.ReflectionQuestions)
	}
	if s.ReadTimeMinutes != 7 {
		t.Errorf("ReadTimeMinutes = %d", s.ReadTimeMinutes)
	}
}

func TestAnswerFromErrorDistinguishesQuota(t *testing.T) {
	quota := AnswerFromError(fmt.Errorf("openai: insufficient_quota, please check billing"))
	if quota.Reason != quotaReason {
		t.Errorf("quota Reason = %q", quota.Reason)
	}

	conn := AnswerFromError(fmt.Errorf("dial tcp: connection refused"))
	if conn.Reason != connectivityReason {
		t.Errorf("connectivity Reason = %q", conn.Reason)
	}

	if !quota.IsAPIError || !quota.CannotAnswer {
		t.Error("status flags unset on static fallback")
	}
}

func TestStudyFromErrorDistinguishesQuota(t *testing.T) {
	s := StudyFromError(fmt.Errorf("429 Too Many Requests"))
	if s.Reason != quotaReason {
		t.Errorf("Reason = %q", s.Reason)
	}
	if !s.CannotGenerate {
		t.Error("CannotGenerate = false on static fallback")
	}
}

func TestExtractDelimited(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`prefix {"a": 1} suffix`, `{"a": 1}`},
		{`{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{`no braces here`, ``},
		{`} reversed {`, ``},
	}
	for _, tt := range tests {
		if got := extractDelimited(tt.in); got != tt.want {
			t.Errorf("extractDelimited(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// fakeGenerator scripts the generative collaborator.
type fakeGenerator struct {
	response string
	err      error
}

func (f *fakeGenerator) Generate(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	return f.response, f.err
}

// resolverFunc adapts a function to the PassageResolver interface.
type resolverFunc func(ctx context.Context, ref, translation string) string

func (f resolverFunc) Resolve(ctx context.Context, ref, translation string) scripture.Passage {
	return scripture.Passage{
		Reference:   ref,
		Translation: translation,
		Text:        f(ctx, ref, translation),
	}
}

func TestPipelineFillsCitationText(t *testing.T) {
	gen := &fakeGenerator{response: `{"answer": "ok", "scriptures": [{"reference": "John 3:16", "text": ""}], "application": ""}`}
	p := NewPipeline(gen, resolverFunc(func(ctx context.Context, ref, translation string) string {
		return "resolved text for " + ref
	}))

	a := p.GenerateAnswer(context.Background(), "what is love?", "KJV")
	if a.IsAPIError {
		t.Fatalf("unexpected degradation: %+v", a)
	}
	if a.Scriptures[0].Text != "resolved text for John 3:16" {
		t.Errorf("citation text = %q", a.Scriptures[0].Text)
	}
}

func TestPipelineUpstreamFailure(t *testing.T) {
	p := NewPipeline(&fakeGenerator{err: fmt.Errorf("connection reset")}, nil)

	a := p.GenerateAnswer(context.Background(), "anything", "KJV")
	if !a.IsAPIError || !a.CannotAnswer {
		t.Errorf("status flags = %+v", a)
	}
}

func TestPipelineNilGenerator(t *testing.T) {
	p := NewPipeline(nil, nil)
	s := p.GenerateStudy(context.Background(), "hope", "KJV")
	if !s.IsAPIError {
		t.Error("nil generator must yield the static fallback")
	}
}
