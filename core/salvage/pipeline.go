package salvage

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/havenapps/selah/core/scripture"
	"github.com/havenapps/selah/internal/logging"
)

// Generator is the generative text collaborator. No schema is enforced on
// its output; the salvage stages are solely responsible for recovering
// structure.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error)
}

// PassageResolver resolves one reference to a passage, never failing.
// Satisfied by *resolve.Resolver.
type PassageResolver interface {
	Resolve(ctx context.Context, ref, translation string) scripture.Passage
}

const (
	answerSystemPrompt = `You are a thoughtful Bible study assistant. Answer the question with scripture. Respond with JSON only: {"answer": "...", "scriptures": [{"reference": "Book C:V", "text": ""}], "application": "...", "cannotAnswer": false, "reason": ""}. If the question cannot be answered from scripture, set cannotAnswer to true and explain in reason.`

	studySystemPrompt = `You are a thoughtful Bible study assistant. Create a short topical study. Respond with JSON only: {"title": "...", "context": "...", "scriptures": [{"reference": "Book C:V", "text": ""}], "application": "...", "reflectionQuestions": ["..."], "readTimeMinutes": 5}.`

	generationTemperature = 0.7
	generationMaxTokens   = 1024
)

// Pipeline binds the generator to the salvage stages and a resolver used
// to fill in citation text.
type Pipeline struct {
	gen      Generator
	resolver PassageResolver
}

// NewPipeline creates a Pipeline. Either collaborator may be nil: a nil
// generator produces the static fallback objects, a nil resolver leaves
// citation text as the model produced it.
func NewPipeline(gen Generator, resolver PassageResolver) *Pipeline {
	return &Pipeline{gen: gen, resolver: resolver}
}

// GenerateAnswer produces a structured answer for a question. Never fails.
func (p *Pipeline) GenerateAnswer(ctx context.Context, question, translation string) Answer {
	if p.gen == nil {
		return AnswerFromError(nil)
	}
	raw, err := p.gen.Generate(ctx, answerSystemPrompt,
		fmt.Sprintf("Question: %s\nPreferred translation: %s", question, translation),
		generationTemperature, generationMaxTokens)
	if err != nil {
		logging.SalvageEvent("answer", "upstream_error", "error", err.Error())
		return AnswerFromError(err)
	}

	answer := SalvageAnswer(raw)
	answer.Scriptures = p.fillCitations(ctx, answer.Scriptures, translation)
	return answer
}

// GenerateStudy produces a structured topical study. Never fails.
func (p *Pipeline) GenerateStudy(ctx context.Context, topic, translation string) Study {
	if p.gen == nil {
		return StudyFromError(nil)
	}
	raw, err := p.gen.Generate(ctx, studySystemPrompt,
		fmt.Sprintf("Topic: %s\nPreferred translation: %s", topic, translation),
		generationTemperature, generationMaxTokens)
	if err != nil {
		logging.SalvageEvent("study", "upstream_error", "error", err.Error())
		return StudyFromError(err)
	}

	study := SalvageStudy(raw)
	study.Scriptures = p.fillCitations(ctx, study.Scriptures, translation)
	return study
}

// fillCitations resolves citation text for references the model left
// empty. Resolutions fan out concurrently and join before returning;
// result order is the original citation order, not completion order.
func (p *Pipeline) fillCitations(ctx context.Context, citations []Citation, translation string) []Citation {
	if p.resolver == nil {
		return citations
	}

	out := make([]Citation, len(citations))
	copy(out, citations)

	g, gctx := errgroup.WithContext(ctx)
	for i := range out {
		if out[i].Text != "" || !scripture.LooksLikeReference(out[i].Reference) {
			continue
		}
		i := i
		g.Go(func() error {
			out[i].Text = p.resolver.Resolve(gctx, out[i].Reference, translation).Text
			return nil
		})
	}
	g.Wait()
	return out
}
