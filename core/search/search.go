// Package search implements the cascading multi-strategy search
// orchestrator: curated topic matches, remote full-text search,
// generative reference recommendation, and a final corpus scan. Search
// never fails; the worst case is a single synthetic no-results entry.
package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/havenapps/selah/core/resolve"
	"github.com/havenapps/selah/core/scripture"
	"github.com/havenapps/selah/internal/logging"
)

// ResultKind discriminates the search result union.
type ResultKind string

const (
	// KindStudy is a locally stored structured-content hit.
	KindStudy ResultKind = "study"
	// KindVerse is a scripture passage hit.
	KindVerse ResultKind = "verse"
)

// ContentHit is one structured-content match from local storage.
type ContentHit struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Result is one entry of a combined result list. Exactly one of Passage
// and Study is set, according to Kind.
type Result struct {
	Kind    ResultKind         `json:"kind"`
	Passage *scripture.Passage `json:"passage,omitempty"`
	Study   *ContentHit        `json:"study,omitempty"`
}

// Response is the orchestrator's value result. AIRecommended is true only
// when the verse results originated from generative-model recommendation.
type Response struct {
	Results       []Result `json:"results"`
	AIRecommended bool     `json:"ai_recommended"`
}

// Recommender is the generative collaborator used to suggest references
// for a free-form query.
type Recommender interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error)
}

// ContentSearcher searches locally stored structured content by keyword
// and title. Satisfied by the persistence store.
type ContentSearcher interface {
	SearchContent(ctx context.Context, query string, limit int) ([]ContentHit, error)
}

const (
	recommendSystemPrompt = `You suggest Bible passages. Given a topic or question, reply with 3 to 5 verse references, one per line, in the form "Book Chapter:Verse". Reply with references only.`

	corpusScanCap = 5
	defaultLimit  = 10

	searchTimeout = 4 * time.Second
)

// Config configures an Orchestrator.
type Config struct {
	Corpus      *scripture.Corpus         // nil = embedded corpus
	Resolver    *resolve.Resolver         // required for tier 3
	Provider    resolve.ScriptureProvider // nil = remote tier disabled
	Recommender Recommender               // nil = static substitution in tier 3
	Content     ContentSearcher           // nil = verse results only
}

// Orchestrator runs the search cascade.
type Orchestrator struct {
	corpus      *scripture.Corpus
	resolver    *resolve.Resolver
	provider    resolve.ScriptureProvider
	recommender Recommender
	content     ContentSearcher
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	corpus := cfg.Corpus
	if corpus == nil {
		corpus = scripture.NewCorpus()
	}
	return &Orchestrator{
		corpus:      corpus,
		resolver:    cfg.Resolver,
		provider:    cfg.Provider,
		recommender: cfg.Recommender,
		content:     cfg.Content,
	}
}

// Search runs the cascade for a query. The first tier yielding at least
// one result wins. Structured-content matches are merged in ahead of
// verse results.
func (o *Orchestrator) Search(ctx context.Context, query, translation string, limit int) Response {
	query = strings.TrimSpace(query)
	if translation == "" {
		translation = scripture.DefaultTranslation
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	passages, aiRecommended := o.versesForQuery(ctx, query, translation, limit)

	var results []Result
	for _, hit := range o.contentHits(ctx, query, limit) {
		h := hit
		results = append(results, Result{Kind: KindStudy, Study: &h})
	}
	for i := range passages {
		results = append(results, Result{Kind: KindVerse, Passage: &passages[i]})
	}

	if len(results) == 0 {
		synthetic := noResultsPassage(query, translation)
		results = append(results, Result{Kind: KindVerse, Passage: &synthetic})
	}

	return Response{Results: results, AIRecommended: aiRecommended}
}

// versesForQuery runs the verse tiers in order and returns the winning
// tier's passages.
func (o *Orchestrator) versesForQuery(ctx context.Context, query, translation string, limit int) ([]scripture.Passage, bool) {
	if query == "" {
		return nil, false
	}

	// Tier 1: curated topic table, no network.
	if passages := o.corpus.TopicPassages(query, translation); len(passages) > 0 {
		logging.ProviderEvent("tier_hit", "search", "tier", "topic_table", "query", query)
		return capPassages(passages, limit), false
	}

	// Tier 2: remote full-text search.
	if passages := o.remoteSearch(ctx, query, translation, limit); len(passages) > 0 {
		logging.ProviderEvent("tier_hit", "search", "tier", "remote", "query", query)
		return passages, false
	}

	// Tier 3: recommended references, resolved in parallel.
	refs, fromModel := o.recommendRefs(ctx, query)
	if passages := o.resolveAll(ctx, refs, translation); len(passages) > 0 {
		logging.ProviderEvent("tier_hit", "search", "tier", "recommendation",
			"query", query, "ai", fromModel)
		return capPassages(passages, limit), fromModel
	}

	// Tier 4: corpus scan.
	if passages := o.corpus.Scan(query, translation, corpusScanCap); len(passages) > 0 {
		logging.ProviderEvent("tier_hit", "search", "tier", "corpus_scan", "query", query)
		return passages, false
	}

	return nil, false
}

// remoteSearch queries the provider's full-text search, bounded by limit.
// A degraded provider is skipped entirely.
func (o *Orchestrator) remoteSearch(ctx context.Context, query, translation string, limit int) []scripture.Passage {
	if o.provider == nil || (o.resolver != nil && o.resolver.Health().Degraded()) {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	bibleID := scripture.LookupTranslation(translation).ProviderID
	candidates, err := o.provider.SearchByReference(callCtx, bibleID, query)
	if err != nil {
		logging.ProviderError("full_text_search", err, "query", query)
		return nil
	}

	var passages []scripture.Passage
	for _, c := range candidates {
		text := resolve.CleanContent(c.Content)
		if text == "" {
			continue
		}
		passages = append(passages, scripture.Passage{
			Reference:   c.Reference,
			Translation: translation,
			Text:        text,
			Copyright:   c.Copyright,
		})
		if len(passages) >= limit {
			break
		}
	}
	return passages
}

// recommendRefs asks the generative service for candidate references,
// substituting the static topic table and then the generic set when the
// service is unavailable or yields nothing usable. The bool reports
// whether the references came from the model.
func (o *Orchestrator) recommendRefs(ctx context.Context, query string) ([]string, bool) {
	if o.recommender != nil {
		callCtx, cancel := context.WithTimeout(ctx, searchTimeout)
		defer cancel()

		raw, err := o.recommender.Generate(callCtx, recommendSystemPrompt,
			"Query: "+query, 0.4, 256)
		if err != nil {
			logging.ProviderError("recommend_references", err, "query", query)
		} else if refs := parseRefCandidates(raw); len(refs) > 0 {
			return refs, true
		}
	}

	if refs := o.corpus.TopicReferences(query); len(refs) > 0 {
		return refs, false
	}
	return scripture.GenericReferences(), false
}

// resolveAll fans out resolution of each reference and joins the results
// in the original reference order. Offline placeholders are dropped so a
// failed tier can still cascade onward.
func (o *Orchestrator) resolveAll(ctx context.Context, refs []string, translation string) []scripture.Passage {
	if o.resolver == nil || len(refs) == 0 {
		return nil
	}

	resolved := make([]scripture.Passage, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i := range refs {
		i := i
		g.Go(func() error {
			resolved[i] = o.resolver.Resolve(gctx, refs[i], translation)
			return nil
		})
	}
	g.Wait()

	var passages []scripture.Passage
	for _, p := range resolved {
		if resolve.IsOffline(p) {
			continue
		}
		passages = append(passages, p)
	}
	return passages
}

// contentHits searches local structured content; failures degrade to an
// empty contribution.
func (o *Orchestrator) contentHits(ctx context.Context, query string, limit int) []ContentHit {
	if o.content == nil || query == "" {
		return nil
	}
	hits, err := o.content.SearchContent(ctx, query, limit)
	if err != nil {
		logging.StoreError("search_content", err, "query", query)
		return nil
	}
	return hits
}

// bulletPrefix strips list markers the model tends to emit.
var bulletPrefix = regexp.MustCompile(`^[\s\-\*\d\.\)]+`)

// parseRefCandidates extracts reference-shaped lines from raw model
// output, capped at five. Candidates are canonicalized through the
// reference grammar so spacing and dash variants share one resolve key.
func parseRefCandidates(raw string) []string {
	var refs []string
	for _, line := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == ';' || r == ','
	}) {
		candidate := strings.TrimSpace(bulletPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
		if !scripture.LooksLikeReference(candidate) {
			continue
		}
		if parsed, err := scripture.Parse(candidate); err == nil {
			candidate = parsed.String()
		}
		refs = append(refs, candidate)
		if len(refs) == 5 {
			break
		}
	}
	return refs
}

func capPassages(passages []scripture.Passage, limit int) []scripture.Passage {
	if len(passages) > limit {
		return passages[:limit]
	}
	return passages
}

// noResultsPassage is the synthetic pseudo-result returned when every
// tier came up empty.
func noResultsPassage(query, translation string) scripture.Passage {
	return scripture.Passage{
		Reference:   "No results",
		Translation: translation,
		Text: fmt.Sprintf(
			"No passages matched %q. Try a keyword such as love, faith, hope, peace, or forgiveness.",
			query),
	}
}
