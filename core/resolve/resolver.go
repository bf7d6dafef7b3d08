// Package resolve implements the tiered verse resolution pipeline:
// process cache, embedded corpus, remote provider, and the offline-mode
// fallback. Resolve never fails; total failure produces a passage whose
// text directs the reader to a printed copy.
package resolve

import (
	"context"
	"fmt"
	"time"

	"github.com/havenapps/selah/core/errors"
	"github.com/havenapps/selah/core/scripture"
	"github.com/havenapps/selah/internal/cache"
	"github.com/havenapps/selah/internal/logging"
)

// Candidate is one provider search hit: a provider-internal passage ID
// plus its (possibly markup-laden) content.
type Candidate struct {
	ID        string
	Reference string
	Content   string
	Copyright string
}

// ProviderTranslation is one entry of the provider's translation listing.
type ProviderTranslation struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Language     string `json:"language,omitempty"`
}

// ScriptureProvider is the remote text source consumed by the resolver.
// Implementations authenticate with a static key and are treated as
// unavailable for the rest of the process after any unauthorized response.
type ScriptureProvider interface {
	SearchByReference(ctx context.Context, bibleID, query string) ([]Candidate, error)
	PassagesByQuery(ctx context.Context, bibleID, query string) ([]Candidate, error)
	ListTranslations(ctx context.Context) ([]ProviderTranslation, error)
}

const (
	// offlineTextTemplate is the documented generic offline-mode message.
	offlineTextTemplate = "We couldn't load %s right now. Please refer to a printed copy of the Bible, or try again once a connection is available."
	// offlineCopyright marks a passage as produced in offline mode.
	offlineCopyright = "Offline mode: the scripture text provider is unavailable."

	// defaultTimeout bounds each remote call so no resolution blocks
	// indefinitely.
	defaultTimeout = 4 * time.Second
)

// OfflinePassage returns the generic offline-mode passage for a reference.
func OfflinePassage(ref, translation string) scripture.Passage {
	return scripture.Passage{
		Reference:   scripture.Normalize(ref),
		Translation: translation,
		Text:        fmt.Sprintf(offlineTextTemplate, scripture.Normalize(ref)),
		Copyright:   offlineCopyright,
	}
}

// IsOffline reports whether a passage is the generic offline-mode fallback
// rather than real text.
func IsOffline(p scripture.Passage) bool {
	return p.Copyright == offlineCopyright
}

// Config configures a Resolver.
type Config struct {
	Corpus   *scripture.Corpus // nil = embedded corpus
	Provider ScriptureProvider // nil = remote tiers disabled
	Health   *ProviderHealth   // nil = fresh health state
	Timeout  time.Duration     // per remote call; 0 = default
}

// Resolver resolves a single reference through the tier cascade.
type Resolver struct {
	corpus   *scripture.Corpus
	provider ScriptureProvider
	health   *ProviderHealth
	verses   *cache.Store[scripture.Passage]
	timeout  time.Duration
}

// New creates a Resolver with its own process-tier cache.
func New(cfg Config) *Resolver {
	corpus := cfg.Corpus
	if corpus == nil {
		corpus = scripture.NewCorpus()
	}
	health := cfg.Health
	if health == nil {
		health = NewProviderHealth()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Resolver{
		corpus:   corpus,
		provider: cfg.Provider,
		health:   health,
		verses:   cache.NewStore[scripture.Passage](),
		timeout:  timeout,
	}
}

// Health exposes the provider health flag shared with other components.
func (r *Resolver) Health() *ProviderHealth {
	return r.health
}

// cacheKey builds the process-tier cache key for (reference, translation).
func cacheKey(ref, translation string) string {
	return scripture.Normalize(ref) + "|" + translation
}

// Resolve produces a passage for a reference and translation code. It
// short-circuits on the first tier that yields text and never returns an
// error: total failure yields the offline-mode passage.
func (r *Resolver) Resolve(ctx context.Context, ref, translation string) scripture.Passage {
	ref = scripture.Normalize(ref)
	if translation == "" {
		translation = scripture.DefaultTranslation
	}
	key := cacheKey(ref, translation)

	// Tier 1: process cache.
	if p, ok := r.verses.Get(key); ok {
		logging.CacheEvent("hit", "process", key)
		return p
	}

	// Tier 2: embedded corpus exact match.
	if p, ok := r.corpus.Lookup(ref, translation); ok {
		r.verses.Set(key, p)
		logging.CacheEvent("populate", "process", key, "source", "corpus")
		return p
	}

	// Tiers 3-4: remote provider, unless it is known to be degraded.
	if p, ok := r.resolveRemote(ctx, ref, translation); ok {
		r.verses.Set(key, p)
		logging.CacheEvent("populate", "process", key, "source", "provider")
		return p
	}

	// Tier 5: nothing matched anywhere.
	return OfflinePassage(ref, translation)
}

// resolveRemote attempts the two-step remote lookup, then the secondary
// passage-by-query endpoint. A false return means every remote attempt
// failed or produced no usable text.
func (r *Resolver) resolveRemote(ctx context.Context, ref, translation string) (scripture.Passage, bool) {
	if r.provider == nil || r.health.Degraded() {
		return scripture.Passage{}, false
	}

	bibleID := scripture.LookupTranslation(translation).ProviderID

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	candidates, err := r.provider.SearchByReference(callCtx, bibleID, ref)
	if err != nil {
		r.noteProviderError("search_by_reference", err)
		if r.health.Degraded() {
			return scripture.Passage{}, false
		}
	}
	if p, ok := r.passageFromCandidates(candidates, ref, translation); ok {
		return p, true
	}

	// Secondary endpoint, attempted once.
	retryCtx, cancelRetry := context.WithTimeout(ctx, r.timeout)
	defer cancelRetry()

	candidates, err = r.provider.PassagesByQuery(retryCtx, bibleID, ref)
	if err != nil {
		r.noteProviderError("passages_by_query", err)
		return scripture.Passage{}, false
	}
	return r.passageFromCandidates(candidates, ref, translation)
}

// passageFromCandidates extracts plain text from the first candidate that
// yields any.
func (r *Resolver) passageFromCandidates(candidates []Candidate, ref, translation string) (scripture.Passage, bool) {
	for _, c := range candidates {
		text := CleanContent(c.Content)
		if text == "" {
			continue
		}
		return scripture.Passage{
			Reference:   ref,
			Translation: translation,
			Text:        text,
			Copyright:   c.Copyright,
		}, true
	}
	return scripture.Passage{}, false
}

// noteProviderError logs a provider failure and trips the health flag on
// authorization failures.
func (r *Resolver) noteProviderError(operation string, err error) {
	logging.ProviderError(operation, err)
	if errors.Is(err, errors.ErrUnauthorized) {
		r.health.MarkDegraded()
		logging.ProviderEvent("marked_degraded", operation, "reason", "unauthorized")
	}
}
