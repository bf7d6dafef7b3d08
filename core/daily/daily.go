// Package daily selects one verse per calendar day per translation,
// persists the selection, and serves it idempotently thereafter.
package daily

import (
	"context"
	"math/rand"
	"time"

	"github.com/havenapps/selah/core/resolve"
	"github.com/havenapps/selah/core/scripture"
	"github.com/havenapps/selah/internal/cache"
	"github.com/havenapps/selah/internal/logging"
)

// Record is the persisted single-reference selection for a calendar day
// and translation. Created at most once per (DateKey, Translation) and
// never updated or deleted by this pipeline.
type Record struct {
	DateKey     string            `json:"date_key"` // "2006-01-02"
	Translation string            `json:"translation"`
	Reference   string            `json:"reference"`
	Passage     scripture.Passage `json:"passage"`
}

// Store is the persistence collaborator. A store that briefly fails is
// tolerated: reads fall through to generation and writes are logged and
// skipped.
type Store interface {
	GetDailyVerse(ctx context.Context, dateKey, translation string) (*Record, error)
	InsertDailyVerse(ctx context.Context, rec Record) error
}

// Selector produces the verse of the day.
type Selector struct {
	resolver *resolve.Resolver
	corpus   *scripture.Corpus
	store    Store
	local    *cache.DayCache[scripture.Passage]
	now      func() time.Time
}

// Config configures a Selector.
type Config struct {
	Resolver *resolve.Resolver                  // required
	Corpus   *scripture.Corpus                  // nil = embedded corpus
	Store    Store                              // nil = no persistence
	Local    *cache.DayCache[scripture.Passage] // nil = always-miss client tier
	Now      func() time.Time                   // nil = time.Now
}

// New creates a Selector.
func New(cfg Config) *Selector {
	corpus := cfg.Corpus
	if corpus == nil {
		corpus = scripture.NewCorpus()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Selector{
		resolver: cfg.Resolver,
		corpus:   corpus,
		store:    cfg.Store,
		local:    cfg.Local,
		now:      now,
	}
}

// DateKey formats a time as the record date key.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// localKey scopes the client-tier cache entry to (dateKey, translation).
func localKey(dateKey, translation string) string {
	return dateKey + "|" + translation
}

// Verse returns the verse of the day for a translation. The lookup order
// is client cache, persisted record, fresh generation. Never fails: the
// selection algorithm bottoms out in the embedded corpus.
func (s *Selector) Verse(ctx context.Context, translation string) scripture.Passage {
	if translation == "" {
		translation = scripture.DefaultTranslation
	}
	today := s.now()
	dateKey := DateKey(today)

	if p, ok := s.local.Get(localKey(dateKey, translation)); ok {
		logging.CacheEvent("hit", "client", localKey(dateKey, translation))
		return p
	}

	if s.store != nil {
		rec, err := s.store.GetDailyVerse(ctx, dateKey, translation)
		if err != nil {
			logging.StoreError("get_daily_verse", err, "date_key", dateKey)
		} else if rec != nil {
			s.local.Set(localKey(dateKey, translation), rec.Passage)
			return rec.Passage
		}
	}

	passage := s.generate(ctx, today, translation)

	if s.store != nil {
		rec := Record{
			DateKey:     dateKey,
			Translation: translation,
			Reference:   passage.Reference,
			Passage:     passage,
		}
		// Two first-of-day callers can both reach this insert; the store
		// keeps both rows and readers take the first match.
		if err := s.store.InsertDailyVerse(ctx, rec); err != nil {
			logging.StoreError("insert_daily_verse", err, "date_key", dateKey)
		}
	}

	s.local.Set(localKey(dateKey, translation), passage)
	return passage
}

// generate derives the day's reference from the date hash and resolves it.
// The book permutation is seeded from the date hash, so the same date
// always derives the same reference on every cold start.
func (s *Selector) generate(ctx context.Context, today time.Time, translation string) scripture.Passage {
	dateHash := (today.YearDay() + today.Year()) % 366

	books := scripture.Canon()
	rng := rand.New(rand.NewSource(int64(dateHash)))
	rng.Shuffle(len(books), func(i, j int) {
		books[i], books[j] = books[j], books[i]
	})

	book := books[dateHash%len(books)]
	chapter := (dateHash*31)%book.Chapters + 1
	verse := (dateHash*13)%30 + 1

	ref := scripture.Reference{Book: book.Name, Chapter: chapter, VerseStart: verse}.String()
	passage := s.resolver.Resolve(ctx, ref, translation)

	if resolve.IsOffline(passage) {
		// Resolution failed everywhere; substitute a date-keyed corpus
		// entry so the day still gets real text.
		fallbackRef := s.corpus.RefAt(dateHash)
		if p, ok := s.corpus.Lookup(fallbackRef, translation); ok {
			logging.ProviderEvent("daily_fallback", "generate",
				"wanted", ref, "substituted", fallbackRef)
			passage = p
		}
	}
	return passage
}
