package store

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/havenapps/selah/core/daily"
	apperrors "github.com/havenapps/selah/core/errors"
	"github.com/havenapps/selah/core/salvage"
	"github.com/havenapps/selah/core/scripture"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDailyVerseRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := daily.Record{
		DateKey:     "2026-08-28",
		Translation: "KJV",
		Reference:   "John 3:16",
		Passage: scripture.Passage{
			Reference:   "John 3:16",
			Translation: "KJV",
			Text:        "For God so loved the world",
		},
	}
	if err := s.InsertDailyVerse(ctx, rec); err != nil {
		t.Fatalf("InsertDailyVerse: %v", err)
	}

	got, err := s.GetDailyVerse(ctx, "2026-08-28", "KJV")
	if err != nil {
		t.Fatalf("GetDailyVerse: %v", err)
	}
	if got.Reference != "John 3:16" || got.Passage.Text != rec.Passage.Text {
		t.Errorf("record = %+v", got)
	}
}

func TestDailyVerseMissingIsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetDailyVerse(context.Background(), "2026-08-28", "KJV")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("want not-found, got %v", err)
	}
}

func TestDailyVerseDuplicatesFirstWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := daily.Record{DateKey: "2026-08-28", Translation: "KJV", Reference: "John 3:16",
		Passage: scripture.Passage{Reference: "John 3:16", Text: "first"}}
	second := daily.Record{DateKey: "2026-08-28", Translation: "KJV", Reference: "Psalms 23:1",
		Passage: scripture.Passage{Reference: "Psalms 23:1", Text: "second"}}

	if err := s.InsertDailyVerse(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertDailyVerse(ctx, second); err != nil {
		t.Fatalf("duplicate insert should be tolerated: %v", err)
	}

	got, err := s.GetDailyVerse(ctx, "2026-08-28", "KJV")
	if err != nil {
		t.Fatal(err)
	}
	if got.Reference != "John 3:16" {
		t.Errorf("oldest row should win, got %q", got.Reference)
	}
}

func TestDailyVerseScopedByTranslation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.InsertDailyVerse(ctx, daily.Record{DateKey: "2026-08-28", Translation: "KJV",
		Reference: "John 3:16", Passage: scripture.Passage{Reference: "John 3:16"}})

	if _, err := s.GetDailyVerse(ctx, "2026-08-28", "WEB"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("other translation should miss, got %v", err)
	}
}

func TestSaveStudyIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	study := salvage.Study{Title: "Walking in Faith", Context: "Hebrews 11"}
	id1, err := s.SaveStudy(ctx, "faith", study)
	if err != nil {
		t.Fatalf("SaveStudy: %v", err)
	}
	id2, err := s.SaveStudy(ctx, "faith", study)
	if err != nil {
		t.Fatalf("SaveStudy repeat: %v", err)
	}
	if id1 != id2 {
		t.Errorf("same content produced different IDs: %q vs %q", id1, id2)
	}

	all, err := s.ListStudies(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("got %d rows, want 1", len(all))
	}

	loaded, err := s.Study(ctx, id1)
	if err != nil {
		t.Fatalf("Study: %v", err)
	}
	if loaded.Study.Title != "Walking in Faith" || loaded.Topic != "faith" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestAnswerRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	answer := salvage.Answer{Answer: "Love one another.", Application: "Practice daily."}
	id, err := s.SaveAnswer(ctx, "what is love", answer)
	if err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}

	loaded, err := s.Answer(ctx, id)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if loaded.Question != "what is love" || loaded.Answer.Answer != answer.Answer {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestSearchContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveStudy(ctx, "forgiveness", salvage.Study{Title: "Walking in Forgiveness"})
	s.SaveStudy(ctx, "prayer", salvage.Study{Title: "A Life of Prayer"})

	hits, err := s.SearchContent(ctx, "forgive", 10)
	if err != nil {
		t.Fatalf("SearchContent: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Title != "Walking in Forgiveness" {
		t.Errorf("hit = %+v", hits[0])
	}
	if hits[0].Snippet == "" {
		t.Error("snippet should be populated")
	}
}

func TestCorpusEntriesReplace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	initial := []CorpusEntry{
		{Reference: "Genesis 1:1", Translation: "WEB", Text: "In the beginning"},
		{Reference: "John 1:1", Translation: "WEB", Text: "In the beginning was the Word"},
	}
	if err := s.ReplaceCorpusEntries(ctx, "WEB", initial); err != nil {
		t.Fatalf("ReplaceCorpusEntries: %v", err)
	}

	replacement := []CorpusEntry{
		{Reference: "Psalms 23:1", Translation: "WEB", Text: "Yahweh is my shepherd"},
	}
	if err := s.ReplaceCorpusEntries(ctx, "WEB", replacement); err != nil {
		t.Fatalf("ReplaceCorpusEntries second: %v", err)
	}

	entries, err := s.CorpusEntries(ctx, "WEB")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Reference != "Psalms 23:1" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestExportImportStudies(t *testing.T) {
	src := newTestStore(t)
	ctx := context.Background()

	src.SaveStudy(ctx, "hope", salvage.Study{Title: "Anchored Hope", ReadTimeMinutes: 5})
	src.SaveStudy(ctx, "peace", salvage.Study{Title: "Perfect Peace", ReadTimeMinutes: 4})

	var buf bytes.Buffer
	exported, err := src.ExportStudies(ctx, &buf)
	if err != nil {
		t.Fatalf("ExportStudies: %v", err)
	}
	if exported != 2 {
		t.Errorf("exported %d, want 2", exported)
	}

	dst := newTestStore(t)
	imported, err := dst.ImportStudies(ctx, &buf)
	if err != nil {
		t.Fatalf("ImportStudies: %v", err)
	}
	if imported != 2 {
		t.Errorf("imported %d, want 2", imported)
	}

	all, err := dst.ListStudies(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("got %d studies after import, want 2", len(all))
	}
}
