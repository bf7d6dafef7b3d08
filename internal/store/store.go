// Package store implements SQLite-backed persistence for daily verse
// records, generated studies and answers, and imported corpus entries.
// It satisfies the persistence interfaces declared by the daily selector
// and the search orchestrator.
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/zeebo/blake3"

	"github.com/havenapps/selah/core/daily"
	apperrors "github.com/havenapps/selah/core/errors"
	"github.com/havenapps/selah/core/salvage"
	"github.com/havenapps/selah/core/search"
	"github.com/havenapps/selah/core/sqlite"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// schema is applied on open. Daily verse rows carry no uniqueness
// constraint: concurrent writers may insert duplicates for the same day,
// and reads take the oldest row so every caller sees the same record.
const schema = `
CREATE TABLE IF NOT EXISTS daily_verses (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	date_key    TEXT NOT NULL,
	translation TEXT NOT NULL,
	reference   TEXT NOT NULL,
	passage     TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_daily_verses_lookup
	ON daily_verses (date_key, translation, id);

CREATE TABLE IF NOT EXISTS studies (
	id         TEXT PRIMARY KEY,
	topic      TEXT NOT NULL,
	title      TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS answers (
	id         TEXT PRIMARY KEY,
	question   TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS corpus_entries (
	reference   TEXT NOT NULL,
	translation TEXT NOT NULL,
	text        TEXT NOT NULL,
	PRIMARY KEY (reference, translation)
);
`

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, "opening database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, "applying schema")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SavedStudy is a stored study with its identity and provenance.
type SavedStudy struct {
	ID        string        `json:"id"`
	Topic     string        `json:"topic"`
	Study     salvage.Study `json:"study"`
	CreatedAt time.Time     `json:"created_at"`
}

// SavedAnswer is a stored answer with its identity and provenance.
type SavedAnswer struct {
	ID        string         `json:"id"`
	Question  string         `json:"question"`
	Answer    salvage.Answer `json:"answer"`
	CreatedAt time.Time      `json:"created_at"`
}

// CorpusEntry is one imported verse text.
type CorpusEntry struct {
	Reference   string `json:"reference"`
	Translation string `json:"translation"`
	Text        string `json:"text"`
}

// contentID derives a stable identifier from content bytes, so saving
// the same generated content twice yields the same row.
func contentID(parts ...string) string {
	h := blake3.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// GetDailyVerse returns the stored record for a date and translation, or
// a not-found error. When duplicate rows exist the oldest wins.
func (s *Store) GetDailyVerse(ctx context.Context, dateKey, translation string) (*daily.Record, error) {
	var reference, passageJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT reference, passage FROM daily_verses
		WHERE date_key = ? AND translation = ?
		ORDER BY id ASC LIMIT 1`,
		dateKey, translation).Scan(&reference, &passageJSON)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFound("daily_verse", dateKey+"|"+translation)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "querying daily verse")
	}

	rec := daily.Record{DateKey: dateKey, Translation: translation, Reference: reference}
	if err := json.Unmarshal([]byte(passageJSON), &rec.Passage); err != nil {
		return nil, apperrors.Wrap(err, "decoding daily verse passage")
	}
	return &rec, nil
}

// InsertDailyVerse appends a daily verse record. Duplicates for the same
// (date, translation) are allowed.
func (s *Store) InsertDailyVerse(ctx context.Context, rec daily.Record) error {
	passageJSON, err := json.Marshal(rec.Passage)
	if err != nil {
		return apperrors.Wrap(err, "encoding daily verse passage")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO daily_verses (date_key, translation, reference, passage, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.DateKey, rec.Translation, rec.Reference, string(passageJSON),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return apperrors.Wrap(err, "inserting daily verse")
	}
	return nil
}

// SaveStudy persists a generated study under a content-derived ID and
// returns that ID. Saving identical content is idempotent.
func (s *Store) SaveStudy(ctx context.Context, topic string, study salvage.Study) (string, error) {
	body, err := json.Marshal(study)
	if err != nil {
		return "", apperrors.Wrap(err, "encoding study")
	}
	id := contentID("study", topic, string(body))
	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO studies (id, topic, title, body, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, topic, study.Title, string(body),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", apperrors.Wrap(err, "inserting study")
	}
	return id, nil
}

// Study loads a stored study by ID.
func (s *Store) Study(ctx context.Context, id string) (*SavedStudy, error) {
	var saved SavedStudy
	var body, createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, topic, body, created_at FROM studies WHERE id = ?`,
		id).Scan(&saved.ID, &saved.Topic, &body, &createdAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFound("study", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "querying study")
	}
	if err := json.Unmarshal([]byte(body), &saved.Study); err != nil {
		return nil, apperrors.Wrap(err, "decoding study")
	}
	saved.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &saved, nil
}

// ListStudies returns stored studies, newest first. A non-positive
// limit returns everything.
func (s *Store) ListStudies(ctx context.Context, limit int) ([]SavedStudy, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic, body, created_at FROM studies
		ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "listing studies")
	}
	defer rows.Close()

	var out []SavedStudy
	for rows.Next() {
		var saved SavedStudy
		var body, createdAt string
		if err := rows.Scan(&saved.ID, &saved.Topic, &body, &createdAt); err != nil {
			return nil, apperrors.Wrap(err, "scanning study row")
		}
		if err := json.Unmarshal([]byte(body), &saved.Study); err != nil {
			return nil, apperrors.Wrap(err, "decoding study")
		}
		saved.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, saved)
	}
	return out, rows.Err()
}

// SaveAnswer persists a generated answer under a content-derived ID.
func (s *Store) SaveAnswer(ctx context.Context, question string, answer salvage.Answer) (string, error) {
	body, err := json.Marshal(answer)
	if err != nil {
		return "", apperrors.Wrap(err, "encoding answer")
	}
	id := contentID("answer", question, string(body))
	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO answers (id, question, body, created_at)
		VALUES (?, ?, ?, ?)`,
		id, question, string(body), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", apperrors.Wrap(err, "inserting answer")
	}
	return id, nil
}

// Answer loads a stored answer by ID.
func (s *Store) Answer(ctx context.Context, id string) (*SavedAnswer, error) {
	var saved SavedAnswer
	var body, createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, question, body, created_at FROM answers WHERE id = ?`,
		id).Scan(&saved.ID, &saved.Question, &body, &createdAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFound("answer", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "querying answer")
	}
	if err := json.Unmarshal([]byte(body), &saved.Answer); err != nil {
		return nil, apperrors.Wrap(err, "decoding answer")
	}
	saved.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &saved, nil
}

// SearchContent finds stored studies whose topic or title matches the
// query, newest first. Satisfies the search orchestrator's
// ContentSearcher.
func (s *Store) SearchContent(ctx context.Context, query string, limit int) ([]search.ContentHit, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, topic FROM studies
		WHERE title LIKE ? OR topic LIKE ?
		ORDER BY created_at DESC, id LIMIT ?`,
		pattern, pattern, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "searching studies")
	}
	defer rows.Close()

	var hits []search.ContentHit
	for rows.Next() {
		var hit search.ContentHit
		var topic string
		if err := rows.Scan(&hit.ID, &hit.Title, &topic); err != nil {
			return nil, apperrors.Wrap(err, "scanning study hit")
		}
		hit.Snippet = fmt.Sprintf("A study on %s", topic)
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// ReplaceCorpusEntries replaces all corpus entries for a translation in
// one transaction. Used by format importers.
func (s *Store) ReplaceCorpusEntries(ctx context.Context, translation string, entries []CorpusEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM corpus_entries WHERE translation = ?`, translation); err != nil {
		return apperrors.Wrap(err, "clearing corpus entries")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO corpus_entries (reference, translation, text)
		VALUES (?, ?, ?)`)
	if err != nil {
		return apperrors.Wrap(err, "preparing corpus insert")
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Reference, translation, e.Text); err != nil {
			return apperrors.Wrap(err, "inserting corpus entry")
		}
	}
	return tx.Commit()
}

// CorpusEntries returns all stored entries for a translation.
func (s *Store) CorpusEntries(ctx context.Context, translation string) ([]CorpusEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT reference, translation, text FROM corpus_entries
		WHERE translation = ? ORDER BY reference`, translation)
	if err != nil {
		return nil, apperrors.Wrap(err, "querying corpus entries")
	}
	defer rows.Close()

	var entries []CorpusEntry
	for rows.Next() {
		var e CorpusEntry
		if err := rows.Scan(&e.Reference, &e.Translation, &e.Text); err != nil {
			return nil, apperrors.Wrap(err, "scanning corpus entry")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
