package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/havenapps/selah/core/errors"
)

func TestSearchByReference(t *testing.T) {
	var gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"verses":[{"id":"JHN.3.16","reference":"John 3:16","text":"For God so loved the world"}],"passages":[{"id":"JHN.3","reference":"John 3","content":"<p>chapter text</p>","copyright":"PD"}]}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"})
	candidates, err := c.SearchByReference(context.Background(), "de4e12af7f28f599-02", "John 3:16")
	if err != nil {
		t.Fatalf("SearchByReference: %v", err)
	}

	if gotKey != "secret" {
		t.Errorf("api-key header = %q", gotKey)
	}
	if gotPath != "/bibles/de4e12af7f28f599-02/search" {
		t.Errorf("path = %q", gotPath)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].Reference != "John 3:16" || candidates[0].Content != "For God so loved the world" {
		t.Errorf("verse candidate = %+v", candidates[0])
	}
	if candidates[1].Copyright != "PD" {
		t.Errorf("passage candidate = %+v", candidates[1])
	}
}

func TestUnauthorizedStatusUnwraps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid key"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "bad"})
	_, err := c.SearchByReference(context.Background(), "x", "John 3:16")
	if err == nil {
		t.Fatal("expected error for 403")
	}
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("403 should unwrap to ErrUnauthorized, got %v", err)
	}

	var upstream *apperrors.UpstreamError
	if !errors.As(err, &upstream) || upstream.Status != http.StatusForbidden {
		t.Errorf("expected UpstreamError with status 403, got %v", err)
	}
}

func TestQuotaStatusUnwraps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.PassagesByQuery(context.Background(), "x", "love")
	if !errors.Is(err, apperrors.ErrQuota) {
		t.Errorf("429 should unwrap to ErrQuota, got %v", err)
	}
}

func TestListTranslations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bibles" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"data":[{"id":"abc-01","abbreviation":"KJV","name":"King James Version","language":{"name":"English"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	translations, err := c.ListTranslations(context.Background())
	if err != nil {
		t.Fatalf("ListTranslations: %v", err)
	}
	if len(translations) != 1 {
		t.Fatalf("got %d translations, want 1", len(translations))
	}
	got := translations[0]
	if got.ID != "abc-01" || got.Abbreviation != "KJV" || got.Language != "English" {
		t.Errorf("translation = %+v", got)
	}
}

func TestMalformedBodyIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": truncated`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.SearchByReference(context.Background(), "x", "John 3:16")
	var upstream *apperrors.UpstreamError
	if !errors.As(err, &upstream) {
		t.Errorf("malformed body should be an upstream error, got %v", err)
	}
}
