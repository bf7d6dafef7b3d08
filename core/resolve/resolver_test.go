package resolve

import (
	"context"
	"fmt"
	"testing"

	"github.com/havenapps/selah/core/errors"
)

// fakeProvider is a scriptable ScriptureProvider for tests.
type fakeProvider struct {
	searchFn      func(bibleID, query string) ([]Candidate, error)
	passagesFn    func(bibleID, query string) ([]Candidate, error)
	searchCalls   int
	passagesCalls int
}

func (f *fakeProvider) SearchByReference(ctx context.Context, bibleID, query string) ([]Candidate, error) {
	f.searchCalls++
	if f.searchFn == nil {
		return nil, nil
	}
	return f.searchFn(bibleID, query)
}

func (f *fakeProvider) PassagesByQuery(ctx context.Context, bibleID, query string) ([]Candidate, error) {
	f.passagesCalls++
	if f.passagesFn == nil {
		return nil, nil
	}
	return f.passagesFn(bibleID, query)
}

func (f *fakeProvider) ListTranslations(ctx context.Context) ([]ProviderTranslation, error) {
	return nil, nil
}

func failingProvider() *fakeProvider {
	return &fakeProvider{
		searchFn: func(bibleID, query string) ([]Candidate, error) {
			return nil, errors.NewUpstream("scripture-provider", "search", fmt.Errorf("connection refused"))
		},
		passagesFn: func(bibleID, query string) ([]Candidate, error) {
			return nil, errors.NewUpstream("scripture-provider", "passages", fmt.Errorf("connection refused"))
		},
	}
}

func TestResolveCorpusPrecedenceOverFailingProvider(t *testing.T) {
	provider := failingProvider()
	r := New(Config{Provider: provider})

	p := r.Resolve(context.Background(), "John 3:16", "KJV")

	want := "For God so loved the world, that he gave his only begotten Son, that whosoever believeth in him should not perish, but have everlasting life."
	if p.Text != want {
		t.Errorf("corpus text mismatch:\ngot  %q\nwant %q", p.Text, want)
	}
	if provider.searchCalls != 0 {
		t.Errorf("provider was called %d times for a corpus reference", provider.searchCalls)
	}
}

func TestResolveOfflineFallback(t *testing.T) {
	r := New(Config{Provider: failingProvider()})

	p := r.Resolve(context.Background(), "Hezekiah 99:1", "KJV")

	want := fmt.Sprintf(offlineTextTemplate, "Hezekiah 99:1")
	if p.Text != want {
		t.Errorf("offline text mismatch:\ngot  %q\nwant %q", p.Text, want)
	}
	if !IsOffline(p) {
		t.Error("IsOffline = false for offline passage")
	}
}

func TestResolveNeverOfflineForCorpusEntries(t *testing.T) {
	r := New(Config{}) // no provider at all

	p := r.Resolve(context.Background(), "Psalms 23:1", "WEB")
	if IsOffline(p) {
		t.Error("corpus-backed reference resolved to offline passage")
	}
	if p.Translation != "WEB" {
		t.Errorf("Translation = %q, want WEB", p.Translation)
	}
}

func TestResolveRemoteSuccessPopulatesCache(t *testing.T) {
	provider := &fakeProvider{
		searchFn: func(bibleID, query string) ([]Candidate, error) {
			return []Candidate{{
				ID:      "OBA.1.1",
				Content: `<p><span data-number="1" class="v">1</span>The vision of Obadiah.</p>`,
			}}, nil
		},
	}
	r := New(Config{Provider: provider})

	first := r.Resolve(context.Background(), "Obadiah 1:1", "KJV")
	if first.Text != "The vision of Obadiah." {
		t.Fatalf("Text = %q", first.Text)
	}

	second := r.Resolve(context.Background(), "Obadiah 1:1", "KJV")
	if second.Text != first.Text {
		t.Errorf("cached resolution differs: %q vs %q", second.Text, first.Text)
	}
	if provider.searchCalls != 1 {
		t.Errorf("provider called %d times, want 1 (second hit must come from cache)", provider.searchCalls)
	}
}

func TestResolveSecondaryEndpointFallback(t *testing.T) {
	provider := &fakeProvider{
		searchFn: func(bibleID, query string) ([]Candidate, error) {
			return nil, nil // empty result set
		},
		passagesFn: func(bibleID, query string) ([]Candidate, error) {
			return []Candidate{{Content: "<p>In those days.</p>"}}, nil
		},
	}
	r := New(Config{Provider: provider})

	p := r.Resolve(context.Background(), "Esther 1:2", "KJV")
	if p.Text != "In those days." {
		t.Errorf("Text = %q", p.Text)
	}
	if provider.passagesCalls != 1 {
		t.Errorf("passagesCalls = %d, want 1", provider.passagesCalls)
	}
}

func TestResolveUnauthorizedTripsHealthFlag(t *testing.T) {
	provider := &fakeProvider{
		searchFn: func(bibleID, query string) ([]Candidate, error) {
			return nil, errors.NewUpstreamStatus("scripture-provider", "search", 403)
		},
	}
	r := New(Config{Provider: provider})

	r.Resolve(context.Background(), "Esther 1:2", "KJV")
	if !r.Health().Degraded() {
		t.Fatal("health flag not set after 403")
	}
	if provider.passagesCalls != 0 {
		t.Error("secondary endpoint was attempted after unauthorized response")
	}

	// Subsequent calls must skip remote tiers entirely.
	r.Resolve(context.Background(), "Esther 1:3", "KJV")
	if provider.searchCalls != 1 {
		t.Errorf("searchCalls = %d, want 1 (degraded provider must be skipped)", provider.searchCalls)
	}
}

func TestCleanContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "verse numbers and tags",
			in:   `<p class="p"><span data-number="16" class="v">16</span>For God so loved the world</p>`,
			want: "For God so loved the world",
		},
		{
			name: "entities",
			in:   "Mercy&nbsp;and&nbsp;truth &#8212; they meet; &quot;grace&quot; &amp; peace",
			want: "Mercy and truth — they meet; \"grace\" & peace",
		},
		{
			name: "whitespace collapse",
			in:   "<p>line one</p>\n<p>line   two</p>",
			want: "line one line two",
		},
		{
			name: "empty after stripping",
			in:   `<span class="v">3</span>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanContent(tt.in); got != tt.want {
				t.Errorf("CleanContent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestProviderHealthNilSafety(t *testing.T) {
	var h *ProviderHealth
	if h.Degraded() {
		t.Error("nil health reported degraded")
	}
	h.MarkDegraded() // must not panic
	h.Reset()
}
