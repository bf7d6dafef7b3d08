package genai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/havenapps/selah/core/errors"
)

func TestGenerate(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"answer\":\"hi\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "sk-test", Model: "test-model"})
	out, err := c.Generate(context.Background(), "system text", "user text", 0.7, 512)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != `{"answer":"hi"}` {
		t.Errorf("completion = %q", out)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	for _, fragment := range []string{`"model":"test-model"`, `"role":"system"`, `"content":"user text"`, `"max_tokens":512`} {
		if !strings.Contains(gotBody, fragment) {
			t.Errorf("request body missing %q: %s", fragment, gotBody)
		}
	}
}

func TestGenerateQuotaStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"You exceeded your current quota.","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Generate(context.Background(), "s", "u", 0.7, 64)
	if err == nil {
		t.Fatal("expected error for 429")
	}
	if !errors.Is(err, apperrors.ErrQuota) {
		t.Errorf("429 should unwrap to ErrQuota, got %v", err)
	}
	if !strings.Contains(err.Error(), "insufficient_quota") {
		t.Errorf("error text should carry the upstream wording, got %q", err.Error())
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Generate(context.Background(), "s", "u", 0.7, 64)
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
	var upstream *apperrors.UpstreamError
	if !errors.As(err, &upstream) {
		t.Errorf("want UpstreamError, got %T", err)
	}
}
