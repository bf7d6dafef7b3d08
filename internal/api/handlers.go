// Package api provides the Selah REST API server.
package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/havenapps/selah/core/scripture"
	"github.com/havenapps/selah/core/sqlite"
	"github.com/havenapps/selah/internal/server"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	Uptime           string `json:"uptime"`
	ProviderDegraded bool   `json:"provider_degraded"`
	SQLiteDriver     string `json:"sqlite_driver"`
}

// AnswerRequest is the request body for answer generation.
type AnswerRequest struct {
	Question    string `json:"question"`
	Translation string `json:"translation,omitempty"`
}

// StudyRequest is the request body for study generation.
type StudyRequest struct {
	Topic       string `json:"topic"`
	Translation string `json:"translation,omitempty"`
}

// maxQueryLength bounds free-form user input forwarded to collaborators.
const maxQueryLength = 500

var startTime = time.Now()

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"name":    "Selah API",
		"version": Version,
		"endpoints": []string{
			"GET /health",
			"GET /verse",
			"GET /daily",
			"GET /search",
			"POST /answer",
			"POST /study",
			"GET /studies",
			"GET /studies/:id",
			"GET /translations",
			"WS /ws",
			"POST /jobs",
			"GET /jobs/:id",
			"DELETE /jobs/:id",
		},
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	degraded := false
	if services.Resolver != nil {
		degraded = services.Resolver.Health().Degraded()
	}

	respond(w, http.StatusOK, HealthInfo{
		Status:           "healthy",
		Version:          Version,
		Uptime:           time.Since(startTime).String(),
		ProviderDegraded: degraded,
		SQLiteDriver:     sqlite.DriverType(),
	})
}

// handleVerse handles GET /verse?ref=John+3:16&translation=KJV.
// Resolution never fails: total backend failure still yields an
// offline-mode passage with a 200 status.
func handleVerse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	ref := sanitizeQuery(r.URL.Query().Get("ref"))
	if ref == "" {
		respondError(w, http.StatusBadRequest, "MISSING_REF", "ref query parameter is required")
		return
	}

	translation := translationParam(r)
	passage := services.Resolver.Resolve(r.Context(), ref, translation)
	respond(w, http.StatusOK, passage)
}

// handleDaily handles GET /daily?translation=KJV.
func handleDaily(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	passage := services.Daily.Verse(r.Context(), translationParam(r))
	respond(w, http.StatusOK, passage)
}

// handleSearch handles GET /search?q=forgiveness&translation=KJV&limit=10.
func handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	query := sanitizeQuery(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "MISSING_QUERY", "q query parameter is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	resp := services.Search.Search(r.Context(), query, translationParam(r), limit)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(APIResponse{
		Success: true,
		Data:    resp,
		Meta: &APIMeta{
			Total:     len(resp.Results),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// handleAnswer handles POST /answer. The response body always carries a
// complete answer object; degraded backends surface through its
// isApiError and reason fields rather than an HTTP error.
func handleAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	req.Question = sanitizeQuery(req.Question)
	if req.Question == "" {
		respondError(w, http.StatusBadRequest, "MISSING_QUESTION", "question is required")
		return
	}

	answer := services.Pipeline.GenerateAnswer(r.Context(), req.Question, orDefault(req.Translation))

	result := map[string]interface{}{"answer": answer}
	if services.Store != nil {
		if id, err := services.Store.SaveAnswer(r.Context(), req.Question, answer); err == nil {
			result["id"] = id
		}
	}
	respond(w, http.StatusOK, result)
}

// handleStudy handles POST /study.
func handleStudy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	var req StudyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	req.Topic = sanitizeQuery(req.Topic)
	if req.Topic == "" {
		respondError(w, http.StatusBadRequest, "MISSING_TOPIC", "topic is required")
		return
	}

	study := services.Pipeline.GenerateStudy(r.Context(), req.Topic, orDefault(req.Translation))

	result := map[string]interface{}{"study": study}
	if services.Store != nil {
		if id, err := services.Store.SaveStudy(r.Context(), req.Topic, study); err == nil {
			result["id"] = id
		}
	}
	respond(w, http.StatusOK, result)
}

// handleStudies handles GET /studies.
func handleStudies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	if services.Store == nil {
		respond(w, http.StatusOK, []interface{}{})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	studies, err := services.Store.ListStudies(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to list studies")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(APIResponse{
		Success: true,
		Data:    studies,
		Meta: &APIMeta{
			Total:     len(studies),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// handleStudyByID handles GET /studies/{id}.
func handleStudyByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/studies/")
	if id == "" {
		respondError(w, http.StatusBadRequest, "MISSING_ID", "Study ID is required")
		return
	}
	if !server.ValidateAlphanumeric(id) {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid study ID")
		return
	}
	if services.Store == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Study not found")
		return
	}

	saved, err := services.Store.Study(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Study not found")
		return
	}
	respond(w, http.StatusOK, saved)
}

// handleTranslations handles GET /translations.
func handleTranslations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	translations := scripture.Translations()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(APIResponse{
		Success: true,
		Data:    translations,
		Meta: &APIMeta{
			Total:     len(translations),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// sanitizeQuery strips control characters and bounds the length of
// free-form user input.
func sanitizeQuery(input string) string {
	return server.LimitStringLength(server.SanitizeUserInput(input), maxQueryLength)
}

// translationParam reads the translation query parameter, defaulting
// when absent or malformed.
func translationParam(r *http.Request) string {
	return orDefault(r.URL.Query().Get("translation"))
}

func orDefault(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || !server.ValidateAlphanumeric(code) {
		return scripture.DefaultTranslation
	}
	return code
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
