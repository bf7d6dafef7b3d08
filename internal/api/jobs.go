package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job kinds accepted by POST /jobs.
const (
	JobKindStudy  = "study"
	JobKindAnswer = "answer"
)

// JobRequest is the request body for creating a generation job.
type JobRequest struct {
	Kind        string `json:"kind"` // "study" or "answer"
	Topic       string `json:"topic,omitempty"`
	Question    string `json:"question,omitempty"`
	Translation string `json:"translation,omitempty"`
}

// JobResult carries the output of a completed generation job.
type JobResult struct {
	StoreID string      `json:"store_id,omitempty"`
	Output  interface{} `json:"output"`
}

// Job represents an asynchronous generation job.
type Job struct {
	ID          string             `json:"id"`
	Status      JobStatus          `json:"status"`
	Progress    int                `json:"progress"` // 0-100
	Result      *JobResult         `json:"result,omitempty"`
	Error       string             `json:"error,omitempty"`
	CreatedAt   string             `json:"created_at"`
	UpdatedAt   string             `json:"updated_at"`
	CompletedAt string             `json:"completed_at,omitempty"`
	Request     JobRequest         `json:"request"`
	ctx         context.Context    `json:"-"`
	cancel      context.CancelFunc `json:"-"`
}

// JobStore manages generation jobs in memory.
type JobStore struct {
	jobs map[string]*Job
	mu   sync.RWMutex
}

// NewJobStore creates a new job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
	}
}

var globalJobStore = NewJobStore()

// Create creates a new job and returns it.
func (s *JobStore) Create(req JobRequest) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now().UTC().Format(time.RFC3339)

	job := &Job{
		ID:        uuid.New().String(),
		Status:    JobStatusPending,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
		Request:   req,
		ctx:       ctx,
		cancel:    cancel,
	}

	s.jobs[job.ID] = job
	return job
}

// Get retrieves a job by ID.
func (s *JobStore) Get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[id]
	return job, exists
}

// Update updates a job's status and progress.
func (s *JobStore) Update(id string, status JobStatus, progress int, result *JobResult, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	job.Status = status
	job.Progress = progress
	job.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if result != nil {
		job.Result = result
	}
	if errMsg != "" {
		job.Error = errMsg
	}
	if status == JobStatusCompleted || status == JobStatusFailed || status == JobStatusCancelled {
		job.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	}

	return nil
}

// List returns all jobs.
func (s *JobStore) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// Cancel cancels a pending or running job.
func (s *JobStore) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	if job.Status != JobStatusPending && job.Status != JobStatusRunning {
		return fmt.Errorf("job cannot be cancelled (status: %s)", job.Status)
	}

	if job.cancel != nil {
		job.cancel()
	}

	job.Status = JobStatusCancelled
	job.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	job.CompletedAt = time.Now().UTC().Format(time.RFC3339)

	return nil
}

// runJob executes a generation job in a goroutine. Generation itself
// never errors: backend failures surface inside the produced object, so
// jobs only fail on cancellation or storage problems.
func runJob(job *Job) {
	go func() {
		globalJobStore.Update(job.ID, JobStatusRunning, 10, nil, "")
		BroadcastProgress(job.Request.Kind, "generating", "Generation started", 10)

		translation := orDefault(job.Request.Translation)

		var (
			output  interface{}
			storeID string
		)

		switch job.Request.Kind {
		case JobKindStudy:
			study := services.Pipeline.GenerateStudy(job.ctx, job.Request.Topic, translation)
			output = study
			if services.Store != nil {
				if id, err := services.Store.SaveStudy(job.ctx, job.Request.Topic, study); err == nil {
					storeID = id
				}
			}
		case JobKindAnswer:
			answer := services.Pipeline.GenerateAnswer(job.ctx, job.Request.Question, translation)
			output = answer
			if services.Store != nil {
				if id, err := services.Store.SaveAnswer(job.ctx, job.Request.Question, answer); err == nil {
					storeID = id
				}
			}
		}

		select {
		case <-job.ctx.Done():
			globalJobStore.Update(job.ID, JobStatusCancelled, 90, nil, "Job cancelled by user")
			BroadcastError(job.Request.Kind, "Job cancelled")
			return
		default:
		}

		globalJobStore.Update(job.ID, JobStatusCompleted, 100, &JobResult{
			StoreID: storeID,
			Output:  output,
		}, "")
		BroadcastComplete(job.Request.Kind, "Generation finished", map[string]interface{}{
			"job_id":   job.ID,
			"store_id": storeID,
		})
	}()
}

// handleJobs handles POST /jobs - create a generation job - and
// GET /jobs - list jobs.
func handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jobs := globalJobStore.List()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(APIResponse{
			Success: true,
			Data:    jobs,
			Meta: &APIMeta{
				Total:     len(jobs),
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			},
		})
	case http.MethodPost:
		createJobHandler(w, r)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and POST are allowed")
	}
}

func createJobHandler(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	req.Topic = sanitizeQuery(req.Topic)
	req.Question = sanitizeQuery(req.Question)

	switch req.Kind {
	case JobKindStudy:
		if req.Topic == "" {
			respondError(w, http.StatusBadRequest, "MISSING_TOPIC", "topic is required for study jobs")
			return
		}
	case JobKindAnswer:
		if req.Question == "" {
			respondError(w, http.StatusBadRequest, "MISSING_QUESTION", "question is required for answer jobs")
			return
		}
	default:
		respondError(w, http.StatusBadRequest, "INVALID_KIND", `kind must be "study" or "answer"`)
		return
	}

	job := globalJobStore.Create(req)
	runJob(job)

	respond(w, http.StatusCreated, job)
}

// handleJobByID handles GET /jobs/{id} and DELETE /jobs/{id}.
func handleJobByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" {
		respondError(w, http.StatusBadRequest, "MISSING_ID", "Job ID is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		getJobHandler(w, r, id)
	case http.MethodDelete:
		cancelJobHandler(w, r, id)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and DELETE are allowed")
	}
}

func getJobHandler(w http.ResponseWriter, r *http.Request, id string) {
	job, exists := globalJobStore.Get(id)
	if !exists {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
		return
	}

	respond(w, http.StatusOK, job)
}

func cancelJobHandler(w http.ResponseWriter, r *http.Request, id string) {
	if err := globalJobStore.Cancel(id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "CANCEL_FAILED", err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]string{"message": "Job cancelled"})
}
