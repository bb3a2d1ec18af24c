// Package session tracks detection jobs across API calls, so
// asynchronous clients can submit a frame and poll for the result.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-facefind/pkg/detect"
)

// State is a job lifecycle stage.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Store retention defaults.
const (
	DefaultMaxJobs = 256
	DefaultTTL     = 10 * time.Minute
)

// Job is one tracked detection request. Result is set once the
// pipeline finishes; a result with Success=false moves the job to
// StateFailed.
type Job struct {
	ID          string                  `json:"id"`
	Source      string                  `json:"source"`
	State       State                   `json:"state"`
	SubmittedAt time.Time               `json:"submitted_at"`
	CompletedAt time.Time               `json:"completed_at,omitempty"`
	Result      *detect.DetectionResult `json:"result,omitempty"`
}

// Store keeps recent jobs in memory. Expired and over-capacity jobs
// are evicted lazily on writes and listings.
type Store struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	order   []string // insertion order, oldest first
	maxJobs int
	ttl     time.Duration
}

// NewStore creates a store with default retention.
func NewStore() *Store {
	return NewStoreWithLimits(DefaultMaxJobs, DefaultTTL)
}

// NewStoreWithLimits creates a store holding at most maxJobs entries,
// each retained for ttl after submission.
func NewStoreWithLimits(maxJobs int, ttl time.Duration) *Store {
	if maxJobs < 1 {
		maxJobs = 1
	}
	return &Store{
		jobs:    make(map[string]*Job),
		maxJobs: maxJobs,
		ttl:     ttl,
	}
}

// Create registers a queued job and returns a snapshot of it.
func (s *Store) Create(source string) Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &Job{
		ID:          uuid.NewString(),
		Source:      source,
		State:       StateQueued,
		SubmittedAt: time.Now(),
	}
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)

	s.pruneLocked(time.Now())
	return *job
}

// MarkRunning transitions a queued job to running. Reports whether
// the job was found.
func (s *Store) MarkRunning(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	job.State = StateRunning
	return true
}

// Complete attaches a result and finishes the job. Reports whether
// the job was found.
func (s *Store) Complete(id string, res detect.DetectionResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	job.Result = &res
	job.CompletedAt = time.Now()
	if res.Success {
		job.State = StateCompleted
	} else {
		job.State = StateFailed
	}
	return true
}

// Get returns a snapshot of one job.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Recent returns up to limit jobs, newest first.
func (s *Store) Recent(limit int) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(time.Now())

	if limit <= 0 || limit > len(s.order) {
		limit = len(s.order)
	}
	out := make([]Job, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		if job, ok := s.jobs[s.order[i]]; ok {
			out = append(out, *job)
		}
	}
	return out
}

// Len reports the number of retained jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Clear removes all jobs.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make(map[string]*Job)
	s.order = nil
}

// pruneLocked drops expired jobs, then enforces the capacity cap by
// evicting oldest first. Callers hold the write lock.
func (s *Store) pruneLocked(now time.Time) {
	if s.ttl > 0 {
		kept := s.order[:0]
		for _, id := range s.order {
			job, ok := s.jobs[id]
			if !ok {
				continue
			}
			if now.Sub(job.SubmittedAt) > s.ttl {
				delete(s.jobs, id)
				continue
			}
			kept = append(kept, id)
		}
		s.order = kept
	}

	for len(s.order) > s.maxJobs {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.jobs, oldest)
	}
}
