// Package jobstatus keeps the last known coarse status per download job for
// polling-style queries, independent of the streaming progress channel.
package jobstatus

import "sync"

// Statuses recorded by the download handler. StatusNotFound is the sentinel
// reported for unknown job ids.
const (
	StatusNotFound   = "not_found"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Status is the last known state of one job.
type Status struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Store is an in-memory job status map. Entries live until cleared; nothing
// survives a process restart.
type Store struct {
	mu   sync.Mutex
	jobs map[string]Status
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]Status)}
}

// Set unconditionally overwrites the status for the job.
func (s *Store) Set(id, status, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = Status{Status: status, Message: message}
}

// Get returns a snapshot of the job's status. Unknown ids report the
// not_found sentinel; Get never fails.
func (s *Store) Get(id string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.jobs[id]
	if !ok {
		return Status{Status: StatusNotFound, Message: "no job with that id"}
	}
	return st
}

// Clear removes the job's entry. Unknown ids are a no-op.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}
