// Package job is the crawler API's small in-memory job registry: job id to
// status, pages-crawled, and queue-size, polled by GET /job-status/{job_id}.
package job

import (
	"sync"

	"github.com/google/uuid"
)

// Status is the coarse lifecycle state of a dispatched crawl job.
type Status string

const (
	StatusStarting   Status = "starting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Source reports the live counters a Job's status is derived from. *frontier.Frontier
// satisfies this via its QueueSize/PagesCrawled accessors.
type Source interface {
	QueueSize() int
	PagesCrawled() int
}

// StatusResult is the shape returned by GET /job-status/{job_id}.
type StatusResult struct {
	Status       Status `json:"status"`
	PagesCrawled int    `json:"pages_crawled"`
	QueueSize    int    `json:"queue_size"`
}

type entry struct {
	source Source
}

// Registry is a process-wide, mutex-guarded map of job id to its status
// source.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*entry
}

// NewRegistry builds an empty job Registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*entry)}
}

// Start registers a new job id backed by source and returns the generated id.
func (r *Registry) Start(source Source) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id] = &entry{source: source}
	return id
}

// Status computes the job's current status from its live source: an empty
// queue with pages already crawled means completed, any pages crawled with
// a non-empty queue means in progress, and otherwise the job is still
// starting up.
func (r *Registry) Status(id string) (StatusResult, bool) {
	r.mu.Lock()
	e, ok := r.jobs[id]
	r.mu.Unlock()
	if !ok {
		return StatusResult{}, false
	}

	queueSize := e.source.QueueSize()
	pagesCrawled := e.source.PagesCrawled()

	status := StatusStarting
	switch {
	case queueSize == 0 && pagesCrawled > 0:
		status = StatusCompleted
	case pagesCrawled > 0:
		status = StatusInProgress
	}

	return StatusResult{Status: status, PagesCrawled: pagesCrawled, QueueSize: queueSize}, true
}
