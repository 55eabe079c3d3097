// Package jobs defines the async job contracts for receipt extraction.
// The in-memory implementation lives in jobs/inmemory; a multi-instance
// deployment would swap in Cloud Tasks or Pub/Sub behind the same
// interfaces.
package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeExtractReceipt runs the receipt extraction pipeline on an
	// uploaded image.
	JobTypeExtractReceipt JobType = "extract_receipt"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// ExtractReceiptJob asks the worker to run extraction on a receipt image
// already stored in GCS.
type ExtractReceiptJob struct {
	JobID string `json:"job_id"`

	ReceiptID string `json:"receipt_id"`
	GCSURI    string `json:"gcs_uri"`
	MimeType  string `json:"mime_type"`
	UserEmail string `json:"user_email"`

	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ExtractReceiptJob) GetID() string        { return j.JobID }
func (j *ExtractReceiptJob) GetType() JobType     { return JobTypeExtractReceipt }
func (j *ExtractReceiptJob) GetStatus() JobStatus { return j.Status }

// Publisher publishes jobs to a queue.
type Publisher interface {
	// PublishExtractReceipt publishes a receipt extraction job.
	PublishExtractReceipt(ctx context.Context, job *ExtractReceiptJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer consumes jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs; handler is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A returned error marks the job failed and
// eligible for retry.
type JobHandler func(ctx context.Context, job Job) error

// JobStore stores and retrieves job status so the dashboard can poll
// extraction progress.
type JobStore interface {
	SaveJob(ctx context.Context, job *ExtractReceiptJob) error
	GetJob(ctx context.Context, jobID string) (*ExtractReceiptJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ExtractReceiptJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	ReceiptID string
	Status    JobStatus
	Limit     int
	Offset    int
}
