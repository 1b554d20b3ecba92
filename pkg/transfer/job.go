package transfer

import (
	"time"

	"github.com/google/uuid"

	"github.com/David-Botos/sensor-ingress/pkg/pipeline"
)

// UploadJob represents one uploaded file being ingested
type UploadJob struct {
	ID        string    // Batch id stamped on every stored reading
	Filename  string    // Name the file was uploaded under
	CreatedAt time.Time // Job creation timestamp
}

// NewUploadJob creates a job with a fresh batch id
func NewUploadJob(filename string) UploadJob {
	return UploadJob{
		ID:        uuid.New().String(),
		Filename:  filename,
		CreatedAt: time.Now(),
	}
}

// UploadResult represents the result of an upload
type UploadResult struct {
	Job          UploadJob
	Success      bool
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	ReceivedRows int   // rows coming out of the pipeline
	PreparedRows int   // rows mapped onto sensor_data
	InsertedRows int64 // rows written
	SkippedRows  int   // rows dropped for a null sensor_type, value or timestamp
	CleaningOps  int
	Stats        pipeline.Stats
	Errors       []ErrorRecord
}

// NewUploadResult creates a new upload result
func NewUploadResult(job UploadJob) *UploadResult {
	return &UploadResult{
		Job:       job,
		StartTime: time.Now(),
		Errors:    make([]ErrorRecord, 0),
	}
}

// Complete marks the upload as complete with the given success status
func (r *UploadResult) Complete(success bool) {
	r.Success = success
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

// AddError adds an error to the result
func (r *UploadResult) AddError(err ErrorRecord) {
	r.Errors = append(r.Errors, err)
}

// HasErrors checks if the result has any errors
func (r *UploadResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Summary returns the response body of a successful upload
func (r *UploadResult) Summary() *UploadSummary {
	return &UploadSummary{
		OK:           r.Success,
		BatchID:      r.Job.ID,
		ReceivedRows: r.ReceivedRows,
		PreparedRows: r.PreparedRows,
		InsertedRows: r.InsertedRows,
		SkippedRows:  r.SkippedRows,
	}
}

// UploadSummary is reported back to the uploader
type UploadSummary struct {
	OK           bool   `json:"ok"`
	BatchID      string `json:"batch_id"`
	ReceivedRows int    `json:"received_rows"`
	PreparedRows int    `json:"prepared_rows"`
	InsertedRows int64  `json:"inserted_rows"`
	SkippedRows  int    `json:"skipped_rows"`
}
