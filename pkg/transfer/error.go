package transfer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/David-Botos/sensor-ingress/pkg/ingest"
	"github.com/David-Botos/sensor-ingress/pkg/model"
)

// ErrorCategory defines categories of errors during an upload
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	// ErrorCategoryInput covers files that could not be read
	ErrorCategoryInput
	// ErrorCategoryStructural covers tables missing a required column
	ErrorCategoryStructural
	// ErrorCategoryStorage covers failures of the sink
	ErrorCategoryStorage
	ErrorCategoryInternal
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryInput:
		return "Input"
	case ErrorCategoryStructural:
		return "Structural"
	case ErrorCategoryStorage:
		return "Storage"
	case ErrorCategoryInternal:
		return "Internal"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// Stage names the step of an upload that failed
type Stage string

const (
	StageRead     Stage = "read"
	StagePipeline Stage = "pipeline"
	StageStore    Stage = "store"
	StageVerify   Stage = "verify"
)

// StageError ties an error to the upload stage it came from
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ErrorRecord represents a single error during an upload
type ErrorRecord struct {
	Category  ErrorCategory
	BatchID   string
	Stage     Stage
	Error     error
	Message   string // Derived from Error but stored for serialization
	Timestamp time.Time
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, batchID string) ErrorRecord {
	record := ErrorRecord{
		Category:  CategorizeError(err),
		BatchID:   batchID,
		Error:     err,
		Timestamp: time.Now(),
	}

	var stageErr *StageError
	if errors.As(err, &stageErr) {
		record.Stage = stageErr.Stage
	}
	if err != nil {
		record.Message = err.Error()
	}

	return record
}

// String returns a formatted error message
func (r ErrorRecord) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", r.Category))

	if r.BatchID != "" {
		sb.WriteString(fmt.Sprintf("Batch: %s ", r.BatchID))
	}
	if r.Stage != "" {
		sb.WriteString(fmt.Sprintf("Stage: %s ", r.Stage))
	}
	sb.WriteString(fmt.Sprintf("Error: %s", r.Message))

	return sb.String()
}

// CategorizeError determines the category of an error
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}

	var missing *model.MissingColumnError
	if errors.As(err, &missing) {
		return ErrorCategoryStructural
	}
	if errors.Is(err, ingest.ErrUnsupportedFormat) || errors.Is(err, ingest.ErrNoHeader) {
		return ErrorCategoryInput
	}

	var stageErr *StageError
	if errors.As(err, &stageErr) {
		switch stageErr.Stage {
		case StageRead:
			return ErrorCategoryInput
		case StageStore, StageVerify:
			return ErrorCategoryStorage
		}
	}

	return ErrorCategoryInternal
}
