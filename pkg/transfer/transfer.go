// Package transfer orchestrates uploads: reading the file, decoding it,
// storing the readings and verifying the batch.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/cache"
	"github.com/David-Botos/sensor-ingress/pkg/ingest"
	"github.com/David-Botos/sensor-ingress/pkg/pipeline"
	"github.com/David-Botos/sensor-ingress/pkg/store"
)

// Manager orchestrates the upload process
type Manager struct {
	pipeline *pipeline.Pipeline
	store    *store.Store
	verifier *Verifier
	cache    *cache.ParamCache
	metrics  *UploadMetrics
	logger   *zap.Logger
}

// NewManager creates a new upload manager. paramCache may be nil.
func NewManager(
	p *pipeline.Pipeline,
	s *store.Store,
	paramCache *cache.ParamCache,
	logger *zap.Logger,
) (*Manager, error) {
	if p == nil {
		return nil, errors.New("pipeline cannot be nil")
	}
	if s == nil {
		return nil, errors.New("store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		pipeline: p,
		store:    s,
		verifier: NewVerifier(s, logger),
		cache:    paramCache,
		metrics:  NewUploadMetrics(logger),
		logger:   logger,
	}, nil
}

// Metrics returns the upload metrics collected so far
func (m *Manager) Metrics() *UploadMetrics {
	return m.metrics
}

// Store returns the sink the manager writes to
func (m *Manager) Store() *store.Store {
	return m.store
}

// Ingest decodes an uploaded file and stores its readings under a new batch id
func (m *Manager) Ingest(ctx context.Context, r io.Reader, filename string) (*UploadSummary, error) {
	job := NewUploadJob(filename)
	result := NewUploadResult(job)

	m.logger.Info("Starting upload",
		zap.String("batch_id", job.ID),
		zap.String("file", filename))

	table, err := ingest.ReadTable(r, filename)
	if err != nil {
		return nil, m.fail(result, &StageError{Stage: StageRead, Err: err})
	}

	res, err := m.pipeline.Run(table, job.ID)
	if err != nil {
		return nil, m.fail(result, &StageError{Stage: StagePipeline, Err: err})
	}
	result.Stats = res.Stats
	result.ReceivedRows = res.Table.Len()

	readings, prepared := m.store.PrepareRows(res.Table, res.Stats.BroadenedColumns)
	result.PreparedRows = prepared.Prepared
	result.SkippedRows = prepared.Skipped

	inserted, err := m.store.InsertReadings(ctx, job.ID, readings)
	if err != nil {
		return nil, m.fail(result, &StageError{Stage: StageStore, Err: err})
	}
	result.InsertedRows = inserted

	if _, err := m.verifier.VerifyBatch(ctx, job.ID, inserted); err != nil {
		return nil, m.fail(result, &StageError{Stage: StageVerify, Err: err})
	}

	// The audit trail is advisory; a failure here does not undo the upload
	if err := m.pipeline.Cleaner().RecordCleaningOperations(ctx, res.Operations); err != nil {
		m.logger.Warn("Failed to record cleaning operations",
			zap.String("batch_id", job.ID),
			zap.Error(err))
	} else {
		result.CleaningOps = len(res.Operations)
	}

	if inserted > 0 {
		m.cache.Invalidate(ctx)
	}

	result.Complete(true)
	m.metrics.RecordUpload(result)

	return result.Summary(), nil
}

// Query returns stored readings matching the filter
func (m *Manager) Query(ctx context.Context, f store.QueryFilter) ([]store.Reading, error) {
	readings, err := m.store.Query(ctx, f)
	if err != nil {
		return nil, &StageError{Stage: StageStore, Err: err}
	}
	return readings, nil
}

// Params returns the distinct metadata values, from the cache when possible
func (m *Manager) Params(ctx context.Context) (*store.Params, error) {
	if params, ok := m.cache.Get(ctx); ok {
		return params, nil
	}

	params, err := m.store.Params(ctx)
	if err != nil {
		return nil, &StageError{Stage: StageStore, Err: err}
	}
	m.cache.Set(ctx, params)
	return params, nil
}

// fail completes a failed upload and returns its error
func (m *Manager) fail(result *UploadResult, err error) error {
	record := NewErrorRecord(err, result.Job.ID)
	result.AddError(record)
	result.Complete(false)
	m.metrics.RecordUpload(result)

	m.logger.Error("Upload failed",
		zap.String("batch_id", result.Job.ID),
		zap.String("file", result.Job.Filename),
		zap.String("category", record.Category.String()),
		zap.Error(err))

	return fmt.Errorf("failed to ingest %s: %w", result.Job.Filename, err)
}
