package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/store"
)

// ErrRowCountMismatch is returned when a batch holds a different number of
// rows than were inserted for it
var ErrRowCountMismatch = errors.New("stored row count does not match inserted rows")

// VerificationReport contains the results of a batch verification
type VerificationReport struct {
	BatchID          string
	VerificationTime time.Time
	RowCountMatches  bool
	InsertedRows     int64
	StoredRows       int64
	Duration         time.Duration
}

// Verifier checks that uploaded batches landed in the sink
type Verifier struct {
	store   *store.Store
	logger  *zap.Logger
	timeout time.Duration
}

// NewVerifier creates a new verifier
func NewVerifier(s *store.Store, logger *zap.Logger) *Verifier {
	return &Verifier{
		store:   s,
		logger:  logger,
		timeout: time.Minute, // Default 1-minute timeout
	}
}

// WithTimeout sets a custom timeout for verification operations
func (v *Verifier) WithTimeout(timeout time.Duration) *Verifier {
	v.timeout = timeout
	return v
}

// VerifyBatch verifies the stored row count of a batch matches what was inserted
func (v *Verifier) VerifyBatch(ctx context.Context, batchID string, inserted int64) (*VerificationReport, error) {
	startTime := time.Now()
	report := &VerificationReport{
		BatchID:          batchID,
		VerificationTime: startTime,
		InsertedRows:     inserted,
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	stored, err := v.store.CountBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to count batch rows: %w", err)
	}
	report.StoredRows = stored
	report.RowCountMatches = stored == inserted
	report.Duration = time.Since(startTime)

	if !report.RowCountMatches {
		v.logger.Warn("Row count mismatch",
			zap.String("batch_id", batchID),
			zap.Int64("inserted", inserted),
			zap.Int64("stored", stored))
		return report, fmt.Errorf("%w: inserted %d, stored %d", ErrRowCountMismatch, inserted, stored)
	}

	v.logger.Debug("Batch verified",
		zap.String("batch_id", batchID),
		zap.Int64("rows", stored),
		zap.Duration("duration", report.Duration))

	return report, nil
}
