package transfer

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// UploadMetrics tracks metrics across the uploads of one process
type UploadMetrics struct {
	mu                sync.Mutex
	logger            *zap.Logger
	StartTime         time.Time
	SuccessfulUploads int
	FailedUploads     int
	TotalRowsReceived int64
	TotalRowsInserted int64
	TotalRowsSkipped  int64
	TotalCleaningOps  int
	TotalDuration     time.Duration
	ErrorCounts       map[ErrorCategory]int
}

// NewUploadMetrics creates a new UploadMetrics instance
func NewUploadMetrics(logger *zap.Logger) *UploadMetrics {
	return &UploadMetrics{
		StartTime:   time.Now(),
		ErrorCounts: make(map[ErrorCategory]int),
		logger:      logger,
	}
}

// RecordUpload records metrics for a completed upload
func (m *UploadMetrics) RecordUpload(result *UploadResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalDuration += result.Duration
	if !result.Success {
		m.FailedUploads++
		for _, rec := range result.Errors {
			m.ErrorCounts[rec.Category]++
		}
		return
	}

	m.SuccessfulUploads++
	m.TotalRowsReceived += int64(result.ReceivedRows)
	m.TotalRowsInserted += result.InsertedRows
	m.TotalRowsSkipped += int64(result.SkippedRows)
	m.TotalCleaningOps += result.CleaningOps

	if m.logger != nil {
		m.logger.Info("Recorded upload",
			zap.String("batch_id", result.Job.ID),
			zap.String("file", result.Job.Filename),
			zap.Duration("duration", result.Duration),
			zap.Int64("inserted", result.InsertedRows),
			zap.Int("skipped", result.SkippedRows))
	}
}

// CalculateThroughput calculates the average rows inserted per second of upload time
func (m *UploadMetrics) CalculateThroughput() float64 {
	if m.TotalDuration <= 0 {
		return 0
	}
	return float64(m.TotalRowsInserted) / m.TotalDuration.Seconds()
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// GenerateMetricsReport creates a metrics report
func (m *UploadMetrics) GenerateMetricsReport() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.SuccessfulUploads + m.FailedUploads
	report := fmt.Sprintf(`
Upload Metrics Report
=====================
Uptime:                  %s
Uploads:                 %d
Successful Uploads:      %d (%.1f%%)
Failed Uploads:          %d (%.1f%%)

Data Summary
------------
Total Rows Received:     %d
Total Rows Inserted:     %d
Total Rows Skipped:      %d
Total Cleaning Ops:      %d
Average Throughput:      %.2f rows/sec
`,
		formatDuration(time.Since(m.StartTime)),
		total,
		m.SuccessfulUploads, getPercentage(float64(m.SuccessfulUploads), float64(total)),
		m.FailedUploads, getPercentage(float64(m.FailedUploads), float64(total)),

		m.TotalRowsReceived,
		m.TotalRowsInserted,
		m.TotalRowsSkipped,
		m.TotalCleaningOps,
		m.CalculateThroughput(),
	)

	if len(m.ErrorCounts) > 0 {
		report += "\nError Distribution\n------------------\n"
		categories := make([]ErrorCategory, 0, len(m.ErrorCounts))
		for category := range m.ErrorCounts {
			categories = append(categories, category)
		}
		sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
		for _, category := range categories {
			report += fmt.Sprintf("- %s: %d\n", category, m.ErrorCounts[category])
		}
	}

	return report
}

// getPercentage safely calculates a percentage, avoiding division by zero
func getPercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * 100
}

// ToJSON serializes metrics to JSON
func (m *UploadMetrics) ToJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	errorCounts := make(map[string]int, len(m.ErrorCounts))
	for category, count := range m.ErrorCounts {
		errorCounts[category.String()] = count
	}

	return json.Marshal(struct {
		Uptime            string         `json:"uptime"`
		SuccessfulUploads int            `json:"successfulUploads"`
		FailedUploads     int            `json:"failedUploads"`
		TotalRowsInserted int64          `json:"totalRowsInserted"`
		TotalRowsSkipped  int64          `json:"totalRowsSkipped"`
		Throughput        float64        `json:"throughput"`
		ErrorCounts       map[string]int `json:"errorCounts"`
	}{
		Uptime:            formatDuration(time.Since(m.StartTime)),
		SuccessfulUploads: m.SuccessfulUploads,
		FailedUploads:     m.FailedUploads,
		TotalRowsInserted: m.TotalRowsInserted,
		TotalRowsSkipped:  m.TotalRowsSkipped,
		Throughput:        m.CalculateThroughput(),
		ErrorCounts:       errorCounts,
	})
}
