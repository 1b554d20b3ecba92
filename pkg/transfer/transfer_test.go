package transfer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/cache"
	"github.com/David-Botos/sensor-ingress/pkg/cleaner"
	"github.com/David-Botos/sensor-ingress/pkg/content"
	"github.com/David-Botos/sensor-ingress/pkg/converter"
	"github.com/David-Botos/sensor-ingress/pkg/ingest"
	"github.com/David-Botos/sensor-ingress/pkg/model"
	"github.com/David-Botos/sensor-ingress/pkg/pipeline"
	"github.com/David-Botos/sensor-ingress/pkg/store"
)

const exportCSV = `Report time,Asset name,Install location,Project,Content
2025-10-09 14:04:20,Before Scrub,Outlet,projectD,"CO2: 400; Temperature: 21.5"
not a date,Before Scrub,Outlet,projectD,CO2: 500
2025-10-09 14:05:20,After Scrub,Outlet,projectD,Status: ok
`

type fixture struct {
	manager *Manager
	store   *store.Store
	db      *sqlx.DB
}

func newFixture(t *testing.T, paramCache *cache.ParamCache) fixture {
	t.Helper()

	db, err := sqlx.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "sensors.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	s, err := store.New(db, converter.DialectSQLite, nil, store.Options{BatchSize: 1}, logger)
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema(context.Background()))

	p, err := pipeline.New(pipeline.BasicConfig(content.DefaultLabelTable()), nil, logger)
	require.NoError(t, err)

	m, err := NewManager(p, s, paramCache, logger)
	require.NoError(t, err)

	return fixture{manager: m, store: s, db: db}
}

func TestNewManagerValidation(t *testing.T) {
	p, err := pipeline.New(pipeline.ExtendedConfig(), nil, nil)
	require.NoError(t, err)

	_, err = NewManager(nil, nil, nil, nil)
	assert.Error(t, err)
	_, err = NewManager(p, nil, nil, nil)
	assert.Error(t, err)
}

func TestIngestStoresReadings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	summary, err := f.manager.Ingest(ctx, strings.NewReader(exportCSV), "export.csv")
	require.NoError(t, err)

	assert.True(t, summary.OK)
	assert.NotEmpty(t, summary.BatchID)
	assert.Equal(t, 4, summary.ReceivedRows)
	assert.Equal(t, 4, summary.PreparedRows)
	assert.Equal(t, int64(2), summary.InsertedRows)
	assert.Equal(t, 2, summary.SkippedRows)

	count, err := f.store.CountBatch(ctx, summary.BatchID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	readings, err := f.manager.Query(ctx, store.QueryFilter{SensorType: store.SensorTypeAll, Start: 0, End: time.Now().UnixMilli()})
	require.NoError(t, err)
	require.Len(t, readings, 2)
	for _, r := range readings {
		require.NotNil(t, r.AssetName)
		assert.Equal(t, "Before Scrub", *r.AssetName)
		require.NotNil(t, r.Project)
		assert.Equal(t, "projectD", *r.Project)
	}

	assert.Equal(t, 1, f.manager.Metrics().SuccessfulUploads)
	assert.Equal(t, int64(2), f.manager.Metrics().TotalRowsInserted)
}

func TestIngestFailures(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		body     string
		category ErrorCategory
		target   error
	}{
		{"unsupported extension", "export.xls", exportCSV, ErrorCategoryInput, ingest.ErrUnsupportedFormat},
		{"empty file", "export.csv", "", ErrorCategoryInput, ingest.ErrNoHeader},
		{"no content column", "export.csv", "Report time,Asset name\n2025-10-09 14:04:20,Before Scrub\n", ErrorCategoryStructural, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			summary, err := f.manager.Ingest(context.Background(), strings.NewReader(tt.body), tt.filename)
			require.Error(t, err)
			assert.Nil(t, summary)
			assert.Equal(t, tt.category, CategorizeError(err))
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			assert.Equal(t, 1, f.manager.Metrics().FailedUploads)
			assert.Equal(t, 1, f.manager.Metrics().ErrorCounts[tt.category])
		})
	}
}

func TestIngestMissingContentIsStructural(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.manager.Ingest(context.Background(), strings.NewReader("Asset name\nBefore Scrub\n"), "export.csv")
	require.Error(t, err)

	var missing *model.MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "content", missing.Column)
	assert.Equal(t, []string{"Asset name"}, missing.Found)
}

func TestIngestRecordsCleaningAudit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	require.NoError(t, f.manager.pipeline.Cleaner().EnableAudit(ctx, f.db, converter.DialectSQLite))

	summary, err := f.manager.Ingest(ctx, strings.NewReader(exportCSV), "export.csv")
	require.NoError(t, err)

	var audited int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE batch_id = ?", cleaner.AuditTable)
	require.NoError(t, f.db.Get(&audited, query, summary.BatchID))
	assert.Greater(t, audited, 0)
	assert.Equal(t, audited, f.manager.Metrics().TotalCleaningOps)
}

func TestParamsAreCachedAndInvalidated(t *testing.T) {
	ctx := context.Background()
	client := cache.NewMemoryClient()
	defer client.Close()
	f := newFixture(t, cache.NewParamCache(client, time.Minute, nil))

	_, err := f.manager.Ingest(ctx, strings.NewReader(exportCSV), "first.csv")
	require.NoError(t, err)

	params, err := f.manager.Params(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Before Scrub"}, params.AssetName)

	_, err = client.Get(ctx, cache.ParamsKey)
	require.NoError(t, err, "params should be cached after the first read")

	second := strings.Replace(exportCSV, "2025-10-09 14:04:20,Before Scrub", "2025-10-09 14:04:20,Interlock 4C", 1)
	_, err = f.manager.Ingest(ctx, strings.NewReader(second), "second.csv")
	require.NoError(t, err)

	_, err = client.Get(ctx, cache.ParamsKey)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	params, err = f.manager.Params(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Before Scrub", "Interlock 4C"}, params.AssetName)
}

func TestCategorizeError(t *testing.T) {
	missing := &model.MissingColumnError{Column: "content"}

	tests := []struct {
		err  error
		want ErrorCategory
	}{
		{nil, ErrorCategoryNone},
		{missing, ErrorCategoryStructural},
		{fmt.Errorf("wrapped: %w", &StageError{Stage: StagePipeline, Err: missing}), ErrorCategoryStructural},
		{ingest.ErrUnsupportedFormat, ErrorCategoryInput},
		{&StageError{Stage: StageRead, Err: errors.New("bad zip")}, ErrorCategoryInput},
		{&StageError{Stage: StageStore, Err: errors.New("disk full")}, ErrorCategoryStorage},
		{&StageError{Stage: StageVerify, Err: ErrRowCountMismatch}, ErrorCategoryStorage},
		{errors.New("boom"), ErrorCategoryInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CategorizeError(tt.err), "%v", tt.err)
	}
}

func TestErrorRecordString(t *testing.T) {
	rec := NewErrorRecord(&StageError{Stage: StageStore, Err: errors.New("disk full")}, "b1")
	assert.Equal(t, StageStore, rec.Stage)
	assert.Equal(t, "[Storage] Batch: b1 Stage: store Error: store failed: disk full", rec.String())
	assert.Equal(t, "Unknown(42)", ErrorCategory(42).String())
}

func TestVerifyBatchMismatch(t *testing.T) {
	f := newFixture(t, nil)

	report, err := NewVerifier(f.store, zap.NewNop()).VerifyBatch(context.Background(), "missing-batch", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRowCountMismatch)
	require.NotNil(t, report)
	assert.False(t, report.RowCountMatches)
	assert.Equal(t, int64(0), report.StoredRows)
}

func TestMetricsReport(t *testing.T) {
	m := NewUploadMetrics(nil)

	ok := NewUploadResult(NewUploadJob("a.csv"))
	ok.InsertedRows = 10
	ok.ReceivedRows = 12
	ok.SkippedRows = 2
	ok.Complete(true)
	m.RecordUpload(ok)

	failed := NewUploadResult(NewUploadJob("b.csv"))
	failed.AddError(NewErrorRecord(ingest.ErrNoHeader, failed.Job.ID))
	failed.Complete(false)
	m.RecordUpload(failed)

	report := m.GenerateMetricsReport()
	assert.Contains(t, report, "Successful Uploads:      1 (50.0%)")
	assert.Contains(t, report, "- Input: 1")

	data, err := m.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"totalRowsInserted":10`)
	assert.Contains(t, string(data), `"Input":1`)
}
