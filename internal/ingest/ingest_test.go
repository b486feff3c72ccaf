package ingest_test

import (
	"context"
	"testing"

	"notice-backend/internal/database"
	"notice-backend/internal/ingest"
	"notice-backend/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.GetMigrator(db).Migrate())

	return db
}

func int64Ptr(v int64) *int64 { return &v }

func TestInsertNightlyFile(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	file := api.NightlyFile{
		database.NoticeTypePresol: {
			{
				SolNbr:    "spe4a6-18-q-0465",
				Agency:    "defense logistics agency",
				Compliant: 1,
				Attachments: []api.AttachmentPrediction{
					{Prediction: 1, DecisionBoundary: 0.5, URL: "https://example.gov/doc1", Text: "some document text", Validation: int64Ptr(1), Trained: false},
					{Prediction: 0, DecisionBoundary: 0.5, URL: "https://example.gov/doc2", Text: "other document text"},
				},
			},
		},
	}

	run, err := ingest.NewIngestor(db).InsertNightlyFile(ctx, file)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, database.RunCompleted, run.Status)
	assert.Equal(t, 1, run.NoticeCount)
	assert.Equal(t, 2, run.AttachmentCount)
	assert.True(t, run.CompletionTime.Valid)

	notice, err := database.FetchNotice(ctx, db, "spe4a6-18-q-0465")
	require.NoError(t, err)
	require.NotNil(t, notice)
	assert.Equal(t, "defense logistics agency", notice.Agency)
	assert.Equal(t, 1, notice.Compliant)

	var attachments []database.Attachment
	require.NoError(t, db.Find(&attachments).Error)
	require.Len(t, attachments, 2)
	for _, a := range attachments {
		assert.Equal(t, notice.Id, a.NoticeId)
	}

	linked, err := database.ListNoticesByType(ctx, db, database.NoticeTypePresol)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, notice.Id, linked[0].Id)

	// All five codes are seeded even when the file only carries one.
	var typeCount int64
	require.NoError(t, db.Model(&database.NoticeType{}).Count(&typeCount).Error)
	assert.Equal(t, int64(5), typeCount)
}

func TestInsertNightlyFileSeedingIsIdempotent(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()
	ingestor := ingest.NewIngestor(db)

	_, err := ingestor.InsertNightlyFile(ctx, api.NightlyFile{
		database.NoticeTypeMod: {{SolNbr: "first-solnbr"}},
	})
	require.NoError(t, err)

	_, err = ingestor.InsertNightlyFile(ctx, api.NightlyFile{
		database.NoticeTypeMod: {{SolNbr: "second-solnbr"}},
	})
	require.NoError(t, err)

	var typeCount int64
	require.NoError(t, db.Model(&database.NoticeType{}).Count(&typeCount).Error)
	assert.Equal(t, int64(5), typeCount)
}

func TestPartialFailureKeepsPriorNotices(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	file := api.NightlyFile{
		database.NoticeTypeCombine: {
			{
				SolNbr: "fa8571-18-q-0001",
				Attachments: []api.AttachmentPrediction{
					{URL: "https://example.gov/kept"},
				},
			},
			{
				// Duplicate solicitation number violates the unique
				// constraint; this notice's transaction rolls back.
				SolNbr: "fa8571-18-q-0001",
				Attachments: []api.AttachmentPrediction{
					{URL: "https://example.gov/discarded1"},
					{URL: "https://example.gov/discarded2"},
				},
			},
		},
	}

	run, err := ingest.NewIngestor(db).InsertNightlyFile(ctx, file)
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, database.RunFailed, run.Status)

	// The first notice's commit survives; nothing from the failed
	// notice does.
	var noticeCount int64
	require.NoError(t, db.Model(&database.Notice{}).Count(&noticeCount).Error)
	assert.Equal(t, int64(1), noticeCount)

	var attachments []database.Attachment
	require.NoError(t, db.Find(&attachments).Error)
	require.Len(t, attachments, 1)
	assert.Equal(t, "https://example.gov/kept", attachments[0].AttachmentURL)

	var errorCount int64
	require.NoError(t, db.Model(&database.IngestionError{}).Where("run_id = ?", run.Id).Count(&errorCount).Error)
	assert.Equal(t, int64(1), errorCount)
}

func TestUnknownNoticeTypeFails(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	run, err := ingest.NewIngestor(db).InsertNightlyFile(ctx, api.NightlyFile{
		"BOGUS": {{SolNbr: "anything"}},
	})
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, database.RunFailed, run.Status)

	var noticeCount int64
	require.NoError(t, db.Model(&database.Notice{}).Count(&noticeCount).Error)
	assert.Zero(t, noticeCount)
}

func TestRecordValidationRejectsMissingSolnbr(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	run, err := ingest.NewIngestor(db).InsertNightlyFile(ctx, api.NightlyFile{
		database.NoticeTypeTrain: {{Agency: "no solicitation number"}},
	})
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, database.RunFailed, run.Status)
}

func TestInputIsNotMutated(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	record := api.NoticePrediction{
		SolNbr: "w912dy-18-r-0010",
		Agency: "army corps of engineers",
		Attachments: []api.AttachmentPrediction{
			{URL: "https://example.gov/doc"},
		},
	}
	file := api.NightlyFile{database.NoticeTypeAmdcss: {record}}

	_, err := ingest.NewIngestor(db).InsertNightlyFile(ctx, file)
	require.NoError(t, err)

	assert.Equal(t, "w912dy-18-r-0010", file[database.NoticeTypeAmdcss][0].SolNbr)
	assert.Equal(t, "army corps of engineers", file[database.NoticeTypeAmdcss][0].Agency)
	assert.Len(t, file[database.NoticeTypeAmdcss][0].Attachments, 1)
}
