package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"notice-backend/internal/database"
	"notice-backend/pkg/api"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ingestor loads nightly prediction payloads into normalized notice,
// attachment, and notice type link rows.
type Ingestor struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewIngestor(db *gorm.DB) *Ingestor {
	return &Ingestor{db: db, validate: validator.New()}
}

// InsertNightlyFile ingests one nightly payload. Each notice commits
// with its attachments and notice type link in a single transaction, so
// a failure partway through leaves prior notices intact and never leaves
// a partially written notice. The input is not modified.
func (ing *Ingestor) InsertNightlyFile(ctx context.Context, file api.NightlyFile) (*database.IngestionRun, error) {
	run := database.IngestionRun{
		Id:           uuid.New(),
		Status:       database.RunRunning,
		CreationTime: time.Now().UTC(),
	}
	if err := ing.db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, fmt.Errorf("error creating ingestion run: %w", err)
	}

	if err := database.Transact(ctx, ing.db, func(txn *gorm.DB) error {
		return database.SeedNoticeTypes(ctx, txn)
	}); err != nil {
		return ing.fail(ctx, &run, err)
	}

	// Map iteration order is random; sort for a deterministic ingest
	// order and reproducible partial results on failure.
	codes := make([]string, 0, len(file))
	for code := range file {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		noticeType, err := database.FetchNoticeType(ctx, ing.db, code)
		if err != nil {
			return ing.fail(ctx, &run, err)
		}
		if noticeType == nil {
			return ing.fail(ctx, &run, fmt.Errorf("unknown notice type %q in nightly file", code))
		}

		for _, record := range file[code] {
			if err := ing.validate.Struct(record); err != nil {
				return ing.fail(ctx, &run, fmt.Errorf("invalid record for notice type %s: %w", code, err))
			}

			notice := database.Notice{
				NoticeNumber: record.SolNbr,
				Agency:       record.Agency,
				// TODO: confirm whether notice_data should carry the raw
				// notice payload; the upstream loader has always written
				// this placeholder.
				NoticeData:   "test",
				Compliant:    record.Compliant,
				CreationTime: time.Now().UTC(),
				NoticeTypes:  []database.NoticeType{*noticeType},
			}
			for _, doc := range record.Attachments {
				attachment := database.Attachment{
					Prediction:       doc.Prediction,
					DecisionBoundary: doc.DecisionBoundary,
					AttachmentURL:    doc.URL,
					AttachmentText:   doc.Text,
					Trained:          doc.Trained,
				}
				if doc.Validation != nil {
					attachment.Validation = sql.NullInt64{Int64: *doc.Validation, Valid: true}
				}
				notice.Attachments = append(notice.Attachments, attachment)
			}

			if err := database.Transact(ctx, ing.db, func(txn *gorm.DB) error {
				return txn.Create(&notice).Error
			}); err != nil {
				return ing.fail(ctx, &run, fmt.Errorf("error inserting notice %s: %w", record.SolNbr, err))
			}

			run.NoticeCount++
			run.AttachmentCount += len(notice.Attachments)
		}
	}

	run.Status = database.RunCompleted
	run.CompletionTime = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	if err := ing.db.WithContext(ctx).Save(&run).Error; err != nil {
		return nil, fmt.Errorf("error completing ingestion run: %w", err)
	}

	slog.Info("nightly file ingested", "run_id", run.Id, "notices", run.NoticeCount, "attachments", run.AttachmentCount)
	return &run, nil
}

// fail records the error against the run, marks it failed, and returns
// the original error. Notices committed before the failure are kept.
func (ing *Ingestor) fail(ctx context.Context, run *database.IngestionRun, cause error) (*database.IngestionRun, error) {
	slog.Error("nightly ingestion failed", "run_id", run.Id, "error", cause)

	ingestionError := database.IngestionError{
		RunId:     run.Id,
		ErrorId:   uuid.New(),
		Error:     cause.Error(),
		Timestamp: time.Now().UTC(),
	}
	if err := ing.db.WithContext(ctx).Create(&ingestionError).Error; err != nil {
		slog.Error("error saving ingestion error", "run_id", run.Id, "error", err)
	}

	run.Status = database.RunFailed
	run.CompletionTime = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	if err := ing.db.WithContext(ctx).Save(run).Error; err != nil {
		slog.Error("error marking ingestion run failed", "run_id", run.Id, "error", err)
	}

	return run, cause
}
