package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Transact runs fn inside a single transaction: commit on nil, rollback
// and propagate on error. The session is released on every exit path.
func Transact(ctx context.Context, db *gorm.DB, fn func(txn *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// FetchNoticeTypeId returns the primary key for a notice type code, or 0
// if the code is not present.
func FetchNoticeTypeId(ctx context.Context, db *gorm.DB, noticeType string) (uint, error) {
	var nt NoticeType
	err := db.WithContext(ctx).Where("notice_type = ?", noticeType).First(&nt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("error fetching notice type %s: %w", noticeType, err)
	}
	return nt.Id, nil
}

// FetchNoticeType returns the row for a notice type code, or nil if the
// code is not present.
func FetchNoticeType(ctx context.Context, db *gorm.DB, noticeType string) (*NoticeType, error) {
	var nt NoticeType
	err := db.WithContext(ctx).Where("notice_type = ?", noticeType).First(&nt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching notice type %s: %w", noticeType, err)
	}
	return &nt, nil
}

func FetchNoticeTypeById(ctx context.Context, db *gorm.DB, noticeTypeId uint) (*NoticeType, error) {
	var nt NoticeType
	err := db.WithContext(ctx).First(&nt, noticeTypeId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching notice type %d: %w", noticeTypeId, err)
	}
	return &nt, nil
}

// SeedNoticeTypes creates any of the fixed notice type codes that are not
// already present. It is idempotent, but not safe under concurrent
// callers; seeding is expected to run single-threaded at startup and at
// the start of an ingestion.
func SeedNoticeTypes(ctx context.Context, db *gorm.DB) error {
	for _, code := range NoticeTypeCodes() {
		var nt NoticeType
		if err := db.WithContext(ctx).
			Where(NoticeType{NoticeType: code}).
			FirstOrCreate(&nt).Error; err != nil {
			return fmt.Errorf("error seeding notice type %s: %w", code, err)
		}
	}
	return nil
}

// AddModel records the estimator and its parameter set after a training
// run completes.
func AddModel(ctx context.Context, db *gorm.DB, estimator string, params map[string]any) (*Model, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("could not marshal model params: %w", err)
	}

	model := Model{
		Estimator:    estimator,
		Params:       datatypes.JSON(encoded),
		CreationTime: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, fmt.Errorf("error creating model record: %w", err)
	}
	return &model, nil
}

// QueryModel returns the first model recorded for an estimator, or nil if
// none exists.
func QueryModel(ctx context.Context, db *gorm.DB, estimator string) (*Model, error) {
	var model Model
	err := db.WithContext(ctx).Where("estimator = ?", estimator).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying model %s: %w", estimator, err)
	}
	return &model, nil
}

// FetchNoticeId returns the primary key for a solicitation number, or 0
// if no notice has it.
func FetchNoticeId(ctx context.Context, db *gorm.DB, noticeNumber string) (uint, error) {
	var notice Notice
	err := db.WithContext(ctx).Where("notice_number = ?", noticeNumber).First(&notice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("error fetching notice %s: %w", noticeNumber, err)
	}
	return notice.Id, nil
}

// FetchNotice returns the notice for a solicitation number, or nil if no
// notice has it.
func FetchNotice(ctx context.Context, db *gorm.DB, noticeNumber string) (*Notice, error) {
	var notice Notice
	err := db.WithContext(ctx).Where("notice_number = ?", noticeNumber).First(&notice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching notice %s: %w", noticeNumber, err)
	}
	return &notice, nil
}

// FetchNoticeById returns a notice with its attachments and notice type
// links, or nil if the id is unknown.
func FetchNoticeById(ctx context.Context, db *gorm.DB, noticeId uint) (*Notice, error) {
	var notice Notice
	err := db.WithContext(ctx).
		Preload("Attachments").
		Preload("NoticeTypes").
		First(&notice, noticeId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching notice %d: %w", noticeId, err)
	}
	return &notice, nil
}

// ListNoticesByType returns the notices linked to a notice type code,
// attachments included.
func ListNoticesByType(ctx context.Context, db *gorm.DB, noticeType string) ([]Notice, error) {
	var notices []Notice
	err := db.WithContext(ctx).
		Joins("JOIN notice_type_associations nta ON nta.notice_id = notices.id").
		Joins("JOIN notice_types nt ON nt.id = nta.notice_type_id").
		Where("nt.notice_type = ?", noticeType).
		Preload("Attachments").
		Preload("NoticeTypes").
		Find(&notices).Error
	if err != nil {
		return nil, fmt.Errorf("error listing notices for type %s: %w", noticeType, err)
	}
	return notices, nil
}
