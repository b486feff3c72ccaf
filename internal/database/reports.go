package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Gap between human-validated and trained attachment counts above which
// a revalidation pass should be scheduled.
const revalidationThreshold = 1000

// GetValidationCount counts attachments whose label has been human
// reviewed (validation is non-null).
func GetValidationCount(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&Attachment{}).
		Where("validation IS NOT NULL").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting validated attachments: %w", err)
	}
	return count, nil
}

// GetTrainedCount counts attachments whose label has been used in a
// training run.
func GetTrainedCount(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&Attachment{}).
		Where("trained = ?", true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting trained attachments: %w", err)
	}
	return count, nil
}

// GetCompliantTotal sums the compliance flag across all notices.
func GetCompliantTotal(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&Notice{}).
		Select("COALESCE(SUM(compliant), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("error summing notice compliance: %w", err)
	}
	return total, nil
}

// NeedsRevalidation reports whether enough validated-but-untrained
// attachments have accumulated to warrant a revalidation pass.
func NeedsRevalidation(ctx context.Context, db *gorm.DB) (bool, error) {
	validated, err := GetValidationCount(ctx, db)
	if err != nil {
		return false, err
	}
	trained, err := GetTrainedCount(ctx, db)
	if err != nil {
		return false, err
	}
	return validated-trained > revalidationThreshold, nil
}
