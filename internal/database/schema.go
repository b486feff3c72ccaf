package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notice type codes. These are the only values allowed in the
// notice_types table; they are seeded at startup and at the beginning of
// every nightly ingestion.
const (
	NoticeTypeMod     string = "MOD"
	NoticeTypeCombine string = "COMBINE"
	NoticeTypePresol  string = "PRESOL"
	NoticeTypeAmdcss  string = "AMDCSS"
	NoticeTypeTrain   string = "TRAIN"
)

func NoticeTypeCodes() []string {
	return []string{NoticeTypeMod, NoticeTypeCombine, NoticeTypePresol, NoticeTypeAmdcss, NoticeTypeTrain}
}

type NoticeType struct {
	Id         uint   `gorm:"primaryKey"`
	NoticeType string `gorm:"size:50;uniqueIndex;not null"`

	Notices []Notice `gorm:"many2many:notice_type_associations"`
}

type Notice struct {
	Id uint `gorm:"primaryKey"`

	NoticeNumber string `gorm:"size:150;uniqueIndex;not null"`
	Agency       string
	NoticeData   string
	Compliant    int `gorm:"not null;default:0"`

	CreationTime time.Time

	Attachments []Attachment `gorm:"foreignKey:NoticeId;constraint:OnDelete:CASCADE"`
	NoticeTypes []NoticeType `gorm:"many2many:notice_type_associations"`
}

type Attachment struct {
	Id       uint `gorm:"primaryKey"`
	NoticeId uint `gorm:"not null;index"`

	Prediction       int
	DecisionBoundary float64
	AttachmentURL    string
	AttachmentText   string

	// Validation is null until a human has reviewed the attachment's
	// label; the stored value is the reviewed label itself.
	Validation sql.NullInt64
	Trained    bool `gorm:"default:false"`
}

type Model struct {
	Id uint `gorm:"primaryKey"`

	Estimator    string         `gorm:"size:100;not null;index"`
	Params       datatypes.JSON `gorm:"type:jsonb"`
	CreationTime time.Time
}

const (
	RunRunning   string = "RUNNING"
	RunCompleted string = "COMPLETED"
	RunFailed    string = "FAILED"
)

type IngestionRun struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Status         string `gorm:"size:20;not null"`
	CreationTime   time.Time
	CompletionTime sql.NullTime

	NoticeCount     int `gorm:"default:0"`
	AttachmentCount int `gorm:"default:0"`

	Errors []IngestionError `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
}

type IngestionError struct {
	RunId     uuid.UUID `gorm:"type:uuid;primaryKey"`
	ErrorId   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Error     string
	Timestamp time.Time
}
