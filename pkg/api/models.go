package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NightlyFile is the nightly prediction payload produced by the scraping
// and classification pipeline, keyed by notice type code.
type NightlyFile map[string][]NoticePrediction

type NoticePrediction struct {
	SolNbr    string `json:"solnbr" validate:"required"`
	Agency    string `json:"agency"`
	Compliant int    `json:"compliant"`

	Attachments []AttachmentPrediction `json:"attachments" validate:"dive"`
}

type AttachmentPrediction struct {
	Prediction       int     `json:"prediction"`
	DecisionBoundary float64 `json:"decision_boundary"`
	URL              string  `json:"url" validate:"required"`
	Text             string  `json:"text"`
	Validation       *int64  `json:"validation"`
	Trained          bool    `json:"trained"`
}

type NoticeType struct {
	Id         uint
	NoticeType string
}

type Notice struct {
	Id           uint
	NoticeNumber string
	Agency       string
	Compliant    int

	NoticeTypes []string     `json:"NoticeTypes,omitempty"`
	Attachments []Attachment `json:"Attachments,omitempty"`
}

type Attachment struct {
	Id               uint
	NoticeId         uint
	Prediction       int
	DecisionBoundary float64
	URL              string
	Validated        bool
	Trained          bool
}

type Model struct {
	Id           uint
	Estimator    string
	Params       json.RawMessage `json:"Params,omitempty"`
	CreationTime time.Time
}

type IngestionRun struct {
	Id              uuid.UUID
	Status          string
	CreationTime    time.Time
	CompletionTime  *time.Time `json:"CompletionTime,omitempty"`
	NoticeCount     int
	AttachmentCount int

	Errors []string `json:"Errors,omitempty"`
}

type IngestResponse struct {
	RunId           uuid.UUID
	NoticeCount     int
	AttachmentCount int
}

type Stats struct {
	ValidationCount      int64
	TrainedCount         int64
	CompliantTotal       int64
	RevalidationRequired bool
}
