package api

import (
	"errors"
	"log/slog"
	"net/http"

	"notice-backend/internal/database"
	"notice-backend/internal/ingest"
	"notice-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type NoticeService struct {
	db       *gorm.DB
	ingestor *ingest.Ingestor
}

func NewNoticeService(db *gorm.DB) *NoticeService {
	return &NoticeService{db: db, ingestor: ingest.NewIngestor(db)}
}

func (s *NoticeService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Route("/notices", func(r chi.Router) {
		r.Post("/nightly", RestHandler(s.IngestNightlyFile))
		r.Get("/", RestHandler(s.ListNotices))
		r.Get("/{notice_id}", RestHandler(s.GetNotice))
	})
	r.Get("/notice-types", RestHandler(s.ListNoticeTypes))
	r.Get("/models", RestHandler(s.ListModels))
	r.Get("/stats", RestHandler(s.GetStats))
	r.Route("/ingestions", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListIngestionRuns))
		r.Get("/{run_id}", RestHandler(s.GetIngestionRun))
	})
}

func (s *NoticeService) IngestNightlyFile(r *http.Request) (any, error) {
	file, err := ParseRequest[api.NightlyFile](r)
	if err != nil {
		return nil, err
	}
	if len(file) == 0 {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "nightly file contains no notice types")
	}

	run, err := s.ingestor.InsertNightlyFile(r.Context(), file)
	if err != nil {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "nightly ingestion failed: %v", err)
	}

	return api.IngestResponse{RunId: run.Id, NoticeCount: run.NoticeCount, AttachmentCount: run.AttachmentCount}, nil
}

type listNoticesParams struct {
	NoticeType string `schema:"notice_type"`
	Agency     string `schema:"agency"`
	Limit      int    `schema:"limit"`
	Offset     int    `schema:"offset"`
}

func (s *NoticeService) ListNotices(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[listNoticesParams](r)
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	if params.NoticeType != "" {
		notices, err := database.ListNoticesByType(ctx, s.db, params.NoticeType)
		if err != nil {
			slog.Error("error listing notices by type", "notice_type", params.NoticeType, "error", err)
			return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving notices")
		}
		return convertNotices(notices), nil
	}

	query := s.db.WithContext(ctx).Preload("Attachments").Preload("NoticeTypes")
	if params.Agency != "" {
		query = query.Where("agency = ?", params.Agency)
	}
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}

	var notices []database.Notice
	if err := query.Find(&notices).Error; err != nil {
		slog.Error("error listing notices", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving notices")
	}
	return convertNotices(notices), nil
}

func (s *NoticeService) GetNotice(r *http.Request) (any, error) {
	noticeId, err := URLParamUint(r, "notice_id")
	if err != nil {
		return nil, err
	}

	notice, err := database.FetchNoticeById(r.Context(), s.db, noticeId)
	if err != nil {
		slog.Error("error getting notice", "notice_id", noticeId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving notice record")
	}
	if notice == nil {
		return nil, CodedErrorf(http.StatusNotFound, "notice not found")
	}

	return convertNotice(*notice), nil
}

func (s *NoticeService) ListNoticeTypes(r *http.Request) (any, error) {
	var types []database.NoticeType
	if err := s.db.WithContext(r.Context()).Order("id").Find(&types).Error; err != nil {
		slog.Error("error listing notice types", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving notice types")
	}
	return convertNoticeTypes(types), nil
}

type listModelsParams struct {
	Estimator string `schema:"estimator"`
}

func (s *NoticeService) ListModels(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[listModelsParams](r)
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	if params.Estimator != "" {
		model, err := database.QueryModel(ctx, s.db, params.Estimator)
		if err != nil {
			slog.Error("error querying model", "estimator", params.Estimator, "error", err)
			return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving model record")
		}
		if model == nil {
			return nil, CodedErrorf(http.StatusNotFound, "model not found")
		}
		return []api.Model{convertModel(*model)}, nil
	}

	var models []database.Model
	if err := s.db.WithContext(ctx).Find(&models).Error; err != nil {
		slog.Error("error listing models", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving model records")
	}
	return convertModels(models), nil
}

func (s *NoticeService) GetStats(r *http.Request) (any, error) {
	ctx := r.Context()

	validated, err := database.GetValidationCount(ctx, s.db)
	if err != nil {
		slog.Error("error counting validated attachments", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing stats")
	}
	trained, err := database.GetTrainedCount(ctx, s.db)
	if err != nil {
		slog.Error("error counting trained attachments", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing stats")
	}
	compliant, err := database.GetCompliantTotal(ctx, s.db)
	if err != nil {
		slog.Error("error summing notice compliance", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing stats")
	}
	revalidate, err := database.NeedsRevalidation(ctx, s.db)
	if err != nil {
		slog.Error("error checking revalidation threshold", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing stats")
	}

	return api.Stats{
		ValidationCount:      validated,
		TrainedCount:         trained,
		CompliantTotal:       compliant,
		RevalidationRequired: revalidate,
	}, nil
}

func (s *NoticeService) ListIngestionRuns(r *http.Request) (any, error) {
	var runs []database.IngestionRun
	if err := s.db.WithContext(r.Context()).Order("creation_time DESC").Find(&runs).Error; err != nil {
		slog.Error("error listing ingestion runs", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving ingestion runs")
	}
	return convertRuns(runs), nil
}

func (s *NoticeService) GetIngestionRun(r *http.Request) (any, error) {
	runId, err := URLParamUUID(r, "run_id")
	if err != nil {
		return nil, err
	}

	var run database.IngestionRun
	err = s.db.WithContext(r.Context()).Preload("Errors").First(&run, "id = ?", runId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "ingestion run not found")
		}
		slog.Error("error getting ingestion run", "run_id", runId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving ingestion run")
	}

	return convertRun(run), nil
}
