package api

import (
	"encoding/json"

	"notice-backend/internal/database"
	"notice-backend/pkg/api"
)

func convertNoticeType(nt database.NoticeType) api.NoticeType {
	return api.NoticeType{Id: nt.Id, NoticeType: nt.NoticeType}
}

func convertNoticeTypes(nts []database.NoticeType) []api.NoticeType {
	types := make([]api.NoticeType, 0, len(nts))
	for _, nt := range nts {
		types = append(types, convertNoticeType(nt))
	}
	return types
}

func convertAttachment(a database.Attachment) api.Attachment {
	return api.Attachment{
		Id:               a.Id,
		NoticeId:         a.NoticeId,
		Prediction:       a.Prediction,
		DecisionBoundary: a.DecisionBoundary,
		URL:              a.AttachmentURL,
		Validated:        a.Validation.Valid,
		Trained:          a.Trained,
	}
}

func convertNotice(n database.Notice) api.Notice {
	notice := api.Notice{
		Id:           n.Id,
		NoticeNumber: n.NoticeNumber,
		Agency:       n.Agency,
		Compliant:    n.Compliant,
	}
	for _, nt := range n.NoticeTypes {
		notice.NoticeTypes = append(notice.NoticeTypes, nt.NoticeType)
	}
	for _, a := range n.Attachments {
		notice.Attachments = append(notice.Attachments, convertAttachment(a))
	}
	return notice
}

func convertNotices(ns []database.Notice) []api.Notice {
	notices := make([]api.Notice, 0, len(ns))
	for _, n := range ns {
		notices = append(notices, convertNotice(n))
	}
	return notices
}

func convertModel(m database.Model) api.Model {
	return api.Model{
		Id:           m.Id,
		Estimator:    m.Estimator,
		Params:       json.RawMessage(m.Params),
		CreationTime: m.CreationTime,
	}
}

func convertModels(ms []database.Model) []api.Model {
	models := make([]api.Model, 0, len(ms))
	for _, m := range ms {
		models = append(models, convertModel(m))
	}
	return models
}

func convertRun(r database.IngestionRun) api.IngestionRun {
	run := api.IngestionRun{
		Id:              r.Id,
		Status:          r.Status,
		CreationTime:    r.CreationTime,
		NoticeCount:     r.NoticeCount,
		AttachmentCount: r.AttachmentCount,
	}
	if r.CompletionTime.Valid {
		t := r.CompletionTime.Time
		run.CompletionTime = &t
	}
	for _, e := range r.Errors {
		run.Errors = append(run.Errors, e.Error)
	}
	return run
}

func convertRuns(rs []database.IngestionRun) []api.IngestionRun {
	runs := make([]api.IngestionRun, 0, len(rs))
	for _, r := range rs {
		runs = append(runs, convertRun(r))
	}
	return runs
}
