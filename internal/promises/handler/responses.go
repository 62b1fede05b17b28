package handler

import (
	"time"

	"promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
)

type ReviewResponse struct {
	Status   models.ReviewStatus `json:"review_status"`
	Date     *time.Time          `json:"review_date,omitempty"`
	Reviewer *id.UserID          `json:"reviewer,omitempty"`
}

type PromiseResponse struct {
	ID          id.PromiseID     `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Sources     []string         `json:"sources"`
	Date        string           `json:"date"`
	Party       id.PartyID       `json:"party"`
	Convocation id.ConvocationID `json:"convocation"`
	ReviewResponse
	CreatedBy *id.UserID `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toPromiseResponse(p *models.Promise) PromiseResponse {
	return PromiseResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Sources:        p.Sources,
		Date:           id.FormatDate(p.Date),
		Party:          p.PartyID,
		Convocation:    p.ConvocationID,
		ReviewResponse: toReviewResponse(p.Review),
		CreatedBy:      p.CreatedBy,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

type ResultResponse struct {
	ID          id.ResultID              `json:"id"`
	Promise     id.PromiseID             `json:"promise"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Sources     []string                 `json:"sources"`
	Date        string                   `json:"date"`
	IsFinal     bool                     `json:"is_final"`
	Status      *models.CompletionStatus `json:"status,omitempty"`
	ReviewResponse
	CreatedBy *id.UserID `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toResultResponse(r *models.Result) ResultResponse {
	return ResultResponse{
		ID:             r.ID,
		Promise:        r.PromiseID,
		Name:           r.Name,
		Description:    r.Description,
		Sources:        r.Sources,
		Date:           id.FormatDate(r.Date),
		IsFinal:        r.IsFinal,
		Status:         r.Status,
		ReviewResponse: toReviewResponse(r.Review),
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func toResultResponses(results []*models.Result) []ResultResponse {
	out := make([]ResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, toResultResponse(r))
	}
	return out
}

func toReviewResponse(r models.Review) ReviewResponse {
	return ReviewResponse{Status: r.Status, Date: r.Date, Reviewer: r.Reviewer}
}
