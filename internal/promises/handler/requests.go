package handler

import (
	"strings"
	"time"

	"promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
)

// PromiseRequest is the body of POST and PUT /promises.
type PromiseRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Sources     []string         `json:"sources"`
	Date        string           `json:"date"`
	Party       id.PartyID       `json:"party"`
	Convocation id.ConvocationID `json:"convocation"`
}

func (r *PromiseRequest) ToInput() (models.PromiseInput, error) {
	date, err := requiredDate(r.Date)
	if err != nil {
		return models.PromiseInput{}, err
	}
	return models.PromiseInput{
		Name:          r.Name,
		Description:   r.Description,
		Sources:       r.Sources,
		Date:          date,
		PartyID:       r.Party,
		ConvocationID: r.Convocation,
	}, nil
}

// ResultRequest is the body of POST and PUT /promises/{id}/results.
type ResultRequest struct {
	Promise     *id.PromiseID `json:"promise,omitempty"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Sources     []string      `json:"sources"`
	Date        string        `json:"date"`
	IsFinal     bool          `json:"is_final"`
	Status      string        `json:"status"`
}

// ToInput targets pathPromise unless the body names a promise.
func (r *ResultRequest) ToInput(pathPromise id.PromiseID) (models.ResultInput, error) {
	date, err := requiredDate(r.Date)
	if err != nil {
		return models.ResultInput{}, err
	}
	status, err := parseCompletionStatus(r.Status)
	if err != nil {
		return models.ResultInput{}, err
	}
	promiseID := pathPromise
	if r.Promise != nil {
		promiseID = *r.Promise
	}
	return models.ResultInput{
		PromiseID:   promiseID,
		Name:        r.Name,
		Description: r.Description,
		Sources:     r.Sources,
		Date:        date,
		IsFinal:     r.IsFinal,
		Status:      status,
	}, nil
}

func parseCompletionStatus(raw string) (*models.CompletionStatus, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return nil, nil
	}
	status := models.CompletionStatus(raw)
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be COMPLETED or ABANDONED")
	}
	return &status, nil
}

func requiredDate(s string) (time.Time, error) {
	d, err := id.ParseOptionalDate(s)
	if err != nil || d == nil {
		return time.Time{}, err
	}
	return *d, nil
}
