// Package handler exposes promises, their results and party analytics over
// HTTP. Listing and detail reads are open to guests; the selectors scope what
// each actor sees.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"promisetracker/internal/access"
	"promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
	"promisetracker/pkg/platform/httputil"
	"promisetracker/pkg/requestcontext"
)

type PromiseService interface {
	Create(ctx context.Context, actor access.Actor, in models.PromiseInput) (*models.Promise, error)
	Edit(ctx context.Context, actor access.Actor, promiseID id.PromiseID, in models.PromiseInput) (*models.Promise, error)
	Delete(ctx context.Context, actor access.Actor, promiseID id.PromiseID) error
	Evaluate(ctx context.Context, actor access.Actor, promiseID id.PromiseID, status models.ReviewStatus) (*models.Promise, error)
}

type ResultService interface {
	Create(ctx context.Context, actor access.Actor, in models.ResultInput) (*models.Result, error)
	Edit(ctx context.Context, actor access.Actor, resultID id.ResultID, in models.ResultInput) (*models.Result, error)
	Delete(ctx context.Context, actor access.Actor, resultID id.ResultID) error
	Evaluate(ctx context.Context, actor access.Actor, resultID id.ResultID, status models.ReviewStatus) (*models.Result, error)
}

type PromiseSelector interface {
	List(ctx context.Context, actor access.Actor, filters models.PromiseFilters) ([]*models.Promise, error)
	ByID(ctx context.Context, actor access.Actor, promiseID id.PromiseID) (*models.Promise, error)
}

type ResultSelector interface {
	ByPromise(ctx context.Context, actor access.Actor, promiseID id.PromiseID) ([]*models.Result, error)
	List(ctx context.Context, actor access.Actor, filters models.ResultFilters) ([]*models.Result, error)
	ByID(ctx context.Context, actor access.Actor, resultID id.ResultID) (*models.Result, error)
}

type AnalyticsSelector interface {
	Analytics(ctx context.Context, partyID *id.PartyID) ([]models.AnalyticsRecord, error)
}

// Dependencies groups the use cases the handler delegates to.
type Dependencies struct {
	Promises        PromiseService
	Results         ResultService
	PromiseReader   PromiseSelector
	ResultReader    ResultSelector
	AnalyticsReader AnalyticsSelector
}

type Handler struct {
	Dependencies
	logger *slog.Logger
}

func New(deps Dependencies, logger *slog.Logger) *Handler {
	return &Handler{Dependencies: deps, logger: logger}
}

// Register mounts the promise, result and analytics routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/promises", h.HandleListPromises)
	r.Get("/promises/{id}", h.HandleGetPromise)
	r.Get("/promises/{id}/results", h.HandleListPromiseResults)
	r.Get("/analytics", h.HandleAnalytics)

	r.Group(func(r chi.Router) {
		r.Use(access.RequireRoles(access.RoleRegisteredUser, access.RoleAdministrator))
		r.Get("/results/mine", h.HandleListMyResults)

		r.Group(func(r chi.Router) {
			r.Use(access.RequireVerified)
			r.Post("/promises", h.HandleCreatePromise)
			r.Put("/promises/{id}", h.HandleEditPromise)
			r.Delete("/promises/{id}", h.HandleDeletePromise)
			r.Post("/promises/{id}/results", h.HandleCreateResult)
			r.Put("/promises/{id}/results/{resultID}", h.HandleEditResult)
			r.Delete("/promises/{id}/results/{resultID}", h.HandleDeleteResult)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(access.RequireRoles(access.RoleAdministrator))
		r.Get("/results", h.HandleListResults)

		r.Group(func(r chi.Router) {
			r.Use(access.RequireVerified)
			r.Post("/promises/{id}/approve", h.evaluatePromise(models.ReviewApproved))
			r.Post("/promises/{id}/reject", h.evaluatePromise(models.ReviewRejected))
			r.Post("/promises/{id}/results/{resultID}/approve", h.evaluateResult(models.ReviewApproved))
			r.Post("/promises/{id}/results/{resultID}/reject", h.evaluateResult(models.ReviewRejected))
		})
	})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	h.logger.WarnContext(ctx, op+" failed",
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
