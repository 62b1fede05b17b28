package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"promisetracker/internal/access"
	"promisetracker/internal/promises/models"
	"promisetracker/internal/promises/selector"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	"promisetracker/pkg/platform/httputil"
)

// HandleListPromiseResults handles GET /promises/{id}/results.
func (h *Handler) HandleListPromiseResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	promiseID, err := id.ParsePromiseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	results, err := h.ResultReader.ByPromise(ctx, access.FromContext(ctx), promiseID)
	if err != nil {
		h.fail(ctx, w, "list promise results", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Paginate(r, toResultResponses(results)))
}

// HandleListResults handles GET /results for administrators.
func (h *Handler) HandleListResults(w http.ResponseWriter, r *http.Request) {
	isUnreviewed, err := httputil.QueryBool(r, "is_unreviewed")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.listResults(w, r, models.ResultFilters{IsUnreviewed: isUnreviewed != nil && *isUnreviewed})
}

// HandleListMyResults handles GET /results/mine.
func (h *Handler) HandleListMyResults(w http.ResponseWriter, r *http.Request) {
	h.listResults(w, r, models.ResultFilters{IsMine: true})
}

func (h *Handler) listResults(w http.ResponseWriter, r *http.Request, filters models.ResultFilters) {
	ctx := r.Context()
	results, err := h.ResultReader.List(ctx, access.FromContext(ctx), filters)
	if err != nil {
		h.fail(ctx, w, "list results", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Paginate(r, toResultResponses(results)))
}

// HandleCreateResult handles POST /promises/{id}/results.
func (h *Handler) HandleCreateResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	promiseID, err := id.ParsePromiseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeJSON[ResultRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	in, err := req.ToInput(promiseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.Results.Create(ctx, access.FromContext(ctx), in)
	if err != nil {
		h.fail(ctx, w, "create promise result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResultResponse(result))
}

// HandleEditResult handles PUT /promises/{id}/results/{resultID}. The body
// may name another promise to move the result there.
func (h *Handler) HandleEditResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	promiseID, resultID, ok := h.resultPath(w, r)
	if !ok {
		return
	}
	req, err := httputil.DecodeJSON[ResultRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	in, err := req.ToInput(promiseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.Results.Edit(ctx, access.FromContext(ctx), resultID, in)
	if err != nil {
		h.fail(ctx, w, "edit promise result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResultResponse(result))
}

// HandleDeleteResult handles DELETE /promises/{id}/results/{resultID}.
func (h *Handler) HandleDeleteResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, resultID, ok := h.resultPath(w, r)
	if !ok {
		return
	}
	if err := h.Results.Delete(ctx, access.FromContext(ctx), resultID); err != nil {
		h.fail(ctx, w, "delete promise result", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) evaluateResult(status models.ReviewStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		_, resultID, ok := h.resultPath(w, r)
		if !ok {
			return
		}
		result, err := h.Results.Evaluate(ctx, access.FromContext(ctx), resultID, status)
		if err != nil {
			h.fail(ctx, w, "evaluate promise result", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toResultResponse(result))
	}
}

// resultPath parses both path ids and checks the result is visible and
// belongs to the promise in the path.
func (h *Handler) resultPath(w http.ResponseWriter, r *http.Request) (id.PromiseID, id.ResultID, bool) {
	ctx := r.Context()
	promiseID, err := id.ParsePromiseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.PromiseID{}, id.ResultID{}, false
	}
	resultID, err := id.ParseResultID(chi.URLParam(r, "resultID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.PromiseID{}, id.ResultID{}, false
	}
	result, err := h.ResultReader.ByID(ctx, access.FromContext(ctx), resultID)
	if err != nil {
		h.fail(ctx, w, "load promise result", err)
		return id.PromiseID{}, id.ResultID{}, false
	}
	if result.PromiseID != promiseID {
		httputil.WriteError(w, dErrors.NotFound(selector.ResultNotFoundMessage))
		return id.PromiseID{}, id.ResultID{}, false
	}
	return promiseID, resultID, true
}
