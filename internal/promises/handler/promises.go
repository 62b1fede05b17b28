package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"promisetracker/internal/access"
	"promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
	"promisetracker/pkg/platform/httputil"
	"promisetracker/pkg/requestcontext"
)

// HandleListPromises handles GET /promises.
func (h *Handler) HandleListPromises(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filters, err := promiseFilters(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	promises, err := h.PromiseReader.List(ctx, access.FromContext(ctx), filters)
	if err != nil {
		h.fail(ctx, w, "list promises", err)
		return
	}
	out := make([]PromiseResponse, 0, len(promises))
	for _, p := range promises {
		out = append(out, toPromiseResponse(p))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Paginate(r, out))
}

// HandleGetPromise handles GET /promises/{id}.
func (h *Handler) HandleGetPromise(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	promiseID, err := id.ParsePromiseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	promise, err := h.PromiseReader.ByID(ctx, access.FromContext(ctx), promiseID)
	if err != nil {
		h.fail(ctx, w, "get promise", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPromiseResponse(promise))
}

// HandleCreatePromise handles POST /promises.
func (h *Handler) HandleCreatePromise(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[PromiseRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	in, err := req.ToInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	promise, err := h.Promises.Create(ctx, access.FromContext(ctx), in)
	if err != nil {
		h.fail(ctx, w, "create promise", err)
		return
	}
	h.logger.InfoContext(ctx, "promise submitted",
		"promise_id", promise.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusCreated, toPromiseResponse(promise))
}

// HandleEditPromise handles PUT /promises/{id}.
func (h *Handler) HandleEditPromise(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	promiseID, err := id.ParsePromiseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeJSON[PromiseRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	in, err := req.ToInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	promise, err := h.Promises.Edit(ctx, access.FromContext(ctx), promiseID, in)
	if err != nil {
		h.fail(ctx, w, "edit promise", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPromiseResponse(promise))
}

// HandleDeletePromise handles DELETE /promises/{id}.
func (h *Handler) HandleDeletePromise(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	promiseID, err := id.ParsePromiseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.Promises.Delete(ctx, access.FromContext(ctx), promiseID); err != nil {
		h.fail(ctx, w, "delete promise", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) evaluatePromise(status models.ReviewStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		promiseID, err := id.ParsePromiseID(chi.URLParam(r, "id"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		promise, err := h.Promises.Evaluate(ctx, access.FromContext(ctx), promiseID, status)
		if err != nil {
			h.fail(ctx, w, "evaluate promise", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toPromiseResponse(promise))
	}
}

func promiseFilters(r *http.Request) (models.PromiseFilters, error) {
	q := r.URL.Query()
	filters := models.PromiseFilters{Name: q.Get("name")}
	if raw := q.Get("party"); raw != "" {
		partyID, err := id.ParsePartyID(raw)
		if err != nil {
			return filters, err
		}
		filters.PartyID = &partyID
	}
	if raw := q.Get("convocation"); raw != "" {
		convocationID, err := id.ParseConvocationID(raw)
		if err != nil {
			return filters, err
		}
		filters.ConvocationID = &convocationID
	}
	if raw := q.Get("result_status"); raw != "" {
		status, err := parseCompletionStatus(raw)
		if err != nil {
			return filters, err
		}
		filters.ResultStatus = status
	}
	isMine, err := httputil.QueryBool(r, "is_mine")
	if err != nil {
		return filters, err
	}
	isUnreviewed, err := httputil.QueryBool(r, "is_unreviewed")
	if err != nil {
		return filters, err
	}
	filters.IsMine = isMine != nil && *isMine
	filters.IsUnreviewed = isUnreviewed != nil && *isUnreviewed
	return filters, nil
}
