package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"promisetracker/internal/access"
	"promisetracker/internal/classifiers/models"
	id "promisetracker/pkg/domain"
	"promisetracker/pkg/platform/httputil"
	"promisetracker/pkg/requestcontext"
)

// Service is the classifier write side.
type Service interface {
	CreateParty(ctx context.Context, actor access.Actor, in models.PartyInput) (*models.PoliticalParty, error)
	EditParty(ctx context.Context, actor access.Actor, partyID id.PartyID, in models.PartyInput) (*models.PoliticalParty, error)
	DeleteParty(ctx context.Context, actor access.Actor, partyID id.PartyID) error
	CreateConvocation(ctx context.Context, actor access.Actor, in models.ConvocationInput) (*models.Convocation, error)
	EditConvocation(ctx context.Context, actor access.Actor, convocationID id.ConvocationID, in models.ConvocationInput) (*models.Convocation, error)
	DeleteConvocation(ctx context.Context, actor access.Actor, convocationID id.ConvocationID) error
}

// Selector is the classifier read side.
type Selector interface {
	Parties(ctx context.Context, filter models.PartyFilter) ([]*models.PoliticalParty, error)
	PartyByID(ctx context.Context, partyID id.PartyID) (*models.PoliticalParty, error)
	Convocations(ctx context.Context, filter models.ConvocationFilter) ([]*models.Convocation, error)
	ConvocationByID(ctx context.Context, convocationID id.ConvocationID) (*models.Convocation, error)
}

// Handler serves /political-parties and /convocations.
type Handler struct {
	service  Service
	selector Selector
	logger   *slog.Logger
}

func New(service Service, selector Selector, logger *slog.Logger) *Handler {
	return &Handler{service: service, selector: selector, logger: logger}
}

// Register mounts the classifier endpoints. All of them are administrator
// only; writes additionally need a verified account.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(access.RequireRoles(access.RoleAdministrator))

		r.Get("/political-parties", h.HandleListParties)
		r.Get("/political-parties/{id}", h.HandleGetParty)
		r.Get("/convocations", h.HandleListConvocations)
		r.Get("/convocations/{id}", h.HandleGetConvocation)

		r.Group(func(r chi.Router) {
			r.Use(access.RequireVerified)
			r.Post("/political-parties", h.HandleCreateParty)
			r.Put("/political-parties/{id}", h.HandleEditParty)
			r.Delete("/political-parties/{id}", h.HandleDeleteParty)
			r.Post("/convocations", h.HandleCreateConvocation)
			r.Put("/convocations/{id}", h.HandleEditConvocation)
			r.Delete("/convocations/{id}", h.HandleDeleteConvocation)
		})
	})
}

func (h *Handler) HandleListParties(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	isActive, err := httputil.QueryBool(r, "is_active")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter := models.PartyFilter{NameContains: r.URL.Query().Get("name"), IsActive: isActive}

	parties, err := h.selector.Parties(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "list political parties", err)
		return
	}
	now := requestcontext.Now(ctx)
	out := make([]PartyResponse, 0, len(parties))
	for _, p := range parties {
		out = append(out, toPartyResponse(p, now))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Paginate(r, out))
}

func (h *Handler) HandleGetParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	partyID, err := id.ParsePartyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	party, err := h.selector.PartyByID(ctx, partyID)
	if err != nil {
		h.fail(ctx, w, "get political party", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPartyResponse(party, requestcontext.Now(ctx)))
}

func (h *Handler) HandleCreateParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in, ok := h.partyInput(w, r)
	if !ok {
		return
	}
	party, err := h.service.CreateParty(ctx, access.FromContext(ctx), in)
	if err != nil {
		h.fail(ctx, w, "create political party", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toPartyResponse(party, requestcontext.Now(ctx)))
}

func (h *Handler) HandleEditParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	partyID, err := id.ParsePartyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	in, ok := h.partyInput(w, r)
	if !ok {
		return
	}
	party, err := h.service.EditParty(ctx, access.FromContext(ctx), partyID, in)
	if err != nil {
		h.fail(ctx, w, "edit political party", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPartyResponse(party, requestcontext.Now(ctx)))
}

func (h *Handler) HandleDeleteParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	partyID, err := id.ParsePartyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteParty(ctx, access.FromContext(ctx), partyID); err != nil {
		h.fail(ctx, w, "delete political party", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) HandleListConvocations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := models.ConvocationFilter{NameContains: r.URL.Query().Get("name")}
	for _, raw := range r.URL.Query()["party"] {
		partyID, err := id.ParsePartyID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.PartyIDs = append(filter.PartyIDs, partyID)
	}

	convocations, err := h.selector.Convocations(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "list convocations", err)
		return
	}
	out := make([]ConvocationResponse, 0, len(convocations))
	for _, c := range convocations {
		out = append(out, toConvocationResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Paginate(r, out))
}

func (h *Handler) HandleGetConvocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	convocationID, err := id.ParseConvocationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	convocation, err := h.selector.ConvocationByID(ctx, convocationID)
	if err != nil {
		h.fail(ctx, w, "get convocation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConvocationResponse(convocation))
}

func (h *Handler) HandleCreateConvocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in, ok := h.convocationInput(w, r)
	if !ok {
		return
	}
	convocation, err := h.service.CreateConvocation(ctx, access.FromContext(ctx), in)
	if err != nil {
		h.fail(ctx, w, "create convocation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toConvocationResponse(convocation))
}

func (h *Handler) HandleEditConvocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	convocationID, err := id.ParseConvocationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	in, ok := h.convocationInput(w, r)
	if !ok {
		return
	}
	convocation, err := h.service.EditConvocation(ctx, access.FromContext(ctx), convocationID, in)
	if err != nil {
		h.fail(ctx, w, "edit convocation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConvocationResponse(convocation))
}

func (h *Handler) HandleDeleteConvocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	convocationID, err := id.ParseConvocationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteConvocation(ctx, access.FromContext(ctx), convocationID); err != nil {
		h.fail(ctx, w, "delete convocation", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) partyInput(w http.ResponseWriter, r *http.Request) (models.PartyInput, bool) {
	req, err := httputil.DecodeJSON[PartyRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return models.PartyInput{}, false
	}
	in, err := req.ToInput()
	if err != nil {
		httputil.WriteError(w, err)
		return models.PartyInput{}, false
	}
	return in, true
}

func (h *Handler) convocationInput(w http.ResponseWriter, r *http.Request) (models.ConvocationInput, bool) {
	req, err := httputil.DecodeJSON[ConvocationRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return models.ConvocationInput{}, false
	}
	in, err := req.ToInput()
	if err != nil {
		httputil.WriteError(w, err)
		return models.ConvocationInput{}, false
	}
	return in, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	h.logger.WarnContext(ctx, op+" failed",
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
