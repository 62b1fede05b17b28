package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"promisetracker/internal/access"
	"promisetracker/internal/users/models"
	"promisetracker/internal/users/service"
	id "promisetracker/pkg/domain"
	"promisetracker/pkg/platform/httputil"
	"promisetracker/pkg/requestcontext"
)

type UserService interface {
	Create(ctx context.Context, actor access.Actor, in models.CreateUserInput) (*models.User, error)
	Edit(ctx context.Context, actor access.Actor, userID id.UserID, in models.EditUserInput) (*models.User, error)
	Delete(ctx context.Context, actor access.Actor, userID id.UserID) error
	ResendVerification(ctx context.Context, actor access.Actor, userID id.UserID) error
	Verify(ctx context.Context, actor access.Actor, userID id.UserID, code string) error
	Moderate(ctx context.Context, actor access.Actor, userID id.UserID, action models.ModerationAction) error
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
}

type UserSelector interface {
	ByID(ctx context.Context, actor access.Actor, userID id.UserID) (*models.User, error)
	List(ctx context.Context, actor access.Actor, filter models.UserFilter) ([]*models.User, error)
}

// Handler serves accounts and login.
type Handler struct {
	users    UserService
	auth     AuthService
	selector UserSelector
	logger   *slog.Logger
	throttle func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithThrottle wraps login, registration and the verification routes.
func WithThrottle(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.throttle = mw
	}
}

func New(users UserService, auth AuthService, selector UserSelector, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{users: users, auth: auth, selector: selector, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	if h.throttle == nil {
		h.throttle = func(next http.Handler) http.Handler { return next }
	}
	return h
}

// Register mounts /auth/login and /users. Registration and login are open;
// account reads and edits need a signed-in user, moderation an administrator.
func (h *Handler) Register(r chi.Router) {
	r.With(h.throttle).Post("/auth/login", h.HandleLogin)
	r.With(h.throttle).Post("/users", h.HandleCreateUser)

	r.Group(func(r chi.Router) {
		r.Use(access.RequireRoles(access.RoleRegisteredUser, access.RoleAdministrator))
		r.With(h.throttle).Post("/users/verify", h.HandleVerify)
		r.With(h.throttle).Post("/users/resend-verification", h.HandleResendVerification)
		r.Get("/users/{id}", h.HandleGetUser)
		r.Put("/users/{id}", h.HandleEditUser)
		r.Delete("/users/{id}", h.HandleDeleteUser)
	})

	r.Group(func(r chi.Router) {
		r.Use(access.RequireRoles(access.RoleAdministrator))
		r.Get("/users", h.HandleListUsers)
		r.Post("/users/{id}/block", h.moderate(models.ActionBan))
		r.Post("/users/{id}/unblock", h.moderate(models.ActionUnban))
	})
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[LoginRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.fail(ctx, w, "login", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
		User:        toUserResponse(result.User),
	})
}

// HandleCreateUser handles POST /users. Guests register themselves;
// administrators may also create administrators.
func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[CreateUserRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.users.Create(ctx, access.FromContext(ctx), req.ToInput())
	if err != nil {
		h.fail(ctx, w, "create user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

// HandleListUsers handles GET /users.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := userFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	users, err := h.selector.List(ctx, access.FromContext(ctx), filter)
	if err != nil {
		h.fail(ctx, w, "list users", err)
		return
	}
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Paginate(r, out))
}

// HandleGetUser handles GET /users/{id}.
func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.selector.ByID(ctx, access.FromContext(ctx), userID)
	if err != nil {
		h.fail(ctx, w, "get user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleEditUser handles PUT /users/{id}.
func (h *Handler) HandleEditUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeJSON[EditUserRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.users.Edit(ctx, access.FromContext(ctx), userID, req.ToInput())
	if err != nil {
		h.fail(ctx, w, "edit user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleDeleteUser handles DELETE /users/{id}.
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.users.Delete(ctx, access.FromContext(ctx), userID); err != nil {
		h.fail(ctx, w, "delete user", err)
		return
	}
	httputil.WriteNoContent(w)
}

// HandleVerify handles POST /users/verify for the signed-in user.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[VerifyRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor := access.FromContext(ctx)
	if err := h.users.Verify(ctx, actor, actor.UserID(), req.Code); err != nil {
		h.fail(ctx, w, "verify user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Email verified."})
}

// HandleResendVerification handles POST /users/resend-verification.
func (h *Handler) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := access.FromContext(ctx)
	if err := h.users.ResendVerification(ctx, actor, actor.UserID()); err != nil {
		h.fail(ctx, w, "resend verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Verification email sent."})
}

func (h *Handler) moderate(action models.ModerationAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := id.ParseUserID(chi.URLParam(r, "id"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		if err := h.users.Moderate(ctx, access.FromContext(ctx), userID, action); err != nil {
			h.fail(ctx, w, "moderate user", err)
			return
		}
		httputil.WriteNoContent(w)
	}
}

func userFilter(r *http.Request) (models.UserFilter, error) {
	filter := models.UserFilter{Search: r.URL.Query().Get("search")}
	for key, dst := range map[string]**bool{
		"is_admin":    &filter.IsAdmin,
		"is_active":   &filter.IsActive,
		"is_verified": &filter.IsVerified,
		"is_deleted":  &filter.IsDeleted,
	} {
		v, err := httputil.QueryBool(r, key)
		if err != nil {
			return models.UserFilter{}, err
		}
		*dst = v
	}
	return filter, nil
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	h.logger.WarnContext(ctx, op+" failed",
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
