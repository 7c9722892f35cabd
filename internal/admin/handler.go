package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	dErrors "azadi/pkg/domain-errors"
	"azadi/pkg/platform/httputil"
	request "azadi/pkg/platform/middleware/request"
)

// AuthService defines the admin credential operations used by the handler.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	ChangePassword(ctx context.Context, current, next string) error
}

type Handler struct {
	svc      AuthService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(svc AuthService, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger, validate: validator.New(validator.WithRequiredStructEnabled())}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// RegisterPublic mounts the login route on the admin router, outside
// authentication, behind any given middlewares.
func (h *Handler) RegisterPublic(r chi.Router, mws ...func(http.Handler) http.Handler) {
	r.With(mws...).Post("/login", h.handleLogin)
}

// RegisterAdmin mounts routes that require an authenticated admin.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/password", h.handleChangePassword)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "username and password are required"))
		return
	}

	res, err := h.svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		var locked *LockedOutError
		if errors.As(err, &locked) {
			w.Header().Set("Retry-After", strconv.Itoa(locked.RetryAfter))
		}
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "admin login failed",
				"error", err,
				"request_id", request.GetRequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req changePasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "current and new password are required"))
		return
	}
	if err := h.svc.ChangePassword(ctx, req.CurrentPassword, req.NewPassword); err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "password change failed",
				"error", err,
				"request_id", request.GetRequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
