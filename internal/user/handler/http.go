// Package handler exposes profile self-service and admin account management
// over HTTP/JSON.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	auditdomain "identity-service/internal/audit/domain"
	"identity-service/internal/server/httpx"
	"identity-service/internal/server/middleware"
	"identity-service/internal/user/domain"
	"identity-service/internal/user/service"
)

// AuditReader lists the audit trail for one account.
type AuditReader interface {
	ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*auditdomain.AuditLog, error)
}

// UserService is the subset of the user service the handler needs.
type UserService interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	UpdateName(ctx context.Context, id, name string) (*domain.User, error)
	ChangePassword(ctx context.Context, id, current, next string) error
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	AdminUpdate(ctx context.Context, id, name, email string) (*domain.User, error)
	AdminResetPassword(ctx context.Context, id, next string) error
	AdminDelete(ctx context.Context, id string) error
}

// Handler serves the /api/users and /api/admin/users routes.
type Handler struct {
	svc   UserService
	audit AuditReader
	log   *slog.Logger
}

// New returns the handler. audit may be nil; the audit route then returns
// empty lists.
func New(svc UserService, audit AuditReader, log *slog.Logger) *Handler {
	return &Handler{svc: svc, audit: audit, log: log}
}

// RegisterProfileRoutes wires the self-service routes. The caller must wrap
// the mux with the auth middleware.
func (h *Handler) RegisterProfileRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users/me", h.handleGetMe)
	mux.HandleFunc("PATCH /api/users/me", h.handleUpdateMe)
	mux.HandleFunc("PATCH /api/users/me/password", h.handleChangePassword)
}

// RegisterAdminRoutes wires the admin routes. The caller must wrap the mux
// with the auth and admin middleware.
func (h *Handler) RegisterAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/users", h.handleList)
	mux.HandleFunc("GET /api/admin/users/{id}", h.handleGet)
	mux.HandleFunc("PATCH /api/admin/users/{id}", h.handleAdminUpdate)
	mux.HandleFunc("PATCH /api/admin/users/{id}/password", h.handleResetPassword)
	mux.HandleFunc("DELETE /api/admin/users/{id}", h.handleDelete)
	mux.HandleFunc("GET /api/admin/users/{id}/audit", h.handleAudit)
}

type userResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"emailVerified"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func toResponse(u *domain.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          string(u.Role),
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

type updateMeRequest struct {
	Name string `json:"name"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type adminUpdateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	u, err := h.svc.Get(r.Context(), id.PrincipalID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(u))
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	var req updateMeRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	u, err := h.svc.UpdateName(r.Context(), id.PrincipalID, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(u))
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	var req changePasswordRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.svc.ChangePassword(r.Context(), id.PrincipalID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	users, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": out})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(u))
}

func (h *Handler) handleAdminUpdate(w http.ResponseWriter, r *http.Request) {
	var req adminUpdateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	u, err := h.svc.AdminUpdate(r.Context(), r.PathValue("id"), req.Name, req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(u))
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.svc.AdminResetPassword(r.Context(), r.PathValue("id"), req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.AdminDelete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type auditEntryResponse struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	// Verify the account exists so unknown ids 404 instead of listing empty.
	if _, err := h.svc.Get(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	out := []auditEntryResponse{}
	if h.audit != nil {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit < 1 || limit > 100 {
			limit = 50
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if offset < 0 {
			offset = 0
		}
		entries, err := h.audit.ListByUser(r.Context(), r.PathValue("id"), int32(limit), int32(offset))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		for _, e := range entries {
			out = append(out, auditEntryResponse{
				ID:        e.ID,
				Action:    e.Action,
				Resource:  e.Resource,
				IP:        e.IP,
				Metadata:  e.Metadata,
				CreatedAt: e.CreatedAt,
			})
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrWrongPassword):
		httpx.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrValidation):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.log.ErrorContext(r.Context(), "user handler error", "path", r.URL.Path, "error", err)
		httpx.Error(w, http.StatusInternalServerError, "internal error")
	}
}
