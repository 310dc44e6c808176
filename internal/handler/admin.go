package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/postmuse/internal/auth"
	"github.com/sakif/postmuse/internal/model"
	"github.com/sakif/postmuse/internal/service"
)

// AdminHandler serves /api/admin. Every route sits behind RequireAdmin.
type AdminHandler struct {
	accounts *service.AccountService
	schedule *service.ScheduleService
	logger   *slog.Logger
}

func NewAdminHandler(accounts *service.AccountService, schedule *service.ScheduleService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		accounts: accounts,
		schedule: schedule,
		logger:   logger,
	}
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// updateUserRequest fields are optional; nil means unchanged.
type updateUserRequest struct {
	Role     *string `json:"role,omitempty"`
	APICalls *int    `json:"apiCalls,omitempty"`
}

// HandleListUsers → GET /api/admin/users
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleCreateUser → POST /api/admin/users. Role defaults to "user".
func (h *AdminHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	user, err := h.accounts.CreateUser(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// HandleUpdateUser → PATCH /api/admin/users/{email}
func (h *AdminHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.accounts.UpdateUser(r.Context(), email, req.Role, req.APICalls); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.accounts.Me(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDeleteUser → DELETE /api/admin/users/{email}
//
// Deletes the user and all of their scheduled posts. Admins cannot delete
// themselves.
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	email := chi.URLParam(r, "email")

	if err := h.accounts.DeleteUser(r.Context(), sess.Email, email); err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("admin deleted user", slog.String("admin", sess.Email), slog.String("email", email))
	w.WriteHeader(http.StatusNoContent)
}

// HandleListPosts → GET /api/admin/posts
func (h *AdminHandler) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.schedule.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleDeletePost → DELETE /api/admin/posts/{id}
func (h *AdminHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.schedule.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
