package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/postmuse/internal/apperror"
	"github.com/sakif/postmuse/internal/auth"
	"github.com/sakif/postmuse/internal/model"
	"github.com/sakif/postmuse/internal/service"
)

// AuthHandler covers registration, login and the caller's own account.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create a regular user
//   - HandleLogin    → verify credentials, issue a JWT (cookie + body)
//   - HandleLogout   → clear the JWT cookie
//   - HandleMe       → current user and their generation allowance
//   - HandleUsage    → consume one draft generation
type AuthHandler struct {
	accounts *service.AccountService
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewAuthHandler(accounts *service.AccountService, tokenTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type meResponse struct {
	User  *model.User    `json:"user"`
	Usage *service.Usage `json:"usage"`
}

// HandleRegister creates a regular user account.
//
// HTTP: POST /auth/register
// REQUEST BODY: {"email": "ann@example.com", "password": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin verifies credentials and issues a session token.
//
// HTTP: POST /auth/login
//
// The token is returned in the body for API clients and also set as an
// HttpOnly cookie for browsers. SameSite=Lax keeps it off cross-site POSTs.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: res.Token, User: res.User})
}

// HandleLogout clears the JWT cookie.
//
// HTTP: POST /auth/logout
//
// Tokens are stateless; one already copied elsewhere stays valid until it
// expires.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated user's profile and allowance.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.accounts.Me(r.Context(), sess.Email)
	if err != nil {
		h.logger.Warn("session for missing user", slog.String("email", sess.Email))
		writeError(w, err)
		return
	}
	usage, err := h.accounts.UsageFor(r.Context(), sess.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: user, Usage: usage})
}

// HandleUsage records one draft generation against the caller's allowance.
// Over the limit it answers 403 and nothing is recorded.
//
// HTTP: POST /api/usage
func (h *AuthHandler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	usage, err := h.accounts.RecordGeneration(r.Context(), sess.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}
