package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gitlab.com/yelinaung/expenditure-manager/internal/auth"
	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
)

// Authenticator is the account surface of auth.Service.
type Authenticator interface {
	TokenVerifier
	SignUp(ctx context.Context, p auth.SignUpParams) (*auth.Session, error)
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	ChangePassword(ctx context.Context, userID, current, newPassword, confirm string) error
	SignOut(ctx context.Context, token string) error
}

var _ Authenticator = (*auth.Service)(nil)

type AuthHandler struct {
	svc Authenticator
}

func NewAuthHandler(svc Authenticator) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/signup", h.signUp)
	r.Post("/signin", h.signIn)
	r.Post("/signout", h.signOut)
	r.With(RequireSession(h.svc)).Post("/password", h.changePassword)
}

func (h *AuthHandler) signUp(w http.ResponseWriter, r *http.Request) {
	var req auth.SignUpParams
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	session, err := h.svc.SignUp(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.Log.Info().Str("user", logger.HashUserID(session.UserID)).Msg("Account created")
	writeJSON(w, http.StatusCreated, session)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	session, err := h.svc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) signOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, r, auth.ErrInvalidToken)
		return
	}
	if err := h.svc.SignOut(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	err := h.svc.ChangePassword(r.Context(), UserID(r.Context()), req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
