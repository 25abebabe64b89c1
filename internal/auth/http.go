// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/middleware"
	requestutil "github.com/takashibox-dotcom/ai-takashi-web/internal/platform/request"
	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/respond"
)

// # HTTP Handler

// Handler exposes the account and session endpoints over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes assembles the handler's route tree. Registration, login, and the
// password-recovery entry point are public; everything else requires an
// authenticated session.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/reset-password", h.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Post("/logout", h.Logout)
		r.Post("/change-password", h.ChangePassword)
		r.Post("/deactivate", h.Deactivate)
		r.Get("/me", h.Me)
		r.Patch("/profile", h.UpdateProfile)
	})

	return r
}

// # Request Payloads

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

type profilePatchRequest struct {
	Profile map[string]any `json:"profile"`
}

// # Endpoints

/*
Register handles POST /register.

Description: Creates a new account and returns it with 201. Duplicate
username/email, weak passwords, and malformed emails map to their distinct
error codes through the shared error responder.
*/
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := requestutil.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.Created(w, map[string]any{FieldUser: user})
}

/*
Login handles POST /login.

Description: Authenticates the identifier/password pair and issues a session
token. Failures are deliberately uniform: unknown identifier and wrong
password return the same 401 body.
*/
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := requestutil.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, map[string]any{
		FieldSessionToken: token,
		FieldUser:         user,
	})
}

// Logout handles POST /logout, revoking the presented session token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, err := requestutil.RequiredPrincipal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.service.Logout(r.Context(), principal.SessionToken)
	respond.OK(w, map[string]any{FieldMessage: "Logged out."})
}

// Me handles GET /me, returning the authenticated user's record.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	user, err := h.service.User(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, map[string]any{FieldUser: user})
}

// ChangePassword handles POST /change-password for the authenticated user.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req changePasswordRequest
	if err := requestutil.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, map[string]any{FieldMessage: "Password changed."})
}

/*
ResetPassword handles POST /reset-password.

Description: Recovery entry point keyed by email. The response is identical
whether or not the email is registered, so the endpoint cannot be used to
probe for accounts.
*/
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := requestutil.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.service.ResetPasswordByEmail(r.Context(), req.Email, req.NewPassword); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, map[string]any{
		FieldMessage: "If this account exists, the password has been reset.",
	})
}

// Deactivate handles POST /deactivate, disabling the account and revoking
// all of its sessions.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.service.Deactivate(r.Context(), userID); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, map[string]any{FieldMessage: "Account deactivated."})
}

// UpdateProfile handles PATCH /profile with a shallow-merge patch.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req profilePatchRequest
	if err := requestutil.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, req.Profile)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, map[string]any{FieldUser: user})
}
