package handlers

import (
	"net/http"
	"time"

	"github.com/isdelr/projecthub-be/internal/apperrors"
	"github.com/isdelr/projecthub-be/internal/auth"
	"github.com/isdelr/projecthub-be/internal/models"
	"github.com/isdelr/projecthub-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for signup, signin and the current user.
type UserHandler struct {
	service       services.UserServiceProvider
	tokens        *auth.TokenIssuer
	secureCookies bool
}

// NewUserHandler creates a new UserHandler. secureCookies sets the Secure flag
// on the token cookie and should be on in production.
func NewUserHandler(service services.UserServiceProvider, tokens *auth.TokenIssuer, secureCookies bool) *UserHandler {
	return &UserHandler{service: service, tokens: tokens, secureCookies: secureCookies}
}

// Signup registers a new user and returns a token for them.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload models.SignupInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := h.service.Signup(r.Context(), payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User signed up")
	writeJSON(w, http.StatusCreated, map[string]any{
		"token":  token,
		"userId": user.ID,
		"user":   user,
	})
}

// Signin checks credentials, sets the token cookie and returns the token.
func (h *UserHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var payload models.SigninInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload)
	if err != nil {
		if apperrors.Kind(err) == apperrors.ErrUnauthenticated {
			log.Warn().Str("email", models.NormalizeEmail(payload.Email)).Msg("Failed authentication attempt")
		}
		writeServiceError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Expires:  time.Now().Add(h.tokens.TTL()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// Signout expires the token cookie. Issued tokens stay valid until they
// expire.
func (h *UserHandler) Signout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

// Me returns the authenticated user.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actorID, ok := auth.ActorFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, apperrors.ErrUnauthenticated)
		return
	}

	user, err := h.service.GetUserByID(r.Context(), actorID)
	if err != nil {
		if apperrors.Kind(err) == apperrors.ErrNotFound {
			// A valid token for a user that no longer resolves.
			writeServiceError(w, r, apperrors.ErrUnauthenticated)
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
