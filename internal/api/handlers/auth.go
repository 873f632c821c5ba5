package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/rohits-web03/inkwell/internal/api/middleware"
	"github.com/rohits-web03/inkwell/internal/api/services"
	"github.com/rohits-web03/inkwell/internal/models"
	"github.com/rohits-web03/inkwell/internal/utils"
)

const (
	stateCookie = "oauth_state"
	stateMaxAge = 10 * time.Minute
)

type AuthHandler struct {
	auth          *services.AuthService
	google        *services.GoogleOAuth
	secureCookies bool
}

// NewAuthHandler builds the auth endpoints. google may be nil, which
// disables Google sign-in.
func NewAuthHandler(auth *services.AuthService, google *services.GoogleOAuth, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: auth, google: google, secureCookies: secureCookies}
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CheckResponse struct {
	User  *models.PublicUser `json:"user,omitempty"`
	Error string             `json:"error,omitempty"`
}

// RegisterUser godoc
// @Summary Register a new account
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body SignupRequest true "Account details"
// @Success 201 {object} models.PublicUser
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/auth/signup [post]
func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var input SignupRequest
	if err := utils.DecodeJSON(r.Body, &input); err != nil {
		utils.WriteError(w, r, models.NewValidationError("Invalid input"))
		return
	}

	user, err := h.auth.Signup(r.Context(), input.Name, input.Email, input.Password)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSONResponse(w, http.StatusCreated, user)
}

// LoginUser godoc
// @Summary Log in with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} services.LoginResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var input LoginRequest
	if err := utils.DecodeJSON(r.Body, &input); err != nil {
		utils.WriteError(w, r, models.NewValidationError("Invalid input"))
		return
	}

	res, err := h.auth.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, res)
}

// CheckAuth godoc
// @Summary Check the current session
// @Description Without an Authorization header the response is 200 with an error field.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CheckResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/auth/check [get]
func (h *AuthHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	token, present := middleware.BearerToken(r)
	if !present {
		utils.ErrorResponse(w, http.StatusOK, middleware.MissingAuthHeader)
		return
	}
	if token == "" {
		utils.WriteError(w, r, models.NewUnauthorizedError("Authorization header must be Bearer <token>"))
		return
	}

	user, err := h.auth.Verify(r.Context(), token)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, CheckResponse{User: user})
}

// HandleGoogleLogin godoc
// @Summary Start Google sign-in
// @Tags Auth
// @Success 307
// @Failure 404 {object} models.ErrorResponse
// @Router /api/auth/google/login [get]
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		utils.WriteError(w, r, &models.AppError{Code: models.CodeNotFound, Message: "Google sign-in is not configured"})
		return
	}

	state, err := newOAuthState(time.Now())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state.String(),
		Path:     "/api/auth/google",
		MaxAge:   int(stateMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.AuthCodeURL(state.String()), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback godoc
// @Summary Finish Google sign-in
// @Description Finds or creates the account for the Google email and returns a bearer token.
// @Tags Auth
// @Produce json
// @Param state query string true "OAuth state"
// @Param code query string true "Authorization code"
// @Success 200 {object} services.LoginResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/auth/google/callback [get]
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		utils.WriteError(w, r, &models.AppError{Code: models.CodeNotFound, Message: "Google sign-in is not configured"})
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookie)
	if err != nil || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		utils.WriteError(w, r, models.NewValidationError("Invalid OAuth state"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/api/auth/google", MaxAge: -1})

	parsed, err := parseOAuthState(state)
	if err != nil {
		utils.WriteError(w, r, models.NewValidationError("Invalid OAuth state"))
		return
	}
	if parsed.expired(time.Now()) {
		utils.WriteError(w, r, models.NewValidationError("OAuth state has expired"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		utils.WriteError(w, r, models.NewValidationError("Missing authorization code"))
		return
	}

	profile, err := h.google.FetchProfile(r.Context(), code)
	if err != nil {
		utils.WriteError(w, r, &models.AppError{Code: models.CodeUnauthorized, Message: "Google sign-in failed", Err: err})
		return
	}

	res, err := h.auth.LoginWithGoogle(r.Context(), *profile)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, res)
}
