// Package handler maps HTTP endpoints onto the auth service.
//
// Handlers are state-free and one-shot: decode, validate, call the service,
// translate the result. No business rules live here.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/sakif/auth-service/internal/auth"
	"github.com/sakif/auth-service/internal/service"
	"github.com/sakif/auth-service/internal/sso"
)

// stateCookie carries the OAuth CSRF nonce between the login redirect and
// the provider callback.
const stateCookie = "oauth_state"

// AuthHandler exposes the signup, login, verification, and SSO endpoints.
type AuthHandler struct {
	svc    *service.AuthService
	broker *sso.Broker
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler with injected dependencies.
func NewAuthHandler(svc *service.AuthService, broker *sso.Broker, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, broker: broker, logger: logger}
}

// signupRequest is the body of POST /signup and POST /resend-verification
// (the latter uses only Email).
type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignup registers a local account.
//
// HTTP: POST /signup, body {"email", "password"}
//
// The response acknowledges the signup only; the verification email is
// dispatched in the background and may still fail after the 200 goes out.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Invalid JSON body"})
		return
	}

	if err := h.svc.Signup(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{
		Msg: "Signup successful. Please check your email to verify your account.",
	})
}

// HandleVerifyEmail consumes a verification link.
//
// HTTP: GET /verify-email?token=...
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Invalid token"})
		return
	}

	if err := h.svc.VerifyEmail(r.Context(), tokenStr); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Msg: "Email verified successfully."})
}

// HandleResendVerification re-sends the verification email.
//
// HTTP: POST /resend-verification, body {"email"}
func (h *AuthHandler) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Invalid JSON body"})
		return
	}

	if err := h.svc.ResendVerification(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Msg: "Verification email resent."})
}

// HandleToken performs the OAuth2 password grant.
//
// HTTP: POST /token, form fields username (the email) and password.
// The field names follow the password-grant convention, which is why the
// email arrives as "username".
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Invalid form body"})
		return
	}

	pair, err := h.svc.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// HandleMe returns the authenticated account's public fields.
//
// HTTP: GET /users/me, Authorization: Bearer <token>
// Auth: RequireAuth middleware has already verified the token and put the
// subject email in the context; an invalid token never reaches this code.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.SubjectFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, kept as a guard.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Detail: "Could not validate credentials"})
		return
	}

	user, err := h.svc.GetUserByEmail(r.Context(), email)
	if err != nil {
		// A valid token for a since-deleted account resolves to 404.
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

// HandleSSOLogin starts the provider flow.
//
// HTTP: GET /auth/{provider}/login
//
// A random state nonce goes into a short-lived HttpOnly cookie before the
// redirect; the callback checks it to reject cross-site forgeries.
func (h *AuthHandler) HandleSSOLogin(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.broker.Provider(chi.URLParam(r, "provider"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Unsupported provider"})
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, provider.AuthURL(state), http.StatusFound)
}

// HandleSSOCallback completes the provider flow.
//
// HTTP: GET /auth/{provider}/callback?code=...&state=...
func (h *AuthHandler) HandleSSOCallback(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.broker.Provider(chi.URLParam(r, "provider"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Unsupported provider"})
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("sso callback: state mismatch", slog.String("provider", provider.Name()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Invalid OAuth state"})
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Failed to authenticate: " + errParam})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Failed to authenticate: missing code"})
		return
	}

	identity, err := provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("sso callback: exchange failed",
			slog.String("provider", provider.Name()),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Failed to authenticate: " + err.Error()})
		return
	}

	result, err := h.svc.LoginSSO(r.Context(), provider.Name(), identity)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleRoot is a trivial liveness endpoint.
//
// HTTP: GET /
func (h *AuthHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "auth service"})
}
