package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/playgeo/geohunt/internal/auth"
	"github.com/playgeo/geohunt/internal/game"
)

type SignupRequest struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
}

func toUserResponse(u game.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Nickname: u.Nickname, Role: u.Role, CreatedAt: u.CreatedAt}
}

func toAuthResponse(u game.User, pair auth.TokenPair) AuthResponse {
	return AuthResponse{
		User:         toUserResponse(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}
}

func handleSignup(logger *slog.Logger, svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignupRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, kindValidation, "invalid request body")
			return
		}
		if req.Email == "" || req.Nickname == "" {
			writeError(w, http.StatusBadRequest, kindValidation, "email and nickname are required")
			return
		}
		if len(req.Password) < 8 {
			writeError(w, http.StatusBadRequest, kindValidation, "password must be at least 8 characters")
			return
		}

		u, pair, err := svc.Signup(r.Context(), req.Email, req.Nickname, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrEmailTaken) {
				writeError(w, http.StatusConflict, kindConflict, "email is already registered")
				return
			}
			logger.Error("signup failed", "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "signup failed")
			return
		}
		writeJSON(w, http.StatusCreated, toAuthResponse(u, pair))
	}
}

// handleLogin authenticates with email/password. Attempts are limited per
// email+IP so a single address cannot hammer one account.
func handleLogin(logger *slog.Logger, svc *auth.Service, limiter *auth.LoginLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, kindValidation, "invalid request body")
			return
		}

		if limiter != nil {
			ok, retryAt, err := limiter.Allow(r.Context(), req.Email+"|"+r.RemoteAddr)
			if err != nil {
				// Redis being down must not lock everyone out.
				logger.Warn("login limiter unavailable", "error", err)
			} else if !ok {
				w.Header().Set("Retry-After", retryAt.UTC().Format(http.TimeFormat))
				writeError(w, http.StatusTooManyRequests, kindRateLimited, "too many login attempts, try again later")
				return
			}
		}

		u, pair, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, kindUnauthorized, "invalid email or password")
				return
			}
			logger.Error("login failed", "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "login failed")
			return
		}
		writeJSON(w, http.StatusOK, toAuthResponse(u, pair))
	}
}

func handleRefresh(logger *slog.Logger, svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if err := readJSON(r, &req); err != nil || req.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, kindValidation, "refreshToken is required")
			return
		}

		u, pair, err := svc.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, http.StatusUnauthorized, kindUnauthorized, "invalid refresh token")
				return
			}
			logger.Error("token refresh failed", "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "token refresh failed")
			return
		}
		writeJSON(w, http.StatusOK, toAuthResponse(u, pair))
	}
}

func handleLogout(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if err := readJSON(r, &req); err != nil || req.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, kindValidation, "refreshToken is required")
			return
		}
		// Revocation of an already-invalid token is not an error worth
		// reporting to a client that is logging out.
		_ = svc.Logout(r.Context(), req.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}

func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, toUserResponse(currentUser(r)))
	}
}

// handleOAuthStart redirects the browser into the provider's consent flow.
func handleOAuthStart(provider auth.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		http.Redirect(w, r, provider.AuthURL(state), http.StatusFound)
	}
}

func handleOAuthCallback(logger *slog.Logger, svc *auth.Service, provider auth.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			writeError(w, http.StatusBadRequest, kindValidation, "missing code")
			return
		}

		u, pair, err := svc.LoginWithProvider(r.Context(), provider, code)
		if err != nil {
			logger.Error("provider login failed", "provider", provider.Name(), "error", err)
			writeError(w, http.StatusBadGateway, kindProviderFailure, "provider login failed")
			return
		}
		writeJSON(w, http.StatusOK, toAuthResponse(u, pair))
	}
}
