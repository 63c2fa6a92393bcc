package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lunavps/auth-service/auth"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LoginHandler exchanges an email/password pair for an access/refresh token pair
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "Failed to parse request body", http.StatusBadRequest)
			return
		}
		if req.Email == "" || req.Password == "" {
			writeJSONError(w, "invalid_request", "email and password are required", http.StatusBadRequest)
			return
		}

		pair, err := s.auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			s.writeAuthError(w, err)
			return
		}

		writeTokenPair(w, pair)
	}
}

// RefreshHandler exchanges a refresh token for a new token pair, rotating the
// server-side session
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "Failed to parse request body", http.StatusBadRequest)
			return
		}
		if req.RefreshToken == "" {
			writeJSONError(w, "invalid_request", "refresh_token is required", http.StatusBadRequest)
			return
		}

		pair, err := s.auth.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			s.writeAuthError(w, err)
			return
		}

		writeTokenPair(w, pair)
	}
}

// LogoutHandler invalidates the session behind the presented refresh token
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "Failed to parse request body", http.StatusBadRequest)
			return
		}
		if req.RefreshToken == "" {
			writeJSONError(w, "invalid_request", "refresh_token is required", http.StatusBadRequest)
			return
		}

		if err := s.auth.Logout(r.Context(), req.RefreshToken); err != nil {
			s.writeAuthError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.AuthenticationErr):
		writeJSONError(w, "invalid_credentials", "Invalid email or password", http.StatusUnauthorized)
	case errors.Is(err, auth.RefreshTokenExpiredErr):
		writeJSONError(w, "refresh_token_expired", "Refresh token expired", http.StatusUnauthorized)
	case errors.Is(err, auth.InvalidRefreshTokenErr), errors.Is(err, auth.InvalidRefreshTokenSignatureErr):
		writeJSONError(w, "invalid_refresh_token", "Invalid refresh token", http.StatusUnauthorized)
	default:
		// IntegrityErr and store failures are server-side faults; the body
		// stays generic.
		log.Error().Err(err).Msg("auth request failed")
		writeJSONError(w, "server_error", "Internal server error", http.StatusInternalServerError)
	}
}

func writeTokenPair(w http.ResponseWriter, pair *auth.TokenPair) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	_ = json.NewEncoder(w).Encode(pair)
}

// writeJSONError writes an error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
