package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/openalgoflow/engine/pkg/security"
)

type authSetupRequest struct {
	Password string `json:"password"`
}

type authLoginRequest struct {
	Password string `json:"password"`
}

type authChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// handleAuthStatus reports whether the admin password has been set and
// whether the caller's own bearer token (if any) is currently valid.
// Public: no Authorization header is required to call it.
func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Store.GetSettings(r.Context())
	if err != nil {
		s.writeErrorResponse(w, "failed to load settings", http.StatusInternalServerError, err)
		return
	}

	authenticated := false
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
		if _, err := s.deps.Signer.Verify(token); err == nil {
			authenticated = true
		}
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"is_setup_complete": settings.IsSetupComplete,
		"is_authenticated":  authenticated,
	})
}

// handleAuthSetup sets the initial admin password. Only callable once:
// subsequent calls after setup is complete are rejected, mirroring the
// original's one-shot first-run setup flow.
func (s *Server) handleAuthSetup(w http.ResponseWriter, r *http.Request) {
	var req authSetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, "invalid request body", http.StatusBadRequest, err)
		return
	}
	if req.Password == "" {
		s.writeErrorResponse(w, "password is required", http.StatusBadRequest, nil)
		return
	}

	settings, err := s.deps.Store.GetSettings(r.Context())
	if err != nil {
		s.writeErrorResponse(w, "failed to load settings", http.StatusInternalServerError, err)
		return
	}
	if settings.IsSetupComplete {
		s.writeErrorResponse(w, "setup already complete", http.StatusConflict, nil)
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		s.writeErrorResponse(w, "failed to hash password", http.StatusInternalServerError, err)
		return
	}
	settings.AdminPasswordHash = hash
	settings.IsSetupComplete = true
	if err := s.deps.Store.SaveSettings(r.Context(), settings); err != nil {
		s.writeErrorResponse(w, "failed to save settings", http.StatusInternalServerError, err)
		return
	}

	s.issueToken(r.Context(), w)
}

// handleAuthLogin exchanges the admin password for a bearer token.
func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req authLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, "invalid request body", http.StatusBadRequest, err)
		return
	}

	settings, err := s.deps.Store.GetSettings(r.Context())
	if err != nil {
		s.writeErrorResponse(w, "failed to load settings", http.StatusInternalServerError, err)
		return
	}
	if !settings.IsSetupComplete || !security.CheckPassword(settings.AdminPasswordHash, req.Password) {
		s.writeErrorResponse(w, "invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	s.issueToken(r.Context(), w)
}

// handleAuthChangePassword requires the current password before accepting
// a new one; the caller must already hold a valid bearer token.
func (s *Server) handleAuthChangePassword(w http.ResponseWriter, r *http.Request) {
	var req authChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, "invalid request body", http.StatusBadRequest, err)
		return
	}
	if req.NewPassword == "" {
		s.writeErrorResponse(w, "new password is required", http.StatusBadRequest, nil)
		return
	}

	settings, err := s.deps.Store.GetSettings(r.Context())
	if err != nil {
		s.writeErrorResponse(w, "failed to load settings", http.StatusInternalServerError, err)
		return
	}
	if !security.CheckPassword(settings.AdminPasswordHash, req.CurrentPassword) {
		s.writeErrorResponse(w, "current password is incorrect", http.StatusUnauthorized, nil)
		return
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		s.writeErrorResponse(w, "failed to hash password", http.StatusInternalServerError, err)
		return
	}
	settings.AdminPasswordHash = hash
	if err := s.deps.Store.SaveSettings(r.Context(), settings); err != nil {
		s.writeErrorResponse(w, "failed to save settings", http.StatusInternalServerError, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleAuthLogout acknowledges logout. Bearer tokens here are stateless
// HMAC-signed values with no server-side session, so there is nothing to
// revoke server-side; the client is expected to discard the token. This
// matches issuing a short-lived, non-renewable credential instead of a
// revocable session cookie.
func (s *Server) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleAuthVerify confirms the caller's bearer token is currently valid;
// requireAuth has already rejected anything that isn't.
func (s *Server) handleAuthVerify(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"valid": true})
}

func (s *Server) issueToken(ctx context.Context, w http.ResponseWriter) {
	token, err := s.deps.Signer.Issue("admin")
	if err != nil {
		s.writeErrorResponse(w, "failed to issue token", http.StatusInternalServerError, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, tokenResponse{Token: token})
}
