package server

import (
	"encoding/json"
	"net/http"

	"github.com/openalgoflow/engine/pkg/gateway"
	"github.com/openalgoflow/engine/pkg/types"
)

type settingsResponse struct {
	IsSetupComplete  bool   `json:"is_setup_complete"`
	GatewayHost      string `json:"gateway_host"`
	GatewayWSURL     string `json:"gateway_ws_url"`
	HasGatewayAPIKey bool   `json:"has_gateway_api_key"`
}

type settingsUpdateRequest struct {
	GatewayHost   string `json:"gateway_host"`
	GatewayWSURL  string `json:"gateway_ws_url"`
	GatewayAPIKey string `json:"gateway_api_key,omitempty"`
}

type settingsTestRequest struct {
	GatewayHost   string `json:"gateway_host"`
	GatewayAPIKey string `json:"gateway_api_key"`
}

// handleGetSettings returns the gateway connection config. The API key
// itself is never echoed back, only whether one is configured.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Store.GetSettings(r.Context())
	if err != nil {
		s.writeErrorResponse(w, "failed to load settings", http.StatusInternalServerError, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, settingsResponse{
		IsSetupComplete:  settings.IsSetupComplete,
		GatewayHost:      settings.GatewayHost,
		GatewayWSURL:     settings.GatewayWSURL,
		HasGatewayAPIKey: len(settings.GatewayAPIKeyEncrypted) > 0,
	})
}

// handlePutSettings updates the gateway connection config. GatewayAPIKey
// is only re-encrypted and stored when the caller supplies a non-empty
// value, so the host/URL can be changed without re-submitting the key.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, "invalid request body", http.StatusBadRequest, err)
		return
	}

	settings, err := s.deps.Store.GetSettings(r.Context())
	if err != nil {
		s.writeErrorResponse(w, "failed to load settings", http.StatusInternalServerError, err)
		return
	}

	if req.GatewayHost != "" {
		settings.GatewayHost = req.GatewayHost
	} else if settings.GatewayHost == "" {
		settings.GatewayHost = types.DefaultGatewayHost
	}
	if req.GatewayWSURL != "" {
		settings.GatewayWSURL = req.GatewayWSURL
	} else if settings.GatewayWSURL == "" {
		settings.GatewayWSURL = types.DefaultGatewayWSURL
	}

	if req.GatewayAPIKey != "" {
		ciphertext, err := s.deps.Cipher.Encrypt(req.GatewayAPIKey)
		if err != nil {
			s.writeErrorResponse(w, "failed to encrypt gateway key", http.StatusInternalServerError, err)
			return
		}
		settings.GatewayAPIKeyEncrypted = ciphertext
	}

	if err := s.deps.Store.SaveSettings(r.Context(), settings); err != nil {
		s.writeErrorResponse(w, "failed to save settings", http.StatusInternalServerError, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, settingsResponse{
		IsSetupComplete:  settings.IsSetupComplete,
		GatewayHost:      settings.GatewayHost,
		GatewayWSURL:     settings.GatewayWSURL,
		HasGatewayAPIKey: len(settings.GatewayAPIKeyEncrypted) > 0,
	})
}

// handleTestSettings performs a live Funds() call against the supplied (or,
// if omitted, currently configured) gateway connection, matching the
// original OpenAlgoClient.test_connection behavior.
func (s *Server) handleTestSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, "invalid request body", http.StatusBadRequest, err)
		return
	}

	host := req.GatewayHost
	apiKey := req.GatewayAPIKey
	if host == "" || apiKey == "" {
		settings, err := s.deps.Store.GetSettings(r.Context())
		if err != nil {
			s.writeErrorResponse(w, "failed to load settings", http.StatusInternalServerError, err)
			return
		}
		if host == "" {
			host = settings.GatewayHost
		}
		if apiKey == "" && len(settings.GatewayAPIKeyEncrypted) > 0 {
			decrypted, err := s.deps.Cipher.Decrypt(settings.GatewayAPIKeyEncrypted)
			if err != nil {
				s.writeErrorResponse(w, "failed to decrypt stored gateway key", http.StatusInternalServerError, err)
				return
			}
			apiKey = decrypted
		}
	}
	if host == "" || apiKey == "" {
		s.writeErrorResponse(w, "gateway host and api key are required", http.StatusBadRequest, nil)
		return
	}

	client := gateway.New(host, apiKey, s.deps.EngineConfig.HTTPTimeout)
	envelope, err := client.Funds(r.Context())
	if err != nil {
		s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	if envelope.Status != "success" {
		s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"error":   envelope.Message,
		})
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    envelope.Data,
	})
}
