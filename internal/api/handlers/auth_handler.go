package handlers

import (
	"encoding/json"
	"net/http"

	"ecoflow/internal/pkg/errors"
	"ecoflow/internal/platform/auth"
	"ecoflow/internal/platform/config"
	"github.com/rs/zerolog/log"
)

type AuthHandler struct {
	cfg      config.AuthConfig
	ttl      int64
	tokenSvc *auth.TokenService
}

func NewAuthHandler(cfg config.AuthConfig, jwtCfg config.JWTConfig, tokenSvc *auth.TokenService) *AuthHandler {
	return &AuthHandler{
		cfg:      cfg,
		ttl:      int64(jwtCfg.AccessTokenTTL.Seconds()),
		tokenSvc: tokenSvc,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	// Run bcrypt even for an unknown user so both paths cost the same.
	passwordOK := auth.CheckPassword(h.cfg.PasswordHash, req.Password)
	if h.cfg.Username == "" || req.Username != h.cfg.Username || !passwordOK {
		log.Warn().Str("username", req.Username).Msg("login rejected")
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	accessToken, err := h.tokenSvc.GenerateAccessToken(req.Username)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}

	errors.WriteJSON(w, http.StatusOK, LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   h.ttl,
	})
}
