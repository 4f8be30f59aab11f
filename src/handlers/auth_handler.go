package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/username/vendasbanco/src/config"
	"github.com/username/vendasbanco/src/logger"
	"github.com/username/vendasbanco/src/security"
	"github.com/username/vendasbanco/src/utils"
)

// AuthHandler authenticates the single admin principal and guards the API.
type AuthHandler struct {
	authService *security.AuthService
}

func NewAuthHandler(authService *security.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if config.Cfg.AdminPasswordHash == "" {
		logger.L.Error("Login attempted but ADMIN_PASSWORD_HASH is not configured")
		utils.SendJSONError(w, "Login is not configured on this server", http.StatusServiceUnavailable)
		return
	}

	if req.Username != config.Cfg.AdminUsername ||
		h.authService.CompareHashAndPassword(config.Cfg.AdminPasswordHash, req.Password) != nil {
		logger.L.Warn("Failed login attempt", "username", req.Username, "remoteAddr", r.RemoteAddr)
		utils.SendJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.authService.GenerateToken(req.Username)
	if err != nil {
		logger.L.Error("Failed to generate access token", "error", err)
		utils.SendJSONError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]string{"access_token": token}, http.StatusOK)
}

func (h *AuthHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logger.L.Debug("AuthMiddleware: Authorization header missing", "path", r.URL.Path)
			utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			logger.L.Debug("AuthMiddleware: Token string empty", "path", r.URL.Path)
			utils.SendJSONError(w, "Malformed token", http.StatusUnauthorized)
			return
		}

		if _, err := h.authService.ValidateToken(tokenString); err != nil {
			logger.L.Warn("AuthMiddleware: Token validation failed", "path", r.URL.Path, "error", err)
			utils.SendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
