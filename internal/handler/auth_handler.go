package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"vidaplus/internal/lib/sl"
	"vidaplus/internal/middleware"
	"vidaplus/internal/model"
	"vidaplus/internal/service"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.AuthService
	log     *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{service: s, log: log.With(slog.String("component", "handler/auth"))}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("registration failed", sl.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	h.log.Info("user registered", slog.String("user_id", user.ID), slog.String("role", user.Role))
	c.JSON(http.StatusCreated, gin.H{
		"message": "user registered successfully",
		"user":    user,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
		case errors.Is(err, service.ErrAccountInactive):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			h.log.Error("login failed", sl.Err(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to login"})
		}
		return
	}

	c.JSON(http.StatusOK, model.LoginResponse{
		Message: "login successful",
		User:    *user,
		Token:   token,
	})
}

// Me returns the authenticated account
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.AuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user ID not found in context"})
		return
	}

	user, err := h.service.Me(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("failed to load current user", slog.String("user_id", userID), sl.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// RegisterAuthRoutes registers auth routes. loginGuards run before Login,
// authMW before Me.
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, loginGuards ...gin.HandlerFunc) {
	rg.POST("/register", h.Register)
	rg.POST("/login", chain(loginGuards, h.Login)...)
	rg.GET("/me", authMW, h.Me)
}

// RegisterLegacyRoutes mounts the unprefixed register and login aliases
func (h *AuthHandler) RegisterLegacyRoutes(r gin.IRoutes, loginGuards ...gin.HandlerFunc) {
	r.POST("/register", h.Register)
	r.POST("/login", chain(loginGuards, h.Login)...)
}

func chain(guards []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(guards)+1)
	out = append(out, guards...)
	return append(out, h)
}
