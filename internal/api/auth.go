package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/eflash24/eflash-store/internal/accounts"
	"github.com/eflash24/eflash-store/internal/auth"
	"github.com/eflash24/eflash-store/pkg/schema"
	"github.com/gin-gonic/gin"
)

// AuthHandler owns the register/login/session endpoints.
type AuthHandler struct {
	Accounts *accounts.Service
	Tokens   *auth.TokenManager
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string            `json:"token"`
	User  schema.PublicUser `json:"user"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req accounts.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	user, err := h.Accounts.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		abortWithError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.Accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	token, err := h.Tokens.Generate(user)
	if err != nil {
		fail(c, fmt.Errorf("generate token: %w", err))
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}

// Session returns the user a bearer token was issued for.
func (h *AuthHandler) Session(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		abortWithError(c, http.StatusUnauthorized, "bearer token required")
		return
	}
	user, err := h.Tokens.Parse(strings.TrimSpace(token))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) DeleteUser(c *gin.Context) {
	email := c.Param("email")
	if err := h.Accounts.Delete(c.Request.Context(), email); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("user %s deleted", schema.NormalizeEmail(email))})
}
