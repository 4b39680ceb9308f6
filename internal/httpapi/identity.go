package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventra/internal/auth"
	"eventra/internal/identity"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Mobile   string `json:"mobile"`
	College  string `json:"college"`
}

// RegisterUser creates a student account. Coordinator and admin accounts are
// seeded out of band.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.identity.Register(c.Request.Context(), identity.User{
		Name:    req.Name,
		Email:   req.Email,
		Role:    auth.RoleStudent,
		Mobile:  req.Mobile,
		College: req.College,
	}, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
			return
		}
		h.serverError(c, "register user", err)
		return
	}

	token, exp, err := auth.Issue(u.ID, u.Role, h.tokens.Issuer, h.tokens.SigningKey, h.tokens.TTL)
	if err != nil {
		h.serverError(c, "issue token", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "expires_at": exp.Unix(), "user": u})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a role-carrying JWT.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.identity.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		h.serverError(c, "login", err)
		return
	}

	token, exp, err := auth.Issue(u.ID, u.Role, h.tokens.Issuer, h.tokens.SigningKey, h.tokens.TTL)
	if err != nil {
		h.serverError(c, "issue token", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": exp.Unix(), "user": u})
}
