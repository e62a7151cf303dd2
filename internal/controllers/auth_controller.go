package controllers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"patrol_tracker/internal/apperr"
	"patrol_tracker/internal/models"
)

type signupInput struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6"`
}

// SignupGuard registers a guard account.
func (h *Handler) SignupGuard(c *gin.Context) {
	h.signup(c, models.RoleGuard)
}

// SignupAdmin registers an admin account; the caller must present the admin access key.
func (h *Handler) SignupAdmin(c *gin.Context) {
	key := c.GetHeader("X-Admin-Access-Key")
	if h.adminAccessKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.adminAccessKey)) != 1 {
		logrus.WithField("client_ip", c.ClientIP()).Warn("Admin signup rejected: bad access key")
		c.JSON(http.StatusForbidden, gin.H{"success": false, "code": "FORBIDDEN", "error": "invalid admin access key"})
		return
	}
	h.signup(c, models.RoleAdmin)
}

func (h *Handler) signup(c *gin.Context, role string) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		respondError(c, apperr.Internal(err, "could not hash password"))
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(input.Name),
		Username: strings.ToLower(strings.TrimSpace(input.Username)),
		Password: hashedPassword,
		Role:     role,
	}
	if err := h.store.CreateUser(c.Request.Context(), &user); err != nil {
		respondError(c, err)
		return
	}

	token, err := h.auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		respondError(c, apperr.Internal(err, "could not generate token"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.store.UserByUsername(c.Request.Context(), strings.ToLower(strings.TrimSpace(body.Username)))
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			respondError(c, apperr.SessionInvalid("invalid username or password"))
			return
		}
		respondError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		respondError(c, apperr.SessionInvalid("invalid username or password"))
		return
	}

	token, err := h.auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		respondError(c, apperr.Internal(err, "could not generate token"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
