package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"patrol_tracker/internal/apperr"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 72 * time.Hour

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Auth issues and checks HS256 tokens.
type Auth struct {
	secret []byte
	now    func() time.Time
}

// NewAuth falls back to a fixed secret when none is given. That is only for
// local development; `serve --release` refuses to start without JWT_SECRET.
func NewAuth(secret string) *Auth {
	if secret == "" {
		logrus.Warn("JWT_SECRET not set, using insecure development secret")
		secret = "supersecret" // fallback
	}
	return &Auth{secret: []byte(secret), now: time.Now}
}

func (a *Auth) GenerateToken(userID uint, role string) (string, error) {
	now := a.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *Auth) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// RequireAuth ensures a valid JWT is present
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := a.authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequireAuthWithRole ensures the JWT is valid and the user has a specific role
func (a *Auth) RequireAuthWithRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := a.authenticate(c)
		if !ok {
			return
		}
		if claims.Role != requiredRole {
			abort(c, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
			return
		}
		c.Next()
	}
}

// authenticate validates the bearer token and stores its claims on c.
// It aborts with 401 on failure and never advances the chain.
func (a *Auth) authenticate(c *gin.Context) (*Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		abort(c, http.StatusUnauthorized, apperr.KindSessionInvalid, "Missing or invalid Authorization header")
		return nil, false
	}

	claims, err := a.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		abort(c, http.StatusUnauthorized, apperr.KindSessionInvalid, "Invalid or expired token")
		return nil, false
	}

	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxRole, claims.Role)
	return claims, true
}

// UserID returns the authenticated user's ID, or 0 outside RequireAuth.
func UserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

func abort(c *gin.Context, status int, code apperr.Kind, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "code": code, "error": msg})
}
