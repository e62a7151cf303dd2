package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(a *Auth) *gin.Engine {
	r := gin.New()
	r.GET("/any", a.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	r.GET("/admin", a.RequireAuthWithRole("ADMIN"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestTokenRoundTrip(t *testing.T) {
	a := NewAuth("s3cret")
	token, err := a.GenerateToken(7, "GUARD")
	require.NoError(t, err)

	claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "GUARD", claims.Role)
}

func TestValidateToken_Rejects(t *testing.T) {
	a := NewAuth("s3cret")

	other, err := NewAuth("different").GenerateToken(7, "GUARD")
	require.NoError(t, err)
	_, err = a.ValidateToken(other)
	assert.Error(t, err, "wrong signing key")

	a.now = func() time.Time { return time.Now().Add(-TokenTTL - time.Hour) }
	expired, err := a.GenerateToken(7, "GUARD")
	require.NoError(t, err)
	a.now = time.Now
	_, err = a.ValidateToken(expired)
	assert.Error(t, err, "expired token")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7, Role: "ADMIN"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = a.ValidateToken(unsigned)
	assert.Error(t, err, "alg none")
}

func TestRequireAuth(t *testing.T) {
	a := NewAuth("s3cret")
	r := newRouter(a)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/any", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/any", "garbage").Code)

	token, err := a.GenerateToken(42, "GUARD")
	require.NoError(t, err)
	rec := do(r, "/any", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":42}`, rec.Body.String())
}

func TestRequireAuthWithRole(t *testing.T) {
	a := NewAuth("s3cret")
	r := newRouter(a)

	guard, err := a.GenerateToken(1, "GUARD")
	require.NoError(t, err)
	admin, err := a.GenerateToken(2, "ADMIN")
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", guard).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", admin).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin", "").Code)
}

func TestRequireAuthWithRole_StopsChainForWrongRole(t *testing.T) {
	a := NewAuth("s3cret")
	calls := 0
	r := gin.New()
	r.POST("/admin/duty/sweep", a.RequireAuthWithRole("ADMIN"), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"success": true, "data": "swept"})
	})

	guard, err := a.GenerateToken(1, "GUARD")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/admin/duty/sweep", nil)
	req.Header.Set("Authorization", "Bearer "+guard)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, calls, "handler must not run for a guard")
	assert.JSONEq(t, `{"success":false,"code":"FORBIDDEN","error":"Insufficient permissions"}`, rec.Body.String())

	admin, err := a.GenerateToken(2, "ADMIN")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/admin/duty/sweep", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls, "handler runs exactly once for an admin")
}

func TestEnableCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	h := EnableCORS([]string{"https://ops.example.com"}, next)

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://ops.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	EnableCORS(nil, next).ServeHTTP(rec, req)
	assert.Equal(t, "https://evil.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
