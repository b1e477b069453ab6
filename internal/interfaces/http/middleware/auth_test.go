package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storymagic-api/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret-0123456789"

func newAuthTestRouter(cfg AuthConfig) *gin.Engine {
	r := gin.New()
	r.Use(Auth(cfg))
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "tier": c.GetString("tier")})
	}
	r.GET("/health", handler)
	r.POST("/v1/auth/login", handler)
	r.GET("/v1/stories", handler)
	return r
}

func authGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthValidToken(t *testing.T) {
	r := newAuthTestRouter(AuthConfig{Secret: testSecret, Issuer: "storymagic", Enabled: true})

	jm := utils.NewJWTManager(testSecret, "storymagic")
	token, err := jm.GenerateToken("u1", "plus", "access", time.Minute)
	require.NoError(t, err)

	w := authGet(r, "/v1/stories", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u1"`)
	assert.Contains(t, w.Body.String(), `"tier":"plus"`)
}

func TestAuthMissingOrMalformedHeader(t *testing.T) {
	r := newAuthTestRouter(AuthConfig{Secret: testSecret, Issuer: "storymagic", Enabled: true})

	w := authGet(r, "/v1/stories", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/stories", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid authorization format")
}

func TestAuthExpiredToken(t *testing.T) {
	r := newAuthTestRouter(AuthConfig{Secret: testSecret, Issuer: "storymagic", Enabled: true})

	jm := utils.NewJWTManager(testSecret, "storymagic")
	token, err := jm.GenerateToken("u1", "free", "access", -time.Minute)
	require.NoError(t, err)

	w := authGet(r, "/v1/stories", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired")
}

func TestAuthRejectsRefreshTokenOnAPI(t *testing.T) {
	r := newAuthTestRouter(AuthConfig{Secret: testSecret, Issuer: "storymagic", Enabled: true})

	jm := utils.NewJWTManager(testSecret, "storymagic")
	token, err := jm.GenerateToken("u1", "free", "refresh", time.Hour)
	require.NoError(t, err)

	w := authGet(r, "/v1/stories", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token type")
}

func TestAuthWrongSecret(t *testing.T) {
	r := newAuthTestRouter(AuthConfig{Secret: testSecret, Issuer: "storymagic", Enabled: true})

	jm := utils.NewJWTManager("another-secret", "storymagic")
	token, err := jm.GenerateToken("u1", "free", "access", time.Minute)
	require.NoError(t, err)

	w := authGet(r, "/v1/stories", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthSkipPaths(t *testing.T) {
	r := newAuthTestRouter(AuthConfig{
		Secret:    testSecret,
		Issuer:    "storymagic",
		SkipPaths: DefaultSkipPaths,
		Enabled:   true,
	})

	w := authGet(r, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	r := newAuthTestRouter(AuthConfig{Enabled: false})

	w := authGet(r, "/v1/stories", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
