package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aura-lectures/backend/internal/auth"
)

func newRouter(tokens *auth.TokenService, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/write", JWT(tokens), RequireRole(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextSubject))
	})
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/write", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTDisabledAllowsAnonymousAdmin(t *testing.T) {
	w := do(newRouter(nil, auth.RoleAdmin), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())
}

func TestJWTRequiresValidToken(t *testing.T) {
	tokens := auth.NewTokenService("secret", 1)
	r := newRouter(tokens, auth.RoleEditor, auth.RoleAdmin)

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer abc").Code)

	token, err := tokens.Generate("ops", auth.RoleEditor)
	require.NoError(t, err)
	w := do(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ops", w.Body.String())
}

func TestRequireRoleForbidsEditorOnAdminRoute(t *testing.T) {
	tokens := auth.NewTokenService("secret", 1)
	token, err := tokens.Generate("ops", auth.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do(newRouter(tokens, auth.RoleAdmin), "Bearer "+token).Code)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS("http://a.test, http://b.test"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://b.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://b.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggerLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, p := range []string{"/ok", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, "/boom", entries[1].ContextMap()["path"])
}
