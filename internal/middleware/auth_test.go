package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"course_studio_backend/internal/model"
	"course_studio_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret"

func tokenFor(t *testing.T, role model.UserRole) string {
	t.Helper()
	p := &model.Profile{Email: "x@example.com", Role: role}
	p.ID = model.GenerateUUID()
	token, err := util.GenerateJWT(p, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func serve(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAndRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", AuthMiddleware(testSecret), RoleMiddleware(model.Teacher), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "garbage").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, tokenFor(t, model.Student)).Code)
	assert.Equal(t, http.StatusOK, serve(r, tokenFor(t, model.Teacher)).Code)
	assert.Equal(t, http.StatusOK, serve(r, tokenFor(t, model.Admin)).Code)
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", OptionalAuth(testSecret), func(c *gin.Context) {
		c.String(http.StatusOK, util.CallerIdentity(c))
	})

	w := serve(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ip:")

	w = serve(r, tokenFor(t, model.Student))
	assert.NotContains(t, w.Body.String(), "ip:")
}
