package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schikko/metrics"
	"schikko/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(tokens *utils.IdentityTokens, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(PrometheusMiddleware(m), Identity(tokens))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, UID(c))
	})
	return r
}

func TestIdentityFromCookieAndHeader(t *testing.T) {
	tokens := utils.NewIdentityTokens("secret", time.Hour)
	uid, token, err := tokens.Issue()
	require.NoError(t, err)
	r := newRouter(tokens, nil)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: IdentityCookie, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, uid, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, uid, w.Body.String())
}

func TestIdentityIgnoresForgedToken(t *testing.T) {
	_, forged, err := utils.NewIdentityTokens("other", time.Hour).Issue()
	require.NoError(t, err)
	r := newRouter(utils.NewIdentityTokens("secret", time.Hour), nil)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: IdentityCookie, Value: forged})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestPrometheusMiddlewareCountsRequests(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := newRouter(utils.NewIdentityTokens("secret", time.Hour), m)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/whoami", "200")))
}
