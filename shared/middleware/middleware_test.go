package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cloud-platform/cors-static/shared/config"
)

var testCORS = config.CORSConfig{
	AllowOrigin:   "*",
	AllowMethods:  "GET, POST, OPTIONS",
	AllowHeaders:  "*",
	XFrameOptions: "ALLOWALL",
}

func init() {
	gin.SetMode(gin.TestMode)
}

func assertCORSHeaders(t *testing.T, resp *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", resp.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "ALLOWALL", resp.Header().Get("X-Frame-Options"))
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(CORS(testCORS))
	router.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	t.Run("GET请求带跨域头", func(t *testing.T) {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/ok", nil))

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "ok", resp.Body.String())
		assertCORSHeaders(t, resp)
	})

	t.Run("404响应也带跨域头", func(t *testing.T) {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/missing", nil))

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assertCORSHeaders(t, resp)
	})

	t.Run("405响应也带跨域头", func(t *testing.T) {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/ok", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
		assertCORSHeaders(t, resp)
	})

	for _, path := range []string{"/ok", "/missing", "/deep/nested/path.js"} {
		t.Run("OPTIONS "+path, func(t *testing.T) {
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, httptest.NewRequest(http.MethodOptions, path, nil))

			assert.Equal(t, http.StatusOK, resp.Code)
			assert.Empty(t, resp.Body.String())
			assertCORSHeaders(t, resp)
		})
	}
}

func TestCORS_EmptyValueSkipsHeader(t *testing.T) {
	cfg := testCORS
	cfg.XFrameOptions = ""

	router := gin.New()
	router.Use(CORS(cfg))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	_, present := resp.Header()["X-Frame-Options"]
	assert.False(t, present)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("生成新的请求ID", func(t *testing.T) {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

		id := resp.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, resp.Body.String())
	})

	t.Run("沿用客户端请求ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "trace-123")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		assert.Equal(t, "trace-123", resp.Header().Get(RequestIDHeader))
	})
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	router := gin.New()
	router.Use(RequestID(), AccessLog(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "/ok", ctx["path"])
	assert.EqualValues(t, http.StatusOK, ctx["status"])
	assert.EqualValues(t, 5, ctx["body_size"])
	assert.NotEmpty(t, ctx["request_id"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)), CORS(testCORS))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "500 internal server error", resp.Body.String())
	assertCORSHeaders(t, resp)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "boom", logs.All()[0].ContextMap()["panic"])
}
