package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"

	"github.com/Gunvolt24/eventpipe/internal/ports/mocks"
	"github.com/Gunvolt24/eventpipe/pkg/httpx"
)

func newLoggedRouter(t *testing.T, log *mocks.MockLogger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(httpx.RequestIDMiddleware(), httpx.RequestLogger(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRequestLogger_LevelsAndSkips(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	r := newLoggedRouter(t, log)

	gomock.InOrder(
		log.EXPECT().Infof(gomock.Any(), gomock.Any(), gomock.Any()).Times(1),
		log.EXPECT().Warnf(gomock.Any(), gomock.Any(), gomock.Any()).Times(1),
	)

	for _, path := range []string{"/ok", "/fail", "/healthz"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	}
}
