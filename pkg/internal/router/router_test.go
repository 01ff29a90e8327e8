package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/internal/router"
)

type stubHandlers struct{}

func reply(name string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, name) }
}

func (stubHandlers) Ping() gin.HandlerFunc      { return reply("ping") }
func (stubHandlers) Users() gin.HandlerFunc     { return reply("users") }
func (stubHandlers) Images() gin.HandlerFunc    { return reply("images") }
func (stubHandlers) Upload() gin.HandlerFunc    { return reply("upload") }
func (stubHandlers) Download() gin.HandlerFunc  { return reply("download") }
func (stubHandlers) Labels() gin.HandlerFunc    { return reply("labels") }
func (stubHandlers) Search() gin.HandlerFunc    { return reply("search") }
func (stubHandlers) DeleteAll() gin.HandlerFunc { return reply("deleteall") }
func (stubHandlers) Readyz() gin.HandlerFunc    { return reply("readyz") }

func TestRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	router.Register(r.Group(""), stubHandlers{})
	router.RegisterHealthCheckRoutes(r.Group(""), stubHandlers{})
	router.RegisterSchedulerRoutes(r.Group(""), nil)

	cases := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/ping", "ping"},
		{http.MethodGet, "/users", "users"},
		{http.MethodGet, "/images?userid=1", "images"},
		{http.MethodPost, "/image/80001", "upload"},
		{http.MethodGet, "/image/1001", "download"},
		{http.MethodGet, "/image_labels/1001", "labels"},
		{http.MethodGet, "/images_with_label/cat", "search"},
		{http.MethodDelete, "/images", "deleteall"},
		{http.MethodGet, "/readyz", "readyz"},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))

		if w.Code != http.StatusOK || w.Body.String() != tc.want {
			t.Errorf("%s %s = %d %q, want %q", tc.method, tc.path, w.Code, w.Body.String(), tc.want)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("jobs status = %d", w.Code)
	}
}
