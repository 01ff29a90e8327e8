package app_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/photovault/pkg/app"
	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/scheduler"
)

type okHandlers struct{}

func ok(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "success"}) }

func (okHandlers) Ping() gin.HandlerFunc      { return ok }
func (okHandlers) Users() gin.HandlerFunc     { return ok }
func (okHandlers) Images() gin.HandlerFunc    { return ok }
func (okHandlers) Upload() gin.HandlerFunc    { return ok }
func (okHandlers) Download() gin.HandlerFunc  { return ok }
func (okHandlers) Labels() gin.HandlerFunc    { return ok }
func (okHandlers) Search() gin.HandlerFunc    { return ok }
func (okHandlers) DeleteAll() gin.HandlerFunc { return ok }
func (okHandlers) Readyz() gin.HandlerFunc    { return ok }

func TestNewEngineRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg, _, err := configs.Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	sched, err := scheduler.New(zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { _ = sched.Shutdown() })

	engine := app.NewEngine(cfg, okHandlers{}, sched)

	for _, path := range []string{"/ping", "/healthz", "/readyz", "/jobs", "/metrics"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("unknown route = %d", w.Code)
	}
}

func TestMetricsOnSeparateEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg, _, err := configs.Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	cfg.Metrics.Endpoint = "127.0.0.1:0"

	engine := app.NewEngine(cfg, okHandlers{}, nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("metrics should not be mounted on the api engine, got %d", w.Code)
	}
}

func TestSwaggerOnlyInDebug(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg, _, err := configs.Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	app.NewEngine(cfg, okHandlers{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("swagger without debug = %d", w.Code)
	}

	cfg.Server.Debug = true

	w = httptest.NewRecorder()
	app.NewEngine(cfg, okHandlers{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("swagger with debug = %d", w.Code)
	}

	if !strings.Contains(w.Body.String(), "/images_with_label/{label}") {
		t.Errorf("doc.json misses search route: %s", w.Body.String())
	}
}
