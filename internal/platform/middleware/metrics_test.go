package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lumicare/lumi/internal/platform/metrics"
)

func TestMetrics_LabelsByRouteTemplate(t *testing.T) {
	m := metrics.New("mw_test")
	e := echo.New()
	h := Metrics(m)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	for _, id := range []string{"1", "2"} {
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/medications/"+id+"/log", nil), httptest.NewRecorder())
		c.SetPath("/medications/:id/log")
		c.SetParamNames("id")
		c.SetParamValues(id)
		if err := h(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/medications/:id/log", "200"))
	if got != 2 {
		t.Errorf("expected 2 requests under the route template, got %v", got)
	}
}

func TestMetrics_RecordsErrorStatus(t *testing.T) {
	m := metrics.New("mw_test")
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/emergency/active", nil), httptest.NewRecorder())
	c.SetPath("/emergency/active")

	err := Metrics(m)(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "no active emergency")
	})(c)
	if err == nil {
		t.Fatal("expected the handler error to pass through")
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/emergency/active", "404"))
	if got != 1 {
		t.Errorf("expected 1 request with status 404, got %v", got)
	}
}
