package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/coursehub/internal/app/system/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()

	srv := httptest.NewServer(metrics.Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestCollector_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.CourseCreated()
	c.Purchase()
	c.Purchase()
	c.ListChange("cart", "add")
	c.ListChange("cart", "add")
	c.ListChange("wishlist", "remove")

	out := scrape(t, reg)
	for _, want := range []string{
		"coursehub_courses_created_total 1",
		"coursehub_purchases_total 2",
		`coursehub_list_changes_total{list="cart",op="add"} 2`,
		`coursehub_list_changes_total{list="wishlist",op="remove"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestNewCollector_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	metrics.NewCollector(reg)
}

func TestNop_SatisfiesRecorder(t *testing.T) {
	var r metrics.Recorder = metrics.Nop{}
	r.Purchase()
	r.ListChange("cart", "add")
}
