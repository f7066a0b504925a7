package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	rec := New()
	r := chi.NewRouter()
	r.Use(rec.Middleware())
	r.Get("/v1/profiles/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/profiles/abc", http.NoBody))

	got := testutil.ToFloat64(rec.httpRequestsTotal.WithLabelValues("GET", "/v1/profiles/{id}", "404"))
	if got != 1 {
		t.Fatalf("expected one request under the route pattern, got %f", got)
	}
	if testutil.CollectAndCount(rec.httpRequestDuration) == 0 {
		t.Fatalf("expected duration observations")
	}
}

func TestDomainCounters(t *testing.T) {
	rec := New()
	rec.ObserveSwipe("like")
	rec.ObserveSwipe("like")
	rec.ObserveSwipe("pass")
	rec.ObserveMatchFormed()
	rec.ObserveRepair("queued")
	rec.ObserveCandidates("pet", 7)
	rec.SetRepairBacklog(3)

	if got := testutil.ToFloat64(rec.swipesTotal.WithLabelValues("like")); got != 2 {
		t.Fatalf("like swipes: got %f want 2", got)
	}
	if got := testutil.ToFloat64(rec.matchesFormed); got != 1 {
		t.Fatalf("matches formed: got %f want 1", got)
	}
	if got := testutil.ToFloat64(rec.matchRepairs.WithLabelValues("queued")); got != 1 {
		t.Fatalf("queued repairs: got %f want 1", got)
	}
	if got := testutil.ToFloat64(rec.repairBacklog); got != 3 {
		t.Fatalf("backlog: got %f want 3", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	rec.ObserveSwipe("like")
	rec.ObserveMatchFormed()
	rec.ObserveRepair("healed")
	rec.ObserveCandidates("owner", 1)
	rec.SetRepairBacklog(0)
}

func TestHandlerExposesDomainMetrics(t *testing.T) {
	rec := New()
	rec.ObserveMatchFormed()

	rr := httptest.NewRecorder()
	rec.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), "pethoria_matches_formed_total 1") {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}
}
