// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package api

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/affinity"
	"github.com/atelier-labs/cloe/internal/analytics"
	"github.com/atelier-labs/cloe/internal/config"
	"github.com/atelier-labs/cloe/internal/greeting"
	"github.com/atelier-labs/cloe/internal/models"
	"github.com/atelier-labs/cloe/internal/recommend"
	"github.com/atelier-labs/cloe/internal/reports"
	"github.com/atelier-labs/cloe/internal/store"
	"github.com/atelier-labs/cloe/internal/tracking"
	"github.com/atelier-labs/cloe/internal/trend"
)

// stubFetcher keeps API tests off the network.
type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context, sourceID string) (*models.TrendSnapshot, error) {
	return &models.TrendSnapshot{
		SourceID:  sourceID,
		Styles:    []models.TrendEntry{{Name: "brutalism", Score: 0.8}},
		FetchedAt: time.Now().UTC(),
	}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *store.BadgerStore) {
	t.Helper()
	s, err := store.Open(store.Options{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	logger := zerolog.Nop()
	recorder := tracking.NewRecorder(s, nil, logger)
	tracker := tracking.NewTracker(s, recorder, 1800*time.Second, logger)
	agg := analytics.NewAggregator(s, logger)
	clusters := affinity.NewEngine(agg, logger)
	correlator := trend.NewCorrelator(s, stubFetcher{}, []string{"feed-a"}, logger)
	catalog := recommend.NewEventCatalog(s, logger)
	recommends := recommend.NewEngine(catalog, s, recorder,
		config.RecommendConfig{DefaultLimit: 10, MaxLimit: 50}, logger)
	greeter := greeting.NewMachine(rand.New(rand.NewSource(1)), logger)
	contexts := greeting.NewContextBuilder(s, logger)
	runner := reports.NewRunner(agg, clusters, correlator, s, logger)

	handler := NewHandler(recorder, tracker, agg, clusters, correlator,
		recommends, greeter, contexts, runner, logger)
	router := NewRouter(handler, config.ServerConfig{
		RateLimitReqs:   1000,
		RateLimitWindow: time.Minute,
		CORSOrigins:     []string{"*"},
	})

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv, s
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string, dest any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestRecordEventEndpoint(t *testing.T) {
	srv, s := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/events",
		`{"user_id":"u1","type":"view","payload":{"style_id":"cubism"}}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["event_id"] == "" {
		t.Error("empty event_id in response")
	}

	events, err := s.QueryEvents(context.Background(), store.EventFilter{UserID: "u1"})
	if err != nil || len(events) != 1 {
		t.Fatalf("stored events = %v (err %v), want 1", events, err)
	}
}

func TestRecordEventRejectsUnknownType(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/events", `{"user_id":"u1","type":"teleport"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSessionLifecycleEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/sessions/start", `{"user_id":"u1","referrer":"search"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status = %d, want 201", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/v1/sessions/continue", `{"user_id":"u1","page":"/gallery"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("continue status = %d, want 200", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/v1/sessions/end", `{"user_id":"u1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("end status = %d, want 200", resp.StatusCode)
	}

	// Ending again is an idempotent success.
	resp = postJSON(t, srv.URL+"/api/v1/sessions/end", `{"user_id":"u1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("second end status = %d, want 200", resp.StatusCode)
	}
}

func TestSessionStartRequiresUserID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/sessions/start", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	var funnel models.FunnelMetrics
	resp := getJSON(t, srv.URL+"/api/v1/metrics/funnel?period=day", &funnel)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if resp := getJSON(t, srv.URL+"/api/v1/metrics/funnel?period=eon", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad period status = %d, want 400", resp.StatusCode)
	}
	if resp := getJSON(t, srv.URL+"/api/v1/metrics/vibes", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad kind status = %d, want 400", resp.StatusCode)
	}
}

func TestAffinityClustersEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	var body struct {
		Clusters   []models.StyleAffinityCluster `json:"clusters"`
		Engagement []models.StyleEngagement      `json:"engagement"`
	}
	resp := getJSON(t, srv.URL+"/api/v1/affinity/clusters?period=week", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCorrelatedTrendsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	var body models.CorrelatedTrends
	resp := getJSON(t, srv.URL+"/api/v1/trends/correlated", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	// The stub feed always trends brutalism; no internal engagement exists.
	if len(body.Opportunities) != 1 || body.Opportunities[0] != "brutalism" {
		t.Errorf("opportunities = %v, want [brutalism]", body.Opportunities)
	}
}

func TestRecommendationsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	// Seed popularity through the API itself.
	for i := 0; i < 3; i++ {
		postJSON(t, srv.URL+"/api/v1/events",
			fmt.Sprintf(`{"user_id":"u%d","type":"purchase","payload":{"artwork_id":"a1"}}`, i))
	}

	var result models.RecommendationResult
	resp := getJSON(t, srv.URL+"/api/v1/recommendations?type=artwork&limit=5", &result)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if result.Personalized {
		t.Error("anonymous request marked personalized")
	}
	if len(result.Items) != 1 || result.Items[0].ItemID != "a1" {
		t.Errorf("items = %v, want [a1]", result.Items)
	}

	if resp := getJSON(t, srv.URL+"/api/v1/recommendations?type=cheese", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad type status = %d, want 400", resp.StatusCode)
	}
}

func TestGreetingEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	var g models.Greeting
	resp := getJSON(t, srv.URL+"/api/v1/greeting", &g)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if g.State != greeting.StateTimeBased {
		t.Errorf("anonymous greeting state = %q, want time_based", g.State)
	}
	if g.Message == "" {
		t.Error("empty greeting message")
	}
}

func TestJobEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/jobs/daily/run", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("run job: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("run status = %d, want 200", resp.StatusCode)
	}

	var snapshot models.ReportSnapshot
	latest := getJSON(t, srv.URL+"/api/v1/reports/trend/latest", &snapshot)
	if latest.StatusCode != http.StatusOK {
		t.Fatalf("latest status = %d, want 200", latest.StatusCode)
	}
	if snapshot.Kind != models.ReportTrend {
		t.Errorf("snapshot kind = %s, want trend", snapshot.Kind)
	}

	if resp := getJSON(t, srv.URL+"/api/v1/reports/seo/latest", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing snapshot status = %d, want 404", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	resp := getJSON(t, srv.URL+"/api/v1/health", &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v, want 200 ok", resp.StatusCode, body)
	}
}

func TestPrometheusExposition(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
