package routing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"trucklog/internal/domain"
)

const directionsBody = `{
  "type": "FeatureCollection",
  "features": [{
    "geometry": {"type": "LineString", "coordinates": [[-87.63, 41.88], [-90.20, 38.63], [-96.80, 32.78]]},
    "properties": {"summary": {"distance": 968.4, "duration": 55800}}
  }]
}`

func newTestClient(t *testing.T, srv *httptest.Server, cache *SQLiteCache) *ORSClient {
	t.Helper()
	c, err := NewORSClient(ORSConfig{APIKey: "test-key", BaseURL: srv.URL}, cache)
	if err != nil {
		t.Fatalf("NewORSClient failed: %v", err)
	}
	return c
}

func newMemoryCache(t *testing.T) *SQLiteCache {
	t.Helper()
	cache, err := OpenSQLiteCache(context.Background(), ":memory:", 0)
	if err != nil {
		t.Fatalf("OpenSQLiteCache failed: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

var testWaypoints = []domain.Coordinates{
	{Lat: 41.88, Lng: -87.63},
	{Lat: 32.78, Lng: -96.80},
}

func TestORSClient_Route(t *testing.T) {
	t.Parallel()

	var gotBody directionsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/directions/driving-hgv/geojson" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "test-key" {
			t.Errorf("expected api key header, got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(directionsBody))
	}))
	defer srv.Close()

	route, err := newTestClient(t, srv, nil).Route(context.Background(), testWaypoints)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if route.Miles != 968.4 || route.Hours != 15.5 {
		t.Errorf("expected 968.4 mi / 15.5 h, got %v / %v", route.Miles, route.Hours)
	}
	if len(route.Geometry) != 3 || route.Geometry[0].Lat != 41.88 || route.Geometry[0].Lng != -87.63 {
		t.Errorf("expected geometry in lat/lng order, got %+v", route.Geometry)
	}
	if gotBody.Units != "mi" || gotBody.Coordinates[0] != [2]float64{-87.63, 41.88} {
		t.Errorf("expected lng/lat coordinates in miles, got %+v", gotBody)
	}
	if route.Source != SourceORS {
		t.Errorf("expected ors source, got %s", route.Source)
	}
}

func TestORSClient_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(directionsBody))
	}))
	defer srv.Close()

	route, err := newTestClient(t, srv, nil).Route(context.Background(), testWaypoints)

	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if route == nil || calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestORSClient_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad coordinates", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, nil).Route(context.Background(), testWaypoints)

	var he *httpStatusError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 status error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single attempt, got %d", calls.Load())
	}
}

func TestORSClient_RouteCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(directionsBody))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, newMemoryCache(t))
	ctx := context.Background()

	first, err := client.Route(ctx, testWaypoints)
	if err != nil {
		t.Fatalf("first route failed: %v", err)
	}
	second, err := client.Route(ctx, testWaypoints)
	if err != nil {
		t.Fatalf("second route failed: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("expected one upstream call, got %d", calls.Load())
	}
	if second.Source != SourceCache {
		t.Errorf("expected cached source, got %s", second.Source)
	}
	if second.Miles != first.Miles || len(second.Geometry) != len(first.Geometry) {
		t.Errorf("cached route differs: %+v vs %+v", second, first)
	}
}

func TestORSClient_Geocode(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/geocode/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("text") != "chicago, il" {
			t.Errorf("expected normalized text, got %q", r.URL.Query().Get("text"))
		}
		w.Write([]byte(`{"features":[{"geometry":{"coordinates":[-87.6298,41.8781]}}]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, newMemoryCache(t))
	ctx := context.Background()

	got, err := client.Geocode(ctx, "  Chicago,   IL ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Lat != 41.8781 || got.Lng != -87.6298 {
		t.Errorf("unexpected coordinates %+v", got)
	}

	if _, err := client.Geocode(ctx, "chicago, il"); err != nil {
		t.Fatalf("cached geocode failed: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected cached second lookup, got %d calls", calls.Load())
	}
}

func TestORSClient_GeocodeNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, nil).Geocode(context.Background(), "nowhere")

	if !errors.Is(err, ErrGeocodeNotFound) {
		t.Errorf("expected ErrGeocodeNotFound, got %v", err)
	}
}

func TestNewORSClient_RequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewORSClient(ORSConfig{}, nil); err == nil {
		t.Error("expected an error without an api key")
	}
}
