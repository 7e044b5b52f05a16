package routing

import (
	"context"
	"errors"
	"testing"

	"trucklog/internal/domain"
)

type stubProvider struct {
	geocodes map[string]domain.Coordinates
	route    *Route
	routeErr error
	calls    int
}

func (s *stubProvider) Geocode(_ context.Context, address string) (domain.Coordinates, error) {
	c, ok := s.geocodes[address]
	if !ok {
		return domain.Coordinates{}, ErrGeocodeNotFound
	}
	return c, nil
}

func (s *stubProvider) Route(_ context.Context, _ []domain.Coordinates) (*Route, error) {
	s.calls++
	return s.route, s.routeErr
}

func TestPlanner_GeocodesMissingCoordinates(t *testing.T) {
	t.Parallel()

	dallas := domain.Coordinates{Lat: 32.78, Lng: -96.80}
	provider := &stubProvider{
		geocodes: map[string]domain.Coordinates{"Dallas, TX": dallas},
		route:    NewRoute(900, 15, nil, SourceORS),
	}
	origin := domain.Coordinates{Lat: 41.88, Lng: -87.63}

	route, stops, err := NewPlanner(provider, true).Plan(context.Background(),
		domain.Location{Name: "Chicago, IL", Coords: &origin},
		domain.Location{Name: "Dallas, TX"},
	)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if route.Miles != 900 {
		t.Errorf("expected provider route, got %+v", route)
	}
	if stops[1].Coords == nil || *stops[1].Coords != dallas {
		t.Errorf("expected geocoded dropoff, got %+v", stops[1])
	}
}

func TestPlanner_FallsBackToStraightLine(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{routeErr: errors.New("ors status 503")}
	a := domain.Coordinates{Lat: 41.88, Lng: -87.63}
	b := domain.Coordinates{Lat: 32.78, Lng: -96.80}

	route, _, err := NewPlanner(provider, true).Plan(context.Background(),
		domain.Location{Coords: &a}, domain.Location{Coords: &b})

	if err != nil {
		t.Fatalf("expected fallback, got %v", err)
	}
	if route.Source != SourceFallback {
		t.Errorf("expected fallback route, got %s", route.Source)
	}
	if route.Hours != route.Miles/55 {
		t.Errorf("expected 55 mph pacing")
	}
}

func TestPlanner_NoFallback(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{routeErr: errors.New("ors status 503")}
	a := domain.Coordinates{Lat: 41.88, Lng: -87.63}

	_, _, err := NewPlanner(provider, false).Plan(context.Background(),
		domain.Location{Coords: &a}, domain.Location{Coords: &a})

	if !errors.Is(err, ErrRoutingFailed) {
		t.Errorf("expected ErrRoutingFailed, got %v", err)
	}
}

func TestPlanner_GeocodeFailure(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{}

	_, _, err := NewPlanner(provider, true).Plan(context.Background(), domain.Location{Name: "Atlantis"})

	if !errors.Is(err, ErrRoutingFailed) {
		t.Errorf("expected ErrRoutingFailed, got %v", err)
	}
	if provider.calls != 0 {
		t.Error("expected no routing call after a geocode failure")
	}
}
