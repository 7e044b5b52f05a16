package routing

import (
	"math"
	"testing"

	"trucklog/internal/domain"
)

func TestHaversineMiles(t *testing.T) {
	t.Parallel()

	chicago := domain.Coordinates{Lat: 41.8781, Lng: -87.6298}
	stLouis := domain.Coordinates{Lat: 38.6270, Lng: -90.1994}

	got := haversineMiles(chicago, stLouis)

	if math.Abs(got-258) > 5 {
		t.Errorf("expected ~258 miles, got %.1f", got)
	}
	if haversineMiles(chicago, chicago) != 0 {
		t.Error("expected zero distance to self")
	}
}

func TestRoutePositionAt(t *testing.T) {
	t.Parallel()

	geometry := []domain.Coordinates{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 0, Lng: 2},
	}
	r := NewRoute(200, 4, geometry, SourceORS)

	tests := []struct {
		name  string
		miles float64
		want  domain.Coordinates
	}{
		{name: "before start", miles: -5, want: geometry[0]},
		{name: "start", miles: 0, want: geometry[0]},
		{name: "midpoint", miles: 100, want: domain.Coordinates{Lat: 0, Lng: 1}},
		{name: "quarter", miles: 50, want: domain.Coordinates{Lat: 0, Lng: 0.5}},
		{name: "end", miles: 200, want: geometry[2]},
		{name: "past end", miles: 500, want: geometry[2]},
	}

	for _, tt := range tests {
		got := r.PositionAt(tt.miles)
		if math.Abs(got.Lat-tt.want.Lat) > 1e-6 || math.Abs(got.Lng-tt.want.Lng) > 1e-6 {
			t.Errorf("%s: PositionAt(%v) = %+v, want %+v", tt.name, tt.miles, got, tt.want)
		}
	}
}

func TestRoutePositionAt_DegenerateGeometry(t *testing.T) {
	t.Parallel()

	if got := NewRoute(10, 1, nil, SourceORS).PositionAt(5); got != (domain.Coordinates{}) {
		t.Errorf("expected zero coordinates without geometry, got %+v", got)
	}
	single := domain.Coordinates{Lat: 35, Lng: -97}
	if got := NewRoute(10, 1, []domain.Coordinates{single}, SourceORS).PositionAt(5); got != single {
		t.Errorf("expected the only point, got %+v", got)
	}
}

func TestStraightLine(t *testing.T) {
	t.Parallel()

	a := domain.Coordinates{Lat: 41.8781, Lng: -87.6298}
	b := domain.Coordinates{Lat: 38.6270, Lng: -90.1994}
	c := domain.Coordinates{Lat: 32.7767, Lng: -96.7970}

	r := StraightLine(a, b, c)

	want := haversineMiles(a, b) + haversineMiles(b, c)
	if math.Abs(r.Miles-want) > 1e-9 {
		t.Errorf("expected %v miles, got %v", want, r.Miles)
	}
	if math.Abs(r.Hours-want/55) > 1e-9 {
		t.Errorf("expected 55 mph pacing, got %v hours", r.Hours)
	}
	if r.Source != SourceFallback {
		t.Errorf("expected fallback source, got %s", r.Source)
	}
	if got := r.PositionAt(r.Miles); got != c {
		t.Errorf("expected route to end at the last waypoint, got %+v", got)
	}
}
