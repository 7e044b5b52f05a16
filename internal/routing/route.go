package routing

import (
	"math"
	"sort"

	"trucklog/internal/domain"
)

// Source records where a route came from.
type Source string

const (
	SourceORS      Source = "ors"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// Route is a resolved path with its geometry.
// Miles and Hours come from the provider and are authoritative; the geometry
// is only used to place points along the path.
type Route struct {
	Miles    float64
	Hours    float64
	Geometry []domain.Coordinates
	Source   Source

	cumulative []float64 // Great-circle miles from the first point to each point
}

// NewRoute builds a route and indexes its geometry for interpolation.
func NewRoute(miles, hours float64, geometry []domain.Coordinates, source Source) *Route {
	r := &Route{Miles: miles, Hours: hours, Geometry: geometry, Source: source}
	r.cumulative = make([]float64, len(geometry))
	for i := 1; i < len(geometry); i++ {
		r.cumulative[i] = r.cumulative[i-1] + haversineMiles(geometry[i-1], geometry[i])
	}
	return r
}

func (r *Route) DistanceMiles() float64 { return r.Miles }

func (r *Route) DurationHours() float64 { return r.Hours }

// PositionAt returns the coordinates after travelling miles along the route.
// Distances are clamped to the route and scaled onto the geometry length.
func (r *Route) PositionAt(miles float64) domain.Coordinates {
	n := len(r.Geometry)
	switch {
	case n == 0:
		return domain.Coordinates{}
	case n == 1 || miles <= 0 || r.Miles <= 0:
		return r.Geometry[0]
	case miles >= r.Miles:
		return r.Geometry[n-1]
	}

	total := r.cumulative[n-1]
	if total == 0 {
		return r.Geometry[0]
	}
	target := miles / r.Miles * total

	i := sort.SearchFloat64s(r.cumulative, target)
	if i == 0 {
		return r.Geometry[0]
	}
	if i >= n {
		return r.Geometry[n-1]
	}
	seg := r.cumulative[i] - r.cumulative[i-1]
	if seg == 0 {
		return r.Geometry[i]
	}
	f := (target - r.cumulative[i-1]) / seg
	a, b := r.Geometry[i-1], r.Geometry[i]
	return domain.Coordinates{
		Lat: a.Lat + (b.Lat-a.Lat)*f,
		Lng: a.Lng + (b.Lng-a.Lng)*f,
	}
}

const earthRadiusMiles = 3958.8

func haversineMiles(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}

// FallbackSpeedMPH is the average speed assumed for straight-line routes.
const FallbackSpeedMPH = 55.0

// StraightLine builds a route through the waypoints using great-circle legs
// at 55 mph. It is used when the routing API is unavailable.
func StraightLine(waypoints ...domain.Coordinates) *Route {
	miles := 0.0
	for i := 1; i < len(waypoints); i++ {
		miles += haversineMiles(waypoints[i-1], waypoints[i])
	}
	geometry := append([]domain.Coordinates(nil), waypoints...)
	return NewRoute(miles, miles/FallbackSpeedMPH, geometry, SourceFallback)
}
