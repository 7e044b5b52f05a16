package routing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"trucklog/internal/domain"
)

var (
	// ErrRoutingFailed is returned when no route could be resolved.
	ErrRoutingFailed = errors.New("routing failed")

	// ErrGeocodeNotFound is returned when an address has no geocode result.
	ErrGeocodeNotFound = errors.New("address not found")
)

// Provider resolves addresses and routes.
type Provider interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
	Route(ctx context.Context, waypoints []domain.Coordinates) (*Route, error)
}

// Planner resolves trip locations into a route, falling back to a
// straight-line estimate when the provider cannot route.
type Planner struct {
	provider Provider
	fallback bool
}

// NewPlanner creates a planner. provider may be nil, in which case only
// straight-line routes are produced.
func NewPlanner(provider Provider, fallback bool) *Planner {
	return &Planner{provider: provider, fallback: fallback || provider == nil}
}

// Plan geocodes any location without coordinates and routes through them in
// order. The returned locations carry resolved coordinates.
func (p *Planner) Plan(ctx context.Context, stops ...domain.Location) (_ *Route, _ []domain.Location, err error) {
	defer timed(ctx, "routing.plan")(&err)

	resolved := make([]domain.Location, len(stops))
	waypoints := make([]domain.Coordinates, len(stops))
	for i, s := range stops {
		if s.Coords == nil {
			if p.provider == nil {
				return nil, nil, fmt.Errorf("%w: no coordinates for %q", ErrRoutingFailed, s.Name)
			}
			c, err := p.provider.Geocode(ctx, s.Name)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: geocode %q: %v", ErrRoutingFailed, s.Name, err)
			}
			s.Coords = &c
		}
		resolved[i] = s
		waypoints[i] = *s.Coords
	}

	if p.provider != nil {
		route, err := p.provider.Route(ctx, waypoints)
		if err == nil {
			return route, resolved, nil
		}
		if !p.fallback || ctx.Err() != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrRoutingFailed, err)
		}
		log.Printf("op=routing.plan fallback=straight_line err=%v", err)
	}
	return StraightLine(waypoints...), resolved, nil
}

// normalize collapses whitespace so cache keys are stable.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
