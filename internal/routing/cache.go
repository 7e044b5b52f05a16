package routing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Registers the "sqlite" driver

	"trucklog/internal/domain"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS route_cache (
	route_key  TEXT PRIMARY KEY,
	miles      REAL NOT NULL,
	hours      REAL NOT NULL,
	geometry   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS geocode_cache (
	address    TEXT PRIMARY KEY,
	lat        REAL NOT NULL,
	lng        REAL NOT NULL,
	created_at INTEGER NOT NULL
);
`

// SQLiteCache persists routes and geocodes between process restarts.
type SQLiteCache struct {
	DB  *sql.DB
	TTL time.Duration // Zero keeps entries forever
}

// OpenSQLiteCache opens (or creates) the cache database at path.
// Use ":memory:" for a process-local cache.
func OpenSQLiteCache(ctx context.Context, path string, ttl time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open route cache: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init route cache schema: %w", err)
	}
	return &SQLiteCache{DB: db, TTL: ttl}, nil
}

// Close releases the underlying database.
func (s *SQLiteCache) Close() error {
	return s.DB.Close()
}

func (s *SQLiteCache) minCreatedAt() int64 {
	if s.TTL <= 0 {
		return 0
	}
	return time.Now().Add(-s.TTL).Unix()
}

// RouteKey builds a stable cache key for a waypoint sequence.
func RouteKey(profile string, waypoints []domain.Coordinates) string {
	parts := make([]string, 0, len(waypoints)+1)
	parts = append(parts, profile)
	for _, w := range waypoints {
		parts = append(parts, fmt.Sprintf("%.5f,%.5f", w.Lat, w.Lng))
	}
	return strings.Join(parts, "|")
}

// GetRoute returns a cached route, or nil when absent or expired.
func (s *SQLiteCache) GetRoute(ctx context.Context, key string) (*Route, error) {
	if s.DB == nil {
		return nil, errors.New("route cache: db is nil")
	}

	var (
		miles, hours float64
		geometry     string
	)
	err := s.DB.QueryRowContext(ctx, `
	SELECT miles, hours, geometry
	FROM route_cache
	WHERE route_key = ? AND created_at >= ?;
	`, key, s.minCreatedAt()).Scan(&miles, &hours, &geometry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get route cache: %w", err)
	}

	var points [][2]float64
	if err := json.Unmarshal([]byte(geometry), &points); err != nil {
		return nil, fmt.Errorf("get route cache: decode geometry: %w", err)
	}
	coords := make([]domain.Coordinates, len(points))
	for i, p := range points {
		coords[i] = domain.Coordinates{Lat: p[0], Lng: p[1]}
	}
	return NewRoute(miles, hours, coords, SourceCache), nil
}

// PutRoute stores a route under key.
func (s *SQLiteCache) PutRoute(ctx context.Context, key string, r *Route) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}

	points := make([][2]float64, len(r.Geometry))
	for i, c := range r.Geometry {
		points[i] = [2]float64{c.Lat, c.Lng}
	}
	geometry, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("put route cache: encode geometry: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO route_cache (route_key, miles, hours, geometry, created_at)
	VALUES (?, ?, ?, ?, ?);
	`, key, r.Miles, r.Hours, string(geometry), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("put route cache key=%q: %w", key, err)
	}
	return nil
}

// GetGeocodes returns cached coordinates for the given addresses.
// Addresses are normalized before lookup.
func (s *SQLiteCache) GetGeocodes(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	seen := map[string]struct{}{}
	args := []any{}
	ph := []string{}
	for _, a := range addresses {
		a = normalize(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		args = append(args, a)
		ph = append(ph, "?")
	}
	if len(args) == 0 {
		return map[string]domain.Coordinates{}, nil
	}
	args = append(args, s.minCreatedAt())

	// Only the placeholder list is interpolated; values stay parameterized.
	q := fmt.Sprintf(`
	SELECT address, lat, lng
	FROM geocode_cache
	WHERE address IN (%s) AND created_at >= ?;
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Coordinates, len(ph))
	for rows.Next() {
		var addr string
		var c domain.Coordinates
		if err := rows.Scan(&addr, &c.Lat, &c.Lng); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		out[addr] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}
	return out, nil
}

// PutGeocodes stores address to coordinate mappings.
func (s *SQLiteCache) PutGeocodes(ctx context.Context, results map[string]domain.Coordinates) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}
	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put geocode cache: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO geocode_cache (address, lat, lng, created_at)
	VALUES (?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("put geocode cache: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for addr, c := range results {
		addr = normalize(addr)
		if addr == "" {
			return errors.New("put geocode cache: empty address key")
		}
		if _, err := stmt.ExecContext(ctx, addr, c.Lat, c.Lng, now); err != nil {
			return fmt.Errorf("put geocode cache address=%q: %w", addr, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put geocode cache: commit: %w", err)
	}
	return nil
}
