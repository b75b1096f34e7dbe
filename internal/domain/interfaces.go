package domain

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss indicates no cached entry was found.
var ErrCacheMiss = errors.New("cache miss")

// CarbonResolver resolves grid carbon intensity for a location and time.
// Resolution never fails: provider outages degrade to static regional
// estimates inside the implementation.
type CarbonResolver interface {
	// Resolve returns the carbon intensity in gCO2/kWh for a location
	// identifier and an optional ISO timestamp (empty means "now").
	Resolve(ctx context.Context, location, timestamp string) Intensity

	// TestConnection probes each configured provider and reports
	// reachability by provider name.
	TestConnection(ctx context.Context) map[string]bool

	// DailyVariation estimates coarse intra-day intensity multipliers
	// for a location, for descriptive display only.
	DailyVariation(location string) DailyVariation

	// RegionalAverages returns a copy of the static regional fallback table.
	RegionalAverages() map[string]float64
}

// ResultCache stores formatted impact results keyed by request shape.
type ResultCache interface {
	// Get retrieves a cached result, or ErrCacheMiss.
	Get(ctx context.Context, key string) (*ImpactResult, error)

	// Set stores a result. Whether ttl is honored is backend-specific.
	Set(ctx context.Context, key string, result *ImpactResult, ttl time.Duration) error

	// Stats reports the backend type, current size and configured cap.
	Stats(ctx context.Context) (CacheStats, error)
}
