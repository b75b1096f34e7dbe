// Package carbon resolves grid carbon intensity for a location, trying
// live providers in priority order and degrading to static regional
// estimates. Provider failures are never surfaced to callers.
package carbon

import (
	"context"

	"github.com/davidbz/treeline/internal/domain"
	"github.com/davidbz/treeline/internal/observability"
)

// defaultIntensityGKWh is the global average used for regions absent
// from the regional fallback table.
const defaultIntensityGKWh = 400

// fallbackSource tags intensities served from the static table.
const fallbackSource = "regional_fallback"

// regionalFallbacks holds static regional estimates in gCO2/kWh,
// based on 2024 grid mixes.
//
//nolint:gochecknoglobals // Immutable lookup table
var regionalFallbacks = map[string]float64{
	"us-west-1":      350, // California - mix of renewable and natural gas
	"us-west-2":      380, // Oregon/Washington - hydro + coal
	"us-east-1":      420, // Virginia - coal + natural gas + nuclear
	"us-east-2":      450, // Ohio - coal heavy
	"eu-west-1":      300, // Ireland - wind + natural gas
	"eu-central-1":   400, // Germany - renewables + coal
	"ap-southeast-1": 500, // Singapore - natural gas
	"ap-northeast-1": 350, // Japan - nuclear + natural gas + renewables
}

// Provider fetches live carbon intensity for a canonical region code.
// Implementations return an error for regions they do not cover; the
// resolver treats any error as a miss.
type Provider interface {
	// Name returns the provider identifier used in logs and health reports.
	Name() string

	// Intensity returns the current carbon intensity in gCO2/kWh.
	Intensity(ctx context.Context, region string) (float64, error)
}

// Resolver resolves carbon intensity through a provider chain with a
// static regional fallback. It implements domain.CarbonResolver.
type Resolver struct {
	providers []Provider
}

var _ domain.CarbonResolver = (*Resolver)(nil)

// NewResolver creates a resolver trying the given providers in order.
func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{providers: providers}
}

// Resolve returns the carbon intensity for a location identifier and an
// optional ISO timestamp. Providers are tried in priority order; any
// provider error is swallowed as a miss and only logged. The static
// table guarantees a positive result.
func (r *Resolver) Resolve(ctx context.Context, location, timestamp string) domain.Intensity {
	_ = timestamp // providers serve latest values only

	region := NormalizeLocation(location)
	logger := observability.FromContext(ctx)

	for _, provider := range r.providers {
		value, err := provider.Intensity(ctx, region)
		if err != nil {
			logger.Debug("carbon provider miss",
				observability.String("provider", provider.Name()),
				observability.String("region", region),
				observability.Error(err),
			)
			continue
		}
		if value <= 0 {
			continue
		}

		logger.Debug("carbon intensity resolved",
			observability.String("provider", provider.Name()),
			observability.Float64("intensity_g_kwh", value),
		)
		return domain.Intensity{GramsPerKWh: value, Source: provider.Name()}
	}

	fallback := r.fallbackIntensity(region)
	logger.Debug("carbon intensity from fallback table",
		observability.String("region", region),
		observability.Float64("intensity_g_kwh", fallback),
	)

	return domain.Intensity{GramsPerKWh: fallback, Source: fallbackSource}
}

func (r *Resolver) fallbackIntensity(region string) float64 {
	if value, ok := regionalFallbacks[region]; ok {
		return value
	}
	return defaultIntensityGKWh
}

// TestConnection probes each configured provider with a known region.
// The static fallback is always reported available.
func (r *Resolver) TestConnection(ctx context.Context) map[string]bool {
	results := map[string]bool{
		"electricity_maps": false,
		"watt_time":        false,
		"fallback":         true,
	}

	logger := observability.FromContext(ctx)
	for _, provider := range r.providers {
		_, err := provider.Intensity(ctx, "us-west-1")
		reachable := err == nil
		results[provider.Name()] = reachable

		logger.Debug("carbon provider probe",
			observability.String("provider", provider.Name()),
			observability.Bool("reachable", reachable),
		)
	}

	return results
}

// DailyVariation estimates coarse intra-day multipliers around the
// static base value for a location. Descriptive display only.
func (r *Resolver) DailyVariation(location string) domain.DailyVariation {
	base := r.fallbackIntensity(NormalizeLocation(location))

	return domain.DailyVariation{
		BaseIntensity: base,
		MorningPeak:   base * 1.2, // 20% higher in morning
		MiddayLow:     base * 0.8, // 20% lower when solar peaks
		EveningPeak:   base * 1.3, // 30% higher in evening
		NightLow:      base * 0.9, // 10% lower at night
	}
}

// RegionalAverages returns a copy of the static fallback table.
func (r *Resolver) RegionalAverages() map[string]float64 {
	averages := make(map[string]float64, len(regionalFallbacks))
	for region, value := range regionalFallbacks {
		averages[region] = value
	}
	return averages
}
