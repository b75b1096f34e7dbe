package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davidbz/treeline/internal/observability"
)

const (
	// methodologySource tags every result with the calculation methodology.
	methodologySource = "custom_ecologits_inspired"

	// defaultLocation is assumed when a request carries no location.
	defaultLocation = "us-west-1"

	// maxBatchSize caps the number of records one batch may carry.
	maxBatchSize = 1000
)

// ErrBatchTooLarge indicates a batch exceeding maxBatchSize records.
var ErrBatchTooLarge = fmt.Errorf("batch size too large (max %d)", maxBatchSize)

// ImpactService orchestrates the calculation pipeline: validation,
// cache lookup, energy estimation, carbon intensity resolution, unit
// conversion and formatting.
type ImpactService struct {
	calculator *EnergyTable
	resolver   CarbonResolver
	cache      ResultCache
	cacheTTL   time.Duration
}

// NewImpactService creates a new impact service (DI constructor).
func NewImpactService(calculator *EnergyTable, resolver CarbonResolver, cache ResultCache, cacheTTL time.Duration) *ImpactService {
	return &ImpactService{
		calculator: calculator,
		resolver:   resolver,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

// CalculateImpact validates a raw request and runs the calculation.
// The returned error is a *ValidationError for malformed input.
func (s *ImpactService) CalculateImpact(ctx context.Context, req *ImpactRequest) (*ImpactResult, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if verr := req.Validate(); verr != nil {
		return nil, verr
	}

	return s.calculate(ctx, req.UsageRecord()), nil
}

// calculate runs the pipeline for a validated record. It never fails:
// every stage degrades to a fallback value on internal errors.
func (s *ImpactService) calculate(ctx context.Context, rec UsageRecord) *ImpactResult {
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if rec.Location == "" {
		rec.Location = defaultLocation
	}

	ctx = observability.WithModel(ctx, rec.Model)
	ctx = observability.WithLocation(ctx, rec.Location)
	logger := observability.FromContext(ctx)

	cacheKey := fmt.Sprintf("impact:%s:%d:%d:%s", rec.Model, rec.InputTokens, rec.OutputTokens, rec.Location)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, ErrCacheMiss) {
			logger.Warn("cache get failed, continuing without cache", observability.Error(err))
		}
		if cached != nil {
			logger.Debug("cache hit", observability.String("cache_key", cacheKey))
			return withInsight(cached, rec)
		}
	}

	energyWh := s.calculator.Energy(ctx, rec.Model, rec.InputTokens, rec.OutputTokens)
	intensity := s.resolver.Resolve(ctx, rec.Location, rec.Timestamp)

	co2EmissionsG := (energyWh / 1000) * intensity.GramsPerKWh
	treeEquivalent := co2EmissionsG / treeAbsorptionPerDayG

	result := FormatResult(
		energyWh, co2EmissionsG, intensity.GramsPerKWh, treeEquivalent,
		methodologySource, rec.Location, rec.Timestamp,
	)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
			logger.Warn("cache set failed", observability.Error(err))
		}
	}

	logger.Info("impact calculated",
		observability.Int64("input_tokens", rec.InputTokens),
		observability.Int64("output_tokens", rec.OutputTokens),
		observability.Float64("co2_emissions_g", result.CO2EmissionsG),
		observability.Float64("tree_equivalent", result.TreeEquivalent),
		observability.String("intensity_source", intensity.Source),
	)

	return withInsight(result, rec)
}

// withInsight copies a formatted or cached result and attaches the
// caller-specific insight text. The insight depends on the request's
// average_efficiency, which is not part of the cache key, so it is never
// stored alongside the cached payload.
func withInsight(result *ImpactResult, rec UsageRecord) *ImpactResult {
	out := *result
	out.Insight = EnvironmentalInsight(out.CO2EmissionsG, rec.OutputTokens, rec.AverageEfficiency)
	return &out
}

// CalculateBatch processes up to maxBatchSize records sequentially.
// Each record's failure is isolated in its own slot; order is preserved.
// The summary aggregates the successful records only.
func (s *ImpactService) CalculateBatch(ctx context.Context, records []ImpactRequest) ([]BatchEntry, BatchSummary, error) {
	if len(records) > maxBatchSize {
		return nil, BatchSummary{}, ErrBatchTooLarge
	}

	entries := make([]BatchEntry, 0, len(records))
	summary := BatchSummary{}

	for i := range records {
		req := &records[i]

		if verr := req.Validate(); verr != nil {
			entries = append(entries, BatchEntry{Err: fmt.Sprintf("Record %d: %s", i, verr.Message)})
			continue
		}

		rec := req.UsageRecord()
		result := s.calculate(ctx, rec)
		entries = append(entries, BatchEntry{Result: result})

		summary.TotalEnergyWh += result.EnergyWh
		summary.TotalTokens += rec.InputTokens + rec.OutputTokens
		summary.SessionsCount++
	}

	if summary.TotalTokens > 0 {
		summary.AverageEnergyPerToken = summary.TotalEnergyWh / float64(summary.TotalTokens)
	}

	return entries, summary, nil
}

// Models lists the known energy profiles with efficiency classes.
func (s *ImpactService) Models(_ context.Context) ModelsListing {
	profiles := s.calculator.Profiles()

	models := make([]ModelInfo, 0, len(profiles))
	for _, profile := range profiles {
		models = append(models, ModelInfo{
			EnergyProfile:   profile,
			EfficiencyClass: s.calculator.EfficiencyClass(profile.Name),
		})
	}

	return ModelsListing{
		SupportedModels: models,
		Methodology:     methodologySource,
		LastUpdated:     time.Now().UTC().Format(time.RFC3339),
	}
}

// Methodology describes the calculation steps and constants.
func (s *ImpactService) Methodology() MethodologyInfo {
	return MethodologyInfo{
		Name:        "EcoLogits-based Environmental Impact Calculation",
		Description: "Calculates environmental impact using EcoLogits research methodology",
		Steps: []string{
			"1. Model energy consumption estimation based on token usage",
			"2. Carbon intensity lookup for geographic location and time",
			"3. CO2 emissions calculation: Energy (kWh) x Carbon Intensity (g/kWh)",
			"4. Tree equivalent calculation: CO2 (g) / 50g (daily tree absorption)",
		},
		DataSources: map[string]string{
			"energy_consumption": "EcoLogits model research and benchmarks",
			"carbon_intensity":   "ElectricityMaps API / WattTime API",
			"tree_absorption":    "50g CO2 per tree per day (scientific average)",
		},
		Accuracy: "Estimation based on industry research and real-time data",
	}
}

// Health runs the shallow self-tests used by the health endpoint.
func (s *ImpactService) Health(ctx context.Context) HealthReport {
	calcReport := s.calculator.SelfTest(ctx)

	status := "healthy"
	if calcReport.Status != "working" {
		status = "unhealthy"
	}

	return HealthReport{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services: HealthServices{
			Calculator:      calcReport,
			CarbonIntensity: s.resolver.TestConnection(ctx),
		},
	}
}

// CacheStats reports the result cache size and configured cap.
func (s *ImpactService) CacheStats(ctx context.Context) (CacheStats, error) {
	if s.cache == nil {
		return CacheStats{Type: "disabled"}, nil
	}
	return s.cache.Stats(ctx)
}

// CarbonReport resolves current intensity for a location and pairs it
// with daily-variation estimates and the regional fallback table.
func (s *ImpactService) CarbonReport(ctx context.Context, location string) CarbonReport {
	if location == "" {
		location = defaultLocation
	}

	return CarbonReport{
		Location:         location,
		Intensity:        s.resolver.Resolve(ctx, location, ""),
		DailyVariation:   s.resolver.DailyVariation(location),
		RegionalAverages: s.resolver.RegionalAverages(),
	}
}
