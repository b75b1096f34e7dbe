package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/treeline/internal/cache/memory"
	"github.com/davidbz/treeline/internal/domain"
)

// staticResolver serves a fixed intensity and counts resolutions.
type staticResolver struct {
	intensity float64
	source    string
	calls     int
}

func (r *staticResolver) Resolve(_ context.Context, _, _ string) domain.Intensity {
	r.calls++
	return domain.Intensity{GramsPerKWh: r.intensity, Source: r.source}
}

func (r *staticResolver) TestConnection(_ context.Context) map[string]bool {
	return map[string]bool{"fallback": true}
}

func (r *staticResolver) DailyVariation(_ string) domain.DailyVariation {
	return domain.DailyVariation{BaseIntensity: r.intensity}
}

func (r *staticResolver) RegionalAverages() map[string]float64 {
	return map[string]float64{"us-west-1": r.intensity}
}

func newTestService(resolver domain.CarbonResolver) *domain.ImpactService {
	return domain.NewImpactService(domain.NewEnergyTable(), resolver, memory.New(10), 0)
}

func TestImpactService_CalculateImpact(t *testing.T) {
	ctx := context.Background()

	t.Run("end-to-end sonnet example", func(t *testing.T) {
		resolver := &staticResolver{intensity: 350, source: "regional_fallback"}
		service := newTestService(resolver)

		req := decodeRequest(t, `{
			"model": "claude-3-5-sonnet-20241022",
			"input_tokens": 150,
			"output_tokens": 500,
			"location": "us-west-1"
		}`)

		result, err := service.CalculateImpact(ctx, req)
		require.NoError(t, err)

		require.InDelta(t, 0.175, result.EnergyWh, 1e-9)
		require.InDelta(t, 0.06125, result.CO2EmissionsG, 1e-9)
		require.InDelta(t, 350, result.CarbonIntensityGKWh, 1e-9)
		require.InDelta(t, 0.001, result.TreeEquivalent, 1e-9) // 0.001225 rounded to 3dp
		require.Equal(t, "less than 1% of what a tree absorbs daily", result.EquivalentText)
		require.Equal(t, "custom_ecologits_inspired", result.Source)
		require.Equal(t, "us-west-1", result.Location)
		require.NotEmpty(t, result.Timestamp)
		require.NotEmpty(t, result.Insight)
	})

	t.Run("tree equivalent is co2 over fifty", func(t *testing.T) {
		resolver := &staticResolver{intensity: 420, source: "regional_fallback"}
		service := newTestService(resolver)

		req := decodeRequest(t, `{"model": "claude-3-opus-20240229", "input_tokens": 5000, "output_tokens": 9000}`)

		result, err := service.CalculateImpact(ctx, req)
		require.NoError(t, err)
		require.InDelta(t, result.CO2EmissionsG/50.0, result.TreeEquivalent, 0.0005)
	})

	t.Run("defaults applied for missing location and timestamp", func(t *testing.T) {
		resolver := &staticResolver{intensity: 350, source: "regional_fallback"}
		service := newTestService(resolver)

		req := decodeRequest(t, `{"model": "m", "input_tokens": 1, "output_tokens": 1}`)

		result, err := service.CalculateImpact(ctx, req)
		require.NoError(t, err)
		require.Equal(t, "us-west-1", result.Location)
		require.NotEmpty(t, result.Timestamp)
	})

	t.Run("validation error rejected before calculation", func(t *testing.T) {
		resolver := &staticResolver{intensity: 350, source: "regional_fallback"}
		service := newTestService(resolver)

		req := decodeRequest(t, `{"input_tokens": 1, "output_tokens": 1}`)

		_, err := service.CalculateImpact(ctx, req)
		require.Error(t, err)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "Missing required field: model", verr.Message)
		require.Zero(t, resolver.calls)
	})

	t.Run("repeated request served from cache", func(t *testing.T) {
		resolver := &staticResolver{intensity: 350, source: "regional_fallback"}
		service := newTestService(resolver)

		body := `{"model": "claude-3-5-sonnet-20241022", "input_tokens": 150, "output_tokens": 500, "location": "us-west-1"}`

		first, err := service.CalculateImpact(ctx, decodeRequest(t, body))
		require.NoError(t, err)

		second, err := service.CalculateImpact(ctx, decodeRequest(t, body))
		require.NoError(t, err)

		require.Equal(t, 1, resolver.calls)
		require.Equal(t, first, second)
	})

	t.Run("insight reflects each caller's own average", func(t *testing.T) {
		resolver := &staticResolver{intensity: 350, source: "regional_fallback"}
		service := newTestService(resolver)

		// 0.06125g over 500 output tokens = 0.0001225 g/token.
		base := `{"model": "claude-3-5-sonnet-20241022", "input_tokens": 150, "output_tokens": 500, "location": "us-west-1"`

		first, err := service.CalculateImpact(ctx, decodeRequest(t, base+`, "average_efficiency": 0.00001}`))
		require.NoError(t, err)
		require.Contains(t, first.Insight, "less efficient than your average")

		second, err := service.CalculateImpact(ctx, decodeRequest(t, base+`, "average_efficiency": 10}`))
		require.NoError(t, err)
		require.Contains(t, second.Insight, "more efficient than your average")

		// The second result came from the cache and still got its own insight.
		require.Equal(t, 1, resolver.calls)
	})
}

func TestImpactService_CalculateBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("isolates per-record failures and preserves order", func(t *testing.T) {
		resolver := &staticResolver{intensity: 350, source: "regional_fallback"}
		service := newTestService(resolver)

		records := []domain.ImpactRequest{
			*decodeRequest(t, `{"model": "claude-3-5-sonnet-20241022", "input_tokens": 150, "output_tokens": 500}`),
			*decodeRequest(t, `{"input_tokens": 100, "output_tokens": 200}`),
		}

		entries, summary, err := service.CalculateBatch(ctx, records)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		require.NotNil(t, entries[0].Result)
		require.Empty(t, entries[0].Err)
		require.InDelta(t, 0.175, entries[0].Result.EnergyWh, 1e-9)

		require.Nil(t, entries[1].Result)
		require.Equal(t, "Record 1: Missing required field: model", entries[1].Err)

		require.Equal(t, 1, summary.SessionsCount)
		require.Equal(t, int64(650), summary.TotalTokens)
		require.InDelta(t, 0.175, summary.TotalEnergyWh, 1e-9)
		require.InDelta(t, 0.175/650, summary.AverageEnergyPerToken, 1e-12)
	})

	t.Run("rejects oversized batches", func(t *testing.T) {
		resolver := &staticResolver{intensity: 350, source: "regional_fallback"}
		service := newTestService(resolver)

		records := make([]domain.ImpactRequest, 1001)
		_, _, err := service.CalculateBatch(ctx, records)
		require.Error(t, err)
		require.True(t, errors.Is(err, domain.ErrBatchTooLarge))
	})

	t.Run("empty batch yields empty results", func(t *testing.T) {
		resolver := &staticResolver{intensity: 350, source: "regional_fallback"}
		service := newTestService(resolver)

		entries, summary, err := service.CalculateBatch(ctx, nil)
		require.NoError(t, err)
		require.Empty(t, entries)
		require.Zero(t, summary.SessionsCount)
	})
}

func TestImpactService_Models(t *testing.T) {
	service := newTestService(&staticResolver{intensity: 350, source: "regional_fallback"})

	listing := service.Models(context.Background())
	require.Len(t, listing.SupportedModels, 6)
	require.Equal(t, "custom_ecologits_inspired", listing.Methodology)
	require.NotEmpty(t, listing.LastUpdated)

	for _, model := range listing.SupportedModels {
		require.NotEmpty(t, model.EfficiencyClass)
	}
}

func TestImpactService_Health(t *testing.T) {
	service := newTestService(&staticResolver{intensity: 350, source: "regional_fallback"})

	report := service.Health(context.Background())
	require.Equal(t, "healthy", report.Status)
	require.Equal(t, "working", report.Services.Calculator.Status)
	require.True(t, report.Services.CarbonIntensity["fallback"])
}

func TestImpactService_CacheStats(t *testing.T) {
	service := newTestService(&staticResolver{intensity: 350, source: "regional_fallback"})

	stats, err := service.CacheStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, "in_memory", stats.Type)
	require.Equal(t, 10, stats.MaxSize)
}
