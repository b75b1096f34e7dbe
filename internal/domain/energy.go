package domain

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/davidbz/treeline/internal/observability"
)

// EnergyProfile holds per-model energy constants in watt-hours.
type EnergyProfile struct {
	Name                 string  `json:"name"`
	EnergyPerInputToken  float64 `json:"energy_per_input_token_wh"`
	EnergyPerOutputToken float64 `json:"energy_per_output_token_wh"`
	BaseEnergy           float64 `json:"base_energy_wh"`
	Source               string  `json:"source"`
}

// Family fallback profiles for model ids that miss the known table.
// Constants are fixed at compile time; lookups share these instances.
//
//nolint:gochecknoglobals // Immutable lookup constants
var (
	haikuFallbackProfile = EnergyProfile{
		Name:                 "claude-haiku-fallback",
		EnergyPerInputToken:  0.00005,
		EnergyPerOutputToken: 0.00015,
		BaseEnergy:           0.005,
		Source:               "fallback_estimate",
	}
	opusFallbackProfile = EnergyProfile{
		Name:                 "claude-opus-fallback",
		EnergyPerInputToken:  0.0002,
		EnergyPerOutputToken: 0.0005,
		BaseEnergy:           0.02,
		Source:               "fallback_estimate",
	}
	sonnetFallbackProfile = EnergyProfile{
		Name:                 "claude-sonnet-fallback",
		EnergyPerInputToken:  0.0001,
		EnergyPerOutputToken: 0.0003,
		BaseEnergy:           0.01,
		Source:               "fallback_estimate",
	}
	defaultFallbackProfile = EnergyProfile{
		Name:                 "unknown-model-fallback",
		EnergyPerInputToken:  0.0001,
		EnergyPerOutputToken: 0.0003,
		BaseEnergy:           0.01,
		Source:               "default_fallback",
	}
)

// flatEnergyPerToken is the last-resort per-token estimate used when the
// profile formula produces an unusable value.
const flatEnergyPerToken = 0.0001

// EnergyTable maps known model identifiers to energy profiles and
// computes per-request energy consumption. names keeps the table's
// insertion order so fuzzy resolution is deterministic.
type EnergyTable struct {
	profiles map[string]EnergyProfile
	names    []string
}

// NewEnergyTable creates a table seeded with the known Claude profiles.
func NewEnergyTable() *EnergyTable {
	profiles := make(map[string]EnergyProfile)

	knownModels := []string{
		"claude-3-5-sonnet-20241022",
		"claude-3-5-sonnet-20240620",
		"claude-3-5-sonnet",
		"claude-3-sonnet-20240229",
		"claude-3-haiku-20240307",
		"claude-3-opus-20240229",
	}

	for _, name := range knownModels {
		lower := strings.ToLower(name)
		switch {
		case strings.Contains(lower, "haiku"):
			p := haikuFallbackProfile
			p.Name = name
			p.Source = "ecologits_estimate"
			profiles[name] = p
		case strings.Contains(lower, "opus"):
			p := opusFallbackProfile
			p.Name = name
			p.Source = "ecologits_estimate"
			profiles[name] = p
		default:
			p := sonnetFallbackProfile
			p.Name = name
			p.Source = "ecologits_estimate"
			profiles[name] = p
		}
	}

	return &EnergyTable{profiles: profiles, names: knownModels}
}

// Profile resolves a model id to an energy profile. Resolution order:
// exact match, case-insensitive substring match in either direction
// (first match in table order wins), model family match, default
// fallback.
func (t *EnergyTable) Profile(model string) EnergyProfile {
	if profile, ok := t.profiles[model]; ok {
		return profile
	}

	modelLower := strings.ToLower(model)
	for _, name := range t.names {
		nameLower := strings.ToLower(name)
		if strings.Contains(modelLower, nameLower) || strings.Contains(nameLower, modelLower) {
			return t.profiles[name]
		}
	}

	switch {
	case strings.Contains(modelLower, "haiku"):
		return haikuFallbackProfile
	case strings.Contains(modelLower, "opus"):
		return opusFallbackProfile
	case strings.Contains(modelLower, "sonnet"), strings.Contains(modelLower, "claude"):
		return sonnetFallbackProfile
	}

	return defaultFallbackProfile
}

// Energy computes the energy consumption in Wh for a request.
// It never fails for numeric input: an unusable formula result degrades
// to a flat per-token estimate.
func (t *EnergyTable) Energy(ctx context.Context, model string, inputTokens, outputTokens int64) float64 {
	profile := t.Profile(model)

	inputEnergy := float64(inputTokens) * profile.EnergyPerInputToken
	outputEnergy := float64(outputTokens) * profile.EnergyPerOutputToken
	total := inputEnergy + outputEnergy + profile.BaseEnergy

	if math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
		fallback := flatEnergyPerToken * float64(inputTokens+outputTokens)
		observability.FromContext(ctx).Warn("energy formula produced unusable value, using flat estimate",
			observability.String("model", model),
			observability.Float64("fallback_energy_wh", fallback),
		)
		return fallback
	}

	observability.FromContext(ctx).Debug("energy calculated",
		observability.String("profile", profile.Name),
		observability.Float64("input_energy_wh", inputEnergy),
		observability.Float64("output_energy_wh", outputEnergy),
		observability.Float64("total_energy_wh", total),
	)

	return total
}

// Profiles lists all known profiles sorted by name.
func (t *EnergyTable) Profiles() []EnergyProfile {
	profiles := make([]EnergyProfile, 0, len(t.profiles))
	for _, profile := range t.profiles {
		profiles = append(profiles, profile)
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Name < profiles[j].Name
	})

	return profiles
}

// EfficiencyClass classifies a model's mean per-token energy.
func (t *EnergyTable) EfficiencyClass(model string) string {
	profile := t.Profile(model)
	avg := (profile.EnergyPerInputToken + profile.EnergyPerOutputToken) / 2

	switch {
	case avg < 0.0001:
		return "highly_efficient"
	case avg < 0.0003:
		return "efficient"
	case avg < 0.0005:
		return "moderate"
	default:
		return "intensive"
	}
}

// SelfTest runs a known calculation to verify the table is usable.
func (t *EnergyTable) SelfTest(ctx context.Context) SelfTestReport {
	energy := t.Energy(ctx, "claude-3-5-sonnet-20241022", 100, 200)
	if energy <= 0 {
		return SelfTestReport{
			Status: "error",
			Error:  "self-test calculation returned non-positive energy",
		}
	}

	return SelfTestReport{
		Status:               "working",
		TestEnergyWh:         energy,
		SupportedModelsCount: len(t.profiles),
	}
}
