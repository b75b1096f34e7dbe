package domain

import "encoding/json"

// ImpactRequest is the raw calculation request as decoded from JSON.
// Pointer and json.Number fields let the validator distinguish missing
// fields from zero values and reject non-integer token counts.
type ImpactRequest struct {
	Model        *string      `json:"model"`
	InputTokens  *json.Number `json:"input_tokens"`
	OutputTokens *json.Number `json:"output_tokens"`
	Timestamp    *string      `json:"timestamp,omitempty"`
	Location     *string      `json:"location,omitempty"`

	// AverageEfficiency is an optional historical gCO2-per-output-token
	// average used for the efficiency comparison in the insight text.
	AverageEfficiency float64 `json:"average_efficiency,omitempty"`
}

// UsageRecord is a validated calculation input.
type UsageRecord struct {
	Model             string
	InputTokens       int64
	OutputTokens      int64
	Timestamp         string
	Location          string
	AverageEfficiency float64
}

// AdditionalEquivalents expresses CO2 emissions as everyday activities.
type AdditionalEquivalents struct {
	PhoneCharges float64 `json:"phone_charges"`
	MilesDriven  float64 `json:"miles_driven"`
	LEDHours     float64 `json:"led_hours"`
	LaptopHours  float64 `json:"laptop_hours"`
}

// ImpactResult is the formatted outcome of a single calculation.
type ImpactResult struct {
	EnergyWh              float64               `json:"energy_wh"`
	CO2EmissionsG         float64               `json:"co2_emissions_g"`
	CarbonIntensityGKWh   float64               `json:"carbon_intensity_g_kwh"`
	TreeEquivalent        float64               `json:"tree_equivalent"`
	EquivalentText        string                `json:"equivalent_text"`
	AdditionalEquivalents AdditionalEquivalents `json:"additional_equivalents"`
	Source                string                `json:"source"`
	Location              string                `json:"location,omitempty"`
	Timestamp             string                `json:"timestamp,omitempty"`
	Insight               string                `json:"insight,omitempty"`
	Error                 string                `json:"error,omitempty"`
}

// BatchEntry is one slot of a batch response: a full result or a
// per-record error, never both.
type BatchEntry struct {
	Result *ImpactResult
	Err    string
}

// MarshalJSON renders an error entry as {"error": ...} and a successful
// entry as the bare ImpactResult, matching the single-calculation shape.
func (e BatchEntry) MarshalJSON() ([]byte, error) {
	if e.Err != "" {
		return json.Marshal(map[string]string{"error": e.Err})
	}
	return json.Marshal(e.Result)
}

// BatchSummary aggregates the successful records of a batch.
type BatchSummary struct {
	TotalEnergyWh         float64 `json:"total_energy_wh"`
	TotalTokens           int64   `json:"total_tokens"`
	AverageEnergyPerToken float64 `json:"average_energy_per_token"`
	SessionsCount         int     `json:"sessions_count"`
}

// EfficiencyRating classifies CO2 emissions per output token.
type EfficiencyRating struct {
	Rating      string `json:"rating"`
	Color       string `json:"color"`
	Description string `json:"description"`
	Level       string `json:"level"`
}

// ModelInfo is one entry of the model listing.
type ModelInfo struct {
	EnergyProfile
	EfficiencyClass string `json:"efficiency_class"`
}

// ModelsListing is the payload of the model listing operation.
type ModelsListing struct {
	SupportedModels []ModelInfo `json:"supported_models"`
	Methodology     string      `json:"methodology"`
	LastUpdated     string      `json:"last_updated"`
}

// MethodologyInfo describes the calculation steps and constants.
type MethodologyInfo struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Steps       []string          `json:"steps"`
	DataSources map[string]string `json:"data_sources"`
	Accuracy    string            `json:"accuracy"`
}

// SelfTestReport is the calculator's shallow health probe.
type SelfTestReport struct {
	Status               string  `json:"status"`
	TestEnergyWh         float64 `json:"test_energy_wh,omitempty"`
	SupportedModelsCount int     `json:"supported_models_count,omitempty"`
	Error                string  `json:"error,omitempty"`
}

// HealthReport is the payload of the health endpoint.
type HealthReport struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  HealthServices `json:"services"`
}

// HealthServices breaks the health report down by collaborator.
type HealthServices struct {
	Calculator      SelfTestReport  `json:"calculator"`
	CarbonIntensity map[string]bool `json:"carbon_intensity"`
}

// CacheStats reports the result cache backend, size and configured cap.
type CacheStats struct {
	Type    string `json:"cache_type"`
	Size    int    `json:"cache_size"`
	MaxSize int    `json:"cache_max_size"`
}

// Intensity is a resolved carbon intensity value with its provenance:
// the provider name that produced it, or "regional_fallback".
type Intensity struct {
	GramsPerKWh float64 `json:"carbon_intensity_g_kwh"`
	Source      string  `json:"source"`
}

// DailyVariation holds coarse daily carbon-intensity multipliers for a
// location. Values are descriptive estimates, not measurements.
type DailyVariation struct {
	BaseIntensity float64 `json:"base_intensity"`
	MorningPeak   float64 `json:"morning_peak"`
	MiddayLow     float64 `json:"midday_low"`
	EveningPeak   float64 `json:"evening_peak"`
	NightLow      float64 `json:"night_low"`
}

// CarbonReport is the payload of the carbon-intensity endpoint.
type CarbonReport struct {
	Location         string             `json:"location"`
	Intensity        Intensity          `json:"intensity"`
	DailyVariation   DailyVariation     `json:"daily_variation"`
	RegionalAverages map[string]float64 `json:"regional_averages"`
}
