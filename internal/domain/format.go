package domain

import (
	"fmt"
	"math"
)

// Fixed conversion constants for human-relatable equivalents.
const (
	treeAbsorptionPerDayG = 50.0 // grams of CO2 a tree absorbs per day

	phoneChargeCO2G   = 8.0   // grams CO2 per phone charge
	carCO2PerMileG    = 411.0 // grams CO2 per mile (average car)
	ledCO2PerHourG    = 0.5   // grams CO2 per LED bulb hour
	laptopCO2PerHourG = 20.0  // grams CO2 per laptop hour
)

// roundTo rounds v half away from zero to the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

// FormatResult assembles a rounded, display-ready ImpactResult.
// Unusable numeric input yields a fixed error payload instead of
// propagating a failure to the caller.
func FormatResult(energyWh, co2EmissionsG, carbonIntensityGKWh, treeEquivalent float64, source, location, timestamp string) *ImpactResult {
	for _, v := range []float64{energyWh, co2EmissionsG, carbonIntensityGKWh, treeEquivalent} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrorResult()
		}
	}

	return &ImpactResult{
		EnergyWh:              roundTo(energyWh, 6),
		CO2EmissionsG:         roundTo(co2EmissionsG, 6),
		CarbonIntensityGKWh:   roundTo(carbonIntensityGKWh, 2),
		TreeEquivalent:        roundTo(treeEquivalent, 3),
		EquivalentText:        TreeEquivalentText(treeEquivalent),
		AdditionalEquivalents: EquivalentsFor(co2EmissionsG),
		Source:                source,
		Location:              location,
		Timestamp:             timestamp,
	}
}

// ErrorResult is the fixed all-zero payload returned when formatting fails.
func ErrorResult() *ImpactResult {
	return &ImpactResult{
		Error:          "Error formatting response",
		Source:         "error",
		EquivalentText: "calculation error",
	}
}

// TreeEquivalentText renders a tree-day equivalent as natural language.
func TreeEquivalentText(treeEquivalent float64) string {
	switch {
	case treeEquivalent <= 0:
		return "negligible environmental impact"
	case treeEquivalent < 0.01:
		return "less than 1% of what a tree absorbs daily"
	case treeEquivalent < 0.1:
		percent := int(math.Round(treeEquivalent * 100))
		return fmt.Sprintf("%d%% of what a tree absorbs daily", percent)
	case treeEquivalent < 1:
		return fmt.Sprintf("same CO2 as %.1f of a tree absorbs daily", treeEquivalent)
	case treeEquivalent < 2:
		return fmt.Sprintf("same CO2 as %.1f tree absorbs daily", treeEquivalent)
	default:
		return fmt.Sprintf("same CO2 as %.1f trees absorb daily", treeEquivalent)
	}
}

// EquivalentsFor expresses CO2 grams as everyday activities, each
// rounded independently for display.
func EquivalentsFor(co2Grams float64) AdditionalEquivalents {
	if co2Grams <= 0 {
		return AdditionalEquivalents{}
	}

	return AdditionalEquivalents{
		PhoneCharges: roundTo(co2Grams/phoneChargeCO2G, 2),
		MilesDriven:  roundTo(co2Grams/carCO2PerMileG, 3),
		LEDHours:     roundTo(co2Grams/ledCO2PerHourG, 1),
		LaptopHours:  roundTo(co2Grams/laptopCO2PerHourG, 2),
	}
}

// RateEfficiency classifies CO2 emissions per output token into one of
// five fixed tiers.
func RateEfficiency(co2PerToken float64) EfficiencyRating {
	switch {
	case co2PerToken <= 0.0001:
		return EfficiencyRating{
			Rating:      "excellent",
			Color:       "#22c55e",
			Description: "Highly efficient usage",
			Level:       "A+",
		}
	case co2PerToken <= 0.0005:
		return EfficiencyRating{
			Rating:      "good",
			Color:       "#84cc16",
			Description: "Good efficiency",
			Level:       "A",
		}
	case co2PerToken <= 0.001:
		return EfficiencyRating{
			Rating:      "average",
			Color:       "#eab308",
			Description: "Average efficiency",
			Level:       "B",
		}
	case co2PerToken <= 0.002:
		return EfficiencyRating{
			Rating:      "poor",
			Color:       "#f97316",
			Description: "Below average efficiency",
			Level:       "C",
		}
	default:
		return EfficiencyRating{
			Rating:      "very_poor",
			Color:       "#ef4444",
			Description: "Low efficiency",
			Level:       "D",
		}
	}
}

// EnvironmentalInsight generates insight text for a calculation,
// optionally comparing against a historical average efficiency with
// ±20% "typical" bands. averageEfficiency <= 0 disables the comparison.
func EnvironmentalInsight(co2Grams float64, outputTokens int64, averageEfficiency float64) string {
	if outputTokens <= 0 {
		return "No output tokens generated."
	}

	efficiency := co2Grams / float64(outputTokens)
	rating := RateEfficiency(efficiency)

	insight := fmt.Sprintf("Environmental efficiency: %s (%s).", rating.Level, rating.Description)

	if averageEfficiency > 0 {
		switch {
		case efficiency < averageEfficiency*0.8:
			insight += " This session was more efficient than your average."
		case efficiency > averageEfficiency*1.2:
			insight += " This session was less efficient than your average."
		default:
			insight += " This session efficiency is typical for you."
		}
	}

	return insight
}

// FormatEnergyDisplay renders watt-hours at a human-friendly scale.
func FormatEnergyDisplay(energyWh float64) string {
	switch {
	case energyWh < 0.001:
		return fmt.Sprintf("%.1fmWh", energyWh*1000)
	case energyWh < 1:
		return fmt.Sprintf("%.3fWh", energyWh)
	case energyWh < 1000:
		return fmt.Sprintf("%.1fWh", energyWh)
	default:
		return fmt.Sprintf("%.2fkWh", energyWh/1000)
	}
}

// FormatCO2Display renders CO2 grams at a human-friendly scale.
func FormatCO2Display(co2Grams float64) string {
	switch {
	case co2Grams < 0.001:
		return fmt.Sprintf("%.1fmg CO2", co2Grams*1000)
	case co2Grams < 1:
		return fmt.Sprintf("%.3fg CO2", co2Grams)
	case co2Grams < 1000:
		return fmt.Sprintf("%.1fg CO2", co2Grams)
	default:
		return fmt.Sprintf("%.2fkg CO2", co2Grams/1000)
	}
}
