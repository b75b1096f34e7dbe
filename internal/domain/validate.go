package domain

import (
	"fmt"
	"strings"
	"time"
)

// maxTokenCount bounds token counts to a sane request size.
const maxTokenCount = 1_000_000

// ValidationError reports malformed calculation input. Requests failing
// validation are rejected before any calculation happens.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// timestampLayouts are the accepted ISO-8601 shapes. RFC3339 covers
// offsets and the trailing "Z" UTC designator.
//
//nolint:gochecknoglobals // Immutable parse table
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Validate checks an ImpactRequest before calculation. Rules are applied
// in order and the first violation wins. It performs no normalization;
// location normalization is the carbon resolver's job.
func (r *ImpactRequest) Validate() *ValidationError {
	if r.Model == nil {
		return validationErrorf("Missing required field: model")
	}
	if r.InputTokens == nil {
		return validationErrorf("Missing required field: input_tokens")
	}
	if r.OutputTokens == nil {
		return validationErrorf("Missing required field: output_tokens")
	}

	if strings.TrimSpace(*r.Model) == "" {
		return validationErrorf("Model must be a non-empty string")
	}

	inputTokens, err := r.InputTokens.Int64()
	if err != nil || inputTokens < 0 {
		return validationErrorf("input_tokens must be a non-negative integer")
	}

	outputTokens, err := r.OutputTokens.Int64()
	if err != nil || outputTokens < 0 {
		return validationErrorf("output_tokens must be a non-negative integer")
	}

	if inputTokens > maxTokenCount {
		return validationErrorf("input_tokens exceeds reasonable limit (1M)")
	}
	if outputTokens > maxTokenCount {
		return validationErrorf("output_tokens exceeds reasonable limit (1M)")
	}

	if r.Timestamp != nil && *r.Timestamp != "" {
		if !parseableTimestamp(*r.Timestamp) {
			return validationErrorf("timestamp must be a valid ISO format string")
		}
	}

	if r.Location != nil && strings.TrimSpace(*r.Location) == "" {
		return validationErrorf("location must be a non-empty string")
	}

	return nil
}

func parseableTimestamp(ts string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, ts); err == nil {
			return true
		}
	}
	return false
}

// UsageRecord converts a validated request into calculation input.
// Callers must run Validate first.
func (r *ImpactRequest) UsageRecord() UsageRecord {
	inputTokens, _ := r.InputTokens.Int64()
	outputTokens, _ := r.OutputTokens.Int64()

	rec := UsageRecord{
		Model:             *r.Model,
		InputTokens:       inputTokens,
		OutputTokens:      outputTokens,
		AverageEfficiency: r.AverageEfficiency,
	}
	if r.Timestamp != nil {
		rec.Timestamp = *r.Timestamp
	}
	if r.Location != nil {
		rec.Location = *r.Location
	}

	return rec
}
