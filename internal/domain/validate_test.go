package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/treeline/internal/domain"
)

func decodeRequest(t *testing.T, body string) *domain.ImpactRequest {
	t.Helper()

	var req domain.ImpactRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return &req
}

func TestImpactRequest_Validate(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expectedErr string
	}{
		{
			name:        "missing model",
			body:        `{"input_tokens": 100, "output_tokens": 200}`,
			expectedErr: "Missing required field: model",
		},
		{
			name:        "missing input tokens",
			body:        `{"model": "claude-3-5-sonnet", "output_tokens": 200}`,
			expectedErr: "Missing required field: input_tokens",
		},
		{
			name:        "missing output tokens",
			body:        `{"model": "claude-3-5-sonnet", "input_tokens": 100}`,
			expectedErr: "Missing required field: output_tokens",
		},
		{
			name:        "empty model",
			body:        `{"model": "", "input_tokens": 100, "output_tokens": 200}`,
			expectedErr: "Model must be a non-empty string",
		},
		{
			name:        "whitespace model",
			body:        `{"model": "   ", "input_tokens": 100, "output_tokens": 200}`,
			expectedErr: "Model must be a non-empty string",
		},
		{
			name:        "negative input tokens",
			body:        `{"model": "m", "input_tokens": -1, "output_tokens": 200}`,
			expectedErr: "input_tokens must be a non-negative integer",
		},
		{
			name:        "non-integer input tokens",
			body:        `{"model": "m", "input_tokens": 100.5, "output_tokens": 200}`,
			expectedErr: "input_tokens must be a non-negative integer",
		},
		{
			name:        "negative output tokens",
			body:        `{"model": "m", "input_tokens": 100, "output_tokens": -200}`,
			expectedErr: "output_tokens must be a non-negative integer",
		},
		{
			name:        "input tokens above limit",
			body:        `{"model": "m", "input_tokens": 1000001, "output_tokens": 200}`,
			expectedErr: "input_tokens exceeds reasonable limit (1M)",
		},
		{
			name:        "output tokens above limit",
			body:        `{"model": "m", "input_tokens": 100, "output_tokens": 1000001}`,
			expectedErr: "output_tokens exceeds reasonable limit (1M)",
		},
		{
			name:        "malformed timestamp",
			body:        `{"model": "m", "input_tokens": 1, "output_tokens": 1, "timestamp": "not-a-date"}`,
			expectedErr: "timestamp must be a valid ISO format string",
		},
		{
			name:        "empty location",
			body:        `{"model": "m", "input_tokens": 1, "output_tokens": 1, "location": "  "}`,
			expectedErr: "location must be a non-empty string",
		},
		{
			name: "minimal valid request",
			body: `{"model": "claude-3-5-sonnet-20241022", "input_tokens": 150, "output_tokens": 500}`,
		},
		{
			name: "valid request with trailing Z timestamp",
			body: `{"model": "m", "input_tokens": 0, "output_tokens": 0, "timestamp": "2025-06-25T10:30:00Z"}`,
		},
		{
			name: "valid request with offset timestamp",
			body: `{"model": "m", "input_tokens": 1, "output_tokens": 1, "timestamp": "2025-06-25T10:30:00+02:00"}`,
		},
		{
			name: "valid request with naive timestamp",
			body: `{"model": "m", "input_tokens": 1, "output_tokens": 1, "timestamp": "2025-06-25T10:30:00"}`,
		},
		{
			name: "token counts at the limit",
			body: `{"model": "m", "input_tokens": 1000000, "output_tokens": 1000000}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := decodeRequest(t, tt.body).Validate()

			if tt.expectedErr == "" {
				require.Nil(t, verr)
				return
			}

			require.NotNil(t, verr)
			require.Equal(t, tt.expectedErr, verr.Message)
		})
	}
}

func TestImpactRequest_UsageRecord(t *testing.T) {
	req := decodeRequest(t, `{
		"model": "claude-3-5-sonnet-20241022",
		"input_tokens": 150,
		"output_tokens": 500,
		"timestamp": "2025-06-25T10:30:00Z",
		"location": "us-west-1",
		"average_efficiency": 0.0004
	}`)
	require.Nil(t, req.Validate())

	rec := req.UsageRecord()
	require.Equal(t, "claude-3-5-sonnet-20241022", rec.Model)
	require.Equal(t, int64(150), rec.InputTokens)
	require.Equal(t, int64(500), rec.OutputTokens)
	require.Equal(t, "2025-06-25T10:30:00Z", rec.Timestamp)
	require.Equal(t, "us-west-1", rec.Location)
	require.InDelta(t, 0.0004, rec.AverageEfficiency, 1e-12)
}
