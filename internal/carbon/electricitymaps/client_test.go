package electricitymaps_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/treeline/internal/carbon/electricitymaps"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *electricitymaps.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return electricitymaps.NewClient(electricitymaps.Config{
		Token:   "test-token",
		BaseURL: server.URL,
		Timeout: 5,
	})
}

func TestClient_Intensity(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches latest intensity for mapped zone", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			require.Equal(t, "/v3/carbon-intensity/latest", r.URL.Path)
			require.Equal(t, "US-CAL-CISO", r.URL.Query().Get("zone"))
			require.Equal(t, "test-token", r.Header.Get("auth-token"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"zone": "US-CAL-CISO", "carbonIntensity": 312.5, "datetime": "2024-01-01T00:00:00Z"}`))
		})

		intensity, err := client.Intensity(ctx, "us-west-1")
		require.NoError(t, err)
		require.InDelta(t, 312.5, intensity, 1e-9)
	})

	t.Run("zone mapping covers every canonical region", func(t *testing.T) {
		zones := map[string]string{
			"us-west-1":      "US-CAL-CISO",
			"us-west-2":      "US-NW-PACW",
			"us-east-1":      "US-VA",
			"us-east-2":      "US-MIDW-MISO",
			"eu-west-1":      "IE",
			"eu-central-1":   "DE",
			"ap-southeast-1": "SG",
			"ap-northeast-1": "JP",
		}

		var gotZone string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotZone = r.URL.Query().Get("zone")
			_, _ = w.Write([]byte(`{"carbonIntensity": 100}`))
		})

		for region, zone := range zones {
			_, err := client.Intensity(ctx, region)
			require.NoError(t, err)
			require.Equal(t, zone, gotZone, region)
		}
	})

	t.Run("unmapped region", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for unmapped region")
		})

		_, err := client.Intensity(ctx, "mars-north-1")
		require.ErrorIs(t, err, electricitymaps.ErrZoneNotMapped)
	})

	t.Run("missing token", func(t *testing.T) {
		client := electricitymaps.NewClient(electricitymaps.Config{Timeout: 5})

		_, err := client.Intensity(ctx, "us-west-1")
		require.Error(t, err)
	})

	t.Run("non-200 response", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid token", http.StatusUnauthorized)
		})

		_, err := client.Intensity(ctx, "us-west-1")
		require.Error(t, err)
		require.Contains(t, err.Error(), "401")
	})

	t.Run("zero intensity in response", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"zone": "US-CAL-CISO"}`))
		})

		_, err := client.Intensity(ctx, "us-west-1")
		require.Error(t, err)
	})
}

func TestClient_Name(t *testing.T) {
	client := electricitymaps.NewClient(electricitymaps.Config{})
	require.Equal(t, "electricity_maps", client.Name())
}
