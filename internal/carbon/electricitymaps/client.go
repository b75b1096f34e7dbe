// Package electricitymaps fetches live carbon intensity from the
// ElectricityMaps API for regions with a known zone mapping.
package electricitymaps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/valyala/fastjson"
)

// ErrZoneNotMapped indicates a region without an ElectricityMaps zone.
// Callers treat it as a miss, not a failure.
var ErrZoneNotMapped = errors.New("no electricitymaps zone for region")

// zoneMapping translates canonical region codes to ElectricityMaps zones.
//
//nolint:gochecknoglobals // Immutable lookup table
var zoneMapping = map[string]string{
	"us-west-1":      "US-CAL-CISO",
	"us-west-2":      "US-NW-PACW",
	"us-east-1":      "US-VA",
	"us-east-2":      "US-MIDW-MISO",
	"eu-west-1":      "IE",
	"eu-central-1":   "DE",
	"ap-southeast-1": "SG",
	"ap-northeast-1": "JP",
}

// Client wraps the HTTP client for ElectricityMaps API calls.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	parsers    fastjson.ParserPool
}

// NewClient creates a new ElectricityMaps client.
func NewClient(cfg Config) *Client {
	return &Client{
		token:   cfg.Token,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "electricity_maps"
}

// Intensity fetches the latest carbon intensity in gCO2/kWh for a
// canonical region code.
func (c *Client) Intensity(ctx context.Context, region string) (float64, error) {
	if c.token == "" {
		return 0, errors.New("token is not configured")
	}

	zone, ok := zoneMapping[region]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrZoneNotMapped, region)
	}

	endpoint := fmt.Sprintf("%s/v3/carbon-intensity/latest?zone=%s", c.baseURL, url.QueryEscape(zone))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("auth-token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	parser := c.parsers.Get()
	defer c.parsers.Put(parser)

	value, err := parser.ParseBytes(body)
	if err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	intensity := value.GetFloat64("carbonIntensity")
	if intensity <= 0 {
		return 0, errors.New("response carried no carbon intensity")
	}

	return intensity, nil
}
