// Package watttime fetches marginal emissions data from the WattTime
// API for US regions with a known balancing-authority mapping.
package watttime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/valyala/fastjson"
)

// ErrRegionNotMapped indicates a region without a WattTime balancing
// authority. Callers treat it as a miss, not a failure.
var ErrRegionNotMapped = errors.New("no watttime region mapping")

// lbsPerMWhToGramsPerKWh converts pounds per megawatt-hour to grams
// per kilowatt-hour.
const lbsPerMWhToGramsPerKWh = 453.592 / 1000

// regionMapping translates canonical US region codes to WattTime
// balancing authorities.
//
//nolint:gochecknoglobals // Immutable lookup table
var regionMapping = map[string]string{
	"us-west-1": "CAISO_NORTH",
	"us-west-2": "PACW",
	"us-east-1": "PJM_DC",
	"us-east-2": "MISO_IN",
}

// Client wraps the HTTP client for WattTime API calls. The login token
// is cached and refreshed on demand after an authorization failure.
type Client struct {
	username   string
	password   string
	baseURL    string
	httpClient *http.Client
	parsers    fastjson.ParserPool

	mu    sync.Mutex
	token string
}

// NewClient creates a new WattTime client.
func NewClient(cfg Config) *Client {
	return &Client{
		username: cfg.Username,
		password: cfg.Password,
		baseURL:  cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "watt_time"
}

// Intensity fetches the current marginal operating emissions rate for a
// canonical region code, converted to gCO2/kWh.
func (c *Client) Intensity(ctx context.Context, region string) (float64, error) {
	ba, ok := regionMapping[region]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrRegionNotMapped, region)
	}

	token, err := c.authToken(ctx)
	if err != nil {
		return 0, err
	}

	endpoint := fmt.Sprintf("%s/v2/index?ba=%s", c.baseURL, url.QueryEscape(ba))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// Token expired; drop it so the next call re-authenticates.
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	moerLbsMWh, err := c.parseMOER(body)
	if err != nil {
		return 0, err
	}

	return moerLbsMWh * lbsPerMWhToGramsPerKWh, nil
}

// parseMOER extracts the marginal operating emissions rate in lbs/MWh.
// The API serves it as either a number or a numeric string.
func (c *Client) parseMOER(body []byte) (float64, error) {
	parser := c.parsers.Get()
	defer c.parsers.Put(parser)

	value, err := parser.ParseBytes(body)
	if err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	moer := value.Get("moer")
	if moer == nil {
		return 0, errors.New("response carried no moer value")
	}

	if moer.Type() == fastjson.TypeString {
		parsed, perr := strconv.ParseFloat(string(moer.GetStringBytes()), 64)
		if perr != nil {
			return 0, fmt.Errorf("invalid moer value: %w", perr)
		}
		return parsed, nil
	}

	return moer.GetFloat64(), nil
}

// authToken returns the cached login token, authenticating when absent.
func (c *Client) authToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	if c.username == "" || c.password == "" {
		return "", errors.New("credentials are not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/login", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("authentication failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read login response: %w", err)
	}

	parser := c.parsers.Get()
	defer c.parsers.Put(parser)

	value, err := parser.ParseBytes(body)
	if err != nil {
		return "", fmt.Errorf("failed to parse login response: %w", err)
	}

	token := string(value.GetStringBytes("token"))
	if token == "" {
		return "", errors.New("login response carried no token")
	}

	c.token = token
	return token, nil
}
