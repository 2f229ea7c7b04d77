// Package weatherapi is a client for the weatherapi.com forecast endpoint.
package weatherapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/alexivanou/forecast-widget/internal/model"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ForecastDays is the fixed forecast window requested per call.
const ForecastDays = 4

const defaultBaseURL = "https://api.weatherapi.com/v1"

// ErrMalformedResponse is returned when a 2xx body does not match the forecast shape.
var ErrMalformedResponse = errors.New("malformed forecast response")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status  int
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("weatherapi returned status %d", e.Status)
	}
	return fmt.Sprintf("weatherapi returned status %d: %s (code %d)", e.Status, e.Message, e.Code)
}

// HTTPClient is the subset of *http.Client the client needs
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches forecasts from weatherapi.com
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPClient
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client. The timeout applies to the default HTTP client only.
func New(apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ForecastURL builds the request URL for a location.
func (c *Client) ForecastURL(location string) string {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("q", location)
	q.Set("days", fmt.Sprint(ForecastDays))
	q.Set("aqi", "no")
	q.Set("alerts", "no")
	return c.baseURL + "/forecast.json?" + q.Encode()
}

// Forecast issues one GET for current conditions plus the forecast window.
func (c *Client) Forecast(ctx context.Context, location string) (*model.ForecastResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ForecastURL(location), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read forecast response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Status: resp.StatusCode}
		var apiErr model.APIError
		if json.Unmarshal(body, &apiErr) == nil {
			statusErr.Code = apiErr.Error.Code
			statusErr.Message = apiErr.Error.Message
		}
		return nil, statusErr
	}

	var forecast model.ForecastResponse
	if err := json.Unmarshal(body, &forecast); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := validate(&forecast); err != nil {
		return nil, err
	}
	return &forecast, nil
}

// validate rejects bodies that decoded but are missing the blocks the widget renders.
func validate(f *model.ForecastResponse) error {
	switch {
	case f.Location.Name == "":
		return fmt.Errorf("%w: missing location", ErrMalformedResponse)
	case f.Current.LastUpdated == "" || f.Current.Condition.Text == "":
		return fmt.Errorf("%w: missing current conditions", ErrMalformedResponse)
	case f.Forecast.ForecastDay == nil:
		return fmt.Errorf("%w: missing forecastday", ErrMalformedResponse)
	}
	for i, d := range f.Forecast.ForecastDay {
		if _, err := time.Parse(time.DateOnly, d.Date); err != nil {
			return fmt.Errorf("%w: forecastday[%d] has invalid date %q", ErrMalformedResponse, i, d.Date)
		}
	}
	return nil
}
