package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/parkwatch/parkcast/geomodel"
)

const defaultTimeout = 10 * time.Second

// Client calls the remote prediction service. It is used once per submitted
// user query; sampled visualization points never reach the service.
type Client struct {
	endpoint string
	hc       *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		hc:       &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Error is a non-2xx answer from the prediction service.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("forecast service: %s (status %d)", e.Message, e.Status)
}

// ValidateQuery rejects malformed queries before they reach the wire.
func ValidateQuery(q geomodel.Query) error {
	if _, err := time.Parse(time.DateOnly, q.Date); err != nil {
		return fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", q.Date, err)
	}
	if q.Hour < 0 || q.Hour > 23 {
		return fmt.Errorf("invalid hour %d, want 0-23", q.Hour)
	}
	if math.IsNaN(q.X) || math.IsInf(q.X, 0) || math.IsNaN(q.Y) || math.IsInf(q.Y, 0) {
		return fmt.Errorf("coordinates must be finite, got x=%v y=%v", q.X, q.Y)
	}
	return nil
}

// Forecast submits one query and returns the binary outcome.
func (c *Client) Forecast(ctx context.Context, q geomodel.Query) (geomodel.Result, error) {
	if err := ValidateQuery(q); err != nil {
		return geomodel.Result{}, err
	}

	body, err := json.Marshal(q)
	if err != nil {
		return geomodel.Result{}, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return geomodel.Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return geomodel.Result{}, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var fail struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&fail)
		if fail.Error == "" {
			fail.Error = http.StatusText(resp.StatusCode)
		}
		return geomodel.Result{}, &Error{Status: resp.StatusCode, Message: fail.Error}
	}

	var res geomodel.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return geomodel.Result{}, fmt.Errorf("decode forecast response: %w", err)
	}
	if res.Ticketed != 0 && res.Ticketed != 1 {
		return geomodel.Result{}, fmt.Errorf("forecast service returned ticketed=%d, want 0 or 1", res.Ticketed)
	}

	return res, nil
}
