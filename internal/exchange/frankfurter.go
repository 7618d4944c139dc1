package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultFrankfurterURL is the public Frankfurter API.
const DefaultFrankfurterURL = "https://api.frankfurter.app"

// FrankfurterClient reads ECB reference rates from a Frankfurter API.
type FrankfurterClient struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

type frankfurterResponse struct {
	Base  string                 `json:"base"`
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

// NewFrankfurterClient creates a client. An empty baseURL uses the public API.
func NewFrankfurterClient(baseURL string, timeout time.Duration) *FrankfurterClient {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = DefaultFrankfurterURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &FrankfurterClient{
		baseURL: trimmed,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		now: time.Now,
	}
}

// Rate fetches the latest rate for from→to.
func (c *FrankfurterClient) Rate(ctx context.Context, from, to string) (Rate, error) {
	from, err := NormalizeCode(from)
	if err != nil {
		return Rate{}, err
	}
	to, err = NormalizeCode(to)
	if err != nil {
		return Rate{}, err
	}
	if from == to {
		return identity(from, c.now().UTC()), nil
	}

	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	endpoint := c.baseURL + "/latest?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Rate{}, fmt.Errorf("failed to create rate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Rate{}, fmt.Errorf("failed to request rate: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Rate{}, fmt.Errorf("%w: %s→%s", ErrRateUnavailable, from, to)
	case resp.StatusCode != http.StatusOK:
		return Rate{}, fmt.Errorf("rate API returned status %d", resp.StatusCode)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()

	var payload frankfurterResponse
	if err := decoder.Decode(&payload); err != nil {
		return Rate{}, fmt.Errorf("failed to decode rate response: %w", err)
	}

	raw, ok := payload.Rates[to]
	if !ok {
		return Rate{}, fmt.Errorf("%w: %s→%s", ErrRateUnavailable, from, to)
	}
	value, err := decimal.NewFromString(raw.String())
	if err != nil {
		return Rate{}, fmt.Errorf("failed to parse rate: %w", err)
	}
	if !value.IsPositive() {
		return Rate{}, fmt.Errorf("%w: non-positive rate %s", ErrRateUnavailable, value)
	}

	date, err := time.Parse(time.DateOnly, payload.Date)
	if err != nil {
		return Rate{}, fmt.Errorf("failed to parse rate date: %w", err)
	}

	return Rate{From: from, To: to, Value: value, Date: date}, nil
}
