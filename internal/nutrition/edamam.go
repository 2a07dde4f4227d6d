package nutrition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// ErrAnalysisFailed wraps non-2xx answers from the analysis API.
var ErrAnalysisFailed = errors.New("nutrition analysis failed")

// Analyzer produces whole-recipe nutrient totals for ingredient lines.
type Analyzer interface {
	Analyze(ctx context.Context, title string, lines []string) (Analysis, error)
}

// EdamamConfig configures an EdamamClient.
type EdamamConfig struct {
	Endpoint string
	AppID    string
	AppKey   string
	// RequestsPerSecond throttles outgoing calls; <= 0 means 1.
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// EdamamClient calls the Edamam nutrition-details endpoint.
type EdamamClient struct {
	cfg     EdamamConfig
	http    *http.Client
	limiter *rate.Limiter
}

var _ Analyzer = (*EdamamClient)(nil)

// NewEdamamClient builds a rate-limited Edamam client.
func NewEdamamClient(cfg EdamamConfig) *EdamamClient {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &EdamamClient{
		cfg:     cfg,
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

type edamamRequest struct {
	Title string   `json:"title"`
	Ingr  []string `json:"ingr"`
}

// Analyze posts the recipe to Edamam and decodes the nutrient totals.
func (c *EdamamClient) Analyze(ctx context.Context, title string, lines []string) (Analysis, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Analysis{}, err
	}
	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return Analysis{}, fmt.Errorf("parsing endpoint: %w", err)
	}
	q := u.Query()
	q.Set("app_id", c.cfg.AppID)
	q.Set("app_key", c.cfg.AppKey)
	u.RawQuery = q.Encode()

	body, err := json.Marshal(edamamRequest{Title: title, Ingr: lines})
	if err != nil {
		return Analysis{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return Analysis{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return Analysis{}, fmt.Errorf("calling edamam: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Analysis{}, fmt.Errorf("%w: status %d: %s", ErrAnalysisFailed, resp.StatusCode, bytes.TrimSpace(msg))
	}
	var a Analysis
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return Analysis{}, fmt.Errorf("decoding edamam response: %w", err)
	}
	return a, nil
}
