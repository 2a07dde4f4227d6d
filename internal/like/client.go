package like

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fairyhunter13/recipe-box-service/internal/csrf"
	"github.com/fairyhunter13/recipe-box-service/internal/model"
)

var (
	// ErrNoSession is returned by Toggle before Session has succeeded.
	ErrNoSession = errors.New("no session: call Session first")
	// ErrBadStatus wraps non-2xx answers from the server.
	ErrBadStatus = errors.New("unexpected status")
)

// Toggler flips the like flag of a recipe on the server.
type Toggler interface {
	Toggle(ctx context.Context, recipeID int64) (model.LikeResult, error)
}

// Client talks to the recipe server's like endpoint. It keeps the session
// cookie in a cookie jar and remembers the anti-forgery token.
type Client struct {
	base string
	http *http.Client

	mu    sync.RWMutex
	token string
}

var _ Toggler = (*Client)(nil)

// NewClient returns a client for the server at baseURL. If hc is nil a
// client with a 10s timeout is used. A cookie jar is installed when hc has
// none.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	if hc.Jar == nil {
		jar, _ := cookiejar.New(nil)
		hc.Jar = jar
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc}
}

type sessionResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// Session opens (or resumes) a visitor session and stores its token.
func (c *Client) Session(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/session", nil)
	if err != nil {
		return "", err
	}
	var sr sessionResponse
	if err := c.do(req, &sr); err != nil {
		return "", fmt.Errorf("opening session: %w", err)
	}
	if sr.CSRFToken == "" {
		return "", fmt.Errorf("opening session: empty csrf token")
	}
	c.mu.Lock()
	c.token = sr.CSRFToken
	c.mu.Unlock()
	return sr.CSRFToken, nil
}

// Toggle sends one POST /like/{id}. It does not retry.
func (c *Client) Toggle(ctx context.Context, recipeID int64) (model.LikeResult, error) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token == "" {
		return model.LikeResult{}, ErrNoSession
	}
	u := c.base + "/like/" + strconv.FormatInt(recipeID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return model.LikeResult{}, err
	}
	req.Header.Set(csrf.Header, token)
	var res model.LikeResult
	if err := c.do(req, &res); err != nil {
		return model.LikeResult{}, fmt.Errorf("toggling like for recipe %d: %w", recipeID, err)
	}
	return res, nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrBadStatus, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
