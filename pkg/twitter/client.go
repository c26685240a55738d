package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"tweetbot/pkg/config"
	errs "tweetbot/pkg/errors"
	"tweetbot/pkg/logger"
	"tweetbot/pkg/ratelimit"
	"tweetbot/pkg/retry"
)

const bodyPreviewLimit = 200

// Client talks to the v1.1 REST API with OAuth 1.0a user-context signing.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger
}

// NewClient creates a client that signs every request with the credentials in cfg.
func NewClient(cfg config.TwitterConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	oauthCfg := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret)
	httpClient := oauthCfg.Client(oauth1.NoContext, token)
	httpClient.Timeout = cfg.Timeout

	c := NewClientWithHTTP(cfg.BaseURL, httpClient, log)
	if cfg.UserAgent != "" {
		c.SetHeader("User-Agent", cfg.UserAgent)
	}
	return c
}

// NewClientWithHTTP wraps an already configured *http.Client. Tests use it
// with an unsigned client pointed at a local server.
func NewClientWithHTTP(baseURL string, httpClient *http.Client, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if baseURL == "" {
		baseURL = BaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		headers: map[string]string{
			"User-Agent": config.AppName,
			"Accept":     "application/json",
		},
		baseURL: baseURL,
		limiter: ratelimit.Unlimited{},
		retry:   &retry.Config{MaxAttempts: 1},
		logger:  log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHeaders sets multiple headers at once
func (c *Client) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		c.headers[key] = value
	}
}

// SetBaseURL points the client at another API root.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

// SetLimiter installs a client-side limiter consulted before every request.
func (c *Client) SetLimiter(l ratelimit.Limiter) {
	if l == nil {
		l = ratelimit.Unlimited{}
	}
	c.limiter = l
}

// SetRetryConfig sets how transient failures are retried. nil disables retries.
func (c *Client) SetRetryConfig(rc *retry.Config) {
	if rc == nil {
		rc = &retry.Config{MaxAttempts: 1}
	}
	if rc.Logger == nil {
		rc.Logger = c.logger
	}
	c.retry = rc
}

// RateLimitStatus fetches the remaining budgets for the given resource families.
func (c *Client) RateLimitStatus(ctx context.Context, resources ...string) (*RateLimitStatus, error) {
	u, err := buildURL(c.baseURL, RateLimitStatusEndpoint, RateLimitParams{Resources: resources})
	if err != nil {
		return nil, err
	}
	var status RateLimitStatus
	if err := c.getJSON(ctx, u, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Search runs one page of search/tweets.
func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "search query is required")
	}
	if params.Count <= 0 || params.Count > MaxSearchCount {
		params.Count = MaxSearchCount
	}
	if params.TweetMode == "" {
		params.TweetMode = "extended"
	}

	u, err := buildURL(c.baseURL, SearchEndpoint, params)
	if err != nil {
		return nil, err
	}
	var resp SearchResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserTimeline fetches one page of a user's timeline, newest first.
func (c *Client) UserTimeline(ctx context.Context, params TimelineParams) ([]Status, error) {
	if strings.TrimSpace(params.ScreenName) == "" {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "screen name is required")
	}
	if params.Count <= 0 || params.Count > MaxTimelineCount {
		params.Count = MaxTimelineCount
	}
	if params.TweetMode == "" {
		params.TweetMode = "extended"
	}

	u, err := buildURL(c.baseURL, UserTimelineEndpoint, params)
	if err != nil {
		return nil, err
	}
	var statuses []Status
	if err := c.getJSON(ctx, u, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

// Like favorites the status with the given id.
func (c *Client) Like(ctx context.Context, id string) error {
	if id == "" {
		return errs.New(errs.ErrorTypeUnknown, 0, "status id is required")
	}
	u, err := buildURL(c.baseURL, FavoritesCreateEndpoint, likeParams{ID: id})
	if err != nil {
		return err
	}
	var status Status
	return c.postJSON(ctx, u, &status)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, target interface{}) error {
	return c.callJSON(ctx, http.MethodGet, rawURL, target)
}

// postJSON sends the query string as a form body, which is how v1.1 expects
// POST parameters.
func (c *Client) postJSON(ctx context.Context, rawURL string, target interface{}) error {
	return c.callJSON(ctx, http.MethodPost, rawURL, target)
}

func (c *Client) callJSON(ctx context.Context, method, rawURL string, target interface{}) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		req, err := c.newRequest(ctx, method, rawURL)
		if err != nil {
			return err
		}
		resp, err := c.doRequest(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		return c.decode(resp, target)
	}, c.retry)
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	if method != http.MethodPost {
		req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
		if err != nil {
			return nil, errs.New(errs.ErrorTypeUnknown, 0, fmt.Sprintf("failed to create request: %v", err))
		}
		return req, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, fmt.Sprintf("invalid url: %v", err))
	}
	form := u.RawQuery
	u.RawQuery = ""
	req, err := http.NewRequestWithContext(ctx, method, u.String(), strings.NewReader(form))
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.New(errs.ErrorTypeNetwork, 0, fmt.Sprintf("network error: %v", err))
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

func (c *Client) decode(resp *http.Response, target interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.New(errs.ErrorTypeNetwork, resp.StatusCode, fmt.Sprintf("failed to read response body: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := errs.ClassifyAPIError(resp.StatusCode, body, resp.Header)
		c.logger.WarnWithFields("API request rejected", map[string]interface{}{
			"url":      resp.Request.URL.String(),
			"status":   resp.StatusCode,
			"api_code": apiErr.APICode,
			"type":     string(apiErr.Type),
		})
		return apiErr
	}

	if err := json.Unmarshal(body, target); err != nil {
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          resp.Request.URL.String(),
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview(body),
		})
		return errs.New(errs.ErrorTypeParsing, resp.StatusCode, fmt.Sprintf("failed to parse JSON: %v", err))
	}
	return nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > bodyPreviewLimit {
		return s[:bodyPreviewLimit] + "..."
	}
	return s
}
