package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/arturoeanton/reliefchat/internal/domain"
	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

// ServerTokenSource provides the JWT used for server-side API calls.
type ServerTokenSource interface {
	ServerToken() (string, error)
}

// Config holds the Stream REST client configuration.
type Config struct {
	APIKey        string
	BaseURL       string        // e.g. https://chat.stream-io-api.com
	MaxRetries    int           // retries after the first attempt for transient failures
	RetryInterval time.Duration // initial backoff, grows exponentially
	RatePerSecond float64       // outbound throttle, <= 0 disables it
	HTTPClient    *http.Client
}

// Client implements port.ChatProvider against the Stream Chat REST API.
type Client struct {
	apiKey      string
	baseURL     string
	serverToken string
	maxRetries  int
	retryEvery  time.Duration
	limiter     *rate.Limiter
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a Stream client. The server token is signed once up front.
func NewClient(cfg Config, tokens ServerTokenSource, logger *slog.Logger) (*Client, error) {
	serverToken, err := tokens.ServerToken()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	retryEvery := cfg.RetryInterval
	if retryEvery <= 0 {
		retryEvery = 200 * time.Millisecond
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSecond > 0 {
		burst := int(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		serverToken: serverToken,
		maxRetries:  maxRetries,
		retryEvery:  retryEvery,
		limiter:     limiter,
		httpClient:  httpClient,
		logger:      logger.With(slog.String("adapter", "stream")),
	}, nil
}

// UpsertUser creates or updates a user by id.
func (c *Client) UpsertUser(ctx context.Context, user domain.ChatUser) error {
	payload := map[string]any{
		"users": map[string]any{
			user.ID: map[string]any{
				"id":   user.ID,
				"name": user.Name,
				"role": user.Role,
			},
		},
	}
	return classify("upsert user", c.post(ctx, "upsert user", "/users", payload))
}

// CreateChannel gets or creates the channel with its initial members.
func (c *Client) CreateChannel(ctx context.Context, h domain.ChannelHandle) error {
	data := map[string]any{
		"name":          h.Name,
		"created_by_id": h.CreatedBy,
		"members":       []string(h.Members),
	}
	switch h.Kind {
	case domain.ChannelKindDirect:
		data["is_direct_message"] = true
	case domain.ChannelKindGroup:
		data["is_group"] = true
	}
	payload := map[string]any{
		"data":  data,
		"state": false,
		"watch": false,
	}
	return classify("create channel", c.post(ctx, "create channel", channelPath(h.Type, h.ID)+"/query", payload))
}

// AddMembers adds users to an existing channel.
func (c *Client) AddMembers(ctx context.Context, channelType, channelID string, userIDs []string) error {
	payload := map[string]any{"add_members": userIDs}
	return classify("add members", c.post(ctx, "add members", channelPath(channelType, channelID), payload))
}

func channelPath(channelType, channelID string) string {
	return "/channels/" + url.PathEscape(channelType) + "/" + url.PathEscape(channelID)
}

// post sends payload to path, retrying network failures, 429 and 5xx with
// exponential backoff.
func (c *Client) post(ctx context.Context, op, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryEvery
	eb.MaxInterval = 20 * c.retryEvery

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, c.do(ctx, path, body)
	},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.Warn("stream request failed, will retry", "op", op, "backoff", wait, "error", err)
		}),
	)
	return err
}

func (c *Client) do(ctx context.Context, path string, body []byte) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return backoff.Permanent(err)
	}

	endpoint := c.baseURL + path + "?api_key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.serverToken)
	req.Header.Set("Stream-Auth-Type", "jwt")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	apiErr := decodeAPIError(resp)
	if apiErr.retryable() {
		return apiErr
	}
	return backoff.Permanent(apiErr)
}
