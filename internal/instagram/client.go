// Package instagram talks to the Instagram Graph API and Meta OAuth endpoints.
package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultInstagramHost = "https://graph.instagram.com"
	defaultFacebookHost  = "https://graph.facebook.com"
	defaultDialogHost    = "https://www.facebook.com"

	postFields    = "id,caption,media_url,permalink,timestamp"
	commentFields = "id,text,username,from,timestamp,parent_id"
)

// Config configures the Graph API client
type Config struct {
	AppID        string
	AppSecret    string
	RedirectURI  string
	GraphVersion string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	LogComments  bool

	// Base URLs, overridable in tests
	InstagramHost string
	FacebookHost  string
	DialogHost    string
}

// Post is a media item of an Instagram account
type Post struct {
	ID        string  `json:"id"`
	Caption   *string `json:"caption"`
	MediaURL  *string `json:"media_url"`
	Permalink *string `json:"permalink"`
	Timestamp *string `json:"timestamp"`
}

// Comment is a comment on a post
type Comment struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Username string `json:"username"`
}

// GraphError is a failed Graph API call
type GraphError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *GraphError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *GraphError) retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client is a Graph API client
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Graph API client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.GraphVersion == "" {
		cfg.GraphVersion = "v23.0"
	}
	if cfg.InstagramHost == "" {
		cfg.InstagramHost = defaultInstagramHost
	}
	if cfg.FacebookHost == "" {
		cfg.FacebookHost = defaultFacebookHost
	}
	if cfg.DialogHost == "" {
		cfg.DialogHost = defaultDialogHost
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// ListPosts lists the media of igUserID
func (c *Client) ListPosts(ctx context.Context, igUserID, accessToken string) ([]Post, error) {
	params := url.Values{}
	params.Set("fields", postFields)
	params.Set("access_token", accessToken)

	endpoint := fmt.Sprintf("%s/%s/%s/media?%s", c.cfg.InstagramHost, c.cfg.GraphVersion, url.PathEscape(igUserID), params.Encode())

	_, body, err := c.get(ctx, "list posts", endpoint)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []Post `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &GraphError{Op: "list posts", Message: "failed to parse response"}
	}

	posts := payload.Data
	if posts == nil {
		posts = []Post{}
	}

	return posts, nil
}

type commentsPayload struct {
	Data []struct {
		ID       string  `json:"id"`
		Text     *string `json:"text"`
		Username *string `json:"username"`
		From     *struct {
			Username *string `json:"username"`
		} `json:"from"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// ListComments lists the comments of postID. When the Instagram host returns
// none, the Facebook Graph host is tried; a failing fallback yields the empty
// primary result.
func (c *Client) ListComments(ctx context.Context, postID, accessToken string) ([]Comment, error) {
	primary, err := c.commentsFromHost(ctx, c.cfg.InstagramHost, postID, accessToken)
	if err != nil {
		return nil, err
	}
	if len(primary) > 0 {
		return primary, nil
	}

	fallback, err := c.commentsFromHost(ctx, c.cfg.FacebookHost, postID, accessToken)
	if err != nil {
		if c.cfg.LogComments {
			c.logger.Warn("instagram-comments fallback failed",
				zap.String("post_id", postID),
				zap.Error(err),
			)
		}
		return primary, nil
	}

	return fallback, nil
}

func (c *Client) commentsFromHost(ctx context.Context, host, postID, accessToken string) ([]Comment, error) {
	params := url.Values{}
	params.Set("fields", commentFields)
	params.Set("access_token", accessToken)

	endpoint := fmt.Sprintf("%s/%s/%s/comments?%s", host, c.cfg.GraphVersion, url.PathEscape(postID), params.Encode())
	op := fmt.Sprintf("list comments (%s)", hostName(host))

	status, body, err := c.get(ctx, op, endpoint)
	if c.cfg.LogComments {
		c.logger.Info("instagram-comments response",
			zap.String("host", hostName(host)),
			zap.String("post_id", postID),
			zap.Int("status", status),
			zap.ByteString("raw", body),
		)
	}
	if err != nil {
		return nil, err
	}

	var payload commentsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &GraphError{Op: op, Message: "failed to parse response"}
	}

	if payload.Error != nil {
		msg := payload.Error.Message
		if msg == "" {
			msg = "unknown error"
		}
		if payload.Error.Code != 0 {
			msg = fmt.Sprintf("%s [%d]", msg, payload.Error.Code)
		}
		return nil, &GraphError{Op: op, Message: msg}
	}

	comments := make([]Comment, 0, len(payload.Data))
	for _, item := range payload.Data {
		comment := Comment{ID: item.ID, Username: "unknown"}
		if item.Text != nil {
			comment.Text = *item.Text
		}
		switch {
		case item.Username != nil:
			comment.Username = *item.Username
		case item.From != nil && item.From.Username != nil:
			comment.Username = *item.From.Username
		}
		comments = append(comments, comment)
	}

	return comments, nil
}

// PublishReply posts message as a reply to commentID and returns the new comment id
func (c *Client) PublishReply(ctx context.Context, commentID, message, accessToken string) (string, error) {
	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", accessToken)

	endpoint := fmt.Sprintf("%s/%s/%s/replies", c.cfg.InstagramHost, c.cfg.GraphVersion, url.PathEscape(commentID))

	// Publishing is not idempotent, so it is attempted once.
	_, body, err := c.send(ctx, "publish reply", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}, 0)
	if err != nil {
		return "", err
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &GraphError{Op: "publish reply", Message: "failed to parse response"}
	}
	if payload.ID == "" {
		return "", &GraphError{Op: "publish reply", Message: "response missing id"}
	}

	return payload.ID, nil
}

func (c *Client) get(ctx context.Context, op, endpoint string) (int, []byte, error) {
	return c.send(ctx, op, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}, c.cfg.MaxRetries)
}

// send runs the request, retrying network errors, 429 and 5xx up to maxRetries times
func (c *Client) send(ctx context.Context, op string, build func() (*http.Request, error), maxRetries int) (int, []byte, error) {
	var lastErr error
	var lastStatus int
	var lastBody []byte

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(c.cfg.RetryBackoff * time.Duration(1<<uint(attempt-1)))
			select {
			case <-ctx.Done():
				timer.Stop()
				return lastStatus, lastBody, ctx.Err()
			case <-timer.C:
			}
		}

		req, err := build()
		if err != nil {
			return 0, nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// url.Error carries the full URL including the access token
			lastErr = &GraphError{Op: op, Message: requestFailure(err)}
			if ctx.Err() != nil {
				return 0, nil, lastErr
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastStatus, lastBody = resp.StatusCode, body
		if err != nil {
			lastErr = &GraphError{Op: op, Message: "failed to read response"}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			graphErr := &GraphError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(body)}
			if !graphErr.retryable() {
				return resp.StatusCode, body, graphErr
			}
			lastErr = graphErr
			continue
		}

		return resp.StatusCode, body, nil
	}

	return lastStatus, lastBody, lastErr
}

func requestFailure(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return "request failed: " + urlErr.Err.Error()
	}
	return "request failed"
}

func errorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return "unexpected response"
}

func hostName(host string) string {
	if u, err := url.Parse(host); err == nil && u.Host != "" {
		return u.Host
	}
	return host
}
