package qstash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseSizeBytes = 1 << 20

type Config struct {
	URL               string        `split_words:"true" default:"https://qstash.upstash.io"`
	Token             string        `split_words:"true" required:"true"`
	CurrentSigningKey string        `split_words:"true" required:"true"`
	NextSigningKey    string        `split_words:"true" required:"true"`
	Timeout           time.Duration `split_words:"true" default:"10s"`
}

type Client struct {
	baseURL           string
	token             string
	currentSigningKey string
	nextSigningKey    string
	httpClient        *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("qstash url is required")
	}

	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("qstash token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		token:             token,
		currentSigningKey: strings.TrimSpace(cfg.CurrentSigningKey),
		nextSigningKey:    strings.TrimSpace(cfg.NextSigningKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

func MustNew(cfg Config, opts ...ClientOption) *Client {
	client, err := NewClient(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return client
}

type publishResult struct {
	MessageID string `json:"messageId"`
	URL       string `json:"url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Publish enqueues body for topic, which is either a destination URL or a
// URL group name.
func (c *Client) Publish(ctx context.Context, topic string, body []byte) error {
	_, err := c.PublishJSON(ctx, topic, body)
	return err
}

// PublishJSON is Publish returning the message ids assigned by QStash.
func (c *Client) PublishJSON(ctx context.Context, topic string, body []byte) ([]string, error) {
	if c == nil {
		return nil, errors.New("nil qstash client")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errors.New("qstash topic is required")
	}

	endpoint := c.baseURL + "/v2/publish/" + topic
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build qstash request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute qstash request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read qstash response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("qstash http status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return decodePublishResults(raw)
}

// Target returns the destination a topic is published to.
func (c *Client) Target(topic string) string {
	return c.baseURL + "/v2/publish/" + strings.TrimSpace(topic)
}

// single destinations answer with an object, url groups with an array.
func decodePublishResults(raw []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var results []publishResult
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return nil, fmt.Errorf("decode qstash response: %w", err)
		}
	} else {
		var single publishResult
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, fmt.Errorf("decode qstash response: %w", err)
		}
		results = append(results, single)
	}

	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r.Error != "" {
			return nil, fmt.Errorf("qstash publish to %s: %s", r.URL, r.Error)
		}
		if r.MessageID != "" {
			ids = append(ids, r.MessageID)
		}
	}
	return ids, nil
}
