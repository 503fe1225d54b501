// Package backend is the client of the chat backend RPC.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 4 << 20
)

// Request is the body sent to the backend.
type Request struct {
	Message string `json:"message" jsonschema:"required,minLength=1,description=The user's chat message"`
}

// Response is the body the backend answers with.
type Response struct {
	Reply string `json:"reply" jsonschema:"description=The bot's reply text"`
	// Audio is an optional URL or data: reference to the spoken reply.
	Audio *string `json:"audio,omitempty" jsonschema:"description=Optional URL or data reference to pre-rendered audio of the reply"`
}

// Reply is an accepted backend answer.
type Reply struct {
	Text     string
	AudioRef string
}

type Client struct {
	url        string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds a whole call including reading the body.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return "backend " + r.Method
				}),
			),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts message and returns the reply. Exactly one request is made;
// errors are *NetworkError, *ProtocolError or ErrEmptyReply.
func (c *Client) Send(ctx context.Context, message string) (Reply, error) {
	ctx, span := tracer.Start(ctx, "send chat message", trace.WithAttributes(
		attribute.Int("message.length", len(message)),
	))
	defer span.End()

	reply, err := c.send(ctx, message)
	if err != nil {
		kind := ErrorKind(err)
		rpcFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WarnContext(ctx, "backend call failed", "kind", kind, "error", err)
		return Reply{}, err
	}
	span.SetAttributes(attribute.Bool("reply.has_audio", reply.AudioRef != ""))
	return reply, nil
}

func (c *Client) send(ctx context.Context, message string) (Reply, error) {
	body, err := json.Marshal(Request{Message: message})
	if err != nil {
		return Reply{}, fmt.Errorf("error marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Reply{}, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Reply{}, &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Reply{}, &ProtocolError{
			StatusCode: resp.StatusCode,
			Body:       excerpt(raw),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	var response Response
	if err := json.Unmarshal(raw, &response); err != nil {
		return Reply{}, &ProtocolError{Body: excerpt(raw), Err: err}
	}

	text := strings.TrimSpace(response.Reply)
	if text == "" {
		return Reply{}, ErrEmptyReply
	}

	reply := Reply{Text: text}
	if response.Audio != nil {
		reply.AudioRef = strings.TrimSpace(*response.Audio)
	}
	return reply, nil
}
