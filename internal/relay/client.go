package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/MeKo-Tech/photocore/internal/raster"
)

var (
	// ErrUnavailable is returned when the relay cannot be reached or reports
	// a server-side failure.
	ErrUnavailable = errors.New("relay unavailable")
	// ErrTimeout is returned when the relay does not answer in time.
	ErrTimeout = errors.New("relay timeout")
)

const (
	// DefaultHealthTimeout bounds the health check made before each request.
	DefaultHealthTimeout = 2 * time.Second
	// DefaultRequestTimeout bounds a removal request.
	DefaultRequestTimeout = 60 * time.Second

	maxResponseBytes = 64 << 20
)

// Options tunes a single removal request.
type Options struct {
	Target    *TargetColor
	Mode      Mode
	Tolerance float64
	Feather   float64
}

// Client calls a relay over HTTP.
type Client struct {
	http           *http.Client
	logger         *slog.Logger
	baseURL        string
	healthTimeout  time.Duration
	requestTimeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeouts overrides the health and request timeouts. Zero keeps the default.
func WithTimeouts(health, request time.Duration) ClientOption {
	return func(c *Client) {
		if health > 0 {
			c.healthTimeout = health
		}
		if request > 0 {
			c.requestTimeout = request
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the relay at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           http.DefaultClient,
		healthTimeout:  DefaultHealthTimeout,
		requestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// BaseURL returns the relay root.
func (c *Client) BaseURL() string { return c.baseURL }

// Health checks the relay. Any failure is reported as ErrUnavailable or
// ErrTimeout.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()
	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)); err != nil {
		c.log().DebugContext(ctx, "Failed to drain health response", "error", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Remove asks the relay for a full-resolution cut-out and returns PNG bytes.
func (c *Client) Remove(ctx context.Context, img []byte, opts Options) ([]byte, error) {
	return c.call(ctx, RemovePath, img, opts)
}

// Preview asks the relay for a downscaled cut-out and returns PNG bytes.
func (c *Client) Preview(ctx context.Context, img []byte, opts Options) ([]byte, error) {
	return c.call(ctx, PreviewPath, img, opts)
}

func (c *Client) call(ctx context.Context, path string, img []byte, opts Options) ([]byte, error) {
	if err := c.Health(ctx); err != nil {
		return nil, err
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeAuto
	}
	body, err := json.Marshal(Request{
		Image:       raster.DataURL(img, sniffMIME(img)),
		Mode:        mode,
		Tolerance:   opts.Tolerance,
		Feather:     opts.Feather,
		TargetColor: opts.Target,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode relay request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: status %d: unreadable response: %v", ErrUnavailable, resp.StatusCode, err)
	}

	c.log().Debug("relay call", "path", path, "status", resp.StatusCode, "mode", mode, "duration", time.Since(start))

	// Every non-success answer is a relay failure; callers degrade to the
	// local heuristic.
	if resp.StatusCode != http.StatusOK || !out.Success {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, out.message())
	}

	data, err := raster.ParseDataURL(out.Result)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid result: %v", ErrUnavailable, err)
	}
	return data, nil
}

func (r Response) message() string {
	switch {
	case r.Message != "" && r.Error != "":
		return r.Error + ": " + r.Message
	case r.Error != "":
		return r.Error
	case r.Message != "":
		return r.Message
	default:
		return "API request failed"
	}
}

func sniffMIME(data []byte) string {
	mime := http.DetectContentType(data)
	if strings.HasPrefix(mime, "image/") {
		return mime
	}
	return "image/png"
}

// classify maps transport errors onto the relay error kinds.
func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
