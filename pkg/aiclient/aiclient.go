// Package aiclient talks to the external generative service that
// renders a floor-plan image and then describes its structure as JSON.
// The two calls are inherently sequential: the vision analysis needs
// the generated image. Transient failures retry with exponential
// backoff honoring server-provided Retry-After hints; permanent
// failures (bad key, quota, bad request) fail immediately.
package aiclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Error taxonomy. Permanent errors are never retried.
var (
	ErrInvalidAPIKey = errors.New("aiclient: invalid API key")
	ErrQuotaExceeded = errors.New("aiclient: quota exceeded")
	ErrBadRequest    = errors.New("aiclient: bad request")
	ErrRateLimited   = errors.New("aiclient: rate limited")
	ErrUnavailable   = errors.New("aiclient: service unavailable")
)

// Retry policy.
const (
	maxAttempts     = 4
	initialInterval = 1 * time.Second
	maxSingleWait   = 30 * time.Second
)

// Client is a generative-service client. It is safe for concurrent
// use; retry state lives in the individual call. The zero value is not
// usable; construct with New.
type Client struct {
	cfg  Config
	http *http.Client
}

// New returns a client for the configured service.
func New(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// GenerateImage asks the service to render a floor-plan image for the
// prompt and returns the raw image bytes.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{
		"model":  c.cfg.ImageModel,
		"prompt": prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("aiclient: encode image request: %w", err)
	}

	var out struct {
		Image string `json:"image"` // base64
	}
	if err := c.call(ctx, "/v1/images", body, &out); err != nil {
		return nil, err
	}
	img, err := base64.StdEncoding.DecodeString(out.Image)
	if err != nil {
		return nil, fmt.Errorf("aiclient: decode image payload: %w", err)
	}
	return img, nil
}

// DescribeLayout sends a rendered plan image for structural vision
// analysis and returns the raw JSON layout description, to be parsed
// by the importer. The hint carries the requested room program so the
// model labels rooms consistently with the request.
func (c *Client) DescribeLayout(ctx context.Context, image []byte, hint string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{
		"model": c.cfg.VisionModel,
		"image": base64.StdEncoding.EncodeToString(image),
		"hint":  hint,
	})
	if err != nil {
		return nil, fmt.Errorf("aiclient: encode vision request: %w", err)
	}

	var out struct {
		Layout json.RawMessage `json:"layout"`
	}
	if err := c.call(ctx, "/v1/vision", body, &out); err != nil {
		return nil, err
	}
	return out.Layout, nil
}

// GenerateLayout runs the full chain for a room program: feasibility
// check, image generation, then structural analysis. The returned
// bytes are the raw layout JSON.
func (c *Client) GenerateLayout(ctx context.Context, prompt string, program []RoomSpec, siteArea float64) ([]byte, error) {
	if err := ValidateProgram(program, siteArea); err != nil {
		return nil, err
	}
	img, err := c.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("aiclient: image generation: %w", err)
	}
	layout, err := c.DescribeLayout(ctx, img, programHint(program))
	if err != nil {
		return nil, fmt.Errorf("aiclient: layout analysis: %w", err)
	}
	return layout, nil
}

// call POSTs a JSON body and decodes the response, retrying transient
// failures with exponential backoff. The Retry-After hint lives in the
// call's own backoff state, so concurrent calls on one client cannot
// clobber each other's waits.
func (c *Client) call(ctx context.Context, path string, body []byte, out any) error {
	hinted := newHintedBackOff()
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		if err := classify(resp, hinted); err != nil {
			return err
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return backoff.Permanent(fmt.Errorf("aiclient: malformed response: %w", err))
		}
		return nil
	}

	var b backoff.BackOff = backoff.WithMaxRetries(hinted, maxAttempts-1)
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}

// classify maps an HTTP status to the error taxonomy. Permanent errors
// are wrapped so the retry loop stops immediately; transient ones
// record any Retry-After hint for the next wait.
func classify(resp *http.Response, hinted *hintedBackOff) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return backoff.Permanent(ErrInvalidAPIKey)
	case resp.StatusCode == http.StatusPaymentRequired:
		return backoff.Permanent(ErrQuotaExceeded)
	case resp.StatusCode == http.StatusTooManyRequests:
		hinted.note(parseRetryAfter(resp.Header.Get("Retry-After")))
		return ErrRateLimited
	case resp.StatusCode >= 500:
		hinted.note(parseRetryAfter(resp.Header.Get("Retry-After")))
		return ErrUnavailable
	default:
		return backoff.Permanent(fmt.Errorf("%w: status %d", ErrBadRequest, resp.StatusCode))
	}
}

// hintedBackOff is the per-call retry schedule: exponential from 1 s,
// with a server-provided Retry-After hint substituted for the computed
// wait when one was recorded, still honoring the maximum single-wait
// ceiling.
type hintedBackOff struct {
	base backoff.BackOff
	hint time.Duration
}

func newHintedBackOff() *hintedBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = initialInterval
	exp.Multiplier = 2
	exp.MaxInterval = maxSingleWait
	return &hintedBackOff{base: exp}
}

// note records the server's Retry-After hint for the next wait.
func (h *hintedBackOff) note(d time.Duration) {
	h.hint = d
}

func (h *hintedBackOff) NextBackOff() time.Duration {
	next := h.base.NextBackOff()
	if h.hint > 0 {
		d := h.hint
		h.hint = 0
		if d > maxSingleWait {
			d = maxSingleWait
		}
		return d
	}
	return next
}

func (h *hintedBackOff) Reset() {
	h.hint = 0
	h.base.Reset()
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
