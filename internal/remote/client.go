// Package remote is the HTTP client for the itinerary persistence service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"wayfarer/internal/model"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Title      string
	Detail     string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	} else if e.Title != "" {
		msg += ": " + e.Title
	}
	return msg
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Token   string
	Limiter *rate.Limiter
	Logger  *log.Logger
}

type Option func(*Client)

func WithToken(token string) Option { return func(c *Client) { c.Token = token } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTP = &http.Client{Timeout: d, Transport: c.HTTP.Transport}
		}
	}
}

// WithRateLimit throttles outgoing requests. rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.Limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(l *log.Logger) Option { return func(c *Client) { c.Logger = l } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// List returns the user's itineraries. The service answers with [] for a
// user that has none.
func (c *Client) List(ctx context.Context, userID int) ([]model.Itinerary, error) {
	q := url.Values{"userId": {strconv.Itoa(userID)}}
	var out []model.Itinerary
	if err := c.do(ctx, http.MethodGet, "/itineraries?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Itinerary{}
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id string) (model.Itinerary, error) {
	var out model.Itinerary
	err := c.do(ctx, http.MethodGet, "/itineraries/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) Create(ctx context.Context, in model.NewItinerary) (model.Itinerary, error) {
	var out model.Itinerary
	err := c.do(ctx, http.MethodPost, "/itineraries", in, &out)
	return out, err
}

func (c *Client) Update(ctx context.Context, it model.Itinerary) (model.Itinerary, error) {
	if it.ID == "" {
		return model.Itinerary{}, errors.New("remote: update requires an id")
	}
	var out model.Itinerary
	err := c.do(ctx, http.MethodPut, "/itineraries/"+url.PathEscape(it.ID), it, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/itineraries/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}
	}
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	c.logf("remote: %s %s %d %s", method, path, resp.StatusCode, time.Since(start))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(req, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("remote: decode %s %s: %w", method, path, err)
	}
	return nil
}

func statusError(req *http.Request, resp *http.Response) error {
	se := &StatusError{Method: req.Method, URL: req.URL.String(), StatusCode: resp.StatusCode}
	var p struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&p); err == nil {
		se.Title, se.Detail = p.Title, p.Detail
	}
	return se
}

func (c *Client) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}
