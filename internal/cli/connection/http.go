package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/yndnr/minisocial-go/internal/core/domain"
	"github.com/yndnr/minisocial-go/internal/telemetry/logger"
	"github.com/yndnr/minisocial-go/internal/telemetry/metric"
)

// DefaultUserAgent identifies the client to the API.
const DefaultUserAgent = "minisocial-cli/1.0"

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// ErrBodyTooLarge is returned with the response when its body exceeds
// maxBodySize.
var ErrBodyTooLarge = errors.New("response body too large")

// Options tunes an HTTPClient.
type Options struct {
	// Timeout bounds a whole round trip. Default: 30s.
	Timeout time.Duration
	// UserAgent overrides DefaultUserAgent.
	UserAgent string
	// RateLimit is the sustained requests per second; 0 disables limiting.
	RateLimit float64
	// Burst is the limiter bucket size. Default: 1.
	Burst int
	// TLS is used for https servers when set.
	TLS *tls.Config
	// Transport replaces the default transport (tests).
	Transport http.RoundTripper

	Logger  logger.Logger
	Metrics *metric.Registry
}

// Request describes one API call. At most one of JSON and Form is set.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// JSON is marshalled as the request body.
	JSON any
	// Form is sent URL-encoded.
	Form url.Values
	// Token, when set, is attached as the Authorization header.
	Token *oauth2.Token
	// NoCache asks intermediaries for a fresh response.
	NoCache bool
}

// Response is a fully read HTTP response.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte
	RequestID  string
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Info returns the descriptor the error classifier consumes.
func (r *Response) Info() domain.ResponseInfo {
	return domain.ResponseInfo{
		Status:     r.Status,
		OK:         r.OK(),
		StatusText: r.StatusText,
		Body:       r.Body,
	}
}

// Decode unmarshals the JSON body into target.
func (r *Response) Decode(target any) error {
	if target == nil {
		return nil
	}
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return errors.New("empty response body")
	}
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// TransportError reports a request that never produced a response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// HTTPClient provides HTTP communication with the API.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	log       logger.Logger
	metrics   *metric.Registry
}

// NewHTTPClient creates a client for server. A missing scheme defaults to
// http.
func NewHTTPClient(server string, opts Options) *HTTPClient {
	baseURL := NormalizeServer(server)

	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}

	transport := opts.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if opts.TLS != nil {
			t.TLSClientConfig = opts.TLS
		}
		transport = t
	}

	c := &HTTPClient{
		baseURL:   baseURL,
		userAgent: opts.UserAgent,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
	}

	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return c
}

// NormalizeServer adds a default scheme and strips trailing slashes.
func NormalizeServer(server string) string {
	baseURL := strings.TrimSpace(server)
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Do performs one round trip. A non-2xx status is not an error here; a
// *TransportError is returned when no response was received. A body over
// the size limit is dropped and reported as ErrBodyTooLarge alongside the
// response, so the caller still sees the status.
func (c *HTTPClient) Do(ctx context.Context, r Request) (*Response, error) {
	target := c.url(r.Path, r.Query)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: r.Method, URL: target, Err: err}
		}
	}

	body, contentType, err := encodeBody(r)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := ulid.Make().String()
	c.addHeaders(req, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.NoCache {
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")
	}
	if r.Token != nil {
		r.Token.SetAuthHeader(req)
	}

	log := c.log.WithContext(logger.WithRequestID(ctx, requestID)).With("method", r.Method, "path", r.Path)
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.ObserveTransportError(r.Method)
		log.Debug("request failed", "error", err)
		return nil, &TransportError{Method: r.Method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		c.metrics.ObserveTransportError(r.Method)
		return nil, &TransportError{Method: r.Method, URL: target, Err: fmt.Errorf("read body: %w", err)}
	}

	elapsed := time.Since(start)
	c.metrics.ObserveRequest(r.Method, resp.StatusCode, elapsed)
	log.Debug("request completed", "status", resp.StatusCode, "duration", elapsed)

	out := &Response{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Header:     resp.Header,
		Body:       data,
		RequestID:  requestID,
	}
	if len(data) > maxBodySize {
		log.Warn("response body too large", "status", resp.StatusCode, "limit", maxBodySize)
		out.Body = nil
		return out, fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, maxBodySize)
	}
	return out, nil
}

func (c *HTTPClient) url(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *HTTPClient) addHeaders(req *http.Request, requestID string) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
}

func encodeBody(r Request) (io.Reader, string, error) {
	switch {
	case r.JSON != nil && r.Form != nil:
		return nil, "", errors.New("request has both JSON and form bodies")
	case r.Form != nil:
		return strings.NewReader(r.Form.Encode()), "application/x-www-form-urlencoded", nil
	case r.JSON != nil:
		data, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	default:
		return nil, "", nil
	}
}

// statusText returns the reason phrase the server sent, falling back to
// the standard text for the code.
func statusText(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}
