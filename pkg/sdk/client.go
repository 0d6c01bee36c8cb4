package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
)

const (
	// DefaultAPIPrefix is the versioned path prefix of every endpoint.
	DefaultAPIPrefix = "/api/v1"
	// DefaultTimeout bounds a regular request.
	DefaultTimeout = 15 * time.Second
	// UploadTimeout bounds an image classification upload.
	UploadTimeout = 70 * time.Second

	maxResponseBytes = 8 << 20
)

// Client provides a high-level interface to the clinic REST API.
// The current credential is read from the TokenStore on every request.
type Client struct {
	baseURL       string
	prefix        string
	httpClient    *http.Client
	tokens        TokenStore
	timeout       time.Duration
	uploadTimeout time.Duration
}

// ClientOptions configures SDK client construction.
type ClientOptions struct {
	HTTPClient    *http.Client
	TokenStore    TokenStore
	APIPrefix     string
	Timeout       time.Duration
	UploadTimeout time.Duration
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithTokenStore sets the store the bearer credential is read from.
func WithTokenStore(store TokenStore) ClientOption {
	return func(opts *ClientOptions) {
		opts.TokenStore = store
	}
}

// WithAPIPrefix overrides DefaultAPIPrefix.
func WithAPIPrefix(prefix string) ClientOption {
	return func(opts *ClientOptions) {
		opts.APIPrefix = prefix
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.Timeout = d
	}
}

// WithUploadTimeout overrides UploadTimeout.
func WithUploadTimeout(d time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.UploadTimeout = d
	}
}

// NewClient creates a client for the API server at baseURL. Without a
// TokenStore option the client uses an empty MemoryStore.
func NewClient(baseURL string, optFns ...ClientOption) *Client {
	opts := ClientOptions{
		APIPrefix:     DefaultAPIPrefix,
		Timeout:       DefaultTimeout,
		UploadTimeout: UploadTimeout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.TokenStore == nil {
		opts.TokenStore = NewMemoryStore("")
	}

	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		prefix:        "/" + strings.Trim(opts.APIPrefix, "/"),
		httpClient:    opts.HTTPClient,
		tokens:        opts.TokenStore,
		timeout:       opts.Timeout,
		uploadTimeout: opts.UploadTimeout,
	}
}

// TokenStore returns the store the client reads credentials from.
func (c *Client) TokenStore() TokenStore {
	return c.tokens
}

// BaseURL returns the server URL the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method string
	// route is the templated path used for span names, e.g. /patients/{id}
	route string
	path  string
	query url.Values

	body        any
	rawBody     io.Reader
	contentType string

	// public requests are sent without requiring a credential
	public  bool
	timeout time.Duration
}

func (c *Client) do(ctx context.Context, req request, out any) (err error) {
	route := req.route
	if route == "" {
		route = req.path
	}
	ctx, span := startSpan(ctx, "HTTP "+req.method+" "+route,
		attribute.String(attrHTTPMethod, req.method),
		attribute.String(attrHTTPRoute, route),
	)
	defer func() {
		recordError(span, err)
		span.End()
	}()

	token, err := c.tokens.Get()
	if err != nil {
		if !req.public {
			return fmt.Errorf("%s %s: %w", req.method, req.path, ErrUnauthorized)
		}
		token = ""
	}

	timeout := req.timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	endpoint := c.baseURL + c.prefix + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	body := req.rawBody
	contentType := req.contentType
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", req.method, req.path, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", req.method, req.path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		(&oauth2.Token{AccessToken: string(token), TokenType: "Bearer"}).SetAuthHeader(httpReq)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", req.method, req.path, err)
	}
	span.SetAttributes(attribute.Int(attrHTTPStatus, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, respBody),
			Method:     req.method,
			Path:       req.path,
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}
