package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Service is the remote library contract the rest of readshelf depends on.
// It is implemented by *Client and can be faked in tests.
type Service interface {
	FetchLibrary(ctx context.Context) ([]UserBook, error)
	FetchBook(ctx context.Context, id int64) (Book, error)
	AddBook(ctx context.Context, req AddRequest) (UserBook, error)
	UpdateRecord(ctx context.Context, id RecordID, patch RecordPatch) (*UserBook, error)
	FetchRecommendations(ctx context.Context) ([]Book, error)
}

// Ensure Client implements Service at compile time.
var _ Service = (*Client)(nil)

// Session carries the caller's credentials. It is handed to NewClient
// explicitly; the client never reads tokens from the environment itself.
type Session struct {
	Token string
}

// Authorized reports whether the session carries a token.
func (s Session) Authorized() bool {
	return strings.TrimSpace(s.Token) != ""
}

// Options tune a Client.
type Options struct {
	Timeout           time.Duration // zero uses requestTimeout
	RequestsPerSecond float64       // zero or negative disables limiting
	HTTPClient        *http.Client  // optional; Timeout is ignored when set
}

// Client talks to the reading service HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	session   Session
	limiter   *rate.Limiter
	userAgent string
}

const (
	defaultBaseURL   = "http://127.0.0.1:8080"
	defaultUserAgent = "readshelf/0.1"
	requestTimeout   = 10 * time.Second
)

// APIError is returned for any response with status >= 400.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// NewClient builds a Client for the service at baseURL using session for
// authorization.
func NewClient(baseURL string, session Session, opts Options) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = requestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &Client{
		baseURL:   base,
		http:      httpClient,
		session:   session,
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: defaultUserAgent,
	}, nil
}

// FetchLibrary retrieves the user's library entries without book details.
func (c *Client) FetchLibrary(ctx context.Context) ([]UserBook, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload UserBookListResponse
	if _, err := c.do(ctx, http.MethodGet, "/api/user-books", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// FetchBook retrieves the details of a single canonical book.
func (c *Client) FetchBook(ctx context.Context, id int64) (Book, error) {
	if c == nil {
		return Book{}, fmt.Errorf("client is nil")
	}
	if id <= 0 {
		return Book{}, fmt.Errorf("book id required")
	}
	var payload Book
	path := "/api/books/" + strconv.FormatInt(id, 10)
	if _, err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return Book{}, err
	}
	return payload, nil
}

// AddBook creates a library entry and returns it with its assigned id.
func (c *Client) AddBook(ctx context.Context, req AddRequest) (UserBook, error) {
	if c == nil {
		return UserBook{}, fmt.Errorf("client is nil")
	}
	var payload UserBook
	if _, err := c.do(ctx, http.MethodPost, "/api/user-books", req, &payload); err != nil {
		return UserBook{}, err
	}
	if payload.ID == "" {
		return UserBook{}, fmt.Errorf("add book: response missing record id")
	}
	return payload, nil
}

// UpdateRecord sends a partial update. It returns nil when the service
// answers with an empty success.
func (c *Client) UpdateRecord(ctx context.Context, id RecordID, patch RecordPatch) (*UserBook, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(string(id)) == "" {
		return nil, fmt.Errorf("record id required")
	}
	var payload UserBook
	path := "/api/user-books/" + string(id)
	decoded, err := c.do(ctx, http.MethodPut, path, patch, &payload)
	if err != nil {
		return nil, err
	}
	if !decoded {
		return nil, nil
	}
	return &payload, nil
}

// FetchRecommendations retrieves the current recommendation list.
func (c *Client) FetchRecommendations(ctx context.Context) ([]Book, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload RecommendationListResponse
	if _, err := c.do(ctx, http.MethodGet, "/api/recommendations", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// do issues the request and decodes the response into dest. It reports
// whether a body was decoded, which is false for empty successes.
func (c *Client) do(ctx context.Context, method, path string, body, dest any) (bool, error) {
	rel := &url.URL{Path: path}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.Authorized() {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.session.Token))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return false, decodeAPIError(method, rel.Path, resp)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return false, nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

func decodeAPIError(method, path string, resp *http.Response) error {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&errResp)
	msg := strings.TrimSpace(errResp.Error)
	if msg == "" {
		msg = strings.TrimSpace(errResp.Message)
	}
	return &APIError{
		Method:  method,
		Path:    path,
		Status:  resp.StatusCode,
		Message: msg,
		Code:    strings.TrimSpace(errResp.Code),
	}
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
