package btp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTimeout    = 30 * time.Second
	sessionCookieName = "sessionid"
	csrfCookieName    = "csrftoken"
	csrfHeader        = "X-CSRFToken"
)

// Feature is the URL prefix of one backend page.
type Feature string

const (
	Chantiers Feature = "chantiers"
	Employees Feature = "team/employees"
	Teams     Feature = "team/teams"
	Fleet     Feature = "fleet"
	Pistes    Feature = "pistes"
	Planning  Feature = "planning"
)

func (f Feature) ListPath() string   { return "/" + string(f) + "/list/" }
func (f Feature) CreatePath() string { return "/" + string(f) + "/create/" }

// listKey is the feature specific array key the backend uses besides "items".
func (f Feature) listKey() string {
	switch f {
	case Employees:
		return "employees"
	case Teams:
		return "teams"
	case Fleet:
		return "commandes"
	case Planning:
		return "slots"
	default:
		return string(f)
	}
}

type Options struct {
	BaseURL    string
	SessionID  string
	CSRFToken  string
	Timeout    time.Duration
	MaxRetries int
	CacheTTL   time.Duration
	Logger     *slog.Logger
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	csrfToken  string
	maxRetries int
	cache      *ListCache
	logger     *slog.Logger
}

// statusError is a non-2xx answer; the body is kept for envelope decoding.
type statusError struct {
	status int
	body   []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.status, truncate(string(e.body), 200))
}

// DetailError is a non-2xx answer carrying a human readable detail.
type DetailError struct {
	Status int
	Detail string
}

func (e *DetailError) Error() string {
	return e.Detail
}

func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is empty — set server.base_url in config or MYBTP_BASE_URL env var")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	var cookies []*http.Cookie
	if opts.SessionID != "" {
		cookies = append(cookies, &http.Cookie{Name: sessionCookieName, Value: opts.SessionID, Path: "/"})
	}
	if opts.CSRFToken != "" {
		cookies = append(cookies, &http.Cookie{Name: csrfCookieName, Value: opts.CSRFToken, Path: "/"})
	}
	if len(cookies) > 0 {
		jar.SetCookies(base, cookies)
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		csrfToken:  opts.CSRFToken,
		maxRetries: max(opts.MaxRetries, 0),
		cache:      NewListCache(opts.CacheTTL),
		logger:     logger,
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body []byte, contentType string) ([]byte, error) {
	target := c.endpoint(path, query)
	requestID := uuid.NewString()
	logger := c.logger.With("request_id", requestID, "method", method, "path", path)

	newRequest := func() (*http.Request, error) {
		var reqBody io.Reader
		if body != nil {
			reqBody = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if method != http.MethodGet {
			token, err := c.CSRFToken(ctx)
			if err != nil {
				return nil, err
			}
			req.Header.Set(csrfHeader, token)
			req.Header.Set("Referer", c.endpoint("/", nil))
		}
		return req, nil
	}

	logger.Debug("btp API request")

	// Mutating requests are never replayed.
	retries := c.maxRetries
	if method != http.MethodGet {
		retries = 0
	}

	var resp *http.Response
	requestStart := time.Now()
	for attempt := 0; attempt <= retries; attempt++ {
		req, err := newRequest()
		if err != nil {
			return nil, err
		}
		resp, err = c.httpClient.Do(req)
		if err != nil {
			if attempt == retries {
				logger.Error("API request transport error", "error", err, "elapsed", time.Since(requestStart))
				return nil, fmt.Errorf("sending request: %w", err)
			}
			logger.Debug("API request transport error, retrying", "attempt", attempt+1, "error", err)
			time.Sleep(backoff(attempt))
			continue
		}

		if (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) && attempt < retries {
			resp.Body.Close()
			logger.Debug("API request retryable error", "status", resp.StatusCode, "attempt", attempt+1)
			time.Sleep(backoff(attempt))
			continue
		}
		break
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	logger.Debug("btp API response", "status", resp.StatusCode, "bytes", len(respBody), "elapsed", time.Since(requestStart))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error("API request failed", "status", resp.StatusCode, "response", truncate(string(respBody), 200))
		return nil, &statusError{status: resp.StatusCode, body: respBody}
	}

	return respBody, nil
}

func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	key := c.endpoint(path, query)
	if cached := c.cache.Get(key); cached != nil {
		return cached, nil
	}
	data, err := c.doRequest(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, data)
	return data, nil
}

// decodeList reads a {success, items[]} envelope. The feature specific key
// is accepted when "items" is absent.
func decodeList[T any](data []byte, key string) ([]T, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing list response: %w", err)
	}
	if err := checkSuccess(env); err != nil {
		return nil, err
	}

	raw, ok := env["items"]
	if !ok {
		raw = env[key]
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", key, err)
	}
	return items, nil
}

func checkSuccess(env map[string]json.RawMessage) error {
	raw, ok := env["success"]
	if !ok {
		return nil
	}
	var success bool
	if err := json.Unmarshal(raw, &success); err != nil {
		return fmt.Errorf("parsing success flag: %w", err)
	}
	if !success {
		var message string
		if m, ok := env["message"]; ok {
			_ = json.Unmarshal(m, &message)
		}
		if message != "" {
			return fmt.Errorf("%w: %s", ErrUnsuccessful, message)
		}
		return ErrUnsuccessful
	}
	return nil
}

func listFeature[T any](ctx context.Context, c *Client, f Feature) ([]T, error) {
	data, err := c.get(ctx, f.ListPath(), nil)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", f, err)
	}
	items, err := decodeList[T](data, f.listKey())
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", f, err)
	}
	return items, nil
}

func (c *Client) ListChantiers(ctx context.Context) ([]Chantier, error) {
	return listFeature[Chantier](ctx, c, Chantiers)
}

func (c *Client) ListEmployees(ctx context.Context) ([]Employee, error) {
	return listFeature[Employee](ctx, c, Employees)
}

func (c *Client) ListTeams(ctx context.Context) ([]Team, error) {
	return listFeature[Team](ctx, c, Teams)
}

func (c *Client) ListCommandes(ctx context.Context) ([]Commande, error) {
	return listFeature[Commande](ctx, c, Fleet)
}

func (c *Client) ListPistes(ctx context.Context) ([]Piste, error) {
	return listFeature[Piste](ctx, c, Pistes)
}

// Planning fetches slots, users and chantiers for the inclusive window.
func (c *Client) Planning(ctx context.Context, from, to Date) (*PlanningData, error) {
	query := url.Values{
		"date_from": {from.String()},
		"date_to":   {to.String()},
	}
	data, err := c.get(ctx, Planning.ListPath(), query)
	if err != nil {
		return nil, fmt.Errorf("loading planning: %w", err)
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing planning response: %w", err)
	}
	if err := checkSuccess(env); err != nil {
		return nil, fmt.Errorf("loading planning: %w", err)
	}

	var planning PlanningData
	if err := json.Unmarshal(data, &planning); err != nil {
		return nil, fmt.Errorf("parsing planning response: %w", err)
	}
	if items, ok := env["items"]; ok && planning.Slots == nil {
		if err := json.Unmarshal(items, &planning.Slots); err != nil {
			return nil, fmt.Errorf("parsing planning slots: %w", err)
		}
	}
	return &planning, nil
}

type createEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
	ID      int               `json:"id"`
}

// Create posts a form as multipart data. A rejected form comes back as a
// *ValidationError.
func (c *Client) Create(ctx context.Context, f Feature, values url.Values) (*CreateResult, error) {
	body, contentType, err := encodeMultipart(values)
	if err != nil {
		return nil, fmt.Errorf("encoding %s form: %w", f, err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, f.CreatePath(), nil, body, contentType)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.status >= 400 && se.status < 500 {
			var env createEnvelope
			if json.Unmarshal(se.body, &env) == nil && (env.Errors != nil || env.Error != "" || env.Message != "") {
				return nil, env.validationError()
			}
		}
		return nil, fmt.Errorf("creating %s: %w", f, err)
	}
	c.cache.Invalidate(c.endpoint("/"+string(f)+"/", nil))

	var env createEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing create response: %w", err)
	}
	if !env.Success {
		return nil, env.validationError()
	}
	return &CreateResult{Success: true, Message: env.Message, ID: env.ID}, nil
}

func (e createEnvelope) validationError() *ValidationError {
	fields := e.Errors
	if fields == nil {
		fields = map[string]string{}
	}
	if e.Error != "" && fields[nonFieldErrors] == "" {
		fields[nonFieldErrors] = e.Error
	}
	return &ValidationError{Message: e.Message, Fields: fields}
}

func encodeMultipart(values url.Values) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range values[k] {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
