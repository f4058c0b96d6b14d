package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/verifydesk/cli/internal/models"
	"github.com/verifydesk/cli/internal/utils"
)

// RequestIDHeader correlates every request of one candidate submission
const RequestIDHeader = "X-Request-ID"

// TokenSource supplies the auth token. It is consulted once per request so a
// login or logout in between takes effect immediately.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed token
type StaticToken string

// Token returns the token
func (t StaticToken) Token() string { return string(t) }

// Client represents the API client
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTokenSource sets where the auth token is read from
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTPClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new API client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: StaticToken(""),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login authenticates the user and returns the issued token
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp models.LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/login/", models.LoginRequest{
		Username: username,
		Password: password,
	}, &resp, false)
	if err != nil {
		return "", err
	}
	if resp.Key == "" {
		msg := resp.Detail
		if msg == "" {
			msg = "no token in login response"
		}
		return "", utils.NewAPIError(http.StatusUnauthorized, msg, "no_token")
	}
	return resp.Key, nil
}

// SetPassword creates the first password of a registered organization user
func (c *Client) SetPassword(ctx context.Context, username, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/password/", models.PasswordRequest{
		Username: username,
		Password: password,
	}, nil, false)
}

// CreateApplicant creates the candidate record and returns its identifier
func (c *Client) CreateApplicant(ctx context.Context, info models.BasicInfo) (string, error) {
	var applicant models.Applicant
	if err := c.doJSON(ctx, http.MethodPost, "/applicants/", info, &applicant, true); err != nil {
		return "", fmt.Errorf("failed to create applicant: %w", err)
	}
	if applicant.ID == "" {
		return "", fmt.Errorf("failed to create applicant: response carried no id")
	}
	return string(applicant.ID), nil
}

// UploadVerification posts one verification record as multipart form data
// to /applicants/{id}/{kind}/
func (c *Client) UploadVerification(ctx context.Context, applicantID, kind string, fields []models.FormField, doc models.Attachment) error {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	if doc != nil {
		if err := writeDocument(mw, doc); err != nil {
			return fmt.Errorf("failed to attach document: %w", err)
		}
	}
	for _, f := range fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}

	path := "/applicants/" + url.PathEscape(applicantID) + "/" + url.PathEscape(kind) + "/"
	req, err := c.newRequest(ctx, http.MethodPost, path, body, true)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if _, err := c.do(req); err != nil {
		return fmt.Errorf("failed to upload %s verification: %w", kind, err)
	}
	return nil
}

func writeDocument(mw *multipart.Writer, doc models.Attachment) error {
	rc, err := doc.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	part, err := mw.CreateFormFile("document", doc.Name())
	if err != nil {
		return err
	}
	_, err = io.Copy(part, rc)
	return err
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}, authenticated bool) error {
	jsonData, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, method, path, bytes.NewReader(jsonData), authenticated)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, authenticated bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if id, ok := RequestIDFromContext(ctx); ok {
		req.Header.Set(RequestIDHeader, id)
	}
	if authenticated {
		c.setAuthHeaders(req)
	}
	return req, nil
}

// do executes the request and maps non-2xx responses to *utils.APIError
func (c *Client) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("api request",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var detail models.ErrorDetail
		_ = json.Unmarshal(body, &detail)
		return nil, utils.NewAPIError(resp.StatusCode, detail.Message(), http.StatusText(resp.StatusCode))
	}
	return body, nil
}

// setAuthHeaders attaches "Authorization: token <value>" when a token is known
func (c *Client) setAuthHeaders(req *http.Request) {
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "token "+token)
	}
}

type requestIDKey struct{}

// WithRequestID tags every request made with ctx with the given correlation id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the correlation id set by WithRequestID
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}
