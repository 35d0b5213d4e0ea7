// Package api implements workflow.Service over the workflow service's REST
// API under /admin/workflow.
package api

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

	"github.com/Iron-Ham/coursegen/internal/errors"
	"github.com/Iron-Ham/coursegen/internal/logging"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

// BasePath is the path prefix of every workflow endpoint.
const BasePath = "/admin/workflow"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Client is a workflow.Service backed by HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logging.Logger
}

var _ workflow.Service = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the service at baseURL (scheme and host, plus any
// prefix the service is mounted under).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartSession implements workflow.Service.
func (c *Client) StartSession(ctx context.Context, req workflow.StartRequest) (*workflow.Session, error) {
	var out workflow.Session
	if err := c.do(ctx, http.MethodPost, "/start", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession implements workflow.Service.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*workflow.Session, error) {
	var out workflow.Session
	if err := c.do(ctx, http.MethodGet, sessionPath(sessionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetSuggestionStatus implements workflow.Service.
func (c *Client) SetSuggestionStatus(ctx context.Context, sessionID, suggestionID string, status workflow.SuggestionStatus) error {
	body := map[string]workflow.SuggestionStatus{"status": status}
	return c.do(ctx, http.MethodPut, sessionPath(sessionID, "suggestions", suggestionID), body, nil)
}

// AddCustomTopic implements workflow.Service.
func (c *Client) AddCustomTopic(ctx context.Context, sessionID string, topic workflow.CustomTopic) (*workflow.TopicSuggestion, error) {
	var out workflow.TopicSuggestion
	if err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "suggestions"), topic, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateMoreSuggestions implements workflow.Service.
func (c *Client) GenerateMoreSuggestions(ctx context.Context, sessionID string) (*workflow.Session, error) {
	var out workflow.Session
	if err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "generate-more"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Advance implements workflow.Service.
func (c *Client) Advance(ctx context.Context, sessionID string, target workflow.Target) (*workflow.Session, error) {
	if !target.Valid() {
		return nil, errors.NewValidationError("unknown advance target").WithField("target").WithValue(target)
	}
	var out workflow.Session
	if err := c.do(ctx, http.MethodPost, sessionPath(sessionID, string(target)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRefinedTopic implements workflow.Service.
func (c *Client) UpdateRefinedTopic(ctx context.Context, sessionID, topicID string, update workflow.TopicUpdate) (*workflow.RefinedTopic, error) {
	var out workflow.RefinedTopic
	if err := c.do(ctx, http.MethodPut, sessionPath(sessionID, "topics", topicID), update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegenerateRefinedTopic implements workflow.Service.
func (c *Client) RegenerateRefinedTopic(ctx context.Context, sessionID, topicID string) (*workflow.RefinedTopic, error) {
	var out workflow.RefinedTopic
	if err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "topics", topicID, "regenerate"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReorderRefinedTopics implements workflow.Service.
func (c *Client) ReorderRefinedTopics(ctx context.Context, sessionID string, orders []workflow.TopicOrder) (*workflow.Session, error) {
	body := struct {
		TopicOrders []workflow.TopicOrder `json:"topicOrders"`
	}{orders}
	var out workflow.Session
	if err := c.do(ctx, http.MethodPut, sessionPath(sessionID, "topics", "reorder"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetLessonOutputType implements workflow.Service.
func (c *Client) SetLessonOutputType(ctx context.Context, sessionID, lessonID string, outputType workflow.OutputType) (*workflow.Session, error) {
	body := map[string]workflow.OutputType{"outputType": outputType}
	var out workflow.Session
	if err := c.do(ctx, http.MethodPut, sessionPath(sessionID, "lessons", lessonID, "output-type"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateLessonScript implements workflow.Service.
func (c *Client) UpdateLessonScript(ctx context.Context, sessionID, lessonID string, update workflow.ScriptUpdate) (*workflow.LessonScript, error) {
	var out workflow.LessonScript
	if err := c.do(ctx, http.MethodPut, sessionPath(sessionID, "lessons", lessonID), update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegenerateLessonScript implements workflow.Service.
func (c *Client) RegenerateLessonScript(ctx context.Context, sessionID, lessonID string) (*workflow.LessonScript, error) {
	var out workflow.LessonScript
	if err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "lessons", lessonID, "regenerate"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GeneratePresentation implements workflow.Service.
func (c *Client) GeneratePresentation(ctx context.Context, sessionID, lessonID string) (*workflow.LessonPresentation, error) {
	return c.presentation(ctx, http.MethodPost, sessionPath(sessionID, "lessons", lessonID, "presentation"))
}

// GetPresentation implements workflow.Service.
func (c *Client) GetPresentation(ctx context.Context, sessionID, lessonID string) (*workflow.LessonPresentation, error) {
	return c.presentation(ctx, http.MethodGet, sessionPath(sessionID, "lessons", lessonID, "presentation"))
}

// RegenerateAudio implements workflow.Service.
func (c *Client) RegenerateAudio(ctx context.Context, sessionID, lessonID string) (*workflow.LessonPresentation, error) {
	return c.presentation(ctx, http.MethodPost, sessionPath(sessionID, "lessons", lessonID, "regenerate-audio"))
}

func (c *Client) presentation(ctx context.Context, method, path string) (*workflow.LessonPresentation, error) {
	var out workflow.LessonPresentation
	if err := c.do(ctx, method, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PreviewQuestions implements workflow.Service.
func (c *Client) PreviewQuestions(ctx context.Context, sessionID string) ([]workflow.Question, error) {
	var out struct {
		Questions []workflow.Question `json:"questions"`
	}
	if err := c.do(ctx, http.MethodGet, sessionPath(sessionID, "questions", "preview"), nil, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

func sessionPath(sessionID string, segments ...string) string {
	var b strings.Builder
	b.WriteString("/")
	b.WriteString(url.PathEscape(sessionID))
	for _, s := range segments {
		b.WriteString("/")
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// errorBody is the service's error payload.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	fullPath := BasePath + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+fullPath, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.NewTransportError(err).WithRequest(method, fullPath)
	}
	defer resp.Body.Close()

	c.logger.Debug("workflow request",
		"method", method,
		"path", fullPath,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp).WithRequest(method, fullPath)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", errors.ErrInvalidResponse, method, fullPath, err)
	}
	return nil
}

func decodeError(resp *http.Response) *errors.APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var eb errorBody
	msg := ""
	if json.Unmarshal(data, &eb) == nil {
		msg = eb.Error
		if msg == "" {
			msg = eb.Message
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	if msg == "" || strings.HasPrefix(msg, "<") {
		msg = http.StatusText(resp.StatusCode)
	}
	return errors.NewAPIError(resp.StatusCode, msg)
}
