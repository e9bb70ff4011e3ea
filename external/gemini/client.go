package gemini

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/creator-league/internal/platform/logging"
	"github.com/riskibarqy/creator-league/internal/platform/resilience"
	"github.com/riskibarqy/creator-league/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-flash"
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 1 << 20
)

var errGeminiTransient = crerr.New("gemini transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Model          string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client asks a Gemini model for short critiques of contest entries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	breaker := resilience.NewNamedCircuitBreaker("gemini", cfg.CircuitBreaker)
	breaker.OnStateChange(func(name string, from, to resilience.CircuitState) {
		logger.Warn("circuit breaker state changed", "breaker", name, "from", string(from), "to", string(to))
	})

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      model,
		logger:     logger,
		breaker:    breaker,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

// Feedback returns the model's critique. An empty string means the model
// answered without text.
func (c *Client) Feedback(ctx context.Context, req usecase.CoachRequest) (string, error) {
	if c.apiKey == "" {
		return "", usecase.ErrCoachNotConfigured
	}

	prompt := buildPrompt(req)
	body, err := sonic.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", crerr.Wrap(err, "marshal gemini request")
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("gemini.model", c.model),
			attribute.Int("gemini.prompt_bytes", len(prompt)),
		)
	}

	var raw []byte
	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		var callErr error
		raw, callErr = c.post(ctx, endpoint, body)
		return callErr
	}, isGeminiCircuitFailure)
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "gemini circuit breaker rejected request", "state", string(c.breaker.State()))
		return "", fmt.Errorf("%w: coach is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}
	if err != nil {
		return "", err
	}

	var decoded generateResponse
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		return "", crerr.Wrap(err, "decode gemini response")
	}
	return decoded.text(), nil
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, crerr.Wrap(err, "create gemini request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %s", errGeminiTransient, redact(err.Error(), c.apiKey))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errGeminiTransient, err)
	}
	if resp.StatusCode/100 != 2 {
		callErr := fmt.Errorf("gemini status=%d body=%s", resp.StatusCode, truncateForLog(strings.TrimSpace(string(raw)), 512))
		if isRetryableStatus(resp.StatusCode) {
			callErr = fmt.Errorf("%w: %v", errGeminiTransient, callErr)
		}
		c.logger.WarnContext(ctx, "gemini request failed", "status", resp.StatusCode, "model", c.model)
		return nil, callErr
	}
	return raw, nil
}

func (r generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var out strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		out.WriteString(p.Text)
	}
	return strings.TrimSpace(out.String())
}

func isGeminiCircuitFailure(err error) bool {
	return err != nil && stderrors.Is(err, errGeminiTransient)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func redact(value, secret string) string {
	if secret == "" {
		return value
	}
	return strings.ReplaceAll(value, secret, "REDACTED")
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}
