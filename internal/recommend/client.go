package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/genai"

	"shopsense/internal/models"
	"shopsense/internal/resilience"
	"shopsense/internal/telemetry"
)

// ErrMissingAPIKey means the generative service credential was not supplied.
var ErrMissingAPIKey = errors.New("generative service API key is not configured")

// ConfigError is returned when the client cannot be built at all. Callers
// should switch personalization off rather than retry.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "recommendation client config: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ContentGenerator is the slice of the genai SDK the client needs.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Config struct {
	APIKey          string
	Model           string
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// FailureKind classifies why a fetch produced no products.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureTransport
	FailureSchema
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureTransport:
		return "transport"
	case FailureSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of one request. Products is nil when Err is set.
type Result struct {
	Products []models.Product
	Kind     FailureKind
	Err      error
}

func (r Result) OK() bool {
	return r.Err == nil
}

type Client struct {
	gen     ContentGenerator
	model   string
	timeout time.Duration
	breaker *resilience.CircuitBreaker[string]
	schema  *jsonschema.Schema
}

// NewClient builds a client backed by the Gemini API.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &ConfigError{Err: ErrMissingAPIKey}
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	})
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("failed to create GenAI client: %w", err)}
	}

	return NewClientWithGenerator(gc.Models, cfg)
}

// NewClientWithGenerator builds a client around any ContentGenerator.
func NewClientWithGenerator(gen ContentGenerator, cfg Config) (*Client, error) {
	if gen == nil {
		return nil, &ConfigError{Err: errors.New("content generator is nil")}
	}

	schema, err := compileProductListSchema()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 3
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	return &Client{
		gen:     gen,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		breaker: resilience.NewCircuitBreaker[string]("genai", cfg.BreakerFailures, cfg.BreakerTimeout),
		schema:  schema,
	}, nil
}

// Recommend always returns a slice. Failures are logged and come back as
// an empty list.
func (c *Client) Recommend(ctx context.Context, bundle models.ActivityBundle) []models.Product {
	res := c.Fetch(ctx, bundle)
	if !res.OK() {
		slog.Error("Recommendation fetch failed", "kind", res.Kind.String(), "error", res.Err)
		return []models.Product{}
	}
	return res.Products
}

// Fetch issues exactly one request to the generative service.
func (c *Client) Fetch(ctx context.Context, bundle models.ActivityBundle) Result {
	prompt, err := buildPrompt(bundle)
	if err != nil {
		return failed(FailureTransport, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.breaker.Execute(func() (string, error) {
		resp, err := c.gen.GenerateContent(callCtx, c.model, genai.Text(prompt), generateConfig())
		if err != nil {
			// The caller leaving says nothing about the service's health.
			if ctx.Err() != nil {
				return "", errors.Join(resilience.ErrAbandoned, err)
			}
			return "", err
		}
		if resp == nil {
			return "", nil
		}
		return resp.Text(), nil
	})
	telemetry.GenAIRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		switch {
		case errors.Is(err, resilience.ErrRejected):
			telemetry.GenAIRequestsTotal.WithLabelValues("rejected").Inc()
		case errors.Is(err, resilience.ErrAbandoned):
			telemetry.GenAIRequestsTotal.WithLabelValues("abandoned").Inc()
		default:
			telemetry.GenAIRequestsTotal.WithLabelValues(FailureTransport.String()).Inc()
		}
		return failed(FailureTransport, describeTransportError(err))
	}

	products, err := c.parse(text)
	if err != nil {
		telemetry.GenAIRequestsTotal.WithLabelValues(FailureSchema.String()).Inc()
		return failed(FailureSchema, err)
	}

	telemetry.GenAIRequestsTotal.WithLabelValues("ok").Inc()
	telemetry.GenAIProductsReturned.Observe(float64(len(products)))
	return Result{Products: products}
}

func (c *Client) parse(text string) ([]models.Product, error) {
	if strings.TrimSpace(text) == "" {
		return []models.Product{}, nil
	}

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	if err := c.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("response violates product schema: %w", err)
	}

	products := []models.Product{}
	if err := json.Unmarshal([]byte(text), &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// generateConfig is rebuilt per call because the SDK fills defaults in place.
func generateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(catalogContext, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    productListSchema(),
	}
}

// describeTransportError flattens genai.APIError into a plain error so no
// SDK type escapes the package.
func describeTransportError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("generative service returned %d: %s", apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("generative service call failed: %w", err)
}

func failed(kind FailureKind, err error) Result {
	return Result{Kind: kind, Err: err}
}
