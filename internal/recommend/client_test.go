package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"shopsense/internal/models"
	"shopsense/internal/resilience"
)

type fakeGenerator struct {
	mu     sync.Mutex
	text   string
	err    error
	nilRes bool
	delay  time.Duration

	calls  int
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	f.calls++
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.nilRes {
		return nil, nil
	}
	return textResponse(f.text), nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: text}},
			},
		}},
	}
}

var hikingBundle = models.ActivityBundle{
	RecentMessages:   []string{"Hey, are we still going hiking this weekend?"},
	ContactInterests: []string{"Outdoor Enthusiasts", "Tea Lovers"},
}

const fourProducts = `[
 {"id":"p1","name":"Trail Boots","description":"Waterproof boots","price":129.5,"category":"Outdoor Gear","matchReason":"For your hike"},
 {"id":"p2","name":"Ergo Chair","description":"Lumbar support","price":349,"category":"Home Goods","matchReason":"Your back"},
 {"id":"p3","name":"Tea Set","description":"Ceramic","price":45,"category":"Home Goods","matchReason":"Mom loves tea"},
 {"id":"p4","name":"Day Pack","description":"20L","price":80,"category":"Outdoor Gear","matchReason":"Weekend trips"}
]`

func newTestClient(t *testing.T, gen ContentGenerator) *Client {
	t.Helper()
	c, err := NewClientWithGenerator(gen, Config{Model: "test-model", Timeout: time.Second, BreakerFailures: 100})
	require.NoError(t, err)
	return c
}

func TestNewClient_MissingAPIKey(t *testing.T) {
	for _, key := range []string{"", "   "} {
		c, err := NewClient(context.Background(), Config{APIKey: key})
		require.Nil(t, c)
		require.ErrorIs(t, err, ErrMissingAPIKey)

		var cfgErr *ConfigError
		assert.True(t, errors.As(err, &cfgErr))
	}
}

func TestNewClientWithGenerator_NilGenerator(t *testing.T) {
	_, err := NewClientWithGenerator(nil, Config{})
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestFetch_BuildsStructuredRequest(t *testing.T) {
	gen := &fakeGenerator{text: fourProducts}
	c := newTestClient(t, gen)

	res := c.Fetch(context.Background(), hikingBundle)
	require.True(t, res.OK(), "unexpected error: %v", res.Err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "test-model", gen.model)
	assert.Contains(t, gen.prompt, `["Hey, are we still going hiking this weekend?"]`)
	assert.Contains(t, gen.prompt, `["Outdoor Enthusiasts","Tea Lovers"]`)
	assert.Contains(t, gen.prompt, "exactly 4 distinct products")

	cfg := gen.config
	require.NotNil(t, cfg)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Contains(t, cfg.SystemInstruction.Parts[0].Text, "Outdoor Gear")

	schema := cfg.ResponseSchema
	require.NotNil(t, schema)
	assert.Equal(t, genai.TypeArray, schema.Type)
	require.NotNil(t, schema.Items)
	assert.Equal(t, genai.TypeObject, schema.Items.Type)
	assert.ElementsMatch(t, []string{"id", "name", "description", "price", "category", "matchReason"}, schema.Items.Required)
	assert.NotContains(t, schema.Items.Properties, "imageUrl")
	assert.Equal(t, genai.TypeNumber, schema.Items.Properties["price"].Type)
}

func TestFetch_ParsesProducts(t *testing.T) {
	c := newTestClient(t, &fakeGenerator{text: fourProducts})

	res := c.Fetch(context.Background(), hikingBundle)
	require.True(t, res.OK())
	require.Len(t, res.Products, 4)
	assert.Equal(t, models.Product{
		ID:          "p1",
		Name:        "Trail Boots",
		Description: "Waterproof boots",
		Price:       129.5,
		Category:    "Outdoor Gear",
		MatchReason: "For your hike",
	}, res.Products[0])
	for _, p := range res.Products {
		assert.Empty(t, p.ImageURL)
	}
}

func TestFetch_EmptyBodyIsEmptyList(t *testing.T) {
	for name, gen := range map[string]*fakeGenerator{
		"empty text":  {text: ""},
		"blank text":  {text: "  \n"},
		"nil reply":   {nilRes: true},
		"empty array": {text: "[]"},
	} {
		t.Run(name, func(t *testing.T) {
			res := newTestClient(t, gen).Fetch(context.Background(), hikingBundle)
			require.True(t, res.OK())
			assert.NotNil(t, res.Products)
			assert.Empty(t, res.Products)
		})
	}
}

func TestFetch_SchemaViolations(t *testing.T) {
	cases := map[string]string{
		"not json":         `Here are some products!`,
		"object not array": `{"foo": "bar"}`,
		"missing field":    `[{"id":"p1","name":"Boots","description":"d","price":80,"category":"Outdoor"}]`,
		"price as string":  `[{"id":"p1","name":"Boots","description":"d","price":"80","category":"Outdoor","matchReason":"hiking"}]`,
		"null":             `null`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			res := newTestClient(t, &fakeGenerator{text: body}).Fetch(context.Background(), hikingBundle)
			require.False(t, res.OK())
			assert.Equal(t, FailureSchema, res.Kind)
			assert.Nil(t, res.Products)
		})
	}
}

func TestFetch_NegativePricePassesThrough(t *testing.T) {
	body := `[{"id":"p1","name":"Boots","description":"","price":-5,"category":"Outdoor","matchReason":""}]`
	res := newTestClient(t, &fakeGenerator{text: body}).Fetch(context.Background(), hikingBundle)
	require.True(t, res.OK())
	assert.Equal(t, -5.0, res.Products[0].Price)
}

func TestFetch_TransportErrors(t *testing.T) {
	t.Run("api error is flattened", func(t *testing.T) {
		gen := &fakeGenerator{err: genai.APIError{Code: 503, Status: "UNAVAILABLE", Message: "overloaded"}}
		res := newTestClient(t, gen).Fetch(context.Background(), hikingBundle)
		require.False(t, res.OK())
		assert.Equal(t, FailureTransport, res.Kind)
		assert.Contains(t, res.Err.Error(), "503")

		var apiErr genai.APIError
		assert.False(t, errors.As(res.Err, &apiErr))
	})

	t.Run("timeout", func(t *testing.T) {
		gen := &fakeGenerator{text: fourProducts, delay: time.Second}
		c, err := NewClientWithGenerator(gen, Config{Timeout: 20 * time.Millisecond})
		require.NoError(t, err)

		res := c.Fetch(context.Background(), hikingBundle)
		require.False(t, res.OK())
		assert.Equal(t, FailureTransport, res.Kind)
		assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	})

	t.Run("exactly one attempt", func(t *testing.T) {
		gen := &fakeGenerator{err: errors.New("connection reset")}
		newTestClient(t, gen).Fetch(context.Background(), hikingBundle)
		assert.Equal(t, 1, gen.calls)
	})
}

func TestFetch_BreakerRejectsWhenOpen(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("down")}
	c, err := NewClientWithGenerator(gen, Config{BreakerFailures: 2, BreakerTimeout: time.Minute})
	require.NoError(t, err)

	c.Fetch(context.Background(), hikingBundle)
	c.Fetch(context.Background(), hikingBundle)
	res := c.Fetch(context.Background(), hikingBundle)

	assert.Equal(t, 2, gen.calls)
	assert.Equal(t, FailureTransport, res.Kind)
	assert.ErrorIs(t, res.Err, resilience.ErrRejected)
	assert.Empty(t, c.Recommend(context.Background(), hikingBundle))
}

func TestFetch_AbandonedCallsDoNotTripBreaker(t *testing.T) {
	gen := &fakeGenerator{text: fourProducts, delay: 200 * time.Millisecond}
	c, err := NewClientWithGenerator(gen, Config{BreakerFailures: 2, BreakerTimeout: time.Minute})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(10*time.Millisecond, cancel)
		res := c.Fetch(ctx, hikingBundle)
		cancel()
		require.False(t, res.OK())
		assert.ErrorIs(t, res.Err, resilience.ErrAbandoned)
	}

	res := c.Fetch(context.Background(), hikingBundle)
	require.True(t, res.OK(), "fetch failed: %v", res.Err)
	assert.Len(t, res.Products, 4)
	assert.Equal(t, 4, gen.calls)
	assert.Equal(t, gobreaker.StateClosed, c.breaker.State())
}

func TestFetch_TimeoutsTripBreaker(t *testing.T) {
	gen := &fakeGenerator{text: fourProducts, delay: time.Second}
	c, err := NewClientWithGenerator(gen, Config{Timeout: 20 * time.Millisecond, BreakerFailures: 2, BreakerTimeout: time.Minute})
	require.NoError(t, err)

	c.Fetch(context.Background(), hikingBundle)
	c.Fetch(context.Background(), hikingBundle)
	res := c.Fetch(context.Background(), hikingBundle)

	assert.Equal(t, 2, gen.calls)
	assert.ErrorIs(t, res.Err, resilience.ErrRejected)
}

func TestRecommend_AbsorbsFailures(t *testing.T) {
	for name, gen := range map[string]*fakeGenerator{
		"transport": {err: errors.New("dial tcp: no route to host")},
		"schema":    {text: `{"foo": "bar"}`},
	} {
		t.Run(name, func(t *testing.T) {
			products := newTestClient(t, gen).Recommend(context.Background(), hikingBundle)
			assert.NotNil(t, products)
			assert.Empty(t, products)
		})
	}
}
