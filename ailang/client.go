package ailang

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/relev-ai/relevai-go/cache"
	"github.com/relev-ai/relevai-go/internal/util"
	"github.com/relev-ai/relevai-go/key"
	"github.com/relev-ai/relevai-go/observability"
	"github.com/relev-ai/relevai-go/serializer"
)

// Default configuration values.
const (
	// DefaultBaseURL is the production AI-Lang endpoint.
	DefaultBaseURL = "https://api.relev.ai/ai-lang/v1/"

	// DefaultTimeout bounds a single API call. Chat completions can run
	// long, so the default is generous; override it with WithHTTPClient.
	DefaultTimeout = 120 * time.Second
)

const (
	chatPath  = "api/chat"
	embedPath = "api/embed"

	// embedBatchSize caps how many inputs one embedding request carries.
	// Larger Embed calls are split into consecutive batches.
	embedBatchSize = 64

	headerRequestID = "X-Request-Id"

	maxErrorBodyBytes = 4 << 10
)

// vectorCodec packs cached embedding vectors. MessagePack keeps the large
// float arrays far smaller than their JSON form.
var vectorCodec = serializer.NewMsgPackSerializer()

// Client calls the AI-Lang chat and embedding API with a credential
// managed by a key.Key. It is safe for concurrent use.
type Client struct {
	key        *key.Key
	httpClient *http.Client
	baseURL    string
	chatURL    string
	embedURL   string
	model      string
	limiter    *rate.Limiter
	cache      cache.Cache
	logger     observability.Logger

	// authorization holds the current "Bearer <token>" header value as a
	// string. The renewal hook swaps it; requests read it lock-free.
	authorization atomic.Value

	// reg pins the renewal hook. The key's registry holds hooks weakly,
	// so dropping this handle would let the hook lapse with the next
	// garbage collection.
	reg *key.Registration

	closed atomic.Bool
}

// New creates a client bound to k. The client seeds its Authorization
// value from the key (renewing when the token is due) and registers a
// renewal hook so every later renewal swaps the cached value in place.
// A nil key yields an unauthenticated client, useful against endpoints
// that do their own access control.
func New(k *key.Key, opts ...Option) (*Client, error) {
	c := &Client{
		key:        k,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		logger:     observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	chatURL, err := url.JoinPath(c.baseURL, chatPath)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
	}
	embedURL, err := url.JoinPath(c.baseURL, embedPath)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
	}
	c.chatURL = chatURL
	c.embedURL = embedURL

	c.authorization.Store("")
	if k != nil {
		auth, err := k.AuthorizationValue(context.Background())
		if err != nil {
			return nil, fmt.Errorf("seeding authorization: %w", err)
		}
		c.authorization.Store(auth)
		c.reg = k.AddHook(c.onRenewal)
	}

	return c, nil
}

// onRenewal swaps the cached Authorization value after a successful
// renewal. The token was just committed, so reading it does no I/O.
func (c *Client) onRenewal(k *key.Key) {
	auth, err := k.AuthorizationValue(context.Background())
	if err != nil {
		c.logger.Warn("rebuilding authorization after renewal",
			observability.Error(err))
		return
	}
	c.authorization.Store(auth)
	c.logger.Debug("authorization rebuilt after renewal")
}

// Chat sends a chat completion request. The request's model falls back
// to the client default. Non-2xx responses come back as *APIError; the
// call is never retried.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	if model == "" {
		return nil, ErrModelRequired
	}
	if len(req.Messages) == 0 {
		return nil, ErrNoMessages
	}

	wire := &chatWireRequest{
		Model:    model,
		Messages: req.Messages,
		Options:  req.Options,
	}

	var resp ChatResponse
	if err := c.do(ctx, c.chatURL, wire, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Embed computes embeddings for every input, in input order. Inputs are
// split into batches of at most embedBatchSize per API call. With a
// cache configured, inputs already embedded for the same model are
// served from it and only the remainder goes to the API.
func (c *Client) Embed(ctx context.Context, req *EmbedRequest) (*EmbedResponse, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	if model == "" {
		return nil, ErrModelRequired
	}

	out := &EmbedResponse{
		Model:      model,
		Embeddings: make([][]float64, len(req.Input)),
	}
	if len(req.Input) == 0 {
		return out, nil
	}

	pending := make([]int, 0, len(req.Input))
	for i, input := range req.Input {
		if vec, ok := c.cachedVector(ctx, model, input); ok {
			out.Embeddings[i] = vec
			continue
		}
		pending = append(pending, i)
	}

	for _, batch := range util.Chunk(pending, embedBatchSize) {
		inputs := make([]string, len(batch))
		for j, idx := range batch {
			inputs[j] = req.Input[idx]
		}

		var batchResp EmbedResponse
		wire := &EmbedRequest{Model: model, Input: inputs}
		if err := c.do(ctx, c.embedURL, wire, &batchResp); err != nil {
			return nil, err
		}
		if len(batchResp.Embeddings) != len(inputs) {
			return nil, fmt.Errorf("ai-lang returned %d embeddings for %d inputs",
				len(batchResp.Embeddings), len(inputs))
		}

		for j, idx := range batch {
			out.Embeddings[idx] = batchResp.Embeddings[j]
			c.storeVector(ctx, model, req.Input[idx], batchResp.Embeddings[j])
		}
		out.TotalDuration += batchResp.TotalDuration
		out.PromptEvalCount += batchResp.PromptEvalCount
	}

	return out, nil
}

// cachedVector looks one embedding up. Any cache failure, miss included,
// just routes the input to the API.
func (c *Client) cachedVector(ctx context.Context, model, input string) ([]float64, bool) {
	if c.cache == nil {
		return nil, false
	}

	data, err := c.cache.Get(ctx, cache.HashKey("embed", model, input))
	if err != nil {
		return nil, false
	}

	var vec []float64
	if err := vectorCodec.Decode(data, &vec); err != nil {
		c.logger.Warn("decoding cached embedding", observability.Error(err))
		return nil, false
	}
	return vec, true
}

// storeVector caches one embedding with the backend's default TTL. Cache
// failures are logged, never propagated: the caller already has the
// vector.
func (c *Client) storeVector(ctx context.Context, model, input string, vec []float64) {
	if c.cache == nil {
		return
	}

	data, err := vectorCodec.Encode(vec)
	if err != nil {
		c.logger.Warn("encoding embedding for cache", observability.Error(err))
		return
	}

	err = c.cache.Set(ctx, cache.HashKey("embed", model, input), data, 0)
	if err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		c.logger.Warn("caching embedding", observability.Error(err))
	}
}

// do issues one JSON POST and decodes the response into out.
func (c *Client) do(ctx context.Context, endpoint string, payload, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("awaiting rate limit: %w", err)
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, requestID)
	if auth, _ := c.authorization.Load().(string); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("ai-lang request",
		observability.String("endpoint", endpoint),
		observability.String("request_id", requestID),
		observability.Int("status", resp.StatusCode),
		observability.Duration("elapsed", util.Elapsed(start)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(detail)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Close deregisters the renewal hook. The bound key is not closed; it
// may serve other clients. Close is idempotent.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.reg.Remove()
	return nil
}

var _ io.Closer = (*Client)(nil)
