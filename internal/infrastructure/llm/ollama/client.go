package ollama

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mpetrenko/rag-chatbot/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	dimension  int
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Options struct {
	// EmbedRatePerSecond caps embedding calls across all in-flight
	// requests; zero disables pacing.
	EmbedRatePerSecond float64
	ResilienceExecutor *resilience.Executor
}

// New builds a client for one Ollama deployment. dimension is the embedding
// size every vector must have; mismatches are rejected before they reach the
// vector index.
func New(baseURL, genModel, embedModel string, dimension int, options Options) *Client {
	var limiter *rate.Limiter
	if options.EmbedRatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.EmbedRatePerSecond), 1)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		limiter:    limiter,
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) Dimension() int {
	return c.dimension
}

func (c *Client) String() string {
	return fmt.Sprintf("ollama(%s gen=%s embed=%s dim=%d)", c.baseURL, c.genModel, c.embedModel, c.dimension)
}
