package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mpetrenko/rag-chatbot/internal/core/domain"
)

// Client talks to one Qdrant collection over its REST API. Safe for
// concurrent use; consistency across upsert/search is delegated to Qdrant
// (upserts are issued with wait=true so the same client reads its writes).
type Client struct {
	baseURL    string
	collection string
	dimension  int
	httpClient *http.Client

	ensureMu sync.Mutex
	ensured  bool
}

func New(baseURL, collection string, dimension int) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// EnsureCollection creates the collection with the configured dimension and
// cosine distance. Creating an existing collection is a no-op.
func (c *Client) EnsureCollection(ctx context.Context) error {
	c.ensureMu.Lock()
	if c.ensured {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     c.dimension,
			"distance": "Cosine",
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return domain.WrapError(domain.ErrIndex, "ensure collection", fmt.Errorf("marshal body: %w", err))
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return domain.WrapError(domain.ErrIndex, "ensure collection", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrIndex, "ensure collection", err)
	}
	defer resp.Body.Close()

	// 200/201 on create; 409 when the collection already exists.
	if resp.StatusCode == http.StatusConflict {
		c.markEnsured()
		return nil
	}
	if resp.StatusCode >= 300 {
		return domain.WrapError(domain.ErrIndex, "ensure collection", statusError(resp))
	}
	c.markEnsured()
	return nil
}

func (c *Client) markEnsured() {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensured = true
}

func (c *Client) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, entry := range entries {
		if len(entry.Vector) != c.dimension {
			return domain.WrapError(
				domain.ErrIndex,
				"upsert",
				fmt.Errorf("entry %s vector dimension %d, want %d", entry.ID, len(entry.Vector), c.dimension),
			)
		}
	}

	if err := c.EnsureCollection(ctx); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(entries))
	for _, entry := range entries {
		points = append(points, point{
			ID:      entry.ID,
			Vector:  entry.Vector,
			Payload: payloadToMap(entry.Payload),
		})
	}

	body, err := json.Marshal(map[string]any{"points": points})
	if err != nil {
		return domain.WrapError(domain.ErrIndex, "upsert", fmt.Errorf("marshal body: %w", err))
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return domain.WrapError(domain.ErrIndex, "upsert", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrIndex, "upsert", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return domain.WrapError(domain.ErrIndex, "upsert", statusError(resp))
	}
	return nil
}

func (c *Client) Search(
	ctx context.Context,
	queryVector []float32,
	topK int,
	filter map[string]string,
) ([]domain.SearchResult, error) {
	// A query can arrive before anything was ever ingested; searching an
	// absent collection is a 404, so create it first and let the empty
	// collection return no hits.
	if err := c.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        topK,
		"with_payload": true,
	}
	if len(filter) > 0 {
		must := make([]map[string]any, 0, len(filter))
		for key, value := range filter {
			must = append(must, map[string]any{
				"key":   key,
				"match": map[string]any{"value": value},
			})
		}
		reqBody["filter"] = map[string]any{"must": must}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndex, "search", fmt.Errorf("marshal body: %w", err))
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndex, "search", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndex, "search", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, domain.WrapError(domain.ErrIndex, "search", statusError(resp))
	}

	var searchResp struct {
		Result []struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, domain.WrapError(domain.ErrIndex, "search", fmt.Errorf("decode response: %w", err))
	}

	out := make([]domain.SearchResult, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		payload := payloadFromMap(r.Payload)
		out = append(out, domain.SearchResult{
			ID:      r.ID,
			Score:   r.Score,
			Text:    payload.Text,
			Payload: payload,
		})
	}
	return out, nil
}

// DeleteByMetadata is best-effort cleanup: failures are logged and reported
// as false so callers are never aborted by it.
func (c *Client) DeleteByMetadata(ctx context.Context, field, value string) bool {
	reqBody := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   field,
					"match": map[string]any{"value": value},
				},
			},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		slog.Warn("qdrant_delete_failed", "field", field, "value", value, "error", err)
		return false
	}

	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		slog.Warn("qdrant_delete_failed", "field", field, "value", value, "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("qdrant_delete_failed", "field", field, "value", value, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		slog.Warn("qdrant_delete_failed", "field", field, "value", value, "status", resp.Status)
		return false
	}
	return true
}

// CollectionInfo degrades to a zero-value snapshot instead of failing.
func (c *Client) CollectionInfo(ctx context.Context) domain.CollectionInfo {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Warn("qdrant_collection_info_failed", "collection", c.collection, "error", err)
		return domain.CollectionInfo{Name: c.collection}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("qdrant_collection_info_failed", "collection", c.collection, "error", err)
		return domain.CollectionInfo{Name: c.collection}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		slog.Warn("qdrant_collection_info_failed", "collection", c.collection, "status", resp.Status)
		return domain.CollectionInfo{Name: c.collection}
	}

	var infoResp struct {
		Result struct {
			Status      string `json:"status"`
			PointsCount int64  `json:"points_count"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&infoResp); err != nil {
		slog.Warn("qdrant_collection_info_failed", "collection", c.collection, "error", err)
		return domain.CollectionInfo{Name: c.collection}
	}

	return domain.CollectionInfo{
		Name:        c.collection,
		PointsCount: infoResp.Result.PointsCount,
		Status:      infoResp.Result.Status,
	}
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Errorf("qdrant status %s: %s", resp.Status, msg)
	}
	return fmt.Errorf("qdrant status %s", resp.Status)
}
