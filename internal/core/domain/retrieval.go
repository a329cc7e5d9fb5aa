package domain

// EmbeddingIntent tells the gateway whether the text is indexed material or a
// search query; the underlying model may weight the two differently.
type EmbeddingIntent string

const (
	IntentDocument EmbeddingIntent = "document"
	IntentQuery    EmbeddingIntent = "query"
)

// SearchResult is one retrieval hit, ordered by descending similarity score.
// Ephemeral: produced per query, never persisted.
type SearchResult struct {
	ID      string       `json:"id"`
	Score   float64      `json:"score"`
	Text    string       `json:"text"`
	Payload ChunkPayload `json:"metadata"`
}

// Answer is the assembled response for one query. Sources are deduplicated
// filenames in first-occurrence retrieval order; RelevanceScores follow the
// raw retrieval order and are only present on the grounded path.
type Answer struct {
	Response        string    `json:"response"`
	ConversationID  string    `json:"conversation_id"`
	Sources         []string  `json:"sources"`
	HasContext      bool      `json:"has_context"`
	RelevanceScores []float64 `json:"relevance_scores,omitempty"`
}

// CollectionInfo is the vector index introspection snapshot. A degraded
// lookup yields a zero-value info rather than an error.
type CollectionInfo struct {
	Name        string `json:"name"`
	PointsCount int64  `json:"points_count"`
	Status      string `json:"status"`
}
