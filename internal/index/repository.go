package index

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"ninjserv/pkg/logger"
)

const (
	vectorIndexName   = "message_embeddings"
	fulltextIndexName = "message_text"
)

// Embedder turns text into a fixed-length vector. Satisfied by
// adapter.Embedder; kept as an interface so tests can substitute a fake.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Repository is the message index over Neo4j. It owns MessageRecord storage:
// records are created on ingest and never mutated or deleted.
type Repository struct {
	driver   neo4j.DriverWithContext
	embedder Embedder
	dim      int
	// vectorSearch is false when the deployment has no vector index support;
	// similarity queries then run in text-fallback-only mode.
	vectorSearch bool
	logger       *zap.Logger
}

// NewRepository creates a message index repository
func NewRepository(driver neo4j.DriverWithContext, embedder Embedder, dim int) *Repository {
	return &Repository{
		driver:       driver,
		embedder:     embedder,
		dim:          dim,
		vectorSearch: true,
		logger:       logger.Get(),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// EnsureSchema creates the uniqueness constraint and the vector and fulltext
// indexes. A failed vector index (e.g. a Neo4j edition without vector
// support) is logged and disables similarity search rather than aborting
// startup.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	constraint := `
		CREATE CONSTRAINT message_id_unique IF NOT EXISTS
		FOR (m:Message) REQUIRE m.message_id IS UNIQUE
	`
	if _, err := session.Run(ctx, constraint, nil); err != nil {
		return fmt.Errorf("failed to create message_id constraint: %w", err)
	}

	fulltext := fmt.Sprintf(`
		CREATE FULLTEXT INDEX %s IF NOT EXISTS
		FOR (m:Message) ON EACH [m.content, m.author_name, m.search_text]
	`, fulltextIndexName)
	if _, err := session.Run(ctx, fulltext, nil); err != nil {
		return fmt.Errorf("failed to create fulltext index: %w", err)
	}

	vector := fmt.Sprintf(
		"CREATE VECTOR INDEX %s IF NOT EXISTS FOR (m:Message) ON (m.embedding) "+
			"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: 'cosine'}}",
		vectorIndexName, r.dim,
	)
	if _, err := session.Run(ctx, vector, nil); err != nil {
		r.vectorSearch = false
		r.logger.Warn("Vector index unavailable, similarity search degrades to text search",
			zap.Error(err),
		)
	}

	return nil
}

// VectorSearchEnabled reports whether the nearest-neighbor backend is usable.
func (r *Repository) VectorSearchEnabled() bool {
	return r.vectorSearch
}

// Count returns the total number of stored messages
func (r *Repository) Count(ctx context.Context) (int64, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `MATCH (m:Message) RETURN count(m) as total`, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}

	if result.Next(ctx) {
		return getInt64FromRecord(result.Record(), "total"), nil
	}
	return 0, result.Err()
}

// Helper functions for extracting typed values from Neo4j records

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getFloat64FromRecord(record *neo4j.Record, key string) float64 {
	val, ok := record.Get(key)
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func getInt64FromRecord(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok {
		return 0
	}
	if n, ok := val.(int64); ok {
		return n
	}
	return 0
}

func getTimeFromRecord(record *neo4j.Record, key string) time.Time {
	val, ok := record.Get(key)
	if !ok {
		return time.Time{}
	}
	// Neo4j datetime values come back as time.Time
	if t, ok := val.(time.Time); ok {
		return t
	}
	return time.Time{}
}

// snippetFromRecord maps the standard message projection onto a Snippet.
func snippetFromRecord(record *neo4j.Record) Snippet {
	return Snippet{
		AuthorID:    getStringFromRecord(record, "author_id"),
		AuthorName:  getStringFromRecord(record, "author_name"),
		Content:     getStringFromRecord(record, "content"),
		ChannelName: getStringFromRecord(record, "channel_name"),
		Timestamp:   getTimeFromRecord(record, "timestamp"),
		Score:       getFloat64FromRecord(record, "score"),
	}
}
