package index

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func TestComposeSearchText(t *testing.T) {
	msg := MessageRecord{
		MessageID:   "m-1",
		AuthorID:    "u-1",
		AuthorName:  "ava",
		Content:     "anyone up for a raid tonight?",
		ChannelName: "general",
		Mentions: []Mention{
			{ID: "u-2", Name: "kai"},
			{ID: "u-3", Name: "rin"},
		},
	}

	got := composeSearchText(msg)
	lines := strings.Split(got, "\n")

	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %d:\n%s", len(lines), got)
	}
	if lines[0] != "User: ava (ID: u-1)" {
		t.Errorf("Bad author line: %q", lines[0])
	}
	if lines[1] != "Message: anyone up for a raid tonight?" {
		t.Errorf("Bad content line: %q", lines[1])
	}
	if lines[2] != "Channel: general" {
		t.Errorf("Bad channel line: %q", lines[2])
	}
	if lines[3] != "Mentions: kai, rin (IDs: u-2, u-3)" {
		t.Errorf("Bad mentions line: %q", lines[3])
	}
}

func TestComposeSearchTextNoMentions(t *testing.T) {
	msg := MessageRecord{AuthorID: "u-1", AuthorName: "ava", Content: "hello", ChannelName: "general"}
	if got := composeSearchText(msg); strings.Contains(got, "Mentions:") {
		t.Errorf("Mention line should be omitted when empty:\n%s", got)
	}
}

// Integration tests below require a running Neo4j instance.
// Set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD environment variables.

// stubEmbedder produces deterministic vectors without a provider.
type stubEmbedder struct {
	dim  int
	fail bool
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.fail {
		return nil, fmt.Errorf("embedder offline")
	}
	vec := make([]float32, s.dim)
	for i, r := range text {
		vec[i%s.dim] += float32(r) / 1000
	}
	return vec, nil
}

func createTestDriver() (neo4j.DriverWithContext, error) {
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		uri = "bolt://localhost:7687"
	}
	user := os.Getenv("NEO4J_USER")
	if user == "" {
		user = "neo4j"
	}
	return neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, os.Getenv("NEO4J_PASSWORD"), ""))
}

func TestRepository_IngestAndRetrieve(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	repo := NewRepository(driver, &stubEmbedder{dim: 64}, 64)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	msgID := "test-msg-" + time.Now().Format("20060102150405")
	authorID := "test-author-" + msgID

	defer func() {
		session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
		defer session.Close(ctx)
		_, _ = session.Run(ctx, "MATCH (m:Message {author_id: $id}) DETACH DELETE m", map[string]interface{}{"id": authorID})
	}()

	msg := MessageRecord{
		MessageID:   msgID,
		AuthorID:    authorID,
		AuthorName:  "integration-tester",
		Content:     "an integration test message about raids",
		ChannelID:   "chan-1",
		ChannelName: "general",
		Timestamp:   time.Now().UTC(),
		Mentions:    []Mention{{ID: "mention-target", Name: "kai"}},
	}

	if err := repo.Ingest(ctx, msg); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !repo.Exists(ctx, msgID) {
		t.Error("Ingested message should exist")
	}

	// Second ingest of the same id is a no-op
	if err := repo.Ingest(ctx, msg); err != nil {
		t.Fatalf("Duplicate ingest should not fail: %v", err)
	}

	own, err := repo.SearchByAuthor(ctx, authorID, "", 10)
	if err != nil {
		t.Fatalf("SearchByAuthor failed: %v", err)
	}
	if len(own) != 1 {
		t.Fatalf("Expected 1 own message, got %d", len(own))
	}
	if own[0].Content != msg.Content {
		t.Errorf("Unexpected content: %q", own[0].Content)
	}

	mentions, err := repo.SearchByMention(ctx, "mention-target", 10)
	if err != nil {
		t.Fatalf("SearchByMention failed: %v", err)
	}
	if len(mentions) != 1 {
		t.Errorf("Expected 1 mention hit, got %d", len(mentions))
	}
}

func TestRepository_SimilarityFallsBackOnEmbedderFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	repo := NewRepository(driver, &stubEmbedder{dim: 64, fail: true}, 64)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	// Embedding fails, so this must run via the fulltext path rather than
	// erroring out
	if _, err := repo.SearchBySimilarity(ctx, "raids", 5); err != nil {
		t.Errorf("Expected text fallback, got error: %v", err)
	}
}
