package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"ninjserv/internal/adapter"
	"ninjserv/internal/index"
	"ninjserv/internal/scores"
	"ninjserv/pkg/config"
	"ninjserv/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Seeds the message index with a handful of sample messages so the
// retrieval and generation paths can be exercised without a live Discord
// guild. Run with -with-scores to also create the score schema.
func main() {
	withScores := flag.Bool("with-scores", false, "Also create the score schema")
	flag.Parse()

	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	client := openai.NewClient(cfg.OpenAIAPIKey)
	embedder := adapter.NewEmbedder(client, cfg.EmbeddingModel)
	repo := index.NewRepository(driver, embedder, adapter.EmbeddingDim)

	log.Info("Creating message index schema...")
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to create message index schema", zap.Error(err))
	}

	stored := repo.IngestBatch(ctx, sampleMessages())
	log.Info("Seeded sample messages", zap.Int("stored", stored))

	if *withScores {
		mgr := scores.NewManager(driver)
		log.Info("Creating score schema...")
		if err := mgr.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to create score schema", zap.Error(err))
		}
	}

	log.Info("Seeding complete")
}

func sampleMessages() []index.MessageRecord {
	base := time.Now().Add(-24 * time.Hour)
	authors := []struct {
		id   string
		name string
	}{
		{"100000000000000001", "titan_slayer"},
		{"100000000000000002", "blade_dancer"},
		{"100000000000000003", "wallrose_scout"},
	}
	lines := []string{
		"just cleared the forest map solo, the new hook timing feels way better",
		"anyone up for a racing lobby tonight? trying to beat my own record",
		"the thunder spear rework makes titan mode actually playable again",
		"finally hit a 15 kill streak without dying, took me all week",
		"who keeps camping the supply station, leave some gas for the rest of us",
		"new custom map dropped, the city layout is huge compared to the old one",
	}

	records := make([]index.MessageRecord, 0, len(lines))
	for i, content := range lines {
		author := authors[i%len(authors)]
		records = append(records, index.MessageRecord{
			MessageID:   fmt.Sprintf("seed-%03d", i+1),
			AuthorID:    author.id,
			AuthorName:  author.name,
			Content:     content,
			ChannelID:   "200000000000000001",
			ChannelName: "general",
			GuildID:     "300000000000000001",
			Timestamp:   base.Add(time.Duration(i) * time.Hour),
		})
	}
	return records
}
