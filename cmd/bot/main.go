package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ninjserv/internal/adapter"
	"ninjserv/internal/discord"
	"ninjserv/internal/facts"
	"ninjserv/internal/generator"
	"ninjserv/internal/index"
	"ninjserv/internal/ratelimit"
	"ninjserv/internal/scheduler"
	"ninjserv/internal/scores"
	"ninjserv/pkg/config"
	"ninjserv/pkg/logger"

	"github.com/bwmarrin/discordgo"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting Discord bot...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if cfg.DiscordBotToken == "" {
		log.Fatal("DISCORD_BOT_TOKEN is required")
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify Neo4j connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	// Initialize OpenAI-backed adapters
	openaiClient := openai.NewClient(cfg.OpenAIAPIKey)
	embedder := adapter.NewEmbedder(openaiClient, cfg.EmbeddingModel)
	genai := adapter.NewGenAI(openaiClient, cfg.GenerateModel)

	// Message index
	repo := index.NewRepository(driver, embedder, adapter.EmbeddingDim)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to prepare message index schema", zap.Error(err))
	}

	// Score storage
	scoreMgr := scores.NewManager(driver)
	if err := scoreMgr.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to prepare score schema", zap.Error(err))
	}

	// Fact uniqueness tracker
	tracker, err := facts.NewTracker(cfg.UsedFactsFile)
	if err != nil {
		log.Fatal("Failed to load used facts", zap.Error(err))
	}
	log.Info("Loaded used facts", zap.Int("count", tracker.Count()))

	// Per-user daily rate limits
	limiter, err := ratelimit.NewLimiter(cfg.RateLimitFile, ratelimit.DefaultDailyLimit)
	if err != nil {
		log.Fatal("Failed to load rate limits", zap.Error(err))
	}

	gen := generator.NewGenerator(repo, genai, tracker)

	// Create Discord session
	dg, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		log.Fatal("Failed to create Discord session", zap.Error(err))
	}

	backfiller := discord.NewBackfiller(dg, repo, log)
	commands := discord.NewCommands(gen, scoreMgr, limiter, backfiller, cfg.FactChannelID, cfg.FactGuildID, log)
	messageHandler := discord.NewHandler(repo, log)

	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		messageHandler.HandleMessage(s, m)
	})
	dg.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		commands.HandleInteraction(s, i)
	})

	// Required intents:
	// - IntentsGuilds: channel metadata for history loading
	// - IntentsGuildMessages + IntentsMessageContent: read chatter for indexing
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	// Open connection
	if err := dg.Open(); err != nil {
		log.Fatal("Failed to open Discord connection", zap.Error(err))
	}
	defer dg.Close()

	// Slash command registration needs the session identity, so it runs after Open
	if err := commands.Register(dg); err != nil {
		log.Error("Failed to register slash commands", zap.Error(err))
	}

	// Daily fact schedule
	sched := scheduler.NewScheduler(dg, gen, cfg.FactChannelID, log)
	if err := sched.Start(cfg.FactSchedule); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	log.Info("Discord bot is running. Press CTRL-C to exit.",
		zap.Bool("vector_search", repo.VectorSearchEnabled()),
	)

	// Wait for interrupt signal
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-shutdownChan

	log.Info("Shutting down Discord bot...")
}
