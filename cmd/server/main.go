package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"ninjserv/internal/adapter"
	"ninjserv/internal/facts"
	"ninjserv/internal/generator"
	"ninjserv/internal/index"
	"ninjserv/pkg/config"
	"ninjserv/pkg/logger"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
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

	// Initialize dependencies
	openaiClient := openai.NewClient(cfg.OpenAIAPIKey)
	embedder := adapter.NewEmbedder(openaiClient, cfg.EmbeddingModel)
	genai := adapter.NewGenAI(openaiClient, cfg.GenerateModel)

	repo := index.NewRepository(driver, embedder, adapter.EmbeddingDim)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to prepare message index schema", zap.Error(err))
	}

	tracker, err := facts.NewTracker(cfg.UsedFactsFile)
	if err != nil {
		log.Fatal("Failed to load used facts", zap.Error(err))
	}

	gen := generator.NewGenerator(repo, genai, tracker)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"vector_search": repo.VectorSearchEnabled(),
		})
	})

	// API routes
	api := router.Group("/api")
	{
		// Pipeline statistics
		api.GET("/stats", func(c *gin.Context) {
			stats := gen.GenerateStats(c.Request.Context())
			c.JSON(http.StatusOK, gin.H{
				"total_facts_emitted":     stats.TotalFactsEmitted,
				"distinct_active_authors": stats.DistinctActiveAuthors,
				"total_messages_indexed":  stats.TotalMessagesIndexed,
			})
		})

		// Generate a fact, optionally about a named subject
		api.POST("/fact", func(c *gin.Context) {
			var req struct {
				Player string `json:"player"`
				UserID string `json:"user_id"`
			}
			// Body is optional; an empty request generates a random subject fact
			_ = c.ShouldBindJSON(&req)

			fact := gen.GenerateFact(c.Request.Context(), req.Player, req.UserID)
			c.JSON(http.StatusOK, gin.H{"fact": fact})
		})

		// Generate a personality card
		api.POST("/personality", func(c *gin.Context) {
			var req struct {
				Player string `json:"player" binding:"required"`
				UserID string `json:"user_id"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			card := gen.GeneratePersonalityCard(c.Request.Context(), req.Player, req.UserID)
			c.JSON(http.StatusOK, gin.H{
				"name":            card.Name,
				"positive_traits": card.PositiveTraits,
				"negative_traits": card.NegativeTraits,
				"yaps_about":      card.YapsAbout,
				"fun_stat":        card.FunStat,
			})
		})

		// Search stored messages
		api.GET("/search", func(c *gin.Context) {
			query := c.Query("q")
			if query == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
				return
			}

			snippets, err := repo.SearchBySimilarity(c.Request.Context(), query, 10)
			if err != nil {
				log.Error("Search failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"results": snippets})
		})
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
