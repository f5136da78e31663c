package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// OpenAI
	OpenAIAPIKey   string
	GenerateModel  string
	EmbeddingModel string

	// Discord
	DiscordBotToken string
	FactChannelID   string // Channel that receives the daily fact post
	FactGuildID     string // Guild whose history is backfilled on /loadhistory

	// Local state files
	UsedFactsFile string
	RateLimitFile string

	// Daily fact schedule in cron syntax
	FactSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		Neo4jURI:        getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:       getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:   getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:   getEnv("NEO4J_DATABASE", "neo4j"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		GenerateModel:   getEnv("GENERATE_MODEL", "gpt-4o-mini"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		DiscordBotToken: getEnv("DISCORD_BOT_TOKEN", ""),
		FactChannelID:   getEnv("FACT_CHANNEL_ID", ""),
		FactGuildID:     getEnv("FACT_GUILD_ID", ""),
		UsedFactsFile:   getEnv("USED_FACTS_FILE", "used_facts.json"),
		RateLimitFile:   getEnv("RATE_LIMIT_FILE", "rate_limits.json"),
		FactSchedule:    getEnv("FACT_SCHEDULE", "0 6 * * *"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Neo4jURI == "" {
		return fmt.Errorf("NEO4J_URI is required")
	}
	if c.Neo4jUser == "" {
		return fmt.Errorf("NEO4J_USER is required")
	}
	if c.Neo4jPassword == "" {
		return fmt.Errorf("NEO4J_PASSWORD is required")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	// Discord token and channel are optional for the HTTP server
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
