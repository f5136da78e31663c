package scores

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"ninjserv/pkg/logger"
)

// Record is a player's stored personal best, one per user per guild.
type Record struct {
	ID          string
	UserID      string
	Username    string
	GuildID     string
	Kills       int
	Deaths      int
	KDRatio     float64
	SubmittedAt time.Time
}

// Manager stores and ranks score records in Neo4j.
type Manager struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewManager creates a score manager
func NewManager(driver neo4j.DriverWithContext) *Manager {
	return &Manager{
		driver: driver,
		logger: logger.Get(),
	}
}

// EnsureSchema creates the composite uniqueness constraint for score nodes.
func (m *Manager) EnsureSchema(ctx context.Context) error {
	session := m.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	constraint := `
		CREATE CONSTRAINT score_user_guild_unique IF NOT EXISTS
		FOR (s:Score) REQUIRE (s.user_id, s.guild_id) IS UNIQUE
	`
	if _, err := session.Run(ctx, constraint, nil); err != nil {
		return fmt.Errorf("failed to create score constraint: %w", err)
	}
	return nil
}

// SaveScore upserts the user's record for the guild. A resubmission replaces
// the previous record entirely.
func (m *Manager) SaveScore(ctx context.Context, rec Record) error {
	session := m.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = time.Now().UTC()
	}

	query := `
		MERGE (s:Score {user_id: $user_id, guild_id: $guild_id})
		ON CREATE SET s.id = $id
		SET s.username = $username,
			s.kills = $kills,
			s.deaths = $deaths,
			s.kd_ratio = $kd_ratio,
			s.submitted_at = datetime($submitted_at)
	`
	params := map[string]any{
		"id":           rec.ID,
		"user_id":      rec.UserID,
		"guild_id":     rec.GuildID,
		"username":     rec.Username,
		"kills":        rec.Kills,
		"deaths":       rec.Deaths,
		"kd_ratio":     rec.KDRatio,
		"submitted_at": rec.SubmittedAt.Format(time.RFC3339),
	}
	if _, err := session.Run(ctx, query, params); err != nil {
		return fmt.Errorf("failed to save score: %w", err)
	}

	m.logger.Info("Saved score",
		zap.String("user_id", rec.UserID),
		zap.String("guild_id", rec.GuildID),
		zap.Int("kills", rec.Kills),
		zap.Int("deaths", rec.Deaths),
	)
	return nil
}

const scoreProjection = `
	RETURN s.id as id,
		s.user_id as user_id,
		s.username as username,
		s.guild_id as guild_id,
		s.kills as kills,
		s.deaths as deaths,
		s.kd_ratio as kd_ratio,
		s.submitted_at as submitted_at
`

// GetUserScore returns the user's record for the guild, or nil when absent.
func (m *Manager) GetUserScore(ctx context.Context, userID, guildID string) (*Record, error) {
	session := m.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `MATCH (s:Score {user_id: $user_id, guild_id: $guild_id})` + scoreProjection
	result, err := session.Run(ctx, query, map[string]any{
		"user_id":  userID,
		"guild_id": guildID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user score: %w", err)
	}

	if result.Next(ctx) {
		rec := recordFromNeo4j(result.Record())
		return &rec, nil
	}
	return nil, result.Err()
}

// Leaderboard returns the guild's top records by K/D ratio descending.
func (m *Manager) Leaderboard(ctx context.Context, guildID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}

	session := m.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `MATCH (s:Score {guild_id: $guild_id})` + scoreProjection + `
		ORDER BY s.kd_ratio DESC
		LIMIT $limit`
	result, err := session.Run(ctx, query, map[string]any{
		"guild_id": guildID,
		"limit":    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	var out []Record
	for result.Next(ctx) {
		out = append(out, recordFromNeo4j(result.Record()))
	}
	return out, result.Err()
}

// UserRank returns the user's 1-based leaderboard position, or 0 when the
// user holds no record in the guild.
func (m *Manager) UserRank(ctx context.Context, userID, guildID string) (int, error) {
	own, err := m.GetUserScore(ctx, userID, guildID)
	if err != nil {
		return 0, err
	}
	if own == nil {
		return 0, nil
	}

	session := m.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (s:Score {guild_id: $guild_id})
		WHERE s.kd_ratio > $kd_ratio
		RETURN count(s) as higher
	`
	result, err := session.Run(ctx, query, map[string]any{
		"guild_id": guildID,
		"kd_ratio": own.KDRatio,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to compute rank: %w", err)
	}

	if result.Next(ctx) {
		return int(getInt64FromRecord(result.Record(), "higher")) + 1, nil
	}
	return 0, result.Err()
}

// TotalPlayers returns how many users hold a record in the guild.
func (m *Manager) TotalPlayers(ctx context.Context, guildID string) (int, error) {
	session := m.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (s:Score {guild_id: $guild_id}) RETURN count(s) as total`,
		map[string]any{"guild_id": guildID},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}

	if result.Next(ctx) {
		return int(getInt64FromRecord(result.Record(), "total")), nil
	}
	return 0, result.Err()
}

func recordFromNeo4j(record *neo4j.Record) Record {
	return Record{
		ID:          getStringFromRecord(record, "id"),
		UserID:      getStringFromRecord(record, "user_id"),
		Username:    getStringFromRecord(record, "username"),
		GuildID:     getStringFromRecord(record, "guild_id"),
		Kills:       int(getInt64FromRecord(record, "kills")),
		Deaths:      int(getInt64FromRecord(record, "deaths")),
		KDRatio:     getFloat64FromRecord(record, "kd_ratio"),
		SubmittedAt: getTimeFromRecord(record, "submitted_at"),
	}
}

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

func getTimeFromRecord(record *neo4j.Record, key string) time.Time {
	val, ok := record.Get(key)
	if !ok {
		return time.Time{}
	}
	if t, ok := val.(time.Time); ok {
		return t
	}
	return time.Time{}
}
