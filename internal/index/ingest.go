package index

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Exists reports whether a message id is already indexed. Not-found is not an
// error; lookup failures are logged and treated as not-found so ingestion can
// proceed.
func (r *Repository) Exists(ctx context.Context, messageID string) bool {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (m:Message {message_id: $id}) RETURN m.message_id as id LIMIT 1`,
		map[string]interface{}{"id": messageID},
	)
	if err != nil {
		r.logger.Warn("Existence check failed",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		return false
	}

	return result.Next(ctx)
}

// Ingest stores a message with its embedding and search blob. Ingesting an
// already-stored message id is a silent no-op.
func (r *Repository) Ingest(ctx context.Context, msg MessageRecord) error {
	if r.Exists(ctx, msg.MessageID) {
		return nil
	}

	searchText := composeSearchText(msg)

	vector, err := r.embedder.Embed(ctx, searchText)
	if err != nil {
		return fmt.Errorf("failed to embed message %s: %w", msg.MessageID, err)
	}

	mentionIDs := make([]string, 0, len(msg.Mentions))
	mentionNames := make([]string, 0, len(msg.Mentions))
	for _, m := range msg.Mentions {
		mentionIDs = append(mentionIDs, m.ID)
		mentionNames = append(mentionNames, m.Name)
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	// MERGE keyed on message_id keeps concurrent duplicate ingests idempotent
	query := `
		MERGE (m:Message {message_id: $messageID})
		ON CREATE SET
			m.author_id = $authorID,
			m.author_name = $authorName,
			m.content = $content,
			m.channel_id = $channelID,
			m.channel_name = $channelName,
			m.guild_id = $guildID,
			m.timestamp = datetime($timestamp),
			m.attachments = $attachments,
			m.mention_ids = $mentionIDs,
			m.mention_names = $mentionNames,
			m.search_text = $searchText,
			m.embedding = $embedding,
			m.ingested_at = datetime($ingestedAt)
		RETURN m.message_id as id
	`

	_, err = session.Run(ctx, query, map[string]interface{}{
		"messageID":    msg.MessageID,
		"authorID":     msg.AuthorID,
		"authorName":   msg.AuthorName,
		"content":      msg.Content,
		"channelID":    msg.ChannelID,
		"channelName":  msg.ChannelName,
		"guildID":      msg.GuildID,
		"timestamp":    msg.Timestamp.UTC().Format(time.RFC3339),
		"attachments":  msg.Attachments,
		"mentionIDs":   mentionIDs,
		"mentionNames": mentionNames,
		"searchText":   searchText,
		"embedding":    vector,
		"ingestedAt":   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to store message %s: %w", msg.MessageID, err)
	}

	r.logger.Debug("Message ingested",
		zap.String("message_id", msg.MessageID),
		zap.String("author", msg.AuthorName),
	)
	return nil
}

// IngestBatch ingests many messages with per-item failure isolation: a bad
// message is logged and skipped, never aborting the batch. Returns the number
// of newly stored messages.
func (r *Repository) IngestBatch(ctx context.Context, msgs []MessageRecord) int {
	stored := 0
	for _, msg := range msgs {
		if err := r.Ingest(ctx, msg); err != nil {
			r.logger.Warn("Skipping message after ingestion failure",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
			continue
		}
		stored++
	}
	return stored
}

// composeSearchText builds the representation that gets embedded and
// fulltext-indexed. Author identity, content, channel and mentions each sit
// on their own line so mention-based retrieval matches on mentioned names and
// ids even when they never appear in the raw content.
func composeSearchText(msg MessageRecord) string {
	parts := []string{
		fmt.Sprintf("User: %s (ID: %s)", msg.AuthorName, msg.AuthorID),
		fmt.Sprintf("Message: %s", msg.Content),
		fmt.Sprintf("Channel: %s", msg.ChannelName),
	}

	if len(msg.Mentions) > 0 {
		names := make([]string, 0, len(msg.Mentions))
		ids := make([]string, 0, len(msg.Mentions))
		for _, m := range msg.Mentions {
			names = append(names, m.Name)
			ids = append(ids, m.ID)
		}
		parts = append(parts, fmt.Sprintf("Mentions: %s (IDs: %s)",
			strings.Join(names, ", "), strings.Join(ids, ", ")))
	}

	return strings.Join(parts, "\n")
}
