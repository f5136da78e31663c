package discord

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"ninjserv/internal/index"
)

// minMessageLength filters out reactions-in-text, "ok", "lol" and similar
// noise before it reaches the index.
const minMessageLength = 10

const ingestTimeout = 30 * time.Second

// Ingestor stores chat messages. Satisfied by index.Repository.
type Ingestor interface {
	Ingest(ctx context.Context, msg index.MessageRecord) error
	IngestBatch(ctx context.Context, msgs []index.MessageRecord) int
	Exists(ctx context.Context, messageID string) bool
}

// Handler indexes organic guild chatter as it arrives.
type Handler struct {
	ingestor Ingestor
	logger   *zap.Logger
}

// NewHandler creates a Discord message handler
func NewHandler(ingestor Ingestor, logger *zap.Logger) *Handler {
	return &Handler{
		ingestor: ingestor,
		logger:   logger,
	}
}

// HandleMessage stores an incoming message in the index. Indexing runs off
// the gateway goroutine so a slow embedding call never delays event handling.
func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !Indexable(m.Message) {
		return
	}

	rec := RecordFromMessage(m.Message)
	if ch, err := s.State.Channel(m.ChannelID); err == nil {
		rec.ChannelName = ch.Name
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
		defer cancel()

		if err := h.ingestor.Ingest(ctx, rec); err != nil {
			h.logger.Warn("Failed to index message",
				zap.String("message_id", rec.MessageID),
				zap.String("channel_id", rec.ChannelID),
				zap.Error(err),
			)
		}
	}()
}

// Indexable reports whether a message belongs in the index: human-authored,
// not a command invocation, and long enough to carry signal.
func Indexable(m *discordgo.Message) bool {
	if m.Author == nil || m.Author.Bot {
		return false
	}
	content := strings.TrimSpace(m.Content)
	if strings.HasPrefix(content, "!") || strings.HasPrefix(content, "/") {
		return false
	}
	return len(content) >= minMessageLength
}

// RecordFromMessage maps a Discord message onto an index record.
func RecordFromMessage(m *discordgo.Message) index.MessageRecord {
	var mentions []index.Mention
	for _, u := range m.Mentions {
		mentions = append(mentions, index.Mention{ID: u.ID, Name: displayName(u)})
	}

	var attachments []string
	for _, att := range m.Attachments {
		attachments = append(attachments, att.URL)
	}

	rec := index.MessageRecord{
		MessageID:   m.ID,
		AuthorID:    m.Author.ID,
		AuthorName:  displayName(m.Author),
		Content:     m.Content,
		ChannelID:   m.ChannelID,
		GuildID:     m.GuildID,
		Timestamp:   m.Timestamp,
		Attachments: attachments,
		Mentions:    mentions,
	}
	if m.Member != nil && m.Member.Nick != "" {
		rec.AuthorName = m.Member.Nick
	}
	return rec
}

func displayName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
