package discord

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"ninjserv/internal/index"
)

const (
	backfillPageSize  = 100
	backfillBatchSize = 50
	// Channels are loaded concurrently but bounded so the embedding provider
	// is not hammered.
	backfillConcurrency = 4
)

// BackfillResult summarizes one historical load run.
type BackfillResult struct {
	ChannelsScanned int
	Processed       int64
	Stored          int64
	Elapsed         time.Duration
}

// Backfiller walks a guild's text channels oldest-first and indexes every
// message the live handler would have indexed.
type Backfiller struct {
	session  *discordgo.Session
	ingestor Ingestor
	logger   *zap.Logger
}

// NewBackfiller creates a historical message loader
func NewBackfiller(session *discordgo.Session, ingestor Ingestor, logger *zap.Logger) *Backfiller {
	return &Backfiller{
		session:  session,
		ingestor: ingestor,
		logger:   logger,
	}
}

// Run loads history for every readable text channel in the guild. Channel
// failures are logged and skipped; the run only errors when the channel list
// itself cannot be fetched.
func (b *Backfiller) Run(ctx context.Context, guildID string) (*BackfillResult, error) {
	start := time.Now()

	channels, err := b.session.GuildChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guild channels: %w", err)
	}

	result := &BackfillResult{}
	var processed, stored atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(backfillConcurrency)

	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		if !b.canReadHistory(ch.ID) {
			b.logger.Debug("Skipping channel without history permission",
				zap.String("channel", ch.Name),
			)
			continue
		}

		result.ChannelsScanned++
		channel := ch
		g.Go(func() error {
			p, s := b.loadChannel(gctx, channel)
			processed.Add(p)
			stored.Add(s)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Processed = processed.Load()
	result.Stored = stored.Load()
	result.Elapsed = time.Since(start)

	b.logger.Info("Historical message loading complete",
		zap.Int("channels", result.ChannelsScanned),
		zap.Int64("processed", result.Processed),
		zap.Int64("stored", result.Stored),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// loadChannel pages backwards through a channel's full history, batching
// ingestion. Errors end the channel early but never fail the run.
func (b *Backfiller) loadChannel(ctx context.Context, ch *discordgo.Channel) (processed, stored int64) {
	b.logger.Info("Loading channel history", zap.String("channel", ch.Name))

	beforeID := ""
	batch := make([]index.MessageRecord, 0, backfillBatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		stored += int64(b.ingestor.IngestBatch(ctx, batch))
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return processed, stored
		default:
		}

		page, err := b.session.ChannelMessages(ch.ID, backfillPageSize, beforeID, "", "")
		if err != nil {
			b.logger.Warn("Failed to fetch channel history page",
				zap.String("channel", ch.Name),
				zap.Error(err),
			)
			break
		}
		if len(page) == 0 {
			break
		}
		beforeID = page[len(page)-1].ID

		for _, msg := range page {
			if !Indexable(msg) {
				continue
			}
			processed++
			if b.ingestor.Exists(ctx, msg.ID) {
				continue
			}
			rec := RecordFromMessage(msg)
			rec.ChannelName = ch.Name
			batch = append(batch, rec)
			if len(batch) >= backfillBatchSize {
				flush()
			}
		}

		if len(page) < backfillPageSize {
			break
		}
	}

	flush()
	b.logger.Info("Channel history loaded",
		zap.String("channel", ch.Name),
		zap.Int64("processed", processed),
		zap.Int64("stored", stored),
	)
	return processed, stored
}

// canReadHistory checks the bot's own permissions for the channel.
func (b *Backfiller) canReadHistory(channelID string) bool {
	perms, err := b.session.UserChannelPermissions(b.session.State.User.ID, channelID)
	if err != nil {
		return false
	}
	return perms&discordgo.PermissionReadMessageHistory != 0
}
