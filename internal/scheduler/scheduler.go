package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"ninjserv/internal/discord"
	"ninjserv/internal/generator"
)

const dailyFactTimeout = 2 * time.Minute

// Scheduler posts the daily fact to the configured channel on a cron
// schedule.
type Scheduler struct {
	cron      *cron.Cron
	session   *discordgo.Session
	generator *generator.Generator
	channelID string
	logger    *zap.Logger
}

// NewScheduler creates the daily fact scheduler
func NewScheduler(session *discordgo.Session, gen *generator.Generator, channelID string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		session:   session,
		generator: gen,
		channelID: channelID,
		logger:    logger,
	}
}

// Start registers the daily fact job and starts the cron loop. The spec uses
// standard five-field cron syntax, e.g. "0 6 * * *".
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.postDailyFact); err != nil {
		return fmt.Errorf("failed to schedule daily fact: %w", err)
	}
	s.cron.Start()
	s.logger.Info("Daily fact scheduler started", zap.String("schedule", spec))
	return nil
}

// Stop stops the cron loop, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(10 * time.Second):
		s.logger.Warn("Timed out waiting for running scheduled job")
	}
	s.logger.Info("Daily fact scheduler stopped")
}

// postDailyFact generates a fact about a random active author and posts it.
func (s *Scheduler) postDailyFact() {
	if s.channelID == "" {
		s.logger.Warn("No fact channel configured, skipping daily fact")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dailyFactTimeout)
	defer cancel()

	s.logger.Info("Generating daily fact")
	fact := s.generator.GenerateFact(ctx, "", "")

	if _, err := s.session.ChannelMessageSendEmbed(s.channelID, discord.FactEmbed("🧠 Daily Did You Know", fact)); err != nil {
		s.logger.Error("Failed to post daily fact",
			zap.String("channel_id", s.channelID),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("Daily fact posted", zap.String("channel_id", s.channelID))
}
