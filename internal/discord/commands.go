package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"ninjserv/internal/generator"
	"ninjserv/internal/ratelimit"
	"ninjserv/internal/scores"
	apperrors "ninjserv/pkg/errors"
)

const (
	commandTimeout       = 30 * time.Second
	personalityRateKey   = "playerfact"
	leaderboardMaxLimit  = 20
	leaderboardDefLimit  = 10
	maxLeaderboardOption = float64(leaderboardMaxLimit)
	minLeaderboardOption = float64(1)
)

// Commands routes slash commands to the generation and score subsystems.
type Commands struct {
	generator     *generator.Generator
	scores        *scores.Manager
	limiter       *ratelimit.Limiter
	backfiller    *Backfiller
	factChannelID string
	guildID       string
	logger        *zap.Logger
}

// NewCommands creates the slash command router
func NewCommands(gen *generator.Generator, scoreMgr *scores.Manager, limiter *ratelimit.Limiter, backfiller *Backfiller, factChannelID, guildID string, logger *zap.Logger) *Commands {
	return &Commands{
		generator:     gen,
		scores:        scoreMgr,
		limiter:       limiter,
		backfiller:    backfiller,
		factChannelID: factChannelID,
		guildID:       guildID,
		logger:        logger,
	}
}

// Definitions returns the application commands to register.
func (c *Commands) Definitions() []*discordgo.ApplicationCommand {
	limitMin := minLeaderboardOption
	limitMax := maxLeaderboardOption
	return []*discordgo.ApplicationCommand{
		{
			Name:        "fact",
			Description: "Generate a random fact about a player or general topic",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "player",
					Description: "Optional: specific player to generate a fact about",
				},
			},
		},
		{
			Name:        "stats",
			Description: "Show fact bot statistics",
		},
		{
			Name:        "loadhistory",
			Description: "Manually load historical messages (Admin only)",
		},
		{
			Name:        "remaining",
			Description: "Check your remaining daily uses for commands",
		},
		{
			Name:        "playerfact",
			Description: "Generate a personality card for a specific player",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "player",
					Description: "The player to generate a personality card for",
					Required:    true,
				},
			},
		},
		{
			Name:        "submit_score",
			Description: "Submit your AOTTG personal record",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "score_code",
					Description: "Your encoded score from AOTTG (format: CODE-CHECKSUM)",
					Required:    true,
				},
			},
		},
		{
			Name:        "myscore",
			Description: "Show your submitted AOTTG record and rank",
		},
		{
			Name:        "leaderboard",
			Description: "Show AOTTG leaderboard with top players",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "limit",
					Description: "Number of top players to show (1-20, default: 10)",
					MinValue:    &limitMin,
					MaxValue:    limitMax,
				},
			},
		},
	}
}

// Register registers all commands with Discord, scoped to the configured
// guild when set.
func (c *Commands) Register(s *discordgo.Session) error {
	for _, def := range c.Definitions() {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, c.guildID, def); err != nil {
			return fmt.Errorf("failed to register /%s: %w", def.Name, err)
		}
	}
	c.logger.Info("Registered slash commands", zap.Int("count", len(c.Definitions())))
	return nil
}

// HandleInteraction dispatches an interaction to its command handler.
func (c *Commands) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	c.logger.Info("Handling slash command",
		zap.String("command", name),
		zap.String("user_id", interactionUserID(i)),
	)

	switch name {
	case "fact":
		c.handleFact(s, i)
	case "stats":
		c.handleStats(s, i)
	case "loadhistory":
		c.handleLoadHistory(s, i)
	case "remaining":
		c.handleRemaining(s, i)
	case "playerfact":
		c.handlePlayerFact(s, i)
	case "submit_score":
		c.handleSubmitScore(s, i)
	case "myscore":
		c.handleMyScore(s, i)
	case "leaderboard":
		c.handleLeaderboard(s, i)
	}
}

func (c *Commands) handleFact(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !isAdmin(i) {
		c.respondEphemeral(s, i, "Only administrators can manually trigger facts!")
		return
	}
	c.deferResponse(s, i, true)

	player := stringOption(i, "player")
	subjectName, subjectID := player, ""
	title := "🧠 Did You Know"
	if player != "" {
		// Accept either a plain name or a raw <@id> mention
		if id, ok := mentionID(player); ok {
			subjectID = id
		}
		title = fmt.Sprintf("🧠 Did You Know About %s", player)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	fact := c.generator.GenerateFact(ctx, subjectName, subjectID)

	if _, err := s.ChannelMessageSendEmbed(c.factChannelID, FactEmbed(title, fact)); err != nil {
		c.logger.Error("Failed to post fact",
			zap.String("channel_id", c.factChannelID),
			zap.Error(err),
		)
		c.followupEphemeral(s, i, "Failed to post the fact to the fact channel.")
		return
	}
	c.followupEphemeral(s, i, fmt.Sprintf("Fact sent to <#%s>!", c.factChannelID))
}

func (c *Commands) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	stats := c.generator.GenerateStats(ctx)
	c.respondEmbed(s, i, StatsEmbed(stats), false)
}

func (c *Commands) handleLoadHistory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !isAdmin(i) {
		c.respondEphemeral(s, i, "Only administrators can load historical messages!")
		return
	}
	c.deferResponse(s, i, true)

	guildID := c.guildID
	if guildID == "" {
		guildID = i.GuildID
	}

	// History loads can run for minutes; report back when done
	go func() {
		result, err := c.backfiller.Run(context.Background(), guildID)
		if err != nil {
			c.logger.Error("Historical message loading failed", zap.Error(err))
			c.followupEphemeral(s, i, "Error occurred while loading historical messages.")
			return
		}
		c.followupEphemeral(s, i, fmt.Sprintf(
			"Historical message loading completed! Scanned %d channels, processed %d messages, stored %d new.",
			result.ChannelsScanned, result.Processed, result.Stored,
		))
	}()
}

func (c *Commands) handleRemaining(s *discordgo.Session, i *discordgo.InteractionCreate) {
	remaining := c.limiter.Remaining(interactionUserID(i), personalityRateKey)
	c.respondEmbed(s, i, RemainingUsesEmbed(remaining, ratelimit.DefaultDailyLimit), true)
}

func (c *Commands) handlePlayerFact(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if !c.limiter.Allow(userID, personalityRateKey) {
		c.respondEphemeral(s, i, "You've reached your daily limit of 3 personality cards! Please try again tomorrow. 🕒")
		return
	}
	c.deferResponse(s, i, false)

	player := userOption(s, i, "player")
	if player == nil {
		c.followupEphemeral(s, i, "Could not resolve that player.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	card := c.generator.GeneratePersonalityCard(ctx, displayName(player), player.ID)
	remaining := c.limiter.Remaining(userID, personalityRateKey)

	c.followupEmbed(s, i, PersonalityEmbed(card, remaining))
}

func (c *Commands) handleSubmitScore(s *discordgo.Session, i *discordgo.InteractionCreate) {
	c.deferResponse(s, i, false)

	code := strings.TrimSpace(stringOption(i, "score_code"))

	decoded, err := scores.DecodeAndVerify(code)
	if err != nil {
		c.followupEmbed(s, i, ScoreErrorEmbed(scoreErrorReason(err)))
		return
	}
	data, err := scores.ParseScoreData(decoded)
	if err != nil {
		c.followupEmbed(s, i, ScoreErrorEmbed(scoreErrorReason(err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	rec := scores.Record{
		UserID:   interactionUserID(i),
		Username: interactionDisplayName(i),
		GuildID:  i.GuildID,
		Kills:    data.Kills,
		Deaths:   data.Deaths,
		KDRatio:  data.KDRatio,
	}
	if err := c.scores.SaveScore(ctx, rec); err != nil {
		c.logger.Error("Failed to save score", zap.Error(err))
		c.followupEphemeral(s, i, "Failed to save your score. Please try again later.")
		return
	}

	rank, err := c.scores.UserRank(ctx, rec.UserID, rec.GuildID)
	if err != nil {
		c.logger.Warn("Failed to compute rank", zap.Error(err))
	}
	total, err := c.scores.TotalPlayers(ctx, rec.GuildID)
	if err != nil {
		c.logger.Warn("Failed to count players", zap.Error(err))
	}

	c.followupEmbed(s, i, ScoreSubmittedEmbed(rec, rank, total))
}

func (c *Commands) handleMyScore(s *discordgo.Session, i *discordgo.InteractionCreate) {
	c.deferResponse(s, i, false)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	userID := interactionUserID(i)
	rec, err := c.scores.GetUserScore(ctx, userID, i.GuildID)
	if err != nil {
		c.logger.Error("Failed to load score", zap.Error(err))
		c.followupEphemeral(s, i, "Failed to load your score. Please try again later.")
		return
	}
	if rec == nil {
		c.followupEphemeral(s, i, "You haven't submitted a score yet. Use `/submit_score` to record one!")
		return
	}

	rank, err := c.scores.UserRank(ctx, userID, i.GuildID)
	if err != nil {
		c.logger.Warn("Failed to compute rank", zap.Error(err))
	}
	total, err := c.scores.TotalPlayers(ctx, i.GuildID)
	if err != nil {
		c.logger.Warn("Failed to count players", zap.Error(err))
	}

	c.followupEmbed(s, i, MyScoreEmbed(*rec, rank, total))
}

func (c *Commands) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	c.deferResponse(s, i, false)

	limit := intOption(i, "limit", leaderboardDefLimit)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	entries, err := c.scores.Leaderboard(ctx, i.GuildID, limit)
	if err != nil {
		c.logger.Error("Failed to load leaderboard", zap.Error(err))
		c.followupEphemeral(s, i, "Failed to load leaderboard. Please try again later.")
		return
	}

	total, err := c.scores.TotalPlayers(ctx, i.GuildID)
	if err != nil {
		c.logger.Warn("Failed to count players", zap.Error(err))
	}

	callerRank, _ := c.scores.UserRank(ctx, interactionUserID(i), i.GuildID)
	var callerScore *scores.Record
	if callerRank > len(entries) {
		callerScore, _ = c.scores.GetUserScore(ctx, interactionUserID(i), i.GuildID)
	}

	c.followupEmbed(s, i, LeaderboardEmbed(entries, total, callerRank, callerScore))
}

// Response helpers

func (c *Commands) deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	})
	if err != nil {
		c.logger.Warn("Failed to defer interaction", zap.Error(err))
	}
}

func (c *Commands) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		c.logger.Warn("Failed to respond to interaction", zap.Error(err))
	}
}

func (c *Commands) respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
	if err != nil {
		c.logger.Warn("Failed to respond to interaction", zap.Error(err))
	}
}

func (c *Commands) followupEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: msg,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		c.logger.Warn("Failed to send followup", zap.Error(err))
	}
}

func (c *Commands) followupEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		c.logger.Warn("Failed to send followup embed", zap.Error(err))
	}
}

// Option and identity helpers

func stringOption(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

func intOption(i *discordgo.InteractionCreate, name string, def int) int {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionInteger {
			return int(opt.IntValue())
		}
	}
	return def
}

func userOption(s *discordgo.Session, i *discordgo.InteractionCreate, name string) *discordgo.User {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionUser {
			return opt.UserValue(s)
		}
	}
	return nil
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func interactionDisplayName(i *discordgo.InteractionCreate) string {
	if i.Member != nil {
		if i.Member.Nick != "" {
			return i.Member.Nick
		}
		if i.Member.User != nil {
			return displayName(i.Member.User)
		}
	}
	if i.User != nil {
		return displayName(i.User)
	}
	return "Unknown Player"
}

func isAdmin(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

// mentionID extracts the user id from a raw <@id> or <@!id> mention.
func mentionID(s string) (string, bool) {
	if !strings.HasPrefix(s, "<@") || !strings.HasSuffix(s, ">") {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(s, "<@"), ">")
	id = strings.TrimPrefix(id, "!")
	if id == "" {
		return "", false
	}
	return id, true
}

func scoreErrorReason(err error) string {
	var invalid *apperrors.ErrScoreCodeInvalid
	if errors.As(err, &invalid) {
		return invalid.Reason
	}
	return "Invalid score code"
}
