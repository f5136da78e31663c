package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"ninjserv/internal/generator"
	"ninjserv/internal/scores"
)

const (
	colorBlue   = 0x3498db
	colorGreen  = 0x2ecc71
	colorPurple = 0x9b59b6
	colorGold   = 0xf1c40f
	colorRed    = 0xe74c3c
	colorGray   = 0x95a5a6
)

const factFooter = "Hamood wishes you a great and healthy life! 🎮"

// FactEmbed renders a generated fact for posting.
func FactEmbed(title, fact string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: fact,
		Color:       colorBlue,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: factFooter},
	}
}

// StatsEmbed renders pipeline statistics.
func StatsEmbed(stats generator.Stats) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "📊 Fact Bot Statistics",
		Color: colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Total Unique Facts Sent", Value: fmt.Sprintf("%d", stats.TotalFactsEmitted)},
			{Name: "Active Players Tracked", Value: fmt.Sprintf("%d", stats.DistinctActiveAuthors), Inline: true},
			{Name: "Messages Stored", Value: fmt.Sprintf("%d", stats.TotalMessagesIndexed), Inline: true},
			{Name: "Next Fact", Value: "Tomorrow at 6:00 AM"},
		},
	}
}

// PersonalityEmbed renders a personality card.
func PersonalityEmbed(card *generator.PersonalityCard, remaining int) *discordgo.MessageEmbed {
	positive := make([]string, 0, len(card.PositiveTraits))
	for _, t := range card.PositiveTraits {
		positive = append(positive, "✨ "+t)
	}
	negative := make([]string, 0, len(card.NegativeTraits))
	for _, t := range card.NegativeTraits {
		negative = append(negative, "🤔 "+t)
	}

	return &discordgo.MessageEmbed{
		Title:     "🎭 Personality Card",
		Color:     colorPurple,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👤 Name", Value: fmt.Sprintf("**%s**", card.Name)},
			{Name: "💚 Positive Traits", Value: strings.Join(positive, " • ")},
			{Name: "🔸 Quirks & Flaws", Value: strings.Join(negative, " • ")},
			{Name: "💬 Yaps A Lot About", Value: fmt.Sprintf("🗣️ **%s**", card.YapsAbout)},
			{Name: "📊 Fun Stat", Value: "🔥 " + card.FunStat},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Powered by Hamood's Smart AI! • %d uses remaining today", remaining),
		},
	}
}

// ScoreSubmittedEmbed confirms a saved score with the player's new rank.
func ScoreSubmittedEmbed(rec scores.Record, rank, totalPlayers int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "✅ Score Submitted!",
		Color: colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Your Stats",
				Value: fmt.Sprintf("**Kills:** %d\n**Deaths:** %d\n**K/D Ratio:** %.2f", rec.Kills, rec.Deaths, rec.KDRatio),
			},
			{
				Name:  "Ranking",
				Value: fmt.Sprintf("**Rank:** #%d of %d players", rank, totalPlayers),
			},
			{
				Name:  "What's next?",
				Value: "Use `/leaderboard` to see where you rank!",
			},
		},
	}
}

// MyScoreEmbed shows a player their own stored record and rank.
func MyScoreEmbed(rec scores.Record, rank, totalPlayers int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("📊 %s's AOTTG Record", rec.Username),
		Color: colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Your Stats",
				Value: fmt.Sprintf("**Kills:** %d\n**Deaths:** %d\n**K/D Ratio:** %.2f", rec.Kills, rec.Deaths, rec.KDRatio),
			},
			{
				Name:  "Ranking",
				Value: fmt.Sprintf("**Rank:** #%d of %d players", rank, totalPlayers),
			},
		},
	}
}

// ScoreErrorEmbed explains a rejected score code.
func ScoreErrorEmbed(reason string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Invalid Score Code",
		Description: fmt.Sprintf("**Error:** %s\n\n**Format:** Your score code should look like `WYAR-40`", reason),
		Color:       colorRed,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "How to get your score code:",
				Value: "1. Finish a game in AOTTG\n2. Copy the score code from the results screen\n3. Use `/submit_score <your_code>`",
			},
		},
	}
}

// LeaderboardEmbed renders the top players by K/D ratio. The caller's own
// rank is appended when it falls outside the listed top.
func LeaderboardEmbed(entries []scores.Record, totalPlayers int, callerRank int, callerScore *scores.Record) *discordgo.MessageEmbed {
	if len(entries) == 0 {
		return &discordgo.MessageEmbed{
			Title:       "📊 AOTTG Leaderboard",
			Description: "No scores submitted yet! Be the first to use `/submit_score`!",
			Color:       colorGray,
		}
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var b strings.Builder
	for i, rec := range entries {
		var rank string
		if i < len(medals) {
			rank = medals[i]
		} else {
			rank = fmt.Sprintf("`#%2d`", i+1)
		}
		fmt.Fprintf(&b, "%s **%s**\n", rank, rec.Username)
		fmt.Fprintf(&b, "     `%4d | %4d | %6.2f`\n\n", rec.Kills, rec.Deaths, rec.KDRatio)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🏆 AOTTG Leaderboard",
		Description: fmt.Sprintf("Top %d players out of %d total", len(entries), totalPlayers),
		Color:       colorGold,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Format: Kills | Deaths | Ratio", Value: b.String()},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "🎮 Submit your scores with /submit_score"},
	}

	if callerRank > len(entries) && callerScore != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Your Rank: #%d", callerRank),
			Value: fmt.Sprintf("`%4d | %4d | %6.2f`", callerScore.Kills, callerScore.Deaths, callerScore.KDRatio),
		})
	}

	return embed
}

// RemainingUsesEmbed shows the caller's daily quota status.
func RemainingUsesEmbed(remaining, limit int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "📊 Your Remaining Daily Uses",
		Color:     colorBlue,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "🎭 Personality Cards",
				Value: fmt.Sprintf("%d/%d uses remaining", remaining, limit),
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Use your facts wisely! 🎮"},
	}
	if remaining == 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "⏰ Reset Time",
			Value: "Resets at midnight UTC",
		})
	}
	return embed
}
