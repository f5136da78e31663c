package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"ninjserv/internal/generator"
	"ninjserv/internal/scores"
)

func TestLeaderboardEmbed(t *testing.T) {
	entries := []scores.Record{
		{Username: "ava", Kills: 50, Deaths: 5, KDRatio: 10},
		{Username: "kai", Kills: 20, Deaths: 10, KDRatio: 2},
	}

	embed := LeaderboardEmbed(entries, 7, 0, nil)

	assert.Equal(t, "🏆 AOTTG Leaderboard", embed.Title)
	assert.Contains(t, embed.Description, "Top 2 players out of 7 total")
	if assert.Len(t, embed.Fields, 1) {
		assert.Contains(t, embed.Fields[0].Value, "🥇 **ava**")
		assert.Contains(t, embed.Fields[0].Value, "🥈 **kai**")
	}
}

func TestLeaderboardEmbedAppendsCallerRank(t *testing.T) {
	entries := []scores.Record{{Username: "ava", Kills: 50, Deaths: 5, KDRatio: 10}}
	caller := &scores.Record{Username: "rin", Kills: 3, Deaths: 9, KDRatio: 0.33}

	embed := LeaderboardEmbed(entries, 12, 8, caller)

	if assert.Len(t, embed.Fields, 2) {
		assert.Equal(t, "Your Rank: #8", embed.Fields[1].Name)
	}
}

func TestLeaderboardEmbedEmpty(t *testing.T) {
	embed := LeaderboardEmbed(nil, 0, 0, nil)
	assert.Contains(t, embed.Description, "No scores submitted yet")
}

func TestPersonalityEmbed(t *testing.T) {
	card := &generator.PersonalityCard{
		Name:           "ava",
		PositiveTraits: []string{"Brave", "Loyal", "Sharp"},
		NegativeTraits: []string{"Stubborn", "Loud", "Impatient"},
		YapsAbout:      "raid strategies",
		FunStat:        "more raid hours than sleep hours",
	}

	embed := PersonalityEmbed(card, 2)

	assert.Equal(t, "🎭 Personality Card", embed.Title)
	if assert.Len(t, embed.Fields, 5) {
		assert.Contains(t, embed.Fields[1].Value, "✨ Brave")
		assert.Contains(t, embed.Fields[2].Value, "🤔 Stubborn")
	}
	assert.Contains(t, embed.Footer.Text, "2 uses remaining")
}

func TestFactEmbed(t *testing.T) {
	embed := FactEmbed("🧠 Daily Did You Know", "Did you know ava raids daily?")
	assert.Equal(t, "Did you know ava raids daily?", embed.Description)
	assert.Equal(t, factFooter, embed.Footer.Text)
}
