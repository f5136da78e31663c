package discord

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestIndexable(t *testing.T) {
	tests := []struct {
		name    string
		message *discordgo.Message
		want    bool
	}{
		{
			name: "Normal chatter - indexed",
			message: &discordgo.Message{
				Author:  &discordgo.User{ID: "user-1"},
				Content: "anyone up for a raid tonight?",
			},
			want: true,
		},
		{
			name: "Bot message - skipped",
			message: &discordgo.Message{
				Author:  &discordgo.User{ID: "bot-1", Bot: true},
				Content: "anyone up for a raid tonight?",
			},
			want: false,
		},
		{
			name: "Prefix command - skipped",
			message: &discordgo.Message{
				Author:  &discordgo.User{ID: "user-1"},
				Content: "!play some music please",
			},
			want: false,
		},
		{
			name: "Slash command text - skipped",
			message: &discordgo.Message{
				Author:  &discordgo.User{ID: "user-1"},
				Content: "/fact something something",
			},
			want: false,
		},
		{
			name: "Too short - skipped",
			message: &discordgo.Message{
				Author:  &discordgo.User{ID: "user-1"},
				Content: "lol",
			},
			want: false,
		},
		{
			name: "Whitespace padding does not rescue short messages",
			message: &discordgo.Message{
				Author:  &discordgo.User{ID: "user-1"},
				Content: "   ok        ",
			},
			want: false,
		},
		{
			name: "Exactly at the length threshold - indexed",
			message: &discordgo.Message{
				Author:  &discordgo.User{ID: "user-1"},
				Content: "1234567890",
			},
			want: true,
		},
		{
			name:    "No author - skipped",
			message: &discordgo.Message{Content: "anyone up for a raid tonight?"},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Indexable(tt.message))
		})
	}
}

func TestRecordFromMessage(t *testing.T) {
	ts := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	msg := &discordgo.Message{
		ID:        "msg-1",
		ChannelID: "chan-1",
		GuildID:   "guild-1",
		Content:   "great game with everyone yesterday",
		Timestamp: ts,
		Author: &discordgo.User{
			ID:         "user-1",
			Username:   "ava_plays",
			GlobalName: "Ava",
		},
		Mentions: []*discordgo.User{
			{ID: "user-2", Username: "kai_gg", GlobalName: "Kai"},
		},
		Attachments: []*discordgo.MessageAttachment{
			{URL: "https://cdn.example/scoreboard.png"},
		},
	}

	rec := RecordFromMessage(msg)

	assert.Equal(t, "msg-1", rec.MessageID)
	assert.Equal(t, "user-1", rec.AuthorID)
	assert.Equal(t, "Ava", rec.AuthorName)
	assert.Equal(t, "great game with everyone yesterday", rec.Content)
	assert.Equal(t, "chan-1", rec.ChannelID)
	assert.Equal(t, "guild-1", rec.GuildID)
	assert.Equal(t, ts, rec.Timestamp)
	assert.Equal(t, []string{"https://cdn.example/scoreboard.png"}, rec.Attachments)
	if assert.Len(t, rec.Mentions, 1) {
		assert.Equal(t, "user-2", rec.Mentions[0].ID)
		assert.Equal(t, "Kai", rec.Mentions[0].Name)
	}
}

func TestRecordFromMessagePrefersGuildNick(t *testing.T) {
	msg := &discordgo.Message{
		ID:      "msg-2",
		Content: "checking in from the guild",
		Author:  &discordgo.User{ID: "user-1", Username: "ava_plays"},
		Member:  &discordgo.Member{Nick: "Raid Leader Ava"},
	}

	rec := RecordFromMessage(msg)
	assert.Equal(t, "Raid Leader Ava", rec.AuthorName)
}

func TestMentionID(t *testing.T) {
	tests := []struct {
		in     string
		wantID string
		ok     bool
	}{
		{"<@123456>", "123456", true},
		{"<@!123456>", "123456", true},
		{"ava", "", false},
		{"<@>", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		id, ok := mentionID(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.wantID, id, "input %q", tt.in)
	}
}
