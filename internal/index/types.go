package index

import "time"

// Mention is a (user id, display name) pair extracted from a message.
type Mention struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MessageRecord is an inbound chat message to be indexed. MessageID is
// globally unique; re-ingesting the same id is a no-op.
type MessageRecord struct {
	MessageID   string    `json:"message_id"`
	AuthorID    string    `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	Content     string    `json:"content"`
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	GuildID     string    `json:"guild_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Attachments []string  `json:"attachments,omitempty"`
	Mentions    []Mention `json:"mentions,omitempty"`
}

// Snippet is a bounded excerpt of a stored message returned by retrieval.
// Score is a similarity score for vector/fulltext results and zero for
// recency-ordered listings. Never persisted.
type Snippet struct {
	AuthorID    string    `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	Content     string    `json:"content"`
	ChannelName string    `json:"channel_name"`
	Timestamp   time.Time `json:"timestamp"`
	Score       float64   `json:"score"`
}

// AuthorCount is one row of the active-author aggregation.
type AuthorCount struct {
	Name     string `json:"name"`
	UserID   string `json:"user_id"`
	Messages int64  `json:"messages"`
}
