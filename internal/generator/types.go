package generator

import (
	"context"

	"ninjserv/internal/adapter"
	"ninjserv/internal/index"
)

// MessageIndex is the retrieval surface the generator reads. Satisfied by
// *index.Repository.
type MessageIndex interface {
	SearchBySimilarity(ctx context.Context, query string, limit int) ([]index.Snippet, error)
	SearchByAuthor(ctx context.Context, authorID, namePattern string, limit int) ([]index.Snippet, error)
	SearchByMention(ctx context.Context, userID string, limit int) ([]index.Snippet, error)
	DistinctActiveAuthors(ctx context.Context, minMessages, maxResults int) ([]index.AuthorCount, error)
	Count(ctx context.Context) (int64, error)
}

// UsedFacts gates emission so no fact is ever sent twice. Satisfied by
// *facts.Tracker.
type UsedFacts interface {
	IsUsed(text string) bool
	MarkUsed(text string)
	Count() int
}

// TextGenerator produces schema-validated structured output. Satisfied by
// *adapter.GenAI.
type TextGenerator interface {
	GenerateStructured(ctx context.Context, prompt string, schema adapter.Schema, out any, maxTokens int, temperature float32) error
}

// FactResponse is a topic-agnostic trivia fact.
type FactResponse struct {
	Fact     string `json:"fact"`
	Category string `json:"category"`
}

// PlayerFactResponse is a fact about a specific server member.
type PlayerFactResponse struct {
	Fact            string  `json:"fact"`
	PlayerName      string  `json:"player_name"`
	Category        string  `json:"category"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// PersonalityCard is a per-request profile of a member. Produced fresh each
// time, never cached, and intentionally allowed to repeat traits.
type PersonalityCard struct {
	Name           string   `json:"name"`
	PositiveTraits []string `json:"positive_traits"`
	NegativeTraits []string `json:"negative_traits"`
	YapsAbout      string   `json:"yaps_about"`
	FunStat        string   `json:"fun_stat"`
}

// Stats summarizes the pipeline for reporting commands.
type Stats struct {
	TotalFactsEmitted     int   `json:"total_facts_emitted"`
	DistinctActiveAuthors int   `json:"distinct_active_authors"`
	TotalMessagesIndexed  int64 `json:"total_messages_indexed"`
}

var factSchema = adapter.Schema{
	Name: "fact",
	Fields: map[string]adapter.FieldKind{
		"fact":     adapter.KindString,
		"category": adapter.KindString,
	},
}

var playerFactSchema = adapter.Schema{
	Name: "player_fact",
	Fields: map[string]adapter.FieldKind{
		"fact":             adapter.KindString,
		"player_name":      adapter.KindString,
		"category":         adapter.KindString,
		"confidence_score": adapter.KindNumber,
	},
}

var personalitySchema = adapter.Schema{
	Name: "personality_card",
	Fields: map[string]adapter.FieldKind{
		"name":            adapter.KindString,
		"positive_traits": adapter.KindStringList,
		"negative_traits": adapter.KindStringList,
		"yaps_about":      adapter.KindString,
		"fun_stat":        adapter.KindString,
	},
}
