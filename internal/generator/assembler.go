package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"
	"ninjserv/internal/index"
	"ninjserv/pkg/logger"
)

var (
	// ErrNoSubject means the index holds no active author to pick from.
	ErrNoSubject = errors.New("no subject available")
	// ErrNoContext means retrieval produced nothing for the subject.
	ErrNoContext = errors.New("no context for subject")
)

// ContextConfig bounds one assembly pass. Mention retrieval uses a third of
// the own-message limit so recency dominates within each source while
// third-party mentions still surface when the subject is quiet.
type ContextConfig struct {
	OwnLimit     int // subject's own messages when the id is known
	SnippetChars int // per-snippet character budget
	MaxSnippets  int // total snippets handed to prompt construction
}

// FactContext sizes retrieval for short facts.
var FactContext = ContextConfig{OwnLimit: 15, SnippetChars: 200, MaxSnippets: 10}

// ProfileContext sizes retrieval for personality cards.
var ProfileContext = ContextConfig{OwnLimit: 20, SnippetChars: 300, MaxSnippets: 15}

const (
	activeAuthorMinMessages = 5
	activeAuthorMaxResults  = 50
	nameSimilarityLimit     = 10
	nameDirectLimit         = 5
)

// Assembler merges direct-authorship, mention and similarity retrieval into
// one ranked, size-bounded snippet list for a target identity.
type Assembler struct {
	index  MessageIndex
	logger *zap.Logger
}

// NewAssembler creates a context assembler over the message index
func NewAssembler(idx MessageIndex) *Assembler {
	return &Assembler{
		index:  idx,
		logger: logger.Get(),
	}
}

// PickSubject chooses a subject uniformly at random among the most active
// authors. Returns ErrNoSubject when the index has no qualifying author.
func (a *Assembler) PickSubject(ctx context.Context) (name, userID string, err error) {
	authors, err := a.index.DistinctActiveAuthors(ctx, activeAuthorMinMessages, activeAuthorMaxResults)
	if err != nil {
		return "", "", fmt.Errorf("failed to list active authors: %w", err)
	}
	if len(authors) == 0 {
		return "", "", ErrNoSubject
	}

	picked := authors[rand.IntN(len(authors))]
	a.logger.Debug("Picked random subject",
		zap.String("name", picked.Name),
		zap.Int64("messages", picked.Messages),
	)
	return picked.Name, picked.UserID, nil
}

// Assemble gathers context for a subject known by display name and/or stable
// id. With an id: the subject's own messages first, then messages mentioning
// them. With only a name: similarity results seeded with a synthetic query
// first, then the subject's own messages by name pattern. The merged list is
// deduplicated, truncated per snippet and capped. Returns ErrNoContext when
// nothing was retrieved.
func (a *Assembler) Assemble(ctx context.Context, subjectName, subjectID string, cfg ContextConfig) ([]index.Snippet, error) {
	var merged []index.Snippet

	switch {
	case subjectID != "":
		own, err := a.index.SearchByAuthor(ctx, subjectID, "", cfg.OwnLimit)
		if err != nil {
			a.logger.Warn("Own-message retrieval failed",
				zap.String("subject_id", subjectID),
				zap.Error(err),
			)
		}
		mentions, err := a.index.SearchByMention(ctx, subjectID, cfg.OwnLimit/3)
		if err != nil {
			a.logger.Warn("Mention retrieval failed",
				zap.String("subject_id", subjectID),
				zap.Error(err),
			)
		}
		merged = append(own, mentions...)

	case subjectName != "":
		query := fmt.Sprintf("messages about %s activity", subjectName)
		similar, err := a.index.SearchBySimilarity(ctx, query, nameSimilarityLimit)
		if err != nil {
			a.logger.Warn("Similarity retrieval failed",
				zap.String("subject", subjectName),
				zap.Error(err),
			)
		}
		own, err := a.index.SearchByAuthor(ctx, "", subjectName, nameDirectLimit)
		if err != nil {
			a.logger.Warn("Name-pattern retrieval failed",
				zap.String("subject", subjectName),
				zap.Error(err),
			)
		}
		merged = append(similar, own...)

	default:
		return nil, ErrNoContext
	}

	merged = dedupeSnippets(merged)
	if len(merged) == 0 {
		return nil, ErrNoContext
	}

	if len(merged) > cfg.MaxSnippets {
		merged = merged[:cfg.MaxSnippets]
	}
	for i := range merged {
		merged[i].Content = truncate(merged[i].Content, cfg.SnippetChars)
	}

	return merged, nil
}

// dedupeSnippets drops repeated excerpts that came in through more than one
// retrieval pass, keeping first (highest-ranked) occurrences.
func dedupeSnippets(snippets []index.Snippet) []index.Snippet {
	seen := make(map[string]struct{}, len(snippets))
	unique := snippets[:0]
	for _, s := range snippets {
		key := s.AuthorID + "\x00" + s.Content
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, s)
	}
	return unique
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
