package generator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"ninjserv/internal/index"
	"ninjserv/pkg/logger"
)

// Fixed terminal fallbacks. Fact generation must never fail outright; when
// every strategy is spent one of these is returned.
const (
	fallbackServiceDown = "Did you know that this bot is trying its best to bring you interesting facts every day? 🤖"
	fallbackAllUsed     = "Did you know that persistence is key to success? Today's fact generation needed a few tries! 💪"
)

const genericAttempts = 5

// factState names a step of the fact fallback chain.
type factState int

const (
	stateStart factState = iota
	stateAttemptSpecific
	stateAttemptGeneral
	stateGeneric
)

// Generator walks the fallback chain from context-grounded generation down to
// the static literals, consulting the uniqueness tracker before every
// emission of a fact.
type Generator struct {
	assembler *Assembler
	index     MessageIndex
	genai     TextGenerator
	used      UsedFacts
	logger    *zap.Logger
}

// NewGenerator creates the generation orchestrator
func NewGenerator(idx MessageIndex, genai TextGenerator, used UsedFacts) *Generator {
	return &Generator{
		assembler: NewAssembler(idx),
		index:     idx,
		genai:     genai,
		used:      used,
		logger:    logger.Get(),
	}
}

// GenerateFact produces a never-before-seen fact about the subject. Either
// identifier may be empty; with neither, a random active author is chosen.
// Every failure path degrades to the next strategy, so a usable string always
// comes back.
func (g *Generator) GenerateFact(ctx context.Context, subjectName, subjectID string) string {
	var snippets []index.Snippet
	serviceFailed := false

	state := stateStart
	for {
		switch state {

		case stateStart:
			if subjectName == "" && subjectID == "" {
				name, id, err := g.assembler.PickSubject(ctx)
				if err != nil {
					if !errors.Is(err, ErrNoSubject) {
						g.logger.Warn("Subject selection failed", zap.Error(err))
					}
					state = stateGeneric
					continue
				}
				subjectName, subjectID = name, id
			}

			ctxSnippets, err := g.assembler.Assemble(ctx, subjectName, subjectID, FactContext)
			if err != nil {
				if !errors.Is(err, ErrNoContext) {
					g.logger.Warn("Context assembly failed",
						zap.String("subject", subjectName),
						zap.Error(err),
					)
				}
				state = stateGeneric
				continue
			}
			snippets = ctxSnippets
			if subjectName == "" {
				subjectName = snippets[0].AuthorName
			}
			state = stateAttemptSpecific

		case stateAttemptSpecific:
			var resp PlayerFactResponse
			err := g.genai.GenerateStructured(ctx, playerFactPrompt(subjectName, snippets), playerFactSchema, &resp, 150, 0.7)
			if err != nil {
				g.logger.Warn("Player fact generation failed",
					zap.String("subject", subjectName),
					zap.Error(err),
				)
				serviceFailed = true
				state = stateGeneric
				continue
			}
			if !g.used.IsUsed(resp.Fact) {
				g.used.MarkUsed(resp.Fact)
				g.logger.Info("Generated player fact",
					zap.String("subject", subjectName),
					zap.String("category", resp.Category),
				)
				return resp.Fact
			}
			// Duplicate of an earlier emission; one context-free try remains
			state = stateAttemptGeneral

		case stateAttemptGeneral:
			var resp PlayerFactResponse
			err := g.genai.GenerateStructured(ctx, generalPlayerFactPrompt(subjectName), playerFactSchema, &resp, 120, 0.8)
			if err != nil {
				g.logger.Warn("General player fact generation failed",
					zap.String("subject", subjectName),
					zap.Error(err),
				)
				serviceFailed = true
				state = stateGeneric
				continue
			}
			// Accepted as a degraded result without a uniqueness check
			return resp.Fact

		case stateGeneric:
			for attempt := 1; attempt <= genericAttempts; attempt++ {
				var resp FactResponse
				err := g.genai.GenerateStructured(ctx, genericFactPrompt(attempt), factSchema, &resp, 120, 0.8)
				if err != nil {
					g.logger.Warn("Generic fact generation failed",
						zap.Int("attempt", attempt),
						zap.Error(err),
					)
					serviceFailed = true
					continue
				}
				if g.used.IsUsed(resp.Fact) {
					g.logger.Debug("Generic fact already used",
						zap.Int("attempt", attempt),
					)
					continue
				}
				g.used.MarkUsed(resp.Fact)
				return resp.Fact
			}
			if serviceFailed {
				return fallbackServiceDown
			}
			return fallbackAllUsed
		}
	}
}

// GeneratePersonalityCard produces a profile for the subject. Profiles are
// synthesized per request with no uniqueness check; every failure resolves to
// a fixed fallback card rather than an error.
func (g *Generator) GeneratePersonalityCard(ctx context.Context, subjectName, subjectID string) *PersonalityCard {
	snippets, err := g.assembler.Assemble(ctx, subjectName, subjectID, ProfileContext)
	if err != nil {
		if !errors.Is(err, ErrNoContext) {
			g.logger.Warn("Profile context assembly failed",
				zap.String("subject", subjectName),
				zap.Error(err),
			)
		}
		return mysteriousCard(subjectName)
	}

	var card PersonalityCard
	err = g.genai.GenerateStructured(ctx, personalityCardPrompt(subjectName, snippets), personalitySchema, &card, 300, 0.8)
	if err != nil {
		g.logger.Warn("Personality card generation failed",
			zap.String("subject", subjectName),
			zap.Error(err),
		)
		return safeCard(subjectName)
	}

	if card.Name == "" {
		card.Name = subjectName
	}
	card.PositiveTraits = exactlyThree(card.PositiveTraits, "Friendly", "Active", "Engaging")
	card.NegativeTraits = exactlyThree(card.NegativeTraits, "Sometimes quiet", "Mysterious", "Unpredictable")
	return &card
}

// GenerateStats reports pipeline totals for the stats surfaces. Retrieval
// failures degrade to zero counts instead of propagating.
func (g *Generator) GenerateStats(ctx context.Context) Stats {
	stats := Stats{TotalFactsEmitted: g.used.Count()}

	authors, err := g.index.DistinctActiveAuthors(ctx, activeAuthorMinMessages, activeAuthorMaxResults)
	if err != nil {
		g.logger.Warn("Active author count failed", zap.Error(err))
	} else {
		stats.DistinctActiveAuthors = len(authors)
	}

	total, err := g.index.Count(ctx)
	if err != nil {
		g.logger.Warn("Message count failed", zap.Error(err))
	} else {
		stats.TotalMessagesIndexed = total
	}

	return stats
}

// mysteriousCard is the fallback for subjects with no retrievable history.
func mysteriousCard(name string) *PersonalityCard {
	return &PersonalityCard{
		Name:           name,
		PositiveTraits: []string{"Mysterious", "Unique", "Independent"},
		NegativeTraits: []string{"Elusive", "Hard to read", "Keeps secrets"},
		YapsAbout:      "the mysteries of life",
		FunStat:        fmt.Sprintf("%s is so mysterious, even their own shadow doesn't know what they're thinking! 🕵️", name),
	}
}

// safeCard is the fallback when the generative service fails.
func safeCard(name string) *PersonalityCard {
	return &PersonalityCard{
		Name:           name,
		PositiveTraits: []string{"Friendly", "Active", "Engaging"},
		NegativeTraits: []string{"Sometimes quiet", "Mysterious", "Unpredictable"},
		YapsAbout:      "various interesting topics",
		FunStat:        fmt.Sprintf("%s is like a good book - interesting, but we're still figuring out the plot! 📚", name),
	}
}

// exactlyThree clamps or pads a trait list to exactly three entries.
func exactlyThree(traits []string, fill ...string) []string {
	if len(traits) > 3 {
		return traits[:3]
	}
	for i := len(traits); i < 3; i++ {
		traits = append(traits, fill[i])
	}
	return traits
}
