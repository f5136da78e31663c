package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"ninjserv/internal/index"
)

// Fake index for testing retrieval composition

type fakeIndex struct {
	own        []index.Snippet
	mentions   []index.Snippet
	similar    []index.Snippet
	authors    []index.AuthorCount
	total      int64
	ownErr     error
	mentionErr error
	similarErr error
	authorsErr error

	lastAuthorID    string
	lastNamePattern string
	lastOwnLimit    int
	lastMentionLim  int
	lastSimQuery    string
}

func (f *fakeIndex) SearchBySimilarity(ctx context.Context, query string, limit int) ([]index.Snippet, error) {
	f.lastSimQuery = query
	if f.similarErr != nil {
		return nil, f.similarErr
	}
	return capped(f.similar, limit), nil
}

func (f *fakeIndex) SearchByAuthor(ctx context.Context, authorID, namePattern string, limit int) ([]index.Snippet, error) {
	f.lastAuthorID = authorID
	f.lastNamePattern = namePattern
	f.lastOwnLimit = limit
	if f.ownErr != nil {
		return nil, f.ownErr
	}
	return capped(f.own, limit), nil
}

func (f *fakeIndex) SearchByMention(ctx context.Context, userID string, limit int) ([]index.Snippet, error) {
	f.lastMentionLim = limit
	if f.mentionErr != nil {
		return nil, f.mentionErr
	}
	return capped(f.mentions, limit), nil
}

func (f *fakeIndex) DistinctActiveAuthors(ctx context.Context, minMessages, maxResults int) ([]index.AuthorCount, error) {
	if f.authorsErr != nil {
		return nil, f.authorsErr
	}
	return f.authors, nil
}

func (f *fakeIndex) Count(ctx context.Context) (int64, error) {
	return f.total, nil
}

func capped(s []index.Snippet, limit int) []index.Snippet {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}

func snippetsNamed(author string, contents ...string) []index.Snippet {
	out := make([]index.Snippet, 0, len(contents))
	for _, c := range contents {
		out = append(out, index.Snippet{AuthorID: author + "-id", AuthorName: author, Content: c})
	}
	return out
}

func TestAssembleByID_OwnBeforeMentions(t *testing.T) {
	idx := &fakeIndex{
		own:      snippetsNamed("ava", "own message one", "own message two"),
		mentions: snippetsNamed("kai", "ava carried the raid"),
	}
	asm := NewAssembler(idx)

	got, err := asm.Assemble(context.Background(), "ava", "ava-id", FactContext)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("Expected 3 snippets, got %d", len(got))
	}
	if got[0].Content != "own message one" || got[1].Content != "own message two" {
		t.Error("Own messages should come before mentions")
	}
	if got[2].Content != "ava carried the raid" {
		t.Error("Mention snippet should follow own messages")
	}

	if idx.lastAuthorID != "ava-id" {
		t.Errorf("Expected id lookup, got author id %q", idx.lastAuthorID)
	}
	if idx.lastOwnLimit != FactContext.OwnLimit {
		t.Errorf("Expected own limit %d, got %d", FactContext.OwnLimit, idx.lastOwnLimit)
	}
	if idx.lastMentionLim != FactContext.OwnLimit/3 {
		t.Errorf("Expected mention limit %d, got %d", FactContext.OwnLimit/3, idx.lastMentionLim)
	}
}

func TestAssembleByName_SimilarityThenOwn(t *testing.T) {
	idx := &fakeIndex{
		similar: snippetsNamed("kai", "kai was unstoppable yesterday"),
		own:     snippetsNamed("kai", "I finally beat that boss"),
	}
	asm := NewAssembler(idx)

	got, err := asm.Assemble(context.Background(), "kai", "", FactContext)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 snippets, got %d", len(got))
	}
	if got[0].Content != "kai was unstoppable yesterday" {
		t.Error("Similarity results should come first for name-only subjects")
	}

	if !strings.Contains(idx.lastSimQuery, "kai") {
		t.Errorf("Similarity query should mention the subject, got %q", idx.lastSimQuery)
	}
	if idx.lastNamePattern != "kai" || idx.lastAuthorID != "" {
		t.Error("Name-only subjects should search by name pattern")
	}
	if idx.lastOwnLimit != nameDirectLimit {
		t.Errorf("Expected name-path own limit %d, got %d", nameDirectLimit, idx.lastOwnLimit)
	}
}

func TestAssembleDeduplicatesAndCaps(t *testing.T) {
	var own []index.Snippet
	for i := 0; i < 15; i++ {
		own = append(own, index.Snippet{AuthorID: "ava-id", AuthorName: "ava", Content: fmt.Sprintf("message %d", i)})
	}
	idx := &fakeIndex{
		own: own,
		// Duplicate of an own message arriving through the mention pass
		mentions: []index.Snippet{{AuthorID: "ava-id", AuthorName: "ava", Content: "message 0"}},
	}
	asm := NewAssembler(idx)

	got, err := asm.Assemble(context.Background(), "ava", "ava-id", FactContext)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(got) != FactContext.MaxSnippets {
		t.Errorf("Expected cap at %d snippets, got %d", FactContext.MaxSnippets, len(got))
	}
	seen := make(map[string]bool)
	for _, s := range got {
		key := s.AuthorID + s.Content
		if seen[key] {
			t.Errorf("Duplicate snippet survived: %q", s.Content)
		}
		seen[key] = true
	}
}

func TestAssembleTruncatesSnippets(t *testing.T) {
	long := strings.Repeat("a", 500)
	idx := &fakeIndex{own: snippetsNamed("ava", long)}
	asm := NewAssembler(idx)

	got, err := asm.Assemble(context.Background(), "ava", "ava-id", FactContext)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(got[0].Content) != FactContext.SnippetChars {
		t.Errorf("Expected %d chars, got %d", FactContext.SnippetChars, len(got[0].Content))
	}
}

func TestAssembleNoContext(t *testing.T) {
	asm := NewAssembler(&fakeIndex{})

	if _, err := asm.Assemble(context.Background(), "ghost", "ghost-id", FactContext); !errors.Is(err, ErrNoContext) {
		t.Errorf("Expected ErrNoContext, got %v", err)
	}
	if _, err := asm.Assemble(context.Background(), "", "", FactContext); !errors.Is(err, ErrNoContext) {
		t.Errorf("Expected ErrNoContext for empty subject, got %v", err)
	}
}

func TestAssembleSurvivesPartialRetrievalFailure(t *testing.T) {
	idx := &fakeIndex{
		own:        snippetsNamed("ava", "still retrievable"),
		mentionErr: errors.New("index offline"),
	}
	asm := NewAssembler(idx)

	got, err := asm.Assemble(context.Background(), "ava", "ava-id", FactContext)
	if err != nil {
		t.Fatalf("One failed retrieval pass should not fail assembly: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected the surviving snippet, got %d", len(got))
	}
}

func TestPickSubject(t *testing.T) {
	idx := &fakeIndex{
		authors: []index.AuthorCount{
			{Name: "ava", UserID: "ava-id", Messages: 40},
			{Name: "kai", UserID: "kai-id", Messages: 12},
		},
	}
	asm := NewAssembler(idx)

	name, id, err := asm.PickSubject(context.Background())
	if err != nil {
		t.Fatalf("PickSubject failed: %v", err)
	}
	if (name != "ava" || id != "ava-id") && (name != "kai" || id != "kai-id") {
		t.Errorf("Picked unknown subject %q/%q", name, id)
	}
}

func TestPickSubjectEmptyIndex(t *testing.T) {
	asm := NewAssembler(&fakeIndex{})
	if _, _, err := asm.PickSubject(context.Background()); !errors.Is(err, ErrNoSubject) {
		t.Errorf("Expected ErrNoSubject, got %v", err)
	}
}
