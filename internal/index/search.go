package index

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

const messageProjection = `
	RETURN node.author_id as author_id,
	       node.author_name as author_name,
	       node.content as content,
	       node.channel_name as channel_name,
	       node.timestamp as timestamp,
	       score
`

// SearchBySimilarity embeds the query and runs a nearest-neighbor search over
// stored vectors, ranked by cosine similarity. Any failure of the embedding
// provider or the vector backend degrades to SearchByText; an empty result
// set from a successful vector query is terminal and does not fall back.
func (r *Repository) SearchBySimilarity(ctx context.Context, query string, limit int) ([]Snippet, error) {
	if limit < 1 {
		limit = 5
	}
	if !r.vectorSearch {
		return r.SearchByText(ctx, query, limit)
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Warn("Query embedding failed, falling back to text search",
			zap.Error(err),
		)
		return r.SearchByText(ctx, query, limit)
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	cypher := fmt.Sprintf(`
		CALL db.index.vector.queryNodes('%s', $limit, $vector)
		YIELD node, score
		%s
	`, vectorIndexName, messageProjection)

	result, err := session.Run(ctx, cypher, map[string]interface{}{
		"limit":  limit,
		"vector": vector,
	})
	if err != nil {
		r.logger.Warn("Vector search failed, falling back to text search",
			zap.Error(err),
		)
		return r.SearchByText(ctx, query, limit)
	}

	var snippets []Snippet
	for result.Next(ctx) {
		snippets = append(snippets, snippetFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		r.logger.Warn("Vector search cursor failed, falling back to text search",
			zap.Error(err),
		)
		return r.SearchByText(ctx, query, limit)
	}

	return snippets, nil
}

// SearchByText is the keyword/fulltext fallback over content, author name and
// the composed search blob.
func (r *Repository) SearchByText(ctx context.Context, query string, limit int) ([]Snippet, error) {
	if limit < 1 {
		limit = 5
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	cypher := fmt.Sprintf(`
		CALL db.index.fulltext.queryNodes('%s', $query)
		YIELD node, score
		WITH node, score LIMIT $limit
		%s
	`, fulltextIndexName, messageProjection)

	result, err := session.Run(ctx, cypher, map[string]interface{}{
		"query": query,
		"limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("text search failed: %w", err)
	}

	var snippets []Snippet
	for result.Next(ctx) {
		snippets = append(snippets, snippetFromRecord(result.Record()))
	}
	return snippets, result.Err()
}

// SearchByAuthor lists a person's own messages most-recent-first. authorID
// takes precedence; when empty, namePattern matches author names
// case-insensitively.
func (r *Repository) SearchByAuthor(ctx context.Context, authorID, namePattern string, limit int) ([]Snippet, error) {
	if limit < 1 {
		limit = 10
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	var cypher string
	params := map[string]interface{}{"limit": limit}
	if authorID != "" {
		cypher = `
			MATCH (node:Message {author_id: $authorID})
			WITH node, 0.0 as score
			ORDER BY node.timestamp DESC LIMIT $limit
		` + messageProjection
		params["authorID"] = authorID
	} else {
		cypher = `
			MATCH (node:Message)
			WHERE toLower(node.author_name) CONTAINS toLower($pattern)
			WITH node, 0.0 as score
			ORDER BY node.timestamp DESC LIMIT $limit
		` + messageProjection
		params["pattern"] = namePattern
	}

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("author search failed: %w", err)
	}

	var snippets []Snippet
	for result.Next(ctx) {
		snippets = append(snippets, snippetFromRecord(result.Record()))
	}
	return snippets, result.Err()
}

// SearchByMention lists messages that mention the given user id,
// most-recent-first.
func (r *Repository) SearchByMention(ctx context.Context, userID string, limit int) ([]Snippet, error) {
	if limit < 1 {
		limit = 10
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	cypher := `
		MATCH (node:Message)
		WHERE $userID IN node.mention_ids
		WITH node, 0.0 as score
		ORDER BY node.timestamp DESC LIMIT $limit
	` + messageProjection

	result, err := session.Run(ctx, cypher, map[string]interface{}{
		"userID": userID,
		"limit":  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("mention search failed: %w", err)
	}

	var snippets []Snippet
	for result.Next(ctx) {
		snippets = append(snippets, snippetFromRecord(result.Record()))
	}
	return snippets, result.Err()
}

// DistinctActiveAuthors returns authors with at least minMessages stored
// messages, ordered by message count descending and capped at maxResults.
func (r *Repository) DistinctActiveAuthors(ctx context.Context, minMessages, maxResults int) ([]AuthorCount, error) {
	if minMessages < 1 {
		minMessages = 5
	}
	if maxResults < 1 {
		maxResults = 50
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	cypher := `
		MATCH (m:Message)
		WITH m.author_name as name, head(collect(m.author_id)) as user_id, count(m) as messages
		WHERE messages >= $minMessages
		RETURN name, user_id, messages
		ORDER BY messages DESC
		LIMIT $maxResults
	`

	result, err := session.Run(ctx, cypher, map[string]interface{}{
		"minMessages": minMessages,
		"maxResults":  maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("active author aggregation failed: %w", err)
	}

	var authors []AuthorCount
	for result.Next(ctx) {
		record := result.Record()
		authors = append(authors, AuthorCount{
			Name:     getStringFromRecord(record, "name"),
			UserID:   getStringFromRecord(record, "user_id"),
			Messages: getInt64FromRecord(record, "messages"),
		})
	}
	return authors, result.Err()
}
