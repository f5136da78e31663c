package generator

import (
	"fmt"
	"strings"

	"ninjserv/internal/index"
)

// renderContext formats retrieved snippets into prompt lines. Snippet text is
// already truncated by the assembler.
func renderContext(snippets []index.Snippet) string {
	lines := make([]string, 0, len(snippets))
	for _, s := range snippets {
		date := "Unknown date"
		if !s.Timestamp.IsZero() {
			date = s.Timestamp.Format("2006-01-02")
		}
		author := s.AuthorName
		if author == "" {
			author = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", author, date, s.Content))
	}
	return strings.Join(lines, "\n")
}

func playerFactPrompt(targetName string, snippets []index.Snippet) string {
	return fmt.Sprintf(`You are creating personalized 'Did you know' facts about Discord server members based on their chat history and mentions.

Rules:
- Start with 'Did you know'
- Keep it under 280 characters
- Focus on their gaming activities, interests, or positive traits shown in messages
- Don't reveal private/sensitive information
- You can be harsh and roast them a little bit for fun
- Use information from both their own messages and messages mentioning them

Context about %s:
%s

Generate a fun 'Did you know' fact about %s based on their activity and mentions in the server.`,
		targetName, renderContext(snippets), targetName)
}

func generalPlayerFactPrompt(targetName string) string {
	return fmt.Sprintf(`Create a fun, generic 'Did you know' fact about a Discord server member named %s.
Make it positive and community-focused without needing specific context.
Start with 'Did you know' and keep under 280 characters.`, targetName)
}

func genericFactPrompt(attempt int) string {
	return fmt.Sprintf(`You are a fact generator. Create interesting, educational 'Did you know' facts.
Rules:
- Start with 'Did you know'
- Keep it under 280 characters
- Make it genuinely interesting and surprising
- Cover diverse topics: science, history, nature, technology, culture, gaming
- Ensure accuracy
- Make it engaging and fun to read

Generate a unique 'Did you know' fact. This is attempt %d, so make it different from common facts.`, attempt)
}

func personalityCardPrompt(targetName string, snippets []index.Snippet) string {
	return fmt.Sprintf(`You are creating a personality card for a Discord server member based on their chat history and mentions. Analyze their communication patterns, interests, and social interactions.

IMPORTANT RULES:
- Be playful but respectful - this is meant to be fun, not mean-spirited
- Base traits on actual observed behavior in messages
- Give exactly three positive traits and exactly three negative traits
- Make the "yaps_about" field their most discussed topic
- The fun_stat should be a little harsh roast
- Keep traits concise (1-3 words each)
- Attack on Titan themed

Context about %s:
%s

Create a personality card that captures their Discord persona in a fun, engaging way. Focus on their communication style, interests, and quirks observed in their messages.`,
		targetName, renderContext(snippets))
}
