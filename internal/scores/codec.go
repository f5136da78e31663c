package scores

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "ninjserv/pkg/errors"
)

// Substitution table used by the game's results screen. Letters map to score
// digits and separators; anything outside the table invalidates the code.
var obfuscation = map[rune]rune{
	'Q': '0', 'W': '1', 'E': '2', 'R': '3', 'T': '4',
	'Y': '5', 'U': '6', 'I': '7', 'O': '8', 'P': '9',
	'A': '|', 'S': '+',
}

// checksumCharset orders the decoded alphabet; a character's position in it
// feeds the checksum.
const checksumCharset = "0123456789+|"

const maxScoreValue = 999999

// ScoreData is the parsed payload of a verified score code.
type ScoreData struct {
	Kills   int
	Deaths  int
	KDRatio float64
}

// computeChecksum derives the expected checksum for a decoded score string.
func computeChecksum(decoded string) string {
	sum := 0
	for _, ch := range decoded {
		if idx := strings.IndexRune(checksumCharset, ch); idx >= 0 {
			sum += idx * 7
		}
	}
	return strconv.Itoa(sum % 100)
}

// decodeScoreCode maps the obfuscated letters back to score characters.
// Unknown letters become '?' so the caller can reject the whole code.
func decodeScoreCode(encoded string) string {
	var b strings.Builder
	for _, ch := range encoded {
		if plain, ok := obfuscation[ch]; ok {
			b.WriteRune(plain)
		} else {
			b.WriteRune('?')
		}
	}
	return b.String()
}

// DecodeAndVerify decodes a full score code of the form CODE-CHECKSUM and
// verifies its checksum. It returns the decoded score string, e.g. "15|3".
func DecodeAndVerify(code string) (string, error) {
	encoded, checksum, found := strings.Cut(code, "-")
	if !found {
		return "", apperrors.NewScoreCodeInvalid(code, "missing checksum separator")
	}
	if encoded == "" || checksum == "" {
		return "", apperrors.NewScoreCodeInvalid(code, "empty parts")
	}

	decoded := decodeScoreCode(encoded)
	if strings.ContainsRune(decoded, '?') {
		return "", apperrors.NewScoreCodeInvalid(code, "invalid characters in score code")
	}
	if strings.Count(decoded, "|") != 1 {
		return "", apperrors.NewScoreCodeInvalid(code, "invalid score format")
	}

	if expected := computeChecksum(decoded); expected != checksum {
		return "", apperrors.NewScoreCodeInvalid(code, fmt.Sprintf("checksum verification failed (expected %s, got %s)", expected, checksum))
	}

	return decoded, nil
}

// ParseScoreData splits a decoded score string into kills and deaths and
// validates their ranges.
func ParseScoreData(decoded string) (ScoreData, error) {
	killsPart, deathsPart, found := strings.Cut(decoded, "|")
	if !found {
		return ScoreData{}, apperrors.NewScoreCodeInvalid(decoded, "invalid score format")
	}

	kills, err := strconv.Atoi(killsPart)
	if err != nil {
		return ScoreData{}, apperrors.NewScoreCodeInvalid(decoded, "non-numeric kill count")
	}
	deaths, err := strconv.Atoi(deathsPart)
	if err != nil {
		return ScoreData{}, apperrors.NewScoreCodeInvalid(decoded, "non-numeric death count")
	}

	if kills < 0 || deaths < 0 {
		return ScoreData{}, apperrors.NewScoreCodeInvalid(decoded, "negative score values")
	}
	if kills > maxScoreValue || deaths > maxScoreValue {
		return ScoreData{}, apperrors.NewScoreCodeInvalid(decoded, "unrealistic score values")
	}

	data := ScoreData{Kills: kills, Deaths: deaths}
	if deaths > 0 {
		data.KDRatio = float64(kills) / float64(deaths)
	} else {
		data.KDRatio = float64(kills)
	}
	return data, nil
}
