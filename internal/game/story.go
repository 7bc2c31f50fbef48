package game

import "strings"

// MinimumStoryLength is the shortest story a storyteller may submit, after
// whitespace normalization.
const MinimumStoryLength = 3

var blockedWords = []string{
	"fuck",
	"shit",
	"cunt",
}

// NormalizeSpace collapses all runs of whitespace into single spaces and
// trims the ends.
func NormalizeSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ValidateStory normalizes and checks a storyteller's story. An empty story
// is a missing input; a too-short or filtered story is rejected.
func ValidateStory(story string) (string, error) {
	story = NormalizeSpace(story)
	if story == "" {
		return "", ErrMissingInput
	}
	if len(story) < MinimumStoryLength {
		return "", ErrStoryRejected
	}
	lower := strings.ToLower(story)
	for _, word := range blockedWords {
		if strings.Contains(lower, word) {
			return "", ErrStoryRejected
		}
	}
	return story, nil
}
