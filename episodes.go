package triviacards

import (
	"fmt"
	"strings"
)

// ListEpisodes returns the distinct episode identifiers found in column 0
// of a trivia file, in order of first appearance. A value counts as an
// episode only when it looks like a video file name.
func ListEpisodes(text string) []Episode {
	seen := make(map[Episode]struct{})
	var episodes []Episode

	for _, line := range splitLines(text) {
		first := field(TokenizeLine(line), 0)
		if !isEpisodeHeader(first) {
			continue
		}
		ep := Episode(first)
		if _, ok := seen[ep]; ok {
			continue
		}
		seen[ep] = struct{}{}
		episodes = append(episodes, ep)
	}

	return episodes
}

func isEpisodeHeader(value string) bool {
	return value != "" && strings.Contains(value, ".") && strings.Contains(value, "mp4")
}

// LoadCatalog lists the episodes of a file, failing when there are none
func LoadCatalog(text string) ([]Episode, error) {
	episodes := ListEpisodes(text)
	if len(episodes) == 0 {
		return nil, ErrNoEpisodes
	}
	VerboseLog("Catalog contains %d episodes", len(episodes))
	return episodes, nil
}

// ExtractQuestions returns the questions of one episode block. The block
// starts at the row whose column 0 equals the episode and ends at the next
// row with any other non-empty column 0, or at end of file.
func ExtractQuestions(text string, episode Episode) []Question {
	var (
		questions []Question
		inside    bool
	)

	for _, line := range splitLines(text) {
		columns := TokenizeLine(line)
		first := field(columns, 0)

		if first == string(episode) {
			inside = true
			continue
		}

		if first != "" && inside {
			break
		}

		if !inside || field(columns, 1) == "" {
			continue
		}

		q := Question{
			Number:   field(columns, 1),
			Question: stripQuotes(field(columns, 2)),
			Answer:   stripQuotes(field(columns, 3)),
		}
		if q.Question == "" || q.Answer == "" {
			continue
		}
		questions = append(questions, q)
	}

	return questions
}

// LoadEpisode extracts an episode's questions, failing when there are none
func LoadEpisode(text string, episode Episode) ([]Question, error) {
	questions := ExtractQuestions(text, episode)
	if len(questions) == 0 {
		return nil, fmt.Errorf("episode %s: %w", episode.DisplayName(), ErrNoQuestions)
	}
	VerboseLog("Extracted %d questions for episode %s", len(questions), episode)
	return questions, nil
}
