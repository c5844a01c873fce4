package triviacards

import (
	"fmt"
	"strings"
	"time"
)

// Question represents a single flashcard taken from an episode block
type Question struct {
	Number   string `json:"number"` // display label, unique only within its episode
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Episode identifies a block of questions in a trivia file. The raw value
// is the lookup key; DisplayName is for presentation only.
type Episode string

// DisplayName returns the episode without its video file suffix
func (e Episode) DisplayName() string {
	return strings.Replace(string(e), ".mp4", "", 1)
}

// Rating is the user's self-assessment of a revealed answer
type Rating int

const (
	Unrated Rating = iota
	Correct
	Incorrect
)

func (r Rating) String() string {
	switch r {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	default:
		return "unrated"
	}
}

// ParseRating converts a form or prompt value into a Rating
func ParseRating(value string) (Rating, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "correct", "c":
		return Correct, nil
	case "incorrect", "i":
		return Incorrect, nil
	default:
		return Unrated, fmt.Errorf("invalid rating: %q", value)
	}
}

// Tally is the running count of self-rated answers in a session
type Tally struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

// Answered returns how many questions have been rated so far
func (t Tally) Answered() int {
	return t.Correct + t.Incorrect
}

// Collection is a question file offered for loading by name
type Collection struct {
	Name        string `toml:"name" json:"name"`
	DisplayName string `toml:"display_name" json:"display_name"`
}

// LoadedFile is the raw text of a trivia file held for one browsing session
type LoadedFile struct {
	Name     string    `json:"name"`
	Content  string    `json:"-"`
	LoadedAt time.Time `json:"loaded_at"`
}
