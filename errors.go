package triviacards

import "errors"

var (
	// ErrFileUnavailable means the trivia file could not be acquired
	ErrFileUnavailable = errors.New("could not load file")
	// ErrNoEpisodes means the file has no episode header rows
	ErrNoEpisodes = errors.New("no episodes found")
	// ErrNoQuestions means the chosen episode has no valid questions
	ErrNoQuestions = errors.New("no questions found")
	// ErrIllegalTransition means a session operation was called outside its phase
	ErrIllegalTransition = errors.New("illegal quiz transition")
	// ErrCacheMiss means no file text is held for the session
	ErrCacheMiss = errors.New("no loaded file for session")
)
