package triviacards

import "fmt"

// SessionState is the mutable part of a quiz session. It is plain data so
// front ends can store it between requests and resume from it.
type SessionState struct {
	Index    int
	Revealed bool
	Rating   Rating
	Tally    Tally
}

// QuizSession walks an episode's questions with reveal, rate and
// navigation steps. Each question has a question phase (answer hidden)
// and an answer phase (answer revealed).
type QuizSession struct {
	questions []Question
	state     SessionState
}

// NewQuizSession starts a session at the first question
func NewQuizSession(questions []Question) (*QuizSession, error) {
	return ResumeQuizSession(questions, SessionState{})
}

// ResumeQuizSession rebuilds a session from stored state
func ResumeQuizSession(questions []Question, state SessionState) (*QuizSession, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if state.Index < 0 || state.Index >= len(questions) {
		return nil, fmt.Errorf("resume session: index %d out of range [0,%d)", state.Index, len(questions))
	}
	if state.Rating != Unrated && !state.Revealed {
		return nil, fmt.Errorf("resume session: question %d rated before reveal", state.Index+1)
	}

	qs := make([]Question, len(questions))
	copy(qs, questions)
	return &QuizSession{questions: qs, state: state}, nil
}

// Questions returns a copy of the session's question list
func (s *QuizSession) Questions() []Question {
	qs := make([]Question, len(s.questions))
	copy(qs, s.questions)
	return qs
}

// State returns the current state for storage
func (s *QuizSession) State() SessionState {
	return s.state
}

// Current returns the question at the current position
func (s *QuizSession) Current() Question {
	return s.questions[s.state.Index]
}

func (s *QuizSession) last() int {
	return len(s.questions) - 1
}

func (s *QuizSession) CanReveal() bool {
	return !s.state.Revealed
}

func (s *QuizSession) CanRate() bool {
	return s.state.Revealed && s.state.Rating == Unrated
}

func (s *QuizSession) CanNext() bool {
	return s.state.Index < s.last() && s.state.Rating != Unrated
}

func (s *QuizSession) CanPrevious() bool {
	return s.state.Index > 0
}

// Completed reports whether the last question has been rated
func (s *QuizSession) Completed() bool {
	return s.state.Index == s.last() && s.state.Rating != Unrated
}

// Progress is the 1-based position as a percentage of the question count
func (s *QuizSession) Progress() float64 {
	return float64(s.state.Index+1) / float64(len(s.questions)) * 100
}

// Reveal shows the answer of the current question
func (s *QuizSession) Reveal() error {
	if !s.CanReveal() {
		return fmt.Errorf("reveal: answer already shown: %w", ErrIllegalTransition)
	}
	s.state.Revealed = true
	return nil
}

// Rate records the user's verdict for the current question. A question can
// be rated once per pass.
func (s *QuizSession) Rate(r Rating) error {
	if r != Correct && r != Incorrect {
		return fmt.Errorf("rate: %s is not a verdict: %w", r, ErrIllegalTransition)
	}
	if !s.CanRate() {
		return fmt.Errorf("rate: question %d not awaiting a rating: %w", s.state.Index+1, ErrIllegalTransition)
	}
	s.state.Rating = r
	if r == Correct {
		s.state.Tally.Correct++
	} else {
		s.state.Tally.Incorrect++
	}
	return nil
}

// Next moves to the following question once the current one is rated
func (s *QuizSession) Next() error {
	if !s.CanNext() {
		return fmt.Errorf("next: question %d of %d: %w", s.state.Index+1, len(s.questions), ErrIllegalTransition)
	}
	s.move(s.state.Index + 1)
	return nil
}

// Previous moves back one question. The earlier rating is not restored.
func (s *QuizSession) Previous() error {
	if !s.CanPrevious() {
		return fmt.Errorf("previous: already at first question: %w", ErrIllegalTransition)
	}
	s.move(s.state.Index - 1)
	return nil
}

func (s *QuizSession) move(index int) {
	s.state.Index = index
	s.state.Revealed = false
	s.state.Rating = Unrated
}

// Reset returns to the first question and clears the tally
func (s *QuizSession) Reset() {
	s.state = SessionState{}
}

// View is what a front end needs to draw the current question
type View struct {
	Position    int // 1-based
	Total       int
	Number      string
	Question    string
	Answer      string // empty until revealed
	Revealed    bool
	Rating      Rating
	Tally       Tally
	Progress    float64
	Completed   bool
	CanReveal   bool
	CanRate     bool
	CanNext     bool
	CanPrevious bool
}

// Snapshot describes the session for rendering
func (s *QuizSession) Snapshot() View {
	q := s.Current()
	v := View{
		Position:    s.state.Index + 1,
		Total:       len(s.questions),
		Number:      q.Number,
		Question:    q.Question,
		Revealed:    s.state.Revealed,
		Rating:      s.state.Rating,
		Tally:       s.state.Tally,
		Progress:    s.Progress(),
		Completed:   s.Completed(),
		CanReveal:   s.CanReveal(),
		CanRate:     s.CanRate(),
		CanNext:     s.CanNext(),
		CanPrevious: s.CanPrevious(),
	}
	if s.state.Revealed {
		v.Answer = q.Answer
	}
	return v
}
