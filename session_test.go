package triviacards

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func threeQuestions() []Question {
	return []Question{
		{Number: "1", Question: "Q1", Answer: "A1"},
		{Number: "2", Question: "Q2", Answer: "A2"},
		{Number: "3", Question: "Q3", Answer: "A3"},
	}
}

func newTestSession(t *testing.T) *QuizSession {
	t.Helper()
	s, err := NewQuizSession(threeQuestions())
	if err != nil {
		t.Fatalf("NewQuizSession: %v", err)
	}
	return s
}

func mustDo(t *testing.T, step string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", step, err)
	}
}

func TestNewQuizSessionRequiresQuestions(t *testing.T) {
	if _, err := NewQuizSession(nil); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("NewQuizSession(nil) error = %v, want ErrNoQuestions", err)
	}
}

func TestQuizSessionInitialState(t *testing.T) {
	s := newTestSession(t)
	v := s.Snapshot()

	if v.Position != 1 || v.Total != 3 || v.Number != "1" || v.Question != "Q1" {
		t.Fatalf("unexpected initial view %+v", v)
	}
	if v.Answer != "" || v.Revealed {
		t.Fatalf("answer visible before reveal: %+v", v)
	}
	if !v.CanReveal || v.CanRate || v.CanNext || v.CanPrevious || v.Completed {
		t.Fatalf("unexpected controls %+v", v)
	}
}

func TestQuizSessionRevealOnce(t *testing.T) {
	s := newTestSession(t)
	mustDo(t, "reveal", s.Reveal())

	if v := s.Snapshot(); v.Answer != "A1" || !v.Revealed {
		t.Fatalf("answer not shown after reveal: %+v", v)
	}
	if err := s.Reveal(); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("second reveal error = %v, want ErrIllegalTransition", err)
	}
}

func TestQuizSessionRateRequiresReveal(t *testing.T) {
	s := newTestSession(t)
	if err := s.Rate(Correct); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("rate before reveal error = %v, want ErrIllegalTransition", err)
	}
	if s.State().Tally != (Tally{}) {
		t.Fatalf("tally changed by illegal rate: %+v", s.State().Tally)
	}
}

func TestQuizSessionRateIsOneShot(t *testing.T) {
	s := newTestSession(t)
	mustDo(t, "reveal", s.Reveal())
	mustDo(t, "rate", s.Rate(Incorrect))

	if err := s.Rate(Correct); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("re-rate error = %v, want ErrIllegalTransition", err)
	}
	if got := s.State(); got.Rating != Incorrect || got.Tally != (Tally{Incorrect: 1}) {
		t.Fatalf("state after re-rate attempt = %+v", got)
	}
	if err := s.Rate(Unrated); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("rating Unrated error = %v, want ErrIllegalTransition", err)
	}
}

func TestQuizSessionNextRequiresRating(t *testing.T) {
	s := newTestSession(t)
	if err := s.Next(); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("next before rating error = %v", err)
	}
	mustDo(t, "reveal", s.Reveal())
	if err := s.Next(); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("next after reveal only error = %v", err)
	}
	if s.State().Index != 0 {
		t.Fatalf("index moved to %d", s.State().Index)
	}

	mustDo(t, "rate", s.Rate(Correct))
	mustDo(t, "next", s.Next())

	got := s.State()
	want := SessionState{Index: 1, Tally: Tally{Correct: 1}}
	if got != want {
		t.Fatalf("state after next = %+v, want %+v", got, want)
	}
}

func TestQuizSessionTally(t *testing.T) {
	s := newTestSession(t)
	for i, r := range []Rating{Incorrect, Correct, Correct} {
		mustDo(t, "reveal", s.Reveal())
		mustDo(t, "rate", s.Rate(r))
		if i < 2 {
			mustDo(t, "next", s.Next())
		}
	}

	if got := s.State().Tally; got != (Tally{Correct: 2, Incorrect: 1}) {
		t.Fatalf("tally = %+v, want 2 correct 1 incorrect", got)
	}
	if !s.Completed() {
		t.Fatalf("session not completed after rating last question")
	}
	if err := s.Next(); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("next past last question error = %v", err)
	}
}

func TestQuizSessionPreviousForgetsRating(t *testing.T) {
	s := newTestSession(t)
	if err := s.Previous(); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("previous at first question error = %v", err)
	}

	mustDo(t, "reveal", s.Reveal())
	mustDo(t, "rate", s.Rate(Correct))
	mustDo(t, "next", s.Next())
	mustDo(t, "reveal", s.Reveal())
	mustDo(t, "previous", s.Previous())

	got := s.State()
	want := SessionState{Index: 0, Tally: Tally{Correct: 1}}
	if got != want {
		t.Fatalf("state after previous = %+v, want %+v", got, want)
	}

	// Rating again on a second pass counts again
	mustDo(t, "reveal", s.Reveal())
	mustDo(t, "rate", s.Rate(Correct))
	if got := s.State().Tally; got.Correct != 2 {
		t.Fatalf("tally after second pass = %+v", got)
	}
}

func TestQuizSessionReset(t *testing.T) {
	s := newTestSession(t)
	before := s.Questions()

	mustDo(t, "reveal", s.Reveal())
	mustDo(t, "rate", s.Rate(Incorrect))
	mustDo(t, "next", s.Next())
	mustDo(t, "reveal", s.Reveal())
	s.Reset()

	if got := s.State(); got != (SessionState{}) {
		t.Fatalf("state after reset = %+v", got)
	}
	if !reflect.DeepEqual(s.Questions(), before) {
		t.Fatalf("questions changed by reset")
	}
}

func TestQuizSessionProgress(t *testing.T) {
	s := newTestSession(t)
	want := []float64{100.0 / 3, 200.0 / 3, 100}
	for i, w := range want {
		if got := s.Progress(); math.Abs(got-w) > 1e-9 {
			t.Fatalf("progress at %d = %v, want %v", i, got, w)
		}
		if i < len(want)-1 {
			mustDo(t, "reveal", s.Reveal())
			mustDo(t, "rate", s.Rate(Correct))
			mustDo(t, "next", s.Next())
		}
	}
}

func TestQuizSessionQuestionsAreCopied(t *testing.T) {
	qs := threeQuestions()
	s, err := NewQuizSession(qs)
	if err != nil {
		t.Fatalf("NewQuizSession: %v", err)
	}
	qs[0].Question = "changed"
	if s.Current().Question != "Q1" {
		t.Fatalf("session shares caller's slice")
	}
}

func TestResumeQuizSession(t *testing.T) {
	state := SessionState{Index: 2, Revealed: true, Rating: Correct, Tally: Tally{Correct: 2, Incorrect: 1}}
	s, err := ResumeQuizSession(threeQuestions(), state)
	if err != nil {
		t.Fatalf("ResumeQuizSession: %v", err)
	}
	if !s.Completed() || s.Snapshot().Answer != "A3" {
		t.Fatalf("resumed session view %+v", s.Snapshot())
	}

	bad := []SessionState{
		{Index: -1},
		{Index: 3},
		{Index: 0, Rating: Correct},
	}
	for _, st := range bad {
		if _, err := ResumeQuizSession(threeQuestions(), st); err == nil {
			t.Errorf("ResumeQuizSession(%+v) succeeded", st)
		}
	}
}

func TestParseRating(t *testing.T) {
	for in, want := range map[string]Rating{"correct": Correct, "C": Correct, " incorrect ": Incorrect, "i": Incorrect} {
		got, err := ParseRating(in)
		if err != nil || got != want {
			t.Errorf("ParseRating(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseRating("maybe"); err == nil {
		t.Errorf("ParseRating(maybe) succeeded")
	}
}
