package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"triviacards"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "play [file] [episode]",
		Short: "Play an episode as flashcards in the terminal",
		Long:  "Play an episode as flashcards. Without an episode argument a random episode is picked.",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force && !isTerminal(cmd.InOrStdin()) {
				return errors.New("play needs an interactive terminal (use --force to read answers from a pipe)")
			}

			path, rest := ctx.fileArg(args)
			text, err := ctx.loadText(cmd.Context(), path)
			if err != nil {
				return err
			}

			episodes, err := triviacards.LoadCatalog(text)
			if err != nil {
				return err
			}

			var episode triviacards.Episode
			if len(rest) > 0 {
				episode = triviacards.Episode(rest[0])
			} else {
				episode = episodes[rand.IntN(len(episodes))]
			}

			questions, err := triviacards.LoadEpisode(text, episode)
			if err != nil {
				return err
			}
			quiz, err := triviacards.NewQuizSession(questions)
			if err != nil {
				return err
			}

			return playQuiz(cmd.InOrStdin(), cmd.OutOrStdout(), episode, quiz)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Play even when stdin is not a terminal")
	return cmd
}

func isTerminal(r io.Reader) bool {
	file, ok := r.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// playQuiz runs the flashcard loop until the user quits or input ends
func playQuiz(in io.Reader, out io.Writer, episode triviacards.Episode, quiz *triviacards.QuizSession) error {
	scanner := bufio.NewScanner(in)

	fmt.Fprintf(out, "🎯 %s: %d questions ready!\n\n", episode.DisplayName(), len(quiz.Questions()))

	for {
		v := quiz.Snapshot()
		printView(out, v)

		fmt.Fprintf(out, "%s> ", promptFor(v))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		input := strings.ToLower(strings.TrimSpace(scanner.Text()))

		var err error
		switch input {
		case "s", "show":
			err = quiz.Reveal()
		case "c", "correct", "i", "incorrect":
			rating, _ := triviacards.ParseRating(input)
			err = quiz.Rate(rating)
		case "n", "next":
			err = quiz.Next()
		case "p", "previous":
			err = quiz.Previous()
		case "r", "reset":
			quiz.Reset()
		case "q", "quit":
			printSummary(out, quiz.State().Tally)
			return nil
		default:
			fmt.Fprintf(out, "Unknown command %q\n", input)
		}
		if err != nil {
			fmt.Fprintln(out, "Not available right now")
		}
		fmt.Fprintln(out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	printSummary(out, quiz.State().Tally)
	return nil
}

func printView(out io.Writer, v triviacards.View) {
	fmt.Fprintf(out, "Question %d of %d (%.0f%%)   ✅ %d correct  ❌ %d incorrect\n",
		v.Position, v.Total, v.Progress, v.Tally.Correct, v.Tally.Incorrect)
	fmt.Fprintf(out, "#%s: %s\n", v.Number, v.Question)
	if v.Revealed {
		fmt.Fprintf(out, "💡 %s\n", v.Answer)
	}
	if v.Rating != triviacards.Unrated {
		fmt.Fprintf(out, "Rated %s\n", v.Rating)
	}
	if v.Completed {
		fmt.Fprintln(out, "🎉 Episode complete!")
	}
}

func promptFor(v triviacards.View) string {
	var opts []string
	if v.CanReveal {
		opts = append(opts, "[s]how")
	}
	if v.CanRate {
		opts = append(opts, "[c]orrect", "[i]ncorrect")
	}
	if v.CanNext {
		opts = append(opts, "[n]ext")
	}
	if v.CanPrevious {
		opts = append(opts, "[p]revious")
	}
	opts = append(opts, "[r]eset", "[q]uit")
	return strings.Join(opts, " ")
}

func printSummary(out io.Writer, t triviacards.Tally) {
	fmt.Fprintf(out, "🏆 %d correct, %d incorrect", t.Correct, t.Incorrect)
	if t.Answered() > 0 {
		fmt.Fprintf(out, " (%.1f%%)", float64(t.Correct)/float64(t.Answered())*100)
	}
	fmt.Fprintln(out)
}
