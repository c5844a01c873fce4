package main

import (
	"fmt"
	"strconv"

	"triviacards"

	"github.com/spf13/cobra"
)

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "episodes [file]",
		Short: "List the episodes in a trivia file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := ctx.fileArg(args)
			text, err := ctx.loadText(cmd.Context(), path)
			if err != nil {
				return err
			}
			episodes, err := triviacards.LoadCatalog(text)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(episodes))
			for i, ep := range episodes {
				rows = append(rows, []string{strconv.Itoa(i + 1), ep.DisplayName(), string(ep)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Episode", "ID"}, rows, 0))
			return nil
		},
	}
}

func newQuestionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "questions [file] <episode>",
		Short: "Print the questions of one episode",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, rest := ctx.fileArg(args)
			if len(rest) != 1 {
				return fmt.Errorf("expected exactly one episode argument")
			}
			text, err := ctx.loadText(cmd.Context(), path)
			if err != nil {
				return err
			}
			questions, err := triviacards.LoadEpisode(text, triviacards.Episode(rest[0]))
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(questions))
			for _, q := range questions {
				rows = append(rows, []string{q.Number, q.Question, q.Answer})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Question", "Answer"}, rows, 2))
			return nil
		},
	}
}
