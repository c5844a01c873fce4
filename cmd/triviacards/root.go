package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"triviacards"

	"github.com/spf13/cobra"
)

// commandContext carries global flags and the lazily loaded config
type commandContext struct {
	configPath string
	collection string
	verbose    bool
	cfg        *triviacards.Config
}

func (c *commandContext) config() (*triviacards.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := triviacards.LoadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.verbose {
		cfg.Logging.Level = "debug"
	}
	if _, err := triviacards.NewLogger(cfg.Logging, os.Stderr); err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// loadText reads the trivia file named on the command line, either a local
// path or, with --collection, a configured collection.
func (c *commandContext) loadText(ctx context.Context, arg string) (string, error) {
	cfg, err := c.config()
	if err != nil {
		return "", err
	}

	if c.collection != "" {
		col, ok := cfg.Collection(c.collection)
		if !ok {
			return "", fmt.Errorf("collection %q is not configured: %w", c.collection, triviacards.ErrFileUnavailable)
		}
		return triviacards.NewFileSource(cfg.Files).Open(ctx, col.Name)
	}

	if arg == "" {
		return "", fmt.Errorf("a trivia file path or --collection is required: %w", triviacards.ErrFileUnavailable)
	}
	file, err := os.Open(arg)
	if err != nil {
		return "", fmt.Errorf("open %q: %v: %w", arg, err, triviacards.ErrFileUnavailable)
	}
	defer file.Close()
	return triviacards.ReadUpload(filepath.Base(arg), file, cfg.Server.MaxUploadBytes)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "triviacards",
		Short:         "Episode flashcards from a trivia CSV file",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.config()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.collection, "collection", "", "Use a configured collection instead of a file path")
	rootCmd.PersistentFlags().BoolVarP(&ctx.verbose, "verbose", "v", false, "Enable verbose debugging output")

	rootCmd.AddCommand(newEpisodesCommand(ctx))
	rootCmd.AddCommand(newQuestionsCommand(ctx))
	rootCmd.AddCommand(newPlayCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

// fileArg returns the optional leading file argument, which is absent
// when --collection is used.
func (c *commandContext) fileArg(args []string) (string, []string) {
	if c.collection != "" || len(args) == 0 {
		return "", args
	}
	return args[0], args[1:]
}
