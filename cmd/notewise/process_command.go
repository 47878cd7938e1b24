package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"notewise/internal/api"
	"notewise/internal/config"
	"notewise/internal/ingest"
	"notewise/internal/services"
	"notewise/internal/study"
	"notewise/internal/workflow"
)

type summaryFlags struct {
	length string
	style  string
}

func (f *summaryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.length, "length", "", "Summary length: short, medium, or comprehensive (default from config)")
	cmd.Flags().StringVar(&f.style, "style", "", "Summary style: paragraph or bullet_points (default from config)")
}

// options parses only the flags that were set; blank fields fall back to the
// session defaults.
func (f *summaryFlags) options() (study.SummaryOptions, error) {
	var opts study.SummaryOptions
	if strings.TrimSpace(f.length) != "" {
		length, err := study.ParseSummaryLength(f.length)
		if err != nil {
			return opts, services.Wrap(services.ErrValidation, "cli", "summary options", err.Error(), err)
		}
		opts.Length = length
	}
	if strings.TrimSpace(f.style) != "" {
		style, err := study.ParseSummaryStyle(f.style)
		if err != nil {
			return opts, services.Wrap(services.ErrValidation, "cli", "summary options", err.Error(), err)
		}
		opts.Style = style
	}
	return opts, nil
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var text string
	var fromStdin bool
	var jsonOut bool
	var summary summaryFlags

	cmd := &cobra.Command{
		Use:   "process [file]",
		Short: "Generate notes, a summary, flashcards, and key concepts from a document or text",
		Long: "Process a DOCX, PDF, or TXT file, or pasted text via --text or --stdin.\n" +
			"A new input replaces the current session's notes and every derived artifact.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := len(args)
			if cmd.Flags().Changed("text") {
				sources++
			}
			if fromStdin {
				sources++
			}
			if sources != 1 {
				return errors.New("provide exactly one of a file, --text, or --stdin")
			}
			opts, err := summary.options()
			if err != nil {
				return err
			}

			return ctx.withSession(cmd, func(a *app) error {
				var res workflow.RunResult
				switch {
				case len(args) == 1:
					res, err = processFile(cmd, a, args[0], opts)
				case fromStdin:
					data, readErr := io.ReadAll(cmd.InOrStdin())
					if readErr != nil {
						return fmt.Errorf("read stdin: %w", readErr)
					}
					res, err = a.session.Process(cmd.Context(), ingest.TextInput(string(data)), opts)
				default:
					res, err = a.session.Process(cmd.Context(), ingest.TextInput(text), opts)
				}
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, api.FromRunResult(res))
				}
				printRunResult(cmd.OutOrStdout(), res, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Process pasted text instead of a file")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the text to process from standard input")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the run result as JSON")
	summary.register(cmd)
	cmd.MarkFlagsMutuallyExclusive("text", "stdin")
	return cmd
}

func processFile(cmd *cobra.Command, a *app, path string, opts study.SummaryOptions) (workflow.RunResult, error) {
	resolved, err := config.ExpandPath(path)
	if err != nil {
		return workflow.RunResult{}, fmt.Errorf("resolve path: %w", err)
	}
	file, err := os.Open(resolved)
	if err != nil {
		return workflow.RunResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return a.session.Ingest(cmd.Context(), filepath.Base(resolved), "", file, opts)
}

func newRegenerateCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var summary summaryFlags

	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Rebuild the summary, flashcards, and key concepts from the current notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := summary.options()
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, func(a *app) error {
				res, err := a.session.Regenerate(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, api.FromRunResult(res))
				}
				printRunResult(cmd.OutOrStdout(), res, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the run result as JSON")
	summary.register(cmd)
	return cmd
}
