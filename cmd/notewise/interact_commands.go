package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"notewise/internal/api"
	"notewise/internal/services"
	"notewise/internal/study"
)

func newAskCommand(ctx *commandContext) *cobra.Command {
	var listen bool
	var listenTimeout time.Duration
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question answered only from the current notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			if listen && len(args) > 0 {
				return errors.New("pass a question or --listen, not both")
			}
			return ctx.withSession(cmd, func(a *app) error {
				if listen {
					heard, err := listenForQuestion(cmd.Context(), a, listenTimeout)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Heard: %s\n", heard)
					question = heard
				}
				answer, err := a.session.Ask(cmd.Context(), question)
				if err != nil {
					return err
				}
				found := answer != study.NotFoundAnswer
				if jsonOut {
					return writeJSON(cmd, api.AskResponse{Question: strings.TrimSpace(question), Answer: answer, Found: found})
				}
				fmt.Fprintln(cmd.OutOrStdout(), answer)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&listen, "listen", false, "Dictate the question with the configured speech recognizer")
	cmd.Flags().DurationVar(&listenTimeout, "listen-timeout", 30*time.Second, "How long to wait for a dictated question")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// listenForQuestion returns the first non-blank transcript from the session's
// recognizer.
func listenForQuestion(ctx context.Context, a *app, timeout time.Duration) (string, error) {
	sp := a.session.Speech()
	if !sp.CanListen() {
		return "", services.Wrap(services.ErrPrecondition, "cli", "listen",
			"Speech recognition is not available. Set speech.recognize_command in the config.", nil)
	}
	listenCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sp.Open(listenCtx); err != nil {
		return "", fmt.Errorf("start speech recognition: %w", err)
	}
	defer func() { _ = sp.StopListening() }()

	transcripts := sp.Transcripts()
	for {
		select {
		case <-listenCtx.Done():
			return "", services.Wrap(services.ErrTimeout, "cli", "listen", "No question was heard.", listenCtx.Err())
		case text, ok := <-transcripts:
			if !ok {
				return "", services.Wrap(services.ErrValidation, "cli", "listen", "No question was heard.", nil)
			}
			if strings.TrimSpace(text) != "" {
				return strings.TrimSpace(text), nil
			}
		}
	}
}

func newExplainCommand(ctx *commandContext) *cobra.Command {
	var segmentKey string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "explain [text]",
		Short: "Explain a passage in simple terms",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(segmentKey)
			if key != "" && len(args) > 0 {
				return errors.New("pass text or --segment, not both")
			}
			return ctx.withSession(cmd, func(a *app) error {
				resp := api.ExplainResponse{Text: strings.Join(args, " ")}
				if key != "" {
					segment, explanation, err := a.session.ExplainSegment(cmd.Context(), key)
					if err != nil {
						return err
					}
					resp.Key = segment.Key
					resp.Text = segment.Text
					resp.Explanation = explanation
				} else {
					explanation, err := a.session.Explain(cmd.Context(), resp.Text)
					if err != nil {
						return err
					}
					resp.Explanation = explanation
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Explanation)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&segmentKey, "segment", "", "Explain the notes segment with this key (see `notewise segments`)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newSegmentsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "segments",
		Short: "List the addressable segments of the current notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(a *app) error {
				segments := api.FromSegments(a.session.Segments(), a.session.Highlights(), a.session.Annotations())
				if jsonOut {
					_, version := a.session.Notes()
					return writeJSON(cmd, api.SegmentsResponse{NotesVersion: version, Segments: segments})
				}
				if len(segments) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No notes yet. Run `notewise process` first.")
					return nil
				}
				rows := make([][]string, 0, len(segments))
				for _, seg := range segments {
					mark := ""
					if seg.Highlighted {
						mark = "*"
					}
					rows = append(rows, []string{seg.Key, seg.Kind, mark, truncate(seg.Text, 60), truncate(seg.Annotation, 40)})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
					{header: "Key"}, {header: "Kind"}, {header: "HL"}, {header: "Text"}, {header: "Annotation"},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newHighlightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "highlight <key>",
		Short: "Toggle the highlight on a notes segment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(a *app) error {
				on, err := a.session.ToggleHighlight(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				state := "removed"
				if on {
					state = "added"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Highlight %s on %s\n", state, args[0])
				return nil
			})
		},
	}
}

func newAnnotateCommand(ctx *commandContext) *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "annotate <key> [text]",
		Short: "Attach a note to a segment, or remove it with --delete",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			text := strings.Join(args[1:], " ")
			if remove && text != "" {
				return errors.New("--delete does not take annotation text")
			}
			return ctx.withSession(cmd, func(a *app) error {
				if remove {
					if err := a.session.DeleteAnnotation(cmd.Context(), key); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Annotation removed from %s\n", key)
					return nil
				}
				if err := a.session.SetAnnotation(cmd.Context(), key, text); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Annotation saved on %s\n", key)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&remove, "delete", false, "Remove the annotation")
	return cmd
}

func truncate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
