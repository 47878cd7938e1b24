package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"notewise/internal/api"
	"notewise/internal/study"
)

func newArtifactCommands(ctx *commandContext) []*cobra.Command {
	var notesJSON bool
	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "Print the current study notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(a *app) error {
				text, version := a.session.Notes()
				if notesJSON {
					return writeJSON(cmd, map[string]any{"notes": text, "notesVersion": version})
				}
				printNotes(cmd.OutOrStdout(), text, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}
	notesCmd.Flags().BoolVar(&notesJSON, "json", false, "Output as JSON")

	var summaryJSON bool
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the current summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(a *app) error {
				summary, ok := a.session.Summary()
				if summaryJSON {
					if !ok {
						return writeJSON(cmd, nil)
					}
					return writeJSON(cmd, api.FromSummary(summary))
				}
				printSummary(cmd.OutOrStdout(), summary, ok, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "Output as JSON")

	var cardsJSON bool
	var review bool
	flashcardsCmd := &cobra.Command{
		Use:   "flashcards",
		Short: "Print the current flashcards or review them one at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(a *app) error {
				set, ok := a.session.Flashcards()
				switch {
				case review:
					return reviewDeck(cmd.InOrStdin(), cmd.OutOrStdout(), study.NewDeck(set))
				case cardsJSON:
					return writeJSON(cmd, api.FromFlashcards(set))
				default:
					printFlashcards(cmd.OutOrStdout(), set, ok, shouldColorize(cmd.OutOrStdout()))
					return nil
				}
			})
		},
	}
	flashcardsCmd.Flags().BoolVar(&cardsJSON, "json", false, "Output as JSON")
	flashcardsCmd.Flags().BoolVar(&review, "review", false, "Step through the cards interactively")
	flashcardsCmd.MarkFlagsMutuallyExclusive("json", "review")

	var conceptsJSON bool
	conceptsCmd := &cobra.Command{
		Use:   "concepts",
		Short: "Print the current key concepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(a *app) error {
				set, ok := a.session.KeyConcepts()
				if conceptsJSON {
					return writeJSON(cmd, api.FromConcepts(set))
				}
				printConcepts(cmd.OutOrStdout(), set, ok, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}
	conceptsCmd.Flags().BoolVar(&conceptsJSON, "json", false, "Output as JSON")

	return []*cobra.Command{notesCmd, summaryCmd, flashcardsCmd, conceptsCmd}
}

const reviewHelp = "[Enter/n] next  [p] previous  [a] show answer  [q] quit"

// reviewDeck reads one navigation command per line until q or end of input.
func reviewDeck(in io.Reader, out io.Writer, deck *study.Deck) error {
	card, ok := deck.Current()
	if !ok {
		fmt.Fprintln(out, "No flashcards available.")
		return nil
	}
	fmt.Fprintln(out, reviewHelp)
	showCard := func(card study.Flashcard) {
		pos, total := deck.Position()
		fmt.Fprintf(out, "\nCard %d/%d\nQ: %s\n", pos, total, card.Question)
	}
	showCard(card)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "q", "quit":
			return nil
		case "a", "answer":
			fmt.Fprintf(out, "A: %s\n", card.Answer)
		case "p", "prev":
			card, _ = deck.Prev()
			showCard(card)
		case "", "n", "next":
			card, _ = deck.Next()
			showCard(card)
		default:
			fmt.Fprintln(out, reviewHelp)
		}
	}
	return scanner.Err()
}
