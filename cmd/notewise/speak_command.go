package main

import (
	"github.com/spf13/cobra"

	"notewise/internal/services"
)

func newSpeakCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "speak [notes|summary]",
		Short:     "Read the notes or summary aloud with the configured synthesizer",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"notes", "summary"},
		RunE: func(cmd *cobra.Command, args []string) error {
			what := "notes"
			if len(args) == 1 {
				what = args[0]
			}
			return ctx.withSession(cmd, func(a *app) error {
				if !a.session.Speech().CanSpeak() {
					return services.Wrap(services.ErrPrecondition, "cli", "speak",
						"Speech synthesis is not available. Set speech.synthesize_command in the config.", nil)
				}
				return a.session.Speak(cmd.Context(), what)
			})
		},
	}
}
