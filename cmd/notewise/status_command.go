package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"notewise/internal/api"
	"notewise/internal/deps"
	"notewise/internal/preflight"
	"notewise/internal/workflow"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var live bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the session, configuration readiness, and optional dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(a *app) error {
				st := a.session.Status()
				if jsonOut {
					return writeJSON(cmd, api.FromStatus(st))
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				writeSection(out, "session", colorize)
				writeLines(out, sessionLines(st, colorize))
				fmt.Fprintln(out)

				writeSection(out, "readiness", colorize)
				for _, result := range preflight.RunAll(cmd.Context(), a.cfg, preflight.Options{Live: live}) {
					kind := statusOK
					if !result.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
				}
				if health, err := a.store.CheckHealth(cmd.Context()); err != nil {
					fmt.Fprintln(out, renderStatusLine("Session store", statusError, err.Error(), colorize))
				} else {
					detail := fmt.Sprintf("%s (schema %s, integrity %s)", health.DBPath, health.SchemaVersion, yesNo(health.IntegrityCheck))
					fmt.Fprintln(out, renderStatusLine("Session store", statusOK, detail, colorize))
				}
				fmt.Fprintln(out)

				writeSection(out, "dependencies", colorize)
				writeLines(out, dependencyLines(preflight.CheckSystemDeps(a.cfg), colorize))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the session status as JSON")
	cmd.Flags().BoolVar(&live, "live", false, "Send a live health request to the model endpoint")
	return cmd
}

func sessionLines(st workflow.Status, colorize bool) []string {
	lines := []string{renderStatusLine("Session", statusInfo, st.SessionID, colorize)}
	if !st.HasNotes {
		lines = append(lines, renderStatusLine("Notes", statusWarn, "None (run `notewise process`)", colorize))
	} else {
		detail := fmt.Sprintf("v%d, %d chars from %s", st.NotesVersion, st.NotesChars, st.Source)
		lines = append(lines, renderStatusLine("Notes", statusOK, detail, colorize))
	}
	lines = append(lines,
		renderStatusLine("Summary", artifactKind(st.HasSummary, st.HasNotes), yesNo(st.HasSummary), colorize),
		renderStatusLine("Flashcards", artifactKind(st.Flashcards > 0, st.HasNotes), fmt.Sprint(st.Flashcards), colorize),
		renderStatusLine("Key concepts", artifactKind(st.Concepts > 0, st.HasNotes), fmt.Sprint(st.Concepts), colorize),
		renderStatusLine("Highlights", statusInfo, fmt.Sprint(st.Highlights), colorize),
		renderStatusLine("Annotations", statusInfo, fmt.Sprint(st.Annotations), colorize),
		renderStatusLine("Questions", statusInfo, fmt.Sprint(st.Questions), colorize),
	)
	for _, notice := range st.Notices {
		lines = append(lines, renderStatusLine(notice.Stage, statusWarn, notice.Message, colorize))
	}
	if st.LastError != "" {
		lines = append(lines, renderStatusLine("Last error", statusError, st.LastError, colorize))
	}
	return lines
}

func artifactKind(present, hasNotes bool) statusKind {
	switch {
	case present:
		return statusOK
	case hasNotes:
		return statusWarn
	default:
		return statusInfo
	}
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	missing := make([]string, 0)
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}

		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
		missing = append(missing, dep.Name)
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusWarn, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func writeLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
