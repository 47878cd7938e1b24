package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"notewise/internal/study"
	"notewise/internal/workflow"
)

// column describes one table column. Width 0 leaves the column unbounded;
// longer cells wrap on word boundaries.
type column struct {
	header string
	right  bool
	width  int
}

const proseWidth = 60

func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.header
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if col.right {
			configs[i].Align = text.AlignRight
		}
		if col.width > 0 {
			configs[i].WidthMax = col.width
			configs[i].WidthMaxEnforcer = text.WrapSoft
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

// writeJSON encodes v as indented JSON to stdout. Notes and summaries keep
// their angle brackets and ampersands unescaped.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printNotes(out io.Writer, notesText string, colorize bool) {
	writeSection(out, "notes", colorize)
	if strings.TrimSpace(notesText) == "" {
		fmt.Fprintln(out, "No notes yet. Run `notewise process` first.")
		return
	}
	fmt.Fprintln(out, strings.TrimRight(notesText, "\n"))
}

func printSummary(out io.Writer, summary study.Summary, ok bool, colorize bool) {
	writeSection(out, "summary", colorize)
	if !ok {
		fmt.Fprintln(out, "No summary available.")
		return
	}
	fmt.Fprintf(out, "(%s, %s)\n", summary.Options.Length, strings.ReplaceAll(string(summary.Options.Style), "_", " "))
	fmt.Fprintln(out, strings.TrimRight(summary.Text, "\n"))
}

func printFlashcards(out io.Writer, set study.FlashcardSet, ok bool, colorize bool) {
	writeSection(out, "flashcards", colorize)
	if !ok || len(set.Cards) == 0 {
		fmt.Fprintln(out, "No flashcards available.")
		return
	}
	rows := make([][]string, 0, len(set.Cards))
	for i, card := range set.Cards {
		rows = append(rows, []string{strconv.Itoa(i + 1), card.Question, card.Answer})
	}
	fmt.Fprintln(out, renderTable([]column{
		{header: "#", right: true},
		{header: "Question", width: proseWidth},
		{header: "Answer", width: proseWidth},
	}, rows))
}

func printConcepts(out io.Writer, set study.KeyConceptSet, ok bool, colorize bool) {
	writeSection(out, "key concepts", colorize)
	if !ok || len(set.Concepts) == 0 {
		fmt.Fprintln(out, "No key concepts available.")
		return
	}
	rows := make([][]string, 0, len(set.Concepts))
	for _, concept := range set.Concepts {
		rows = append(rows, []string{concept.Term, concept.Definition})
	}
	fmt.Fprintln(out, renderTable([]column{{header: "Term"}, {header: "Definition", width: proseWidth}}, rows))
}

func printNotices(out io.Writer, notices []workflow.Notice, colorize bool) {
	for _, notice := range notices {
		fmt.Fprintln(out, renderStatusLine(notice.Stage, statusWarn, notice.Message, colorize))
	}
}

func printRunResult(out io.Writer, res workflow.RunResult, colorize bool) {
	printNotes(out, res.Notes, colorize)
	fmt.Fprintln(out)
	printSummary(out, res.Summary.Value, res.Summary.OK(), colorize)
	fmt.Fprintln(out)
	printFlashcards(out, res.Flashcards.Value, res.Flashcards.OK(), colorize)
	fmt.Fprintln(out)
	printConcepts(out, res.Concepts.Value, res.Concepts.OK(), colorize)
	if len(res.Notices) > 0 {
		fmt.Fprintln(out)
		printNotices(out, res.Notices, colorize)
	}
}
