package study

import (
	"fmt"
	"strings"
)

const jsonOnly = "Respond with a single JSON object and nothing else."

const notesSystemPrompt = `You write study notes for exam preparation from the attached document.
Produce thorough, well organized notes in Markdown. Use headings (#, ##, ###), bullet lists and numbered lists to structure the material.
Cover every major topic, definition, formula, date and argument in the document and keep every fact accurate.
Prefer clear, concise wording and focus on what is likely to be examined. For very long documents summarize each section while keeping the vital details.
Return {"notes": "<markdown>", "progress": "<one sentence>"}. ` + jsonOnly

const summarySystemPrompt = `You write PLAIN TEXT summaries of study notes for exam review.
The summary must not contain any Markdown: no headings, no emphasis markers, no Markdown list syntax.
Length:
- short: a very brief overview of the main takeaways only.
- medium: a balanced summary.
- comprehensive: a detailed summary covering every major section, argument and supporting detail.
Style:
- paragraph: well structured plain text paragraphs.
- bullet_points: one point per line, each prefixed with "- ".
Stay factually correct with respect to the notes and emphasize what is most likely to be tested.
Return {"summary": "<plain text>", "progress": "<one sentence>"}. ` + jsonOnly

const flashcardsSystemPrompt = `You design exam flashcards from study notes.
Each card is a question and answer pair that is directly verifiable from the notes.
Target important concepts, definitions, facts, formulas and dates. Questions must be unambiguous; answers brief but complete.
Cover a good range of topics from the notes.
Return {"flashcards": [{"question": "...", "answer": "..."}], "progress": "<one sentence>"}. ` + jsonOnly

const conceptsSystemPrompt = `You identify the key terms and concepts in study notes.
For each term give a concise definition taken only from the notes. Do not use outside knowledge.
Return {"concepts": [{"term": "...", "definition": "..."}], "progress": "<one sentence>"}. ` + jsonOnly

var answerSystemPrompt = `You answer a student's question using only the provided document content.
Never use outside knowledge or guess. If the document is ambiguous, say the answer cannot be determined from it.
If the answer is not in the document, the answer must be exactly: "` + NotFoundAnswer + `"
Return {"answer": "...", "progress": "<one sentence>"}. ` + jsonOnly

const explainSystemPrompt = `You explain text as if to a five year old (ELI5).
Use the simplest words and everyday analogies, avoid jargon, and stay factually accurate.
Return {"explanation": "...", "progress": "<one sentence>"}. ` + jsonOnly

func notesUserPrompt(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Generate study notes from the attached document."
	}
	return fmt.Sprintf("Generate study notes from the attached document %q.", name)
}

// notesInlinePrompt embeds document text for backends that cannot receive
// attachments.
func notesInlinePrompt(name, text string) string {
	var b strings.Builder
	b.WriteString(notesUserPrompt(name))
	b.WriteString("\n\nDocument content:\n\"\"\"\n")
	b.WriteString(text)
	b.WriteString("\n\"\"\"")
	return b.String()
}

func summaryUserPrompt(notes string, opts SummaryOptions) string {
	return fmt.Sprintf("Length: %s\nStyle: %s\n\nDocument content:\n%s", opts.Length, opts.Style, notes)
}

func contentUserPrompt(notes string) string {
	return "Document content:\n" + notes
}

func answerUserPrompt(notes, question string) string {
	return fmt.Sprintf("Document content:\n%s\n\nQuestion:\n%s", notes, question)
}

func explainUserPrompt(fragment string) string {
	return fmt.Sprintf("Explain this text in simple terms:\n\"\"\"\n%s\n\"\"\"", fragment)
}
