package study

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"notewise/internal/ingest"
	"notewise/internal/logging"
	"notewise/internal/notes"
	"notewise/internal/services"
	"notewise/internal/services/llm"
)

// Service is the set of study operations the workflow depends on.
type Service interface {
	Notes(ctx context.Context, doc *ingest.Document) (string, error)
	Summarize(ctx context.Context, notesText string, opts SummaryOptions) (Summary, error)
	Flashcards(ctx context.Context, notesText string) (FlashcardSet, error)
	KeyConcepts(ctx context.Context, notesText string) (KeyConceptSet, error)
	Answer(ctx context.Context, notesText, question string) (string, error)
	Explain(ctx context.Context, fragment string) (string, error)
}

// Generator implements Service on top of an llm.Completer.
type Generator struct {
	completer llm.Completer
	explainer llm.Completer
	timeout   time.Duration
	logger    *slog.Logger
}

// Option customizes a Generator.
type Option func(*Generator)

// WithExplainer sets the completer used for ELI5 explanations. It should be
// configured for a single attempt.
func WithExplainer(c llm.Completer) Option {
	return func(g *Generator) {
		if c != nil {
			g.explainer = c
		}
	}
}

// WithCallTimeout bounds each completion call. Zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d >= 0 {
			g.timeout = d
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logging.NewComponentLogger(logger, "study")
	}
}

// NewGenerator constructs a Generator. The explainer defaults to completer.
func NewGenerator(completer llm.Completer, opts ...Option) *Generator {
	g := &Generator{
		completer: completer,
		timeout:   90 * time.Second,
		logger:    logging.NewComponentLogger(nil, "study"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.explainer == nil {
		g.explainer = completer
	}
	return g
}

// Notes asks the model for Markdown study notes from an uploaded document.
func (g *Generator) Notes(ctx context.Context, doc *ingest.Document) (string, error) {
	if doc == nil || len(doc.Data) == 0 {
		return "", services.Wrap(services.ErrValidation, "study", "notes", "Failed to generate notes: document is empty", nil)
	}
	req := llm.Request{Operation: "notes", System: notesSystemPrompt}
	if g.completer.SupportsAttachments() {
		req.User = notesUserPrompt(doc.Name)
		req.Attachment = &llm.Attachment{Filename: doc.Name, MediaType: doc.MediaType, DataURI: doc.DataURI()}
	} else {
		text, err := ingest.DocumentText(doc)
		if err != nil {
			return "", services.Wrap(services.ErrGeneration, "study", "notes",
				fmt.Sprintf("Failed to generate notes: %v", err), err)
		}
		req.User = notesInlinePrompt(doc.Name, text)
	}

	var resp struct {
		Notes string `json:"notes"`
	}
	if err := g.call(ctx, g.completer, req, schemaNotes, &resp); err != nil {
		return "", services.Wrap(services.ErrGeneration, "study", "notes",
			"Failed to generate notes: "+services.UserMessage(err), err)
	}
	return strings.TrimSpace(resp.Notes), nil
}

// Summarize produces a plain text summary. Markdown in the model output is
// stripped; a summary that still carries headings is rejected.
func (g *Generator) Summarize(ctx context.Context, notesText string, opts SummaryOptions) (Summary, error) {
	opts = opts.Normalized()
	if strings.TrimSpace(notesText) == "" {
		return Summary{}, services.Wrap(services.ErrPrecondition, "study", "summarize", "Notes are required to generate a summary.", nil)
	}
	var resp struct {
		Summary string `json:"summary"`
	}
	req := llm.Request{Operation: "summarize", System: summarySystemPrompt, User: summaryUserPrompt(notesText, opts)}
	if err := g.call(ctx, g.completer, req, schemaSummary, &resp); err != nil {
		return Summary{}, services.Wrap(services.ErrGeneration, "study", "summarize",
			"Could not generate summary: "+services.UserMessage(err), err)
	}

	text := strings.TrimSpace(resp.Summary)
	if markup := notes.StructuralMarkup(text); len(markup) > 0 {
		g.logger.Debug("stripping markdown from summary", logging.String("markup", strings.Join(markup, ",")))
		text = notes.PlainText(text, opts.Style == StyleBulletPoints)
	}
	if text == "" || notes.HasHeadings(text) {
		return Summary{}, services.Wrap(services.ErrGeneration, "study", "summarize",
			"Could not generate summary: the model did not return plain text", nil)
	}
	return Summary{Text: text, Options: opts}, nil
}

// Flashcards produces question and answer cards in generation order.
func (g *Generator) Flashcards(ctx context.Context, notesText string) (FlashcardSet, error) {
	if strings.TrimSpace(notesText) == "" {
		return FlashcardSet{}, services.Wrap(services.ErrPrecondition, "study", "flashcards", "Notes are required to generate flashcards.", nil)
	}
	var resp struct {
		Flashcards []Flashcard `json:"flashcards"`
	}
	req := llm.Request{Operation: "flashcards", System: flashcardsSystemPrompt, User: contentUserPrompt(notesText)}
	if err := g.call(ctx, g.completer, req, schemaFlashcards, &resp); err != nil {
		return FlashcardSet{}, services.Wrap(services.ErrGeneration, "study", "flashcards",
			"Could not generate flashcards: "+services.UserMessage(err), err)
	}
	cards := make([]Flashcard, 0, len(resp.Flashcards))
	for _, card := range resp.Flashcards {
		card.Question = strings.TrimSpace(card.Question)
		card.Answer = strings.TrimSpace(card.Answer)
		if card.Question == "" || card.Answer == "" {
			continue
		}
		cards = append(cards, card)
	}
	return FlashcardSet{Cards: cards}, nil
}

// KeyConcepts extracts defined terms in generation order.
func (g *Generator) KeyConcepts(ctx context.Context, notesText string) (KeyConceptSet, error) {
	if strings.TrimSpace(notesText) == "" {
		return KeyConceptSet{}, services.Wrap(services.ErrPrecondition, "study", "concepts", "Notes are required to extract key concepts.", nil)
	}
	var resp struct {
		Concepts []KeyConcept `json:"concepts"`
	}
	req := llm.Request{Operation: "concepts", System: conceptsSystemPrompt, User: contentUserPrompt(notesText)}
	if err := g.call(ctx, g.completer, req, schemaConcepts, &resp); err != nil {
		return KeyConceptSet{}, services.Wrap(services.ErrGeneration, "study", "concepts",
			"Could not extract key concepts: "+services.UserMessage(err), err)
	}
	concepts := make([]KeyConcept, 0, len(resp.Concepts))
	for _, c := range resp.Concepts {
		c.Term = strings.TrimSpace(c.Term)
		c.Definition = strings.TrimSpace(c.Definition)
		if c.Term == "" {
			continue
		}
		concepts = append(concepts, c)
	}
	return KeyConceptSet{Concepts: concepts}, nil
}

// Answer responds to a question from notesText alone. Answers that report the
// information is missing are replaced with NotFoundAnswer.
func (g *Generator) Answer(ctx context.Context, notesText, question string) (string, error) {
	if strings.TrimSpace(notesText) == "" {
		return "", services.Wrap(services.ErrPrecondition, "study", "answer",
			"Notes are not available to answer questions. Please process a document or text first.", nil)
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", services.Wrap(services.ErrValidation, "study", "answer", "Please enter a question.", nil)
	}
	var resp struct {
		Answer string `json:"answer"`
	}
	req := llm.Request{Operation: "answer", System: answerSystemPrompt, User: answerUserPrompt(notesText, question)}
	if err := g.call(ctx, g.completer, req, schemaAnswer, &resp); err != nil {
		return "", services.Wrap(services.ErrGeneration, "study", "answer",
			"Could not answer the question: "+services.UserMessage(err), err)
	}
	return CanonicalAnswer(resp.Answer), nil
}

// Explain restates fragment in simple terms. It is a single attempt.
func (g *Generator) Explain(ctx context.Context, fragment string) (string, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return "", services.Wrap(services.ErrValidation, "study", "explain", "No text selected or provided to explain.", nil)
	}
	var resp struct {
		Explanation string `json:"explanation"`
	}
	req := llm.Request{Operation: "explain", System: explainSystemPrompt, User: explainUserPrompt(fragment)}
	if err := g.call(ctx, g.explainer, req, schemaExplain, &resp); err != nil {
		return "", services.Wrap(services.ErrGeneration, "study", "explain",
			"Could not explain the text: "+services.UserMessage(err), err)
	}
	return strings.TrimSpace(resp.Explanation), nil
}

// CanonicalAnswer trims answer and collapses any answer containing the
// not-found sentence to exactly NotFoundAnswer.
func CanonicalAnswer(answer string) string {
	answer = strings.TrimSpace(answer)
	sentinel := strings.ToLower(strings.TrimSuffix(NotFoundAnswer, "."))
	if strings.Contains(strings.ToLower(answer), sentinel) {
		return NotFoundAnswer
	}
	return answer
}

// call runs one bounded completion, validates it against schema, and decodes
// it into target.
func (g *Generator) call(ctx context.Context, completer llm.Completer, req llm.Request, schema string, target any) error {
	if completer == nil {
		return services.Wrap(services.ErrConfiguration, "study", req.Operation, "no language model configured", nil)
	}
	logger := logging.WithContext(ctx, g.logger).With(
		logging.String("operation", req.Operation),
		logging.String("model", completer.Model()),
	)
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := completer.Complete(callCtx, req)
	if err == nil {
		raw, err = llm.SanitizeJSON(raw)
	}
	if err == nil {
		if verr := validateResponse(schema, []byte(raw)); verr != nil {
			err = services.Wrap(services.ErrGeneration, "study", req.Operation, "unexpected response shape", verr)
		}
	}
	if err == nil {
		if derr := json.Unmarshal([]byte(raw), target); derr != nil {
			err = services.Wrap(services.ErrGeneration, "study", req.Operation, "could not decode response", derr)
		}
	}
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil && !errors.Is(err, services.ErrTimeout) {
			err = services.Wrap(services.ErrTimeout, "study", req.Operation,
				fmt.Sprintf("the request timed out after %s", g.timeout), err)
		}
		logging.WarnWithContext(logger, "llm call failed", "llm_call_failed",
			logging.Duration("duration", elapsed),
			logging.ErrorKind(err),
			logging.Error(err),
			logging.String(logging.FieldImpact, req.Operation+" result unavailable"),
			logging.String(logging.FieldErrorHint, "check llm credentials, model, and network access"),
		)
		return err
	}

	logger.Info("llm call completed",
		logging.EventType("llm_call_completed"),
		logging.Duration("duration", elapsed),
		logging.Bool("attachment", req.Attachment != nil),
	)
	var progress struct {
		Progress string `json:"progress"`
	}
	if json.Unmarshal([]byte(raw), &progress) == nil && strings.TrimSpace(progress.Progress) != "" {
		logger.Debug("llm progress", logging.String("progress", strings.TrimSpace(progress.Progress)))
	}
	return nil
}
