package workflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"notewise/internal/ingest"
	"notewise/internal/services"
	"notewise/internal/study"
	"notewise/internal/testsupport"
	"notewise/internal/workflow"
)

const capitalsNotes = "# Capitals\n\nParis is the capital of France. Madrid is the capital of Spain.\n\n- Rome is in Italy\n"

func newSession(t *testing.T, fake *testsupport.FakeCompleter, opts ...workflow.Option) *workflow.Session {
	t.Helper()
	s := workflow.New(study.NewGenerator(fake), opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func processText(t *testing.T, s *workflow.Session, text string) workflow.RunResult {
	t.Helper()
	res, err := s.Process(context.Background(), ingest.TextInput(text), study.SummaryOptions{})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	return res
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestProcessTextProducesAllArtifacts(t *testing.T) {
	fake := testsupport.NewFakeCompleter()
	s := newSession(t, fake)
	res := processText(t, s, "Paris is the capital of France. Water boils at 100 C.")

	if !res.Summary.OK() || !res.Flashcards.OK() || !res.Concepts.OK() {
		t.Fatalf("expected all branches to succeed: %+v", res.Notices)
	}
	if len(res.Notices) != 0 {
		t.Fatalf("unexpected notices %+v", res.Notices)
	}
	if fake.Calls("notes") != 0 {
		t.Fatal("text input must not call the notes model")
	}
	if got := len(res.Flashcards.Value.Cards); got != 2 {
		t.Fatalf("expected 2 flashcards, got %d", got)
	}
	if res.RunID == "" || res.NotesVersion == 0 {
		t.Fatalf("expected run id and version, got %+v", res)
	}
	st := s.Status()
	if !st.HasNotes || !st.HasSummary || st.Flashcards != 2 || st.Concepts != 2 {
		t.Fatalf("unexpected status %+v", st)
	}
	for op, busy := range st.Busy {
		if busy {
			t.Fatalf("operation %s still busy", op)
		}
	}
}

func TestProcessFileGeneratesNotes(t *testing.T) {
	fake := testsupport.NewFakeCompleter()
	s := newSession(t, fake)
	input := ingest.Input{
		Mode:     ingest.ModeFile,
		Source:   "lecture.pdf",
		Document: &ingest.Document{Name: "lecture.pdf", MediaType: ingest.MediaTypePDF, Kind: ingest.KindPDF, Data: []byte("%PDF-1.4")},
	}
	res, err := s.Process(context.Background(), input, study.SummaryOptions{})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !strings.Contains(res.Notes, "Notes for lecture.pdf.") {
		t.Fatalf("unexpected notes %q", res.Notes)
	}
	reqs := fake.Requests()
	if reqs[0].Operation != "notes" || reqs[0].Attachment == nil || !strings.HasPrefix(reqs[0].Attachment.DataURI, "data:application/pdf;base64,") {
		t.Fatalf("expected notes call with data uri first, got %+v", reqs[0])
	}
}

func TestNotesFailureIsFatal(t *testing.T) {
	fake := testsupport.NewFakeCompleter().Fail("notes", errors.New("upstream 500"))
	s := newSession(t, fake)
	input := ingest.Input{Mode: ingest.ModeFile, Document: &ingest.Document{Name: "a.txt", MediaType: ingest.MediaTypeTXT, Kind: ingest.KindTXT, Data: []byte("hello")}}
	_, err := s.Process(context.Background(), input, study.SummaryOptions{})
	if !errors.Is(err, services.ErrGeneration) {
		t.Fatalf("expected generation error, got %v", err)
	}
	if !strings.HasPrefix(services.UserMessage(err), "Failed to generate notes: ") {
		t.Fatalf("unexpected message %q", services.UserMessage(err))
	}
	if text, _ := s.Notes(); text != "" {
		t.Fatalf("notes must stay unset, got %q", text)
	}
	for _, op := range []string{"summarize", "flashcards", "concepts"} {
		if fake.Calls(op) != 0 {
			t.Fatalf("%s must not be invoked after notes failure", op)
		}
	}
	if s.Status().LastError == "" {
		t.Fatal("expected last error in status")
	}
}

func TestEmptyNotesFailsWithoutGenerators(t *testing.T) {
	fake := testsupport.NewFakeCompleter()
	s := newSession(t, fake)
	_, err := s.Process(context.Background(), ingest.TextInput("   "), study.SummaryOptions{})
	if !errors.Is(err, services.ErrGeneration) {
		t.Fatalf("expected generation error, got %v", err)
	}
	if got := services.UserMessage(err); got != "Failed to obtain notes content for processing." {
		t.Fatalf("unexpected message %q", got)
	}
	if n := len(fake.Requests()); n != 0 {
		t.Fatalf("expected no model calls, got %d", n)
	}
}

func TestFlashcardsFailureIsIsolated(t *testing.T) {
	fake := testsupport.NewFakeCompleter().Fail("flashcards", errors.New("rate limited"))
	s := newSession(t, fake)
	res := processText(t, s, "Paris is the capital of France.")

	if res.Flashcards.OK() || res.Flashcards.Err == nil {
		t.Fatal("expected flashcards failure")
	}
	if !res.Summary.OK() || !res.Concepts.OK() {
		t.Fatal("summary and concepts must survive a flashcards failure")
	}
	if len(res.Notices) != 1 || res.Notices[0].Stage != "flashcards" || res.Notices[0].Kind != "generation" {
		t.Fatalf("unexpected notices %+v", res.Notices)
	}
	if !strings.HasPrefix(res.Notices[0].Message, "Could not generate flashcards:") {
		t.Fatalf("unexpected notice message %q", res.Notices[0].Message)
	}
	if _, ok := s.Flashcards(); ok {
		t.Fatal("no flashcards should be stored")
	}
	if _, ok := s.Summary(); !ok {
		t.Fatal("summary should be stored")
	}
}

func TestStageTimeoutBecomesNotice(t *testing.T) {
	fake := testsupport.NewFakeCompleter().Delay("concepts", 2*time.Second)
	s := newSession(t, fake, workflow.WithStageTimeout(50*time.Millisecond))
	res := processText(t, s, "Paris is the capital of France.")
	if res.Concepts.OK() || !errors.Is(res.Concepts.Err, services.ErrTimeout) {
		t.Fatalf("expected concepts timeout, got %v", res.Concepts.Err)
	}
	if len(res.Notices) != 1 || res.Notices[0].Kind != "timeout" {
		t.Fatalf("unexpected notices %+v", res.Notices)
	}
}

func TestAskGroundedAndSentinel(t *testing.T) {
	s := newSession(t, testsupport.NewFakeCompleter())
	processText(t, s, "Paris is the capital of France.")

	answer, err := s.Ask(context.Background(), "What is the capital of France?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(answer, "Paris") {
		t.Fatalf("expected answer to mention Paris, got %q", answer)
	}
	answer, err = s.Ask(context.Background(), "What is the capital of Germany?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if answer != study.NotFoundAnswer {
		t.Fatalf("expected sentinel, got %q", answer)
	}
	if got := len(s.History()); got != 2 {
		t.Fatalf("expected 2 history entries, got %d", got)
	}
}

func TestAskPreconditionsAndValidation(t *testing.T) {
	fake := testsupport.NewFakeCompleter()
	s := newSession(t, fake)
	_, err := s.Ask(context.Background(), "What is the capital of France?")
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if services.UserMessage(err) != "Notes are not available to answer questions. Please process a document or text first." {
		t.Fatalf("unexpected message %q", services.UserMessage(err))
	}
	processText(t, s, "Paris is the capital of France.")
	before := fake.Calls("answer")
	if _, err := s.Ask(context.Background(), "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fake.Calls("answer") != before {
		t.Fatal("blank question must not reach the model")
	}
}

func TestExplainIndependentOfNotes(t *testing.T) {
	fake := testsupport.NewFakeCompleter()
	s := newSession(t, fake)
	out, err := s.Explain(context.Background(), "Photosynthesis converts light to energy.")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !strings.HasPrefix(out, "Simply put: ") {
		t.Fatalf("unexpected explanation %q", out)
	}
	if _, err := s.Explain(context.Background(), " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	fake.Fail("explain", errors.New("boom"))
	processText(t, s, "Paris is the capital of France.")
	before := s.Status()
	if _, err := s.Explain(context.Background(), "anything"); err == nil {
		t.Fatal("expected explain failure")
	}
	after := s.Status()
	if before.NotesVersion != after.NotesVersion || after.LastError != before.LastError {
		t.Fatalf("explain failure must not change session state: %+v vs %+v", before, after)
	}
}

func TestExplainSegment(t *testing.T) {
	s := newSession(t, testsupport.NewFakeCompleter())
	if _, _, err := s.ExplainSegment(context.Background(), "p-3-1"); !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	processText(t, s, capitalsNotes)
	seg, out, err := s.ExplainSegment(context.Background(), "p-3-1")
	if err != nil {
		t.Fatalf("explain segment: %v", err)
	}
	if !strings.HasPrefix(seg.Text, "Paris is the capital of France.") || !strings.Contains(out, "Paris") {
		t.Fatalf("unexpected segment %+v explanation %q", seg, out)
	}
	if _, _, err := s.ExplainSegment(context.Background(), "p-99-1"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown key, got %v", err)
	}
}

func TestHighlightToggleRoundTrip(t *testing.T) {
	s := newSession(t, testsupport.NewFakeCompleter())
	processText(t, s, capitalsNotes)

	on, err := s.ToggleHighlight(context.Background(), "p-3-1")
	if err != nil || !on {
		t.Fatalf("first toggle: on=%v err=%v", on, err)
	}
	on, err = s.ToggleHighlight(context.Background(), "p-3-1")
	if err != nil || on {
		t.Fatalf("second toggle: on=%v err=%v", on, err)
	}
	if got := s.Highlights(); len(got) != 0 {
		t.Fatalf("expected empty highlight set, got %v", got)
	}
	if _, err := s.ToggleHighlight(context.Background(), "p-42-1"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown key, got %v", err)
	}
}

func TestDeletingAnnotationKeepsHighlight(t *testing.T) {
	s := newSession(t, testsupport.NewFakeCompleter())
	processText(t, s, capitalsNotes)
	ctx := context.Background()

	if _, err := s.ToggleHighlight(ctx, "p-3-1"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := s.SetAnnotation(ctx, "p-3-1", "remember this"); err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if err := s.DeleteAnnotation(ctx, "p-3-1"); err != nil {
		t.Fatalf("delete annotation: %v", err)
	}
	if got := s.Highlights(); len(got) != 1 || got[0] != "p-3-1" {
		t.Fatalf("expected p-3-1 to stay highlighted, got %v", got)
	}
	if _, ok := s.Annotations()["p-3-1"]; ok {
		t.Fatal("annotation should be gone")
	}
}

func TestNewInputResetsEverything(t *testing.T) {
	fake := testsupport.NewFakeCompleter()
	s := newSession(t, fake)
	ctx := context.Background()
	processText(t, s, capitalsNotes)
	if _, err := s.ToggleHighlight(ctx, "p-3-1"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := s.SetAnnotation(ctx, "p-3-1", "note"); err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if _, err := s.Ask(ctx, "What is the capital of France?"); err != nil {
		t.Fatalf("ask: %v", err)
	}

	fake.Delay("summarize", 300*time.Millisecond)
	done := make(chan error, 1)
	go func() {
		_, err := s.Process(ctx, ingest.TextInput("Water boils at 100 C."), study.SummaryOptions{})
		done <- err
	}()
	waitFor(t, func() bool { return s.Busy(workflow.OpSummary) })

	st := s.Status()
	if st.HasSummary || st.Flashcards != 0 || st.Concepts != 0 || st.Highlights != 0 || st.Annotations != 0 || st.Questions != 0 {
		t.Fatalf("prior state must be cleared before processing, got %+v", st)
	}
	if err := <-done; err != nil {
		t.Fatalf("second run: %v", err)
	}
	if text, _ := s.Notes(); text != "Water boils at 100 C." {
		t.Fatalf("unexpected notes %q", text)
	}
}

func TestSupersededRunIsDiscarded(t *testing.T) {
	fake := testsupport.NewFakeCompleter().Delay("notes", 5*time.Second)
	s := newSession(t, fake)
	ctx := context.Background()
	fileInput := ingest.Input{Mode: ingest.ModeFile, Document: &ingest.Document{Name: "slow.pdf", MediaType: ingest.MediaTypePDF, Kind: ingest.KindPDF, Data: []byte("%PDF")}}

	done := make(chan error, 1)
	go func() {
		_, err := s.Process(ctx, fileInput, study.SummaryOptions{})
		done <- err
	}()
	waitFor(t, func() bool { return fake.Calls("notes") == 1 })

	processText(t, s, "Paris is the capital of France.")
	select {
	case err := <-done:
		if !errors.Is(err, services.ErrStaleResult) {
			t.Fatalf("expected stale result, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("superseded run was not cancelled")
	}
	if text, _ := s.Notes(); text != "Paris is the capital of France." {
		t.Fatalf("newer input must win, got %q", text)
	}
}

func TestIngestUnsupportedLeavesStateAlone(t *testing.T) {
	s := newSession(t, testsupport.NewFakeCompleter())
	processText(t, s, "Paris is the capital of France.")
	before := s.Status()

	_, err := s.Ingest(context.Background(), "slides.pptx", "application/vnd.ms-powerpoint", strings.NewReader("binary"), study.SummaryOptions{})
	if !errors.Is(err, services.ErrUnsupportedInput) {
		t.Fatalf("expected unsupported input, got %v", err)
	}
	after := s.Status()
	if after.NotesVersion != before.NotesVersion || !after.HasSummary {
		t.Fatalf("unsupported input must not change state: %+v", after)
	}
}

func TestIngestExtractionFailureResetsInput(t *testing.T) {
	s := newSession(t, testsupport.NewFakeCompleter())
	processText(t, s, "Paris is the capital of France.")

	_, err := s.Ingest(context.Background(), "broken.docx", "", strings.NewReader("not a zip archive"), study.SummaryOptions{})
	if !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
	st := s.Status()
	if st.HasNotes || st.HasSummary || st.InputMode != ingest.ModeFile {
		t.Fatalf("expected reset to empty file-mode input, got %+v", st)
	}
}

func TestIngestTextFile(t *testing.T) {
	fake := testsupport.NewFakeCompleter()
	s := newSession(t, fake)
	res, err := s.Ingest(context.Background(), "facts.txt", "text/plain", strings.NewReader("Paris is the capital of France."), study.SummaryOptions{Length: study.LengthShort})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Summary.Value.Options.Length != study.LengthShort {
		t.Fatalf("summary options not applied: %+v", res.Summary.Value.Options)
	}
	if fake.Calls("notes") != 1 {
		t.Fatalf("expected one notes call, got %d", fake.Calls("notes"))
	}
}

func TestRegenerateWithNewOptions(t *testing.T) {
	s := newSession(t, testsupport.NewFakeCompleter())
	if _, err := s.Regenerate(context.Background(), study.SummaryOptions{}); !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	processText(t, s, "One fact. Two fact. Three fact.")
	res, err := s.Regenerate(context.Background(), study.SummaryOptions{Length: study.LengthComprehensive, Style: study.StyleBulletPoints})
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if !strings.HasPrefix(res.Summary.Value.Text, "- ") {
		t.Fatalf("expected bullet summary, got %q", res.Summary.Value.Text)
	}
	summary, _ := s.Summary()
	if summary.Options.Style != study.StyleBulletPoints {
		t.Fatalf("stored summary not replaced: %+v", summary.Options)
	}
}

func TestResetClearsSession(t *testing.T) {
	s := newSession(t, testsupport.NewFakeCompleter())
	processText(t, s, "Paris is the capital of France.")
	id := s.ID()
	if err := s.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	st := s.Status()
	if st.HasNotes || st.HasSummary || st.NotesVersion != 0 {
		t.Fatalf("unexpected status after reset %+v", st)
	}
	if s.ID() == id {
		t.Fatal("expected a new session id")
	}
}

func TestOutcomeZeroValueIsNotOK(t *testing.T) {
	var o workflow.Outcome[study.Summary]
	if o.OK() || o.Ran() {
		t.Fatal("zero outcome must not report success")
	}
	if !workflow.Succeeded(1).OK() || workflow.Failed[int](errors.New("x")).OK() {
		t.Fatal("unexpected outcome states")
	}
}
