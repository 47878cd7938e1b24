package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"notewise/internal/api"
	"notewise/internal/config"
	"notewise/internal/ingest"
	"notewise/internal/server"
	"notewise/internal/services"
	"notewise/internal/study"
	"notewise/internal/testsupport"
	"notewise/internal/workflow"
)

const lectureNotes = "# Capitals\n\nParis is the capital of France.\n"

type harness struct {
	cfg     *config.Config
	fake    *testsupport.FakeCompleter
	session *workflow.Session
	srv     *server.Server
	http    *httptest.Server
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	fake := testsupport.NewFakeCompleter()
	store := testsupport.MustOpenStore(t, cfg)
	session := workflow.New(study.NewGenerator(fake),
		workflow.WithStore(store),
		workflow.WithLoader(ingest.NewLoader(cfg.Ingest.MaxUploadBytes, "", nil)),
	)
	if err := session.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	srv, err := server.New(cfg, session, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &harness{cfg: cfg, fake: fake, session: session, srv: srv, http: ts}
}

func (h *harness) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.http.URL+path, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.http.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestProcessTextAndAsk(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodPost, "/api/process", api.ProcessTextRequest{Text: lectureNotes, Length: "short"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("process status %d", resp.StatusCode)
	}
	run := decode[api.RunResponse](t, resp)
	if run.Summary == nil || run.Summary.Length != "short" || len(run.Flashcards) == 0 {
		t.Fatalf("unexpected run %+v", run)
	}

	resp = h.do(t, http.MethodPost, "/api/ask", api.AskRequest{Question: "What is the capital of France?"})
	ans := decode[api.AskResponse](t, resp)
	if resp.StatusCode != http.StatusOK || !ans.Found || !strings.Contains(ans.Answer, "Paris") {
		t.Fatalf("unexpected answer %d %+v", resp.StatusCode, ans)
	}
	resp = h.do(t, http.MethodPost, "/api/ask", api.AskRequest{Question: "What is the capital of Germany?"})
	ans = decode[api.AskResponse](t, resp)
	if ans.Found || ans.Answer != study.NotFoundAnswer {
		t.Fatalf("expected sentinel, got %+v", ans)
	}
}

func TestErrorStatuses(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodPost, "/api/ask", api.AskRequest{Question: "Anything?"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 without notes, got %d", resp.StatusCode)
	}
	if e := decode[api.ErrorResponse](t, resp); e.Kind != "precondition" {
		t.Fatalf("unexpected error body %+v", e)
	}

	resp = h.do(t, http.MethodPost, "/api/explain", api.ExplainRequest{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank fragment, got %d", resp.StatusCode)
	}

	resp = h.do(t, http.MethodPost, "/api/process", api.ProcessTextRequest{Text: "  "})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 for empty notes, got %d", resp.StatusCode)
	}
	if e := decode[api.ErrorResponse](t, resp); e.Error != "Failed to obtain notes content for processing." {
		t.Fatalf("unexpected error body %+v", e)
	}

	resp = h.do(t, http.MethodPost, "/api/process", api.ProcessTextRequest{Text: "x", Length: "epic"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad length, got %d", resp.StatusCode)
	}
}

func upload(t *testing.T, h *harness, name, contentType string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + name + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.WriteField("style", "bullet_points"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, h.http.URL+"/api/process", &body)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := h.http.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestUploadStatuses(t *testing.T) {
	h := newHarness(t)

	resp := upload(t, h, "facts.txt", "text/plain", []byte("Paris is the capital of France."))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for txt upload, got %d", resp.StatusCode)
	}
	run := decode[api.RunResponse](t, resp)
	if run.Summary == nil || run.Summary.Style != "bullet_points" {
		t.Fatalf("unexpected run %+v", run)
	}
	if h.fake.Calls("notes") != 1 {
		t.Fatalf("expected one notes call, got %d", h.fake.Calls("notes"))
	}

	resp = upload(t, h, "slides.pptx", "application/vnd.openxmlformats-officedocument.presentationml.presentation", []byte("PK"))
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", resp.StatusCode)
	}
	if !h.session.Status().HasNotes {
		t.Fatal("unsupported upload must not clear notes")
	}

	resp = upload(t, h, "broken.docx", "", []byte("not a zip archive"))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if h.session.Status().HasNotes {
		t.Fatal("extraction failure must reset the input")
	}
}

func TestUploadNotesFailureIsBadGateway(t *testing.T) {
	h := newHarness(t)
	h.fake.Fail("notes", errors.New("upstream down"))
	resp := upload(t, h, "facts.pdf", "application/pdf", []byte("%PDF-1.4"))
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	e := decode[api.ErrorResponse](t, resp)
	if !strings.HasPrefix(e.Error, "Failed to generate notes: ") {
		t.Fatalf("unexpected message %q", e.Error)
	}
}

func TestUploadMissingCredentialsIsUnavailable(t *testing.T) {
	h := newHarness(t)
	h.fake.Fail("notes", services.Wrap(services.ErrConfiguration, "llm", "notes", "llm.api_key is required", nil))
	resp := upload(t, h, "facts.pdf", "application/pdf", []byte("%PDF-1.4"))
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	e := decode[api.ErrorResponse](t, resp)
	if e.Kind != "configuration" {
		t.Fatalf("expected configuration kind, got %q", e.Kind)
	}
}

func TestSegmentsHighlightsAndAnnotations(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/process", api.ProcessTextRequest{Text: lectureNotes})

	resp := h.do(t, http.MethodPost, "/api/highlights/p-3-1", nil)
	if hl := decode[api.HighlightResponse](t, resp); !hl.Highlighted {
		t.Fatalf("expected highlight on, got %+v", hl)
	}
	resp = h.do(t, http.MethodPut, "/api/annotations/p-3-1", api.AnnotationRequest{Text: "exam topic"})
	if ann := decode[api.AnnotationResponse](t, resp); ann.Annotation != "exam topic" {
		t.Fatalf("unexpected annotation %+v", ann)
	}
	resp = h.do(t, http.MethodDelete, "/api/annotations/p-3-1", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp = h.do(t, http.MethodGet, "/api/segments", nil)
	segs := decode[api.SegmentsResponse](t, resp)
	var seg *api.Segment
	for i := range segs.Segments {
		if segs.Segments[i].Key == "p-3-1" {
			seg = &segs.Segments[i]
		}
	}
	if seg == nil || !seg.Highlighted || seg.Annotation != "" {
		t.Fatalf("unexpected segment %+v", seg)
	}

	resp = h.do(t, http.MethodPost, "/api/explain", api.ExplainRequest{Key: "p-3-1"})
	ex := decode[api.ExplainResponse](t, resp)
	if ex.Key != "p-3-1" || !strings.Contains(ex.Explanation, "Paris") {
		t.Fatalf("unexpected explanation %+v", ex)
	}

	resp = h.do(t, http.MethodPost, "/api/highlights/p-3-1", nil)
	if hl := decode[api.HighlightResponse](t, resp); hl.Highlighted {
		t.Fatalf("expected highlight off, got %+v", hl)
	}
}

func TestExportAndReset(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/process", api.ProcessTextRequest{Text: lectureNotes})

	resp := h.do(t, http.MethodGet, "/api/export?what=notes&format=html", nil)
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("unexpected export response %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<h1>Capitals</h1>") {
		t.Fatalf("unexpected html %s", body)
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "notes.html") {
		t.Fatalf("unexpected disposition %q", resp.Header.Get("Content-Disposition"))
	}

	resp = h.do(t, http.MethodGet, "/api/export?what=quiz", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown export, got %d", resp.StatusCode)
	}

	resp = h.do(t, http.MethodPost, "/api/reset", nil)
	view := decode[api.SessionView](t, resp)
	if view.Status.HasNotes || view.Notes != "" {
		t.Fatalf("expected empty session after reset, got %+v", view.Status)
	}
	resp = h.do(t, http.MethodGet, "/api/export?what=summary&format=txt", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 when nothing to export, got %d", resp.StatusCode)
	}
}

func TestBearerTokenRequired(t *testing.T) {
	h := newHarness(t, testsupport.WithAPIToken("secret"))
	resp := h.do(t, http.MethodGet, "/api/session", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	req, _ := http.NewRequest(http.MethodGet, h.http.URL+"/api/session", nil)
	req.Header.Set("Authorization", "Bearer secret")
	authed, err := h.http.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", authed.StatusCode)
	}
}

func TestStartHoldsLock(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := h.srv.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer h.srv.Stop()
	if h.srv.Addr() == "" {
		t.Fatal("expected listening address")
	}

	second, err := server.New(h.cfg, h.session, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected second server to fail on lock")
	}

	resp, err := http.Get("http://" + h.srv.Addr() + "/api/session")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}
