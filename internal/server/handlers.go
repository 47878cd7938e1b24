package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"notewise/internal/api"
	"notewise/internal/export"
	"notewise/internal/ingest"
	"notewise/internal/logging"
	"notewise/internal/services"
	"notewise/internal/study"
)

const maxJSONBody = 1 << 20

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/process", s.handleProcess)
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("POST /api/ask", s.handleAsk)
	mux.HandleFunc("POST /api/explain", s.handleExplain)
	mux.HandleFunc("GET /api/segments", s.handleSegments)
	mux.HandleFunc("POST /api/highlights/{key}", s.handleHighlight)
	mux.HandleFunc("PUT /api/annotations/{key}", s.handleSetAnnotation)
	mux.HandleFunc("DELETE /api/annotations/{key}", s.handleDeleteAnnotation)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	return mux
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		s.processUpload(w, r)
		return
	}
	var req api.ProcessTextRequest
	if !s.decode(w, r, &req) {
		return
	}
	opts, err := summaryOptions(req.Length, req.Style)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.session.Process(r.Context(), ingest.TextInput(req.Text), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromRunResult(res))
}

func (s *Server) processUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.Ingest.MaxUploadBytes
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, services.Wrap(services.ErrValidation, "server", "process", "Could not read the uploaded file.", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()
	opts, err := summaryOptions(r.FormValue("length"), r.FormValue("style"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			res, perr := s.session.Process(r.Context(), ingest.TextInput(r.FormValue("text")), opts)
			if perr != nil {
				s.writeError(w, perr)
				return
			}
			s.writeJSON(w, http.StatusOK, api.FromRunResult(res))
			return
		}
		s.writeError(w, services.Wrap(services.ErrValidation, "server", "process", "Could not read the uploaded file.", err))
		return
	}
	defer file.Close()

	res, err := s.session.Ingest(r.Context(), header.Filename, header.Header.Get("Content-Type"), file, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromRunResult(res))
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.SessionViewOf(s.session))
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req api.AskRequest
	if !s.decode(w, r, &req) {
		return
	}
	answer, err := s.session.Ask(r.Context(), req.Question)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.AskResponse{
		Question: strings.TrimSpace(req.Question),
		Answer:   answer,
		Found:    answer != study.NotFoundAnswer,
	})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req api.ExplainRequest
	if !s.decode(w, r, &req) {
		return
	}
	if key := strings.TrimSpace(req.Key); key != "" {
		seg, explanation, err := s.session.ExplainSegment(r.Context(), key)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.ExplainResponse{Key: seg.Key, Text: seg.Text, Explanation: explanation})
		return
	}
	explanation, err := s.session.Explain(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ExplainResponse{Text: req.Text, Explanation: explanation})
}

func (s *Server) handleSegments(w http.ResponseWriter, _ *http.Request) {
	_, version := s.session.Notes()
	doc := s.session.Segments()
	s.writeJSON(w, http.StatusOK, api.SegmentsResponse{
		NotesVersion: version,
		Segments:     api.FromSegments(doc, s.session.Highlights(), s.session.Annotations()),
	})
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	on, err := s.session.ToggleHighlight(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.HighlightResponse{Key: key, Highlighted: on})
}

func (s *Server) handleSetAnnotation(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var req api.AnnotationRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.session.SetAnnotation(r.Context(), key, req.Text); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.AnnotationResponse{Key: key, Annotation: s.session.Annotations()[key]})
}

func (s *Server) handleDeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := s.session.DeleteAnnotation(r.Context(), key); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	format, err := export.ParseFormat(defaultString(query.Get("format"), "md"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	what := defaultString(strings.ToLower(query.Get("what")), "notes")
	doc, err := s.session.ExportDocument(what)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, doc, export.Options{LicenseKey: s.cfg.Ingest.UniofficeLicenseKey}); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(s.session.Status().Source, what, format)))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug("export write interrupted", logging.Error(err))
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Reset(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionViewOf(s.session))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, services.Wrap(services.ErrValidation, "server", "decode", "Request body is not valid JSON.", err))
		return false
	}
	return true
}

func summaryOptions(length, style string) (study.SummaryOptions, error) {
	var opts study.SummaryOptions
	if strings.TrimSpace(length) != "" {
		l, err := study.ParseSummaryLength(length)
		if err != nil {
			return opts, services.Wrap(services.ErrValidation, "server", "summary options", err.Error(), err)
		}
		opts.Length = l
	}
	if strings.TrimSpace(style) != "" {
		st, err := study.ParseSummaryStyle(style)
		if err != nil {
			return opts, services.Wrap(services.ErrValidation, "server", "summary options", err.Error(), err)
		}
		opts.Style = st
	}
	return opts, nil
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

// statusFor maps a services marker to an HTTP status. Markers are checked in
// the order services.Kind uses, so the status agrees with the reported kind.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrStaleResult):
		return http.StatusConflict
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrUnsupportedInput):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, services.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrPrecondition):
		return http.StatusConflict
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusGatewayTimeout {
		s.logger.Error("request failed", logging.ErrorKind(err), logging.Error(err))
	}
	s.writeJSON(w, status, api.ErrorResponse{Error: services.UserMessage(err), Kind: services.Kind(err)})
}
