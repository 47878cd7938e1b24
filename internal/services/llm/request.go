package llm

import (
	"context"
	"strings"
)

// Attachment is a document forwarded to the model alongside the prompt.
type Attachment struct {
	Filename  string
	MediaType string
	// DataURI is the self-describing payload: data:<media type>;base64,<bytes>.
	DataURI string
}

// Request is one JSON completion call.
type Request struct {
	// Operation names the call shape for logs (notes, summarize, answer, ...).
	Operation  string
	System     string
	User       string
	Attachment *Attachment
}

// Completer is implemented by every LLM backend.
type Completer interface {
	// Complete returns the raw JSON text produced by the model.
	Complete(ctx context.Context, req Request) (string, error)
	// SupportsAttachments reports whether Request.Attachment is sent to the
	// model. Backends that return false must receive document text inline.
	SupportsAttachments() bool
	// Model names the model serving requests.
	Model() string
}

func (r Request) normalized() Request {
	r.Operation = strings.TrimSpace(r.Operation)
	if r.Operation == "" {
		r.Operation = "llm complete"
	}
	r.System = strings.TrimSpace(r.System)
	r.User = strings.TrimSpace(r.User)
	return r
}
