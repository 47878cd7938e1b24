package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"notewise/internal/services/llm"
)

const notFound = "I could not find an answer to that question in the provided document."

// FakeCompleter is a scripted llm.Completer. Without overrides it derives
// deterministic, grounded responses from the prompt content so pipeline
// tests can assert on real behavior.
type FakeCompleter struct {
	mu          sync.Mutex
	responses   map[string]string
	errs        map[string]error
	delays      map[string]time.Duration
	attachments bool
	requests    []llm.Request
}

// NewFakeCompleter returns a fake that accepts attachments.
func NewFakeCompleter() *FakeCompleter {
	return &FakeCompleter{
		responses:   make(map[string]string),
		errs:        make(map[string]error),
		delays:      make(map[string]time.Duration),
		attachments: true,
	}
}

// Respond scripts the raw payload returned for operation.
func (f *FakeCompleter) Respond(operation, payload string) *FakeCompleter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[operation] = payload
	return f
}

// Fail scripts an error for operation.
func (f *FakeCompleter) Fail(operation string, err error) *FakeCompleter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[operation] = err
	return f
}

// Delay makes operation wait d (or until its context ends) before answering.
func (f *FakeCompleter) Delay(operation string, d time.Duration) *FakeCompleter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[operation] = d
	return f
}

// TextOnly makes the fake report that it cannot receive attachments.
func (f *FakeCompleter) TextOnly() *FakeCompleter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachments = false
	return f
}

func (f *FakeCompleter) SupportsAttachments() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attachments
}

func (f *FakeCompleter) Model() string { return "fake-model" }

// Requests returns every request received so far.
func (f *FakeCompleter) Requests() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.requests...)
}

// Calls counts requests for operation.
func (f *FakeCompleter) Calls(operation string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, req := range f.requests {
		if req.Operation == operation {
			n++
		}
	}
	return n
}

func (f *FakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	delay := f.delays[req.Operation]
	err := f.errs[req.Operation]
	payload, scripted := f.responses[req.Operation]
	f.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	if scripted {
		return payload, nil
	}
	return groundedResponse(req)
}

func groundedResponse(req llm.Request) (string, error) {
	content := section(req.User, "Document content:")
	sentences := splitSentences(content)
	var out any
	switch req.Operation {
	case "notes":
		body := strings.TrimSpace(section(req.User, "\"\"\""))
		body = strings.TrimSuffix(body, "\"\"\"")
		if body == "" && req.Attachment != nil {
			body = "Notes for " + req.Attachment.Filename + "."
		}
		out = map[string]string{"notes": "# Notes\n\n" + strings.TrimSpace(body), "progress": "notes generated"}
	case "summarize":
		count := 2
		switch {
		case strings.Contains(req.User, "Length: short"):
			count = 1
		case strings.Contains(req.User, "Length: comprehensive"):
			count = len(sentences)
		}
		if count > len(sentences) {
			count = len(sentences)
		}
		picked := sentences[:count]
		text := strings.Join(picked, " ")
		if strings.Contains(req.User, "Style: bullet_points") {
			lines := make([]string, len(picked))
			for i, s := range picked {
				lines[i] = "- " + s
			}
			text = strings.Join(lines, "\n")
		}
		out = map[string]string{"summary": text, "progress": "summarized"}
	case "flashcards":
		cards := make([]map[string]string, 0, len(sentences))
		for i, s := range sentences {
			cards = append(cards, map[string]string{"question": fmt.Sprintf("Fact %d?", i+1), "answer": s})
		}
		out = map[string]any{"flashcards": cards, "progress": "cards generated"}
	case "concepts":
		concepts := make([]map[string]string, 0, len(sentences))
		for _, s := range sentences {
			concepts = append(concepts, map[string]string{"term": strings.Fields(s)[0], "definition": s})
		}
		out = map[string]any{"concepts": concepts, "progress": "concepts extracted"}
	case "answer":
		doc := section(req.User, "Document content:")
		if idx := strings.Index(doc, "\n\nQuestion:"); idx >= 0 {
			doc = doc[:idx]
		}
		question := section(req.User, "Question:")
		out = map[string]string{"answer": groundedAnswer(splitSentences(doc), question), "progress": "answered"}
	case "explain":
		fragment := strings.TrimSpace(strings.Trim(section(req.User, "\"\"\""), "\"\n "))
		out = map[string]string{"explanation": "Simply put: " + fragment, "progress": "explained"}
	default:
		out = map[string]bool{"ok": true}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// groundedAnswer returns the first sentence mentioning every proper noun in
// the question, or the not-found sentinel.
func groundedAnswer(sentences []string, question string) string {
	words := strings.FieldsFunc(question, func(r rune) bool { return !unicode.IsLetter(r) })
	var names []string
	for i, w := range words {
		if i > 0 && unicode.IsUpper([]rune(w)[0]) {
			names = append(names, w)
		}
	}
	if len(names) == 0 {
		return notFound
	}
	for _, s := range sentences {
		matched := true
		for _, name := range names {
			if !strings.Contains(s, name) {
				matched = false
				break
			}
		}
		if matched {
			return s
		}
	}
	return notFound
}

func section(text, marker string) string {
	idx := strings.Index(text, marker)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx+len(marker):])
}

func splitSentences(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimLeft(line, "-* ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	joined := strings.Join(lines, " ")
	var out []string
	start := 0
	for i, r := range joined {
		if r == '.' || r == '?' || r == '!' {
			if s := strings.TrimSpace(joined[start : i+1]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(joined[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}
