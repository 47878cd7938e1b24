package study

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"notewise/internal/ingest"
	"notewise/internal/notes"
)

// CachedGenerator memoizes derived artifacts by NotesText digest. Notes,
// Answer and Explain always reach the wrapped Service.
type CachedGenerator struct {
	inner Service
	cache *cache.Cache
}

// NewCachedGenerator wraps inner with a TTL cache. A ttl <= 0 keeps entries
// until Flush.
func NewCachedGenerator(inner Service, ttl time.Duration) *CachedGenerator {
	expiration := ttl
	cleanup := ttl * 2
	if ttl <= 0 {
		expiration = cache.NoExpiration
		cleanup = 0
	}
	return &CachedGenerator{inner: inner, cache: cache.New(expiration, cleanup)}
}

// Flush drops every memoized artifact.
func (c *CachedGenerator) Flush() {
	c.cache.Flush()
}

// Len reports the number of memoized artifacts.
func (c *CachedGenerator) Len() int {
	return c.cache.ItemCount()
}

func (c *CachedGenerator) Notes(ctx context.Context, doc *ingest.Document) (string, error) {
	return c.inner.Notes(ctx, doc)
}

func (c *CachedGenerator) Summarize(ctx context.Context, notesText string, opts SummaryOptions) (Summary, error) {
	opts = opts.Normalized()
	key := fmt.Sprintf("summary:%s:%s:%s", notes.Digest(notesText), opts.Length, opts.Style)
	if v, ok := c.cache.Get(key); ok {
		return v.(Summary), nil
	}
	summary, err := c.inner.Summarize(ctx, notesText, opts)
	if err != nil {
		return Summary{}, err
	}
	c.cache.Set(key, summary, cache.DefaultExpiration)
	return summary, nil
}

func (c *CachedGenerator) Flashcards(ctx context.Context, notesText string) (FlashcardSet, error) {
	key := "flashcards:" + notes.Digest(notesText)
	if v, ok := c.cache.Get(key); ok {
		return v.(FlashcardSet), nil
	}
	set, err := c.inner.Flashcards(ctx, notesText)
	if err != nil {
		return FlashcardSet{}, err
	}
	c.cache.Set(key, set, cache.DefaultExpiration)
	return set, nil
}

func (c *CachedGenerator) KeyConcepts(ctx context.Context, notesText string) (KeyConceptSet, error) {
	key := "concepts:" + notes.Digest(notesText)
	if v, ok := c.cache.Get(key); ok {
		return v.(KeyConceptSet), nil
	}
	set, err := c.inner.KeyConcepts(ctx, notesText)
	if err != nil {
		return KeyConceptSet{}, err
	}
	c.cache.Set(key, set, cache.DefaultExpiration)
	return set, nil
}

func (c *CachedGenerator) Answer(ctx context.Context, notesText, question string) (string, error) {
	return c.inner.Answer(ctx, notesText, question)
}

func (c *CachedGenerator) Explain(ctx context.Context, fragment string) (string, error) {
	return c.inner.Explain(ctx, fragment)
}
