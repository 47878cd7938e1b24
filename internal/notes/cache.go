package notes

import "sync"

// Cache holds the rendered document for the most recent NotesText so repeated
// lookups against the same version do not re-parse it.
type Cache struct {
	mu  sync.Mutex
	doc *Document
}

// Render returns the cached document when notes has the same digest as the
// previous call and parses it otherwise.
func (c *Cache) Render(notes string) *Document {
	digest := Digest(notes)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc != nil && c.doc.Digest == digest {
		return c.doc
	}
	c.doc = Render(notes)
	return c.doc
}
