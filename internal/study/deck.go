package study

// Deck walks a flashcard set for review. Navigation wraps at both ends. The
// zero Deck and a Deck over an empty set have no current card.
type Deck struct {
	cards []Flashcard
	index int
}

// NewDeck starts a review at the first card.
func NewDeck(set FlashcardSet) *Deck {
	return &Deck{cards: set.Cards}
}

// Len returns the number of cards.
func (d *Deck) Len() int { return len(d.cards) }

// Current returns the card under review.
func (d *Deck) Current() (Flashcard, bool) {
	if len(d.cards) == 0 {
		return Flashcard{}, false
	}
	return d.cards[d.index], true
}

// Next advances one card, wrapping from last to first.
func (d *Deck) Next() (Flashcard, bool) {
	if len(d.cards) == 0 {
		return Flashcard{}, false
	}
	d.index = (d.index + 1) % len(d.cards)
	return d.cards[d.index], true
}

// Prev steps back one card, wrapping from first to last.
func (d *Deck) Prev() (Flashcard, bool) {
	if len(d.cards) == 0 {
		return Flashcard{}, false
	}
	d.index = (d.index - 1 + len(d.cards)) % len(d.cards)
	return d.cards[d.index], true
}

// Position returns the 1-based index of the current card and the total, or
// 0, 0 for an empty deck.
func (d *Deck) Position() (int, int) {
	if len(d.cards) == 0 {
		return 0, 0
	}
	return d.index + 1, len(d.cards)
}
