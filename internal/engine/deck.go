package engine

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// BuildDeck clones catalog templates round-robin until size cards exist,
// then shuffles them. The top of the deck is the last element.
func BuildDeck(catalog []Card, size int, r *rand.Rand) []*Card {
	if len(catalog) == 0 || size <= 0 {
		return nil
	}
	deck := make([]*Card, 0, size)
	for i := 0; i < size; i++ {
		c := catalog[i%len(catalog)].Clone()
		if c.TemplateID == "" {
			c.TemplateID = c.ID
		}
		c.ID = uuid.NewString()
		c.Field = nil
		deck = append(deck, c)
	}
	Shuffle(deck, r)
	return deck
}

// Shuffle is a Fisher-Yates shuffle: position i swaps with a uniform
// position in [0, i], scanning from the end.
func Shuffle(cards []*Card, r *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}
