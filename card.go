package main

import (
	"math/rand/v2"
	"time"
)

// Card is one named participant/topic in the rotation. Sequence defines the
// board order; the active flag is derived from position, never stored.
type Card struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Sequence  int       `json:"sequence"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CardView is a Card plus the derived active flag, as sent to clients.
type CardView struct {
	Card
	IsActive bool `json:"isActive"`
}

// firstIncomplete returns the index of the first card not yet completed, or
// -1 when every card is done. Input must be ordered ascending by sequence.
func firstIncomplete(cards []Card) int {
	for i, c := range cards {
		if !c.Completed {
			return i
		}
	}
	return -1
}

// computeActive tags the first incomplete card as the single active one.
func computeActive(cards []Card) []CardView {
	active := firstIncomplete(cards)
	views := make([]CardView, len(cards))
	for i, c := range cards {
		views[i] = CardView{Card: c, IsActive: i == active}
	}
	return views
}

// shuffleIncomplete reorders the not-yet-completed cards into a uniformly
// random permutation, keeps the completed cards at the tail in their original
// relative order, and renumbers every sequence densely from zero. Completion
// state is never changed here; callers decide who is done before shuffling.
func shuffleIncomplete(cards []Card) ([]Card, *CardView) {
	incomplete := make([]Card, 0, len(cards))
	completed := make([]Card, 0, len(cards))
	for _, c := range cards {
		if c.Completed {
			completed = append(completed, c)
		} else {
			incomplete = append(incomplete, c)
		}
	}

	// Fisher-Yates via rand.Shuffle; unbiased, unlike sorting by random keys
	rand.Shuffle(len(incomplete), func(i, j int) {
		incomplete[i], incomplete[j] = incomplete[j], incomplete[i]
	})

	order := append(incomplete, completed...)
	for i := range order {
		order[i].Sequence = i
	}

	views := computeActive(order)
	for i := range views {
		if views[i].IsActive {
			return order, &views[i]
		}
	}

	return order, nil
}
