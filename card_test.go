package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeCards(completed ...bool) []Card {
	cards := make([]Card, len(completed))
	for i, done := range completed {
		cards[i] = Card{
			ID:        int64(i + 1),
			Title:     string(rune('A' + i)),
			Sequence:  i,
			Completed: done,
		}
	}
	return cards
}

func activeCount(views []CardView) int {
	n := 0
	for _, v := range views {
		if v.IsActive {
			n++
		}
	}
	return n
}

func TestComputeActive_FirstIncomplete(t *testing.T) {
	// A incomplete, B incomplete, C completed
	views := computeActive(makeCards(false, false, true))

	require.Len(t, views, 3)
	assert.True(t, views[0].IsActive)
	assert.False(t, views[1].IsActive)
	assert.False(t, views[2].IsActive)
}

func TestComputeActive_SkipsCompletedHead(t *testing.T) {
	views := computeActive(makeCards(true, true, false, false))

	assert.False(t, views[0].IsActive)
	assert.False(t, views[1].IsActive)
	assert.True(t, views[2].IsActive)
	assert.False(t, views[3].IsActive)
}

func TestComputeActive_Empty(t *testing.T) {
	views := computeActive(nil)

	assert.Empty(t, views)
}

func TestComputeActive_AllCompleted(t *testing.T) {
	views := computeActive(makeCards(true, true, true))

	assert.Zero(t, activeCount(views))
}

func TestComputeActive_ExactlyOneActive(t *testing.T) {
	for _, cards := range [][]Card{
		makeCards(false),
		makeCards(false, false, false, false),
		makeCards(true, false, true, false),
		makeCards(false, true, true),
	} {
		views := computeActive(cards)

		assert.Equal(t, 1, activeCount(views))
	}
}

func TestShuffleIncomplete_BijectionOnIncomplete(t *testing.T) {
	cards := makeCards(false, true, false, false, true, false, false)

	inIncomplete := map[int64]bool{}
	for _, c := range cards {
		if !c.Completed {
			inIncomplete[c.ID] = true
		}
	}

	order, active := shuffleIncomplete(cards)

	require.Len(t, order, len(cards))

	// incomplete cards come first and are the same set as before
	for i := 0; i < len(inIncomplete); i++ {
		assert.False(t, order[i].Completed)
		assert.True(t, inIncomplete[order[i].ID], "card %d was not incomplete before", order[i].ID)
	}

	// completed cards follow, in their original relative order
	assert.Equal(t, []int64{2, 5}, []int64{order[len(inIncomplete)].ID, order[len(inIncomplete)+1].ID})

	require.NotNil(t, active)
	assert.Equal(t, order[0].ID, active.ID)
	assert.True(t, active.IsActive)
}

func TestShuffleIncomplete_DenseSequences(t *testing.T) {
	order, _ := shuffleIncomplete(makeCards(false, true, false, true, false))

	for i, c := range order {
		assert.Equal(t, i, c.Sequence)
	}
}

func TestShuffleIncomplete_AllCompleted(t *testing.T) {
	cards := makeCards(true, true, true)

	order, active := shuffleIncomplete(cards)

	require.Len(t, order, 3)
	assert.Nil(t, active)

	// relative order untouched
	for i, c := range order {
		assert.Equal(t, cards[i].ID, c.ID)
		assert.Equal(t, i, c.Sequence)
		assert.True(t, c.Completed)
	}
}

func TestShuffleIncomplete_Empty(t *testing.T) {
	order, active := shuffleIncomplete(nil)

	assert.Empty(t, order)
	assert.Nil(t, active)
}

func TestShuffleIncomplete_SingleIncompleteAfterCompletion(t *testing.T) {
	// A just completed, B still incomplete, C long done: the only possible
	// order is B first, then A and C in their original relative order.
	cards := makeCards(true, false, true)

	order, active := shuffleIncomplete(cards)

	require.Len(t, order, 3)
	assert.Equal(t, int64(2), order[0].ID)
	assert.Equal(t, int64(1), order[1].ID)
	assert.Equal(t, int64(3), order[2].ID)

	require.NotNil(t, active)
	assert.Equal(t, int64(2), active.ID)
	assert.Equal(t, 0, active.Sequence)
}
