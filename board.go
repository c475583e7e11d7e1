package main

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Broadcast event names, as seen on the websocket wire.
const (
	eventCardsRefresh = "cards:refresh"
	eventTimerStart   = "timer:start"
	eventTimerStop    = "timer:stop"
)

// ErrTitleRequired is returned when a card is created without a title.
var ErrTitleRequired = errors.New("card title must not be empty")

// Publisher fans events out to every connected viewer. Delivery is
// best-effort; a dropped event never affects persisted state.
type Publisher interface {
	Publish(event string, payload any)
}

// CardStore is the durable ordered record store behind the board.
type CardStore interface {
	CreateCard(ctx context.Context, title string) (Card, error)
	ListCards(ctx context.Context) ([]Card, error)
	GetCard(ctx context.Context, id int64) (Card, error)
	SaveCard(ctx context.Context, card Card) error
	DeleteCard(ctx context.Context, id int64) error
	ReorderCards(ctx context.Context, reorder func([]Card) []Card) ([]Card, error)
}

// Board turns client actions into store mutations and broadcasts. Every
// successful write is followed by a fresh snapshot of the authoritative
// order, so all connected viewers converge without polling.
type Board struct {
	cfg   *Config
	store CardStore
	pub   Publisher

	// serializes shuffles; each shuffle is also one store transaction
	shuffleMu sync.Mutex
}

func newBoard(cfg *Config, store CardStore, pub Publisher) *Board {
	return &Board{
		cfg:   cfg,
		store: store,
		pub:   pub,
	}
}

// Snapshot returns the ordered, active-flagged board.
func (b *Board) Snapshot(ctx context.Context) ([]CardView, error) {
	cards, err := b.store.ListCards(ctx)
	if err != nil {
		return nil, err
	}
	return computeActive(cards), nil
}

// FetchBoard returns the snapshot and rebroadcasts it: loading the board has
// always refreshed every other viewer as well.
func (b *Board) FetchBoard(ctx context.Context) ([]CardView, error) {
	views, err := b.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	b.pub.Publish(eventCardsRefresh, views)
	return views, nil
}

// AddCard appends a new incomplete card at the end of the order. Creation
// itself does not broadcast; the creating client fetches the board next,
// which refreshes everyone.
func (b *Board) AddCard(ctx context.Context, title string) (Card, error) {
	if strings.TrimSpace(title) == "" {
		return Card{}, ErrTitleRequired
	}

	card, err := b.store.CreateCard(ctx, title)
	if err != nil {
		return Card{}, err
	}

	logf(b.cfg, "BOARD: Added card %q (id %d)", card.Title, card.ID)

	return card, nil
}

// UpdateCard sets title and completion for an existing card, then broadcasts
// the refreshed board.
func (b *Board) UpdateCard(ctx context.Context, id int64, title string, completed bool) error {
	card, err := b.store.GetCard(ctx, id)
	if err != nil {
		return err
	}

	card.Title = title
	card.Completed = completed

	if err := b.store.SaveCard(ctx, card); err != nil {
		return err
	}

	logf(b.cfg, "BOARD: Updated card %d (completed=%t)", id, completed)

	return b.refresh(ctx)
}

// RemoveCard deletes a card and broadcasts the remaining board. Unknown ids
// are a no-op; surviving cards keep their sequence numbers, gaps and all.
func (b *Board) RemoveCard(ctx context.Context, id int64) error {
	if err := b.store.DeleteCard(ctx, id); err != nil {
		return err
	}

	logf(b.cfg, "BOARD: Removed card %d", id)

	return b.refresh(ctx)
}

// Shuffle completes the current active card, randomly reorders the remaining
// incomplete cards ahead of the completed tail, and renumbers the sequence
// densely. The reorder runs under the shuffle lock and inside a single store
// transaction, so two shuffles can never interleave their writes. Shuffling
// hands the floor to someone new, so any running timer is stopped.
func (b *Board) Shuffle(ctx context.Context) error {
	b.shuffleMu.Lock()
	defer b.shuffleMu.Unlock()

	order, err := b.store.ReorderCards(ctx, func(cards []Card) []Card {
		if i := firstIncomplete(cards); i >= 0 {
			cards[i].Completed = true
		}
		next, _ := shuffleIncomplete(cards)
		return next
	})
	if err != nil {
		return err
	}

	b.pub.Publish(eventCardsRefresh, computeActive(order))
	b.pub.Publish(eventTimerStop, nil)

	logf(b.cfg, "BOARD: Shuffled %d cards", len(order))

	return nil
}

// ManageTimer broadcasts a timer start or stop signal. Elapsed time is each
// client's own business; the server keeps no countdown.
func (b *Board) ManageTimer(isTiming bool) {
	if isTiming {
		b.pub.Publish(eventTimerStart, nil)
	} else {
		b.pub.Publish(eventTimerStop, nil)
	}

	logf(b.cfg, "BOARD: Timer signal (isTiming=%t)", isTiming)
}

// refresh broadcasts the authoritative board after a successful write.
func (b *Board) refresh(ctx context.Context) error {
	views, err := b.Snapshot(ctx)
	if err != nil {
		return err
	}
	b.pub.Publish(eventCardsRefresh, views)
	return nil
}
