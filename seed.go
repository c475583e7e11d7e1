package main

import (
	"context"
)

// Demo roster carried over from the original deployment's seed data.
var demoCardTitles = []string{"Alice", "Bob", "Charlie", "David", "Eve"}

// seedDemoCards inserts the demo roster when the board is empty.
func seedDemoCards(ctx context.Context, cfg *Config, store *Store) error {
	n, err := store.CountCards(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logf(cfg, "SEED: Board already has %d cards, skipping demo seed", n)
		return nil
	}

	for _, title := range demoCardTitles {
		if _, err := store.CreateCard(ctx, title); err != nil {
			return err
		}
	}

	logf(cfg, "SEED: Inserted %d demo cards", len(demoCardTitles))

	return nil
}
