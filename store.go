package main

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrCardNotFound is returned when a card id has no row.
var ErrCardNotFound = errors.New("card not found")

const listCardsQuery = `SELECT id, title, sequence, completed, created_at, updated_at
FROM cards ORDER BY sequence ASC, id ASC`

// Store provides durable storage for board cards.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// openStore creates or opens a SQLite database at the given path and applies
// the schema. Idempotent - safe to call against an existing database.
func openStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateCard inserts a new incomplete card at the end of the current order.
func (s *Store) CreateCard(ctx context.Context, title string) (Card, error) {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO cards (title, sequence, completed, created_at, updated_at)
		 VALUES (?, (SELECT COALESCE(MAX(sequence) + 1, 0) FROM cards), 0, ?, ?)`,
		title, now, now)
	if err != nil {
		return Card{}, fmt.Errorf("create card: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Card{}, fmt.Errorf("create card: %w", err)
	}

	return s.GetCard(ctx, id)
}

// ListCards returns every card ordered ascending by sequence.
func (s *Store) ListCards(ctx context.Context) ([]Card, error) {
	return scanCards(s.db.QueryContext(ctx, listCardsQuery))
}

// GetCard fetches a single card by id, or ErrCardNotFound.
func (s *Store) GetCard(ctx context.Context, id int64) (Card, error) {
	var c Card
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, sequence, completed, created_at, updated_at FROM cards WHERE id = ?`,
		id).Scan(&c.ID, &c.Title, &c.Sequence, &c.Completed, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Card{}, ErrCardNotFound
	}
	if err != nil {
		return Card{}, fmt.Errorf("get card %d: %w", id, err)
	}
	return c, nil
}

// SaveCard upserts a card by id, bumping its updated_at timestamp.
func (s *Store) SaveCard(ctx context.Context, card Card) error {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE cards SET title = ?, sequence = ?, completed = ?, updated_at = ? WHERE id = ?`,
		card.Title, card.Sequence, card.Completed, now, card.ID)
	if err != nil {
		return fmt.Errorf("save card %d: %w", card.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save card %d: %w", card.ID, err)
	}
	if n > 0 {
		return nil
	}

	createdAt := card.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cards (id, title, sequence, completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		card.ID, card.Title, card.Sequence, card.Completed, createdAt, now)
	if err != nil {
		return fmt.Errorf("save card %d: %w", card.ID, err)
	}
	return nil
}

// DeleteCard removes a card by id. Deleting an absent id is a no-op; the
// remaining cards keep their sequence numbers.
func (s *Store) DeleteCard(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete card %d: %w", id, err)
	}
	return nil
}

// CountCards returns the number of cards on the board.
func (s *Store) CountCards(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

// ReorderCards reads the full ordered card list, applies reorder to it, and
// persists every row whose sequence or completion changed, all inside a
// single transaction. Either every write lands or none do.
func (s *Store) ReorderCards(ctx context.Context, reorder func([]Card) []Card) ([]Card, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback()

	cards, err := scanCards(tx.QueryContext(ctx, listCardsQuery))
	if err != nil {
		return nil, err
	}

	before := make(map[int64]Card, len(cards))
	for _, c := range cards {
		before[c.ID] = c
	}

	out := reorder(cards)

	now := time.Now().UTC()
	for i := range out {
		prev := before[out[i].ID]
		if prev.Sequence == out[i].Sequence && prev.Completed == out[i].Completed {
			continue
		}
		out[i].UpdatedAt = now
		if _, err := tx.ExecContext(ctx,
			`UPDATE cards SET sequence = ?, completed = ?, updated_at = ? WHERE id = ?`,
			out[i].Sequence, out[i].Completed, now, out[i].ID); err != nil {
			return nil, fmt.Errorf("persist reorder: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reorder: %w", err)
	}

	return out, nil
}

func scanCards(rows *sql.Rows, err error) ([]Card, error) {
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	cards := []Card{}
	for rows.Next() {
		var c Card
		if err := rows.Scan(&c.ID, &c.Title, &c.Sequence, &c.Completed, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}

	return cards, nil
}
