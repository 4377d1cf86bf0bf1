package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres persists state as one JSONB row. Suitable when several daemon
// replicas share wallet state; the database provides the last-write-wins
// semantics the resolver relies on.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres { return &Postgres{Pool: pool} }

// Init creates the state table if it does not exist.
func (p *Postgres) Init(ctx context.Context) error {
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS wallet_state (
			id SMALLINT PRIMARY KEY CHECK (id = 1),
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create wallet_state table: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context) (*State, error) {
	if p.Pool == nil {
		return nil, errors.New("missing pool")
	}

	var payload []byte
	err := p.Pool.QueryRow(ctx, `SELECT payload FROM wallet_state WHERE id = 1`).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read wallet state: %w", err)
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("decode wallet state: %w", err)
	}
	normalize(&state)
	return &state, nil
}

func (p *Postgres) Set(ctx context.Context, state *State) error {
	if p.Pool == nil {
		return errors.New("missing pool")
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode wallet state: %w", err)
	}
	_, err = p.Pool.Exec(ctx, `
		INSERT INTO wallet_state (id, payload, updated_at) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write wallet state: %w", err)
	}
	return nil
}
