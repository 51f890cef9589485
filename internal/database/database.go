// Package database archives finished games in PostgreSQL.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// PlayerResult is one seat's final standing.
type PlayerResult struct {
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Abandoned bool   `json:"abandoned"`
}

// GameResult is the archived summary of a finished game.
type GameResult struct {
	GameID     uuid.UUID
	MaxCards   int
	Players    []PlayerResult
	Winners    []string
	FinishedAt time.Time
}

// Store persists game results.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool and waits until the database answers.
func Connect(ctx context.Context, url string, log logrus.FieldLogger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	for i := 1; ; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = pool.Ping(pingCtx)
		cancel()
		if err == nil {
			break
		}
		if i == 10 {
			pool.Close()
			return nil, fmt.Errorf("database unavailable: %w", err)
		}
		log.Warnf("database not ready (%d/10), retrying...", i)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	log.Info("database connected")
	return &Store{pool: pool}, nil
}

// Migrate creates the results table if it doesn't exist. Idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_results (
			game_id     UUID PRIMARY KEY,
			max_cards   INTEGER     NOT NULL,
			players     JSONB       NOT NULL,
			winners     TEXT[]      NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate game_results: %w", err)
	}
	return nil
}

// SaveResult stores a finished game. Saving the same game twice is a no-op.
func (s *Store) SaveResult(ctx context.Context, r GameResult) error {
	players, err := json.Marshal(r.Players)
	if err != nil {
		return fmt.Errorf("marshal players: %w", err)
	}
	winners := r.Winners
	if winners == nil {
		winners = []string{}
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO game_results (game_id, max_cards, players, winners, finished_at)
		VALUES ($1, $2, $3::jsonb, $4, $5)
		ON CONFLICT (game_id) DO NOTHING`,
		r.GameID.String(), r.MaxCards, string(players), winners, r.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert result %s: %w", r.GameID, err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }
