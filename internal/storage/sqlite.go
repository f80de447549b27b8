package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ernie/courtside/internal/domain"
	_ "modernc.org/sqlite"
)

// Storage key for the live match document. Completed-match history lives in
// its own table; the two are independent per the persistence contract.
const MatchDocumentKey = "match-state"

// formatTimestamp converts time.Time to SQLite-compatible UTC ISO8601 string
// The Z suffix ensures the Go sqlite driver parses it back as UTC
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

//go:embed schema.sql
var schema string

// Store provides database access
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Enable foreign keys, WAL mode for better performance, and busy timeout for concurrency
	if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}

	// Create tables
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// --- Live match document ---

// LoadMatchDocument returns the raw stored document, or nil when none exists.
// The caller owns sanitization; storage hands back exactly what was written.
func (s *Store) LoadMatchDocument(ctx context.Context) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM documents WHERE key = ?
	`, MatchDocumentKey).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

// SaveMatchDocument writes the live match document under its fixed key
func (s *Store) SaveMatchDocument(ctx context.Context, doc *domain.MatchDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (key, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, MatchDocumentKey, string(data), formatTimestamp(time.Now()))
	return err
}

// --- Completed-match history ---

// AppendCompletedMatch inserts a match summary and trims the table to the
// newest domain.HistoryCap rows
func (s *Store) AppendCompletedMatch(ctx context.Context, summary domain.CompletedMatchSummary) error {
	players, err := json.Marshal(summary.Players)
	if err != nil {
		return fmt.Errorf("encoding player summaries: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO completed_matches
			(id, completed_at, duration_ms, games_played, total_rallies,
			 race_to, best_of, win_by_two, doubles_mode, winner_id, winner_name, players)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, summary.ID, formatTimestamp(summary.CompletedAt), summary.DurationMs,
		summary.GamesPlayed, summary.TotalRallies, summary.RaceTo, summary.BestOf,
		summary.WinByTwo, summary.DoublesMode, string(summary.WinnerID),
		summary.WinnerName, string(players))
	if err != nil {
		return fmt.Errorf("inserting match summary: %w", err)
	}

	if err := trimCompletedMatches(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func trimCompletedMatches(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM completed_matches WHERE id NOT IN (
			SELECT id FROM completed_matches
			ORDER BY completed_at DESC, created_at DESC
			LIMIT ?
		)
	`, domain.HistoryCap)
	if err != nil {
		return fmt.Errorf("trimming match history: %w", err)
	}
	return nil
}

// GetCompletedMatches returns up to limit summaries, most recent first
func (s *Store) GetCompletedMatches(ctx context.Context, limit int) ([]domain.CompletedMatchSummary, error) {
	if limit <= 0 || limit > domain.HistoryCap {
		limit = domain.HistoryCap
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, completed_at, duration_ms, games_played, total_rallies,
		       race_to, best_of, win_by_two, doubles_mode, winner_id, winner_name, players
		FROM completed_matches
		ORDER BY completed_at DESC, created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []domain.CompletedMatchSummary
	for rows.Next() {
		summary, err := scanCompletedMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *summary)
	}
	return matches, rows.Err()
}

// CountCompletedMatches returns the number of stored summaries
func (s *Store) CountCompletedMatches(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM completed_matches`).Scan(&count)
	return count, err
}

// ClearCompletedMatches erases the whole history
func (s *Store) ClearCompletedMatches(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM completed_matches`)
	return err
}

// ReplaceCompletedMatches swaps the entire history in one transaction,
// used by backup import
func (s *Store) ReplaceCompletedMatches(ctx context.Context, summaries []domain.CompletedMatchSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM completed_matches`); err != nil {
		return fmt.Errorf("clearing match history: %w", err)
	}

	for _, summary := range summaries {
		players, err := json.Marshal(summary.Players)
		if err != nil {
			return fmt.Errorf("encoding player summaries: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO completed_matches
				(id, completed_at, duration_ms, games_played, total_rallies,
				 race_to, best_of, win_by_two, doubles_mode, winner_id, winner_name, players)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, summary.ID, formatTimestamp(summary.CompletedAt), summary.DurationMs,
			summary.GamesPlayed, summary.TotalRallies, summary.RaceTo, summary.BestOf,
			summary.WinByTwo, summary.DoublesMode, string(summary.WinnerID),
			summary.WinnerName, string(players))
		if err != nil {
			return fmt.Errorf("inserting match summary %s: %w", summary.ID, err)
		}
	}

	if err := trimCompletedMatches(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}
