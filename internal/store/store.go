// Package store persists crawl observations in a local SQLite database.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/hdrlab/headstone/internal/models"
)

const dayFormat = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS live_observations (
	target_rank INTEGER NOT NULL,
	domain      TEXT NOT NULL,
	day         TEXT NOT NULL,
	start_url   TEXT NOT NULL,
	end_url     TEXT,
	status_code INTEGER,
	headers     TEXT NOT NULL,
	fetched_at  TEXT NOT NULL,
	error       TEXT,
	PRIMARY KEY (target_rank, day)
);

CREATE TABLE IF NOT EXISTS archive_observations (
	target_rank INTEGER NOT NULL,
	domain      TEXT NOT NULL,
	day         TEXT NOT NULL,
	start_url   TEXT NOT NULL,
	end_url     TEXT,
	memento_at  TEXT,
	status_code INTEGER,
	headers     TEXT NOT NULL,
	PRIMARY KEY (target_rank, day)
);
`

// Store wraps the observation database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the observation database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertLive stores one live observation, replacing any earlier record for
// the same target and day.
func (s *Store) InsertLive(obs models.LiveObservation) error {
	headerJSON, err := json.Marshal(obs.Headers)
	if err != nil {
		return fmt.Errorf("failed to encode headers: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO live_observations
		(target_rank, domain, day, start_url, end_url, status_code, headers, fetched_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		obs.TargetRank, obs.Domain, obs.Day.Format(dayFormat), obs.StartURL, obs.EndURL,
		obs.StatusCode, string(headerJSON), obs.FetchedAt.UTC().Format(time.RFC3339), obs.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert live observation: %w", err)
	}
	return nil
}

// InsertArchive stores one archive observation, replacing any earlier record
// for the same target and day.
func (s *Store) InsertArchive(obs models.ArchiveObservation) error {
	headerJSON, err := json.Marshal(obs.Headers)
	if err != nil {
		return fmt.Errorf("failed to encode headers: %w", err)
	}

	var mementoAt sql.NullString
	if !obs.MementoAt.IsZero() {
		mementoAt = sql.NullString{String: obs.MementoAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO archive_observations
		(target_rank, domain, day, start_url, end_url, memento_at, status_code, headers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		obs.TargetRank, obs.Domain, obs.Day.Format(dayFormat), obs.StartURL, obs.EndURL,
		mementoAt, obs.StatusCode, string(headerJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert archive observation: %w", err)
	}
	return nil
}

// LiveObservations returns one target's live observations in increasing day
// order.
func (s *Store) LiveObservations(rank int) ([]models.LiveObservation, error) {
	rows, err := s.db.Query(`
		SELECT target_rank, domain, day, start_url, end_url, status_code, headers, fetched_at, error
		FROM live_observations WHERE target_rank = ? ORDER BY day`, rank)
	if err != nil {
		return nil, fmt.Errorf("failed to query live observations: %w", err)
	}
	defer rows.Close()

	var observations []models.LiveObservation
	for rows.Next() {
		var (
			obs        models.LiveObservation
			day        string
			endURL     sql.NullString
			statusCode sql.NullInt64
			headerJSON string
			fetchedAt  string
			errText    sql.NullString
		)
		if err := rows.Scan(&obs.TargetRank, &obs.Domain, &day, &obs.StartURL, &endURL,
			&statusCode, &headerJSON, &fetchedAt, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan live observation: %w", err)
		}
		if obs.Day, err = time.Parse(dayFormat, day); err != nil {
			return nil, fmt.Errorf("failed to parse day %q: %w", day, err)
		}
		if obs.FetchedAt, err = time.Parse(time.RFC3339, fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to parse fetch time %q: %w", fetchedAt, err)
		}
		if err := json.Unmarshal([]byte(headerJSON), &obs.Headers); err != nil {
			return nil, fmt.Errorf("failed to decode headers: %w", err)
		}
		obs.EndURL = endURL.String
		obs.StatusCode = int(statusCode.Int64)
		obs.Error = errText.String
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

// ArchiveObservations returns one target's archive observations in increasing
// day order.
func (s *Store) ArchiveObservations(rank int) ([]models.ArchiveObservation, error) {
	rows, err := s.db.Query(`
		SELECT target_rank, domain, day, start_url, end_url, memento_at, status_code, headers
		FROM archive_observations WHERE target_rank = ? ORDER BY day`, rank)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive observations: %w", err)
	}
	defer rows.Close()

	var observations []models.ArchiveObservation
	for rows.Next() {
		var (
			obs        models.ArchiveObservation
			day        string
			endURL     sql.NullString
			mementoAt  sql.NullString
			statusCode sql.NullInt64
			headerJSON string
		)
		if err := rows.Scan(&obs.TargetRank, &obs.Domain, &day, &obs.StartURL, &endURL,
			&mementoAt, &statusCode, &headerJSON); err != nil {
			return nil, fmt.Errorf("failed to scan archive observation: %w", err)
		}
		if obs.Day, err = time.Parse(dayFormat, day); err != nil {
			return nil, fmt.Errorf("failed to parse day %q: %w", day, err)
		}
		if mementoAt.Valid {
			if obs.MementoAt, err = time.Parse(time.RFC3339, mementoAt.String); err != nil {
				return nil, fmt.Errorf("failed to parse memento time %q: %w", mementoAt.String, err)
			}
		}
		if err := json.Unmarshal([]byte(headerJSON), &obs.Headers); err != nil {
			return nil, fmt.Errorf("failed to decode headers: %w", err)
		}
		obs.EndURL = endURL.String
		obs.StatusCode = int(statusCode.Int64)
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

// LiveTargets returns the distinct target ranks with live observations.
func (s *Store) LiveTargets() ([]int, error) {
	return s.targetRanks("live_observations")
}

// ArchiveTargets returns the distinct target ranks with archive observations.
func (s *Store) ArchiveTargets() ([]int, error) {
	return s.targetRanks("archive_observations")
}

func (s *Store) targetRanks(table string) ([]int, error) {
	rows, err := s.db.Query("SELECT DISTINCT target_rank FROM " + table + " ORDER BY target_rank")
	if err != nil {
		return nil, fmt.Errorf("failed to query targets: %w", err)
	}
	defer rows.Close()

	var ranks []int
	for rows.Next() {
		var rank int
		if err := rows.Scan(&rank); err != nil {
			return nil, fmt.Errorf("failed to scan target rank: %w", err)
		}
		ranks = append(ranks, rank)
	}
	return ranks, rows.Err()
}
