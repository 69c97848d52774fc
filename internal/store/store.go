// Package store persists processing snapshots in SQLite so KPI trends
// survive restarts and the web server can serve data without reprocessing
// the source files on boot.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	apperrors "hsecli/internal/errors"
	"hsecli/pkg/contracts/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at    TEXT NOT NULL,
	total_records INTEGER NOT NULL,
	kpis          TEXT NOT NULL,
	quality       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_records (
	snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	category    TEXT NOT NULL,
	record      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshot_records ON snapshot_records(snapshot_id, category);
`

// Store is the SQLite-backed snapshot store.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the snapshot database. Use ":memory:" for an
// ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStorageError("open snapshot database", err)
	}

	// SQLite allows one writer; keep the pool at one connection so
	// concurrent refreshes queue instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("enable foreign keys", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("migrate snapshot database", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is still usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.NewStorageError("ping snapshot database", err)
	}
	return nil
}

// SaveSnapshot persists one completed refresh and returns its id.
func (s *Store) SaveSnapshot(ctx context.Context, snap domain.Snapshot) (int64, error) {
	kpis, err := json.Marshal(snap.KPIs)
	if err != nil {
		return 0, apperrors.NewStorageError("marshal kpis", err)
	}
	quality, err := json.Marshal(snap.Quality)
	if err != nil {
		return 0, apperrors.NewStorageError("marshal quality", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewStorageError("begin transaction", err)
	}
	defer tx.Rollback()

	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (created_at, total_records, kpis, quality) VALUES (?, ?, ?, ?)`,
		createdAt.Format(time.RFC3339Nano), snap.KPIs.TotalRecords(), string(kpis), string(quality))
	if err != nil {
		return 0, apperrors.NewStorageError("insert snapshot", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperrors.NewStorageError("snapshot id", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_records (snapshot_id, category, record) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, apperrors.NewStorageError("prepare record insert", err)
	}
	defer stmt.Close()

	for category, records := range snap.Records {
		for _, rec := range records {
			data, err := json.Marshal(rec)
			if err != nil {
				return 0, apperrors.NewStorageError("marshal record", err)
			}
			if _, err := stmt.ExecContext(ctx, id, string(category), string(data)); err != nil {
				return 0, apperrors.NewStorageError("insert record", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewStorageError("commit snapshot", err)
	}

	slog.Info("saved snapshot",
		slog.Int64("snapshot_id", id),
		slog.Int("total_records", snap.KPIs.TotalRecords()))

	return id, nil
}

// LatestSnapshot loads the most recent snapshot with its records.
func (s *Store) LatestSnapshot(ctx context.Context) (domain.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, kpis, quality FROM snapshots ORDER BY id DESC LIMIT 1`)

	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Snapshot{}, apperrors.NewNotFoundError("snapshot")
		}
		return domain.Snapshot{}, err
	}

	records, err := s.loadRecords(ctx, snap.ID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap.Records = records
	return snap, nil
}

// KPIHistory returns the KPI reports of the most recent snapshots,
// ordered oldest first so trend windows read left to right.
func (s *Store) KPIHistory(ctx context.Context, limit int) ([]domain.KPIReport, error) {
	if limit < 1 {
		limit = 1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT kpis FROM snapshots ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, apperrors.NewStorageError("query kpi history", err)
	}
	defer rows.Close()

	var history []domain.KPIReport
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, apperrors.NewStorageError("scan kpi history", err)
		}
		var report domain.KPIReport
		if err := json.Unmarshal([]byte(data), &report); err != nil {
			return nil, apperrors.NewStorageError("decode kpi history", err)
		}
		history = append(history, report)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate kpi history", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}

// Prune deletes all but the newest keep snapshots.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, apperrors.NewStorageError("prune snapshots", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.NewStorageError("prune result", err)
	}
	if deleted > 0 {
		slog.Info("pruned snapshots", slog.Int64("deleted", deleted), slog.Int("kept", keep))
	}
	return deleted, nil
}

func (s *Store) loadRecords(ctx context.Context, snapshotID int64) (map[domain.Category][]domain.SafetyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, record FROM snapshot_records WHERE snapshot_id = ?`, snapshotID)
	if err != nil {
		return nil, apperrors.NewStorageError("query records", err)
	}
	defer rows.Close()

	records := make(map[domain.Category][]domain.SafetyRecord)
	for rows.Next() {
		var category, data string
		if err := rows.Scan(&category, &data); err != nil {
			return nil, apperrors.NewStorageError("scan record", err)
		}
		var rec domain.SafetyRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, apperrors.NewStorageError("decode record", err)
		}
		records[domain.Category(category)] = append(records[domain.Category(category)], rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (domain.Snapshot, error) {
	var snap domain.Snapshot
	var createdAt, kpis, quality string

	if err := row.Scan(&snap.ID, &createdAt, &kpis, &quality); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Snapshot{}, err
		}
		return domain.Snapshot{}, apperrors.NewStorageError("scan snapshot", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return domain.Snapshot{}, apperrors.NewStorageError("parse snapshot timestamp", err)
	}
	snap.CreatedAt = ts

	if err := json.Unmarshal([]byte(kpis), &snap.KPIs); err != nil {
		return domain.Snapshot{}, apperrors.NewStorageError("decode kpis", err)
	}
	if err := json.Unmarshal([]byte(quality), &snap.Quality); err != nil {
		return domain.Snapshot{}, apperrors.NewStorageError("decode quality", err)
	}
	return snap, nil
}
