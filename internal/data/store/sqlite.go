package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/penwyp/go-colony-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-colony-monitor/internal/util"

	_ "modernc.org/sqlite"
)

// schema.sql holds the run history schema.
//
//go:embed schema.sql
var schemaSQL string

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Run describes one stored analysis run.
type Run struct {
	ID         string
	CreatedAt  time.Time
	DataDir    string
	Sources    []string
	TableCount int
}

// Store keeps the statistic tables of every run in a SQLite file.
type Store struct {
	*sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps in-memory databases and pragmas consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	util.LogDebug(fmt.Sprintf("Opened run store at %s", path))
	return &Store{db}, nil
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// SaveReport stores every table of report under report.RunID in one
// transaction. An empty run id is replaced with a new one, which is returned.
func (s *Store) SaveReport(ctx context.Context, report formatter.Report, dataDir string) (string, error) {
	runID := report.RunID
	if runID == "" {
		runID = NewRunID()
	} else if _, err := uuid.Parse(runID); err != nil {
		return "", fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	createdAt := report.GeneratedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	sources, err := sonic.MarshalString(report.Sources)
	if err != nil {
		return "", fmt.Errorf("failed to encode sources: %w", err)
	}
	warnings, err := sonic.MarshalString(append([]string{}, report.Warnings...))
	if err != nil {
		return "", fmt.Errorf("failed to encode warnings: %w", err)
	}

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, data_dir, sources, table_count, warnings) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, createdAt.UnixNano(), dataDir, sources, len(report.Tables), warnings); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	tableStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stat_tables (run_id, table_name, position, headers) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare table insert: %w", err)
	}
	defer tableStmt.Close()

	cellStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stat_cells (run_id, table_name, row_index, column_index, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare cell insert: %w", err)
	}
	defer cellStmt.Close()

	for pos, table := range report.Tables {
		headers, err := sonic.MarshalString(table.Headers)
		if err != nil {
			return "", fmt.Errorf("failed to encode headers of %s: %w", table.Name, err)
		}
		if _, err := tableStmt.ExecContext(ctx, runID, table.Name, pos, headers); err != nil {
			return "", fmt.Errorf("failed to insert table %s: %w", table.Name, err)
		}
		for r, row := range table.Rows {
			for c, value := range row {
				if _, err := cellStmt.ExecContext(ctx, runID, table.Name, r, c, value); err != nil {
					return "", fmt.Errorf("failed to insert cell %s[%d][%d]: %w", table.Name, r, c, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run %s: %w", runID, err)
	}
	util.LogInfo("Stored run", util.F("run_id", runID), util.F("tables", len(report.Tables)))
	return runID, nil
}

// Runs lists stored runs, newest first. A limit of 0 lists them all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT run_id, created_at, data_dir, sources, table_count FROM runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run     Run
			created int64
			sources string
		)
		if err := rows.Scan(&run.ID, &created, &run.DataDir, &sources, &run.TableCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.CreatedAt = time.Unix(0, created)
		if err := sonic.UnmarshalString(sources, &run.Sources); err != nil {
			return nil, fmt.Errorf("failed to decode sources of run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LoadReport rebuilds the report stored under runID.
func (s *Store) LoadReport(ctx context.Context, runID string) (formatter.Report, error) {
	var (
		report   formatter.Report
		created  int64
		sources  string
		warnings string
	)
	err := s.QueryRowContext(ctx, `SELECT run_id, created_at, sources, warnings FROM runs WHERE run_id = ?`, runID).
		Scan(&report.RunID, &created, &sources, &warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return report, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return report, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	report.GeneratedAt = time.Unix(0, created)
	if err := sonic.UnmarshalString(sources, &report.Sources); err != nil {
		return report, fmt.Errorf("failed to decode sources of run %s: %w", runID, err)
	}
	if err := sonic.UnmarshalString(warnings, &report.Warnings); err != nil {
		return report, fmt.Errorf("failed to decode warnings of run %s: %w", runID, err)
	}

	rows, err := s.QueryContext(ctx,
		`SELECT table_name, headers FROM stat_tables WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return report, fmt.Errorf("failed to list tables of run %s: %w", runID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			table   formatter.Table
			headers string
		)
		if err := rows.Scan(&table.Name, &headers); err != nil {
			return report, fmt.Errorf("failed to scan table: %w", err)
		}
		if err := sonic.UnmarshalString(headers, &table.Headers); err != nil {
			return report, fmt.Errorf("failed to decode headers of %s: %w", table.Name, err)
		}
		report.Tables = append(report.Tables, table)
	}
	if err := rows.Err(); err != nil {
		return report, err
	}

	for i := range report.Tables {
		if err := s.loadCells(ctx, runID, &report.Tables[i]); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (s *Store) loadCells(ctx context.Context, runID string, table *formatter.Table) error {
	rows, err := s.QueryContext(ctx,
		`SELECT row_index, column_index, value FROM stat_cells
		 WHERE run_id = ? AND table_name = ? ORDER BY row_index, column_index`, runID, table.Name)
	if err != nil {
		return fmt.Errorf("failed to load cells of %s: %w", table.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r, c  int
			value string
		)
		if err := rows.Scan(&r, &c, &value); err != nil {
			return fmt.Errorf("failed to scan cell: %w", err)
		}
		for len(table.Rows) <= r {
			table.Rows = append(table.Rows, make([]string, len(table.Headers)))
		}
		if c < len(table.Rows[r]) {
			table.Rows[r][c] = value
		}
	}
	return rows.Err()
}

// DeleteRun removes a run and its tables.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// Describe is a one-line rendering of a run for listings.
func (r Run) Describe() string {
	return fmt.Sprintf("%s  %s  %d tables  %s",
		r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.TableCount, strings.Join(r.Sources, ","))
}
