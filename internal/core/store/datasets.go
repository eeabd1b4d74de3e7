package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dataforge/dataforge/internal/core"
)

// DatasetPage is one page of a dataset listing. Rows are omitted from list
// items; fetch a single dataset for the full payload.
type DatasetPage struct {
	Items  []core.Dataset `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// InsertDataset stores one generated dataset.
func (s *Store) InsertDataset(ctx context.Context, dataset *core.Dataset) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if dataset == nil || strings.TrimSpace(dataset.ID) == "" {
		return errors.New("dataset id is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	columnsJSON, err := json.Marshal(dataset.Columns)
	if err != nil {
		return fmt.Errorf("encode dataset columns: %w", err)
	}
	rowsJSON, err := json.Marshal(dataset.Rows)
	if err != nil {
		return fmt.Errorf("encode dataset rows: %w", err)
	}
	sourcesJSON, err := json.Marshal(dataset.Sources)
	if err != nil {
		return fmt.Errorf("encode dataset sources: %w", err)
	}

	createdAt := dataset.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO datasets (id, topic, description, columns, row_count, rows, sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, dataset.ID, dataset.Topic, dataset.Description, string(columnsJSON),
		dataset.RowCount, string(rowsJSON), string(sourcesJSON), createdAt.Unix())
	if err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}
	return nil
}

// GetDataset returns a dataset by id, or nil when absent.
func (s *Store) GetDataset(ctx context.Context, id string) (*core.Dataset, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("dataset id is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	row := s.DB.QueryRowContext(ctx, `
		SELECT id, topic, description, columns, row_count, rows, sources, created_at
		FROM datasets WHERE id = ?
	`, id)

	dataset, err := scanDataset(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return dataset, err
}

// ListDatasets returns a page of dataset metadata, newest first. Rows are
// not loaded for listings.
func (s *Store) ListDatasets(ctx context.Context, limit, offset int) (*DatasetPage, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	total, err := s.CountDatasets(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, topic, description, columns, row_count, sources, created_at
		FROM datasets
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	page := &DatasetPage{Items: []core.Dataset{}, Total: total, Limit: limit, Offset: offset}
	for rows.Next() {
		dataset, err := scanDataset(rows, false)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, *dataset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return page, nil
}

// DeleteDataset removes a dataset by id and reports whether it existed.
func (s *Store) DeleteDataset(ctx context.Context, id string) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errors.New("store is not initialized")
	}
	if strings.TrimSpace(id) == "" {
		return false, errors.New("dataset id is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete dataset: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete dataset: %w", err)
	}
	return affected > 0, nil
}

// CountDatasets returns the number of stored datasets.
func (s *Store) CountDatasets(ctx context.Context) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(1) FROM datasets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count datasets: %w", err)
	}
	return count, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDataset(row scannable, withRows bool) (*core.Dataset, error) {
	var (
		dataset     core.Dataset
		columnsJSON string
		rowsJSON    string
		sourcesJSON string
		createdAt   int64
	)

	var err error
	if withRows {
		err = row.Scan(&dataset.ID, &dataset.Topic, &dataset.Description,
			&columnsJSON, &dataset.RowCount, &rowsJSON, &sourcesJSON, &createdAt)
	} else {
		err = row.Scan(&dataset.ID, &dataset.Topic, &dataset.Description,
			&columnsJSON, &dataset.RowCount, &sourcesJSON, &createdAt)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan dataset: %w", err)
	}

	if err := json.Unmarshal([]byte(columnsJSON), &dataset.Columns); err != nil {
		return nil, fmt.Errorf("decode dataset columns: %w", err)
	}
	if withRows && rowsJSON != "" {
		if err := json.Unmarshal([]byte(rowsJSON), &dataset.Rows); err != nil {
			return nil, fmt.Errorf("decode dataset rows: %w", err)
		}
	}
	if sourcesJSON != "" {
		if err := json.Unmarshal([]byte(sourcesJSON), &dataset.Sources); err != nil {
			return nil, fmt.Errorf("decode dataset sources: %w", err)
		}
	}

	dataset.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &dataset, nil
}
