package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/waterwatch/internal/dbx"
)

// Repository persists report rows. Payloads arrive already sealed.
type Repository interface {
	Insert(ctx context.Context, row *Row) error
	GetByID(ctx context.Context, id string) (*Row, error)
	// GetAll returns rows newest first. An empty status matches every row.
	GetAll(ctx context.Context, status Status) ([]*Row, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	DeleteByID(ctx context.Context, id string) error
	// Count returns the number of rows. An empty status matches every row.
	Count(ctx context.Context, status Status) (int, error)
}

// SQLiteRepository implements Repository on the reports table.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, row *Row) error {
	query := `INSERT INTO reports (id, status, created_at, payload, nonce) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, row.ID, string(row.Status), row.CreatedAt, row.Payload, row.Nonce)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Row, error) {
	query := `SELECT id, status, created_at, payload, nonce FROM reports WHERE id = ?`

	row := &Row{}
	var status string
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&row.ID, &status, &row.CreatedAt, &row.Payload, &row.Nonce)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select report: %w", err)
	}
	row.Status = Status(status)
	return row, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context, status Status) ([]*Row, error) {
	query := `SELECT id, status, created_at, payload, nonce FROM reports
		WHERE (? = '' OR status = ?)
		ORDER BY created_at DESC, rowid DESC`
	rows, err := r.db.QueryContext(ctx, query, string(status), string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to select reports: %w", err)
	}
	defer rows.Close()

	var result []*Row
	for rows.Next() {
		item := &Row{}
		var st string
		if err := rows.Scan(&item.ID, &st, &item.CreatedAt, &item.Payload, &item.Nonce); err != nil {
			return nil, err
		}
		item.Status = Status(st)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reports SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	return expectOne(res)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return expectOne(res)
}

func (r *SQLiteRepository) Count(ctx context.Context, status Status) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE (? = '' OR status = ?)`,
		string(status), string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return n, nil
}

func expectOne(res sql.Result) error {
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return ErrNotFound
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}
