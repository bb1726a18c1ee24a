package sqlite

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Record is one row of the records table.
type Record struct {
	ID          int64
	Kind        string
	Title       string
	AmountCents int64
	Category    string
	Date        string
	Description string
	Frequency   string
	IsActive    bool
	CreatedAt   string
}

const recordColumns = `id, kind, title, amount_cents, category, date, description, frequency, is_active, created_at`

func scanRecord(row interface{ Scan(...interface{}) error }) (Record, error) {
	var i Record
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.Title,
		&i.AmountCents,
		&i.Category,
		&i.Date,
		&i.Description,
		&i.Frequency,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const createRecord = `INSERT INTO records (kind, title, amount_cents, category, date, description, frequency, is_active, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + recordColumns

type CreateRecordParams struct {
	Kind        string
	Title       string
	AmountCents int64
	Category    string
	Date        string
	Description string
	Frequency   string
	IsActive    bool
	CreatedAt   string
}

func (q *Queries) CreateRecord(ctx context.Context, arg CreateRecordParams) (Record, error) {
	row := q.db.QueryRowContext(ctx, createRecord,
		arg.Kind,
		arg.Title,
		arg.AmountCents,
		arg.Category,
		arg.Date,
		arg.Description,
		arg.Frequency,
		arg.IsActive,
		arg.CreatedAt,
	)
	return scanRecord(row)
}

const getRecord = `SELECT ` + recordColumns + ` FROM records WHERE kind = ? AND id = ?`

func (q *Queries) GetRecord(ctx context.Context, kind string, id int64) (Record, error) {
	return scanRecord(q.db.QueryRowContext(ctx, getRecord, kind, id))
}

const listRecords = `SELECT ` + recordColumns + ` FROM records WHERE kind = ? ORDER BY id`

func (q *Queries) ListRecords(ctx context.Context, kind string) ([]Record, error) {
	rows, err := q.db.QueryContext(ctx, listRecords, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Record{}
	for rows.Next() {
		i, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateRecord = `UPDATE records
SET title = ?, amount_cents = ?, category = ?, date = ?, description = ?, frequency = ?, is_active = ?
WHERE kind = ? AND id = ?
RETURNING ` + recordColumns

type UpdateRecordParams struct {
	Title       string
	AmountCents int64
	Category    string
	Date        string
	Description string
	Frequency   string
	IsActive    bool
	Kind        string
	ID          int64
}

func (q *Queries) UpdateRecord(ctx context.Context, arg UpdateRecordParams) (Record, error) {
	row := q.db.QueryRowContext(ctx, updateRecord,
		arg.Title,
		arg.AmountCents,
		arg.Category,
		arg.Date,
		arg.Description,
		arg.Frequency,
		arg.IsActive,
		arg.Kind,
		arg.ID,
	)
	return scanRecord(row)
}

const deleteRecord = `DELETE FROM records WHERE kind = ? AND id = ?`

func (q *Queries) DeleteRecord(ctx context.Context, kind string, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRecord, kind, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
