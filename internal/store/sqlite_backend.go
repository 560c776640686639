package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/6529-Collections/marketview/internal/db"
)

// SQLiteBackend keeps every document in the migrated documents table.
type SQLiteBackend struct {
	sqlDB *sql.DB
}

func NewSQLiteBackend(sqlDB *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{sqlDB: sqlDB}
}

type bodyRow struct {
	Body string
}

func (r *bodyRow) ScanRow(scanner db.RowScanner) error {
	return scanner.Scan(&r.Body)
}

func (b *SQLiteBackend) Get(ctx context.Context, kind Kind, id string) ([]byte, bool, error) {
	var body string
	err := b.sqlDB.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE kind = ? AND id = ?", string(kind), id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(body), true, nil
}

func (b *SQLiteBackend) FindIDs(ctx context.Context, kind Kind, assetID string, status string) ([]string, error) {
	rows, err := b.sqlDB.QueryContext(ctx, `
		SELECT id FROM documents
		WHERE kind = ? AND asset_id = ? AND status = ?
		ORDER BY position ASC, id ASC`, string(kind), assetID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (b *SQLiteBackend) List(ctx context.Context, kind Kind, assetID string, page int, pageSize int) (int, [][]byte, error) {
	total, rows, err := db.GetPaginatedResponseForQuery(
		"documents",
		b.sqlDB,
		"SELECT body FROM documents",
		db.QueryOptions{
			Where:     "kind = ? AND asset_id = ?",
			Page:      page,
			PageSize:  pageSize,
			Direction: db.QueryDirectionAsc,
		},
		[]string{"position", "id"},
		[]interface{}{string(kind), assetID},
		func() *bodyRow { return &bodyRow{} },
	)
	if err != nil {
		return 0, nil, err
	}
	bodies := make([][]byte, 0, len(rows))
	for _, row := range rows {
		bodies = append(bodies, []byte(row.Body))
	}
	return total, bodies, nil
}

func (b *SQLiteBackend) Apply(ctx context.Context, mutations []Mutation) error {
	_, err := db.TxRunner(ctx, b.sqlDB, func(tx *sql.Tx) (int, error) {
		for _, m := range mutations {
			if m.Delete {
				if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE kind = ? AND id = ?", string(m.Kind), m.ID); err != nil {
					return 0, fmt.Errorf("delete %s/%s: %w", m.Kind, m.ID, err)
				}
				continue
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO documents (kind, id, asset_id, status, position, body)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(kind, id) DO UPDATE SET
					asset_id = excluded.asset_id,
					status = excluded.status,
					position = excluded.position,
					body = excluded.body`,
				string(m.Kind), m.ID, m.Index.AssetID, m.Index.Status, m.Index.Position, string(m.Body))
			if err != nil {
				return 0, fmt.Errorf("upsert %s/%s: %w", m.Kind, m.ID, err)
			}
		}
		return len(mutations), nil
	})
	return err
}

func (b *SQLiteBackend) Close() error {
	return b.sqlDB.Close()
}

func (b *SQLiteBackend) Walk(ctx context.Context, kind Kind, fn func(Record) error) error {
	query := "SELECT kind, id, asset_id, status, position, body FROM documents"
	var args []interface{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, string(kind))
	}
	rows, err := b.sqlDB.QueryContext(ctx, query+" ORDER BY kind, id", args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var rec Record
		var k, body string
		if err := rows.Scan(&k, &rec.ID, &rec.Index.AssetID, &rec.Index.Status, &rec.Index.Position, &body); err != nil {
			return err
		}
		rec.Kind = Kind(k)
		rec.Body = []byte(body)
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}
