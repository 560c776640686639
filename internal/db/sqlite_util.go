package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type QueryRunner interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// TxRunner runs fn inside a transaction, committing on success and rolling
// back on error. A context canceled while fn runs prevents the commit.
func TxRunner[T any](ctx context.Context, db *sql.DB, fn func(*sql.Tx) (T, error)) (result T, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				zap.L().Error("failed to rollback transaction", zap.Error(rbErr))
			}
		} else {
			if cmErr := tx.Commit(); cmErr != nil {
				zap.L().Error("failed to commit transaction", zap.Error(cmErr))
				err = fmt.Errorf("failed to commit transaction: %w", cmErr)
			}
		}
	}()

	result, err = fn(tx)
	if err != nil {
		return result, fmt.Errorf("failed to execute transaction: %w", err)
	}

	if ctx.Err() != nil {
		err = ctx.Err()
		return result, fmt.Errorf("context canceled before commit: %w", err)
	}

	return result, nil
}

type Scannable interface {
	ScanRow(scanner RowScanner) error
}

type RowScanner interface {
	Scan(dest ...interface{}) error
}

type QueryDirection string

const (
	QueryDirectionAsc  QueryDirection = "ASC"
	QueryDirectionDesc QueryDirection = "DESC"
)

type QueryOptions struct {
	Where     string
	PageSize  int
	Page      int
	Direction QueryDirection
}

func ScanAll[T Scannable](rows *sql.Rows, factory func() T) ([]T, error) {
	var items []T
	for rows.Next() {
		item := factory()
		if err := item.ScanRow(rows); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// GetPaginatedResponseForQuery pages through baseQuery and counts the rows of
// tableName matching the same WHERE clause.
func GetPaginatedResponseForQuery[T Scannable](
	tableName string,
	rq QueryRunner,
	baseQuery string,
	queryOptions QueryOptions,
	orderColumns []string,
	queryParams []interface{},
	factory func() T,
) (total int, data []T, err error) {
	if len(orderColumns) == 0 {
		return 0, nil, errors.New("no order columns provided")
	}
	if queryOptions.Page < 1 {
		queryOptions.Page = 1
	}
	if queryOptions.PageSize < 1 {
		queryOptions.PageSize = 10
	}
	if queryOptions.Direction != QueryDirectionDesc {
		queryOptions.Direction = QueryDirectionAsc
	}

	var orders []string
	for _, col := range orderColumns {
		orders = append(orders, fmt.Sprintf("%s %s", col, queryOptions.Direction))
	}
	orderClause := strings.Join(orders, ", ")

	offset := (queryOptions.Page - 1) * queryOptions.PageSize

	whereClause := ""
	if queryOptions.Where != "" {
		whereClause = fmt.Sprintf("WHERE %s", queryOptions.Where)
	}

	query := fmt.Sprintf("%s %s ORDER BY %s LIMIT ? OFFSET ?", baseQuery, whereClause, orderClause)
	params := append(append([]interface{}{}, queryParams...), queryOptions.PageSize, offset)

	rows, err := rq.Query(query, params...)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	data, err = ScanAll(rows, factory)
	if err != nil {
		return 0, nil, err
	}
	if err = rows.Err(); err != nil {
		return 0, nil, err
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", tableName, whereClause)
	err = rq.QueryRow(countQuery, queryParams...).Scan(&total)
	if err != nil {
		return 0, nil, err
	}

	return total, data, nil
}
