// Package product is a read-only view over the catalog, which lives in its
// own database owned by the product service. The order service never writes
// here; it only joins product metadata into order listings at read time.
package product

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Info struct {
	ID          int64
	Name        string
	Description string
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect product database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) ByIDs(ctx context.Context, ids []int64) (map[int64]Info, error) {
	result := make(map[int64]Info, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, COALESCE(description, '')
		FROM products
		WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.ID, &info.Name, &info.Description); err != nil {
			return nil, err
		}
		result[info.ID] = info
	}
	return result, rows.Err()
}

func (s *Store) Close() {
	s.pool.Close()
}
