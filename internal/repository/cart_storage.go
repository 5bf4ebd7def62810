package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/fieldops-cart/internal/db"
	"github.com/nikolayk812/fieldops-cart/internal/port"
)

type cartStorage struct {
	q *db.Queries
}

func NewCartStorage(pool *pgxpool.Pool) port.CartStorage {
	return &cartStorage{
		q: db.New(pool),
	}
}

func (r *cartStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key is empty")
	}

	value, err := r.q.GetValue(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("q.GetValue: %w", err)
	}

	return value, true, nil
}

func (r *cartStorage) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	if !json.Valid([]byte(value)) {
		return fmt.Errorf("value is not valid JSON")
	}

	err := r.q.SetValue(ctx, db.SetValueParams{
		Key:   key,
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("q.SetValue: %w", err)
	}

	return nil
}

func (r *cartStorage) Remove(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	if _, err := r.q.RemoveValue(ctx, key); err != nil {
		return fmt.Errorf("q.RemoveValue: %w", err)
	}

	return nil
}
