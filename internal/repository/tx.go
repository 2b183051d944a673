package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type txManager struct {
	db *sqlx.DB
}

// NewTxManager creates a TxManager over the given database handle.
func NewTxManager(db *sqlx.DB) TxManager {
	return &txManager{db: db}
}

// WithinTx begins a transaction, runs fn, and commits. Any error from fn
// (or a panic) rolls the transaction back.
func (m *txManager) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
