package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/evidenta-api/internal/application/ports"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Repositories repositorios sobre el pool, fuera de transacción.
func Repositories(pool *pgxpool.Pool) ports.Repositories {
	return ports.Repositories{
		Users:     NewUserRepository(pool),
		Companies: NewCompanyRepository(pool),
		Roles:     NewRoleRepository(pool),
		Tokens:    NewTokenRepository(pool),
	}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ports.Repositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := ports.Repositories{
		Users:     NewUserRepository(tx),
		Companies: NewCompanyRepository(tx),
		Roles:     NewRoleRepository(tx),
		Tokens:    &TokenRepo{q: tx, inTx: true},
	}
	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
