package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repositories groups every repository bound to the same connection.
type Repositories struct {
	Users         UserRepository
	RefreshTokens RefreshTokenRepository
	Items         ItemRepository
	POIs          POIRepository
	POIItems      POIItemRepository
	ItemRequests  ItemRequestRepository
}

// NewRepositories binds all repositories to db.
func NewRepositories(db DBTX) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
		Items:         NewItemRepository(db),
		POIs:          NewPOIRepository(db),
		POIItems:      NewPOIItemRepository(db),
		ItemRequests:  NewItemRequestRepository(db),
	}
}

// Store hands out repositories and runs units of work atomically.
type Store interface {
	Repos() *Repositories
	// WithinTx runs fn against repositories bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(*Repositories) error) error
}

type sqlStore struct {
	db    *sql.DB
	repos *Repositories
}

// NewStore creates a Store over db.
func NewStore(db *sql.DB) Store {
	return &sqlStore{db: db, repos: NewRepositories(db)}
}

func (s *sqlStore) Repos() *Repositories {
	return s.repos
}

func (s *sqlStore) WithinTx(ctx context.Context, fn func(*Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func uniqueConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func checkAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
