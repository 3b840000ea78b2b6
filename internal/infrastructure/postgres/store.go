package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/cep-users/internal/domain/repository"
)

const uniqueViolation = "23505"

type repos struct {
	users     *UserRepository
	addresses *AddressRepository
	cities    *CityRepository
}

func newRepos(db DBTX) repos {
	return repos{
		users:     NewUserRepository(db),
		addresses: NewAddressRepository(db),
		cities:    NewCityRepository(db),
	}
}

func (r repos) Users() repository.UserRepository       { return r.users }
func (r repos) Addresses() repository.AddressRepository { return r.addresses }
func (r repos) Cities() repository.CityRepository       { return r.cities }

// Store is the Postgres-backed repository.Store
type Store struct {
	repos
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{repos: newRepos(pool), pool: pool}
}

// WithinTx begins a transaction on the pool and hands fn repositories bound
// to it. pgx rolls back on error or panic and commits otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, r repository.Repositories) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(ctx, newRepos(tx))
	})
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}

var _ repository.Store = (*Store)(nil)
