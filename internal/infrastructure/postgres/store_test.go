package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/cep-users/internal/domain/entity"
	"github.com/oksasatya/cep-users/internal/domain/repository"
	"github.com/oksasatya/cep-users/internal/infrastructure/referencedata"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}

	assert.True(t, isUniqueViolation(dup, "users_email_key"))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", dup), ""))
	assert.False(t, isUniqueViolation(dup, "addresses_cep_key"))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, isUniqueViolation(errors.New("boom"), ""))
}

// integrationPool connects to TEST_DATABASE_URL and migrates it; tests are
// skipped when the variable is unset.
func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	_, err := RunMigrations(dsn, "../../../db/migrations")
	require.NoError(t, err)

	pool, err := NewPool(context.Background(), dsn, 4, 1, time.Minute)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func seedCity(t *testing.T, pool *pgxpool.Pool, uf, name string) *entity.City {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, SeedReferenceData(ctx, pool, []referencedata.City{
		{State: "State " + uf, UF: uf, Name: name, InServiceArea: true},
	}))
	c, err := NewCityRepository(pool).FindByName(ctx, name, uf)
	require.NoError(t, err)
	assert.True(t, c.InServiceArea)
	return c
}

func TestStore_SignupGraph_Integration(t *testing.T) {
	pool := integrationPool(t)
	store := NewStore(pool)
	ctx := context.Background()
	city := seedCity(t, pool, "ZZ", "Springfield")

	cep := fmt.Sprintf("%08d", time.Now().UnixNano()%100000000)
	email := fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())

	err := store.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		existing, err := r.Addresses().FindByCep(ctx, cep)
		require.NoError(t, err)
		require.Nil(t, existing)

		addr := &entity.Address{Cep: cep, City: city}
		if err := r.Addresses().Create(ctx, addr); err != nil {
			return err
		}
		return r.Users().Create(ctx, &entity.User{Name: "It", Email: email, Phone: "1", Password: "x", Address: addr})
	})
	require.NoError(t, err)

	u, err := store.Users().GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, cep, u.Cep())
	assert.Equal(t, "Springfield", u.CityName())

	found, err := store.Cities().FindByName(ctx, "springfield", "zz")
	require.NoError(t, err)
	assert.Equal(t, city.ID, found.ID)

	// duplicate email rolls back the whole unit of work
	otherCep := fmt.Sprintf("%08d", (time.Now().UnixNano()+1)%100000000)
	err = store.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		addr := &entity.Address{Cep: otherCep, City: city}
		if err := r.Addresses().Create(ctx, addr); err != nil {
			return err
		}
		return r.Users().Create(ctx, &entity.User{Name: "Dup", Email: email, Phone: "2", Password: "x", Address: addr})
	})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
	missing, err := store.Addresses().FindByCep(ctx, otherCep)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Users().Delete(ctx, u.ID))
	assert.ErrorIs(t, store.Users().Delete(ctx, u.ID), repository.ErrNotFound)
}

func TestStore_ConcurrentSignupsShareAddress_Integration(t *testing.T) {
	pool := integrationPool(t)
	store := NewStore(pool)
	ctx := context.Background()
	city := seedCity(t, pool, "ZY", "Shelbyville")

	cep := fmt.Sprintf("%08d", (time.Now().UnixNano()+7)%100000000)
	stamp := time.Now().UnixNano()

	// both transactions see no address before either inserts one
	var looked, done sync.WaitGroup
	looked.Add(2)
	done.Add(2)
	addrIDs := make([]string, 2)
	userIDs := make([]string, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			defer done.Done()
			errs[i] = store.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
				existing, err := r.Addresses().FindByCep(ctx, cep)
				looked.Done()
				if err != nil {
					return err
				}
				if existing != nil {
					return fmt.Errorf("address %s visible before insert", cep)
				}
				looked.Wait()

				addr := &entity.Address{Cep: cep, City: city}
				if err := r.Addresses().Create(ctx, addr); err != nil {
					return err
				}
				u := &entity.User{Name: "Race", Email: fmt.Sprintf("race-%d-%d@example.com", stamp, i), Phone: "11999990000", Password: "x", Address: addr}
				if err := r.Users().Create(ctx, u); err != nil {
					return err
				}
				addrIDs[i], userIDs[i] = addr.ID, u.ID
				return nil
			})
		}(i)
	}
	done.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, addrIDs[0], addrIDs[1])

	addr, err := store.Addresses().FindByCep(ctx, cep)
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, addrIDs[0], addr.ID)

	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM addresses WHERE cep = $1`, cep).Scan(&n))
	assert.Equal(t, 1, n)

	for _, id := range userIDs {
		require.NoError(t, store.Users().Delete(ctx, id))
	}
}
