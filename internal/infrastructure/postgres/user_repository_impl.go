package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/cep-users/internal/domain/entity"
	"github.com/oksasatya/cep-users/internal/domain/repository"
)

const userSelect = `
	SELECT u.id::text, u.name, u.email, u.phone, u.password_hash, u.created_at, u.updated_at,
	       a.id::text, a.cep, c.id::text, c.name, c.in_service_area,
	       s.id::text, s.name, s.abbreviation
	FROM users u
	JOIN addresses a ON a.id = u.address_id
	JOIN cities c ON c.id = a.city_id
	JOIN states s ON s.id = c.state_id
`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.Address != nil && u.AddressID == "" {
		u.AddressID = u.Address.ID
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (name, email, phone, password_hash, address_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text, created_at, updated_at
	`, u.Name, u.Email, u.Phone, u.Password, u.AddressID)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, userSelect+` WHERE u.id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, userSelect+` WHERE u.email = $1`, email)
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.db.Query(ctx, userSelect+` ORDER BY u.created_at, u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()

	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $1, email = $2, phone = $3, password_hash = $4, updated_at = $5
		WHERE id = $6
	`, u.Name, u.Email, u.Phone, u.Password, u.UpdatedAt, u.ID)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return repository.ErrDuplicateEmail
		}
		return err
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	a := &entity.Address{}
	c := &entity.City{}
	s := &entity.State{}

	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Password, &u.CreatedAt, &u.UpdatedAt,
		&a.ID, &a.Cep, &c.ID, &c.Name, &c.InServiceArea,
		&s.ID, &s.Name, &s.Abbreviation); err != nil {
		return nil, err
	}

	c.StateID, c.State = s.ID, s
	a.CityID, a.City = c.ID, c
	u.AddressID, u.Address = a.ID, a
	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
