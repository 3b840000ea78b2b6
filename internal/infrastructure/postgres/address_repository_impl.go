package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/cep-users/internal/domain/entity"
	"github.com/oksasatya/cep-users/internal/domain/repository"
)

type AddressRepository struct {
	db DBTX
}

func NewAddressRepository(db DBTX) *AddressRepository {
	return &AddressRepository{db: db}
}

func (r *AddressRepository) FindByCep(ctx context.Context, cep string) (*entity.Address, error) {
	a := &entity.Address{}
	c := &entity.City{}
	s := &entity.State{}

	row := r.db.QueryRow(ctx, `
		SELECT a.id::text, a.cep, c.id::text, c.name, c.in_service_area, s.id::text, s.name, s.abbreviation
		FROM addresses a
		JOIN cities c ON c.id = a.city_id
		JOIN states s ON s.id = c.state_id
		WHERE a.cep = $1
	`, cep)

	if err := row.Scan(&a.ID, &a.Cep, &c.ID, &c.Name, &c.InServiceArea, &s.ID, &s.Name, &s.Abbreviation); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	c.StateID, c.State = s.ID, s
	a.CityID, a.City = c.ID, c
	return a, nil
}

// Create inserts the address. The no-op ON CONFLICT update makes RETURNING
// yield the existing row when the CEP was registered concurrently.
func (r *AddressRepository) Create(ctx context.Context, a *entity.Address) error {
	if a.City != nil && a.CityID == "" {
		a.CityID = a.City.ID
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO addresses (cep, city_id)
		VALUES ($1, $2)
		ON CONFLICT (cep) DO UPDATE SET cep = EXCLUDED.cep
		RETURNING id::text, city_id::text
	`, a.Cep, a.CityID)

	return row.Scan(&a.ID, &a.CityID)
}

var _ repository.AddressRepository = (*AddressRepository)(nil)
