package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/cep-users/internal/domain/entity"
	"github.com/oksasatya/cep-users/internal/domain/repository"
)

type CityRepository struct {
	db DBTX
}

func NewCityRepository(db DBTX) *CityRepository {
	return &CityRepository{db: db}
}

func (r *CityRepository) FindByName(ctx context.Context, name, uf string) (*entity.City, error) {
	c := &entity.City{}
	s := &entity.State{}

	row := r.db.QueryRow(ctx, `
		SELECT c.id::text, c.name, c.in_service_area, s.id::text, s.name, s.abbreviation
		FROM cities c
		JOIN states s ON s.id = c.state_id
		WHERE lower(c.name) = lower($1) AND s.abbreviation = upper($2)
	`, name, uf)

	if err := row.Scan(&c.ID, &c.Name, &c.InServiceArea, &s.ID, &s.Name, &s.Abbreviation); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	c.StateID, c.State = s.ID, s
	return c, nil
}

var _ repository.CityRepository = (*CityRepository)(nil)
