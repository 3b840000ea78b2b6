package repository

import (
	"context"

	"github.com/oksasatya/cep-users/internal/domain/entity"
)

// AddressRepository is the registry of stored addresses, keyed by CEP.
type AddressRepository interface {
	// FindByCep returns (nil, nil) when no address exists for cep.
	FindByCep(ctx context.Context, cep string) (*entity.Address, error)
	// Create stores a new address. If another address with the same CEP
	// was inserted concurrently, a.ID is set to the existing row.
	Create(ctx context.Context, a *entity.Address) error
}

// CityRepository reads the city/state reference data.
type CityRepository interface {
	// FindByName matches name case-insensitively within the state
	// abbreviation uf. Returns ErrNotFound when absent.
	FindByName(ctx context.Context, name, uf string) (*entity.City, error)
}
