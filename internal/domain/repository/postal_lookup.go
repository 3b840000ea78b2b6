package repository

import (
	"context"

	"github.com/oksasatya/cep-users/internal/domain/entity"
)

// PostalLookup resolves a postal code (CEP) to a reference City.
// Failures are *apperror.Error of kind PostalCodeNotFound,
// CityNotFound or CityOutOfServiceRange.
type PostalLookup interface {
	Resolve(ctx context.Context, cep string) (*entity.City, error)
}
