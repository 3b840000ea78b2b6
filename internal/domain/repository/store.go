package repository

import "context"

// Repositories groups the repositories bound to one unit of work
type Repositories interface {
	Users() UserRepository
	Addresses() AddressRepository
	Cities() CityRepository
}

// Store hands out repositories and runs transactional units of work.
type Store interface {
	Repositories
	// WithinTx runs fn in a single transaction. It commits when fn returns
	// nil and rolls back otherwise, including when fn panics.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
