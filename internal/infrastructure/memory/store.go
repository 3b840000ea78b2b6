// Package memory is an in-process repository.Store used for local runs
// (STORAGE_DRIVER=memory) and tests.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/cep-users/internal/domain/entity"
	"github.com/oksasatya/cep-users/internal/domain/repository"
)

var errUnknownReference = errors.New("unknown reference")

type state struct {
	states    map[string]entity.State
	cities    map[string]entity.City
	addresses map[string]entity.Address
	users     map[string]entity.User
	order     []string // user ids in insertion order
}

func newState() *state {
	return &state{
		states:    map[string]entity.State{},
		cities:    map[string]entity.City{},
		addresses: map[string]entity.Address{},
		users:     map[string]entity.User{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.states {
		c.states[k] = v
	}
	for k, v := range s.cities {
		c.cities[k] = v
	}
	for k, v := range s.addresses {
		c.addresses[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	c.order = append([]string(nil), s.order...)
	return c
}

// Store keeps all rows in maps guarded by one mutex. A transaction works on
// a copy that replaces the live state only when fn succeeds.
type Store struct {
	mu sync.Mutex
	st *state
	repos
}

func NewStore() *Store {
	s := &Store{st: newState()}
	s.repos = repos{v: view{store: s}}
	return s
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, r repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, repos{v: view{st: work}}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// SeedCity registers a state (by abbreviation) and a city in it, returning
// the stored city. Seeding the same pair twice is a no-op.
func (s *Store) SeedCity(stateName, uf, cityName string, inServiceArea bool) entity.City {
	s.mu.Lock()
	defer s.mu.Unlock()

	uf = strings.ToUpper(uf)
	var st entity.State
	found := false
	for _, v := range s.st.states {
		if v.Abbreviation == uf {
			st, found = v, true
			break
		}
	}
	if !found {
		st = entity.State{ID: uuid.NewString(), Name: stateName, Abbreviation: uf}
		s.st.states[st.ID] = st
	}
	for _, c := range s.st.cities {
		if c.StateID == st.ID && strings.EqualFold(c.Name, cityName) {
			c.InServiceArea = inServiceArea
			s.st.cities[c.ID] = c
			return c
		}
	}
	c := entity.City{ID: uuid.NewString(), Name: cityName, StateID: st.ID, InServiceArea: inServiceArea}
	s.st.cities[c.ID] = c
	return c
}

// AddressCount reports how many addresses are stored.
func (s *Store) AddressCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.addresses)
}

// view runs operations either on a transaction's working copy (st set) or on
// the live state under the store mutex.
type view struct {
	store *Store
	st    *state
}

func (v view) do(fn func(st *state) error) error {
	if v.st != nil {
		return fn(v.st)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

type repos struct {
	v view
}

func (r repos) Users() repository.UserRepository       { return userRepo(r) }
func (r repos) Addresses() repository.AddressRepository { return addressRepo(r) }
func (r repos) Cities() repository.CityRepository       { return cityRepo(r) }

func (s *state) hydrateCity(id string) (*entity.City, bool) {
	c, ok := s.cities[id]
	if !ok {
		return nil, false
	}
	if st, ok := s.states[c.StateID]; ok {
		c.State = &st
	}
	return &c, true
}

func (s *state) hydrateAddress(id string) (*entity.Address, bool) {
	a, ok := s.addresses[id]
	if !ok {
		return nil, false
	}
	a.City, _ = s.hydrateCity(a.CityID)
	return &a, true
}

func (s *state) hydrateUser(u entity.User) *entity.User {
	u.Address, _ = s.hydrateAddress(u.AddressID)
	return &u
}

type userRepo repos

func (r userRepo) Create(ctx context.Context, u *entity.User) error {
	return r.v.do(func(st *state) error {
		if u.Address != nil && u.AddressID == "" {
			u.AddressID = u.Address.ID
		}
		if _, ok := st.addresses[u.AddressID]; !ok {
			return errUnknownReference
		}
		for _, other := range st.users {
			if other.Email == u.Email {
				return repository.ErrDuplicateEmail
			}
		}
		now := time.Now()
		u.ID = uuid.NewString()
		u.CreatedAt, u.UpdatedAt = now, now

		row := *u
		row.Address = nil
		st.users[u.ID] = row
		st.order = append(st.order, u.ID)
		return nil
	})
}

func (r userRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.v.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = st.hydrateUser(u)
		return nil
	})
	return out, err
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var out *entity.User
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				out = st.hydrateUser(u)
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r userRepo) List(ctx context.Context) ([]*entity.User, error) {
	var out []*entity.User
	err := r.v.do(func(st *state) error {
		out = make([]*entity.User, 0, len(st.order))
		for _, id := range st.order {
			out = append(out, st.hydrateUser(st.users[id]))
		}
		return nil
	})
	return out, err
}

func (r userRepo) Update(ctx context.Context, u *entity.User) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.users[u.ID]
		if !ok {
			return repository.ErrNotFound
		}
		for id, other := range st.users {
			if id != u.ID && other.Email == u.Email {
				return repository.ErrDuplicateEmail
			}
		}
		u.UpdatedAt = time.Now()
		cur.Name, cur.Email, cur.Phone, cur.Password, cur.UpdatedAt = u.Name, u.Email, u.Phone, u.Password, u.UpdatedAt
		st.users[u.ID] = cur
		return nil
	})
}

func (r userRepo) Delete(ctx context.Context, id string) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.users, id)
		for i, v := range st.order {
			if v == id {
				st.order = append(st.order[:i], st.order[i+1:]...)
				break
			}
		}
		return nil
	})
}

type addressRepo repos

func (r addressRepo) FindByCep(ctx context.Context, cep string) (*entity.Address, error) {
	var out *entity.Address
	err := r.v.do(func(st *state) error {
		for id, a := range st.addresses {
			if a.Cep == cep {
				out, _ = st.hydrateAddress(id)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r addressRepo) Create(ctx context.Context, a *entity.Address) error {
	return r.v.do(func(st *state) error {
		if a.City != nil && a.CityID == "" {
			a.CityID = a.City.ID
		}
		for _, existing := range st.addresses {
			if existing.Cep == a.Cep {
				a.ID, a.CityID = existing.ID, existing.CityID
				return nil
			}
		}
		if _, ok := st.cities[a.CityID]; !ok {
			return errUnknownReference
		}
		a.ID = uuid.NewString()
		row := *a
		row.City = nil
		st.addresses[a.ID] = row
		return nil
	})
}

type cityRepo repos

func (r cityRepo) FindByName(ctx context.Context, name, uf string) (*entity.City, error) {
	var out *entity.City
	err := r.v.do(func(st *state) error {
		for id, c := range st.cities {
			s, ok := st.states[c.StateID]
			if ok && strings.EqualFold(s.Abbreviation, uf) && strings.EqualFold(c.Name, name) {
				out, _ = st.hydrateCity(id)
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

var _ repository.Store = (*Store)(nil)
