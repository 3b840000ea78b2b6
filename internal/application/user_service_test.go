package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/cep-users/internal/domain/entity"
	"github.com/oksasatya/cep-users/internal/infrastructure/memory"
	"github.com/oksasatya/cep-users/pkg/apperror"
	"github.com/oksasatya/cep-users/pkg/helpers"
	"github.com/oksasatya/cep-users/pkg/mailer"
)

func init() {
	helpers.PasswordCost = bcrypt.MinCost
}

type fakePostal struct {
	cities map[string]*entity.City
	calls  int
}

func (f *fakePostal) Resolve(ctx context.Context, cep string) (*entity.City, error) {
	f.calls++
	if c, ok := f.cities[cep]; ok {
		return c, nil
	}
	return nil, apperror.PostalCodeNotFound(cep)
}

type failingPostal struct{ err error }

func (f failingPostal) Resolve(ctx context.Context, cep string) (*entity.City, error) {
	return nil, f.err
}

type fakeJobs struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
}

func (f *fakeJobs) PublishJSON(ctx context.Context, body any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, body.(mailer.EmailJob))
	return nil
}

type fakeIndex struct {
	indexed map[string]*entity.User
	removed []string
	err     error
}

func newFakeIndex() *fakeIndex { return &fakeIndex{indexed: map[string]*entity.User{}} }

func (f *fakeIndex) Index(ctx context.Context, u *entity.User) error {
	if f.err != nil {
		return f.err
	}
	f.indexed[u.ID] = u
	return nil
}

func (f *fakeIndex) Remove(ctx context.Context, id string) error {
	f.removed = append(f.removed, id)
	delete(f.indexed, id)
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, q string, size int) ([]*entity.User, error) {
	out := []*entity.User{}
	for _, u := range f.indexed {
		if len(out) == size {
			break
		}
		out = append(out, u)
	}
	return out, nil
}

type fakeMetrics struct {
	signups []string
}

func (m *fakeMetrics) RecordSignup(outcome string)              { m.signups = append(m.signups, outcome) }
func (m *fakeMetrics) RecordPostalLookup(string, time.Duration) {}
func (m *fakeMetrics) RecordHTTPStatus(string, string, int)     {}

type fixture struct {
	svc     *Service
	store   *memory.Store
	postal  *fakePostal
	jobs    *fakeJobs
	index   *fakeIndex
	metrics *fakeMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.SeedCity("Sao Paulo", "SP", "Sao Paulo", true)
	store.SeedCity("Rio de Janeiro", "RJ", "Rio de Janeiro", true)

	sp, err := store.Cities().FindByName(context.Background(), "Sao Paulo", "SP")
	require.NoError(t, err)
	rj, err := store.Cities().FindByName(context.Background(), "Rio de Janeiro", "RJ")
	require.NoError(t, err)

	f := &fixture{
		store: store,
		postal: &fakePostal{cities: map[string]*entity.City{
			"01001000": sp,
			"01310100": sp,
			"20040002": rj,
		}},
		jobs:    &fakeJobs{},
		index:   newFakeIndex(),
		metrics: &fakeMetrics{},
	}
	f.svc = NewService(store, f.postal, helpers.NewJWTManager("test-secret", time.Hour), nil,
		WithIndex(f.index), WithJobs(f.jobs), WithMetrics(f.metrics), WithAppName("cep-users"))
	return f
}

func (f *fixture) signup(t *testing.T, email, cep string) *entity.User {
	t.Helper()
	u, err := f.svc.Signup(context.Background(), SignupInput{
		Name: "Ana", Email: email, Phone: "11999990000", Password: "s3cretpass", Cep: cep,
	})
	require.NoError(t, err)
	return u
}

func TestSignup_CreatesAddressForNewCep(t *testing.T) {
	f := newFixture(t)

	u := f.signup(t, "Ana@Example.com", "01001-000")

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "01001000", u.Cep())
	assert.Equal(t, "Sao Paulo", u.CityName())
	assert.Equal(t, "Sao Paulo", u.StateName())
	assert.NotEqual(t, "s3cretpass", u.Password)
	assert.Equal(t, 1, f.store.AddressCount())

	require.Len(t, f.jobs.jobs, 1)
	assert.Equal(t, "welcome", f.jobs.jobs[0].Template)
	assert.Equal(t, "ana@example.com", f.jobs.jobs[0].To)
	assert.Contains(t, f.index.indexed, u.ID)
	assert.Equal(t, []string{"created"}, f.metrics.signups)
}

func TestSignup_ReusesAddressForKnownCep(t *testing.T) {
	f := newFixture(t)

	first := f.signup(t, "ana@example.com", "01001000")
	second := f.signup(t, "bia@example.com", "01001-000")

	assert.Equal(t, first.AddressID, second.AddressID)
	assert.Equal(t, 1, f.store.AddressCount())

	f.signup(t, "caio@example.com", "20040002")
	assert.Equal(t, 2, f.store.AddressCount())
}

func TestSignup_LookupFailurePersistsNothing(t *testing.T) {
	cases := map[string]error{
		"postal code":  apperror.PostalCodeNotFound("99999999"),
		"city missing": apperror.CityNotFound("Springfield", "XX"),
		"out of range": apperror.CityOutOfServiceRange("Salvador"),
	}
	for name, lookupErr := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.svc.Postal = failingPostal{err: lookupErr}

			_, err := f.svc.Signup(context.Background(), SignupInput{
				Name: "Ana", Email: "ana@example.com", Password: "s3cretpass", Cep: "99999999",
			})
			require.Error(t, err)
			assert.Equal(t, apperror.KindOf(lookupErr), apperror.KindOf(err))

			users, err := f.svc.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, users)
			assert.Zero(t, f.store.AddressCount())
			assert.Empty(t, f.jobs.jobs)
		})
	}
}

func TestSignup_MalformedCepSkipsProvider(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Signup(context.Background(), SignupInput{Email: "ana@example.com", Password: "s3cretpass", Cep: "12ab"})
	assert.Equal(t, apperror.KindPostalCodeNotFound, apperror.KindOf(err))
	assert.Zero(t, f.postal.calls)
}

func TestSignup_DuplicateEmailRollsBackAddress(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "ana@example.com", "01001000")

	_, err := f.svc.Signup(context.Background(), SignupInput{
		Name: "Ana 2", Email: "ana@example.com", Password: "s3cretpass", Cep: "01310100",
	})
	assert.ErrorIs(t, err, apperror.ErrEmailTaken)
	assert.Equal(t, 1, f.store.AddressCount())
	assert.Equal(t, []string{"created", "email_taken"}, f.metrics.signups)
}

func TestSignup_IndexFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.index.err = errors.New("es down")

	u := f.signup(t, "ana@example.com", "01001000")
	assert.NotEmpty(t, u.ID)
}

func TestSignin(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "ana@example.com", "01001000")
	ctx := context.Background()

	token, exp, err := f.svc.Signin(ctx, "ANA@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))
	claims, err := f.svc.JWT.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	_, _, err = f.svc.Signin(ctx, "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, _, err = f.svc.Signin(ctx, "nobody@example.com", "s3cretpass")
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)
}

func TestList_ReturnsUsersWithAddress(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "ana@example.com", "01001000")
	f.signup(t, "bia@example.com", "20040002")

	users, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ana@example.com", users[0].Email)
	assert.Equal(t, "Rio de Janeiro", users[1].CityName())
	assert.Equal(t, "Rio de Janeiro", users[1].StateName())
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "ana@example.com", "01001000")
	ctx := context.Background()

	require.NoError(t, f.svc.Delete(ctx, u.ID))
	assert.Equal(t, []string{u.ID}, f.index.removed)

	err := f.svc.Delete(ctx, u.ID)
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)
	assert.Len(t, f.index.removed, 1)
}

func TestPatch_UpdatesOnlyGivenFields(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "ana@example.com", "01001000")
	ctx := context.Background()

	err := f.svc.Patch(ctx, u.ID, map[string]any{"name": "Ana Maria", "password": "n3wpassword"})
	require.NoError(t, err)

	got, err := f.store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.Phone, got.Phone)
	assert.Equal(t, u.AddressID, got.AddressID)
	assert.True(t, helpers.CompareHashAndPassword(got.Password, "n3wpassword"))

	require.Len(t, f.jobs.jobs, 2)
	last := f.jobs.jobs[1]
	assert.Equal(t, "profile_updated", last.Template)
	assert.Equal(t, map[string]any{"name": "Ana Maria", "password": "changed"}, last.Data["Changes"])
}

func TestPatch_RejectsWholeRequestOnUnknownKey(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "ana@example.com", "01001000")
	ctx := context.Background()

	err := f.svc.Patch(ctx, u.ID, map[string]any{"name": "Mallory", "role": "admin", "address_id": "x"})
	require.Error(t, err)
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindInvalidFieldKeys, ae.Kind)
	assert.Equal(t, "invalid keys: address_id, role", ae.Message)

	got, err := f.store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)
}

func TestPatch_RejectsBadValues(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "ana@example.com", "01001000")
	ctx := context.Background()
	jobs := len(f.jobs.jobs)

	for _, body := range []map[string]any{
		{"email": "not-an-email"},
		{"phone": 11999990000},
		{"phone": "1"},
		{"name": "   "},
		{"name": strings.Repeat("a", 121)},
		{"password": "x"},
		{"password": strings.Repeat("a", 73)},
		{"password": strings.Repeat("é", 40)},
		{"name": "Ana Maria", "password": "short"},
	} {
		err := f.svc.Patch(ctx, u.ID, body)
		assert.Equal(t, apperror.KindInvalidFieldValue, apperror.KindOf(err), body)
	}

	got, err := f.store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, "11999990000", got.Phone)
	assert.True(t, helpers.CompareHashAndPassword(got.Password, "s3cretpass"))
	assert.Len(t, f.jobs.jobs, jobs)
}

func TestSignup_OverlongPasswordIsInvalidValue(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Signup(context.Background(), SignupInput{
		Name: "Ana", Email: "ana@example.com", Password: strings.Repeat("é", 40), Cep: "01001000",
	})
	assert.Equal(t, apperror.KindInvalidFieldValue, apperror.KindOf(err))
	assert.Zero(t, f.store.AddressCount())
	users, err := f.store.Users().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestPatch_IdentityAndConflicts(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "ana@example.com", "01001000")
	bia := f.signup(t, "bia@example.com", "01001000")
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Patch(ctx, "missing", map[string]any{"name": "x"}), apperror.ErrUserNotFound)
	assert.ErrorIs(t, f.svc.Patch(ctx, "missing", map[string]any{"bogus": "x"}), apperror.ErrUserNotFound)
	assert.ErrorIs(t, f.svc.Patch(ctx, bia.ID, map[string]any{"email": "ana@example.com"}), apperror.ErrEmailTaken)

	jobs := len(f.jobs.jobs)
	assert.NoError(t, f.svc.Patch(ctx, bia.ID, map[string]any{}))
	assert.Len(t, f.jobs.jobs, jobs)
}

func TestAllowedPatchKeys(t *testing.T) {
	assert.Equal(t, []string{"email", "name", "password", "phone"}, AllowedPatchKeys())
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "ana@example.com", "01001000")

	users, err := f.svc.Search(context.Background(), "ana", 0)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	f.svc.Index = nil
	users, err = f.svc.Search(context.Background(), "ana", 5)
	require.NoError(t, err)
	assert.Empty(t, users)
}
