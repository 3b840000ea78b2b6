package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cep-users/internal/domain/entity"
	repo "github.com/oksasatya/cep-users/internal/domain/repository"
	"github.com/oksasatya/cep-users/internal/metrics"
	"github.com/oksasatya/cep-users/pkg/apperror"
	"github.com/oksasatya/cep-users/pkg/helpers"
	"github.com/oksasatya/cep-users/pkg/mailer"
	mailtpl "github.com/oksasatya/cep-users/pkg/mailer/templates"
)

// UserIndexer keeps a searchable copy of users
type UserIndexer interface {
	Index(ctx context.Context, u *entity.User) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, q string, size int) ([]*entity.User, error)
}

// JobPublisher puts background jobs on a queue
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type Service struct {
	Store   repo.Store
	Postal  repo.PostalLookup
	JWT     *helpers.JWTManager
	Logger  *logrus.Logger
	Index   UserIndexer
	Jobs    JobPublisher
	Metrics metrics.Recorder
	AppName string
}

type Option func(*Service)

func WithIndex(ix UserIndexer) Option {
	return func(s *Service) { s.Index = ix }
}

func WithJobs(p JobPublisher) Option {
	return func(s *Service) { s.Jobs = p }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(s *Service) {
		if m != nil {
			s.Metrics = m
		}
	}
}

func WithAppName(name string) Option {
	return func(s *Service) { s.AppName = name }
}

func NewService(store repo.Store, postal repo.PostalLookup, jwt *helpers.JWTManager, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		Store:   store,
		Postal:  postal,
		JWT:     jwt,
		Logger:  logger,
		Metrics: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SignupInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Cep      string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup resolves the CEP to a served city, links the user to the address
// registered for that CEP (creating it on first use) and stores the user.
// Nothing is persisted when the lookup fails.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*entity.User, error) {
	u, err := s.signup(ctx, in)
	if err != nil {
		s.Metrics.RecordSignup(apperror.KindOf(err).String())
		return nil, err
	}
	s.Metrics.RecordSignup("created")

	s.indexUser(ctx, u)
	s.publish(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.Welcome,
		Data: mailtpl.NewWelcomeData(s.AppName, u.Name, u.Email,
			mailtpl.WithTime(u.CreatedAt),
			mailtpl.WithAddress(u.Cep(), u.CityName(), u.StateName()),
		),
	})
	return u, nil
}

func (s *Service) signup(ctx context.Context, in SignupInput) (*entity.User, error) {
	cep, ok := entity.NormalizeCep(in.Cep)
	if !ok {
		return nil, apperror.PostalCodeNotFound(in.Cep)
	}
	city, err := s.Postal.Resolve(ctx, cep)
	if err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    normalizeEmail(in.Email),
		Phone:    strings.TrimSpace(in.Phone),
		Password: hash,
	}

	err = s.Store.WithinTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		addr, err := r.Addresses().FindByCep(ctx, cep)
		if err != nil {
			return err
		}
		if addr == nil {
			addr = &entity.Address{Cep: cep, CityID: city.ID, City: city}
			if err := r.Addresses().Create(ctx, addr); err != nil {
				return err
			}
		}
		if addr.City == nil {
			addr.City = city
		}
		u.AddressID = addr.ID
		u.Address = addr

		if err := r.Users().Create(ctx, u); err != nil {
			if errors.Is(err, repo.ErrDuplicateEmail) {
				return apperror.ErrEmailTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Signin verifies the credentials and issues an access token
func (s *Service) Signin(ctx context.Context, email, password string) (string, time.Time, error) {
	u, err := s.Store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", time.Time{}, apperror.ErrUserNotFound
		}
		return "", time.Time{}, err
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return "", time.Time{}, apperror.ErrUnauthorized
	}
	token, exp, err := s.JWT.GenerateAccessToken(u.ID)
	if err != nil {
		helpers.LogError(s.Logger, "generate access token failed", err, logrus.Fields{"user_id": u.ID})
		return "", time.Time{}, err
	}
	return token, exp, nil
}

func (s *Service) List(ctx context.Context) ([]*entity.User, error) {
	return s.Store.Users().List(ctx)
}

// Delete removes the user identified by id
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.Store.WithinTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		return r.Users().Delete(ctx, id)
	})
	if errors.Is(err, repo.ErrNotFound) {
		return apperror.ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if s.Index != nil {
		if err := s.Index.Remove(ctx, id); err != nil {
			helpers.LogError(s.Logger, "search index remove failed", err, logrus.Fields{"user_id": id})
		}
	}
	return nil
}

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
)

// Search queries the user index. Without an index there are no results.
func (s *Service) Search(ctx context.Context, q string, size int) ([]*entity.User, error) {
	if size <= 0 || size > maxSearchSize {
		size = defaultSearchSize
	}
	if s.Index == nil {
		return []*entity.User{}, nil
	}
	return s.Index.Search(ctx, strings.TrimSpace(q), size)
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, u); err != nil {
		helpers.LogError(s.Logger, "search index failed", err, logrus.Fields{"user_id": u.ID})
	}
}

func (s *Service) publish(ctx context.Context, job mailer.EmailJob) {
	if s.Jobs == nil {
		return
	}
	if err := s.Jobs.PublishJSON(ctx, job); err != nil {
		helpers.LogError(s.Logger, "publish email job failed", err, logrus.Fields{"template": job.Template, "to": job.To})
	}
}

// hashPassword reports bcrypt's length limit as an invalid password value
func hashPassword(plain string) (string, error) {
	hash, err := helpers.HashPassword(plain)
	if errors.Is(err, helpers.ErrPasswordTooLong) {
		return "", apperror.InvalidFieldValue("password", "must be at most 72 bytes long")
	}
	return hash, err
}
