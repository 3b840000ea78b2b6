package postal

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cep-users/internal/domain/entity"
	"github.com/oksasatya/cep-users/internal/domain/repository"
	"github.com/oksasatya/cep-users/internal/metrics"
	"github.com/oksasatya/cep-users/pkg/apperror"
	"github.com/oksasatya/cep-users/pkg/helpers"
)

func cacheKey(cep string) string {
	return "postal:cep:" + cep
}

// Resolver implements repository.PostalLookup. Provider records are cached
// in Redis when a client is configured; only successful lookups are cached.
type Resolver struct {
	Provider Provider
	Cities   repository.CityRepository
	Redis    *redis.Client
	CacheTTL time.Duration
	Timeout  time.Duration
	Logger   *logrus.Logger
	Metrics  metrics.Recorder
}

func NewResolver(p Provider, cities repository.CityRepository, rdb *redis.Client, cacheTTL, timeout time.Duration, logger *logrus.Logger, m metrics.Recorder) *Resolver {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Resolver{Provider: p, Cities: cities, Redis: rdb, CacheTTL: cacheTTL, Timeout: timeout, Logger: logger, Metrics: m}
}

func (r *Resolver) Resolve(ctx context.Context, raw string) (*entity.City, error) {
	start := time.Now()
	city, result, err := r.resolve(ctx, raw)
	r.Metrics.RecordPostalLookup(result, time.Since(start))
	return city, err
}

func (r *Resolver) resolve(ctx context.Context, raw string) (*entity.City, string, error) {
	cep, ok := entity.NormalizeCep(raw)
	if !ok {
		return nil, apperror.KindPostalCodeNotFound.String(), apperror.PostalCodeNotFound(raw)
	}

	rec, err := r.record(ctx, cep)
	if errors.Is(err, ErrCepNotFound) {
		return nil, apperror.KindPostalCodeNotFound.String(), apperror.PostalCodeNotFound(cep)
	}
	if err != nil {
		return nil, "error", err
	}

	city, err := r.Cities.FindByName(ctx, rec.City, rec.UF)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.KindCityNotFound.String(), apperror.CityNotFound(rec.City, rec.UF)
	}
	if err != nil {
		return nil, "error", err
	}
	if !city.InServiceArea {
		return nil, apperror.KindCityOutOfServiceRange.String(), apperror.CityOutOfServiceRange(city.Name)
	}
	return city, "ok", nil
}

func (r *Resolver) record(ctx context.Context, cep string) (*Record, error) {
	if r.Redis != nil {
		var cached Record
		hit, err := helpers.RedisGetJSON(ctx, r.Redis, cacheKey(cep), &cached)
		if err != nil {
			r.warn(err, cep, "postal cache read failed")
		} else if hit {
			return &cached, nil
		}
	}

	lctx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	rec, err := r.Provider.Lookup(lctx, cep)
	if err != nil {
		return nil, err
	}

	if r.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, r.Redis, cacheKey(cep), rec, r.CacheTTL); err != nil {
			r.warn(err, cep, "postal cache write failed")
		}
	}
	return rec, nil
}

func (r *Resolver) warn(err error, cep, msg string) {
	if r.Logger != nil {
		r.Logger.WithError(err).WithField("cep", cep).Warn(msg)
	}
}

var _ repository.PostalLookup = (*Resolver)(nil)
