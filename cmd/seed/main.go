package main

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cep-users/config"
	"github.com/oksasatya/cep-users/internal/domain/entity"
	"github.com/oksasatya/cep-users/internal/domain/repository"
	pginfra "github.com/oksasatya/cep-users/internal/infrastructure/postgres"
	"github.com/oksasatya/cep-users/internal/infrastructure/referencedata"
	"github.com/oksasatya/cep-users/pkg/helpers"
)

const (
	demoName     = "Demo User"
	demoEmail    = "demo@example.com"
	demoPhone    = "11999990000"
	demoPassword = "password123"
	demoCep      = "01001000"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	err = pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return pginfra.SeedReferenceData(ctx, tx, referencedata.Cities)
	})
	if err != nil {
		log.Fatalf("failed to seed reference data: %v", err)
	}
	logger.WithField("cities", len(referencedata.Cities)).Info("reference data seeded")

	hash, err := helpers.HashPassword(demoPassword)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	store := pginfra.NewStore(pool)
	err = store.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		if _, err := r.Users().GetByEmail(ctx, demoEmail); err == nil {
			return nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		city, err := r.Cities().FindByName(ctx, "São Paulo", "SP")
		if err != nil {
			return err
		}
		addr, err := r.Addresses().FindByCep(ctx, demoCep)
		if err != nil {
			return err
		}
		if addr == nil {
			addr = &entity.Address{Cep: demoCep, CityID: city.ID, City: city}
			if err := r.Addresses().Create(ctx, addr); err != nil {
				return err
			}
		}
		return r.Users().Create(ctx, &entity.User{
			Name:     demoName,
			Email:    demoEmail,
			Phone:    demoPhone,
			Password: hash,
			Address:  addr,
		})
	})
	if err != nil {
		log.Fatalf("failed to seed demo user: %v", err)
	}
	logger.WithFields(logrus.Fields{"email": demoEmail, "cep": demoCep}).Info("demo user ensured")
}
