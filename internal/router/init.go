package router

import (
	appuser "github.com/oksasatya/cep-users/internal/application"
	"github.com/oksasatya/cep-users/internal/container"
	"github.com/oksasatya/cep-users/internal/infrastructure/postal"
	"github.com/oksasatya/cep-users/internal/infrastructure/search"
	handlers "github.com/oksasatya/cep-users/internal/interface/http"
	"github.com/oksasatya/cep-users/internal/interface/middleware"
	"github.com/oksasatya/cep-users/internal/router/modules"
)

type UserModuleDeps struct {
	Service  *appuser.Service
	Users    *handlers.UserHandler
	Sessions *handlers.SessionHandler
}

func buildUserDeps() UserModuleDeps {
	cfg := container.GetConfig()
	store := container.GetStore()
	logger := container.GetLogger()

	resolver := postal.NewResolver(
		postal.NewViaCEP(cfg.PostalBaseURL, cfg.PostalTimeout),
		store.Cities(),
		container.GetRedis(),
		cfg.PostalCacheTTL,
		cfg.PostalTimeout,
		logger,
		container.GetMetrics(),
	)

	opts := []appuser.Option{
		appuser.WithAppName(cfg.AppName),
		appuser.WithMetrics(container.GetMetrics()),
	}
	if es := container.GetES(); es != nil {
		opts = append(opts, appuser.WithIndex(search.NewUserIndex(es, cfg.ESUsersIndex)))
	}
	if pub := container.GetRabbitPub(); pub != nil {
		opts = append(opts, appuser.WithJobs(pub))
	}
	service := appuser.NewService(store, resolver, container.GetJWT(), logger, opts...)

	return UserModuleDeps{
		Service:  service,
		Users:    handlers.NewUserHandler(service, logger),
		Sessions: handlers.NewSessionHandler(service, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()

	var allow middleware.AllowFunc
	if cfg.RateLimitBypassPrivate {
		allow = middleware.AllowPrivateIP()
	}

	userDeps := buildUserDeps()
	r.Add(modules.NewUserModule(userDeps.Users, userDeps.Sessions, container.GetJWT(), container.GetRedis(), allow))

	if cfg.MetricsEnabled && container.GetGatherer() != nil {
		r.AddRoot(modules.NewMetricsModule(container.GetGatherer(), container.GetRedis()))
	}
}
