package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cep-users/config"
	"github.com/oksasatya/cep-users/internal/domain/repository"
	"github.com/oksasatya/cep-users/internal/metrics"
	"github.com/oksasatya/cep-users/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	store       repository.Store
	redisClient *redis.Client

	jwtManager *helpers.JWTManager

	rabbitPub *helpers.RabbitPublisher
	esClient  *elasticsearch.Client

	recorder metrics.Recorder
	gatherer prometheus.Gatherer
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetStore(s repository.Store)  { store = s }
func GetStore() repository.Store   { return store }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager {
	if jwtManager != nil {
		return jwtManager
	}
	return helpers.DefaultJWT()
}

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }

// SetMetrics installs the recorder and the gatherer served on /metrics
func SetMetrics(r metrics.Recorder, g prometheus.Gatherer) { recorder, gatherer = r, g }
func GetGatherer() prometheus.Gatherer                     { return gatherer }
func GetMetrics() metrics.Recorder {
	if recorder != nil {
		return recorder
	}
	return metrics.Nop{}
}
