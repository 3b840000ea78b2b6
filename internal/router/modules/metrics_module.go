package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/cep-users/internal/interface/middleware"
	"github.com/oksasatya/cep-users/internal/metrics"
)

type MetricsModule struct {
	Gatherer prometheus.Gatherer
	Redis    *redis.Client
}

func NewMetricsModule(g prometheus.Gatherer, rdb *redis.Client) *MetricsModule {
	return &MetricsModule{Gatherer: g, Redis: rdb}
}

func (m *MetricsModule) Register(rg *gin.RouterGroup) {
	// Prometheus scrape endpoint, rate-limited per IP; private ranges are not limited
	rl := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/metrics", rl, gin.WrapH(metrics.Handler(m.Gatherer)))
}
