package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/cep-users/internal/interface/http"
	"github.com/oksasatya/cep-users/internal/interface/middleware"
	"github.com/oksasatya/cep-users/pkg/helpers"
)

// UserModule wires user and session handlers into routes
// Public: POST /api/users, POST /api/sessions
// Protected: GET /api/users, DELETE /api/users/me, PATCH /api/users/me, GET /api/users/search
type UserModule struct {
	Users    *handlers.UserHandler
	Sessions *handlers.SessionHandler
	JWT      *helpers.JWTManager
	Redis    *redis.Client
	// Allow bypasses rate limits (nil limits everyone)
	Allow middleware.AllowFunc
}

func NewUserModule(users *handlers.UserHandler, sessions *handlers.SessionHandler, jwt *helpers.JWTManager, rdb *redis.Client, allow middleware.AllowFunc) *UserModule {
	return &UserModule{Users: users, Sessions: sessions, JWT: jwt, Redis: rdb, Allow: allow}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	// Public with rate limiting
	signupLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), m.Allow) // 10 req/min per IP
	signinLimiter := middleware.RateLimit(m.Redis, 20, time.Minute, middleware.KeyByIPAndPath(), m.Allow)

	rg.POST("/users", signupLimiter, m.Users.Signup)
	rg.POST("/sessions", signinLimiter, m.Sessions.Signin)

	// Protected
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(
		middleware.RateLimit(m.Redis, 300, time.Minute, middleware.KeyByIP(), m.Allow),
		middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), m.Allow),
	)
	{
		auth.GET("/users", m.Users.List)
		auth.DELETE("/users/me", m.Users.Delete)
		auth.PATCH("/users/me", m.Users.Patch)
		auth.GET("/users/search", m.Users.Search)
	}
}
