package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/cep-users/config"
	"github.com/oksasatya/cep-users/internal/container"
	"github.com/oksasatya/cep-users/internal/infrastructure/memory"
	"github.com/oksasatya/cep-users/internal/interface/middleware"
	"github.com/oksasatya/cep-users/internal/metrics"
	"github.com/oksasatya/cep-users/pkg/helpers"
	"github.com/oksasatya/cep-users/pkg/validation"
)

func fakeViaCEP(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ws/13010000/json/":
			_, _ = w.Write([]byte(`{"cep":"13010-000","localidade":"Campinas","uf":"SP"}`))
		case "/ws/40010000/json/":
			_, _ = w.Write([]byte(`{"cep":"40010-000","localidade":"Salvador","uf":"BA"}`))
		default:
			_, _ = w.Write([]byte(`{"erro": true}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	helpers.PasswordCost = bcrypt.MinCost
	validation.Init()

	store := memory.NewStore()
	store.SeedCity("São Paulo", "SP", "Campinas", true)
	store.SeedCity("Bahia", "BA", "Salvador", false)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	container.SetConfig(&config.Config{
		AppName:        "cep-users",
		PostalBaseURL:  fakeViaCEP(t).URL,
		PostalTimeout:  time.Second,
		PostalCacheTTL: time.Minute,
		ESUsersIndex:   "users",
		MetricsEnabled: true,
	})
	container.SetStore(store)
	container.SetRedis(nil)
	container.SetES(nil)
	container.SetRabbitPub(nil)
	container.SetJWT(helpers.NewJWTManager("router-secret", time.Hour))
	container.SetMetrics(collector, reg)

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware(), middleware.HTTPMetrics(collector))
	registry := NewRegistry(r)
	InitModules(registry)
	registry.RegisterAll()
	return r
}

func call(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes_EndToEnd(t *testing.T) {
	r := newEngine(t)

	w := call(r, http.MethodPost, "/api/users", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "s3cretpass", "cep": "13010-000",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"city":"Campinas"`)
	assert.Contains(t, w.Body.String(), `"state":"São Paulo"`)

	w = call(r, http.MethodPost, "/api/users", "", map[string]string{
		"name": "Bia", "email": "bia@example.com", "password": "s3cretpass", "cep": "40010000",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = call(r, http.MethodPost, "/api/users", "", map[string]string{
		"name": "Bia", "email": "bia@example.com", "password": "s3cretpass", "cep": "00000000",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(r, http.MethodPost, "/api/sessions", "", map[string]string{"email": "ana@example.com", "password": "s3cretpass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var signin struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signin))
	token := signin.Data.Token

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/users", token, nil).Code)
	assert.Equal(t, http.StatusNoContent, call(r, http.MethodPatch, "/api/users/me", token, map[string]string{"phone": "19988887777"}).Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/users/search?q=ana", token, nil).Code)
	assert.Equal(t, http.StatusNoContent, call(r, http.MethodDelete, "/api/users/me", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodDelete, "/api/users/me", token, nil).Code)

	w = call(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `cepusers_signups_total{outcome="created"} 1`)
	assert.Contains(t, body, `cepusers_signups_total{outcome="city_out_of_service_range"} 1`)
	assert.True(t, strings.Contains(body, `route="/api/users"`))
}
