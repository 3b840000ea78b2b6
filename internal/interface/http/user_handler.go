package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/cep-users/internal/application"
	"github.com/oksasatya/cep-users/internal/domain/entity"
	"github.com/oksasatya/cep-users/internal/interface/middleware"
	"github.com/oksasatya/cep-users/pkg/response"
	"github.com/oksasatya/cep-users/pkg/validation"
)

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type signupRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"omitempty,phone"`
	Password string `json:"password" binding:"required,pwd"`
	Cep      string `json:"cep" binding:"required,cep"`
}

// UserView is the public representation of a user
type UserView struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}

func toView(u *entity.User) UserView {
	return UserView{
		Name:    u.Name,
		Email:   u.Email,
		Phone:   u.Phone,
		Address: u.Cep(),
		City:    u.CityName(),
		State:   u.StateName(),
	}
}

func toViews(users []*entity.User) []UserView {
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, toView(u))
	}
	return out
}

func (h *UserHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.Signup(c.Request.Context(), userapp.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Cep:      req.Cep,
	})
	if err != nil {
		renderError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toView(u), "user created", nil)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.List(c.Request.Context())
	if err != nil {
		renderError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toViews(users), "users", map[string]any{"count": len(users)})
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.GetString(middleware.CtxUserIDKey)); err != nil {
		renderError(c, h.Logger, err)
		return
	}
	response.NoContent(c)
}

// Patch accepts a JSON object of fields to change. An empty body changes nothing.
func (h *UserHandler) Patch(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"payload": "unreadable body"})
		return
	}
	fields := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &fields); err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
			return
		}
	}

	if err := h.Svc.Patch(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), fields); err != nil {
		renderError(c, h.Logger, err)
		return
	}
	response.NoContent(c)
}

// Search queries the users index: GET /users/search?q=...&size=...
func (h *UserHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	users, err := h.Svc.Search(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		renderError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toViews(users), "search results", map[string]any{"count": len(users)})
}
