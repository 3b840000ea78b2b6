package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/cep-users/internal/application"
	"github.com/oksasatya/cep-users/pkg/response"
	"github.com/oksasatya/cep-users/pkg/validation"
)

type SessionHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewSessionHandler(svc *userapp.Service, logger *logrus.Logger) *SessionHandler {
	return &SessionHandler{Svc: svc, Logger: logger}
}

type signinRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenView struct {
	Token string `json:"token"`
}

func (h *SessionHandler) Signin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	token, exp, err := h.Svc.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		renderError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, tokenView{Token: token}, "signed in", map[string]any{"expires_at": exp})
}
