package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cep-users/pkg/apperror"
	"github.com/oksasatya/cep-users/pkg/helpers"
	"github.com/oksasatya/cep-users/pkg/response"
)

// renderError writes err as an API error. Failures without a kind are logged
// and reported as 500.
func renderError(c *gin.Context, logger *logrus.Logger, err error) {
	if apperror.KindOf(err) == apperror.KindUnknown {
		helpers.LogError(logger, "request failed", err, logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"route":      c.FullPath(),
		})
	}
	response.FromError(c, err)
}
