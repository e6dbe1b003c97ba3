package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/whisper-srt/errors"
	"github.com/kbukum/whisper-srt/logger"
)

// RespondWithError writes err as {"error": message, "code": CODE}. An
// *apperrors.AppError supplies status and body; anything else becomes a
// generic 500. Server errors are logged with their cause.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		fields := logger.Fields(
			"code", string(appErr.Code),
			"path", c.Request.URL.Path,
		)
		if appErr.Cause != nil {
			fields[logger.FieldError] = appErr.Cause.Error()
		}
		logger.GetGlobalLogger().WithContext(c.Request.Context()).Error("Request failed", fields)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// RespondOK sends a 200 with body as JSON.
func RespondOK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}
