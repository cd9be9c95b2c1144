package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/lecturly/errors"
	"github.com/kbukum/lecturly/logger"
)

// RespondWithError renders err. An *apperrors.AppError carries its own status
// and body; anything else becomes a generic 500.
func RespondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.GetGlobalLogger().WithContext(c.Request.Context()).WithError(err).
			Error("Request failed", logger.Fields(logger.FieldStatus, appErr.HTTPStatus, "code", appErr.Code))
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// RespondOK sends a 200 response with body as-is.
func RespondOK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

func routeNotFound() error {
	return apperrors.NotFound("route")
}

func methodNotAllowed() error {
	return apperrors.New(apperrors.ErrCodeInvalidInput, "Method not allowed", http.StatusMethodNotAllowed)
}
