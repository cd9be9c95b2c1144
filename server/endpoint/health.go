// Package endpoint provides the service's operational handlers.
package endpoint

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/lecturly/component"
)

// HealthChecker returns health status for registered components.
type HealthChecker func(ctx context.Context) []component.Health

// Health always answers 200 {"status":"ok","service":<name>}. Component
// state is reported by Readiness.
func Health(serviceName string) gin.HandlerFunc {
	body := gin.H{"status": "ok", "service": serviceName}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, body)
	}
}
