package http

import (
	"context"

	"github.com/gin-gonic/gin"
)

// Module mounts one area of the API, e.g. lead scoring.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// Closer is implemented by modules that hold connections or caches to
// release on shutdown. Close must be safe to call after a failed start.
type Closer interface {
	Close(ctx context.Context)
}

// RouterContext is what a module receives when registering routes.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is /api/v1 without tenant scoping.
	V1 *gin.RouterGroup
	// Tenant is /api/v1 behind the X-Tenant-ID check.
	Tenant *gin.RouterGroup
	// RateLimit throttles per client IP. Modules apply it to expensive routes.
	RateLimit gin.HandlerFunc
}
