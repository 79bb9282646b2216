// Package http assembles the scoring API from modules: the App the
// composition root fills in, and the contracts a module implements.
package http

import (
	"context"

	"smartlead_backend/platform/config"
	"smartlead_backend/platform/logger"
)

// RouterConfig is the configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
}

// HealthChecker backs GET /api/health. A non-nil error turns it into a 503.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is what cmd/api hands to the router.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  HealthChecker
	Modules []Module
}

// Close tears modules down in reverse registration order so a module is
// released before anything registered ahead of it.
func (a *App) Close(ctx context.Context) {
	for i := len(a.Modules) - 1; i >= 0; i-- {
		c, ok := a.Modules[i].(Closer)
		if !ok {
			continue
		}
		if a.Logger != nil {
			a.Logger.Info("closing module", "module", a.Modules[i].Name())
		}
		c.Close(ctx)
	}
}
