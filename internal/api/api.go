// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/factotum/internal/config"
	"github.com/JaimeStill/factotum/internal/infrastructure"
	"github.com/JaimeStill/factotum/pkg/middleware"
	"github.com/JaimeStill/factotum/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// When cfg.Audit.InstallOnStartup is set, the audit triggers are installed
// once the infrastructure is ready.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg); err != nil {
		return nil, err
	}

	if cfg.Audit.InstallOnStartup {
		runtime.Lifecycle.OnReady(func() {
			if _, err := domain.Audit.Install(runtime.Lifecycle.Context()); err != nil {
				runtime.Logger.Error("audit trigger install failed", "error", err)
			}
		})
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.RequestID())
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(runtime.Metrics.Middleware())
	m.Use(runtime.Auth.Middleware())

	return m, nil
}
