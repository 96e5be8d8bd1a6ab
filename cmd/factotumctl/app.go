package main

import (
	"context"
	"fmt"
	"time"

	"github.com/JaimeStill/factotum/internal/api"
	"github.com/JaimeStill/factotum/internal/config"
	"github.com/JaimeStill/factotum/internal/infrastructure"
	"github.com/JaimeStill/factotum/pkg/auth"
	"github.com/JaimeStill/factotum/pkg/lifecycle"
)

// app is the set of domain systems a command works through. It shares the
// server's configuration and infrastructure so both write the same rows.
type app struct {
	cfg    *config.Config
	infra  *infrastructure.Infrastructure
	domain *api.Domain
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		infra:  infra,
		domain: api.NewDomain(api.NewRuntime(cfg, infra)),
	}

	if err := boot(infra.Lifecycle, infra.Start, cfg.ShutdownTimeoutDuration()); err != nil {
		return nil, err
	}

	return a, nil
}

// boot starts the subsystems and waits for their startup hooks. Whatever was
// already started is shut down when either step fails.
func boot(lc *lifecycle.Coordinator, start func() error, timeout time.Duration) error {
	if err := start(); err != nil {
		lc.Shutdown(timeout)
		return err
	}
	if err := lc.WaitForStartup(); err != nil {
		lc.Shutdown(timeout)
		return fmt.Errorf("startup: %w", err)
	}
	return nil
}

func (a *app) Close() error {
	return a.infra.Lifecycle.Shutdown(a.cfg.ShutdownTimeoutDuration())
}

// withApp opens the app, runs fn with the actor attached to ctx, and always
// shuts the infrastructure down afterwards.
func withApp(ctx context.Context, opts *rootOptions, fn func(context.Context, *app) error) (err error) {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(auth.WithActor(ctx, opts.actor), a)
}
