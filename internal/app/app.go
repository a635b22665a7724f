// Package app provides the main application structure and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ShutdownTimeout bounds how long OnStop hooks may run.
const ShutdownTimeout = 30 * time.Second

// Application represents one command's dependency graph with its lifecycle.
type Application struct {
	app *fx.App
}

// New creates a new Application with the provided modules and options.
func New(modules ...fx.Option) *Application {
	options := append(modules, fx.Invoke(registerLifecycleHooks))

	return &Application{
		app: fx.New(options...),
	}
}

// Err reports a dependency graph error found while building the application.
func (a *Application) Err() error {
	return a.app.Err()
}

// Start runs the OnStart hooks.
func (a *Application) Start(ctx context.Context) error {
	return a.app.Start(ctx)
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	return a.app.Stop(ctx)
}

// Execute starts the application, runs fn and stops the application again,
// even when fn fails. The stop gets ShutdownTimeout regardless of ctx.
func (a *Application) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := a.Err(); err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	runErr := fn(ctx)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := a.Stop(stopCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("error during shutdown: %w", err))
	}

	return runErr
}

// registerLifecycleHooks logs application start and stop.
func registerLifecycleHooks(lc fx.Lifecycle, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Application started successfully")

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping application")

			return nil
		},
	})
}
