package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/yasboss/storefront-backend/api/responses"
	"github.com/yasboss/storefront-backend/pkg/config"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

const readyProbeTimeout = 2 * time.Second

// Pinger is any dependency the readiness probe should exercise.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Yasboss-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Yasboss-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()

		status := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				status[name] = "down"
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").WithDetails(status))
				return
			}
			status[name] = "up"
		}
		status["status"] = "ready"
		responses.WriteSuccess(w, status)
	}
}
