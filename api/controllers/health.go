package controllers

import (
	"net/http"

	"github.com/rentiva/rentiva-backend/api/responses"
	"github.com/rentiva/rentiva-backend/pkg/config"
	"github.com/rentiva/rentiva-backend/pkg/db"
	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
	"github.com/rentiva/rentiva-backend/pkg/logger"
)

const envHeader = "X-Rentiva-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the datastores answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers ...db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		for _, pinger := range pingers {
			if pinger == nil {
				continue
			}
			if err := pinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency not ready"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
