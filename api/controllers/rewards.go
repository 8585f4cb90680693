package controllers

import (
	"net/http"

	"github.com/yasboss/storefront-backend/api/middleware"
	"github.com/yasboss/storefront-backend/api/responses"
	"github.com/yasboss/storefront-backend/api/validators"
	"github.com/yasboss/storefront-backend/internal/rewards"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

const maxHistoryLimit = 200

// MyPointsBalance returns the caller's current loyalty balance.
func MyPointsBalance(svc rewards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}

		balance, err := svc.Balance(r.Context(), actor.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"balance": balance})
	}
}

// MyPointsHistory returns the caller's ledger entries, newest first.
func MyPointsHistory(svc rewards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, maxHistoryLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := svc.History(r.Context(), actor.Email, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}
