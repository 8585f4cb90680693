package controllers

import (
	"net/http"

	"github.com/yasboss/storefront-backend/api/responses"
	"github.com/yasboss/storefront-backend/internal/catalog"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

// ListProducts returns the sellable catalog snapshots.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}
