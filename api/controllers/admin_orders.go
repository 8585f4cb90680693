package controllers

import (
	"net/http"
	"strings"

	"github.com/yasboss/storefront-backend/api/middleware"
	"github.com/yasboss/storefront-backend/api/responses"
	"github.com/yasboss/storefront-backend/api/validators"
	"github.com/yasboss/storefront-backend/internal/orders"
	"github.com/yasboss/storefront-backend/pkg/enums"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
	"github.com/yasboss/storefront-backend/pkg/logger"
	"github.com/yasboss/storefront-backend/pkg/pagination"
)

type transitionRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note"`
}

type confirmPaymentRequest struct {
	PaymentRef string `json:"payment_ref" validate:"required"`
}

// AdminListOrders pages all orders with optional status and email filters.
func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), orders.ListParams{
			Status: strings.TrimSpace(r.URL.Query().Get("status")),
			Email:  strings.TrimSpace(r.URL.Query().Get("email")),
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// TransitionOrder moves an order through the lifecycle on behalf of staff.
func TransitionOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}

		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		order, err := svc.ApplyTransition(r.Context(), orders.TransitionInput{
			Reference: orderRef(r),
			Target:    target,
			Actor:     actor,
			Note:      req.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ConfirmPayment marks a pending order paid, keyed by the gateway reference.
func ConfirmPayment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}

		var req confirmPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ConfirmPayment(r.Context(), orders.PaymentInput{
			Reference:  orderRef(r),
			PaymentRef: req.PaymentRef,
			Actor:      actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderStatusCounts powers the admin dashboard tiles.
func OrderStatusCounts(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := svc.StatusCounts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, counts)
	}
}
