package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/yasboss/storefront-backend/api/middleware"
	"github.com/yasboss/storefront-backend/api/responses"
	"github.com/yasboss/storefront-backend/api/validators"
	"github.com/yasboss/storefront-backend/internal/checkout"
	"github.com/yasboss/storefront-backend/pkg/enums"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

type checkoutItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,gt=0"`
}

type placeOrderRequest struct {
	Items           []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
	CouponCode      string                `json:"coupon_code"`
	PointsToUse     int                   `json:"points_to_use" validate:"min=0"`
	PaymentMethod   string                `json:"payment_method" validate:"required"`
	ShippingAddress string                `json:"shipping_address" validate:"required"`
	Notes           *string               `json:"notes"`
}

type quoteRequest struct {
	Items       []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
	CouponCode  string                `json:"coupon_code"`
	PointsToUse int                   `json:"points_to_use" validate:"min=0"`
}

func toItemInputs(items []checkoutItemRequest) []checkout.ItemInput {
	inputs := make([]checkout.ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, checkout.ItemInput{ProductID: item.ProductID, Qty: item.Qty})
	}
	return inputs
}

// PlaceOrder prices the cart and persists the order for the caller.
func PlaceOrder(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}

		var req placeOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		order, err := svc.PlaceOrder(r.Context(), checkout.PlaceOrderInput{
			Email:           actor.Email,
			Items:           toItemInputs(req.Items),
			CouponCode:      req.CouponCode,
			PointsToUse:     req.PointsToUse,
			PaymentMethod:   method,
			ShippingAddress: req.ShippingAddress,
			Notes:           req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// QuoteOrder prices the cart without writing anything.
func QuoteOrder(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}

		var req quoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		totals, err := svc.Quote(r.Context(), checkout.QuoteInput{
			Email:       actor.Email,
			Items:       toItemInputs(req.Items),
			CouponCode:  req.CouponCode,
			PointsToUse: req.PointsToUse,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, totals)
	}
}
