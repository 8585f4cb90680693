package controllers

import (
	"net/http"
	"time"

	"github.com/yasboss/storefront-backend/api/middleware"
	"github.com/yasboss/storefront-backend/api/responses"
	"github.com/yasboss/storefront-backend/api/validators"
	"github.com/yasboss/storefront-backend/internal/orders"
	"github.com/yasboss/storefront-backend/internal/shipments"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

type assignWaybillRequest struct {
	Waybill           string `json:"waybill" validate:"required"`
	Carrier           string `json:"carrier"`
	TrackingURL       string `json:"tracking_url"`
	AgentName         string `json:"agent_name"`
	AgentPhone        string `json:"agent_phone"`
	EstimatedDelivery string `json:"estimated_delivery"`
}

// TrackOrder returns the shipment timeline for one of the caller's orders.
// The order read runs through the order service so ownership rules hold.
func TrackOrder(ordersSvc orders.Service, shipmentsSvc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}

		order, err := ordersSvc.Get(r.Context(), orderRef(r), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		details, err := shipmentsSvc.TrackByOrderRef(r.Context(), order.Reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, details)
	}
}

// AssignWaybill links a carrier waybill and delivery agent to an order so
// later carrier webhooks can find it.
func AssignWaybill(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}

		var req assignWaybillRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := shipments.AssignInput{
			OrderRef:    orderRef(r),
			Waybill:     req.Waybill,
			Carrier:     req.Carrier,
			TrackingURL: req.TrackingURL,
			AgentName:   req.AgentName,
			AgentPhone:  req.AgentPhone,
			Actor:       actor,
		}
		if req.EstimatedDelivery != "" {
			at, err := time.Parse(time.RFC3339, req.EstimatedDelivery)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "estimated_delivery must be RFC 3339"))
				return
			}
			input.EstimatedAt = &at
		}

		tracking, err := svc.AssignWaybill(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tracking)
	}
}

// ShipmentStatusCounts powers the admin logistics dashboard.
func ShipmentStatusCounts(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := svc.StatusCounts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, counts)
	}
}
