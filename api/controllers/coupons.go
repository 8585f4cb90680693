package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/yasboss/storefront-backend/api/responses"
	"github.com/yasboss/storefront-backend/api/validators"
	"github.com/yasboss/storefront-backend/internal/coupons"
	"github.com/yasboss/storefront-backend/pkg/enums"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

type validateCouponRequest struct {
	Code     string          `json:"code" validate:"required"`
	Subtotal decimal.Decimal `json:"subtotal" validate:"required"`
}

type createCouponRequest struct {
	Code          string          `json:"code" validate:"required"`
	Type          string          `json:"type" validate:"required"`
	Value         decimal.Decimal `json:"value" validate:"required"`
	MinOrderValue decimal.Decimal `json:"min_order_value"`
	ExpiresAt     *time.Time      `json:"expires_at"`
	UsageLimit    *int            `json:"usage_limit"`
}

// ValidateCoupon previews the discount a code would grant on a subtotal.
func ValidateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validateCouponRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Validate(r.Context(), req.Code, req.Subtotal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CreateCoupon registers a new code.
func CreateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCouponRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		couponType, err := enums.ParseCouponType(strings.ToUpper(strings.TrimSpace(req.Type)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon type"))
			return
		}

		coupon, err := svc.Create(r.Context(), coupons.CreateInput{
			Code:          req.Code,
			Type:          couponType,
			Value:         req.Value,
			MinOrderValue: req.MinOrderValue,
			ExpiresAt:     req.ExpiresAt,
			UsageLimit:    req.UsageLimit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

// ListCoupons returns every coupon, newest first.
func ListCoupons(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// DeleteCoupon removes a code entirely.
func DeleteCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if err := svc.Delete(r.Context(), code); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"code": code, "status": "deleted"})
	}
}
