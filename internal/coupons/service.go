package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yasboss/storefront-backend/pkg/db"
	"github.com/yasboss/storefront-backend/pkg/db/models"
	"github.com/yasboss/storefront-backend/pkg/enums"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// Quote is the outcome of a successful coupon evaluation.
type Quote struct {
	Code     string           `json:"code"`
	Type     enums.CouponType `json:"type"`
	Discount decimal.Decimal  `json:"discount"`
}

// CreateInput carries the fields an admin supplies for a new coupon.
type CreateInput struct {
	Code          string
	Type          enums.CouponType
	Value         decimal.Decimal
	MinOrderValue decimal.Decimal
	ExpiresAt     *time.Time
	UsageLimit    *int
}

// Service evaluates and redeems coupons. Validate never mutates state;
// Redeem runs inside the caller's transaction.
type Service interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Quote, error)
	Redeem(ctx context.Context, tx *gorm.DB, code string, subtotal decimal.Decimal) (*Quote, error)
	Create(ctx context.Context, input CreateInput) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Delete(ctx context.Context, code string) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a coupon service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// NormalizeCode trims and uppercases a coupon code for storage and lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *service) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Quote, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}

	coupon, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	return s.evaluate(coupon, subtotal)
}

func (s *service) Redeem(ctx context.Context, tx *gorm.DB, code string, subtotal decimal.Decimal) (*Quote, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "redeem requires a transaction")
	}
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}

	repo := s.repo.WithTx(tx)
	coupon, err := repo.FindByCodeForUpdate(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	quote, err := s.evaluate(coupon, subtotal)
	if err != nil {
		return nil, err
	}

	coupon.UsedCount++
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		coupon.Active = false
	}
	if err := repo.Save(ctx, coupon); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record coupon usage")
	}
	return quote, nil
}

// evaluate applies the rejection checks in a fixed order so callers always
// see the same reason for a given coupon state.
func (s *service) evaluate(coupon *models.Coupon, subtotal decimal.Decimal) (*Quote, error) {
	if !coupon.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is inactive")
	}
	if coupon.ExpiresAt != nil && !coupon.ExpiresAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired")
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon usage limit reached")
	}
	if subtotal.LessThan(coupon.MinOrderValue) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("order value below coupon minimum of %s", coupon.MinOrderValue.StringFixed(2)))
	}

	var discount decimal.Decimal
	switch coupon.Type {
	case enums.CouponTypePercent:
		discount = subtotal.Mul(coupon.Value).Div(oneHundred).Round(2)
	case enums.CouponTypeFlat:
		discount = coupon.Value
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown coupon type %q", coupon.Type))
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	return &Quote{Code: coupon.Code, Type: coupon.Type, Discount: discount}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Coupon, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon type must be PERCENT or FLAT")
	}
	if input.Value.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon value must be positive")
	}
	if input.Type == enums.CouponTypePercent && input.Value.GreaterThan(oneHundred) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percent coupon value cannot exceed 100")
	}
	if input.MinOrderValue.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum order value cannot be negative")
	}
	if input.UsageLimit != nil && *input.UsageLimit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage limit must be positive")
	}

	coupon := &models.Coupon{
		ID:            uuid.New(),
		Code:          code,
		Type:          input.Type,
		Value:         input.Value,
		MinOrderValue: input.MinOrderValue,
		ExpiresAt:     input.ExpiresAt,
		Active:        true,
		UsageLimit:    input.UsageLimit,
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("coupon %s already exists", code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return coupon, nil
}

func (s *service) List(ctx context.Context) ([]models.Coupon, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return rows, nil
}

func (s *service) Delete(ctx context.Context, code string) error {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}
	affected, err := s.repo.Delete(ctx, normalized)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return nil
}
