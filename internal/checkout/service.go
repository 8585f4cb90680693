package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yasboss/storefront-backend/internal/audit"
	"github.com/yasboss/storefront-backend/internal/catalog"
	"github.com/yasboss/storefront-backend/internal/coupons"
	"github.com/yasboss/storefront-backend/internal/orders"
	"github.com/yasboss/storefront-backend/internal/rewards"
	"github.com/yasboss/storefront-backend/internal/settings"
	"github.com/yasboss/storefront-backend/pkg/db"
	"github.com/yasboss/storefront-backend/pkg/db/models"
	"github.com/yasboss/storefront-backend/pkg/enums"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

const referenceAttempts = 3

var (
	oneHundred = decimal.NewFromInt(100)
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogReader interface {
	Snapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Snapshot, error)
}

type couponRedeemer interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*coupons.Quote, error)
	Redeem(ctx context.Context, tx *gorm.DB, code string, subtotal decimal.Decimal) (*coupons.Quote, error)
}

type pointsLedger interface {
	DebitInTx(ctx context.Context, tx *gorm.DB, input rewards.Mutation) error
	Balance(ctx context.Context, email string) (int, error)
}

type pricingSource interface {
	Pricing(ctx context.Context) settings.Pricing
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// ItemInput is one requested line at checkout. Prices come from the
// catalog, never from the client.
type ItemInput struct {
	ProductID uuid.UUID
	Qty       int
}

// PlaceOrderInput carries everything the checkout needs to price and
// persist an order.
type PlaceOrderInput struct {
	Email           string
	Items           []ItemInput
	CouponCode      string
	PointsToUse     int
	PaymentMethod   enums.PaymentMethod
	ShippingAddress string
	Notes           *string
}

// QuoteInput prices a prospective order without touching any state.
type QuoteInput struct {
	Email       string
	Items       []ItemInput
	CouponCode  string
	PointsToUse int
}

// Totals is the pricing breakdown shared by quotes and placed orders.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	PointsValue    decimal.Decimal `json:"points_value"`
	ShippingFee    decimal.Decimal `json:"shipping_fee"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PointsToEarn   int             `json:"points_to_earn"`
}

// Service turns carts into orders.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	Quote(ctx context.Context, input QuoteInput) (*Totals, error)
}

// ServiceParams collects the dependencies for NewService.
type ServiceParams struct {
	Repo    orders.Repository
	Tx      txRunner
	Catalog catalogReader
	Coupons couponRedeemer
	Rewards pointsLedger
	Pricing pricingSource
	Audit   auditRecorder
	Logger  *logger.Logger
}

type service struct {
	repo    orders.Repository
	tx      txRunner
	catalog catalogReader
	coupons couponRedeemer
	rewards pointsLedger
	pricing pricingSource
	audit   auditRecorder
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds a checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if params.Rewards == nil {
		return nil, fmt.Errorf("rewards ledger required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("pricing source required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		catalog: params.Catalog,
		coupons: params.Coupons,
		rewards: params.Rewards,
		pricing: params.Pricing,
		audit:   params.Audit,
		logg:    params.Logger,
		now:     time.Now,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	email, err := validatePlaceOrder(input)
	if err != nil {
		return nil, err
	}

	snapshots, subtotal, err := s.priceItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	pricing := s.pricing.Pricing(ctx)

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		discount := decimal.Zero
		var appliedCoupon *string
		if input.CouponCode != "" {
			quote, err := s.coupons.Redeem(ctx, tx, input.CouponCode, subtotal)
			if err != nil {
				return err
			}
			discount = quote.Discount
			appliedCoupon = &quote.Code
		}

		pointsValue := decimal.Zero
		if input.PointsToUse > 0 {
			pointsValue = decimal.NewFromInt(int64(input.PointsToUse)).Mul(pricing.PointRedeemRate)
			if pointsValue.GreaterThan(subtotal.Sub(discount)) {
				return pkgerrors.New(pkgerrors.CodeValidation, "points exceed payable amount")
			}
		}

		payable := subtotal.Sub(discount).Sub(pointsValue)
		// free shipping keys off the raw subtotal, not the discounted amount
		shipping := decimal.Zero
		if subtotal.LessThan(pricing.FreeShippingThreshold) {
			shipping = pricing.DeliveryFee
		}
		tax := payable.Mul(pricing.TaxPercent).Div(oneHundred).Round(2)
		total := payable.Add(shipping).Add(tax)
		pointsToEarn := int(total.Div(oneHundred).IntPart())

		order = &models.Order{
			ID:              uuid.New(),
			UserEmail:       email,
			Status:          enums.OrderStatusPending,
			RefundStatus:    enums.RefundStatusNone,
			Subtotal:        subtotal,
			DiscountAmount:  discount,
			PointsValue:     pointsValue,
			ShippingFee:     shipping,
			TaxAmount:       tax,
			TotalAmount:     total,
			AppliedCoupon:   appliedCoupon,
			PointsUsed:      input.PointsToUse,
			PointsToEarn:    pointsToEarn,
			PaymentMethod:   input.PaymentMethod,
			PaymentStatus:   enums.PaymentStatusPending,
			ShippingAddress: strings.TrimSpace(input.ShippingAddress),
			CustomerNotes:   input.Notes,
			OrderDate:       s.now().UTC(),
		}
		for _, item := range input.Items {
			snap := snapshots[item.ProductID]
			order.Items = append(order.Items, models.OrderItem{
				ID:        uuid.New(),
				OrderID:   order.ID,
				ProductID: snap.ProductID,
				Name:      snap.Name,
				UnitPrice: snap.UnitPrice,
				Qty:       item.Qty,
				ImageURL:  snap.ImageURL,
			})
		}

		// debit after pricing so the ledger row can carry the reference
		if err := s.createWithReference(ctx, repo, order); err != nil {
			return err
		}
		if input.PointsToUse > 0 {
			err := s.rewards.DebitInTx(ctx, tx, rewards.Mutation{
				Email:     email,
				Points:    input.PointsToUse,
				Type:      enums.PointTxOrderRedeem,
				Reference: &order.Reference,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Kind:      audit.KindOrderPlaced,
		Message:   fmt.Sprintf("order %s placed for %s (%s)", order.Reference, email, order.TotalAmount.StringFixed(2)),
		ActorID:   email,
		ActorRole: string(enums.ActorRoleCustomer),
	})

	ctx = s.logg.WithOrderRef(ctx, order.Reference)
	s.logg.Info(ctx, "order placed")
	return order, nil
}

func (s *service) Quote(ctx context.Context, input QuoteInput) (*Totals, error) {
	email, err := validateQuote(input)
	if err != nil {
		return nil, err
	}

	_, subtotal, err := s.priceItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	pricing := s.pricing.Pricing(ctx)

	discount := decimal.Zero
	if input.CouponCode != "" {
		quote, err := s.coupons.Validate(ctx, input.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
		discount = quote.Discount
	}

	pointsValue := decimal.Zero
	if input.PointsToUse > 0 {
		balance, err := s.rewards.Balance(ctx, email)
		if err != nil {
			return nil, err
		}
		if balance < input.PointsToUse {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient points balance")
		}
		pointsValue = decimal.NewFromInt(int64(input.PointsToUse)).Mul(pricing.PointRedeemRate)
		if pointsValue.GreaterThan(subtotal.Sub(discount)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "points exceed payable amount")
		}
	}

	payable := subtotal.Sub(discount).Sub(pointsValue)
	shipping := decimal.Zero
	if subtotal.LessThan(pricing.FreeShippingThreshold) {
		shipping = pricing.DeliveryFee
	}
	tax := payable.Mul(pricing.TaxPercent).Div(oneHundred).Round(2)
	total := payable.Add(shipping).Add(tax)

	return &Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		PointsValue:    pointsValue,
		ShippingFee:    shipping,
		TaxAmount:      tax,
		TotalAmount:    total,
		PointsToEarn:   int(total.Div(oneHundred).IntPart()),
	}, nil
}

// priceItems resolves catalog snapshots and the server-side subtotal.
func (s *service) priceItems(ctx context.Context, items []ItemInput) (map[uuid.UUID]catalog.Snapshot, decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	snapshots, err := s.catalog.Snapshots(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}

	subtotal := decimal.Zero
	for _, item := range items {
		snap, ok := snapshots[item.ProductID]
		if !ok {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unknown product %s", item.ProductID))
		}
		if !snap.Active {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s is no longer available", item.ProductID))
		}
		subtotal = subtotal.Add(snap.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	return snapshots, subtotal, nil
}

// createWithReference persists the order, retrying on the rare reference
// collision.
func (s *service) createWithReference(ctx context.Context, repo orders.Repository, order *models.Order) error {
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		ref, err := orders.GenerateReference()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reference")
		}
		order.Reference = ref

		err = repo.Create(ctx, order)
		if err == nil {
			return nil
		}
		if db.IsUniqueViolation(err, "") {
			continue
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}
	return pkgerrors.New(pkgerrors.CodeInternal, "could not allocate an order reference")
}

func validatePlaceOrder(input PlaceOrderInput) (string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if err := validateItems(input.Items); err != nil {
		return "", err
	}
	if !input.PaymentMethod.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if strings.TrimSpace(input.ShippingAddress) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
	}
	if input.PointsToUse < 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "points to use cannot be negative")
	}
	return email, nil
}

func validateQuote(input QuoteInput) (string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if err := validateItems(input.Items); err != nil {
		return "", err
	}
	if input.PointsToUse < 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "points to use cannot be negative")
	}
	return email, nil
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}
	return nil
}
