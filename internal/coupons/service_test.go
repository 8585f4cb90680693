package coupons

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yasboss/storefront-backend/pkg/db/models"
	"github.com/yasboss/storefront-backend/pkg/enums"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
)

type stubRepo struct {
	coupons   map[string]*models.Coupon
	saved     *models.Coupon
	deleted   int64
	createErr error
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	if c, ok := s.coupons[code]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindByCodeForUpdate(ctx context.Context, code string) (*models.Coupon, error) {
	return s.FindByCode(ctx, code)
}

func (s *stubRepo) Create(ctx context.Context, coupon *models.Coupon) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.coupons == nil {
		s.coupons = map[string]*models.Coupon{}
	}
	s.coupons[coupon.Code] = coupon
	return nil
}

func (s *stubRepo) Save(ctx context.Context, coupon *models.Coupon) error {
	s.saved = coupon
	return nil
}

func (s *stubRepo) List(ctx context.Context) ([]models.Coupon, error) {
	var out []models.Coupon
	for _, c := range s.coupons {
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubRepo) Delete(ctx context.Context, code string) (int64, error) {
	return s.deleted, nil
}

func newService(t *testing.T, repo Repository) *service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc.(*service)
}

func expectValidation(t *testing.T, err error, fragment string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected validation error containing %q", fragment)
	}
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
	if !strings.Contains(err.Error(), fragment) {
		t.Fatalf("expected message containing %q, got %q", fragment, err.Error())
	}
}

func intPtr(n int) *int { return &n }

func TestValidateUnknownCode(t *testing.T) {
	svc := newService(t, &stubRepo{})
	_, err := svc.Validate(context.Background(), "NOPE", decimal.NewFromInt(1000))
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found code for unknown coupon, got %v", err)
	}
}

func TestValidateInactiveBeatsExpired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	repo := &stubRepo{coupons: map[string]*models.Coupon{
		"OLD": {Code: "OLD", Type: enums.CouponTypeFlat, Value: decimal.NewFromInt(50), Active: false, ExpiresAt: &past},
	}}
	svc := newService(t, repo)

	_, err := svc.Validate(context.Background(), "OLD", decimal.NewFromInt(1000))
	expectValidation(t, err, "inactive")
}

func TestValidateExpired(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	repo := &stubRepo{coupons: map[string]*models.Coupon{
		"GONE": {Code: "GONE", Type: enums.CouponTypeFlat, Value: decimal.NewFromInt(50), Active: true, ExpiresAt: &past},
	}}
	svc := newService(t, repo)

	_, err := svc.Validate(context.Background(), "GONE", decimal.NewFromInt(1000))
	expectValidation(t, err, "expired")
}

func TestValidateUsageLimitReached(t *testing.T) {
	repo := &stubRepo{coupons: map[string]*models.Coupon{
		"FULL": {Code: "FULL", Type: enums.CouponTypeFlat, Value: decimal.NewFromInt(50), Active: true, UsageLimit: intPtr(3), UsedCount: 3},
	}}
	svc := newService(t, repo)

	_, err := svc.Validate(context.Background(), "FULL", decimal.NewFromInt(1000))
	expectValidation(t, err, "usage limit")
}

func TestValidateBelowMinimum(t *testing.T) {
	repo := &stubRepo{coupons: map[string]*models.Coupon{
		"BIG": {Code: "BIG", Type: enums.CouponTypePercent, Value: decimal.NewFromInt(10), Active: true, MinOrderValue: decimal.NewFromInt(2000)},
	}}
	svc := newService(t, repo)

	_, err := svc.Validate(context.Background(), "BIG", decimal.NewFromInt(1000))
	expectValidation(t, err, "minimum")
}

func TestValidatePercentDiscount(t *testing.T) {
	repo := &stubRepo{coupons: map[string]*models.Coupon{
		"SAVE10": {Code: "SAVE10", Type: enums.CouponTypePercent, Value: decimal.NewFromInt(10), Active: true},
	}}
	svc := newService(t, repo)

	quote, err := svc.Validate(context.Background(), "  save10 ", decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !quote.Discount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected discount 100, got %s", quote.Discount)
	}
	if quote.Code != "SAVE10" {
		t.Fatalf("expected normalized code, got %s", quote.Code)
	}
}

func TestValidateFlatDiscountCappedAtSubtotal(t *testing.T) {
	repo := &stubRepo{coupons: map[string]*models.Coupon{
		"FLAT500": {Code: "FLAT500", Type: enums.CouponTypeFlat, Value: decimal.NewFromInt(500), Active: true},
	}}
	svc := newService(t, repo)

	quote, err := svc.Validate(context.Background(), "FLAT500", decimal.NewFromInt(300))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !quote.Discount.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected discount capped at 300, got %s", quote.Discount)
	}
}

func TestValidateDoesNotTouchUsage(t *testing.T) {
	repo := &stubRepo{coupons: map[string]*models.Coupon{
		"SAVE10": {Code: "SAVE10", Type: enums.CouponTypePercent, Value: decimal.NewFromInt(10), Active: true},
	}}
	svc := newService(t, repo)

	if _, err := svc.Validate(context.Background(), "SAVE10", decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if repo.saved != nil {
		t.Fatal("validate must not write coupon state")
	}
}

func TestRedeemIncrementsUsage(t *testing.T) {
	repo := &stubRepo{coupons: map[string]*models.Coupon{
		"SAVE10": {Code: "SAVE10", Type: enums.CouponTypePercent, Value: decimal.NewFromInt(10), Active: true, UsedCount: 4},
	}}
	svc := newService(t, repo)

	quote, err := svc.Redeem(context.Background(), &gorm.DB{}, "SAVE10", decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !quote.Discount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected discount 100, got %s", quote.Discount)
	}
	if repo.saved == nil || repo.saved.UsedCount != 5 {
		t.Fatalf("expected used count 5, got %+v", repo.saved)
	}
	if !repo.saved.Active {
		t.Fatal("coupon without limit must stay active")
	}
}

func TestRedeemDeactivatesAtLimit(t *testing.T) {
	repo := &stubRepo{coupons: map[string]*models.Coupon{
		"ONCE": {Code: "ONCE", Type: enums.CouponTypeFlat, Value: decimal.NewFromInt(50), Active: true, UsageLimit: intPtr(1), UsedCount: 0},
	}}
	svc := newService(t, repo)

	if _, err := svc.Redeem(context.Background(), &gorm.DB{}, "ONCE", decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if repo.saved == nil || repo.saved.UsedCount != 1 {
		t.Fatalf("expected used count 1, got %+v", repo.saved)
	}
	if repo.saved.Active {
		t.Fatal("coupon must deactivate when usage limit is reached")
	}

	// a second attempt now fails validation
	repo.coupons["ONCE"] = repo.saved
	_, err := svc.Redeem(context.Background(), &gorm.DB{}, "ONCE", decimal.NewFromInt(1000))
	expectValidation(t, err, "inactive")
}

func TestRedeemRequiresTransaction(t *testing.T) {
	svc := newService(t, &stubRepo{})
	if _, err := svc.Redeem(context.Background(), nil, "SAVE10", decimal.NewFromInt(1000)); err == nil {
		t.Fatal("expected error when transaction is missing")
	}
}

func TestCreateNormalizesAndValidates(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(t, repo)

	coupon, err := svc.Create(context.Background(), CreateInput{
		Code:  " welcome25 ",
		Type:  enums.CouponTypePercent,
		Value: decimal.NewFromInt(25),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if coupon.Code != "WELCOME25" {
		t.Fatalf("expected normalized code WELCOME25, got %s", coupon.Code)
	}
	if !coupon.Active {
		t.Fatal("new coupons must start active")
	}

	_, err = svc.Create(context.Background(), CreateInput{Code: "X", Type: "BOGUS", Value: decimal.NewFromInt(1)})
	expectValidation(t, err, "PERCENT or FLAT")

	_, err = svc.Create(context.Background(), CreateInput{Code: "X", Type: enums.CouponTypePercent, Value: decimal.NewFromInt(150)})
	expectValidation(t, err, "exceed 100")
}

func TestCreateDuplicateCodeConflicts(t *testing.T) {
	repo := &stubRepo{createErr: errors.New(`duplicate key value violates unique constraint "coupons_code_key"`)}
	svc := newService(t, repo)

	_, err := svc.Create(context.Background(), CreateInput{
		Code:  "WELCOME25",
		Type:  enums.CouponTypePercent,
		Value: decimal.NewFromInt(25),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for duplicate code, got %v", err)
	}
}

func TestDeleteMissingCoupon(t *testing.T) {
	svc := newService(t, &stubRepo{deleted: 0})
	err := svc.Delete(context.Background(), "GHOST")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
