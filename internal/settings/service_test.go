package settings

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yasboss/storefront-backend/pkg/config"
	"github.com/yasboss/storefront-backend/pkg/db/models"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

type stubRepo struct {
	rows    map[string]string
	findErr error
	upserts map[string]string
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Find(ctx context.Context, key string) (*models.Setting, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	value, ok := s.rows[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Setting{Key: key, Value: value}, nil
}

func (s *stubRepo) Upsert(ctx context.Context, key, value string) error {
	if s.upserts == nil {
		s.upserts = map[string]string{}
	}
	s.upserts[key] = value
	return nil
}

func (s *stubRepo) List(ctx context.Context) ([]models.Setting, error) {
	var out []models.Setting
	for k, v := range s.rows {
		out = append(out, models.Setting{Key: k, Value: v})
	}
	return out, nil
}

type stubCache struct {
	values  map[string]string
	sets    map[string]string
	deleted []string
}

func (s *stubCache) Get(ctx context.Context, key string) (string, error) {
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("cache miss")
}

func (s *stubCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s.sets == nil {
		s.sets = map[string]string{}
	}
	s.sets[key] = fmt.Sprint(value)
	return nil
}

func (s *stubCache) Del(ctx context.Context, keys ...string) error {
	s.deleted = append(s.deleted, keys...)
	return nil
}

func (s *stubCache) CacheKey(scope, id string) string {
	return "yb:cache:" + scope + ":" + id
}

func newTestService(t *testing.T, repo Repository, cache cacheStore) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "settings-test"})
	svc, err := NewService(repo, cache, config.CheckoutConfig{
		FreeShippingThreshold: "500",
		DeliveryFee:           "49",
		TaxPercent:            "0",
		PointRedeemRate:       "1",
	}, time.Minute, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func TestValuePrefersTableOverFallback(t *testing.T) {
	repo := &stubRepo{rows: map[string]string{KeyDeliveryFee: "99"}}
	cache := &stubCache{}
	svc := newTestService(t, repo, cache)

	got := svc.Value(context.Background(), KeyDeliveryFee, "49")
	if got != "99" {
		t.Fatalf("expected table value 99, got %s", got)
	}
	if cache.sets["yb:cache:settings:DELIVERY_FEE"] != "99" {
		t.Fatalf("expected resolved value cached, got %v", cache.sets)
	}
}

func TestValueFallsBackWhenRowMissing(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, &stubCache{})

	got := svc.Value(context.Background(), KeyDeliveryFee, "49")
	if got != "49" {
		t.Fatalf("expected fallback 49, got %s", got)
	}
}

func TestValueServedFromCacheWithoutRepoHit(t *testing.T) {
	repo := &stubRepo{findErr: fmt.Errorf("repo should not be called")}
	cache := &stubCache{values: map[string]string{"yb:cache:settings:TAX_PERCENT": "18"}}
	svc := newTestService(t, repo, cache)

	got := svc.Value(context.Background(), KeyTaxPercent, "0")
	if got != "18" {
		t.Fatalf("expected cached 18, got %s", got)
	}
}

func TestDecimalFallsBackOnGarbage(t *testing.T) {
	repo := &stubRepo{rows: map[string]string{KeyTaxPercent: "not-a-number"}}
	svc := newTestService(t, repo, &stubCache{})

	got := svc.Decimal(context.Background(), KeyTaxPercent, "5")
	if !got.Equal(decimalFromString(t, "5")) {
		t.Fatalf("expected fallback 5, got %s", got)
	}
}

func TestSetInvalidatesCache(t *testing.T) {
	repo := &stubRepo{}
	cache := &stubCache{}
	svc := newTestService(t, repo, cache)

	if err := svc.Set(context.Background(), KeyReturnWindowDays, "14"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if repo.upserts[KeyReturnWindowDays] != "14" {
		t.Fatalf("expected upsert, got %v", repo.upserts)
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != "yb:cache:settings:RETURN_WINDOW_DAYS" {
		t.Fatalf("expected cache invalidation, got %v", cache.deleted)
	}
}

func TestSetRejectsEmptyKey(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, &stubCache{})
	if err := svc.Set(context.Background(), "", "x"); err == nil {
		t.Fatal("expected validation error for empty key")
	}
}

func TestPricingResolvesAllKeys(t *testing.T) {
	repo := &stubRepo{rows: map[string]string{
		KeyFreeDeliveryThreshold: "1000",
		KeyTaxPercent:            "18",
	}}
	svc := newTestService(t, repo, &stubCache{})

	pricing := svc.Pricing(context.Background())
	if !pricing.FreeShippingThreshold.Equal(decimalFromString(t, "1000")) {
		t.Fatalf("expected threshold 1000, got %s", pricing.FreeShippingThreshold)
	}
	if !pricing.TaxPercent.Equal(decimalFromString(t, "18")) {
		t.Fatalf("expected tax 18, got %s", pricing.TaxPercent)
	}
	if !pricing.DeliveryFee.Equal(decimalFromString(t, "49")) {
		t.Fatalf("expected delivery fee fallback 49, got %s", pricing.DeliveryFee)
	}
	if !pricing.PointRedeemRate.Equal(decimalFromString(t, "1")) {
		t.Fatalf("expected redeem rate fallback 1, got %s", pricing.PointRedeemRate)
	}
}
