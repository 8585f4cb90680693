package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yasboss/storefront-backend/pkg/config"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

// Well-known setting keys. The settings table overrides the env defaults;
// a missing row falls back to config.
const (
	KeyTaxPercent            = "TAX_PERCENT"
	KeyFreeDeliveryThreshold = "FREE_DELIVERY_THRESHOLD"
	KeyDeliveryFee           = "DELIVERY_FEE"
	KeyPointRedeemRate       = "POINT_REDEEM_RATE"
	KeyReturnWindowDays      = "RETURN_WINDOW_DAYS"
	KeyPendingOrderTTLHours  = "PENDING_ORDER_TTL_HOURS"
)

const cacheScope = "settings"

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(scope, id string) string
}

// Pricing is the resolved set of checkout tunables in effect right now.
type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	DeliveryFee           decimal.Decimal
	TaxPercent            decimal.Decimal
	PointRedeemRate       decimal.Decimal
}

// Service resolves settings with a read-through cache in front of the table.
type Service interface {
	Value(ctx context.Context, key, fallback string) string
	Decimal(ctx context.Context, key, fallback string) decimal.Decimal
	Int(ctx context.Context, key string, fallback int) int
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context) ([]Entry, error)
	Pricing(ctx context.Context) Pricing
}

// Entry is one settings row as exposed by the admin API.
type Entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type service struct {
	repo     Repository
	cache    cacheStore
	defaults config.CheckoutConfig
	ttl      time.Duration
	logg     *logger.Logger
}

// NewService builds a settings service with the required dependencies.
func NewService(repo Repository, cache cacheStore, defaults config.CheckoutConfig, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &service{repo: repo, cache: cache, defaults: defaults, ttl: ttl, logg: logg}, nil
}

func (s *service) Value(ctx context.Context, key, fallback string) string {
	cacheKey := s.cache.CacheKey(cacheScope, key)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		return cached
	}

	resolved := fallback
	row, err := s.repo.Find(ctx, key)
	switch {
	case err == nil:
		resolved = row.Value
	case errors.Is(err, gorm.ErrRecordNotFound):
		// keep the fallback
	default:
		s.logg.Warn(ctx, fmt.Sprintf("settings lookup failed for %s: %v", key, err))
		return fallback
	}

	if err := s.cache.Set(ctx, cacheKey, resolved, s.ttl); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("settings cache write failed for %s: %v", key, err))
	}
	return resolved
}

func (s *service) Decimal(ctx context.Context, key, fallback string) decimal.Decimal {
	raw := s.Value(ctx, key, fallback)
	d, err := decimal.NewFromString(raw)
	if err == nil {
		return d
	}
	s.logg.Warn(ctx, fmt.Sprintf("setting %s has non-numeric value %q, using fallback", key, raw))
	d, err = decimal.NewFromString(fallback)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (s *service) Int(ctx context.Context, key string, fallback int) int {
	raw := s.Value(ctx, key, strconv.Itoa(fallback))
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("setting %s has non-integer value %q, using fallback", key, raw))
		return fallback
	}
	return n
}

func (s *service) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "setting key required")
	}
	if err := s.repo.Upsert(ctx, key, value); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store setting")
	}
	if err := s.cache.Del(ctx, s.cache.CacheKey(cacheScope, key)); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("settings cache invalidation failed for %s: %v", key, err))
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list settings")
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{Key: row.Key, Value: row.Value, UpdatedAt: row.UpdatedAt})
	}
	return entries, nil
}

func (s *service) Pricing(ctx context.Context) Pricing {
	return Pricing{
		FreeShippingThreshold: s.Decimal(ctx, KeyFreeDeliveryThreshold, s.defaults.FreeShippingThreshold),
		DeliveryFee:           s.Decimal(ctx, KeyDeliveryFee, s.defaults.DeliveryFee),
		TaxPercent:            s.Decimal(ctx, KeyTaxPercent, s.defaults.TaxPercent),
		PointRedeemRate:       s.Decimal(ctx, KeyPointRedeemRate, s.defaults.PointRedeemRate),
	}
}
