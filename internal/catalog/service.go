package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

const cacheScope = "catalog"

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(scope, id string) string
}

// Snapshot is the immutable view of a product the checkout copies onto an
// order item. Prices come from here, never from the client.
type Snapshot struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageURL  *string         `json:"image_url,omitempty"`
	Active    bool            `json:"active"`
}

// Service resolves product snapshots with a per-product TTL cache.
type Service interface {
	Snapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Snapshot, error)
	ListActive(ctx context.Context) ([]Snapshot, error)
}

type service struct {
	repo  Repository
	cache cacheStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo Repository, cache cacheStore, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &service{repo: repo, cache: cache, ttl: ttl, logg: logg}, nil
}

func (s *service) Snapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Snapshot, error) {
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one product id required")
	}

	out := make(map[uuid.UUID]Snapshot, len(ids))
	missing := make([]uuid.UUID, 0, len(ids))

	for _, id := range ids {
		if _, seen := out[id]; seen {
			continue
		}
		cached, err := s.cache.Get(ctx, s.cache.CacheKey(cacheScope, id.String()))
		if err != nil {
			missing = append(missing, id)
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal([]byte(cached), &snap); err != nil {
			missing = append(missing, id)
			continue
		}
		out[id] = snap
	}

	if len(missing) > 0 {
		rows, err := s.repo.FindByIDs(ctx, missing)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		for _, row := range rows {
			snap := Snapshot{
				ProductID: row.ID,
				Name:      row.Name,
				UnitPrice: row.Price,
				ImageURL:  row.ImageURL,
				Active:    row.Active,
			}
			out[row.ID] = snap
			s.cacheSnapshot(ctx, snap)
		}
	}

	return out, nil
}

func (s *service) ListActive(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	snaps := make([]Snapshot, 0, len(rows))
	for _, row := range rows {
		snaps = append(snaps, Snapshot{
			ProductID: row.ID,
			Name:      row.Name,
			UnitPrice: row.Price,
			ImageURL:  row.ImageURL,
			Active:    row.Active,
		})
	}
	return snaps, nil
}

func (s *service) cacheSnapshot(ctx context.Context, snap Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	key := s.cache.CacheKey(cacheScope, snap.ProductID.String())
	if err := s.cache.Set(ctx, key, string(payload), s.ttl); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("catalog cache write failed for %s: %v", snap.ProductID, err))
	}
}
