package orders

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yasboss/storefront-backend/pkg/db/models"
	"github.com/yasboss/storefront-backend/pkg/enums"
	"github.com/yasboss/storefront-backend/pkg/pagination"
)

// ListQuery narrows an admin order listing.
type ListQuery struct {
	Status *enums.OrderStatus
	Email  *string
	Limit  int
	Cursor *pagination.Cursor
}

// Repository provides access to orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Save(ctx context.Context, order *models.Order) error
	FindByReference(ctx context.Context, reference string) (*models.Order, error)
	FindByReferenceForUpdate(ctx context.Context, reference string) (*models.Order, error)
	FindByTrackingID(ctx context.Context, trackingID string) (*models.Order, error)
	ListByEmail(ctx context.Context, email string, limit int, cursor *pagination.Cursor) ([]models.Order, *pagination.Cursor, error)
	List(ctx context.Context, query ListQuery) ([]models.Order, *pagination.Cursor, error)
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Save(order).Error
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("reference = ?", reference).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByReferenceForUpdate(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference = ?", reference).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByTrackingID(ctx context.Context, trackingID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("tracking_id = ?", trackingID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByEmail(ctx context.Context, email string, limit int, cursor *pagination.Cursor) ([]models.Order, *pagination.Cursor, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_email = ?", email)
	return r.page(ctx, q, limit, cursor)
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.Order, *pagination.Cursor, error) {
	q := r.db.WithContext(ctx).Preload("Items")
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	if query.Email != nil {
		q = q.Where("user_email = ?", *query.Email)
	}
	return r.page(ctx, q, query.Limit, query.Cursor)
}

// page applies keyset pagination over (created_at, id) descending.
func (r *repository) page(ctx context.Context, q *gorm.DB, limit int, cursor *pagination.Cursor) ([]models.Order, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(limit)

	if cursor != nil {
		q = q.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(normalized + 1).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(rows) > normalized {
		rows = rows[:normalized]
		last := rows[len(rows)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return rows, next, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	type row struct {
		Status enums.OrderStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[enums.OrderStatus]int64, len(rows))
	for _, item := range rows {
		counts[item.Status] = item.Count
	}
	return counts, nil
}

func (r *repository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.OrderStatusPending).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
