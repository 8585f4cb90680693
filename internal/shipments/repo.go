package shipments

import (
	"context"

	"gorm.io/gorm"

	"github.com/yasboss/storefront-backend/pkg/db/models"
)

// Repository provides access to shipment tracking rows and their logs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByWaybill(ctx context.Context, waybill string) (*models.ShipmentTracking, error)
	FindByOrderRef(ctx context.Context, orderRef string) (*models.ShipmentTracking, error)
	Create(ctx context.Context, tracking *models.ShipmentTracking) error
	Save(ctx context.Context, tracking *models.ShipmentTracking) error
	AppendLog(ctx context.Context, log *models.ShipmentLog) error
	ListLogs(ctx context.Context, waybill string) ([]models.ShipmentLog, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a shipments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByWaybill(ctx context.Context, waybill string) (*models.ShipmentTracking, error) {
	var row models.ShipmentTracking
	err := r.db.WithContext(ctx).Where("waybill_number = ?", waybill).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindByOrderRef(ctx context.Context, orderRef string) (*models.ShipmentTracking, error) {
	var row models.ShipmentTracking
	err := r.db.WithContext(ctx).Where("order_ref = ?", orderRef).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) Create(ctx context.Context, tracking *models.ShipmentTracking) error {
	return r.db.WithContext(ctx).Create(tracking).Error
}

func (r *repository) Save(ctx context.Context, tracking *models.ShipmentTracking) error {
	return r.db.WithContext(ctx).Save(tracking).Error
}

func (r *repository) AppendLog(ctx context.Context, log *models.ShipmentLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repository) ListLogs(ctx context.Context, waybill string) ([]models.ShipmentLog, error) {
	var rows []models.ShipmentLog
	err := r.db.WithContext(ctx).
		Where("waybill_number = ?", waybill).
		Order("event_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.ShipmentTracking{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, item := range rows {
		counts[item.Status] = item.Count
	}
	return counts, nil
}
