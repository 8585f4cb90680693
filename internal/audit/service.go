package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yasboss/storefront-backend/pkg/db/models"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

// Entry kinds recorded by the order lifecycle.
const (
	KindOrderPlaced      = "order.placed"
	KindOrderTransition  = "order.transition"
	KindOrderCancelled   = "order.cancelled"
	KindSupportRequested = "order.support_requested"
	KindPaymentConfirmed = "order.payment_confirmed"
	KindCouponRedeemed   = "coupon.redeemed"
	KindShipmentEvent    = "shipment.event"
)

// Entry is one audit record. Level defaults to info.
type Entry struct {
	Kind      string
	Message   string
	ActorID   string
	ActorRole string
	Level     string
}

// Recorder persists audit entries. Failures are logged and swallowed so an
// audit outage never rolls back the operation being audited.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

type recorder struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewRecorder builds an audit recorder bound to the provided DB.
func NewRecorder(db *gorm.DB, logg *logger.Logger) (Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &recorder{db: db, logg: logg}, nil
}

func (r *recorder) Record(ctx context.Context, entry Entry) {
	if entry.Level == "" {
		entry.Level = "info"
	}
	row := models.AuditLog{
		ID:        uuid.New(),
		Kind:      entry.Kind,
		Message:   entry.Message,
		ActorID:   entry.ActorID,
		ActorRole: entry.ActorRole,
		Level:     entry.Level,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		r.logg.Warn(ctx, fmt.Sprintf("audit write failed for %s: %v", entry.Kind, err))
	}
}
