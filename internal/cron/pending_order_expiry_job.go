package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/yasboss/storefront-backend/internal/orders"
	"github.com/yasboss/storefront-backend/pkg/db/models"
	"github.com/yasboss/storefront-backend/pkg/enums"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

const expiryActorID = "system-cron"

type pendingOrderReader interface {
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

type orderCanceller interface {
	Cancel(ctx context.Context, reference string, actor orders.Actor) (*models.Order, error)
}

// PendingOrderExpiryJobParams configure the stale order sweeper.
type PendingOrderExpiryJobParams struct {
	Logger *logger.Logger
	Reader pendingOrderReader
	Orders orderCanceller
	TTL    time.Duration
}

// NewPendingOrderExpiryJob builds the cron job that cancels orders left
// unpaid past the configured TTL. Cancellation runs through the normal
// lifecycle, so spent points are refunded on the way out.
func NewPendingOrderExpiryJob(params PendingOrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("pending orders reader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order canceller required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("pending order ttl must be positive")
	}
	return &pendingOrderExpiryJob{
		logg:   params.Logger,
		reader: params.Reader,
		orders: params.Orders,
		ttl:    params.TTL,
		now:    time.Now,
	}, nil
}

type pendingOrderExpiryJob struct {
	logg   *logger.Logger
	reader pendingOrderReader
	orders orderCanceller
	ttl    time.Duration
	now    func() time.Time
}

func (j *pendingOrderExpiryJob) Name() string { return "pending-order-expiry" }

func (j *pendingOrderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.reader.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	actor := orders.Actor{Email: expiryActorID, Role: enums.ActorRoleAdmin}
	cancelled := 0
	var errs error
	for _, order := range stale {
		if _, err := j.orders.Cancel(ctx, order.Reference, actor); err != nil {
			// a payment or webhook may have advanced the order since the query
			if pkgerrors.CodeOf(err) == pkgerrors.CodeStateConflict {
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("cancel %s: %w", order.Reference, err))
			continue
		}
		cancelled++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"stale": len(stale), "cancelled": cancelled})
	j.logg.Info(logCtx, "pending order expiry sweep complete")
	return errs
}
