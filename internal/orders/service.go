package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yasboss/storefront-backend/internal/audit"
	"github.com/yasboss/storefront-backend/internal/rewards"
	"github.com/yasboss/storefront-backend/internal/settings"
	"github.com/yasboss/storefront-backend/pkg/db/models"
	"github.com/yasboss/storefront-backend/pkg/enums"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
	"github.com/yasboss/storefront-backend/pkg/logger"
	"github.com/yasboss/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pointsLedger interface {
	CreditInTx(ctx context.Context, tx *gorm.DB, input rewards.Mutation) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type settingsReader interface {
	Int(ctx context.Context, key string, fallback int) int
}

type idempotencyStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Notifier is told about committed status changes. Implementations must be
// best-effort; failures are never surfaced to the caller.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, order *models.Order, previous enums.OrderStatus)
}

// TransitionInput asks for one status change on one order.
type TransitionInput struct {
	Reference string
	Target    enums.OrderStatus
	Actor     Actor
	Note      *string
}

// PaymentInput confirms payment for a pending order. PaymentRef doubles as
// the idempotency key so gateway retries cannot double-apply.
type PaymentInput struct {
	Reference  string
	PaymentRef string
	Actor      Actor
}

// ListParams narrows and pages an order listing.
type ListParams struct {
	Status string
	Email  string
	Limit  int
	Cursor string
}

// ListResult carries one page of orders plus the cursor for the next page.
type ListResult struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// Service owns the order lifecycle after checkout: reads, the status state
// machine, cancellation, support requests and payment confirmation.
type Service interface {
	Get(ctx context.Context, reference string, actor Actor) (*models.Order, error)
	ListMine(ctx context.Context, actor Actor, limit int, cursor string) (*ListResult, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	ApplyTransition(ctx context.Context, input TransitionInput) (*models.Order, error)
	Cancel(ctx context.Context, reference string, actor Actor) (*models.Order, error)
	RequestSupport(ctx context.Context, reference string, supportType enums.SupportType, actor Actor) (*models.Order, error)
	ConfirmPayment(ctx context.Context, input PaymentInput) (*models.Order, error)
	StatusCounts(ctx context.Context) (map[enums.OrderStatus]int64, error)
}

// ServiceParams collects the dependencies for NewService.
type ServiceParams struct {
	Repo           Repository
	Tx             txRunner
	Rewards        pointsLedger
	Audit          auditRecorder
	Idempotency    idempotencyStore
	IdempotencyTTL time.Duration
	Logger         *logger.Logger
	Notifier       Notifier
	Settings       settingsReader
}

type service struct {
	repo           Repository
	tx             txRunner
	rewards        pointsLedger
	audit          auditRecorder
	idempotency    idempotencyStore
	idempotencyTTL time.Duration
	logg           *logger.Logger
	notifier       Notifier
	settings       settingsReader
	now            func() time.Time
}

const defaultReturnWindowDays = 7

// NewService builds an orders service with the required dependencies.
// Notifier and Settings are optional; without Settings the return window
// stays at its default.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Rewards == nil {
		return nil, fmt.Errorf("rewards ledger required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.IdempotencyTTL <= 0 {
		params.IdempotencyTTL = 24 * time.Hour
	}
	return &service{
		repo:           params.Repo,
		tx:             params.Tx,
		rewards:        params.Rewards,
		audit:          params.Audit,
		idempotency:    params.Idempotency,
		idempotencyTTL: params.IdempotencyTTL,
		logg:           params.Logger,
		notifier:       params.Notifier,
		settings:       params.Settings,
		now:            time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, reference string, actor Actor) (*models.Order, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}

	order, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if actor.Role == enums.ActorRoleCustomer && !strings.EqualFold(order.UserEmail, actor.Email) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
	}
	return order, nil
}

func (s *service) ListMine(ctx context.Context, actor Actor, limit int, cursor string) (*ListResult, error) {
	if actor.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}

	parsed, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	rows, next, err := s.repo.ListByEmail(ctx, strings.ToLower(actor.Email), limit, parsed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return buildListResult(rows, next), nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := ListQuery{Limit: params.Limit}

	if params.Status != "" {
		status, err := enums.ParseOrderStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		query.Status = &status
	}
	if params.Email != "" {
		email := strings.ToLower(params.Email)
		query.Email = &email
	}
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
		}
		query.Cursor = parsed
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return buildListResult(rows, next), nil
}

func (s *service) ApplyTransition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.Reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", input.Target))
	}
	if !input.Actor.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	var updated *models.Order
	var previous enums.OrderStatus
	var changed bool

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByReferenceForUpdate(ctx, input.Reference)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if err := authorizeTransition(input.Actor, order, input.Target); err != nil {
			return err
		}

		// reapplying the current status is an idempotent success
		if order.Status == input.Target {
			updated = order
			return nil
		}
		if !canTransition(order.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, input.Target))
		}
		if err := s.checkSupportWindow(ctx, order, input.Actor, input.Target); err != nil {
			return err
		}

		previous = order.Status
		order.Status = input.Target
		if err := s.applySideEffects(ctx, tx, order, input.Target); err != nil {
			return err
		}

		if err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		updated = order
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.afterTransition(ctx, updated, previous, input)
	}
	return updated, nil
}

// checkSupportWindow enforces the configurable return window on customer and
// agent support requests. Admins may open requests at any time.
func (s *service) checkSupportWindow(ctx context.Context, order *models.Order, actor Actor, target enums.OrderStatus) error {
	if target != enums.OrderStatusReturnRequested && target != enums.OrderStatusReplacementRequested {
		return nil
	}
	if actor.Role == enums.ActorRoleAdmin {
		return nil
	}

	window := defaultReturnWindowDays
	if s.settings != nil {
		window = s.settings.Int(ctx, settings.KeyReturnWindowDays, defaultReturnWindowDays)
	}

	since := order.OrderDate
	if order.DeliveredAt != nil {
		since = *order.DeliveredAt
	}
	if s.now().UTC().Sub(since.UTC()) > time.Duration(window)*24*time.Hour {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("the window for returns and replacements has closed (%d days)", window))
	}
	return nil
}

// applySideEffects mutates the order for effects tied to specific targets.
// Runs inside the transition transaction, before the order is saved.
func (s *service) applySideEffects(ctx context.Context, tx *gorm.DB, order *models.Order, target enums.OrderStatus) error {
	switch target {
	case enums.OrderStatusDelivered:
		now := s.now()
		if order.DeliveredAt == nil {
			order.DeliveredAt = &now
		}
		if order.PaymentMethod == enums.PaymentMethodCOD && order.PaymentStatus == enums.PaymentStatusPending {
			order.PaymentStatus = enums.PaymentStatusCompleted
		}
		if !order.PointsCredited {
			if order.PointsToEarn > 0 {
				err := s.rewards.CreditInTx(ctx, tx, rewards.Mutation{
					Email:     order.UserEmail,
					Points:    order.PointsToEarn,
					Type:      enums.PointTxOrderEarn,
					Reference: &order.Reference,
				})
				if err != nil {
					return err
				}
			}
			order.PointsCredited = true
		}

	case enums.OrderStatusCancelled:
		if order.PointsUsed > 0 {
			err := s.rewards.CreditInTx(ctx, tx, rewards.Mutation{
				Email:     order.UserEmail,
				Points:    order.PointsUsed,
				Type:      enums.PointTxCancelRefund,
				Reference: &order.Reference,
			})
			if err != nil {
				return err
			}
		}
		if order.PaymentStatus == enums.PaymentStatusCompleted {
			order.RefundStatus = enums.RefundStatusPending
		}

	case enums.OrderStatusReturnRequested:
		order.RefundStatus = enums.RefundStatusPending

	case enums.OrderStatusReturnRejected:
		order.RefundStatus = enums.RefundStatusRejected
	}

	return nil
}

// afterTransition runs the best-effort hooks once the transaction has
// committed.
func (s *service) afterTransition(ctx context.Context, order *models.Order, previous enums.OrderStatus, input TransitionInput) {
	message := fmt.Sprintf("order %s moved %s -> %s", order.Reference, previous, order.Status)
	if input.Note != nil && *input.Note != "" {
		message = message + ": " + *input.Note
	}
	s.audit.Record(ctx, audit.Entry{
		Kind:      audit.KindOrderTransition,
		Message:   message,
		ActorID:   input.Actor.Email,
		ActorRole: string(input.Actor.Role),
	})

	ctx = s.logg.WithOrderRef(ctx, order.Reference)
	s.logg.Info(ctx, message)

	if s.notifier != nil {
		s.notifier.OrderStatusChanged(ctx, order, previous)
	}
}

func (s *service) Cancel(ctx context.Context, reference string, actor Actor) (*models.Order, error) {
	return s.ApplyTransition(ctx, TransitionInput{
		Reference: reference,
		Target:    enums.OrderStatusCancelled,
		Actor:     actor,
	})
}

func (s *service) RequestSupport(ctx context.Context, reference string, supportType enums.SupportType, actor Actor) (*models.Order, error) {
	var target enums.OrderStatus
	switch supportType {
	case enums.SupportTypeReturn:
		target = enums.OrderStatusReturnRequested
	case enums.SupportTypeReplacement:
		target = enums.OrderStatusReplacementRequested
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "support type must be RETURN or REPLACEMENT")
	}

	order, err := s.ApplyTransition(ctx, TransitionInput{
		Reference: reference,
		Target:    target,
		Actor:     actor,
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Kind:      audit.KindSupportRequested,
		Message:   fmt.Sprintf("order %s: %s requested", order.Reference, supportType),
		ActorID:   actor.Email,
		ActorRole: string(actor.Role),
	})
	return order, nil
}

func (s *service) ConfirmPayment(ctx context.Context, input PaymentInput) (*models.Order, error) {
	if input.Reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}
	if input.PaymentRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}
	switch input.Actor.Role {
	case enums.ActorRoleAdmin, enums.ActorRoleAgent:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot confirm payments")
	}

	key := s.idempotency.IdempotencyKey("payments", input.PaymentRef)
	acquired, err := s.idempotency.SetNX(ctx, key, input.Reference, s.idempotencyTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency check")
	}
	if !acquired {
		// gateway retry; report the current state without reapplying
		return s.Get(ctx, input.Reference, input.Actor)
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByReferenceForUpdate(ctx, input.Reference)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if order.Status == enums.OrderStatusPaid && order.PaymentRef != nil && *order.PaymentRef == input.PaymentRef {
			updated = order
			return nil
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot confirm payment for order in status %s", order.Status))
		}

		order.Status = enums.OrderStatusPaid
		order.PaymentStatus = enums.PaymentStatusCompleted
		order.PaymentRef = &input.PaymentRef
		if err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		updated = order
		return nil
	})
	if err != nil {
		// release the key so the gateway can retry after a transient failure
		if delErr := s.idempotency.Del(ctx, key); delErr != nil {
			s.logg.Warn(ctx, fmt.Sprintf("release payment idempotency key: %v", delErr))
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Kind:      audit.KindPaymentConfirmed,
		Message:   fmt.Sprintf("order %s payment confirmed (%s)", updated.Reference, input.PaymentRef),
		ActorID:   input.Actor.Email,
		ActorRole: string(input.Actor.Role),
	})
	return updated, nil
}

func (s *service) StatusCounts(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	return counts, nil
}

func buildListResult(rows []models.Order, next *pagination.Cursor) *ListResult {
	result := &ListResult{Orders: rows}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result
}
