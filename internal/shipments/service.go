package shipments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yasboss/storefront-backend/internal/orders"
	"github.com/yasboss/storefront-backend/pkg/db/models"
	"github.com/yasboss/storefront-backend/pkg/enums"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
	"github.com/yasboss/storefront-backend/pkg/logger"
	"github.com/yasboss/storefront-backend/pkg/metrics"
)

const carrierActorID = "carrier-webhook"

type orderStore interface {
	FindByTrackingID(ctx context.Context, trackingID string) (*models.Order, error)
	FindByReference(ctx context.Context, reference string) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
}

type orderTransitioner interface {
	ApplyTransition(ctx context.Context, input orders.TransitionInput) (*models.Order, error)
}

// CarrierEvent is one normalized webhook payload from the carrier.
type CarrierEvent struct {
	Waybill     string
	Carrier     string
	Status      string
	Location    string
	Remark      string
	At          time.Time
	EstimatedAt *time.Time
	FromCity    string
	ToCity      string
}

// ReconcileResult reports what one carrier event did.
type ReconcileResult struct {
	Outcome     string
	OrderRef    string
	OrderStatus enums.OrderStatus
}

// TrackingDetails is the customer-facing view of a shipment.
type TrackingDetails struct {
	Tracking *models.ShipmentTracking `json:"tracking"`
	Logs     []models.ShipmentLog     `json:"logs"`
	Progress int                      `json:"progress"`
}

// AssignInput links a carrier waybill and delivery agent to an order. The
// webhook path can only match events to orders once this has run.
type AssignInput struct {
	OrderRef    string
	Waybill     string
	Carrier     string
	TrackingURL string
	AgentName   string
	AgentPhone  string
	EstimatedAt *time.Time
	Actor       orders.Actor
}

// Service reconciles carrier events into shipment state and order
// transitions, and serves tracking reads.
type Service interface {
	Reconcile(ctx context.Context, event CarrierEvent) (*ReconcileResult, error)
	AssignWaybill(ctx context.Context, input AssignInput) (*models.ShipmentTracking, error)
	TrackByOrderRef(ctx context.Context, orderRef string) (*TrackingDetails, error)
	StatusCounts(ctx context.Context) (map[string]int64, error)
}

// ServiceParams collects the dependencies for NewService.
type ServiceParams struct {
	Repo    Repository
	Orders  orderStore
	Applier orderTransitioner
	Logger  *logger.Logger
	Metrics *metrics.WebhookMetrics
}

type service struct {
	repo    Repository
	orders  orderStore
	applier orderTransitioner
	logg    *logger.Logger
	metrics *metrics.WebhookMetrics
	now     func() time.Time
}

// NewService builds a shipments service with the required dependencies.
// Metrics may be nil.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("shipments repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.Applier == nil {
		return nil, fmt.Errorf("order transitioner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		orders:  params.Orders,
		applier: params.Applier,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

// mapCarrierStatus translates the carrier's vocabulary into the order
// lifecycle. Unrecognized statuses are log-only.
func mapCarrierStatus(raw string) (enums.OrderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "out for delivery":
		return enums.OrderStatusDispatched, true
	case "shipped", "in transit":
		return enums.OrderStatusShipped, true
	case "delivered":
		return enums.OrderStatusDelivered, true
	case "cancelled", "canceled":
		return enums.OrderStatusCancelled, true
	}
	return "", false
}

func (s *service) Reconcile(ctx context.Context, event CarrierEvent) (*ReconcileResult, error) {
	waybill := strings.TrimSpace(event.Waybill)
	if waybill == "" {
		s.metrics.IncOutcome(metrics.WebhookOutcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "waybill required")
	}
	if strings.TrimSpace(event.Status) == "" {
		s.metrics.IncOutcome(metrics.WebhookOutcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier status required")
	}
	s.metrics.IncReceived(event.Status)

	ctx = s.logg.WithWaybill(ctx, waybill)

	tracking, err := s.resolveTracking(ctx, waybill, event)
	if err != nil {
		return nil, err
	}
	if tracking == nil {
		// carrier sent an event for a waybill we never issued
		s.logg.Warn(ctx, fmt.Sprintf("dropping carrier event for unknown waybill (status %q)", event.Status))
		s.metrics.IncOutcome(metrics.WebhookOutcomeDropped)
		return &ReconcileResult{Outcome: metrics.WebhookOutcomeDropped}, nil
	}

	eventAt := event.At
	if eventAt.IsZero() {
		eventAt = s.now().UTC()
	}

	// every event appends a log row, replays included
	log := &models.ShipmentLog{
		ID:            uuid.New(),
		WaybillNumber: waybill,
		Status:        strings.TrimSpace(event.Status),
		EventAt:       eventAt,
	}
	if event.Location != "" {
		log.Location = &event.Location
	}
	if event.Remark != "" {
		log.Detail = &event.Remark
	}
	if err := s.repo.AppendLog(ctx, log); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append shipment log")
	}

	tracking.Status = strings.TrimSpace(event.Status)
	tracking.LastEventAt = &eventAt
	if event.Location != "" {
		tracking.CurrentLocation = &event.Location
	}
	if event.EstimatedAt != nil {
		tracking.EstimatedAt = event.EstimatedAt
	}
	if err := s.repo.Save(ctx, tracking); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipment tracking")
	}

	result := &ReconcileResult{OrderRef: tracking.OrderRef}

	target, known := mapCarrierStatus(event.Status)
	if !known {
		s.logg.Info(ctx, fmt.Sprintf("carrier status %q not mapped, log-only", event.Status))
		result.Outcome = metrics.WebhookOutcomeNoop
		s.metrics.IncOutcome(result.Outcome)
		return result, nil
	}

	order, err := s.orders.FindByReference(ctx, tracking.OrderRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(ctx, fmt.Sprintf("tracking %s points at missing order %s", waybill, tracking.OrderRef))
			result.Outcome = metrics.WebhookOutcomeDropped
			s.metrics.IncOutcome(result.Outcome)
			return result, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	result.OrderStatus = order.Status

	// replays and regressions leave the order alone
	if order.Status == target || (target.ShipmentRank() > 0 && order.Status.ShipmentRank() >= target.ShipmentRank()) {
		result.Outcome = metrics.WebhookOutcomeNoop
		s.metrics.IncOutcome(result.Outcome)
		return result, nil
	}

	updated, err := s.applier.ApplyTransition(ctx, orders.TransitionInput{
		Reference: tracking.OrderRef,
		Target:    target,
		Actor:     orders.Actor{Email: carrierActorID, Role: enums.ActorRoleCarrier},
	})
	if err != nil {
		// the lifecycle or role refused the move; the log row still stands
		code := pkgerrors.CodeOf(err)
		if code == pkgerrors.CodeStateConflict || code == pkgerrors.CodeForbidden {
			s.logg.Info(ctx, fmt.Sprintf("carrier event did not move order %s: %v", tracking.OrderRef, err))
			result.Outcome = metrics.WebhookOutcomeNoop
			s.metrics.IncOutcome(result.Outcome)
			return result, nil
		}
		return nil, err
	}

	result.Outcome = metrics.WebhookOutcomeApplied
	result.OrderStatus = updated.Status
	s.metrics.IncOutcome(result.Outcome)
	return result, nil
}

// resolveTracking finds the tracking row for a waybill, creating it from the
// order when the carrier reports before the first local write.
func (s *service) resolveTracking(ctx context.Context, waybill string, event CarrierEvent) (*models.ShipmentTracking, error) {
	tracking, err := s.repo.FindByWaybill(ctx, waybill)
	if err == nil {
		return tracking, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment tracking")
	}

	order, err := s.orders.FindByTrackingID(ctx, waybill)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "match waybill to order")
	}

	carrier := strings.TrimSpace(event.Carrier)
	if carrier == "" {
		carrier = "unknown"
	}
	tracking = &models.ShipmentTracking{
		ID:            uuid.New(),
		OrderRef:      order.Reference,
		WaybillNumber: waybill,
		Carrier:       carrier,
		Status:        strings.TrimSpace(event.Status),
	}
	if event.FromCity != "" {
		tracking.FromCity = &event.FromCity
	}
	if event.ToCity != "" {
		tracking.ToCity = &event.ToCity
	}
	if err := s.repo.Create(ctx, tracking); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment tracking")
	}
	return tracking, nil
}

// AssignWaybill stamps the order with the carrier's waybill and agent
// details and opens the tracking row. The order write and the tracking write
// do not share a transaction; resolveTracking recreates a missing tracking
// row from the order, so a failure between the two heals on the next event.
func (s *service) AssignWaybill(ctx context.Context, input AssignInput) (*models.ShipmentTracking, error) {
	ref := strings.TrimSpace(input.OrderRef)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}
	waybill := strings.TrimSpace(input.Waybill)
	if waybill == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "waybill required")
	}
	switch input.Actor.Role {
	case enums.ActorRoleAdmin, enums.ActorRoleAgent:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot assign waybills")
	}

	ctx = s.logg.WithWaybill(s.logg.WithOrderRef(ctx, ref), waybill)

	order, err := s.orders.FindByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if existing, err := s.repo.FindByWaybill(ctx, waybill); err == nil {
		if existing.OrderRef != order.Reference {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("waybill %s already belongs to order %s", waybill, existing.OrderRef))
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment tracking")
	}

	order.TrackingID = &waybill
	if input.TrackingURL != "" {
		order.TrackingURL = &input.TrackingURL
	}
	if input.AgentName != "" {
		order.AgentName = &input.AgentName
	}
	if input.AgentPhone != "" {
		order.AgentPhone = &input.AgentPhone
	}
	if input.EstimatedAt != nil {
		order.EstimatedDelivery = input.EstimatedAt
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}

	carrier := strings.TrimSpace(input.Carrier)
	if carrier == "" {
		carrier = "unknown"
	}

	tracking, err := s.repo.FindByOrderRef(ctx, order.Reference)
	switch {
	case err == nil:
		// relabelled shipment, keep the row and move it to the new waybill
		tracking.WaybillNumber = waybill
		tracking.Carrier = carrier
		if input.EstimatedAt != nil {
			tracking.EstimatedAt = input.EstimatedAt
		}
		if err := s.repo.Save(ctx, tracking); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipment tracking")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		tracking = &models.ShipmentTracking{
			ID:            uuid.New(),
			OrderRef:      order.Reference,
			WaybillNumber: waybill,
			Carrier:       carrier,
			Status:        "manifested",
			EstimatedAt:   input.EstimatedAt,
		}
		if err := s.repo.Create(ctx, tracking); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment tracking")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment tracking")
	}

	s.logg.Info(ctx, fmt.Sprintf("waybill assigned to order %s", order.Reference))
	return tracking, nil
}

func (s *service) TrackByOrderRef(ctx context.Context, orderRef string) (*TrackingDetails, error) {
	if strings.TrimSpace(orderRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}

	tracking, err := s.repo.FindByOrderRef(ctx, orderRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no shipment for order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment tracking")
	}

	logs, err := s.repo.ListLogs(ctx, tracking.WaybillNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipment logs")
	}

	return &TrackingDetails{
		Tracking: tracking,
		Logs:     logs,
		Progress: progressFor(tracking.Status),
	}, nil
}

func (s *service) StatusCounts(ctx context.Context) (map[string]int64, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count shipments")
	}
	return counts, nil
}

// progressFor maps a carrier status to a rough delivery percentage for the
// tracking UI.
func progressFor(status string) int {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "manifested", "pickup scheduled":
		return 10
	case "out for delivery":
		return 80
	case "shipped", "in transit":
		return 50
	case "delivered":
		return 100
	default:
		return 0
	}
}
