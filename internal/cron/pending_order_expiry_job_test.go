package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yasboss/storefront-backend/internal/orders"
	"github.com/yasboss/storefront-backend/pkg/db/models"
	"github.com/yasboss/storefront-backend/pkg/enums"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

type stubPendingReader struct {
	orders []models.Order
	cutoff time.Time
	err    error
}

func (s *stubPendingReader) ListPendingBefore(_ context.Context, cutoff time.Time) ([]models.Order, error) {
	s.cutoff = cutoff
	if s.err != nil {
		return nil, s.err
	}
	return s.orders, nil
}

type stubCanceller struct {
	cancelled []string
	errByRef  map[string]error
	actor     orders.Actor
}

func (s *stubCanceller) Cancel(_ context.Context, reference string, actor orders.Actor) (*models.Order, error) {
	s.actor = actor
	if err := s.errByRef[reference]; err != nil {
		return nil, err
	}
	s.cancelled = append(s.cancelled, reference)
	return &models.Order{Reference: reference, Status: enums.OrderStatusCancelled}, nil
}

func pendingOrder(reference string) models.Order {
	return models.Order{ID: uuid.New(), Reference: reference, Status: enums.OrderStatusPending}
}

func newExpiryJob(t *testing.T, reader *stubPendingReader, canceller *stubCanceller, ttl time.Duration) Job {
	t.Helper()
	job, err := NewPendingOrderExpiryJob(PendingOrderExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
		Reader: reader,
		Orders: canceller,
		TTL:    ttl,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	return job
}

func TestExpiryJobCancelsStaleOrders(t *testing.T) {
	reader := &stubPendingReader{orders: []models.Order{pendingOrder("YB-AAAA1111"), pendingOrder("YB-BBBB2222")}}
	canceller := &stubCanceller{}
	job := newExpiryJob(t, reader, canceller, 72*time.Hour)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if len(canceller.cancelled) != 2 {
		t.Fatalf("expected 2 cancellations, got %d", len(canceller.cancelled))
	}
	if canceller.actor.Role != enums.ActorRoleAdmin {
		t.Fatalf("expected admin actor, got %s", canceller.actor.Role)
	}
	if age := time.Since(reader.cutoff); age < 71*time.Hour || age > 73*time.Hour {
		t.Fatalf("cutoff not roughly ttl in the past: %s", reader.cutoff)
	}
}

func TestExpiryJobSkipsOrdersThatAdvanced(t *testing.T) {
	reader := &stubPendingReader{orders: []models.Order{pendingOrder("YB-AAAA1111"), pendingOrder("YB-BBBB2222")}}
	canceller := &stubCanceller{errByRef: map[string]error{
		"YB-AAAA1111": pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move order from PAID to CANCELLED"),
	}}
	job := newExpiryJob(t, reader, canceller, 72*time.Hour)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("state conflicts must not fail the sweep: %v", err)
	}
	if len(canceller.cancelled) != 1 || canceller.cancelled[0] != "YB-BBBB2222" {
		t.Fatalf("expected only the still-pending order cancelled, got %v", canceller.cancelled)
	}
}

func TestExpiryJobAggregatesFailuresAndContinues(t *testing.T) {
	reader := &stubPendingReader{orders: []models.Order{pendingOrder("YB-AAAA1111"), pendingOrder("YB-BBBB2222")}}
	canceller := &stubCanceller{errByRef: map[string]error{
		"YB-AAAA1111": errors.New("db down"),
	}}
	job := newExpiryJob(t, reader, canceller, 72*time.Hour)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatalf("expected aggregated failure")
	}
	if len(canceller.cancelled) != 1 {
		t.Fatalf("expected sweep to continue past the failure, got %v", canceller.cancelled)
	}
}

func TestExpiryJobRequiresPositiveTTL(t *testing.T) {
	_, err := NewPendingOrderExpiryJob(PendingOrderExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
		Reader: &stubPendingReader{},
		Orders: &stubCanceller{},
	})
	if err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}
