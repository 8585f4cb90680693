package orders

import (
	"strings"

	"github.com/yasboss/storefront-backend/pkg/db/models"
	"github.com/yasboss/storefront-backend/pkg/enums"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
)

// Actor identifies who is requesting an order mutation. It is always passed
// explicitly by the caller.
type Actor struct {
	Email string
	Role  enums.ActorRole
}

// canTransition reports whether the lifecycle permits moving from one
// status to another. Reapplying the current status is handled by callers as
// a no-op before this check.
func canTransition(from, to enums.OrderStatus) bool {
	switch from {
	case enums.OrderStatusPending:
		return to == enums.OrderStatusPaid || to == enums.OrderStatusCancelled
	case enums.OrderStatusDelivered:
		return to == enums.OrderStatusReturnRequested || to == enums.OrderStatusReplacementRequested
	case enums.OrderStatusReturnRequested:
		return to == enums.OrderStatusReturnApproved || to == enums.OrderStatusReturnRejected
	case enums.OrderStatusReplacementRequested:
		return to == enums.OrderStatusReplacementApproved || to == enums.OrderStatusReplacementRejected
	}

	// delivery progression moves forward only, skips allowed
	fromRank, toRank := from.ShipmentRank(), to.ShipmentRank()
	return fromRank > 0 && toRank > fromRank
}

// authorizeTransition checks the actor's role against the requested target
// status and order ownership.
func authorizeTransition(actor Actor, order *models.Order, to enums.OrderStatus) error {
	switch actor.Role {
	case enums.ActorRoleAdmin:
		return nil

	case enums.ActorRoleCustomer:
		if !strings.EqualFold(order.UserEmail, actor.Email) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
		}
		switch to {
		case enums.OrderStatusCancelled, enums.OrderStatusReturnRequested, enums.OrderStatusReplacementRequested:
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "customers cannot set this order status")

	case enums.ActorRoleAgent, enums.ActorRoleCarrier:
		if to.IsShipmentStatus() {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot set this order status")
	}

	return pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
}
