package enums

import "fmt"

// OrderStatus tracks the lifecycle of a customer order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusDispatched     OrderStatus = "DISPATCHED"
	OrderStatusShipped        OrderStatus = "SHIPPED"
	OrderStatusInTransit      OrderStatus = "IN_TRANSIT"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"

	OrderStatusReturnRequested      OrderStatus = "RETURN_REQUESTED"
	OrderStatusReturnApproved       OrderStatus = "RETURN_APPROVED"
	OrderStatusReturnRejected       OrderStatus = "RETURN_REJECTED"
	OrderStatusReplacementRequested OrderStatus = "REPLACEMENT_REQUESTED"
	OrderStatusReplacementApproved  OrderStatus = "REPLACEMENT_APPROVED"
	OrderStatusReplacementRejected  OrderStatus = "REPLACEMENT_REJECTED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusDispatched,
	OrderStatusShipped,
	OrderStatusInTransit,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturnRequested,
	OrderStatusReturnApproved,
	OrderStatusReturnRejected,
	OrderStatusReplacementRequested,
	OrderStatusReplacementApproved,
	OrderStatusReplacementRejected,
}

// shipmentRank orders the delivery progression so that carrier events can
// never move an order backwards. Non-shipment states report zero.
var shipmentRank = map[OrderStatus]int{
	OrderStatusPaid:           1,
	OrderStatusDispatched:     2,
	OrderStatusShipped:        3,
	OrderStatusInTransit:      4,
	OrderStatusOutForDelivery: 5,
	OrderStatusDelivered:      6,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ShipmentRank returns the position of the status in the delivery
// progression, or 0 when the status is not shipment-driven.
func (s OrderStatus) ShipmentRank() int {
	return shipmentRank[s]
}

// IsShipmentStatus reports whether the status belongs to the carrier-driven
// segment of the lifecycle.
func (s OrderStatus) IsShipmentStatus() bool {
	switch s {
	case OrderStatusDispatched, OrderStatusShipped, OrderStatusInTransit,
		OrderStatusOutForDelivery, OrderStatusDelivered:
		return true
	default:
		return false
	}
}

// IsSupportDecision reports whether the status resolves a return or
// replacement request.
func (s OrderStatus) IsSupportDecision() bool {
	switch s {
	case OrderStatusReturnApproved, OrderStatusReturnRejected,
		OrderStatusReplacementApproved, OrderStatusReplacementRejected:
		return true
	default:
		return false
	}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
