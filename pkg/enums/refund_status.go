package enums

import "fmt"

// RefundStatus tracks the post-sale refund flow for a returned order.
type RefundStatus string

const (
	RefundStatusNone     RefundStatus = "NONE"
	RefundStatusPending  RefundStatus = "PENDING"
	RefundStatusApproved RefundStatus = "APPROVED"
	RefundStatusRejected RefundStatus = "REJECTED"
	RefundStatusRefunded RefundStatus = "REFUNDED"
)

var validRefundStatuses = []RefundStatus{
	RefundStatusNone,
	RefundStatusPending,
	RefundStatusApproved,
	RefundStatusRejected,
	RefundStatusRefunded,
}

// IsValid reports whether the value is a known RefundStatus.
func (s RefundStatus) IsValid() bool {
	for _, candidate := range validRefundStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRefundStatus converts raw input into a RefundStatus.
func ParseRefundStatus(value string) (RefundStatus, error) {
	for _, candidate := range validRefundStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund status %q", value)
}
