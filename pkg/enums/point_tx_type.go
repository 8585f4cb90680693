package enums

import "fmt"

// PointTxType classifies entries in the loyalty point ledger.
type PointTxType string

const (
	PointTxOrderEarn    PointTxType = "ORDER_EARN"
	PointTxOrderRedeem  PointTxType = "ORDER_REDEEM"
	PointTxCancelRefund PointTxType = "CANCEL_REFUND"
	PointTxQuizReward   PointTxType = "QUIZ_REWARD"
	PointTxAdjustment   PointTxType = "ADJUSTMENT"
)

var validPointTxTypes = []PointTxType{
	PointTxOrderEarn,
	PointTxOrderRedeem,
	PointTxCancelRefund,
	PointTxQuizReward,
	PointTxAdjustment,
}

// IsValid reports whether the value is a known PointTxType.
func (t PointTxType) IsValid() bool {
	for _, candidate := range validPointTxTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParsePointTxType converts raw input into a PointTxType.
func ParsePointTxType(value string) (PointTxType, error) {
	for _, candidate := range validPointTxTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid point transaction type %q", value)
}
