package enums

import "fmt"

// CouponType selects how a coupon's value is interpreted.
type CouponType string

const (
	CouponTypePercent CouponType = "PERCENT"
	CouponTypeFlat    CouponType = "FLAT"
)

// IsValid reports whether the value is a known CouponType.
func (t CouponType) IsValid() bool {
	return t == CouponTypePercent || t == CouponTypeFlat
}

// ParseCouponType converts raw input into a CouponType.
func ParseCouponType(value string) (CouponType, error) {
	switch CouponType(value) {
	case CouponTypePercent:
		return CouponTypePercent, nil
	case CouponTypeFlat:
		return CouponTypeFlat, nil
	}
	return "", fmt.Errorf("invalid coupon type %q", value)
}
