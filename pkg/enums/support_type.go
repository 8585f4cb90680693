package enums

import "fmt"

// SupportType distinguishes post-delivery support requests.
type SupportType string

const (
	SupportTypeReturn      SupportType = "RETURN"
	SupportTypeReplacement SupportType = "REPLACEMENT"
)

// IsValid reports whether the value is a known SupportType.
func (t SupportType) IsValid() bool {
	return t == SupportTypeReturn || t == SupportTypeReplacement
}

// ParseSupportType converts raw input into a SupportType.
func ParseSupportType(value string) (SupportType, error) {
	switch SupportType(value) {
	case SupportTypeReturn:
		return SupportTypeReturn, nil
	case SupportTypeReplacement:
		return SupportTypeReplacement, nil
	}
	return "", fmt.Errorf("invalid support type %q", value)
}
