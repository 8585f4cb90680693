package enums

import "fmt"

// ActorRole identifies who is asking for an order mutation. Identity is
// always passed explicitly; nothing reads it from ambient request state.
type ActorRole string

const (
	ActorRoleCustomer ActorRole = "CUSTOMER"
	ActorRoleAgent    ActorRole = "AGENT"
	ActorRoleAdmin    ActorRole = "ADMIN"
	ActorRoleCarrier  ActorRole = "CARRIER"
)

var validActorRoles = []ActorRole{
	ActorRoleCustomer,
	ActorRoleAgent,
	ActorRoleAdmin,
	ActorRoleCarrier,
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
