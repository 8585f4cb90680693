package orders

import (
	"testing"

	"github.com/yasboss/storefront-backend/pkg/db/models"
	"github.com/yasboss/storefront-backend/pkg/enums"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from enums.OrderStatus
		to   enums.OrderStatus
		want bool
	}{
		{"pending to paid", enums.OrderStatusPending, enums.OrderStatusPaid, true},
		{"pending to cancelled", enums.OrderStatusPending, enums.OrderStatusCancelled, true},
		{"pending to delivered", enums.OrderStatusPending, enums.OrderStatusDelivered, false},
		{"paid to cancelled", enums.OrderStatusPaid, enums.OrderStatusCancelled, false},
		{"paid to dispatched", enums.OrderStatusPaid, enums.OrderStatusDispatched, true},
		{"paid to delivered skips ahead", enums.OrderStatusPaid, enums.OrderStatusDelivered, true},
		{"shipped to dispatched regression", enums.OrderStatusShipped, enums.OrderStatusDispatched, false},
		{"in transit to out for delivery", enums.OrderStatusInTransit, enums.OrderStatusOutForDelivery, true},
		{"delivered to return requested", enums.OrderStatusDelivered, enums.OrderStatusReturnRequested, true},
		{"delivered to replacement requested", enums.OrderStatusDelivered, enums.OrderStatusReplacementRequested, true},
		{"delivered to shipped regression", enums.OrderStatusDelivered, enums.OrderStatusShipped, false},
		{"return requested approved", enums.OrderStatusReturnRequested, enums.OrderStatusReturnApproved, true},
		{"return requested rejected", enums.OrderStatusReturnRequested, enums.OrderStatusReturnRejected, true},
		{"return requested to replacement", enums.OrderStatusReturnRequested, enums.OrderStatusReplacementApproved, false},
		{"replacement requested approved", enums.OrderStatusReplacementRequested, enums.OrderStatusReplacementApproved, true},
		{"cancelled is terminal", enums.OrderStatusCancelled, enums.OrderStatusPaid, false},
		{"return approved is terminal", enums.OrderStatusReturnApproved, enums.OrderStatusDelivered, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := canTransition(tc.from, tc.to); got != tc.want {
				t.Fatalf("canTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestAuthorizeTransition(t *testing.T) {
	order := &models.Order{UserEmail: "asha@example.com"}

	cases := []struct {
		name     string
		actor    Actor
		to       enums.OrderStatus
		wantCode pkgerrors.Code
	}{
		{"admin anything", Actor{Email: "ops@yasboss.in", Role: enums.ActorRoleAdmin}, enums.OrderStatusReturnApproved, ""},
		{"customer own cancel", Actor{Email: "Asha@Example.com", Role: enums.ActorRoleCustomer}, enums.OrderStatusCancelled, ""},
		{"customer own return", Actor{Email: "asha@example.com", Role: enums.ActorRoleCustomer}, enums.OrderStatusReturnRequested, ""},
		{"customer foreign order", Actor{Email: "mallory@example.com", Role: enums.ActorRoleCustomer}, enums.OrderStatusCancelled, pkgerrors.CodeForbidden},
		{"customer cannot mark delivered", Actor{Email: "asha@example.com", Role: enums.ActorRoleCustomer}, enums.OrderStatusDelivered, pkgerrors.CodeForbidden},
		{"agent shipment status", Actor{Email: "agent@yasboss.in", Role: enums.ActorRoleAgent}, enums.OrderStatusOutForDelivery, ""},
		{"agent cannot approve returns", Actor{Email: "agent@yasboss.in", Role: enums.ActorRoleAgent}, enums.OrderStatusReturnApproved, pkgerrors.CodeForbidden},
		{"carrier shipment status", Actor{Email: "delhivery", Role: enums.ActorRoleCarrier}, enums.OrderStatusInTransit, ""},
		{"carrier cannot cancel", Actor{Email: "delhivery", Role: enums.ActorRoleCarrier}, enums.OrderStatusCancelled, pkgerrors.CodeForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := authorizeTransition(tc.actor, order, tc.to)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("expected allow, got %v", err)
				}
				return
			}
			if pkgerrors.CodeOf(err) != tc.wantCode {
				t.Fatalf("expected %s, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestGenerateReferenceFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		ref, err := GenerateReference()
		if err != nil {
			t.Fatalf("generate reference: %v", err)
		}
		if len(ref) != 11 || ref[:3] != "YB-" {
			t.Fatalf("unexpected reference format %q", ref)
		}
		for _, c := range ref[3:] {
			if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
				t.Fatalf("reference %q contains non-hex character %q", ref, c)
			}
		}
		seen[ref] = true
	}
	if len(seen) < 45 {
		t.Fatalf("references look non-random: %d unique of 50", len(seen))
	}
}
