package webhooks

import (
	"net/http"
	"time"

	"github.com/yasboss/storefront-backend/api/responses"
	"github.com/yasboss/storefront-backend/api/validators"
	"github.com/yasboss/storefront-backend/internal/shipments"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

// carrierEventRequest mirrors the carrier's push payload. Decoding is
// lenient: carriers add fields without notice and extra keys must not fail
// the request.
type carrierEventRequest struct {
	Waybill       string  `json:"awb"`
	CourierName   string  `json:"courier_name"`
	CurrentStatus string  `json:"current_status"`
	Location      string  `json:"location"`
	Remark        string  `json:"remark"`
	Timestamp     *string `json:"current_timestamp"`
	ETD           *string `json:"etd"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
}

// CarrierWebhook ingests one carrier tracking event and reconciles it
// against the order lifecycle.
func CarrierWebhook(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req carrierEventRequest
		if err := validators.DecodeLenientJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event := shipments.CarrierEvent{
			Waybill:  req.Waybill,
			Carrier:  req.CourierName,
			Status:   req.CurrentStatus,
			Location: req.Location,
			Remark:   req.Remark,
			FromCity: req.Origin,
			ToCity:   req.Destination,
		}
		if at := parseCarrierTime(req.Timestamp); at != nil {
			event.At = *at
		}
		event.EstimatedAt = parseCarrierTime(req.ETD)

		result, err := svc.Reconcile(r.Context(), event)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// parseCarrierTime accepts the handful of timestamp layouts the carrier is
// known to send. Unparseable values are ignored rather than rejected.
func parseCarrierTime(raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if at, err := time.Parse(layout, *raw); err == nil {
			return &at
		}
	}
	return nil
}
