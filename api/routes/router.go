package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yasboss/storefront-backend/api/controllers"
	webhookcontrollers "github.com/yasboss/storefront-backend/api/controllers/webhooks"
	"github.com/yasboss/storefront-backend/api/middleware"
	"github.com/yasboss/storefront-backend/internal/catalog"
	checkoutsvc "github.com/yasboss/storefront-backend/internal/checkout"
	"github.com/yasboss/storefront-backend/internal/coupons"
	"github.com/yasboss/storefront-backend/internal/orders"
	"github.com/yasboss/storefront-backend/internal/rewards"
	"github.com/yasboss/storefront-backend/internal/settings"
	"github.com/yasboss/storefront-backend/internal/shipments"
	"github.com/yasboss/storefront-backend/pkg/config"
	"github.com/yasboss/storefront-backend/pkg/enums"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

// RouterParams carries every dependency the HTTP surface needs.
type RouterParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        controllers.Pinger
	Redis     controllers.Pinger
	Checkout  checkoutsvc.Service
	Orders    orders.Service
	Coupons   coupons.Service
	Rewards   rewards.Service
	Shipments shipments.Service
	Settings  settings.Service
	Catalog   catalog.Service
}

func NewRouter(p RouterParams) http.Handler {
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Identity(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, logg, map[string]controllers.Pinger{
			"database": p.DB,
			"redis":    p.Redis,
		}))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/carrier", webhookcontrollers.CarrierWebhook(p.Shipments, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(p.Catalog, logg))
		r.Post("/coupons/validate", controllers.ValidateCoupon(p.Coupons, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireActor(logg))

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", controllers.PlaceOrder(p.Checkout, logg))
				r.Post("/quote", controllers.QuoteOrder(p.Checkout, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListMyOrders(p.Orders, logg))
				r.Get("/{reference}", controllers.GetOrder(p.Orders, logg))
				r.Post("/{reference}/cancel", controllers.CancelOrder(p.Orders, logg))
				r.Post("/{reference}/support", controllers.RequestSupport(p.Orders, logg))
				r.Get("/{reference}/tracking", controllers.TrackOrder(p.Orders, p.Shipments, logg))
			})

			r.Route("/rewards", func(r chi.Router) {
				r.Get("/points", controllers.MyPointsBalance(p.Rewards, logg))
				r.Get("/points/history", controllers.MyPointsHistory(p.Rewards, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin, enums.ActorRoleAgent))

			r.Get("/orders", controllers.AdminListOrders(p.Orders, logg))
			r.Get("/orders/status-counts", controllers.OrderStatusCounts(p.Orders, logg))
			r.Post("/orders/{reference}/status", controllers.TransitionOrder(p.Orders, logg))
			r.Post("/orders/{reference}/payment", controllers.ConfirmPayment(p.Orders, logg))
			r.Post("/orders/{reference}/waybill", controllers.AssignWaybill(p.Shipments, logg))
			r.Get("/shipments/status-counts", controllers.ShipmentStatusCounts(p.Shipments, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin))

			r.Post("/coupons", controllers.CreateCoupon(p.Coupons, logg))
			r.Get("/coupons", controllers.ListCoupons(p.Coupons, logg))
			r.Delete("/coupons/{code}", controllers.DeleteCoupon(p.Coupons, logg))

			r.Get("/settings", controllers.ListSettings(p.Settings, logg))
			r.Put("/settings", controllers.SetSetting(p.Settings, logg))
		})
	})

	return r
}
