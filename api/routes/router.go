package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vendapos/venda-backend/api/controllers"
	"github.com/vendapos/venda-backend/api/middleware"
	"github.com/vendapos/venda-backend/internal/campaigns"
	checkoutsvc "github.com/vendapos/venda-backend/internal/checkout"
	"github.com/vendapos/venda-backend/internal/customers"
	"github.com/vendapos/venda-backend/internal/products"
	"github.com/vendapos/venda-backend/internal/sales"
	"github.com/vendapos/venda-backend/pkg/config"
	"github.com/vendapos/venda-backend/pkg/db"
	"github.com/vendapos/venda-backend/pkg/logger"
	"github.com/vendapos/venda-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	productRepo *products.Repository,
	customerRepo *customers.Repository,
	resolver *campaigns.CodeResolver,
	saleRepo *sales.Repository,
	manager *checkoutsvc.Manager,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.TerminalContext(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	if cfg.Metrics.Enabled && registry != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productRepo, logg))
			r.Get("/lookup", controllers.LookupProduct(productRepo, logg))
			r.Get("/{productID}", controllers.GetProduct(productRepo, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.ListCustomers(customerRepo, logg))
			r.Get("/{customerID}", controllers.GetCustomer(customerRepo, logg))
		})

		r.Post("/campaigns/validate-code", controllers.ValidateCode(resolver, logg))

		r.Route("/checkout/sessions", func(r chi.Router) {
			r.Post("/", controllers.OpenSession(manager, logg))

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", controllers.GetSession(manager, logg))
				r.Delete("/", controllers.CloseSession(manager, logg))

				r.Route("/items", func(r chi.Router) {
					r.Post("/", controllers.AddItem(manager, logg))
					r.Delete("/", controllers.ClearItems(manager, logg))
					r.Put("/{lineID}", controllers.UpdateItem(manager, logg))
					r.Put("/{lineID}/discount", controllers.SetItemDiscount(manager, logg))
					r.Delete("/{lineID}", controllers.RemoveItem(manager, logg))
				})

				r.Put("/customer", controllers.SelectCustomer(manager, logg))
				r.Delete("/customer", controllers.ClearCustomer(manager, logg))

				r.Post("/promo-codes", controllers.ApplyCode(manager, logg))
				r.Delete("/promo-codes/{campaignID}", controllers.RemoveCode(manager, logg))

				r.Put("/redemption", controllers.SetRedemption(manager, logg))

				r.Route("/payment", func(r chi.Router) {
					r.Put("/", controllers.SelectPayment(manager, logg))
					r.Delete("/", controllers.CancelPayment(manager, logg))
					r.Put("/tendered", controllers.SetTendered(manager, logg))
					r.Put("/phone", controllers.SetPaymentPhone(manager, logg))
					r.Post("/confirm", controllers.ConfirmPayment(manager, logg))
				})

				r.With(middleware.Idempotency(redisClient, logg)).
					Post("/commit", controllers.CommitSession(manager, logg))
			})
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.ListSales(saleRepo, logg))
			r.Get("/{saleID}", controllers.GetSale(saleRepo, logg))
		})
	})

	return r
}
