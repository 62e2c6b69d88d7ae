package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/WALKERIS/visionrpweb/internal/identity"
	"github.com/WALKERIS/visionrpweb/internal/visitor"
)

type RouterConfig struct {
	Pages    *PageHandler
	Auth     *AuthHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Status   *StatusHandler

	Registry       *visitor.Registry
	Codec          *identity.TokenCodec
	Cookies        Cookies
	RequestTimeout time.Duration
}

// NewRouter assembles the storefront routes. The cart event stream is kept
// out of the request timeout and compression middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", cfg.Status.Health)
	r.Handle("/static/*", Static())

	r.Group(func(r chi.Router) {
		r.Use(VisitorMiddleware(cfg.Registry, cfg.Codec, cfg.Cookies))

		r.Get("/api/cart/events", cfg.Cart.Events)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
			r.Use(middleware.Compress(5))

			r.Get("/", cfg.Pages.Landing)
			r.Get("/store", cfg.Pages.Store)
			r.Get("/store/vehicles/{id}", cfg.Pages.Vehicle)

			r.Route("/auth", func(r chi.Router) {
				r.Get("/login", cfg.Auth.Login)
				r.Get("/callback", cfg.Auth.Callback)
				r.Post("/logout", cfg.Auth.Logout)
			})

			r.Route("/api", func(r chi.Router) {
				r.Get("/status", cfg.Status.Status)

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", cfg.Cart.GetCart)
					r.Delete("/", cfg.Cart.ClearCart)
					r.Post("/items", cfg.Cart.AddItem)
					r.Put("/items/{id}", cfg.Cart.UpdateQuantity)
					r.Delete("/items/{id}", cfg.Cart.RemoveItem)
				})

				r.Route("/checkout", func(r chi.Router) {
					r.Post("/", cfg.Checkout.Open)
					r.Delete("/", cfg.Checkout.Close)
					r.Post("/orders", cfg.Checkout.CreateOrder)
					r.Post("/approve", cfg.Checkout.Approve)
				})

				r.Get("/orders", cfg.Orders.ListOrders)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
