package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"partsdesk/engine"
	"partsdesk/store"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	engine   *engine.Engine
	db       *store.DB
	sessions *sessionStore
	eventHub *EventHub
}

// NewRouter creates the chi router and returns it along with a stop function.
func NewRouter(eng *engine.Engine, db *store.DB, sessionSecret string) (http.Handler, func()) {
	h := &Handlers{
		engine:   eng,
		db:       db,
		sessions: newSessionStore(sessionSecret),
		eventHub: NewEventHub(),
	}
	if db != nil {
		ensureDefaultAdmin(db)
	}

	h.eventHub.Start()
	h.eventHub.SetupEngineListeners(eng)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// SSE
	r.Get("/events", h.eventHub.HandleSSE)

	// Login/logout
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	r.Route("/api", func(r chi.Router) {
		// Read models
		r.Get("/orders/open", h.apiOpenOrders)
		r.Get("/orders/bids", h.apiMyBids)
		r.Get("/orders/accepted", h.apiAcceptedOrders)
		r.Get("/orders/{orderNumber}", h.apiGetOrder)
		r.Get("/orders/{orderNumber}/transitions", h.apiTransitions)
		r.Get("/wallet", h.apiWallet)
		r.Get("/withdrawals", h.apiWithdrawals)
		r.Get("/statuses", h.apiStatuses)
		r.Get("/media/{store}/{id}", h.apiGetMedia)

		// Mutations require a session
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/orders/{orderNumber}/quote", h.apiSubmitQuote)
			r.Post("/orders/{orderNumber}/status", h.apiUpdateStatus)
			r.Post("/withdrawals", h.apiRequestWithdrawal)
			r.Post("/refresh", h.apiRefreshAll)
			r.Post("/cache/clear", h.apiClearCache)
			r.Put("/media/{store}/{id}", h.apiPutMedia)
			r.Delete("/media/{store}/{id}", h.apiDeleteMedia)
		})
	})

	stop := func() {
		h.eventHub.Stop()
	}
	return r, stop
}
