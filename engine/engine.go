package engine

import (
	"context"
	"log"
	"time"

	"partsdesk/cache"
	"partsdesk/config"
	"partsdesk/market"
	"partsdesk/notify"
	"partsdesk/orders"
	"partsdesk/store"
	"partsdesk/wallet"
)

const refetchTimeout = 30 * time.Second

// Engine centralizes the provider console's business logic and
// orchestrates the order, wallet and notification subsystems.
type Engine struct {
	cfg    *config.Config
	db     *store.DB
	hot    *cache.RedisStore
	client *market.Client

	repo     *orders.Repository
	quotes   *orders.QuoteEngine
	control  *orders.Controller
	wallet   *wallet.Manager
	listener *notify.Listener

	Events   *EventBus
	stopChan chan struct{}
}

// Config holds the parameters needed to create an Engine.
type Config struct {
	AppConfig *config.Config
	DB        *store.DB
	Hot       *cache.RedisStore
	Client    *market.Client
	Messaging notify.Subscriber
}

// New creates a new Engine. Call Start() to wire subsystems and begin
// listening.
func New(c Config) *Engine {
	e := &Engine{
		cfg:      c.AppConfig,
		db:       c.DB,
		hot:      c.Hot,
		client:   c.Client,
		Events:   NewEventBus(),
		stopChan: make(chan struct{}),
	}

	orderEmit := &orderEmitter{bus: e.Events}
	walletEmit := &walletEmitter{bus: e.Events}

	e.repo = orders.NewRepository(c.Client, c.DB, c.Hot, orderEmit, nil)
	e.quotes = orders.NewQuoteEngine(e.repo, c.Client, orderEmit)
	e.control = orders.NewController(e.repo, c.Client, orderEmit)
	e.wallet = wallet.NewManager(c.Client, c.DB, c.Hot, walletEmit)
	if c.Messaging != nil {
		e.listener = notify.NewListener(c.Messaging, e, c.AppConfig.Messaging.ChannelPrefix, c.AppConfig.Messaging.DebounceWindow)
	}
	return e
}

// Repo exposes the order projections to the web layer.
func (e *Engine) Repo() *orders.Repository { return e.repo }

// Quotes exposes the quote engine to the web layer.
func (e *Engine) Quotes() *orders.QuoteEngine { return e.quotes }

// Controller exposes the status controller to the web layer.
func (e *Engine) Controller() *orders.Controller { return e.control }

// Wallet exposes the wallet manager to the web layer.
func (e *Engine) Wallet() *wallet.Manager { return e.wallet }

// Start warm-loads the caches, subscribes to the private channels and
// begins the periodic reconcile loop. Errors on the initial refresh are
// logged, not fatal; the projections fill in as the backend recovers.
func (e *Engine) Start() {
	ctx, cancel := context.WithTimeout(context.Background(), refetchTimeout)
	defer cancel()

	e.loadProfile(ctx)
	e.repo.WarmStart(ctx)
	e.wallet.WarmStart(ctx)

	if e.listener != nil {
		if err := e.listener.Start(e.cfg.Provider.ID, e.cfg.Provider.UserID); err != nil {
			log.Printf("engine: notification listener: %v", err)
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refetchTimeout)
		defer cancel()
		if err := e.repo.RefreshAll(ctx); err != nil {
			log.Printf("engine: initial order refresh: %v", err)
		}
		if err := e.wallet.Refresh(ctx); err != nil {
			log.Printf("engine: initial wallet refresh: %v", err)
		}
	}()

	go e.reconcileLoop()
}

// loadProfile pulls the provider profile so open-order fetches filter
// on the assigned categories. A failed fetch leaves the filter empty;
// the backend still scopes results to this provider.
func (e *Engine) loadProfile(ctx context.Context) {
	p, err := e.client.GetProvider(ctx)
	if err != nil {
		log.Printf("engine: load provider profile: %v", err)
		return
	}
	e.repo.SetCategories(p.AssignedCategories)
}

// Stop shuts down the listener and the reconcile loop.
func (e *Engine) Stop() {
	close(e.stopChan)
	if e.listener != nil {
		e.listener.Stop()
	}
}
