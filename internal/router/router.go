package router

import (
	"database/sql"
	"net/http"
	"time"

	_ "content-gate/docs"
	"content-gate/internal/adapters/payments/gateway"
	mem "content-gate/internal/adapters/storage/memory"
	pg "content-gate/internal/adapters/storage/postgres"
	"content-gate/internal/adapters/storage/redisstore"
	sqlitestore "content-gate/internal/adapters/storage/sqlite"
	"content-gate/internal/domain/accessgrants"
	"content-gate/internal/domain/ledger"
	"content-gate/internal/domain/pricing"
	"content-gate/internal/domain/tiers"
	"content-gate/internal/mcptools"
	"content-gate/internal/middleware"
	"content-gate/internal/platform/logger"
	"content-gate/internal/platform/money"
	"content-gate/internal/ports/auth"
	"content-gate/internal/ports/engagement"
	"content-gate/internal/ports/payments"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	Log          logger.Logger

	// Storage: DB (Postgres) > SQLite > in-memory.
	DB     *sql.DB
	SQLite *sql.DB
	// Redis opcional: sólo para ContentSignal.
	Redis *redis.Client

	Catalog     *tiers.Catalog // nil => tiers.Default(Currency)
	Currency    string
	DefaultTier string

	Payments       payments.Validator // nil => gateway.DevValidator
	Engagement     engagement.Source  // nil => sin refresh
	RefreshTimeout time.Duration

	DisabledTools []string
}

// Services agrupa los servicios de dominio ya cableados a sus stores.
type Services struct {
	Catalog *tiers.Catalog
	Pricing *pricing.Service
	Grants  *accessgrants.Service
	Ledger  *ledger.Service
}

type revenueStore interface {
	accessgrants.Repository
	ledger.Repository
	ledger.GrantCounter
}

func NewServices(opts Options) *Services {
	currency := opts.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = tiers.Default(currency)
	}

	var (
		revenue revenueStore
		signals pricing.Repository
	)
	switch {
	case opts.DB != nil:
		revenue = pg.NewRevenueStore(opts.DB)
		signals = pg.NewSignalRepo(opts.DB)
	case opts.SQLite != nil:
		revenue = sqlitestore.NewRevenueStore(opts.SQLite)
		signals = sqlitestore.NewSignalRepo(opts.SQLite)
	default:
		revenue = mem.NewRevenueStore()
		signals = mem.NewSignalRepo()
	}
	if opts.Redis != nil {
		signals = redisstore.NewSignalRepo(opts.Redis, redisstore.DefaultKeyPrefix)
	}

	pricingSvc := pricing.NewService(signals, opts.Engagement, opts.Log)
	pricingSvc.SetRefreshTimeout(opts.RefreshTimeout)

	return &Services{
		Catalog: catalog,
		Pricing: pricingSvc,
		Grants:  accessgrants.NewService(revenue, catalog, pricingSvc, opts.Log),
		Ledger:  ledger.NewService(revenue, revenue, currency, opts.Log),
	}
}

func NewRouter(opts Options) http.Handler {
	return Mount(NewServices(opts), opts)
}

// Mount arma el router HTTP sobre servicios ya construidos.
func Mount(svcs *Services, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier, opts.Log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	currency := opts.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	pay := opts.Payments
	if pay == nil {
		pay = gateway.DevValidator{}
	}
	defaultTier := opts.DefaultTier
	if defaultTier == "" {
		defaultTier = "premium"
	}

	// Rutas por módulo
	tiers.RegisterRoutes(r, svcs.Catalog)
	pricing.RegisterRoutes(r, svcs.Pricing, currency)
	accessgrants.RegisterRoutes(r, svcs.Grants, pay)
	ledger.RegisterRoutes(r, svcs.Ledger)
	mcptools.RegisterRoutes(r, mcptools.Options{
		Grants:      svcs.Grants,
		Pricing:     svcs.Pricing,
		Catalog:     svcs.Catalog,
		Payments:    pay,
		DefaultTier: defaultTier,
		Disabled:    opts.DisabledTools,
		Log:         opts.Log,
	})

	return r
}
