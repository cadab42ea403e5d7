package router

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "nutrikid-care-access/docs"

	"nutrikid-care-access/internal/adapters/analytics/local"
	"nutrikid-care-access/internal/adapters/notify/logsink"
	mem "nutrikid-care-access/internal/adapters/storage/memory"
	pg "nutrikid-care-access/internal/adapters/storage/postgres"
	"nutrikid-care-access/internal/domain/accounts"
	"nutrikid-care-access/internal/domain/escalations"
	"nutrikid-care-access/internal/domain/grants"
	"nutrikid-care-access/internal/domain/profiles"
	"nutrikid-care-access/internal/domain/records"
	"nutrikid-care-access/internal/domain/visibility"
	"nutrikid-care-access/internal/middleware"
	"nutrikid-care-access/internal/platform/logger"
	"nutrikid-care-access/internal/platform/metrics"
	"nutrikid-care-access/internal/ports/analytics"
	"nutrikid-care-access/internal/ports/auth"
	"nutrikid-care-access/internal/ports/notify"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: sink de eventos de grants. Nil => se loguean.
	Sink notify.Sink

	// Opcional: resolver de análisis nutricional. Nil => cálculo local
	// sobre los registros de comidas.
	Analytics analytics.Resolver

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}

	var (
		accountRepo    accounts.Repository
		profileRepo    profiles.Repository
		recordRepo     records.Repository
		grantRepo      grants.Repository
		escalationRepo escalations.Repository
	)

	if opts.DB != nil {
		accountRepo = pg.NewAccountsRepo(opts.DB)
		profileRepo = pg.NewProfilesRepo(opts.DB)
		recordRepo = pg.NewRecordsRepo(opts.DB)
		grantRepo = pg.NewGrantsRepo(opts.DB)
		escalationRepo = pg.NewEscalationsRepo(opts.DB)
	} else {
		accountRepo = mem.NewAccountRepo()
		profileRepo = mem.NewProfileRepo()
		recordRepo = mem.NewRecordRepo()
		grantRepo = mem.NewGrantRepo()
		escalationRepo = mem.NewEscalationRepo()
	}

	sink := opts.Sink
	if sink == nil {
		sink = logsink.New(log)
	}

	// Services por módulo
	accountsSvc := accounts.NewService(accountRepo)
	profilesSvc := profiles.NewService(profileRepo)
	recordsSvc := records.NewService(recordRepo)
	grantsSvc := grants.NewService(grantRepo, accountsSvc, profilesSvc, sink)
	escalationsSvc := escalations.NewService(escalationRepo, grantsSvc)

	resolver := opts.Analytics
	if resolver == nil {
		resolver = local.New(recordsSvc)
	}
	projector := visibility.NewProjector(grantsSvc, profilesSvc, recordsSvc, resolver)

	// Rutas por módulo
	accounts.RegisterRoutes(r, accountsSvc)
	profiles.RegisterRoutes(r, profilesSvc)
	records.RegisterRoutes(r, recordsSvc, profilesSvc)
	grants.RegisterRoutes(r, grantsSvc)
	visibility.RegisterRoutes(r, projector, grantsSvc, profilesSvc)
	escalations.RegisterRoutes(r, escalationsSvc, profilesSvc)

	return r
}
