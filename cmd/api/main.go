package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Envois-api/internal/application/audit"
	"github.com/jhoicas/Envois-api/internal/application/auth"
	"github.com/jhoicas/Envois-api/internal/application/importer"
	"github.com/jhoicas/Envois-api/internal/application/ledger"
	"github.com/jhoicas/Envois-api/internal/application/report"
	"github.com/jhoicas/Envois-api/internal/application/usecase"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
	"github.com/jhoicas/Envois-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/Envois-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Envois-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Envois-api/internal/infrastructure/storage"
	infraxlsx "github.com/jhoicas/Envois-api/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/Envois-api/internal/interfaces/http"
	"github.com/jhoicas/Envois-api/pkg/config"
	"github.com/jhoicas/Envois-api/pkg/logger"
	"github.com/jhoicas/Envois-api/pkg/metrics"
)

const swaggerFile = "./docs/swagger.json"

// backend repositorios y transacciones del driver elegido.
type backend struct {
	tx    ledger.TxRunner
	repos repository.Repos
	audit repository.AuditRepository
	users repository.UserRepository
	close func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		App:   cfg.App.Name,
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("driver", cfg.DB.Driver).
		Str("tz", cfg.App.Timezone).
		Msg("iniciando aplicación")

	ctx := context.Background()
	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer be.close()

	registry := prometheus.NewRegistry()
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(registry)
	}

	files, err := storage.NewLocal(cfg.Media.Dir, cfg.Media.URL)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Media.Dir).Msg("almacén de imágenes")
	}

	clock := ledger.NewClock(cfg.App.Location())
	rec := audit.NewSink(be.audit, log.Component("audit"), m)
	rc := ledger.NewRecomputer(clock, m)

	transactions := ledger.NewTransactionService(be.tx, be.repos, rc, rec, m, clock)
	debts := ledger.NewDebtService(be.tx, be.repos, rc, rec, m, clock)
	shipmentUC := usecase.NewShipmentUseCase(be.tx, be.repos, files, rec, m, log.Component("envois"), clock)
	productUC := usecase.NewProductUseCase(be.tx, be.repos, rc, files, rec, m, log.Component("produits"), clock)
	rateUC := usecase.NewExchangeRateUseCase(be.repos.Rates, rec, m, clock)
	stockUC := usecase.NewStockUseCase(be.tx, be.repos, rc, rec, log.Component("stock"))
	auditUC := usecase.NewAuditUseCase(be.audit)
	userUC := usecase.NewUserUseCase(be.users)
	importSvc := importer.NewService(be.tx, be.repos, rc, transactions, files, rec, m, log.Component("importer"), clock)
	reports := report.NewService(
		be.repos, files, clock, log.Component("reports"),
		infraxlsx.NewRenderer(),
		infrapdf.NewTableRenderer(cfg.App.Name, clock.Now),
		cfg.Report.LowStockThreshold,
	)

	authUC := auth.NewAuthUseCase(be.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, rec, log.Component("auth"), clock)

	if cfg.Admin.Username != "" {
		res, err := authUC.EnsureAdmin(ctx, auth.AdminSeed{
			Username:       cfg.Admin.Username,
			Email:          cfg.Admin.Email,
			Password:       cfg.Admin.Password,
			UpdatePassword: cfg.Admin.UpdatePassword,
		})
		if err != nil {
			log.Fatal().Err(err).Str("username", cfg.Admin.Username).Msg("sembrar administrador")
		}
		log.Info().Str("username", cfg.Admin.Username).Str("result", string(res)).Msg("administrador")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httpRouter.ErrorHandler(log.Zerolog()),
		BodyLimit:    cfg.Import.MaxUploadBytes(),
		Immutable:    true,
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 60,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + httpRouter.HeaderShipmentID,
		ExposeHeaders: "Content-Disposition, " + httpRouter.HeaderRequestID,
	}))
	app.Use(httpRouter.RequestContext(log.Component("http")))
	app.Use(httpRouter.RequestLogger())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Envois API",
		}))
	}

	if cfg.Metrics.Enabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
	app.Static(cfg.Media.URL, cfg.Media.Dir)

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		UserUC:         userUC,
		ShipmentUC:     shipmentUC,
		ProductUC:      productUC,
		ExchangeRateUC: rateUC,
		StockUC:        stockUC,
		AuditUC:        auditUC,
		Transactions:   transactions,
		Debts:          debts,
		Importer:       importSvc,
		Reports:        reports,
		JWTSecret:      cfg.JWT.Secret,
		MaxUpload:      cfg.Import.MaxUploadBytes(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openBackend abre PostgreSQL (con migraciones si DB_AUTO_MIGRATE) o el almacén en memoria.
func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	if cfg.DB.Driver == "memory" {
		log.Warn().Msg("STORE_DRIVER=memory: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &backend{
			tx:    memory.NewTxRunner(store),
			repos: store.Repos(),
			audit: store.Audit(),
			users: store.Users(),
			close: func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB, log.Component("postgres"))
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.RunMigrations(pool, log.Component("migrate")); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &backend{
		tx:    postgres.NewTxRunner(pool),
		repos: postgres.NewRepos(pool),
		audit: postgres.NewAuditRepository(pool),
		users: postgres.NewUserRepository(pool),
		close: pool.Close,
	}, nil
}
