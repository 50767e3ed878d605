package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Envois-api/internal/application/auth"
	"github.com/jhoicas/Envois-api/internal/application/importer"
	"github.com/jhoicas/Envois-api/internal/application/ledger"
	"github.com/jhoicas/Envois-api/internal/application/report"
	"github.com/jhoicas/Envois-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	UserUC         *usecase.UserUseCase
	ShipmentUC     *usecase.ShipmentUseCase
	ProductUC      *usecase.ProductUseCase
	ExchangeRateUC *usecase.ExchangeRateUseCase
	StockUC        *usecase.StockUseCase
	AuditUC        *usecase.AuditUseCase
	Transactions   *ledger.TransactionService
	Debts          *ledger.DebtService
	Importer       *importer.Service
	Reports        *report.Service
	JWTSecret      string
	MaxUpload      int
}

// Router registra las rutas de la API. Cada grupo lleva su propio prefijo para que el
// middleware de un grupo no alcance a los demás.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	requireAuth := AuthMiddleware(deps.JWTSecret)
	scope := ShipmentScope(deps.ShipmentUC)
	admin := RequireAdmin()

	// Auth (público) e identidad
	authHandler := NewAuthHandler(deps.AuthUC, deps.UserUC)
	api.Post("/auth/login", authHandler.Login)
	api.Get("/me", requireAuth, authHandler.Me)

	// Envíos: lectura para todos, escritura admin
	shipments := api.Group("/envois", requireAuth)
	shipmentHandler := NewShipmentHandler(deps.ShipmentUC)
	shipments.Get("/", shipmentHandler.List)
	shipments.Get("/:id", shipmentHandler.GetByID)
	shipments.Post("/", admin, shipmentHandler.Create)
	shipments.Patch("/:id", admin, shipmentHandler.Update)
	shipments.Put("/:id", admin, shipmentHandler.Update)
	shipments.Delete("/:id", admin, shipmentHandler.Delete)

	// Tasas de cambio
	rates := api.Group("/exchange-rates", requireAuth)
	rateHandler := NewExchangeRateHandler(deps.ExchangeRateUC)
	rates.Get("/", rateHandler.List)
	rates.Get("/current", rateHandler.Current)
	rates.Get("/:id", rateHandler.GetByID)
	rates.Post("/", rateHandler.Create)
	rates.Put("/:id", rateHandler.Update)
	rates.Delete("/:id", rateHandler.Delete)

	stockHandler := NewStockHandler(deps.StockUC, deps.AuditUC)
	api.Get("/audit-events", requireAuth, stockHandler.Audit)

	// Rutas dentro del envío de trabajo (?envoi_id= o X-Envoi-Id)
	products := api.Group("/products", requireAuth, scope)
	productHandler := NewProductHandler(deps.ProductUC, deps.MaxUpload)
	products.Get("/", productHandler.List)
	products.Post("/", productHandler.Create)
	products.Delete("/purge", admin, productHandler.Purge)
	products.Get("/:id", productHandler.GetByID)
	products.Patch("/:id", productHandler.Update)
	products.Put("/:id/image", productHandler.SetImage)
	products.Delete("/:id", productHandler.Delete)

	transactions := api.Group("/transactions", requireAuth, scope)
	txHandler := NewTransactionHandler(deps.Transactions)
	transactions.Get("/", txHandler.List)
	transactions.Post("/", txHandler.Create)
	transactions.Get("/:id", txHandler.GetByID)
	transactions.Patch("/:id", txHandler.Update)
	transactions.Delete("/:id", txHandler.Delete)

	debts := api.Group("/debts", requireAuth, scope)
	debtHandler := NewDebtHandler(deps.Debts)
	debts.Get("/", debtHandler.List)
	debts.Post("/", debtHandler.Create)
	debts.Get("/:id", debtHandler.GetByID)
	debts.Patch("/:id", debtHandler.Update)
	debts.Delete("/:id", debtHandler.Delete)

	stocks := api.Group("/stocks", requireAuth, scope)
	stocks.Get("/", stockHandler.List)
	stocks.Post("/recompute", admin, stockHandler.Recompute)

	importHandler := NewImportHandler(deps.Importer, deps.MaxUpload)
	api.Post("/import", requireAuth, scope, importHandler.Import)

	reportHandler := NewReportHandler(deps.Reports)
	api.Get("/reports/stock", requireAuth, scope, reportHandler.Stock)
	api.Get("/reports/monthly", requireAuth, scope, reportHandler.Monthly)
	api.Get("/exports/:kind", requireAuth, scope, reportHandler.Export)
}
