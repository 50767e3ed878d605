package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Envois-api/internal/application/audit"
	"github.com/jhoicas/Envois-api/internal/application/auth"
	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/application/importer"
	"github.com/jhoicas/Envois-api/internal/application/ledger"
	"github.com/jhoicas/Envois-api/internal/application/report"
	"github.com/jhoicas/Envois-api/internal/application/usecase"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Envois-api/internal/interfaces/http"
)

func nopLogger() zerolog.Logger { return zerolog.Nop() }

type api struct {
	t     *testing.T
	app   *fiber.App
	admin string
	staff string
}

// newAPI arma la API completa sobre el almacén en memoria, con un admin y un usuario staff.
func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.NewStore()
	clock := ledger.FixedClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	tx := memory.NewTxRunner(store)
	repos := store.Repos()
	files := memory.NewFileStore()
	log := zerolog.Nop()
	rec := audit.NewSink(store.Audit(), log, nil)
	rc := ledger.NewRecomputer(clock, nil)
	txs := ledger.NewTransactionService(tx, repos, rc, rec, nil, clock)
	authUC := auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 5, Issuer: testIssuer}, rec, log, clock)

	ctx := context.Background()
	_, err := authUC.EnsureAdmin(ctx, auth.AdminSeed{Username: "admin", Password: "Adm1n-pass"})
	require.NoError(t, err)
	_, err = authUC.EnsureAdmin(ctx, auth.AdminSeed{Username: "moussa", Password: "Staff-pass"})
	require.NoError(t, err)
	u, err := store.Users().GetByUsername(ctx, "moussa")
	require.NoError(t, err)
	u.Role = entity.RoleStaff
	require.NoError(t, store.Users().Update(ctx, u))

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(log), Immutable: true})
	app.Use(apphttp.RequestContext(log))
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:         authUC,
		UserUC:         usecase.NewUserUseCase(store.Users()),
		ShipmentUC:     usecase.NewShipmentUseCase(tx, repos, files, rec, nil, log, clock),
		ProductUC:      usecase.NewProductUseCase(tx, repos, rc, files, rec, nil, log, clock),
		ExchangeRateUC: usecase.NewExchangeRateUseCase(repos.Rates, rec, nil, clock),
		StockUC:        usecase.NewStockUseCase(tx, repos, rc, rec, log),
		AuditUC:        usecase.NewAuditUseCase(store.Audit()),
		Transactions:   txs,
		Debts:          ledger.NewDebtService(tx, repos, rc, rec, nil, clock),
		Importer:       importer.NewService(tx, repos, rc, txs, files, rec, nil, log, clock),
		Reports:        report.NewService(repos, files, clock, log, nil, nil, 5),
		JWTSecret:      testJWTSecret,
		MaxUpload:      1 << 20,
	})

	a := &api{t: t, app: app}
	a.admin = a.login("admin", "Adm1n-pass")
	a.staff = a.login("moussa", "Staff-pass")
	return a
}

func (a *api) login(username, password string) string {
	var out dto.LoginResponse
	resp := a.do(http.MethodPost, "/api/auth/login", "", "", dto.LoginRequest{Username: username, Password: password})
	require.Equal(a.t, http.StatusOK, resp.StatusCode)
	decode(a.t, resp, &out)
	return out.Token
}

func (a *api) do(method, path, token, shipmentID string, body any) *http.Response {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if shipmentID != "" {
		req.Header.Set(apphttp.HeaderShipmentID, shipmentID)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestAPI_FlujoCompletoEnvioProductoVentaExport(t *testing.T) {
	a := newAPI(t)

	var sh dto.ShipmentResponse
	resp := a.do(http.MethodPost, "/api/envois", a.admin, "", map[string]any{"name": "Envoi mars"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &sh)

	resp = a.do(http.MethodPost, "/api/exchange-rates", a.staff, "", map[string]any{"rate": "650"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var p dto.ProductResponse
	resp = a.do(http.MethodPost, "/api/products", a.staff, sh.ID, map[string]any{
		"name": "Pagne wax", "sale_price_cfa": "6500", "purchase_price_eur": "10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &p)

	resp = a.do(http.MethodPost, "/api/transactions", a.staff, sh.ID, map[string]any{
		"product_id": p.ID, "type": "purchase", "quantity": 4, "unit_price_eur": "10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var errBody dto.ErrorResponse
	resp = a.do(http.MethodPost, "/api/transactions", a.staff, sh.ID, map[string]any{
		"product_id": p.ID, "type": "sale", "quantity": 5,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decode(t, resp, &errBody)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)
	assert.Equal(t, "quantity", errBody.Field)

	resp = a.do(http.MethodPost, "/api/transactions", a.staff, sh.ID, map[string]any{
		"product_id": p.ID, "type": "sale", "quantity": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sale dto.TransactionResponse
	decode(t, resp, &sale)
	assert.Equal(t, "19500", sale.TotalCFA.Decimal.String())

	var stocks dto.ListResponse[dto.StockResponse]
	resp = a.do(http.MethodGet, "/api/stocks?envoi_id="+sh.ID, a.staff, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &stocks)
	require.Len(t, stocks.Items, 1)
	assert.Equal(t, 1, stocks.Items[0].QuantityRemaining)

	resp = a.do(http.MethodGet, "/api/exports/transactions?format=csv", a.staff, sh.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="transactions.csv"`)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "\ufeff"))
	assert.Contains(t, string(raw), ";Vente;3;")

	resp = a.do(http.MethodGet, "/api/exports/stock?format=xlsx", a.staff, sh.ID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "sin renderer xlsx el formato no está disponible")
}

func TestAPI_PermisosYScope(t *testing.T) {
	a := newAPI(t)

	resp := a.do(http.MethodPost, "/api/envois", a.staff, "", map[string]any{"name": "X"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.do(http.MethodGet, "/api/envois", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var errBody dto.ErrorResponse
	resp = a.do(http.MethodGet, "/api/products", a.staff, "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decode(t, resp, &errBody)
	assert.Equal(t, "envoi_id", errBody.Field)

	resp = a.do(http.MethodGet, "/api/products", a.staff, "inexistente", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var sh dto.ShipmentResponse
	resp = a.do(http.MethodPost, "/api/envois", a.admin, "", map[string]any{"name": "Avril"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &sh)

	resp = a.do(http.MethodDelete, "/api/products/purge", a.staff, sh.ID, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var counts dto.CascadeCounts
	resp = a.do(http.MethodDelete, "/api/products/purge", a.admin, sh.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &counts)
	assert.Zero(t, counts.DeletedProducts)

	resp = a.do(http.MethodPost, "/api/envois", a.admin, "", map[string]any{"name": "avril"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_LoginYMe(t *testing.T) {
	a := newAPI(t)

	resp := a.do(http.MethodPost, "/api/auth/login", "", "", dto.LoginRequest{Username: "admin", Password: "mala"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var me dto.UserResponse
	resp = a.do(http.MethodGet, "/api/me", a.staff, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &me)
	assert.Equal(t, "moussa", me.Username)
	assert.False(t, me.IsAdmin)

	var events dto.ListResponse[dto.AuditEventResponse]
	resp = a.do(http.MethodGet, "/api/audit-events?limit=1", a.admin, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &events)
	require.Len(t, events.Items, 1)
	assert.Equal(t, "login", events.Items[0].Action)
	assert.Equal(t, "/api/auth/login", events.Items[0].Path)
}

func TestAPI_Health(t *testing.T) {
	a := newAPI(t)
	resp := a.do(http.MethodGet, "/health", "", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
