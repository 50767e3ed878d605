package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Envois-api/internal/application/audit"
	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/application/ledger"
	"github.com/jhoicas/Envois-api/internal/application/usecase"
	"github.com/jhoicas/Envois-api/internal/domain"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
	"github.com/jhoicas/Envois-api/internal/infrastructure/memory"
)

var hoy = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000000000000000")

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	repos     repository.Repos
	files     *memory.FileStore
	txs       *ledger.TransactionService
	debts     *ledger.DebtService
	shipments *usecase.ShipmentUseCase
	products  *usecase.ProductUseCase
	rates     *usecase.ExchangeRateUseCase
	stocks    *usecase.StockUseCase
	audits    *usecase.AuditUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := ledger.FixedClock(hoy)
	tx := memory.NewTxRunner(store)
	repos := store.Repos()
	files := memory.NewFileStore()
	rec := audit.NewSink(store.Audit(), zerolog.Nop(), nil)
	rc := ledger.NewRecomputer(clock, nil)
	f := &fixture{
		ctx:   audit.WithActor(context.Background(), audit.Actor{UserID: "u1", Username: "awa", Admin: true}),
		store: store,
		repos: repos,
		files: files,
		txs:   ledger.NewTransactionService(tx, repos, rc, rec, nil, clock),
		debts: ledger.NewDebtService(tx, repos, rc, rec, nil, clock),
	}
	f.shipments = usecase.NewShipmentUseCase(tx, repos, files, rec, nil, zerolog.Nop(), clock)
	f.products = usecase.NewProductUseCase(tx, repos, rc, files, rec, nil, zerolog.Nop(), clock)
	f.rates = usecase.NewExchangeRateUseCase(repos.Rates, rec, nil, clock)
	f.stocks = usecase.NewStockUseCase(tx, repos, rc, rec, zerolog.Nop())
	f.audits = usecase.NewAuditUseCase(store.Audit())
	return f
}

func str(s string) *string { return &s }
func intp(n int) *int      { return &n }

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f *fixture) shipment(t *testing.T, name string) *dto.ShipmentResponse {
	t.Helper()
	sh, err := f.shipments.Create(f.ctx, dto.ShipmentRequest{Name: str(name)})
	require.NoError(t, err)
	return sh
}

func (f *fixture) product(t *testing.T, shipmentID, name string) *dto.ProductResponse {
	t.Helper()
	p, err := f.products.Create(f.ctx, shipmentID, dto.ProductRequest{Name: str(name), SalePriceCFA: decp("6500")})
	require.NoError(t, err)
	return p
}

func (f *fixture) movimientos(t *testing.T, shipmentID, productID string) {
	t.Helper()
	_, err := f.txs.Create(f.ctx, shipmentID, dto.TransactionRequest{ProductID: productID, Type: "purchase", Quantity: intp(10)})
	require.NoError(t, err)
	_, err = f.txs.Create(f.ctx, shipmentID, dto.TransactionRequest{ProductID: productID, Type: "sale", Quantity: intp(2)})
	require.NoError(t, err)
	_, err = f.debts.Create(f.ctx, shipmentID, dto.DebtRequest{ProductID: productID, Client: "Fatou", Quantity: intp(1)})
	require.NoError(t, err)
}

func (f *fixture) lastAudit(t *testing.T) dto.AuditEventResponse {
	t.Helper()
	list, err := f.audits.List(f.ctx, "", repository.Page{})
	require.NoError(t, err)
	require.NotEmpty(t, list.Items)
	return list.Items[0]
}

func TestEnvio_Validaciones(t *testing.T) {
	f := newFixture(t)

	_, err := f.shipments.Create(f.ctx, dto.ShipmentRequest{})
	assertField(t, err, "name")

	_, err = f.shipments.Create(f.ctx, dto.ShipmentRequest{Name: str("   ")})
	assertField(t, err, "name")

	start := dto.NewDate(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	end := dto.NewDate(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	_, err = f.shipments.Create(f.ctx, dto.ShipmentRequest{Name: str("Mars"), StartDate: &start, EndDate: &end})
	assertField(t, err, "end_date")

	sh := f.shipment(t, "Mars")
	assert.Equal(t, "2026-03-10", sh.StartDate.Format("2006-01-02"))
	_, err = f.shipments.Create(f.ctx, dto.ShipmentRequest{Name: str("mars")})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = f.shipments.GetByID(f.ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEnvio_ActualizarParcial(t *testing.T) {
	f := newFixture(t)
	sh := f.shipment(t, "Avril")

	up, err := f.shipments.Update(f.ctx, sh.ID, dto.ShipmentRequest{Notes: str("conteneur 2"), Archived: boolp(true)})
	require.NoError(t, err)
	assert.Equal(t, "Avril", up.Name)
	assert.Equal(t, "conteneur 2", up.Notes)
	assert.True(t, up.Archived)

	ev := f.lastAudit(t)
	assert.Equal(t, "update", ev.Action)
	assert.Equal(t, "envoi", ev.Entity)
	assert.Equal(t, "awa", ev.Username)
}

func TestEnvio_EliminarEnCascada(t *testing.T) {
	f := newFixture(t)
	sh := f.shipment(t, "Mai")
	p := f.product(t, sh.ID, "Pagne wax")
	f.movimientos(t, sh.ID, p.ID)
	_, err := f.products.SetImage(f.ctx, sh.ID, p.ID, pngHeader)
	require.NoError(t, err)
	require.Equal(t, 1, f.files.Len())

	counts, err := f.shipments.Delete(f.ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.DeletedProducts)
	assert.Equal(t, 3, counts.DeletedTransactions) // compra, venta y préstamo vinculado
	assert.Equal(t, 1, counts.DeletedDebts)
	assert.Zero(t, f.files.Len())

	got, err := f.repos.Products.GetByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	ev := f.lastAudit(t)
	assert.Equal(t, "delete", ev.Action)
	assert.EqualValues(t, 3, ev.Metadata["deleted_transactions"])

	_, err = f.shipments.Delete(f.ctx, sh.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProducto_CrearConStock(t *testing.T) {
	f := newFixture(t)
	sh := f.shipment(t, "Juin")

	_, err := f.products.Create(f.ctx, sh.ID, dto.ProductRequest{Name: str("Sac")})
	assertField(t, err, "sale_price_cfa")
	_, err = f.products.Create(f.ctx, sh.ID, dto.ProductRequest{Name: str("Sac"), SalePriceCFA: decp("0")})
	assertField(t, err, "sale_price_cfa")
	_, err = f.products.Create(f.ctx, "otro", dto.ProductRequest{Name: str("Sac"), SalePriceCFA: decp("10")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p := f.product(t, sh.ID, "Sac")
	require.NotNil(t, p.Stock)
	assert.Zero(t, p.Stock.QuantityRemaining)

	st, err := f.repos.Stocks.Get(f.ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, st)
}

func TestProducto_OtroEnvioNoExiste(t *testing.T) {
	f := newFixture(t)
	a := f.shipment(t, "A")
	b := f.shipment(t, "B")
	p := f.product(t, a.ID, "Sac")

	_, err := f.products.GetByID(f.ctx, b.ID, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.products.Update(f.ctx, b.ID, p.ID, dto.ProductRequest{Category: str("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.products.Delete(f.ctx, b.ID, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProducto_ImagenReemplazaYBorraLaAnterior(t *testing.T) {
	f := newFixture(t)
	sh := f.shipment(t, "Juillet")
	p := f.product(t, sh.ID, "Chaise pliante")

	_, err := f.products.SetImage(f.ctx, sh.ID, p.ID, []byte("no es una imagen"))
	assertField(t, err, "image")

	first, err := f.products.SetImage(f.ctx, sh.ID, p.ID, pngHeader)
	require.NoError(t, err)
	assert.Contains(t, first.Image, "/media/products/"+p.ID+"_chaise-pliante_")
	assert.Contains(t, first.Image, ".png")

	second, err := f.products.SetImage(f.ctx, sh.ID, p.ID, append([]byte{0xff, 0xd8}, pngHeader...))
	require.NoError(t, err)
	assert.Contains(t, second.Image, ".jpg")
	assert.Equal(t, 1, f.files.Len())

	f.files.FailSave = true
	_, err = f.products.SetImage(f.ctx, sh.ID, p.ID, pngHeader)
	assert.Error(t, err)
	got, err := f.products.GetByID(f.ctx, sh.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Image, got.Image)
}

func TestProducto_EliminarCuentaDependientes(t *testing.T) {
	f := newFixture(t)
	sh := f.shipment(t, "Août")
	p := f.product(t, sh.ID, "Table")
	f.movimientos(t, sh.ID, p.ID)

	counts, err := f.products.Delete(f.ctx, sh.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.DeletedProducts)
	assert.Equal(t, 3, counts.DeletedTransactions)
	assert.Equal(t, 1, counts.DeletedDebts)

	list, err := f.products.List(f.ctx, sh.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProducto_PurgeSoloDelEnvio(t *testing.T) {
	f := newFixture(t)
	a := f.shipment(t, "A")
	b := f.shipment(t, "B")
	p1 := f.product(t, a.ID, "Pagne")
	f.product(t, a.ID, "Sac")
	keep := f.product(t, b.ID, "Pagne")
	f.movimientos(t, a.ID, p1.ID)

	counts, err := f.products.Purge(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.CascadeCounts{DeletedProducts: 2, DeletedTransactions: 3, DeletedDebts: 1}, *counts)

	left, err := f.products.List(f.ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, keep.ID, left[0].ID)

	ev := f.lastAudit(t)
	assert.Equal(t, "purge", ev.Action)
	assert.Equal(t, a.ID, ev.ShipmentID)
	assert.EqualValues(t, 2, ev.Metadata["deleted_products"])

	_, err = f.products.Purge(f.ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTasa_FechaPorDefectoYCreador(t *testing.T) {
	f := newFixture(t)

	cur, err := f.rates.Current(f.ctx)
	require.NoError(t, err)
	assert.False(t, cur.Rate.Valid)

	_, err = f.rates.Create(f.ctx, dto.ExchangeRateRequest{Rate: decimal.Zero})
	assertField(t, err, "rate")

	r, err := f.rates.Create(f.ctx, dto.ExchangeRateRequest{Rate: decimal.RequireFromString("655.957")})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", r.EffectiveDate.Format("2006-01-02"))
	assert.Equal(t, "u1", r.CreatedBy)

	old := dto.NewDate(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	_, err = f.rates.Create(f.ctx, dto.ExchangeRateRequest{Rate: decimal.NewFromInt(600), EffectiveDate: &old})
	require.NoError(t, err)

	cur, err = f.rates.Current(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "655.957", cur.Rate.Decimal.String())

	require.NoError(t, f.rates.Delete(f.ctx, r.ID))
	cur, err = f.rates.Current(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "600", cur.Rate.Decimal.String())

	assert.ErrorIs(t, f.rates.Delete(f.ctx, r.ID), domain.ErrNotFound)
}

func TestStock_ListaPaginadaConNombres(t *testing.T) {
	f := newFixture(t)
	sh := f.shipment(t, "Sept")
	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		ids = append(ids, f.product(t, sh.ID, name).ID)
	}

	page, err := f.stocks.List(f.ctx, sh.ID, repository.Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[0], page.Items[0].ProductID)
	assert.Equal(t, "A", page.Items[0].ProductName)
	assert.Equal(t, ids[1], page.NextAfterID)

	rest, err := f.stocks.List(f.ctx, sh.ID, repository.Page{AfterID: page.NextAfterID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Empty(t, rest.NextAfterID)
}

func TestStock_RecalcularTodoReparaFotos(t *testing.T) {
	f := newFixture(t)
	sh := f.shipment(t, "Oct")
	p := f.product(t, sh.ID, "Pagne")
	f.movimientos(t, sh.ID, p.ID)

	require.NoError(t, f.repos.Stocks.Upsert(f.ctx, &entity.Stock{ProductID: p.ID, Initial: 99, Remaining: 99}))

	n, err := f.stocks.RecomputeAll(f.ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	st, err := f.repos.Stocks.Get(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, st.Initial)
	assert.Equal(t, 2, st.Sold)
	assert.Equal(t, 1, st.Loaned)
	assert.Equal(t, 7, st.Remaining)
}

func TestAuditoria_FiltroPorEnvioYCursor(t *testing.T) {
	f := newFixture(t)
	a := f.shipment(t, "A")
	f.product(t, a.ID, "Pagne")
	f.product(t, a.ID, "Sac")

	byShipment, err := f.audits.List(f.ctx, a.ID, repository.Page{})
	require.NoError(t, err)
	require.Len(t, byShipment.Items, 3)
	assert.Equal(t, "Sac", byShipment.Items[0].ObjectRepr)

	asc, err := f.audits.List(f.ctx, a.ID, repository.Page{AfterID: "0", Limit: 2})
	require.NoError(t, err)
	require.Len(t, asc.Items, 2)
	assert.Equal(t, "envoi", asc.Items[0].Entity)
	assert.Equal(t, asc.Items[1].ID, asc.NextAfterID)
}

func boolp(b bool) *bool { return &b }

func assertField(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	ve, ok := domain.AsValidation(err)
	require.True(t, ok, "se esperaba error de validación, se obtuvo %v", err)
	assert.Equal(t, field, ve.Field)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
