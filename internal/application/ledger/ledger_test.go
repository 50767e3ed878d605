package ledger_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Envois-api/internal/application/audit"
	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/application/ledger"
	"github.com/jhoicas/Envois-api/internal/domain"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
	"github.com/jhoicas/Envois-api/internal/infrastructure/memory"
)

var hoy = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repos    repository.Repos
	tx       *memory.TxRunner
	rec      *ledger.Recomputer
	txs      *ledger.TransactionService
	debts    *ledger.DebtService
	shipment *entity.Shipment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := ledger.FixedClock(hoy)
	f := &fixture{
		repos: store.Repos(),
		tx:    memory.NewTxRunner(store),
		rec:   ledger.NewRecomputer(clock, nil),
	}
	f.txs = ledger.NewTransactionService(f.tx, f.repos, f.rec, audit.Nop{}, nil, clock)
	f.debts = ledger.NewDebtService(f.tx, f.repos, f.rec, audit.Nop{}, nil, clock)
	f.shipment = &entity.Shipment{ID: entity.NewID(), Name: "Envoi mars", StartDate: hoy}
	require.NoError(t, f.repos.Shipments.Create(context.Background(), f.shipment))
	return f
}

func (f *fixture) product(t *testing.T, name, saleCFA string) *entity.Product {
	t.Helper()
	p := &entity.Product{ID: entity.NewID(), ShipmentID: f.shipment.ID, Name: name}
	if saleCFA != "" {
		p.SalePriceCFA = decimal.NewNullDecimal(decimal.RequireFromString(saleCFA))
	}
	require.NoError(t, f.repos.Products.Create(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, productID string) *entity.Stock {
	t.Helper()
	st, err := f.repos.Stocks.Get(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, st)
	return st
}

func (f *fixture) move(typ, productID string, qty int) (*dto.TransactionResponse, error) {
	return f.txs.Create(context.Background(), f.shipment.ID, dto.TransactionRequest{
		ProductID: productID,
		Type:      typ,
		Quantity:  &qty,
	})
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestVenta_SinStockSeRechaza(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Pagne", "5000")

	_, err := f.move("purchase", p.ID, 5)
	require.NoError(t, err)
	_, err = f.move("sale", p.ID, 3)
	require.NoError(t, err)

	_, err = f.move("sale", p.ID, 3)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	ve, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "quantity", ve.Field)

	st := f.stock(t, p.ID)
	assert.Equal(t, 5, st.Initial)
	assert.Equal(t, 3, st.Sold)
	assert.Equal(t, 2, st.Remaining)
}

func TestCompra_SiempreAceptada(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Sac", "")

	for i := 0; i < 3; i++ {
		_, err := f.move("achat", p.ID, 1000)
		require.NoError(t, err)
	}
	assert.Equal(t, 3000, f.stock(t, p.ID).Remaining)
}

func TestTransaccion_TiposDeDeudaRechazados(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Sac", "100")

	for _, typ := range []string{"loan", "return", "pret"} {
		_, err := f.move(typ, p.ID, 1)
		require.ErrorIs(t, err, domain.ErrInvalidInput, typ)
	}
}

func TestTransaccion_ProductoDeOtroEnvio(t *testing.T) {
	f := newFixture(t)
	otro := &entity.Shipment{ID: entity.NewID(), Name: "Otro", StartDate: hoy}
	require.NoError(t, f.repos.Shipments.Create(context.Background(), otro))
	p := &entity.Product{ID: entity.NewID(), ShipmentID: otro.ID, Name: "Ajeno"}
	require.NoError(t, f.repos.Products.Create(context.Background(), p))

	_, err := f.move("purchase", p.ID, 1)
	ve, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "product_id", ve.Field)
}

func TestVenta_SinPrecioNiDefecto(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Sin precio", "")
	_, err := f.move("purchase", p.ID, 2)
	require.NoError(t, err)

	_, err = f.move("sale", p.ID, 1)
	ve, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "unit_price_cfa", ve.Field)
}

func TestVenta_PrecioPorDefectoDelProducto(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Pagne", "7500")
	_, err := f.move("purchase", p.ID, 2)
	require.NoError(t, err)

	out, err := f.move("sale", p.ID, 2)
	require.NoError(t, err)
	assert.True(t, out.UnitPriceCFA.Decimal.Equal(decimal.NewFromInt(7500)))
	assert.True(t, out.TotalCFA.Decimal.Equal(decimal.NewFromInt(15000)))
}

func TestConversion_TasaVigente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repos.Rates.Create(ctx, &entity.ExchangeRate{
		ID: entity.NewID(), Rate: decimal.NewFromInt(650), EffectiveDate: hoy,
	}))
	p := f.product(t, "Montre", "")

	qty := 4
	out, err := f.txs.Create(ctx, f.shipment.ID, dto.TransactionRequest{
		ProductID:    p.ID,
		Type:         "purchase",
		Quantity:     &qty,
		UnitPriceEUR: dec("10"),
	})
	require.NoError(t, err)
	assert.True(t, out.ExchangeRate.Decimal.Equal(decimal.NewFromInt(650)))
	assert.True(t, out.UnitPriceCFA.Decimal.Equal(decimal.NewFromInt(6500)))
	assert.True(t, out.TotalEUR.Decimal.Equal(decimal.NewFromInt(40)))
	assert.True(t, out.TotalCFA.Decimal.Equal(decimal.NewFromInt(26000)))
}

func TestConversion_SinTasaNoSeAsumeUno(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Montre", "")

	qty := 1
	out, err := f.txs.Create(context.Background(), f.shipment.ID, dto.TransactionRequest{
		ProductID:    p.ID,
		Type:         "purchase",
		Quantity:     &qty,
		UnitPriceEUR: dec("10"),
	})
	require.NoError(t, err)
	assert.False(t, out.UnitPriceCFA.Valid)
	assert.False(t, out.ExchangeRate.Valid)
	assert.False(t, out.TotalCFA.Valid)
}

func TestActualizar_NuevoPrecioEURRederivaCFA(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Montre", "")

	qty := 1
	out, err := f.txs.Create(ctx, f.shipment.ID, dto.TransactionRequest{
		ProductID:    p.ID,
		Type:         "purchase",
		Quantity:     &qty,
		UnitPriceEUR: dec("10"),
		ExchangeRate: dec("655.957"),
	})
	require.NoError(t, err)
	assert.True(t, out.ExchangeRate.Decimal.Equal(decimal.RequireFromString("655.96")))
	assert.True(t, out.UnitPriceCFA.Decimal.Equal(decimal.RequireFromString("6559.6")))

	require.NoError(t, f.repos.Rates.Create(ctx, &entity.ExchangeRate{
		ID: entity.NewID(), Rate: decimal.NewFromInt(600), EffectiveDate: hoy,
	}))
	out, err = f.txs.Update(ctx, f.shipment.ID, out.ID, dto.TransactionRequest{UnitPriceEUR: dec("20")})
	require.NoError(t, err)
	assert.True(t, out.UnitPriceCFA.Decimal.Equal(decimal.NewFromInt(12000)))
}

func TestActualizar_VentaNoPuedeDejarStockNegativo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Pagne", "100")
	_, err := f.move("purchase", p.ID, 5)
	require.NoError(t, err)
	sale, err := f.move("sale", p.ID, 4)
	require.NoError(t, err)

	qty := 5
	_, err = f.txs.Update(ctx, f.shipment.ID, sale.ID, dto.TransactionRequest{Quantity: &qty})
	require.NoError(t, err, "la propia venta se excluye del saldo")
	qty = 6
	_, err = f.txs.Update(ctx, f.shipment.ID, sale.ID, dto.TransactionRequest{Quantity: &qty})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 0, f.stock(t, p.ID).Remaining)

	_, err = f.txs.Update(ctx, f.shipment.ID, sale.ID, dto.TransactionRequest{Type: "purchase"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEliminar_RecalculaStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Pagne", "100")
	buy, err := f.move("purchase", p.ID, 5)
	require.NoError(t, err)

	require.NoError(t, f.txs.Delete(ctx, f.shipment.ID, buy.ID))
	assert.Equal(t, 0, f.stock(t, p.ID).Initial)
	require.ErrorIs(t, f.txs.Delete(ctx, f.shipment.ID, buy.ID), domain.ErrNotFound)
}

func TestRecompute_Idempotente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Pagne", "100")
	_, err := f.move("purchase", p.ID, 7)
	require.NoError(t, err)

	first := f.stock(t, p.ID)
	err = f.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		again, err := f.rec.Recompute(ctx, r, p.ID)
		if err != nil {
			return err
		}
		assert.True(t, first.SameQuantities(again))
		assert.Equal(t, first.UpdatedAt, again.UpdatedAt, "sin cambios no se reescribe")
		return nil
	})
	require.NoError(t, err)
}

func TestSupresion_AfterWriteNoRecalcula(t *testing.T) {
	f := newFixture(t)
	ctx := ledger.WithRecomputeSuppressed(context.Background())
	p := f.product(t, "Pagne", "100")

	_, err := f.move("purchase", p.ID, 1)
	require.NoError(t, err)
	err = f.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		require.True(t, ledger.RecomputeSuppressed(ctx))
		qty := 3
		return f.txs.Apply(ctx, r, p, &entity.Transaction{
			ID: entity.NewID(), ProductID: p.ID, Type: entity.TransactionPurchase, Quantity: qty, OccurredAt: hoy,
		}, false)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.stock(t, p.ID).Initial, "suprimido: la foto queda atrasada")

	err = f.tx.Run(context.Background(), func(ctx context.Context, r repository.Repos) error {
		_, err := f.rec.Recompute(ctx, r, p.ID)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 4, f.stock(t, p.ID).Initial)
}

func TestUnidadAtomica_RollbackSiFalla(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Pagne", "100")

	err := f.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		require.NoError(t, r.Transactions.Create(ctx, &entity.Transaction{
			ID: entity.NewID(), ProductID: p.ID, Type: entity.TransactionPurchase, Quantity: 9, OccurredAt: hoy,
		}))
		return domain.ErrConflict
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	n, err := f.repos.Transactions.CountByProducts(ctx, []string{p.ID})
	require.NoError(t, err)
	assert.Zero(t, n)
}

// Cualquier secuencia aceptada deja remaining == max(compras - ventas - deudas abiertas, 0)
// y nunca acepta una venta que deje el saldo negativo.
func TestPropiedad_SecuenciasAleatorias(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Pagne", "100")
	rnd := rand.New(rand.NewSource(42))

	var purchased, sold, loaned int
	var openDebts []string
	for i := 0; i < 200; i++ {
		qty := rnd.Intn(6) + 1
		switch rnd.Intn(4) {
		case 0:
			_, err := f.move("purchase", p.ID, qty)
			require.NoError(t, err)
			purchased += qty
		case 1:
			_, err := f.move("sale", p.ID, qty)
			if purchased-sold-loaned-qty < 0 {
				require.ErrorIs(t, err, domain.ErrInsufficientStock)
				continue
			}
			require.NoError(t, err)
			sold += qty
		case 2:
			d, err := f.debts.Create(ctx, f.shipment.ID, dto.DebtRequest{
				ProductID: p.ID, Client: "Awa", Quantity: &qty,
			})
			if purchased-sold-loaned < qty {
				require.ErrorIs(t, err, domain.ErrInsufficientStock)
				continue
			}
			require.NoError(t, err)
			loaned += qty
			openDebts = append(openDebts, d.ID)
		case 3:
			if len(openDebts) == 0 {
				continue
			}
			id := openDebts[0]
			openDebts = openDebts[1:]
			d, err := f.debts.Get(ctx, f.shipment.ID, id)
			require.NoError(t, err)
			_, err = f.debts.Update(ctx, f.shipment.ID, id, dto.DebtRequest{ActualReturnDate: dto.SetDate(hoy)})
			require.NoError(t, err)
			loaned -= d.Quantity
			sold += d.Quantity
		}

		st := f.stock(t, p.ID)
		require.Equal(t, purchased, st.Initial, "paso %d", i)
		require.Equal(t, sold, st.Sold, "paso %d", i)
		require.Equal(t, loaned, st.Loaned, "paso %d", i)
		require.Equal(t, purchased-sold-loaned, st.Remaining, "paso %d", i)
		require.GreaterOrEqual(t, st.Remaining, 0)
	}
}
