package ledger_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/domain"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

func intp(v int) *int { return &v }

func linkedOf(t *testing.T, f *fixture, debtID string) []*entity.Transaction {
	t.Helper()
	d, err := f.repos.Debts.GetByID(context.Background(), debtID)
	require.NoError(t, err)
	list, err := f.repos.Transactions.List(context.Background(), repository.TransactionFilter{ProductID: d.ProductID})
	require.NoError(t, err)
	var out []*entity.Transaction
	for _, tx := range list {
		if tx.Type == entity.TransactionLoan || tx.Notes != "" {
			out = append(out, tx)
		}
	}
	return out
}

func TestDeuda_ExactamenteElRestante(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Pagne", "5000")
	_, err := f.move("purchase", p.ID, 4)
	require.NoError(t, err)

	d, err := f.debts.Create(ctx, f.shipment.ID, dto.DebtRequest{ProductID: p.ID, Client: "Fatou", Quantity: intp(4)})
	require.NoError(t, err)
	assert.Equal(t, string(entity.DebtOpen), d.Status)
	assert.True(t, d.TotalCFA.Decimal.Equal(decimal.NewFromInt(20000)))

	st := f.stock(t, p.ID)
	assert.Equal(t, 4, st.Loaned)
	assert.Equal(t, 0, st.Remaining)

	_, err = f.debts.Create(ctx, f.shipment.ID, dto.DebtRequest{ProductID: p.ID, Client: "Awa", Quantity: intp(1)})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, err = f.move("sale", p.ID, 1)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestDeuda_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Sin precio", "")
	_, err := f.move("purchase", p.ID, 4)
	require.NoError(t, err)

	cases := map[string]dto.DebtRequest{
		"client":         {ProductID: p.ID, Client: "  ", Quantity: intp(1)},
		"quantity":       {ProductID: p.ID, Client: "Awa", Quantity: intp(0)},
		"product_id":     {Client: "Awa", Quantity: intp(1)},
		"unit_price_cfa": {ProductID: p.ID, Client: "Awa", Quantity: intp(1)},
	}
	for field, in := range cases {
		_, err := f.debts.Create(ctx, f.shipment.ID, in)
		ve, ok := domain.AsValidation(err)
		require.True(t, ok, field)
		assert.Equal(t, field, ve.Field)
	}

	d, err := f.debts.Create(ctx, f.shipment.ID, dto.DebtRequest{
		ProductID: p.ID, Client: "Awa", Quantity: intp(1), UnitPriceCFA: dec("1200"),
	})
	require.NoError(t, err)
	assert.True(t, d.UnitPriceCFA.Decimal.Equal(decimal.NewFromInt(1200)))
}

// venta → préstamo → venta: siempre una única transacción vinculada, del tipo que corresponde.
func TestDeuda_IdaYVueltaDePago(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Pagne", "5000")
	_, err := f.move("purchase", p.ID, 10)
	require.NoError(t, err)

	paid := dto.SetDate(hoy)
	d, err := f.debts.Create(ctx, f.shipment.ID, dto.DebtRequest{
		ProductID: p.ID, Client: "Fatou", Quantity: intp(3), ActualReturnDate: paid,
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.DebtReturned), d.Status)
	loanTxID := d.LoanTransactionID

	linked := linkedOf(t, f, d.ID)
	require.Len(t, linked, 1)
	assert.Equal(t, entity.TransactionSale, linked[0].Type)
	assert.Equal(t, "Dette #"+d.ID+" (payée)", linked[0].Notes)
	st := f.stock(t, p.ID)
	assert.Equal(t, 3, st.Sold)
	assert.Equal(t, 0, st.Loaned)

	d, err = f.debts.Update(ctx, f.shipment.ID, d.ID, dto.DebtRequest{ActualReturnDate: dto.NullDate()})
	require.NoError(t, err)
	assert.Equal(t, string(entity.DebtOpen), d.Status)
	linked = linkedOf(t, f, d.ID)
	require.Len(t, linked, 1)
	assert.Equal(t, entity.TransactionLoan, linked[0].Type)
	assert.Equal(t, "Dette #"+d.ID+" (non payée)", linked[0].Notes)
	assert.Equal(t, loanTxID, linked[0].ID)
	st = f.stock(t, p.ID)
	assert.Equal(t, 0, st.Sold)
	assert.Equal(t, 3, st.Loaned)
	assert.Equal(t, 7, st.Remaining)

	d, err = f.debts.Update(ctx, f.shipment.ID, d.ID, dto.DebtRequest{ActualReturnDate: paid})
	require.NoError(t, err)
	linked = linkedOf(t, f, d.ID)
	require.Len(t, linked, 1)
	assert.Equal(t, entity.TransactionSale, linked[0].Type)
	assert.True(t, linked[0].UnitPriceCFA.Decimal.Equal(decimal.NewFromInt(5000)))
	assert.False(t, linked[0].UnitPriceEUR.Valid)
	assert.Equal(t, 3, f.stock(t, p.ID).Sold)
}

// Una edición que solo cambia las notas no toca las fechas: la deuda sigue pagada.
func TestDeuda_EdicionParcialConservaFechas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Pagne", "5000")
	_, err := f.move("purchase", p.ID, 10)
	require.NoError(t, err)

	d, err := f.debts.Create(ctx, f.shipment.ID, dto.DebtRequest{
		ProductID: p.ID, Client: "Fatou", Quantity: intp(3),
		ExpectedReturnDate: dto.SetDate(hoy.AddDate(0, 0, 7)),
		ActualReturnDate:   dto.SetDate(hoy),
	})
	require.NoError(t, err)
	require.Equal(t, string(entity.DebtReturned), d.Status)

	nota := "relance faite"
	d, err = f.debts.Update(ctx, f.shipment.ID, d.ID, dto.DebtRequest{Notes: &nota})
	require.NoError(t, err)
	assert.Equal(t, string(entity.DebtReturned), d.Status)
	assert.Equal(t, nota, d.Notes)
	require.NotNil(t, d.ActualReturnDate)
	require.NotNil(t, d.ExpectedReturnDate)
	assert.Equal(t, "2026-03-17", d.ExpectedReturnDate.Format("2006-01-02"))

	linked := linkedOf(t, f, d.ID)
	require.Len(t, linked, 1)
	assert.Equal(t, entity.TransactionSale, linked[0].Type)
	st := f.stock(t, p.ID)
	assert.Equal(t, 3, st.Sold)
	assert.Equal(t, 0, st.Loaned)

	d, err = f.debts.Update(ctx, f.shipment.ID, d.ID, dto.DebtRequest{ExpectedReturnDate: dto.NullDate()})
	require.NoError(t, err)
	assert.Nil(t, d.ExpectedReturnDate)
	assert.NotNil(t, d.ActualReturnDate, "solo se borra la fecha enviada como null")
}

func TestDeuda_FechasOpcionalesDesdeJSON(t *testing.T) {
	var in dto.DebtRequest
	require.NoError(t, json.Unmarshal([]byte(`{"notes":"x","actual_return_date":null}`), &in))
	assert.False(t, in.ExpectedReturnDate.Set)
	assert.True(t, in.ActualReturnDate.Set)
	assert.Nil(t, in.ActualReturnDate.Value)

	require.NoError(t, json.Unmarshal([]byte(`{"expected_return_date":"2026-04-01"}`), &in))
	require.True(t, in.ExpectedReturnDate.Set)
	assert.Equal(t, "2026-04-01", in.ExpectedReturnDate.Value.Format("2006-01-02"))
}

func TestDeuda_ProductoYCantidadInmutables(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Pagne", "100")
	_, err := f.move("purchase", p.ID, 5)
	require.NoError(t, err)
	d, err := f.debts.Create(ctx, f.shipment.ID, dto.DebtRequest{ProductID: p.ID, Client: "Awa", Quantity: intp(2)})
	require.NoError(t, err)

	_, err = f.debts.Update(ctx, f.shipment.ID, d.ID, dto.DebtRequest{Quantity: intp(3)})
	ve, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "quantity", ve.Field)

	_, err = f.debts.Update(ctx, f.shipment.ID, d.ID, dto.DebtRequest{Quantity: intp(2), Client: "Awa Diop"})
	require.NoError(t, err)
}

func TestDeuda_VencidaSeDerivaAlLeer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Pagne", "100")
	_, err := f.move("purchase", p.ID, 5)
	require.NoError(t, err)

	d, err := f.debts.Create(ctx, f.shipment.ID, dto.DebtRequest{
		ProductID: p.ID, Client: "Awa", Quantity: intp(1), ExpectedReturnDate: dto.SetDate(hoy.AddDate(0, 0, -1)),
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.DebtOverdue), d.Status)

	list, err := f.debts.List(ctx, f.shipment.ID, "", string(entity.DebtOverdue))
	require.NoError(t, err)
	require.Len(t, list, 1)
	list, err = f.debts.List(ctx, f.shipment.ID, "", string(entity.DebtReturned))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeuda_EliminarBorraTransaccionYLiberaStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Pagne", "100")
	_, err := f.move("purchase", p.ID, 5)
	require.NoError(t, err)
	d, err := f.debts.Create(ctx, f.shipment.ID, dto.DebtRequest{ProductID: p.ID, Client: "Awa", Quantity: intp(2)})
	require.NoError(t, err)

	require.NoError(t, f.debts.Delete(ctx, f.shipment.ID, d.ID))
	n, err := f.repos.Transactions.CountByProducts(ctx, []string{p.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "solo queda la compra")
	assert.Equal(t, 5, f.stock(t, p.ID).Remaining)
	require.ErrorIs(t, f.debts.Delete(ctx, f.shipment.ID, d.ID), domain.ErrNotFound)
}

func TestDeuda_TransaccionVinculadaPerdidaSeRecrea(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Pagne", "100")
	_, err := f.move("purchase", p.ID, 5)
	require.NoError(t, err)
	d, err := f.debts.Create(ctx, f.shipment.ID, dto.DebtRequest{ProductID: p.ID, Client: "Awa", Quantity: intp(2)})
	require.NoError(t, err)

	require.NoError(t, f.repos.Transactions.Delete(ctx, d.LoanTransactionID))
	cur, err := f.repos.Debts.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, cur.LoanTransactionID)

	out, err := f.debts.Update(ctx, f.shipment.ID, d.ID, dto.DebtRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, out.LoanTransactionID)
	assert.NotEqual(t, d.LoanTransactionID, out.LoanTransactionID)
	require.Len(t, linkedOf(t, f, d.ID), 1)
}
