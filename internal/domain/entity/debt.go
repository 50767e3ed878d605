package entity

import "time"

// DebtStatus estado derivado de una deuda; nunca se asigna a mano.
type DebtStatus string

const (
	DebtOpen     DebtStatus = "open"
	DebtReturned DebtStatus = "returned"
	DebtOverdue  DebtStatus = "overdue"
)

// Debt venta a crédito: el cliente se lleva la mercancía y paga después.
// LoanTransactionID apunta a la transacción vinculada (loan mientras no se paga, sale después).
// ReturnTransactionID es un campo heredado que se mantiene vacío.
type Debt struct {
	ID                  string
	ProductID           string
	Client              string
	Quantity            int
	LoanDate            time.Time
	ExpectedReturnDate  *time.Time
	ActualReturnDate    *time.Time
	Status              DebtStatus
	LoanTransactionID   string
	ReturnTransactionID string
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Paid indica si la deuda ya fue saldada.
func (d *Debt) Paid() bool { return d.ActualReturnDate != nil }

// DeriveDebtStatus calcula el estado a partir de las fechas y del día actual.
func DeriveDebtStatus(expected, actual *time.Time, today time.Time) DebtStatus {
	if actual != nil {
		return DebtReturned
	}
	if expected != nil && dayKey(*expected) < dayKey(today) {
		return DebtOverdue
	}
	return DebtOpen
}

// RefreshStatus recalcula Status; se llama en cada guardado.
func (d *Debt) RefreshStatus(today time.Time) {
	d.Status = DeriveDebtStatus(d.ExpectedReturnDate, d.ActualReturnDate, today)
}

// DateOnly trunca t a medianoche en su propia zona horaria.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dayKey compara fechas de calendario sin importar la zona horaria de cada valor.
func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
