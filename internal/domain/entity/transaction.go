package entity

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType variante cerrada del tipo de transacción.
type TransactionType uint8

const (
	TransactionPurchase TransactionType = iota + 1
	TransactionSale
	TransactionLoan   // interno: generado por una deuda abierta
	TransactionReturn // legado: ya no se genera
)

var transactionTypeNames = map[TransactionType]string{
	TransactionPurchase: "purchase",
	TransactionSale:     "sale",
	TransactionLoan:     "loan",
	TransactionReturn:   "return",
}

// Alias aceptados en la entrada (incluye los nombres históricos en francés).
var transactionTypeAliases = map[string]TransactionType{
	"purchase": TransactionPurchase,
	"achat":    TransactionPurchase,
	"sale":     TransactionSale,
	"vente":    TransactionSale,
	"loan":     TransactionLoan,
	"pret":     TransactionLoan,
	"return":   TransactionReturn,
	"retour":   TransactionReturn,
}

// ParseTransactionType convierte texto a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	t, ok := transactionTypeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("tipo de transacción desconocido: %q", s)
	}
	return t, nil
}

func (t TransactionType) String() string {
	if s, ok := transactionTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TransactionType(%d)", uint8(t))
}

// Valid indica si t es una de las cuatro variantes.
func (t TransactionType) Valid() bool {
	_, ok := transactionTypeNames[t]
	return ok
}

// Public indica si la API de escritura acepta el tipo (solo compra y venta).
func (t TransactionType) Public() bool {
	return t == TransactionPurchase || t == TransactionSale
}

// Label nombre legible usado en exportaciones.
func (t TransactionType) Label() string {
	switch t {
	case TransactionPurchase:
		return "Achat"
	case TransactionSale:
		return "Vente"
	case TransactionLoan:
		return "Prêt"
	case TransactionReturn:
		return "Retour"
	}
	return t.String()
}

func (t TransactionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("tipo de transacción inválido: %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *TransactionType) UnmarshalText(b []byte) error {
	v, err := ParseTransactionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Value implementa driver.Valuer (columna TEXT con CHECK).
func (t TransactionType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("tipo de transacción inválido: %d", uint8(t))
	}
	return t.String(), nil
}

// Scan implementa sql.Scanner.
func (t *TransactionType) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return t.UnmarshalText([]byte(v))
	case []byte:
		return t.UnmarshalText(v)
	case nil:
		return fmt.Errorf("tipo de transacción nulo")
	}
	return fmt.Errorf("tipo de transacción: valor no soportado %T", src)
}

// Transaction movimiento de compra o venta sobre un producto.
// Product y Type no cambian después de crearse.
type Transaction struct {
	ID           string
	ProductID    string
	Type         TransactionType
	Quantity     int
	UnitPriceEUR decimal.NullDecimal
	UnitPriceCFA decimal.NullDecimal
	ExchangeRate decimal.NullDecimal
	OccurredAt   time.Time
	Counterparty string
	Notes        string
	CreatedAt    time.Time
}
