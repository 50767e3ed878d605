package ledger

import "github.com/shopspring/decimal"

// Decimales con los que se guardan precios y tasas.
const Places = 2

// Round2 redondea a 2 decimales, mitad alejándose de cero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// ToCFA convierte un importe en EUR a CFA con la tasa dada: round2(eur * rate).
func ToCFA(eur, rate decimal.Decimal) decimal.Decimal {
	return Round2(eur.Mul(rate))
}

// ToEUR convierte un importe en CFA a EUR. ok es false si la tasa no es positiva.
func ToEUR(cfa, rate decimal.Decimal) (decimal.Decimal, bool) {
	if !rate.IsPositive() {
		return decimal.Zero, false
	}
	return Round2(cfa.Div(rate)), true
}

// Remaining = max(purchased - sold - loaned, 0).
func Remaining(purchased, sold, loaned int) int {
	r := purchased - sold - loaned
	if r < 0 {
		return 0
	}
	return r
}

// Available es el saldo sin recortar; negativo significa que falta mercancía.
func Available(purchased, sold, loaned int) int {
	return purchased - sold - loaned
}

// CoalesceRate devuelve la tasa registrada si existe, si no la vigente.
func CoalesceRate(recorded, current decimal.NullDecimal) decimal.NullDecimal {
	if recorded.Valid && !recorded.Decimal.IsZero() {
		return recorded
	}
	return current
}

// LineTotalEUR total en EUR de una línea: precio EUR propio o CFA convertido con rate.
// ok es false si no hay información suficiente.
func LineTotalEUR(qty int, eur, cfa, rate decimal.NullDecimal) (decimal.Decimal, bool) {
	q := decimal.NewFromInt(int64(qty))
	if eur.Valid {
		return q.Mul(eur.Decimal), true
	}
	if !cfa.Valid || !rate.Valid || !rate.Decimal.IsPositive() {
		return decimal.Zero, false
	}
	return q.Mul(cfa.Decimal.Div(rate.Decimal)), true
}

// LineTotalCFA total en CFA de una línea: precio CFA propio o EUR convertido con rate.
func LineTotalCFA(qty int, eur, cfa, rate decimal.NullDecimal) (decimal.Decimal, bool) {
	q := decimal.NewFromInt(int64(qty))
	if cfa.Valid {
		return q.Mul(cfa.Decimal), true
	}
	if !eur.Valid || !rate.Valid {
		return decimal.Zero, false
	}
	return q.Mul(eur.Decimal).Mul(rate.Decimal), true
}
