package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil; Rollback en cualquier otro caso (incluido panic).
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, r repository.Repos) error) error
}

// Clock fuente de tiempo con la zona horaria del negocio.
type Clock struct {
	now func() time.Time
	loc *time.Location
}

// NewClock reloj real en loc (UTC si es nil).
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{now: time.Now, loc: loc}
}

// FixedClock reloj detenido en t; útil en tests.
func FixedClock(t time.Time) Clock {
	return Clock{now: func() time.Time { return t }, loc: t.Location()}
}

// Now hora actual en la zona del negocio.
func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now().In(c.Location())
}

// Location zona horaria del negocio.
func (c Clock) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Today fecha actual a medianoche.
func (c Clock) Today() time.Time {
	return c.Midnight(c.Now())
}

// Midnight fecha de calendario de d a medianoche en la zona del negocio.
func (c Clock) Midnight(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, c.Location())
}
