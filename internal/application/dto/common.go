package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ErrorResponse cuerpo de error HTTP. Field indica el campo en errores de validación.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ListResponse página de resultados con cursor.
type ListResponse[T any] struct {
	Items       []T    `json:"items"`
	NextAfterID string `json:"next_after_id,omitempty"`
}

const dateLayout = "2006-01-02"

// Date fecha de calendario; acepta "2006-01-02" o RFC 3339 en la entrada.
type Date struct {
	time.Time
}

// NewDate construye Date a partir de t.
func NewDate(t time.Time) Date { return Date{Time: t} }

// DatePtr convierte *time.Time en *Date.
func DatePtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	d := Date{Time: *t}
	return &d
}

// TimePtr devuelve nil o la fecha a medianoche UTC.
func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("fecha inválida: %w", err)
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// OptionalDate fecha de una edición parcial. Set indica que el campo vino en el cuerpo;
// Set con Value nil es un null explícito.
type OptionalDate struct {
	Set   bool
	Value *Date
}

// SetDate fecha presente.
func SetDate(t time.Time) OptionalDate {
	d := Date{Time: t}
	return OptionalDate{Set: true, Value: &d}
}

// NullDate null explícito: borra la fecha.
func NullDate() OptionalDate { return OptionalDate{Set: true} }

// TimePtr nil si falta o es null.
func (o OptionalDate) TimePtr() *time.Time { return o.Value.TimePtr() }

func (o OptionalDate) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return o.Value.MarshalJSON()
}

// UnmarshalJSON también se invoca con null, lo que distingue null de un campo ausente.
func (o *OptionalDate) UnmarshalJSON(b []byte) error {
	o.Set = true
	o.Value = nil
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var d Date
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	o.Value = &d
	return nil
}

// ParseDate interpreta "2006-01-02" o RFC 3339 y devuelve la fecha a medianoche UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha inválida %q (formato AAAA-MM-DD)", s)
	}
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), nil
}
