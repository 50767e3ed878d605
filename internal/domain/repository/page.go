package repository

// Límites de paginación por cursor para listados de solo lectura.
const (
	DefaultPageSize = 200
	MaxPageSize     = 500
)

// Page paginación por cursor: elementos con id > AfterID, como máximo Limit.
type Page struct {
	AfterID string
	Limit   int
}

// Normalize aplica el valor por defecto y recorta el límite a [1, MaxPageSize].
func (p Page) Normalize() Page {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageSize
	case p.Limit > MaxPageSize:
		p.Limit = MaxPageSize
	}
	return p
}
