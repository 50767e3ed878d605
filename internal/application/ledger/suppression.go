package ledger

import "context"

type suppressKey struct{}

// WithRecomputeSuppressed devuelve un contexto en el que AfterWrite no recalcula stock.
// El interruptor vive solo en la cadena de llamadas que recibe ese contexto; quien lo usa
// debe invocar Recompute una vez por producto afectado al terminar.
func WithRecomputeSuppressed(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressKey{}, true)
}

// RecomputeSuppressed indica si el contexto desactiva los recálculos posteriores a escritura.
func RecomputeSuppressed(ctx context.Context) bool {
	v, _ := ctx.Value(suppressKey{}).(bool)
	return v
}
