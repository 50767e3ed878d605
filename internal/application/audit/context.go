package audit

import "context"

// Actor identidad autenticada del llamador.
type Actor struct {
	UserID   string
	Username string
	Admin    bool
}

// Request datos de la petición HTTP que originó la acción.
type Request struct {
	Path   string
	Method string
	IP     string
}

type actorKey struct{}
type requestKey struct{}

// WithActor asocia el actor al contexto.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom devuelve el actor del contexto (vacío si no hay).
func ActorFrom(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey{}).(Actor)
	return a
}

// WithRequest asocia los datos de la petición al contexto.
func WithRequest(ctx context.Context, r Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// RequestFrom devuelve los datos de la petición del contexto.
func RequestFrom(ctx context.Context) Request {
	r, _ := ctx.Value(requestKey{}).(Request)
	return r
}
