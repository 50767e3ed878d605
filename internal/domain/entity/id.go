package entity

import "github.com/oklog/ulid/v2"

// NewID genera un ULID: ordenable lexicográficamente por creación.
// El orden por id sostiene el cursor after_id y la regla "id más bajo" de la fusión.
func NewID() string {
	return ulid.Make().String()
}
