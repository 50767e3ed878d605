package ports

import "context"

// FileStore define el puerto de salida para el almacén binario (imágenes de productos).
// Cualquier adaptador (disco local, memoria, objeto remoto) debe implementar esta interfaz;
// la aplicación solo conoce el localizador devuelto por Save.
type FileStore interface {
	// Save guarda data bajo un nombre sugerido y devuelve el localizador definitivo
	// (puede diferir si el nombre ya existe).
	Save(ctx context.Context, name string, data []byte) (string, error)
	// Delete elimina el archivo; un localizador inexistente no es error.
	Delete(ctx context.Context, locator string) error
	// URL pública del localizador.
	URL(locator string) string
}
