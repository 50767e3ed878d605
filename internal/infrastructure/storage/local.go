// Package storage guarda las imágenes de productos en disco local.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Envois-api/internal/application/ports"
)

var _ ports.FileStore = (*Local)(nil)

// Local guarda archivos bajo root y los sirve bajo baseURL.
type Local struct {
	root    string
	baseURL string
}

// NewLocal crea el directorio raíz si no existe.
func NewLocal(root, baseURL string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio de medios: %w", err)
	}
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save escribe data; si el nombre ya existe añade un sufijo aleatorio al stem.
func (l *Local) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	locator, err := cleanLocator(name)
	if err != nil {
		return "", err
	}
	full := filepath.Join(l.root, filepath.FromSlash(locator))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("crear directorio: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		ext := path.Ext(locator)
		locator = strings.TrimSuffix(locator, ext) + "_" + uuid.NewString()[:8] + ext
		full = filepath.Join(l.root, filepath.FromSlash(locator))
		f, err = os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("crear archivo: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("escribir archivo: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("cerrar archivo: %w", err)
	}
	return locator, nil
}

// Delete elimina el archivo; si ya no existe no es error.
func (l *Local) Delete(_ context.Context, locator string) error {
	clean, err := cleanLocator(locator)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(l.root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("borrar archivo: %w", err)
	}
	return nil
}

// URL devuelve baseURL/locator.
func (l *Local) URL(locator string) string {
	if locator == "" {
		return ""
	}
	return l.baseURL + "/" + locator
}

// cleanLocator rechaza rutas absolutas y cualquier salida del directorio raíz.
func cleanLocator(name string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))[1:]
	if clean == "" || clean == "." || !fs.ValidPath(clean) {
		return "", fmt.Errorf("nombre de archivo inválido %q", name)
	}
	return clean, nil
}
