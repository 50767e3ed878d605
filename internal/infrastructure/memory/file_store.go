package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/Envois-api/internal/application/ports"
)

var _ ports.FileStore = (*FileStore)(nil)

// FileStore almacén binario en memoria. FailSave fuerza errores de escritura en tests.
type FileStore struct {
	mu       sync.Mutex
	files    map[string][]byte
	FailSave bool
}

// NewFileStore crea un almacén vacío.
func NewFileStore() *FileStore {
	return &FileStore{files: map[string][]byte{}}
}

func (f *FileStore) Save(_ context.Context, name string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSave {
		return "", fmt.Errorf("almacén no disponible")
	}
	locator := name
	for i := 1; ; i++ {
		if _, ok := f.files[locator]; !ok {
			break
		}
		locator = fmt.Sprintf("%s.%d", name, i)
	}
	f.files[locator] = append([]byte(nil), data...)
	return locator, nil
}

func (f *FileStore) Delete(_ context.Context, locator string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, locator)
	return nil
}

func (f *FileStore) URL(locator string) string {
	if locator == "" {
		return ""
	}
	return "/media/" + locator
}

// Get devuelve el contenido guardado bajo locator.
func (f *FileStore) Get(locator string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.files[locator]
	return b, ok
}

// Len número de archivos guardados.
func (f *FileStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}
