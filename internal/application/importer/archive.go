package importer

import (
	"archive/zip"
	"bytes"
	"io"
	"path"
	"strings"

	"github.com/jhoicas/Envois-api/internal/domain"
)

// archive imágenes del zip adjunto indexadas por nombre base en minúscula.
type archive struct {
	files map[string][]byte
	total int
}

// readArchive lee el zip completo; un zip ilegible rechaza la importación entera.
func readArchive(data []byte) (*archive, error) {
	a := &archive{files: map[string][]byte{}}
	if len(data) == 0 {
		return a, nil
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.Malformed("zip de imágenes inválido: %v", err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		a.total++
		name := baseName(f.Name)
		if name == "" || f.UncompressedSize64 == 0 {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, domain.Malformed("zip de imágenes inválido: %v", err)
		}
		b, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes))
		rc.Close()
		if err != nil {
			return nil, domain.Malformed("zip de imágenes inválido: %v", err)
		}
		if len(b) > 0 {
			a.files[strings.ToLower(name)] = b
		}
	}
	return a, nil
}

// lookup busca por nombre base sin distinguir mayúsculas; las rutas del valor se ignoran.
func (a *archive) lookup(hint string) (string, []byte, bool) {
	name := baseName(hint)
	if name == "" {
		return "", nil, false
	}
	b, ok := a.files[strings.ToLower(name)]
	return name, b, ok
}

// baseName último segmento de una ruta con / o \.
func baseName(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	return path.Base(p)
}
