package importer

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/xuri/excelize/v2"
)

// Tope por entrada al leer imágenes del paquete o del zip adjunto.
const maxEntryBytes = 20 << 20

type embedded struct {
	col  int // 1-based
	data []byte
}

// rowImages imágenes incrustadas por fila (1-based, como en la hoja).
type rowImages map[int][]embedded

func (ri rowImages) count() int {
	n := 0
	for _, imgs := range ri {
		n += len(imgs)
	}
	return n
}

func (ri rowImages) merge(o rowImages) {
	for row, imgs := range o {
		ri[row] = append(ri[row], imgs...)
	}
}

// dedupe elimina repeticiones por (columna, tamaño, primeros 16 bytes, últimos 16 bytes);
// las dos estrategias de extracción suelen encontrar la misma imagen.
func (ri rowImages) dedupe() {
	type key struct {
		col, size  int
		head, tail string
	}
	for row, imgs := range ri {
		seen := map[key]struct{}{}
		out := imgs[:0]
		for _, img := range imgs {
			if len(img.data) == 0 {
				continue
			}
			k := key{img.col, len(img.data), string(head(img.data)), string(tail(img.data))}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, img)
		}
		ri[row] = out
	}
}

// nearest imagen de la fila más cercana a la columna col (0 = sin preferencia).
func (ri rowImages) nearest(row, col int) []byte {
	imgs := append([]embedded(nil), ri[row]...)
	if len(imgs) == 0 {
		return nil
	}
	if col > 0 {
		sort.SliceStable(imgs, func(i, j int) bool { return abs(imgs[i].col-col) < abs(imgs[j].col-col) })
	}
	return imgs[0].data
}

// rows filas con imagen, ordenadas, como máximo n.
func (ri rowImages) rows(n int) []int {
	out := make([]int, 0, len(ri))
	for row, imgs := range ri {
		if len(imgs) > 0 {
			out = append(out, row)
		}
	}
	sort.Ints(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// pictureImages usa los objetos de imagen que expone excelize.
func pictureImages(f *excelize.File, sheet string) rowImages {
	out := rowImages{}
	cells, err := f.GetPictureCells(sheet)
	if err != nil {
		return out
	}
	for _, cell := range cells {
		col, row, err := excelize.CellNameToCoordinates(cell)
		if err != nil {
			continue
		}
		pics, err := f.GetPictures(sheet, cell)
		if err != nil {
			continue
		}
		for _, p := range pics {
			if len(p.File) > 0 {
				out[row] = append(out[row], embedded{col: col, data: p.File})
			}
		}
	}
	return out
}

// drawingImages lee directamente el XML de dibujos de la hoja y sus relaciones.
// Un paquete ilegible devuelve un mapa vacío: la importación sigue sin imágenes.
func drawingImages(data []byte, sheet string) rowImages {
	out := rowImages{}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return out
	}
	pkg := packageFiles{files: map[string]*zip.File{}}
	for _, f := range zr.File {
		pkg.files[f.Name] = f
	}

	sheetPath, ok := pkg.sheetPath(sheet)
	if !ok {
		return out
	}
	for _, drawing := range pkg.relTargets(sheetPath, "/drawing") {
		rels := pkg.relMap(drawing)
		doc, err := pkg.xml(drawing)
		if err != nil {
			continue
		}
		for _, anchor := range doc.Root().ChildElements() {
			if anchor.Tag != "oneCellAnchor" && anchor.Tag != "twoCellAnchor" {
				continue
			}
			col, row, ok := anchorCell(anchor)
			if !ok {
				continue
			}
			blip := anchor.FindElement(".//blip")
			if blip == nil {
				continue
			}
			rid := relAttr(blip, "embed")
			if rid == "" {
				rid = relAttr(blip, "link")
			}
			target, ok := rels[rid]
			if !ok {
				continue
			}
			img, err := pkg.read(target)
			if err != nil || len(img) == 0 {
				continue
			}
			out[row] = append(out[row], embedded{col: col, data: img})
		}
	}
	return out
}

type packageFiles struct {
	files map[string]*zip.File
}

func (p packageFiles) read(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("%s no existe", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxEntryBytes))
}

func (p packageFiles) xml(name string) (*etree.Document, error) {
	b, err := p.read(name)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(b); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%s vacío", name)
	}
	return doc, nil
}

// sheetPath resuelve la parte XML de la hoja a partir de workbook.xml y sus relaciones.
func (p packageFiles) sheetPath(sheet string) (string, bool) {
	doc, err := p.xml("xl/workbook.xml")
	if err != nil {
		return "", false
	}
	rid := ""
	for _, el := range doc.FindElements("//sheets/sheet") {
		if el.SelectAttrValue("name", "") == sheet {
			rid = relAttr(el, "id")
			break
		}
	}
	if rid == "" {
		return "", false
	}
	target, ok := p.relMap("xl/workbook.xml")[rid]
	return target, ok
}

// relTargets destinos internos de las relaciones de part cuyo Type termina en typeSuffix.
func (p packageFiles) relTargets(part, typeSuffix string) []string {
	doc, err := p.xml(relsPath(part))
	if err != nil {
		return nil
	}
	var out []string
	for _, rel := range doc.FindElements("//Relationship") {
		typ := rel.SelectAttrValue("Type", "")
		target := rel.SelectAttrValue("Target", "")
		if !strings.HasSuffix(typ, typeSuffix) && !strings.Contains(target, "drawings/") {
			continue
		}
		if rel.SelectAttrValue("TargetMode", "") == "External" {
			continue
		}
		if joined, ok := zipJoin(path.Dir(part), target); ok {
			if _, exists := p.files[joined]; exists {
				out = append(out, joined)
			}
		}
	}
	return out
}

// relMap Id → ruta dentro del paquete; se ignoran destinos externos o que escapan de la raíz.
func (p packageFiles) relMap(part string) map[string]string {
	out := map[string]string{}
	doc, err := p.xml(relsPath(part))
	if err != nil {
		return out
	}
	for _, rel := range doc.FindElements("//Relationship") {
		id := rel.SelectAttrValue("Id", "")
		target := rel.SelectAttrValue("Target", "")
		if id == "" || target == "" || rel.SelectAttrValue("TargetMode", "") == "External" {
			continue
		}
		if joined, ok := zipJoin(path.Dir(part), target); ok {
			out[id] = joined
		}
	}
	return out
}

func relsPath(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

// zipJoin une base y target dentro del paquete. Devuelve false para destinos con esquema,
// vacíos o que salen de la raíz del paquete.
func zipJoin(base, target string) (string, bool) {
	if target == "" || strings.Contains(target, "://") {
		return "", false
	}
	absolute := strings.HasPrefix(target, "/")
	target = strings.TrimLeft(target, "/")
	if target == "" {
		return "", false
	}
	var joined string
	if absolute {
		joined = path.Clean(target)
	} else {
		joined = path.Clean(path.Join(base, target))
	}
	joined = strings.TrimLeft(joined, "/")
	if joined == "" || joined == "." || joined == ".." || strings.HasPrefix(joined, "../") {
		return "", false
	}
	return joined, true
}

func anchorCell(anchor *etree.Element) (col, row int, ok bool) {
	from := anchor.SelectElement("from")
	if from == nil {
		return 0, 0, false
	}
	c, r := from.SelectElement("col"), from.SelectElement("row")
	if c == nil || r == nil {
		return 0, 0, false
	}
	ci, err1 := strconv.Atoi(strings.TrimSpace(c.Text()))
	ri, err2 := strconv.Atoi(strings.TrimSpace(r.Text()))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return ci + 1, ri + 1, true
}

// relAttr lee un atributo con prefijo de namespace (r:id, r:embed) sin depender del prefijo.
func relAttr(el *etree.Element, key string) string {
	for _, a := range el.Attr {
		if a.Key == key && a.Space != "" {
			return a.Value
		}
	}
	return ""
}

// SniffExtension decide la extensión por los bytes mágicos; "" si no es PNG, JPEG, GIF ni WEBP.
func SniffExtension(b []byte) string {
	switch {
	case bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")):
		return "png"
	case bytes.HasPrefix(b, []byte{0xff, 0xd8}):
		return "jpg"
	case bytes.HasPrefix(b, []byte("GIF87a")), bytes.HasPrefix(b, []byte("GIF89a")):
		return "gif"
	case len(b) >= 12 && bytes.HasPrefix(b, []byte("RIFF")) && string(b[8:12]) == "WEBP":
		return "webp"
	}
	return ""
}

func head(b []byte) []byte {
	if len(b) > 16 {
		return b[:16]
	}
	return b
}

func tail(b []byte) []byte {
	if len(b) > 16 {
		return b[len(b)-16:]
	}
	return b
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
