package importer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeHeader reduce un encabezado a tokens ascii en minúscula unidos por "_".
// "Prix d'achat (€)" → "prix_d_achat_euro"; "PVU FCFA" → "pvu_cfa".
func NormalizeHeader(v string) string {
	s := strings.ToLower(strings.TrimSpace(v))
	if s == "" {
		return ""
	}
	s = strings.NewReplacer("€", "euro", "fcfa", "cfa", "xof", "cfa").Replace(s)
	s = stripAccents(s)
	s = strings.Trim(nonAlnum.ReplaceAllString(s, "_"), "_")
	parts := strings.Split(s, "_")
	out := parts[:0]
	for _, p := range parts {
		switch p {
		case "":
			continue
		case "eur":
			p = "euro"
		}
		out = append(out, p)
	}
	return strings.Join(out, "_")
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Sinónimos aceptados por campo lógico, en orden de preferencia.
var (
	nameHeaders = []string{
		"nom", "produit", "nom_produit", "nom_du_produit", "product", "name",
		"designation", "article", "libelle",
	}
	characteristicsHeaders = []string{
		"caracteristiques", "caracteristique", "characteristics", "description", "details", "specifications",
	}
	categoryHeaders = []string{"categorie", "category", "cat", "famille"}
	imageURLHeaders = []string{"image_url", "url", "lien_image", "url_image"}
	imageFileHeaders = []string{"image", "photo", "image_file", "fichier_image", "image_fichier"}

	purchaseEURHeaders = []string{
		"prix_achat_unitaire_euro", "prix_achat_euro", "prix_achat", "pau_euro", "pau", "purchase_price_eur",
	}
	purchaseCFAHeaders = []string{"prix_achat_unitaire_cfa", "prix_achat_cfa", "pau_cfa", "purchase_price_cfa"}
	saleCFAHeaders     = []string{
		"prix_vente_unitaire_cfa", "prix_vente_cfa", "prix_vente", "pvu_cfa", "pvu", "sale_price_cfa",
	}
	saleEURHeaders = []string{"prix_vente_unitaire_euro", "prix_vente_euro", "pvu_euro", "sale_price_eur"}

	quantityHeaders = []string{
		"quantite", "quantite_achetee", "quantite_achete", "quantite_initiale", "quantite_initial",
		"qte", "qte_achetee", "qte_achete", "stock", "stock_initial", "quantity", "qualite",
	}
)

// Prefijos de token para la detección difusa de columnas.
var (
	quantityInclude  = []string{"quantite", "qte", "qualite", "stock", "quantity"}
	quantityExclude  = []string{"vend", "vente", "restant", "dette", "pret", "pretee", "sold"}
	imageURLInclude  = []string{"url", "lien"}
	imageFileInclude = []string{"image", "photo"}
	imageFileExclude = []string{"url"}
)

// HeaderInfo diagnóstico de un encabezado (índice 1-based).
type HeaderInfo struct {
	Index      int    `json:"index"`
	Original   string `json:"original"`
	Normalized string `json:"normalized"`
}

// header indexa la fila de encabezados normalizada.
type header struct {
	names []string       // normalizados, por columna
	index map[string]int // último índice de cada nombre
	order []string       // nombres únicos en orden de primera aparición
	infos []HeaderInfo
}

func newHeader(row []string) *header {
	h := &header{index: map[string]int{}}
	for i, raw := range row {
		n := NormalizeHeader(raw)
		h.names = append(h.names, n)
		if n != "" || raw != "" {
			h.infos = append(h.infos, HeaderInfo{Index: i + 1, Original: raw, Normalized: n})
		}
		if n == "" {
			continue
		}
		if _, seen := h.index[n]; !seen {
			h.order = append(h.order, n)
		}
		h.index[n] = i
	}
	return h
}

// value devuelve la primera celda no vacía entre los sinónimos.
func (h *header) value(row []string, names []string) (string, bool) {
	for _, n := range names {
		i, ok := h.index[n]
		if !ok || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			return v, true
		}
	}
	return "", false
}

// detect busca primero un sinónimo exacto; si no, la primera columna con algún token que
// empiece por un prefijo de include y ninguno por un prefijo de exclude.
func (h *header) detect(keys, include, exclude []string) (string, int, bool) {
	for _, k := range keys {
		if i, ok := h.index[k]; ok {
			return k, i, true
		}
	}
	if len(include) == 0 {
		return "", 0, false
	}
	for _, name := range h.order {
		parts := strings.Split(name, "_")
		if anyPrefix(parts, exclude) || !anyPrefix(parts, include) {
			continue
		}
		return name, h.index[name], true
	}
	return "", 0, false
}

func anyPrefix(parts, prefixes []string) bool {
	for _, p := range parts {
		for _, pre := range prefixes {
			if strings.HasPrefix(p, pre) {
				return true
			}
		}
	}
	return false
}
