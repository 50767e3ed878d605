// Package importer carga productos de un envío desde una hoja xlsx, con imágenes
// incrustadas o tomadas de un zip adjunto.
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Envois-api/internal/application/audit"
	"github.com/jhoicas/Envois-api/internal/application/ledger"
	"github.com/jhoicas/Envois-api/internal/application/ports"
	"github.com/jhoicas/Envois-api/internal/domain"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	money "github.com/jhoicas/Envois-api/internal/domain/ledger"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
	"github.com/jhoicas/Envois-api/pkg/metrics"
)

// Mode estrategia de alta de filas.
type Mode string

const (
	ModeAppend Mode = "append" // cada fila crea un producto
	ModeUpsert Mode = "upsert" // coincidencia exacta de nombre dentro del envío
)

// ParseMode vacío equivale a append.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAppend:
		return ModeAppend, nil
	case ModeUpsert:
		return ModeUpsert, nil
	}
	return "", domain.Malformed("modo inválido %q (valores: append|upsert)", s)
}

const previewRows = 12

// Request archivo xlsx y, opcionalmente, un zip con imágenes referenciadas por nombre.
type Request struct {
	ShipmentID string
	Mode       string
	Workbook   []byte
	Images     []byte
}

// RowError error de una fila; la fila se descarta y las demás siguen.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DetectedColumns encabezados normalizados elegidos para los campos difusos.
type DetectedColumns struct {
	Quantity *string `json:"quantity"`
	ImageURL *string `json:"image_url"`
	Image    *string `json:"image"`
}

// Report resultado de una importación.
type Report struct {
	Mode                  Mode            `json:"mode"`
	Created               int             `json:"created"`
	Updated               int             `json:"updated"`
	Merged                int             `json:"merged"`
	Skipped               int             `json:"skipped"`
	ImagesImported        int             `json:"images_imported"`
	DetectedColumns       DetectedColumns `json:"detected_columns"`
	ImagesFound           int             `json:"images_found"`
	ImagesFoundDrawingXML int             `json:"images_found_drawing_xml"`
	ImagesFoundLibrary    int             `json:"images_found_library"`
	ImagesRowsPreview     []int           `json:"images_rows_preview"`
	ImagesArchiveFiles    int             `json:"images_archive_files"`
	ImagesArchiveTotal    int             `json:"images_archive_total_entries"`
	Headers               []HeaderInfo    `json:"headers"`
	Errors                []RowError      `json:"errors"`
}

// Service pipeline de importación.
type Service struct {
	tx      ledger.TxRunner
	repos   repository.Repos
	stock   *ledger.Recomputer
	txs     *ledger.TransactionService
	files   ports.FileStore
	audit   audit.Recorder
	metrics *metrics.Metrics
	log     zerolog.Logger
	clock   ledger.Clock
}

// NewService construye el servicio de importación.
func NewService(
	tx ledger.TxRunner,
	repos repository.Repos,
	stock *ledger.Recomputer,
	txs *ledger.TransactionService,
	files ports.FileStore,
	rec audit.Recorder,
	m *metrics.Metrics,
	log zerolog.Logger,
	clock ledger.Clock,
) *Service {
	return &Service{
		tx: tx, repos: repos, stock: stock, txs: txs, files: files,
		audit: rec, metrics: m, log: log, clock: clock,
	}
}

// layout columnas detectadas una vez por archivo.
type layout struct {
	h           *header
	quantityIdx int // -1 si no se detectó
	imageCol    int // 1-based, 0 si no hay columna de imagen
}

// rowData valores ya validados de una fila.
type rowData struct {
	number          int
	name            string
	category        *string
	characteristics *string
	imageURL        *string
	imageHint       string
	quantity        int
	purchaseEUR     decimal.NullDecimal
	saleCFA         decimal.NullDecimal
}

// Import procesa la hoja activa fila a fila. Cada fila es una unidad atómica: si falla se
// revierte y se anota en Errors; las anteriores quedan confirmadas.
// Un archivo ilegible, un zip inválido o un modo desconocido se rechazan antes de tocar datos.
func (s *Service) Import(ctx context.Context, req Request) (*Report, error) {
	mode, err := ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	if len(req.Workbook) == 0 {
		return nil, domain.Malformed("archivo Excel vacío")
	}
	zipImages, err := readArchive(req.Images)
	if err != nil {
		return nil, err
	}
	wb, err := excelize.OpenReader(bytes.NewReader(req.Workbook))
	if err != nil {
		return nil, domain.Malformed("no se pudo leer el archivo Excel: %v", err)
	}
	defer wb.Close()

	sheet := wb.GetSheetName(wb.GetActiveSheetIndex())
	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, domain.Malformed("no se pudo leer la hoja %q: %v", sheet, err)
	}
	shipment, err := s.repos.Shipments.GetByID(ctx, req.ShipmentID)
	if err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, fmt.Errorf("envío %s: %w", req.ShipmentID, domain.ErrNotFound)
	}

	rep := &Report{
		Mode:               mode,
		ImagesArchiveFiles: len(zipImages.files),
		ImagesArchiveTotal: zipImages.total,
		ImagesRowsPreview:  []int{},
		Headers:            []HeaderInfo{},
		Errors:             []RowError{},
	}
	if len(rows) == 0 {
		s.finish(ctx, req.ShipmentID, rep)
		return rep, nil
	}

	fromXML := drawingImages(req.Workbook, sheet)
	fromLib := pictureImages(wb, sheet)
	rep.ImagesFoundDrawingXML = fromXML.count()
	rep.ImagesFoundLibrary = fromLib.count()
	images := rowImages{}
	images.merge(fromXML)
	images.merge(fromLib)
	images.dedupe()
	rep.ImagesFound = images.count()
	rep.ImagesRowsPreview = images.rows(previewRows)

	lay := s.detect(rows[0], rep)
	rate, err := ledger.CurrentRate(ctx, s.repos.Rates)
	if err != nil {
		return nil, err
	}

	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		number := i + 2
		if blank(row) {
			rep.Skipped++
			s.metrics.ImportRow(metrics.ImportRowSkipped)
			continue
		}
		data, rowErr := parseRow(lay, row, number, rate)
		if rowErr != nil {
			s.rowFailed(rep, *rowErr)
			continue
		}
		img, imgName := pickImage(images, zipImages, lay, data)
		outcome, merged, err := s.importRow(ctx, req.ShipmentID, mode, data, img, imgName, rate)
		if err != nil {
			s.rowFailed(rep, rowErrorFrom(number, err))
			continue
		}
		switch outcome {
		case metrics.ImportRowCreated:
			rep.Created++
		case metrics.ImportRowUpdated:
			rep.Updated++
		}
		rep.Merged += merged
		if merged > 0 {
			s.metrics.ImportRow(metrics.ImportRowMerged)
		}
		s.metrics.ImportRow(outcome)
		if img.saved {
			rep.ImagesImported++
		}
	}

	s.finish(ctx, req.ShipmentID, rep)
	return rep, nil
}

func (s *Service) detect(headerRow []string, rep *Report) layout {
	h := newHeader(headerRow)
	rep.Headers = append(rep.Headers, h.infos...)
	lay := layout{h: h, quantityIdx: -1}

	if name, idx, ok := h.detect(quantityHeaders, quantityInclude, quantityExclude); ok {
		rep.DetectedColumns.Quantity = &name
		lay.quantityIdx = idx
	}
	urlName, urlIdx, urlOK := h.detect(imageURLHeaders, imageURLInclude, nil)
	if urlOK {
		rep.DetectedColumns.ImageURL = &urlName
	}
	fileName, fileIdx, fileOK := h.detect(imageFileHeaders, imageFileInclude, imageFileExclude)
	if fileOK {
		rep.DetectedColumns.Image = &fileName
	}
	switch {
	case fileOK:
		lay.imageCol = fileIdx + 1
	case urlOK:
		lay.imageCol = urlIdx + 1
	}
	return lay
}

// parseRow valida los valores de la fila; no toca la base de datos.
func parseRow(lay layout, row []string, number int, rate decimal.NullDecimal) (*rowData, *RowError) {
	h := lay.h
	name, ok := h.value(row, nameHeaders)
	if !ok {
		return nil, &RowError{Row: number, Field: "name", Message: "nombre requerido"}
	}
	d := &rowData{number: number, name: name}

	qtyRaw := ""
	if lay.quantityIdx >= 0 && lay.quantityIdx < len(row) {
		qtyRaw = row[lay.quantityIdx]
	} else if v, ok := h.value(row, quantityHeaders); ok {
		qtyRaw = v
	}
	qty, _, err := parseQuantity(qtyRaw)
	if err != nil {
		return nil, &RowError{Row: number, Field: "quantity", Message: "cantidad inválida"}
	}
	if qty < 0 {
		return nil, &RowError{Row: number, Field: "quantity", Message: "cantidad inválida (debe ser >= 0)"}
	}
	d.quantity = qty

	if v, ok := h.value(row, categoryHeaders); ok {
		d.category = &v
	}
	if v, ok := h.value(row, characteristicsHeaders); ok {
		d.characteristics = &v
	}
	if v, ok := h.value(row, imageURLHeaders); ok && isURL(v) {
		d.imageURL = &v
	}
	if v, ok := h.value(row, imageFileHeaders); ok {
		d.imageHint = v
	}

	purchaseEUR, err := cellDecimal(h, row, purchaseEURHeaders)
	if err != nil {
		return nil, &RowError{Row: number, Field: "purchase_price_eur", Message: "precio de compra inválido"}
	}
	if !purchaseEUR.Valid {
		purchaseCFA, err := cellDecimal(h, row, purchaseCFAHeaders)
		if err != nil {
			return nil, &RowError{Row: number, Field: "purchase_price_eur", Message: "precio de compra inválido"}
		}
		if purchaseCFA.Valid && rate.Valid {
			if eur, ok := money.ToEUR(purchaseCFA.Decimal, rate.Decimal); ok {
				purchaseEUR = decimal.NewNullDecimal(eur)
			}
		}
	}
	if purchaseEUR.Valid {
		purchaseEUR.Decimal = money.Round2(purchaseEUR.Decimal)
	}
	d.purchaseEUR = purchaseEUR

	saleCFA, err := cellDecimal(h, row, saleCFAHeaders)
	if err != nil {
		return nil, &RowError{Row: number, Field: "sale_price_cfa", Message: "precio de venta inválido"}
	}
	if !saleCFA.Valid {
		saleEUR, err := cellDecimal(h, row, saleEURHeaders)
		if err != nil {
			return nil, &RowError{Row: number, Field: "sale_price_cfa", Message: "precio de venta inválido"}
		}
		if saleEUR.Valid {
			if !rate.Valid {
				return nil, &RowError{Row: number, Field: "sale_price_cfa",
					Message: "precio de venta en EUR sin tasa EUR→CFA declarada"}
			}
			saleCFA = decimal.NewNullDecimal(money.ToCFA(saleEUR.Decimal, rate.Decimal))
		}
	}
	if saleCFA.Valid {
		saleCFA.Decimal = money.Round2(saleCFA.Decimal)
	}
	d.saleCFA = saleCFA
	return d, nil
}

func cellDecimal(h *header, row []string, names []string) (decimal.NullDecimal, error) {
	v, ok := h.value(row, names)
	if !ok {
		return decimal.NullDecimal{}, nil
	}
	d, ok, err := parseDecimal(v)
	if err != nil || !ok {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// pendingImage imagen elegida para la fila; saved se marca tras confirmar la fila.
type pendingImage struct {
	data  []byte
	ext   string
	saved bool
}

// pickImage prefiere la imagen incrustada más cercana a la columna de imagen; si no hay,
// busca en el zip por el nombre de la celda. Formatos desconocidos se ignoran.
func pickImage(images rowImages, zipImages *archive, lay layout, d *rowData) (*pendingImage, string) {
	var (
		data []byte
		name string
	)
	if b := images.nearest(d.number, lay.imageCol); b != nil {
		data = b
	} else if d.imageHint != "" {
		if n, b, ok := zipImages.lookup(d.imageHint); ok {
			data, name = b, n
		}
	}
	ext := SniffExtension(data)
	if ext == "" {
		return &pendingImage{}, ""
	}
	return &pendingImage{data: data, ext: ext}, name
}

// importRow crea o actualiza el producto de la fila y su compra en una sola unidad atómica.
// Devuelve el resultado para los contadores y cuántos duplicados se fusionaron.
func (s *Service) importRow(
	ctx context.Context,
	shipmentID string,
	mode Mode,
	d *rowData,
	img *pendingImage,
	imgName string,
	rate decimal.NullDecimal,
) (string, int, error) {
	var (
		outcome  string
		merged   int
		saved    string
		oldImage string
	)
	ctx = ledger.WithRecomputeSuppressed(ctx)
	err := s.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		p, out, n, err := s.resolveProduct(ctx, r, shipmentID, mode, d)
		if err != nil {
			return err
		}
		outcome, merged = out, n
		// Un producto nuevo siempre necesita su fila de stock, aunque no tenga compra.
		touched := n > 0 || out == metrics.ImportRowCreated

		if len(img.data) > 0 {
			loc, err := s.files.Save(ctx, imageFileName(p.ID, d.number, imgName, img.ext), img.data)
			if err != nil {
				s.log.Warn().Err(err).Int("row", d.number).Str("product_id", p.ID).
					Msg("importación: no se pudo guardar la imagen")
			} else {
				saved, oldImage = loc, p.Image
				p.Image = loc
				p.UpdatedAt = s.clock.Now()
				if err := r.Products.Update(ctx, p); err != nil {
					return err
				}
			}
		}

		if d.quantity > 0 {
			now := s.clock.Now()
			t := &entity.Transaction{
				ID:           entity.NewID(),
				ProductID:    p.ID,
				Type:         entity.TransactionPurchase,
				Quantity:     d.quantity,
				UnitPriceEUR: p.PurchasePriceEUR,
				OccurredAt:   now,
				CreatedAt:    now,
			}
			if t.UnitPriceEUR.Valid && rate.Valid {
				t.ExchangeRate = rate
			}
			if err := s.txs.Apply(ctx, r, p, t, false); err != nil {
				return err
			}
			touched = true
		}
		if touched {
			if _, err := s.stock.Recompute(ctx, r, p.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if saved != "" {
			s.deleteFile(ctx, saved, d.number)
		}
		return "", 0, err
	}
	if saved != "" {
		img.saved = true
		if oldImage != "" && oldImage != saved {
			s.deleteFile(ctx, oldImage, d.number)
		}
	}
	return outcome, merged, nil
}

// resolveProduct aplica append o upsert. En upsert con varios productos del mismo nombre se
// conserva el de id más bajo y se le reasigna el historial de los demás.
func (s *Service) resolveProduct(
	ctx context.Context,
	r repository.Repos,
	shipmentID string,
	mode Mode,
	d *rowData,
) (*entity.Product, string, int, error) {
	if mode == ModeUpsert {
		existing, err := r.Products.ListByShipmentAndName(ctx, shipmentID, d.name)
		if err != nil {
			return nil, "", 0, err
		}
		if len(existing) > 0 {
			primary, err := r.Products.GetForUpdate(ctx, existing[0].ID)
			if err != nil {
				return nil, "", 0, err
			}
			if primary == nil {
				return nil, "", 0, domain.ErrNotFound
			}
			dupIDs := make([]string, 0, len(existing)-1)
			for _, p := range existing[1:] {
				dupIDs = append(dupIDs, p.ID)
			}
			if len(dupIDs) > 0 {
				if _, err := r.Transactions.ReassignProduct(ctx, dupIDs, primary.ID); err != nil {
					return nil, "", 0, fmt.Errorf("reasignar transacciones: %w", err)
				}
				if _, err := r.Debts.ReassignProduct(ctx, dupIDs, primary.ID); err != nil {
					return nil, "", 0, fmt.Errorf("reasignar deudas: %w", err)
				}
				if _, err := r.Products.DeleteMany(ctx, dupIDs); err != nil {
					return nil, "", 0, fmt.Errorf("eliminar duplicados: %w", err)
				}
			}
			d.applyTo(primary)
			primary.UpdatedAt = s.clock.Now()
			if err := r.Products.Update(ctx, primary); err != nil {
				return nil, "", 0, err
			}
			return primary, metrics.ImportRowUpdated, len(dupIDs), nil
		}
	}

	now := s.clock.Now()
	p := &entity.Product{
		ID:         entity.NewID(),
		ShipmentID: shipmentID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	d.applyTo(p)
	if err := r.Products.Create(ctx, p); err != nil {
		return nil, "", 0, err
	}
	return p, metrics.ImportRowCreated, 0, nil
}

// applyTo actualización parcial: solo los valores presentes en la fila.
func (d *rowData) applyTo(p *entity.Product) {
	p.Name = d.name
	if d.category != nil {
		p.Category = *d.category
	}
	if d.characteristics != nil {
		p.Characteristics = *d.characteristics
	}
	if d.imageURL != nil {
		p.ImageURL = *d.imageURL
	}
	if d.purchaseEUR.Valid {
		p.PurchasePriceEUR = d.purchaseEUR
	}
	if d.saleCFA.Valid {
		p.SalePriceCFA = d.saleCFA
	}
}

// imageFileName products/import_{id}_{stem}.{ext} con el nombre del zip, o con el número de fila.
func imageFileName(productID string, row int, original, ext string) string {
	if original != "" {
		stem := strings.TrimSuffix(original, path.Ext(original))
		stem = slug.Make(stem)
		if len(stem) > 80 {
			stem = stem[:80]
		}
		if stem == "" {
			stem = "image"
		}
		return fmt.Sprintf("products/import_%s_%s.%s", productID, stem, ext)
	}
	return fmt.Sprintf("products/import_%s_%d.%s", productID, row, ext)
}

func (s *Service) deleteFile(ctx context.Context, loc string, row int) {
	if err := s.files.Delete(context.WithoutCancel(ctx), loc); err != nil {
		s.log.Warn().Err(err).Int("row", row).Str("locator", loc).
			Msg("importación: no se pudo borrar la imagen")
	}
}

func (s *Service) rowFailed(rep *Report, e RowError) {
	rep.Errors = append(rep.Errors, e)
	s.metrics.ImportRow(metrics.ImportRowError)
	s.log.Debug().Int("row", e.Row).Str("field", e.Field).Str("message", e.Message).
		Msg("importación: fila rechazada")
}

func (s *Service) finish(ctx context.Context, shipmentID string, rep *Report) {
	s.metrics.ImportImages(rep.ImagesImported)
	s.audit.Record(ctx, audit.Entry{
		Action:     entity.AuditImport,
		Entity:     "produit",
		ObjectRepr: "Import Excel produits",
		Message:    "Import Excel produits",
		ShipmentID: shipmentID,
		Metadata: map[string]any{
			"mode":            string(rep.Mode),
			"created":         rep.Created,
			"updated":         rep.Updated,
			"merged":          rep.Merged,
			"skipped":         rep.Skipped,
			"images_imported": rep.ImagesImported,
			"errors":          len(rep.Errors),
		},
	})
	s.log.Info().
		Str("shipment_id", shipmentID).
		Str("mode", string(rep.Mode)).
		Int("created", rep.Created).
		Int("updated", rep.Updated).
		Int("merged", rep.Merged).
		Int("errors", len(rep.Errors)).
		Msg("importación terminada")
}

// rowErrorFrom convierte un error de la unidad atómica en error de fila.
func rowErrorFrom(row int, err error) RowError {
	if ve, ok := domain.AsValidation(err); ok {
		return RowError{Row: row, Field: ve.Field, Message: ve.Message}
	}
	if errors.Is(err, domain.ErrDuplicate) {
		return RowError{Row: row, Field: "name", Message: "producto duplicado"}
	}
	return RowError{Row: row, Message: err.Error()}
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
