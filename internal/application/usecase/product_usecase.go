package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Envois-api/internal/application/audit"
	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/application/importer"
	"github.com/jhoicas/Envois-api/internal/application/ledger"
	"github.com/jhoicas/Envois-api/internal/application/ports"
	"github.com/jhoicas/Envois-api/internal/domain"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
	"github.com/jhoicas/Envois-api/pkg/metrics"
)

const entityProduct = "produit"

// ProductUseCase casos de uso CRUD para productos. El stock se deriva de transacciones y deudas.
type ProductUseCase struct {
	tx      ledger.TxRunner
	repos   repository.Repos
	stock   *ledger.Recomputer
	files   ports.FileStore
	audit   audit.Recorder
	metrics *metrics.Metrics
	log     zerolog.Logger
	clock   ledger.Clock
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	tx ledger.TxRunner,
	repos repository.Repos,
	stock *ledger.Recomputer,
	files ports.FileStore,
	rec audit.Recorder,
	m *metrics.Metrics,
	log zerolog.Logger,
	clock ledger.Clock,
) *ProductUseCase {
	return &ProductUseCase{
		tx: tx, repos: repos, stock: stock, files: files,
		audit: rec, metrics: m, log: log, clock: clock,
	}
}

// Create crea un producto en el envío junto con su stock vacío.
// El precio de venta CFA es obligatorio y positivo.
func (uc *ProductUseCase) Create(ctx context.Context, shipmentID string, in dto.ProductRequest) (*dto.ProductResponse, error) {
	if in.Name == nil {
		return nil, domain.Invalid("name", "requerido")
	}
	if in.SalePriceCFA == nil {
		return nil, domain.Invalid("sale_price_cfa", "requerido")
	}
	now := uc.clock.Now()
	p := &entity.Product{ID: entity.NewID(), ShipmentID: shipmentID, CreatedAt: now, UpdatedAt: now}
	if err := applyProductRequest(p, in); err != nil {
		return nil, err
	}

	var st *entity.Stock
	err := uc.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		sh, err := r.Shipments.GetByID(ctx, shipmentID)
		if err != nil {
			return err
		}
		if sh == nil {
			return fmt.Errorf("envío %s: %w", shipmentID, domain.ErrNotFound)
		}
		if err := r.Products.Create(ctx, p); err != nil {
			return err
		}
		st, err = uc.stock.Recompute(ctx, r, p.ID)
		return err
	})
	uc.metrics.MutationApplied("product", "create", err)
	if err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, audit.Entry{
		Action: entity.AuditCreate, Entity: entityProduct,
		ObjectID: p.ID, ObjectRepr: p.Name, Message: "Producto creado", ShipmentID: shipmentID,
	})
	return uc.toProductResponse(p, st), nil
}

// GetByID obtiene un producto del envío con su stock.
func (uc *ProductUseCase) GetByID(ctx context.Context, shipmentID, id string) (*dto.ProductResponse, error) {
	p, err := uc.owned(ctx, shipmentID, id)
	if err != nil {
		return nil, err
	}
	st, err := uc.repos.Stocks.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return uc.toProductResponse(p, st), nil
}

// List productos del envío por nombre, cada uno con su stock.
func (uc *ProductUseCase) List(ctx context.Context, shipmentID string) ([]dto.ProductResponse, error) {
	products, err := uc.repos.Products.ListByShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	stocks, err := allStocks(ctx, uc.repos.Stocks, shipmentID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		items = append(items, *uc.toProductResponse(p, stocks[p.ID]))
	}
	return items, nil
}

// Update modifica los campos enviados; el envío del producto no cambia.
func (uc *ProductUseCase) Update(ctx context.Context, shipmentID, id string, in dto.ProductRequest) (*dto.ProductResponse, error) {
	var (
		p  *entity.Product
		st *entity.Stock
	)
	err := uc.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		if p, err = lockOwnedProduct(ctx, r, shipmentID, id); err != nil {
			return err
		}
		if err := applyProductRequest(p, in); err != nil {
			return err
		}
		p.UpdatedAt = uc.clock.Now()
		if err := r.Products.Update(ctx, p); err != nil {
			return err
		}
		st, err = r.Stocks.Get(ctx, p.ID)
		return err
	})
	uc.metrics.MutationApplied("product", "update", err)
	if err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, audit.Entry{
		Action: entity.AuditUpdate, Entity: entityProduct,
		ObjectID: p.ID, ObjectRepr: p.Name, Message: "Producto modificado", ShipmentID: shipmentID,
	})
	return uc.toProductResponse(p, st), nil
}

// SetImage guarda una imagen subida y reemplaza la anterior, que se borra tras confirmar.
func (uc *ProductUseCase) SetImage(ctx context.Context, shipmentID, id string, data []byte) (*dto.ProductResponse, error) {
	ext := importer.SniffExtension(data)
	if ext == "" {
		return nil, domain.Invalid("image", "formato no soportado (PNG, JPEG, GIF o WEBP)")
	}
	p, err := uc.owned(ctx, shipmentID, id)
	if err != nil {
		return nil, err
	}
	loc, err := uc.files.Save(ctx, productImageName(p, ext), data)
	if err != nil {
		return nil, fmt.Errorf("guardar imagen: %w", err)
	}

	var (
		old string
		st  *entity.Stock
	)
	err = uc.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		if p, err = lockOwnedProduct(ctx, r, shipmentID, id); err != nil {
			return err
		}
		old = p.Image
		p.Image = loc
		p.UpdatedAt = uc.clock.Now()
		if err := r.Products.Update(ctx, p); err != nil {
			return err
		}
		st, err = r.Stocks.Get(ctx, p.ID)
		return err
	})
	uc.metrics.MutationApplied("product", "image", err)
	if err != nil {
		removeImage(ctx, uc.files, uc.log, loc)
		return nil, err
	}
	if old != loc {
		removeImage(ctx, uc.files, uc.log, old)
	}
	uc.audit.Record(ctx, audit.Entry{
		Action: entity.AuditUpdate, Entity: entityProduct,
		ObjectID: p.ID, ObjectRepr: p.Name, Message: "Imagen de producto reemplazada", ShipmentID: shipmentID,
		Metadata: map[string]any{"image": loc},
	})
	return uc.toProductResponse(p, st), nil
}

// Delete elimina el producto con sus deudas y transacciones; su stock cae en cascada.
func (uc *ProductUseCase) Delete(ctx context.Context, shipmentID, id string) (*dto.CascadeCounts, error) {
	var p *entity.Product
	counts := &dto.CascadeCounts{}
	err := uc.tx.Run(ledger.WithRecomputeSuppressed(ctx), func(ctx context.Context, r repository.Repos) error {
		var err error
		if p, err = lockOwnedProduct(ctx, r, shipmentID, id); err != nil {
			return err
		}
		return deleteProducts(ctx, r, []string{p.ID}, counts)
	})
	uc.metrics.MutationApplied("product", "delete", err)
	if err != nil {
		return nil, err
	}
	removeImage(ctx, uc.files, uc.log, p.Image)
	uc.audit.Record(ctx, audit.Entry{
		Action: entity.AuditDelete, Entity: entityProduct,
		ObjectID: p.ID, ObjectRepr: p.Name, Message: "Producto eliminado", ShipmentID: shipmentID,
		Metadata: map[string]any{
			"deleted_transactions": counts.DeletedTransactions,
			"deleted_debts":        counts.DeletedDebts,
		},
	})
	return counts, nil
}

// Purge elimina todos los productos del envío con sus deudas y transacciones.
func (uc *ProductUseCase) Purge(ctx context.Context, shipmentID string) (*dto.CascadeCounts, error) {
	sh, err := uc.repos.Shipments.GetByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, fmt.Errorf("envío %s: %w", shipmentID, domain.ErrNotFound)
	}
	products, err := uc.repos.Products.ListByShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	counts := &dto.CascadeCounts{}
	err = uc.tx.Run(ledger.WithRecomputeSuppressed(ctx), func(ctx context.Context, r repository.Repos) error {
		ids, err := r.Products.IDsByShipment(ctx, shipmentID)
		if err != nil {
			return err
		}
		return deleteProducts(ctx, r, ids, counts)
	})
	uc.metrics.MutationApplied("product", "purge", err)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		removeImage(ctx, uc.files, uc.log, p.Image)
	}
	uc.log.Info().Str("shipment_id", shipmentID).Int("products", counts.DeletedProducts).Msg("productos purgados")
	uc.audit.Record(ctx, audit.Entry{
		Action: entity.AuditPurge, Entity: entityProduct,
		Message:    fmt.Sprintf("Supresión de todos los productos (%s)", sh.Name),
		ShipmentID: shipmentID, Metadata: counts.Metadata(),
	})
	return counts, nil
}

func (uc *ProductUseCase) owned(ctx context.Context, shipmentID, id string) (*entity.Product, error) {
	p, err := uc.repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || (shipmentID != "" && p.ShipmentID != shipmentID) {
		return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (uc *ProductUseCase) toProductResponse(p *entity.Product, st *entity.Stock) *dto.ProductResponse {
	out := &dto.ProductResponse{
		ID:               p.ID,
		ShipmentID:       p.ShipmentID,
		Name:             p.Name,
		Characteristics:  p.Characteristics,
		Category:         p.Category,
		PurchasePriceEUR: p.PurchasePriceEUR,
		SalePriceCFA:     p.SalePriceCFA,
		ImageURL:         p.ImageURL,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.Image != "" && uc.files != nil {
		out.Image = uc.files.URL(p.Image)
	}
	if st != nil {
		out.Stock = toStockResponse(st, "")
	}
	return out
}

// lockOwnedProduct bloquea el producto; si es de otro envío no existe para el llamador.
func lockOwnedProduct(ctx context.Context, r repository.Repos, shipmentID, id string) (*entity.Product, error) {
	p, err := r.Products.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || (shipmentID != "" && p.ShipmentID != shipmentID) {
		return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// deleteProducts borra deudas y transacciones de forma explícita y luego los productos.
func deleteProducts(ctx context.Context, r repository.Repos, ids []string, counts *dto.CascadeCounts) error {
	if len(ids) == 0 {
		return nil
	}
	var err error
	if counts.DeletedDebts, err = r.Debts.DeleteByProducts(ctx, ids); err != nil {
		return err
	}
	if counts.DeletedTransactions, err = r.Transactions.DeleteByProducts(ctx, ids); err != nil {
		return err
	}
	counts.DeletedProducts, err = r.Products.DeleteMany(ctx, ids)
	return err
}

func applyProductRequest(p *entity.Product, in dto.ProductRequest) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return domain.Invalid("name", "requerido")
		}
		p.Name = name
	}
	if in.Characteristics != nil {
		p.Characteristics = strings.TrimSpace(*in.Characteristics)
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.PurchasePriceEUR != nil {
		if in.PurchasePriceEUR.IsNegative() {
			return domain.Invalid("purchase_price_eur", "no puede ser negativo")
		}
		p.PurchasePriceEUR = decimal.NewNullDecimal(in.PurchasePriceEUR.Round(2))
	}
	if in.SalePriceCFA != nil {
		if !in.SalePriceCFA.IsPositive() {
			return domain.Invalid("sale_price_cfa", "debe ser mayor que cero")
		}
		p.SalePriceCFA = decimal.NewNullDecimal(in.SalePriceCFA.Round(2))
	}
	if in.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	return nil
}

// productImageName products/{id}_{slug}_{aleatorio}.{ext}; cada reemplazo cambia la URL.
func productImageName(p *entity.Product, ext string) string {
	stem := slug.Make(p.Name)
	if len(stem) > 60 {
		stem = stem[:60]
	}
	if stem == "" {
		stem = "image"
	}
	return fmt.Sprintf("products/%s_%s_%s.%s", p.ID, stem, uuid.NewString()[:8], ext)
}
