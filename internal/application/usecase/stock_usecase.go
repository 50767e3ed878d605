package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Envois-api/internal/application/audit"
	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/application/ledger"
	"github.com/jhoicas/Envois-api/internal/domain"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

// StockUseCase lectura de la foto de stock y resincronización manual.
type StockUseCase struct {
	tx    ledger.TxRunner
	repos repository.Repos
	stock *ledger.Recomputer
	audit audit.Recorder
	log   zerolog.Logger
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(tx ledger.TxRunner, repos repository.Repos, stock *ledger.Recomputer, rec audit.Recorder, log zerolog.Logger) *StockUseCase {
	return &StockUseCase{tx: tx, repos: repos, stock: stock, audit: rec, log: log}
}

// List página de stocks del envío ordenada por producto.
func (uc *StockUseCase) List(ctx context.Context, shipmentID string, page repository.Page) (*dto.ListResponse[dto.StockResponse], error) {
	page = page.Normalize()
	stocks, err := uc.repos.Stocks.ListByShipment(ctx, shipmentID, page)
	if err != nil {
		return nil, err
	}
	products, err := uc.repos.Products.ListByShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	out := &dto.ListResponse[dto.StockResponse]{Items: make([]dto.StockResponse, 0, len(stocks))}
	for _, st := range stocks {
		out.Items = append(out.Items, *toStockResponse(st, names[st.ProductID]))
	}
	if len(stocks) == page.Limit {
		out.NextAfterID = stocks[len(stocks)-1].ProductID
	}
	return out, nil
}

// RecomputeAll recalcula la foto de cada producto del envío en una sola unidad atómica.
func (uc *StockUseCase) RecomputeAll(ctx context.Context, shipmentID string) (int, error) {
	sh, err := uc.repos.Shipments.GetByID(ctx, shipmentID)
	if err != nil {
		return 0, err
	}
	if sh == nil {
		return 0, fmt.Errorf("envío %s: %w", shipmentID, domain.ErrNotFound)
	}
	var n int
	err = uc.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		ids, err := r.Products.IDsByShipment(ctx, shipmentID)
		if err != nil {
			return err
		}
		n, err = uc.stock.RecomputeMany(ctx, r, ids)
		return err
	})
	if err != nil {
		return 0, err
	}
	uc.log.Info().Str("shipment_id", shipmentID).Int("products", n).Msg("stocks recalculados")
	uc.audit.Record(ctx, audit.Entry{
		Action: entity.AuditUpdate, Entity: "stock",
		Message: "Recálculo de stocks", ShipmentID: shipmentID,
		Metadata: map[string]any{"recomputed_products": n},
	})
	return n, nil
}

// allStocks recorre todas las páginas de stocks del envío.
func allStocks(ctx context.Context, repo repository.StockRepository, shipmentID string) (map[string]*entity.Stock, error) {
	out := map[string]*entity.Stock{}
	page := repository.Page{Limit: repository.MaxPageSize}
	for {
		list, err := repo.ListByShipment(ctx, shipmentID, page)
		if err != nil {
			return nil, err
		}
		for _, st := range list {
			out[st.ProductID] = st
		}
		if len(list) < page.Limit {
			return out, nil
		}
		page.AfterID = list[len(list)-1].ProductID
	}
}

func toStockResponse(st *entity.Stock, productName string) *dto.StockResponse {
	return &dto.StockResponse{
		ProductID:         st.ProductID,
		ProductName:       productName,
		QuantityInitial:   st.Initial,
		QuantitySold:      st.Sold,
		QuantityLoaned:    st.Loaned,
		QuantityRemaining: st.Remaining,
		UpdatedAt:         st.UpdatedAt,
	}
}
