// Package memory implementa los puertos de persistencia en memoria.
// Se usa en tests y con STORE_DRIVER=memory; las unidades atómicas se serializan
// y se deshacen restaurando una copia del estado.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/Envois-api/internal/application/ledger"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data state
}

type state struct {
	ledgerTables
	users map[string]*entity.User
	audit []*entity.AuditEvent
}

// ledgerTables tablas accesibles desde una unidad atómica (las de repository.Repos).
// Auditoría y usuarios quedan fuera: un rollback no debe borrar lo escrito por otras peticiones.
type ledgerTables struct {
	shipments map[string]*entity.Shipment
	products  map[string]*entity.Product
	stocks    map[string]*entity.Stock
	txs       map[string]*entity.Transaction
	debts     map[string]*entity.Debt
	rates     map[string]*entity.ExchangeRate
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: state{
		ledgerTables: ledgerTables{
			shipments: map[string]*entity.Shipment{},
			products:  map[string]*entity.Product{},
			stocks:    map[string]*entity.Stock{},
			txs:       map[string]*entity.Transaction{},
			debts:     map[string]*entity.Debt{},
			rates:     map[string]*entity.ExchangeRate{},
		},
		users: map[string]*entity.User{},
	}}
}

// Repos devuelve los repositorios de dominio sobre el almacén.
func (s *Store) Repos() repository.Repos {
	return repository.Repos{
		Shipments:    &ShipmentRepo{s: s},
		Products:     &ProductRepo{s: s},
		Stocks:       &StockRepo{s: s},
		Transactions: &TransactionRepo{s: s},
		Debts:        &DebtRepo{s: s},
		Rates:        &ExchangeRateRepo{s: s},
	}
}

// Audit repositorio de auditoría.
func (s *Store) Audit() *AuditRepo { return &AuditRepo{s: s} }

// Users repositorio de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

func (s *Store) snapshot() ledgerTables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledgerTables{
		shipments: cloneMap(s.data.shipments),
		products:  cloneMap(s.data.products),
		stocks:    cloneMap(s.data.stocks),
		txs:       cloneMap(s.data.txs),
		debts:     cloneMap(s.data.debts),
		rates:     cloneMap(s.data.rates),
	}
}

// restore devuelve las tablas del libro a la copia; auditoría y usuarios no se tocan.
func (s *Store) restore(t ledgerTables) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.ledgerTables = t
}

func cloneMap[T any](m map[string]*T) map[string]*T {
	out := make(map[string]*T, len(m))
	for k, v := range m {
		c := *v
		out[k] = &c
	}
	return out
}

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// TxRunner unidad atómica en memoria: serializa las unidades y restaura el estado si fn falla.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn; cualquier error o panic deshace sus cambios en las tablas del libro.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	snap := r.s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			r.s.restore(snap)
			err = fmt.Errorf("panic en unidad atómica: %v", p)
		}
	}()
	if err := fn(ctx, r.s.Repos()); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}
