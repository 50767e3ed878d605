package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/Envois-api/internal/domain"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

var (
	_ repository.ShipmentRepository     = (*ShipmentRepo)(nil)
	_ repository.ProductRepository      = (*ProductRepo)(nil)
	_ repository.StockRepository        = (*StockRepo)(nil)
	_ repository.TransactionRepository  = (*TransactionRepo)(nil)
	_ repository.DebtRepository         = (*DebtRepo)(nil)
	_ repository.ExchangeRateRepository = (*ExchangeRateRepo)(nil)
	_ repository.AuditRepository        = (*AuditRepo)(nil)
	_ repository.UserRepository         = (*UserRepo)(nil)
)

// ── Shipments ────────────────────────────────────────────────────────────────

type ShipmentRepo struct{ s *Store }

func (r *ShipmentRepo) Create(_ context.Context, sh *entity.Shipment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.data.shipments {
		if strings.EqualFold(o.Name, sh.Name) {
			return domain.ErrDuplicate
		}
	}
	r.s.data.shipments[sh.ID] = clone(sh)
	return nil
}

func (r *ShipmentRepo) GetByID(_ context.Context, id string) (*entity.Shipment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return clone(r.s.data.shipments[id]), nil
}

func (r *ShipmentRepo) Update(_ context.Context, sh *entity.Shipment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.shipments[sh.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, o := range r.s.data.shipments {
		if id != sh.ID && strings.EqualFold(o.Name, sh.Name) {
			return domain.ErrDuplicate
		}
	}
	r.s.data.shipments[sh.ID] = clone(sh)
	return nil
}

// Delete borra el envío con sus productos y stocks; falla si quedan transacciones o deudas.
func (r *ShipmentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.shipments[id]; !ok {
		return domain.ErrNotFound
	}
	var ids []string
	for pid, p := range r.s.data.products {
		if p.ShipmentID == id {
			ids = append(ids, pid)
		}
	}
	if err := r.s.restrictProducts(ids); err != nil {
		return err
	}
	for _, pid := range ids {
		delete(r.s.data.products, pid)
		delete(r.s.data.stocks, pid)
	}
	delete(r.s.data.shipments, id)
	return nil
}

func (r *ShipmentRepo) List(_ context.Context) ([]*entity.Shipment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Shipment, 0, len(r.s.data.shipments))
	for _, sh := range r.s.data.shipments {
		out = append(out, clone(sh))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// restrictProducts emula ON DELETE RESTRICT de transactions/debts. Requiere mu tomado.
func (s *Store) restrictProducts(ids []string) error {
	set := toSet(ids)
	for _, t := range s.data.txs {
		if _, ok := set[t.ProductID]; ok {
			return fmt.Errorf("%w: el producto tiene transacciones", domain.ErrConflict)
		}
	}
	for _, d := range s.data.debts {
		if _, ok := set[d.ProductID]; ok {
			return fmt.Errorf("%w: el producto tiene deudas", domain.ErrConflict)
		}
	}
	return nil
}

// ── Products ─────────────────────────────────────────────────────────────────

type ProductRepo struct{ s *Store }

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.shipments[p.ShipmentID]; !ok {
		return fmt.Errorf("envío %s: %w", p.ShipmentID, domain.ErrNotFound)
	}
	if _, ok := r.s.data.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.data.products[p.ID] = clone(p)
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return clone(r.s.data.products[id]), nil
}

// GetForUpdate: las unidades atómicas ya están serializadas, no hace falta bloquear la fila.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.data.products[p.ID] = clone(p)
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	n, err := r.DeleteMany(ctx, []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) DeleteMany(_ context.Context, ids []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.restrictProducts(ids); err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if _, ok := r.s.data.products[id]; ok {
			delete(r.s.data.products, id)
			delete(r.s.data.stocks, id)
			n++
		}
	}
	return n, nil
}

func (r *ProductRepo) ListByShipment(_ context.Context, shipmentID string) ([]*entity.Product, error) {
	out := r.filter(func(p *entity.Product) bool { return p.ShipmentID == shipmentID })
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ProductRepo) ListByShipmentAndName(_ context.Context, shipmentID, name string) ([]*entity.Product, error) {
	out := r.filter(func(p *entity.Product) bool { return p.ShipmentID == shipmentID && p.Name == name })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ProductRepo) IDsByShipment(ctx context.Context, shipmentID string) ([]string, error) {
	list, _ := r.ListByShipment(ctx, shipmentID)
	ids := make([]string, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *ProductRepo) filter(keep func(*entity.Product) bool) []*entity.Product {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Product
	for _, p := range r.s.data.products {
		if keep(p) {
			out = append(out, clone(p))
		}
	}
	return out
}

// ── Stocks ───────────────────────────────────────────────────────────────────

type StockRepo struct{ s *Store }

func (r *StockRepo) Get(_ context.Context, productID string) (*entity.Stock, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return clone(r.s.data.stocks[productID]), nil
}

func (r *StockRepo) Upsert(_ context.Context, st *entity.Stock) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.products[st.ProductID]; !ok {
		return fmt.Errorf("producto %s: %w", st.ProductID, domain.ErrNotFound)
	}
	r.s.data.stocks[st.ProductID] = clone(st)
	return nil
}

func (r *StockRepo) ListByShipment(_ context.Context, shipmentID string, page repository.Page) ([]*entity.Stock, error) {
	page = page.Normalize()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Stock
	for pid, st := range r.s.data.stocks {
		p := r.s.data.products[pid]
		if p == nil || p.ShipmentID != shipmentID || (page.AfterID != "" && pid <= page.AfterID) {
			continue
		}
		out = append(out, clone(st))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	if len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

// ── Transactions ─────────────────────────────────────────────────────────────

type TransactionRepo struct{ s *Store }

func (r *TransactionRepo) Create(_ context.Context, t *entity.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.products[t.ProductID]; !ok {
		return fmt.Errorf("producto %s: %w", t.ProductID, domain.ErrNotFound)
	}
	r.s.data.txs[t.ID] = clone(t)
	return nil
}

func (r *TransactionRepo) GetByID(_ context.Context, id string) (*entity.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return clone(r.s.data.txs[id]), nil
}

func (r *TransactionRepo) Update(_ context.Context, t *entity.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.txs[t.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.data.txs[t.ID] = clone(t)
	return nil
}

// Delete emula ON DELETE SET NULL en las referencias de deudas.
func (r *TransactionRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.txs[id]; !ok {
		return domain.ErrNotFound
	}
	r.s.deleteTx(id)
	return nil
}

func (s *Store) deleteTx(id string) {
	delete(s.data.txs, id)
	for _, d := range s.data.debts {
		if d.LoanTransactionID == id {
			d.LoanTransactionID = ""
		}
		if d.ReturnTransactionID == id {
			d.ReturnTransactionID = ""
		}
	}
}

func (r *TransactionRepo) SumQuantity(_ context.Context, productID string, typ entity.TransactionType, excludeID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	total := 0
	for _, t := range r.s.data.txs {
		if t.ProductID == productID && t.Type == typ && t.ID != excludeID {
			total += t.Quantity
		}
	}
	return total, nil
}

func (r *TransactionRepo) List(_ context.Context, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Transaction
	for _, t := range r.s.data.txs {
		if f.ProductID != "" && t.ProductID != f.ProductID {
			continue
		}
		if f.ShipmentID != "" {
			p := r.s.data.products[t.ProductID]
			if p == nil || p.ShipmentID != f.ShipmentID {
				continue
			}
		}
		if len(f.Types) > 0 && !containsType(f.Types, t.Type) {
			continue
		}
		if f.From != nil && t.OccurredAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !t.OccurredAt.Before(*f.To) {
			continue
		}
		out = append(out, clone(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *TransactionRepo) ReassignProduct(_ context.Context, from []string, to string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := toSet(from)
	n := 0
	for _, t := range r.s.data.txs {
		if _, ok := set[t.ProductID]; ok {
			t.ProductID = to
			n++
		}
	}
	return n, nil
}

func (r *TransactionRepo) DeleteByProducts(_ context.Context, productIDs []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := toSet(productIDs)
	var ids []string
	for id, t := range r.s.data.txs {
		if _, ok := set[t.ProductID]; ok {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		r.s.deleteTx(id)
	}
	return len(ids), nil
}

func (r *TransactionRepo) CountByProducts(_ context.Context, productIDs []string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	set := toSet(productIDs)
	n := 0
	for _, t := range r.s.data.txs {
		if _, ok := set[t.ProductID]; ok {
			n++
		}
	}
	return n, nil
}

// ── Debts ────────────────────────────────────────────────────────────────────

type DebtRepo struct{ s *Store }

func (r *DebtRepo) Create(_ context.Context, d *entity.Debt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.products[d.ProductID]; !ok {
		return fmt.Errorf("producto %s: %w", d.ProductID, domain.ErrNotFound)
	}
	r.s.data.debts[d.ID] = clone(d)
	return nil
}

func (r *DebtRepo) GetByID(_ context.Context, id string) (*entity.Debt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return clone(r.s.data.debts[id]), nil
}

func (r *DebtRepo) Update(_ context.Context, d *entity.Debt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.debts[d.ID]; !ok {
		return domain.ErrNotFound
	}
	for _, ref := range []string{d.LoanTransactionID, d.ReturnTransactionID} {
		if ref == "" {
			continue
		}
		if _, ok := r.s.data.txs[ref]; !ok {
			return fmt.Errorf("transacción %s: %w", ref, domain.ErrNotFound)
		}
	}
	r.s.data.debts[d.ID] = clone(d)
	return nil
}

func (r *DebtRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.debts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.data.debts, id)
	return nil
}

func (r *DebtRepo) SumOpenQuantity(_ context.Context, productID, excludeID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	total := 0
	for _, d := range r.s.data.debts {
		if d.ProductID == productID && d.ActualReturnDate == nil && d.ID != excludeID {
			total += d.Quantity
		}
	}
	return total, nil
}

func (r *DebtRepo) List(_ context.Context, f repository.DebtFilter) ([]*entity.Debt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Debt
	for _, d := range r.s.data.debts {
		if f.ProductID != "" && d.ProductID != f.ProductID {
			continue
		}
		if f.OpenOnly && d.ActualReturnDate != nil {
			continue
		}
		if f.ShipmentID != "" {
			p := r.s.data.products[d.ProductID]
			if p == nil || p.ShipmentID != f.ShipmentID {
				continue
			}
		}
		out = append(out, clone(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LoanDate.Equal(out[j].LoanDate) {
			return out[i].LoanDate.After(out[j].LoanDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *DebtRepo) ReassignProduct(_ context.Context, from []string, to string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := toSet(from)
	n := 0
	for _, d := range r.s.data.debts {
		if _, ok := set[d.ProductID]; ok {
			d.ProductID = to
			n++
		}
	}
	return n, nil
}

func (r *DebtRepo) DeleteByProducts(_ context.Context, productIDs []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := toSet(productIDs)
	n := 0
	for id, d := range r.s.data.debts {
		if _, ok := set[d.ProductID]; ok {
			delete(r.s.data.debts, id)
			n++
		}
	}
	return n, nil
}

func (r *DebtRepo) CountByProducts(_ context.Context, productIDs []string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	set := toSet(productIDs)
	n := 0
	for _, d := range r.s.data.debts {
		if _, ok := set[d.ProductID]; ok {
			n++
		}
	}
	return n, nil
}

// ── Exchange rates ───────────────────────────────────────────────────────────

type ExchangeRateRepo struct{ s *Store }

func (r *ExchangeRateRepo) Create(_ context.Context, er *entity.ExchangeRate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.rates[er.ID] = clone(er)
	return nil
}

func (r *ExchangeRateRepo) GetByID(_ context.Context, id string) (*entity.ExchangeRate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return clone(r.s.data.rates[id]), nil
}

func (r *ExchangeRateRepo) Update(_ context.Context, er *entity.ExchangeRate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.rates[er.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.data.rates[er.ID] = clone(er)
	return nil
}

func (r *ExchangeRateRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.rates[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.data.rates, id)
	return nil
}

func (r *ExchangeRateRepo) List(_ context.Context) ([]*entity.ExchangeRate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.ExchangeRate, 0, len(r.s.data.rates))
	for _, er := range r.s.data.rates {
		out = append(out, clone(er))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveDate.Equal(out[j].EffectiveDate) {
			return out[i].EffectiveDate.After(out[j].EffectiveDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *ExchangeRateRepo) Current(ctx context.Context) (*entity.ExchangeRate, error) {
	list, _ := r.List(ctx)
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ── Audit ────────────────────────────────────────────────────────────────────

type AuditRepo struct{ s *Store }

func (r *AuditRepo) Create(_ context.Context, e *entity.AuditEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.audit = append(r.s.data.audit, clone(e))
	return nil
}

func (r *AuditRepo) List(_ context.Context, f repository.AuditFilter) ([]*entity.AuditEvent, error) {
	page := f.Page.Normalize()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.AuditEvent
	for _, e := range r.s.data.audit {
		if f.ShipmentID != "" && e.ShipmentID != f.ShipmentID {
			continue
		}
		if page.AfterID != "" && e.ID <= page.AfterID {
			continue
		}
		out = append(out, clone(e))
	}
	if page.AfterID != "" {
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	}
	if len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

// ── Users ────────────────────────────────────────────────────────────────────

type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.data.users {
		if strings.EqualFold(o.Username, u.Username) || (u.Email != "" && strings.EqualFold(o.Email, u.Email)) {
			return domain.ErrDuplicate
		}
	}
	r.s.data.users[u.ID] = clone(u)
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return clone(r.s.data.users[id]), nil
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return strings.EqualFold(u.Username, username) }), nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return email != "" && strings.EqualFold(u.Email, email) }), nil
}

func (r *UserRepo) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.s.data.users[u.ID] = clone(u)
	return nil
}

func (r *UserRepo) find(match func(*entity.User) bool) *entity.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.data.users {
		if match(u) {
			return clone(u)
		}
	}
	return nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func containsType(types []entity.TransactionType, t entity.TransactionType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
