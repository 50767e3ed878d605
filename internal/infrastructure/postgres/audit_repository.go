package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/klauspost/compress/zstd"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// Metadatos mayores que esto se guardan comprimidos en metadata_zstd.
const auditCompressThreshold = 4 << 10

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// AuditRepo bitácora append-only sobre PostgreSQL.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

var auditCols = []string{
	"id", "action", "user_id", "username", "shipment_id", "entity", "object_id", "object_repr",
	"message", "path", "method", "ip_address", "metadata", "metadata_zstd", "created_at",
}

type auditRow struct {
	ID           string    `db:"id"`
	Action       string    `db:"action"`
	UserID       string    `db:"user_id"`
	Username     string    `db:"username"`
	ShipmentID   string    `db:"shipment_id"`
	Entity       string    `db:"entity"`
	ObjectID     string    `db:"object_id"`
	ObjectRepr   string    `db:"object_repr"`
	Message      string    `db:"message"`
	Path         string    `db:"path"`
	Method       string    `db:"method"`
	IPAddress    string    `db:"ip_address"`
	Metadata     []byte    `db:"metadata"`
	MetadataZstd []byte    `db:"metadata_zstd"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r auditRow) entity() (*entity.AuditEvent, error) {
	raw := r.Metadata
	if len(r.MetadataZstd) > 0 {
		var err error
		if raw, err = zstdDecoder.DecodeAll(r.MetadataZstd, nil); err != nil {
			return nil, fmt.Errorf("descomprimir metadata %s: %w", r.ID, err)
		}
	}
	meta := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("metadata %s: %w", r.ID, err)
		}
	}
	return &entity.AuditEvent{
		ID:         r.ID,
		Action:     entity.AuditAction(r.Action),
		UserID:     r.UserID,
		Username:   r.Username,
		ShipmentID: r.ShipmentID,
		Entity:     r.Entity,
		ObjectID:   r.ObjectID,
		ObjectRepr: r.ObjectRepr,
		Message:    r.Message,
		Path:       r.Path,
		Method:     r.Method,
		IPAddress:  r.IPAddress,
		Metadata:   meta,
		CreatedAt:  r.CreatedAt,
	}, nil
}

func (r *AuditRepo) Create(ctx context.Context, e *entity.AuditEvent) error {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	var packed []byte
	if len(meta) > auditCompressThreshold {
		packed = zstdEncoder.EncodeAll(meta, nil)
		meta = []byte("{}")
	}
	_, err = execSQL(ctx, r.q, "insert audit event", psql.Insert("audit_events").
		Columns(auditCols...).
		Values(e.ID, string(e.Action), e.UserID, e.Username, e.ShipmentID, e.Entity, e.ObjectID, e.ObjectRepr,
			e.Message, e.Path, e.Method, e.IPAddress, string(meta), packed, e.CreatedAt))
	return err
}

// List con AfterID ordena por id ascendente; sin él, del más reciente al más antiguo.
func (r *AuditRepo) List(ctx context.Context, f repository.AuditFilter) ([]*entity.AuditEvent, error) {
	page := f.Page.Normalize()
	q := psql.Select(auditCols...).From("audit_events").Limit(uint64(page.Limit))
	if f.ShipmentID != "" {
		q = q.Where(squirrel.Eq{"shipment_id": f.ShipmentID})
	}
	if page.AfterID != "" {
		q = q.Where(squirrel.Gt{"id": page.AfterID}).OrderBy("id")
	} else {
		q = q.OrderBy("id DESC")
	}
	var rows []auditRow
	if err := selectAll(ctx, r.q, "list audit events", &rows, q); err != nil {
		return nil, err
	}
	out := make([]*entity.AuditEvent, 0, len(rows))
	for _, row := range rows {
		e, err := row.entity()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
