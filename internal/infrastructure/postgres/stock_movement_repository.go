package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/jhoicas/stock-transfer-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del log de movimientos (solo INSERT; un trigger rechaza UPDATE/DELETE).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Append inserta un movimiento.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (
			id, stock_item_id, product_id, variant_id, site_id, movement_type, direction, quantity,
			source_location_id, destination_location_id, related_document_type, related_document_id,
			reason, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.StockItemID, m.ProductID, nullable(m.VariantID), m.SiteID, m.Type, m.Direction, m.Quantity,
		m.SourceLocationID, m.DestinationLocationID, m.RelatedDocumentType, m.RelatedDocumentID,
		m.Reason, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return writeError(err, "insert stock movement")
	}
	return nil
}

// List movimientos del más reciente al más antiguo (orden de inserción).
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.SiteID != "" {
		if !isUUID(f.SiteID) {
			return nil, nil
		}
		add("site_id = $%d", f.SiteID)
	}
	if f.ProductID != "" {
		if !isUUID(f.ProductID) {
			return nil, nil
		}
		add("product_id = $%d", f.ProductID)
	}
	if f.DocumentType != "" {
		add("related_document_type = $%d", f.DocumentType)
	}
	if f.DocumentID != "" {
		add("related_document_id = $%d", f.DocumentID)
	}

	query := `
		SELECT id, stock_item_id, product_id, variant_id, site_id, movement_type, direction, quantity,
			source_location_id, destination_location_id, related_document_type, related_document_id,
			reason, created_by, created_at
		FROM stock_movements`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY seq DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var variantID *string
		if err := rows.Scan(
			&m.ID, &m.StockItemID, &m.ProductID, &variantID, &m.SiteID, &m.Type, &m.Direction, &m.Quantity,
			&m.SourceLocationID, &m.DestinationLocationID, &m.RelatedDocumentType, &m.RelatedDocumentID,
			&m.Reason, &m.CreatedBy, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.VariantID = deref(variantID)
		list = append(list, &m)
	}
	return list, rows.Err()
}

// SumByStockItem suma con signo por saldo de la sede.
func (r *StockMovementRepo) SumByStockItem(ctx context.Context, siteID string) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	if !isUUID(siteID) {
		return out, nil
	}
	query := `
		SELECT stock_item_id,
			SUM(CASE WHEN direction = 'out' THEN -quantity ELSE quantity END)
		FROM stock_movements WHERE site_id = $1
		GROUP BY stock_item_id`
	rows, err := r.q.Query(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("sum stock movements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var total decimal.Decimal
		if err := rows.Scan(&id, &total); err != nil {
			return nil, fmt.Errorf("scan movement sum: %w", err)
		}
		out[id] = total
	}
	return out, rows.Err()
}
