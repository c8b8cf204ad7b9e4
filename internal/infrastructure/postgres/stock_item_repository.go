package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/jhoicas/stock-transfer-api/internal/domain/repository"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

// StockItemRepo implementación de StockItemRepository sobre PostgreSQL (usable con pool o tx).
type StockItemRepo struct {
	q Querier
}

// NewStockItemRepository construye el adaptador de saldos. Pasar pool o tx (Querier).
func NewStockItemRepository(q Querier) *StockItemRepo {
	return &StockItemRepo{q: q}
}

const stockItemColumns = `
	id, product_id, variant_id, site_id, location_id,
	physical_quantity, reserved_quantity, min_stock, max_stock, reorder_point,
	last_movement_at, created_at, updated_at`

// variant_id y location_id son NULL cuando la clave no los tiene.
const stockItemKeyWhere = `
	product_id = $1 AND variant_id IS NOT DISTINCT FROM $2
	AND site_id = $3 AND location_id IS NOT DISTINCT FROM $4`

func keyArgs(k entity.StockItemKey) []any {
	return []any{k.ProductID, nullable(k.VariantID), k.SiteID, nullable(k.LocationID)}
}

func validStockKey(k entity.StockItemKey) bool {
	return isUUID(k.ProductID) && isUUID(k.SiteID) &&
		(k.VariantID == "" || isUUID(k.VariantID)) &&
		(k.LocationID == "" || isUUID(k.LocationID))
}

func scanStockItem(row pgx.Row) (*entity.StockItem, error) {
	var s entity.StockItem
	var variantID, locationID *string
	err := row.Scan(
		&s.ID, &s.ProductID, &variantID, &s.SiteID, &locationID,
		&s.PhysicalQuantity, &s.ReservedQuantity, &s.MinStock, &s.MaxStock, &s.ReorderPoint,
		&s.LastMovementAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.VariantID = deref(variantID)
	s.LocationID = deref(locationID)
	return &s, nil
}

// Get obtiene el saldo sin bloqueo; nil si no existe.
func (r *StockItemRepo) Get(ctx context.Context, key entity.StockItemKey) (*entity.StockItem, error) {
	if !validStockKey(key) {
		return nil, nil
	}
	query := `SELECT ` + stockItemColumns + ` FROM stock_items WHERE ` + stockItemKeyWhere
	s, err := scanStockItem(r.q.QueryRow(ctx, query, keyArgs(key)...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock item: %w", err)
	}
	return s, nil
}

// GetForUpdate crea el saldo en cero si no existe (ON CONFLICT DO NOTHING) y luego bloquea
// la fila con SELECT FOR UPDATE hasta el fin de la transacción.
func (r *StockItemRepo) GetForUpdate(ctx context.Context, key entity.StockItemKey) (*entity.StockItem, error) {
	if !validStockKey(key) {
		return nil, domain.ErrNotFound
	}
	now := time.Now()
	insert := `
		INSERT INTO stock_items (id, product_id, variant_id, site_id, location_id, created_at, updated_at)
		VALUES ($5, $1, $2, $3, $4, $6, $6)
		ON CONFLICT ON CONSTRAINT uq_stock_items_key DO NOTHING`
	args := append(keyArgs(key), uuid.New().String(), now)
	if _, err := r.q.Exec(ctx, insert, args...); err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("ensure stock item: %w", err)
	}

	query := `SELECT ` + stockItemColumns + ` FROM stock_items WHERE ` + stockItemKeyWhere + ` FOR UPDATE`
	s, err := scanStockItem(r.q.QueryRow(ctx, query, keyArgs(key)...))
	if err != nil {
		return nil, fmt.Errorf("get stock item for update: %w", err)
	}
	return s, nil
}

// Update persiste cantidades y marcas de tiempo. Los CHECK de la tabla respaldan los invariantes.
func (r *StockItemRepo) Update(ctx context.Context, item *entity.StockItem) error {
	query := `
		UPDATE stock_items SET
			physical_quantity = $2, reserved_quantity = $3,
			min_stock = $4, max_stock = $5, reorder_point = $6,
			last_movement_at = $7, updated_at = $8
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		item.ID, item.PhysicalQuantity, item.ReservedQuantity,
		item.MinStock, item.MaxStock, item.ReorderPoint,
		item.LastMovementAt, item.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrNegativeStock
		}
		return fmt.Errorf("update stock item: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListBySite saldos de la sede, opcionalmente de un producto.
func (r *StockItemRepo) ListBySite(ctx context.Context, siteID, productID string) ([]*entity.StockItem, error) {
	if !isUUID(siteID) || (productID != "" && !isUUID(productID)) {
		return nil, nil
	}
	query := `SELECT ` + stockItemColumns + `
		FROM stock_items
		WHERE site_id = $1 AND ($2::uuid IS NULL OR product_id = $2)
		ORDER BY product_id, variant_id NULLS FIRST, location_id NULLS FIRST`
	rows, err := r.q.Query(ctx, query, siteID, nullable(productID))
	if err != nil {
		return nil, fmt.Errorf("list stock items: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockItem
	for rows.Next() {
		s, err := scanStockItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock item: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// ListByProduct saldos de un producto/variante en todas las sedes.
func (r *StockItemRepo) ListByProduct(ctx context.Context, productID, variantID string) ([]*entity.StockItem, error) {
	if !isUUID(productID) || (variantID != "" && !isUUID(variantID)) {
		return nil, nil
	}
	query := `SELECT ` + stockItemColumns + `
		FROM stock_items
		WHERE product_id = $1 AND variant_id IS NOT DISTINCT FROM $2
		ORDER BY site_id, location_id NULLS FIRST`
	rows, err := r.q.Query(ctx, query, productID, nullable(variantID))
	if err != nil {
		return nil, fmt.Errorf("list stock items by product: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockItem
	for rows.Next() {
		s, err := scanStockItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock item: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
