package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-transfer-api/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo consulta existencia de productos/variantes en las tablas de referencia del catálogo.
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

// ProductExists true si el producto existe y, con variantID, si la variante pertenece al producto.
func (r *CatalogRepo) ProductExists(ctx context.Context, productID, variantID string) (bool, error) {
	if !isUUID(productID) || (variantID != "" && !isUUID(variantID)) {
		return false, nil
	}
	var exists bool
	var err error
	if variantID == "" {
		err = r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	} else {
		err = r.q.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM product_variants WHERE id = $2 AND product_id = $1)`,
			productID, variantID,
		).Scan(&exists)
	}
	if err != nil {
		return false, fmt.Errorf("check product: %w", err)
	}
	return exists, nil
}
