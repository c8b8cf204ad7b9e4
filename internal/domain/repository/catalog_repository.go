package repository

import "context"

// CatalogRepository consulta la existencia de productos/variantes del catálogo externo.
type CatalogRepository interface {
	ProductExists(ctx context.Context, productID, variantID string) (bool, error)
}
