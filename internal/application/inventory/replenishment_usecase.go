package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/stock-transfer-api/internal/application/dto"
	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var idealFactor = decimal.NewFromFloat(1.5)

// ReplenishmentUseCase arma la lista de reposición de una sede: saldos bajo punto de reorden,
// cantidad sugerida y sedes con excedente desde donde crear el traslado.
type ReplenishmentUseCase struct {
	txRunner TxRunner
	now      func() time.Time
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(txRunner TxRunner) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{txRunner: txRunner, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *ReplenishmentUseCase) WithClock(now func() time.Time) *ReplenishmentUseCase {
	uc.now = now
	return uc
}

// Suggest devuelve las sugerencias ordenadas por urgencia: primero menor cobertura
// (disponible / punto de reorden), luego mayor déficit absoluto.
// Solo lee, sobre una foto consistente; no reserva ni crea traslados.
func (uc *ReplenishmentUseCase) Suggest(ctx context.Context, siteID string) (*dto.ReplenishmentResponse, error) {
	if siteID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *dto.ReplenishmentResponse
	err := runSnapshot(ctx, uc.txRunner, func(uow UnitOfWork) error {
		site, err := uow.Sites().GetByID(ctx, siteID)
		if err != nil {
			return err
		}
		if site == nil {
			return domain.ErrNotFound
		}
		items, err := uow.Stock().ListBySite(ctx, siteID, "")
		if err != nil {
			return err
		}

		suggestions := make([]dto.ReplenishmentSuggestionDTO, 0)
		for _, it := range items {
			if !it.BelowReorderPoint() {
				continue
			}
			ideal := idealStock(it)
			qty := ideal.Sub(it.Available())
			if !qty.IsPositive() {
				continue
			}
			others, err := uow.Stock().ListByProduct(ctx, it.ProductID, it.VariantID)
			if err != nil {
				return err
			}
			sources, total := surplusSources(others, siteID)
			suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
				StockItemID:       it.ID,
				ProductID:         it.ProductID,
				VariantID:         it.VariantID,
				LocationID:        it.LocationID,
				Available:         it.Available(),
				ReorderPoint:      it.ReorderPoint,
				IdealStock:        ideal,
				SuggestedQuantity: qty,
				Sources:           sources,
				Coverable:         total.GreaterThanOrEqual(qty),
			})
		}

		sort.SliceStable(suggestions, func(i, j int) bool {
			a, b := suggestions[i], suggestions[j]
			ca := a.Available.Div(a.ReorderPoint)
			cb := b.Available.Div(b.ReorderPoint)
			if !ca.Equal(cb) {
				return ca.LessThan(cb)
			}
			return a.SuggestedQuantity.GreaterThan(b.SuggestedQuantity)
		})
		for i := range suggestions {
			suggestions[i].Priority = i + 1
		}

		out = &dto.ReplenishmentResponse{SiteID: siteID, Suggestions: suggestions, GeneratedAt: uc.now()}
		return nil
	})
	return out, err
}

// idealStock usa MaxStock si está configurado.
func idealStock(it *entity.StockItem) decimal.Decimal {
	if it.MaxStock.IsPositive() {
		return it.MaxStock
	}
	return it.ReorderPoint.Mul(idealFactor)
}

// surplusSources saldos de otras sedes con disponible sobre su punto de reorden, mayor excedente primero.
func surplusSources(items []*entity.StockItem, excludeSite string) ([]dto.ReplenishmentSourceDTO, decimal.Decimal) {
	sources := make([]dto.ReplenishmentSourceDTO, 0)
	total := decimal.Zero
	for _, o := range items {
		if o.SiteID == excludeSite {
			continue
		}
		surplus := o.Available().Sub(o.ReorderPoint)
		if !surplus.IsPositive() {
			continue
		}
		sources = append(sources, dto.ReplenishmentSourceDTO{
			SiteID:     o.SiteID,
			LocationID: o.LocationID,
			Available:  o.Available(),
			Surplus:    surplus,
		})
		total = total.Add(surplus)
	}
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].Surplus.GreaterThan(sources[j].Surplus) })
	return sources, total
}
