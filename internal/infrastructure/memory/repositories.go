package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/jhoicas/stock-transfer-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.SiteRepository          = siteRepo{}
	_ repository.StockItemRepository     = stockRepo{}
	_ repository.StockMovementRepository = movementRepo{}
	_ repository.StockTransferRepository = transferRepo{}
	_ repository.CatalogRepository       = catalogRepo{}
)

type siteRepo struct{ st *state }

func (r siteRepo) Create(_ context.Context, site *entity.Site) error {
	for _, s := range r.st.sites {
		if s.Code == site.Code {
			return domain.ErrDuplicate
		}
	}
	r.st.sites[site.ID] = *site
	r.st.siteOrder = append(r.st.siteOrder, site.ID)
	return nil
}

func (r siteRepo) GetByID(_ context.Context, id string) (*entity.Site, error) {
	s, ok := r.st.sites[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r siteRepo) List(_ context.Context, limit, offset int) ([]*entity.Site, error) {
	var list []*entity.Site
	for _, id := range r.st.siteOrder {
		if s, ok := r.st.sites[id]; ok {
			list = append(list, &s)
		}
	}
	return paginate(list, limit, offset), nil
}

func (r siteRepo) Delete(_ context.Context, id string) error {
	for k := range r.st.items {
		if k.SiteID == id {
			return domain.ErrConflict
		}
	}
	delete(r.st.sites, id)
	for lid, l := range r.st.locations {
		if l.SiteID == id {
			delete(r.st.locations, lid)
		}
	}
	return nil
}

func (r siteRepo) CreateLocation(_ context.Context, loc *entity.Location) error {
	for _, l := range r.st.locations {
		if l.SiteID == loc.SiteID && l.Code == loc.Code {
			return domain.ErrDuplicate
		}
	}
	r.st.locations[loc.ID] = *loc
	return nil
}

func (r siteRepo) GetLocation(_ context.Context, id string) (*entity.Location, error) {
	l, ok := r.st.locations[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r siteRepo) ListLocations(_ context.Context, siteID string) ([]*entity.Location, error) {
	var list []*entity.Location
	for _, l := range r.st.locations {
		if l.SiteID == siteID {
			l := l
			list = append(list, &l)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list, nil
}

type stockRepo struct{ st *state }

func (r stockRepo) Get(_ context.Context, key entity.StockItemKey) (*entity.StockItem, error) {
	it, ok := r.st.items[key]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

// GetForUpdate: la transacción ya tiene acceso exclusivo al estado; solo crea el saldo si falta.
func (r stockRepo) GetForUpdate(_ context.Context, key entity.StockItemKey) (*entity.StockItem, error) {
	it, ok := r.st.items[key]
	if !ok {
		it = *entity.NewStockItem(uuid.New().String(), key, time.Now())
		r.st.items[key] = it
	}
	return &it, nil
}

func (r stockRepo) Update(_ context.Context, item *entity.StockItem) error {
	key := item.Key()
	if _, ok := r.st.items[key]; !ok {
		return domain.ErrNotFound
	}
	r.st.items[key] = *item
	return nil
}

func (r stockRepo) ListBySite(_ context.Context, siteID, productID string) ([]*entity.StockItem, error) {
	var list []*entity.StockItem
	for k, it := range r.st.items {
		if k.SiteID != siteID || (productID != "" && k.ProductID != productID) {
			continue
		}
		it := it
		list = append(list, &it)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key().String() < list[j].Key().String() })
	return list, nil
}

func (r stockRepo) ListByProduct(_ context.Context, productID, variantID string) ([]*entity.StockItem, error) {
	var list []*entity.StockItem
	for k, it := range r.st.items {
		if k.ProductID != productID || k.VariantID != variantID {
			continue
		}
		it := it
		list = append(list, &it)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key().String() < list[j].Key().String() })
	return list, nil
}

type movementRepo struct{ st *state }

func (r movementRepo) Append(_ context.Context, m *entity.StockMovement) error {
	r.st.movements = append(r.st.movements, *m)
	return nil
}

// List devuelve los movimientos del más reciente al más antiguo.
func (r movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for i := len(r.st.movements) - 1; i >= 0; i-- {
		m := r.st.movements[i]
		if f.SiteID != "" && m.SiteID != f.SiteID {
			continue
		}
		if f.ProductID != "" && m.ProductID != f.ProductID {
			continue
		}
		if f.DocumentType != "" && m.RelatedDocumentType != f.DocumentType {
			continue
		}
		if f.DocumentID != "" && m.RelatedDocumentID != f.DocumentID {
			continue
		}
		list = append(list, &m)
	}
	return paginate(list, f.Limit, f.Offset), nil
}

func (r movementRepo) SumByStockItem(_ context.Context, siteID string) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	for i := range r.st.movements {
		m := &r.st.movements[i]
		if m.SiteID != siteID {
			continue
		}
		out[m.StockItemID] = out[m.StockItemID].Add(m.Signed())
	}
	return out, nil
}

type transferRepo struct{ st *state }

func (r transferRepo) Create(_ context.Context, t *entity.StockTransfer) error {
	for _, existing := range r.st.transfers {
		if existing.Number == t.Number {
			return domain.ErrDuplicate
		}
	}
	r.st.transfers[t.ID] = t.Clone()
	r.st.transferOrder = append(r.st.transferOrder, t.ID)
	return nil
}

func (r transferRepo) GetByID(_ context.Context, id string) (*entity.StockTransfer, error) {
	t, ok := r.st.transfers[id]
	if !ok {
		return nil, nil
	}
	return t.Clone(), nil
}

func (r transferRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.GetByID(ctx, id)
}

func (r transferRepo) GetByNumber(_ context.Context, number string) (*entity.StockTransfer, error) {
	for _, t := range r.st.transfers {
		if t.Number == number {
			return t.Clone(), nil
		}
	}
	return nil, nil
}

func (r transferRepo) Update(_ context.Context, t *entity.StockTransfer, expectedVersion int) error {
	stored, ok := r.st.transfers[t.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrConflict
	}
	r.st.transfers[t.ID] = t.Clone()
	return nil
}

// List devuelve los traslados del más reciente al más antiguo.
func (r transferRepo) List(_ context.Context, f repository.TransferFilter) ([]*entity.StockTransfer, error) {
	var list []*entity.StockTransfer
	for i := len(r.st.transferOrder) - 1; i >= 0; i-- {
		t := r.st.transfers[r.st.transferOrder[i]]
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.SiteID != "" && t.SourceSiteID != f.SiteID && t.DestinationSiteID != f.SiteID {
			continue
		}
		list = append(list, t.Clone())
	}
	return paginate(list, f.Limit, f.Offset), nil
}

func (r transferRepo) ExistsForSite(_ context.Context, siteID string) (bool, error) {
	for _, t := range r.st.transfers {
		if t.SourceSiteID == siteID || t.DestinationSiteID == siteID {
			return true, nil
		}
	}
	return false, nil
}

type catalogRepo struct {
	st     *state
	strict bool
}

func (r catalogRepo) ProductExists(_ context.Context, productID, variantID string) (bool, error) {
	if !r.strict {
		return true, nil
	}
	variants, ok := r.st.products[productID]
	if !ok {
		return false, nil
	}
	if variantID == "" {
		return true, nil
	}
	_, ok = variants[variantID]
	return ok, nil
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
