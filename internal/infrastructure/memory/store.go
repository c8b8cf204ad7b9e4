// Package memory implementa la unidad de trabajo en proceso: las transacciones se serializan
// con un mutex global y trabajan sobre una copia del estado que solo se publica en el commit.
// Se usa en desarrollo (STORAGE_DRIVER=memory) y en los tests de los casos de uso.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/stock-transfer-api/internal/application/inventory"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/jhoicas/stock-transfer-api/internal/domain/repository"
)

var (
	_ inventory.TxRunner       = (*Store)(nil)
	_ inventory.SnapshotRunner = (*Store)(nil)
)

// Store almacén transaccional en memoria.
type Store struct {
	mu            sync.Mutex
	st            *state
	strictCatalog bool
}

// Option configura el Store.
type Option func(*Store)

// WithStrictCatalog exige que los productos estén registrados con AddProduct.
// Sin esta opción todo producto se considera existente.
func WithStrictCatalog() Option {
	return func(s *Store) { s.strictCatalog = true }
}

// New crea un almacén vacío.
func New(opts ...Option) *Store {
	s := &Store{st: newState()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddProduct registra un producto (y sus variantes) en el catálogo en memoria.
func (s *Store) AddProduct(productID string, variantIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	variants, ok := s.st.products[productID]
	if !ok {
		variants = map[string]struct{}{}
		s.st.products[productID] = variants
	}
	for _, v := range variantIDs {
		variants[v] = struct{}{}
	}
}

// Run ejecuta fn sobre una copia del estado; si fn devuelve nil la copia pasa a ser el estado
// actual (commit), si no se descarta (rollback). Un panic también descarta la copia.
func (s *Store) Run(ctx context.Context, fn func(uow inventory.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.st.clone()
	if err := fn(&unitOfWork{st: staged, strict: s.strictCatalog}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = staged
	return nil
}

// RunSnapshot ejecuta fn sobre una copia que siempre se descarta. El mutex ya garantiza
// que fn ve un estado consistente.
func (s *Store) RunSnapshot(ctx context.Context, fn func(uow inventory.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&unitOfWork{st: s.st.clone(), strict: s.strictCatalog})
}

type unitOfWork struct {
	st     *state
	strict bool
}

func (u *unitOfWork) Sites() repository.SiteRepository              { return siteRepo{st: u.st} }
func (u *unitOfWork) Stock() repository.StockItemRepository         { return stockRepo{st: u.st} }
func (u *unitOfWork) Movements() repository.StockMovementRepository { return movementRepo{st: u.st} }
func (u *unitOfWork) Transfers() repository.StockTransferRepository { return transferRepo{st: u.st} }
func (u *unitOfWork) Catalog() repository.CatalogRepository {
	return catalogRepo{st: u.st, strict: u.strict}
}

type state struct {
	sites         map[string]entity.Site
	siteOrder     []string
	locations     map[string]entity.Location
	items         map[entity.StockItemKey]entity.StockItem
	movements     []entity.StockMovement
	transfers     map[string]*entity.StockTransfer
	transferOrder []string
	products      map[string]map[string]struct{}
}

func newState() *state {
	return &state{
		sites:     map[string]entity.Site{},
		locations: map[string]entity.Location{},
		items:     map[entity.StockItemKey]entity.StockItem{},
		transfers: map[string]*entity.StockTransfer{},
		products:  map[string]map[string]struct{}{},
	}
}

// clone copia el estado. Los movimientos son append-only: basta con limitar la capacidad
// para que un append de la copia no escriba sobre el arreglo compartido.
func (s *state) clone() *state {
	c := &state{
		sites:         make(map[string]entity.Site, len(s.sites)),
		siteOrder:     s.siteOrder[:len(s.siteOrder):len(s.siteOrder)],
		locations:     make(map[string]entity.Location, len(s.locations)),
		items:         make(map[entity.StockItemKey]entity.StockItem, len(s.items)),
		movements:     s.movements[:len(s.movements):len(s.movements)],
		transfers:     make(map[string]*entity.StockTransfer, len(s.transfers)),
		transferOrder: s.transferOrder[:len(s.transferOrder):len(s.transferOrder)],
		products:      s.products,
	}
	for k, v := range s.sites {
		c.sites[k] = v
	}
	for k, v := range s.locations {
		c.locations[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.transfers {
		c.transfers[k] = v.Clone()
	}
	return c
}
