package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/jhoicas/stock-transfer-api/internal/domain/repository"
)

var _ repository.SiteRepository = (*SiteRepo)(nil)

// SiteRepo implementación del puerto SiteRepository sobre PostgreSQL.
type SiteRepo struct {
	q Querier
}

// NewSiteRepository construye el adaptador de persistencia para sedes. Pasar pool o tx (Querier).
func NewSiteRepository(q Querier) *SiteRepo {
	return &SiteRepo{q: q}
}

// Create persiste una nueva sede. Código repetido -> domain.ErrDuplicate.
func (r *SiteRepo) Create(ctx context.Context, site *entity.Site) error {
	query := `
		INSERT INTO sites (id, code, name, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		site.ID, site.Code, site.Name, site.Address, site.CreatedAt, site.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert site: %w", err)
	}
	return nil
}

// GetByID obtiene una sede por ID; nil si no existe.
func (r *SiteRepo) GetByID(ctx context.Context, id string) (*entity.Site, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `
		SELECT id, code, name, address, created_at, updated_at
		FROM sites WHERE id = $1`
	var s entity.Site
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Code, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get site: %w", err)
	}
	return &s, nil
}

// List lista sedes por código con paginación.
func (r *SiteRepo) List(ctx context.Context, limit, offset int) ([]*entity.Site, error) {
	query := `
		SELECT id, code, name, address, created_at, updated_at
		FROM sites ORDER BY code LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()
	var list []*entity.Site
	for rows.Next() {
		var s entity.Site
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// Delete elimina la sede y sus ubicaciones. Si hay saldos o traslados que la referencian
// la llave foránea lo impide y se devuelve domain.ErrConflict.
func (r *SiteRepo) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return nil
	}
	_, err := r.q.Exec(ctx, `DELETE FROM sites WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("delete site: %w", err)
	}
	return nil
}

// CreateLocation persiste una ubicación. Código repetido en la sede -> domain.ErrDuplicate.
func (r *SiteRepo) CreateLocation(ctx context.Context, loc *entity.Location) error {
	query := `
		INSERT INTO locations (id, site_id, code, name, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, loc.ID, loc.SiteID, loc.Code, loc.Name, loc.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

// GetLocation obtiene una ubicación por ID; nil si no existe.
func (r *SiteRepo) GetLocation(ctx context.Context, id string) (*entity.Location, error) {
	if !isUUID(id) {
		return nil, nil
	}
	var l entity.Location
	err := r.q.QueryRow(ctx,
		`SELECT id, site_id, code, name, created_at FROM locations WHERE id = $1`, id,
	).Scan(&l.ID, &l.SiteID, &l.Code, &l.Name, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

// ListLocations ubicaciones de una sede ordenadas por código.
func (r *SiteRepo) ListLocations(ctx context.Context, siteID string) ([]*entity.Location, error) {
	if !isUUID(siteID) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx,
		`SELECT id, site_id, code, name, created_at FROM locations WHERE site_id = $1 ORDER BY code`, siteID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Location
	for rows.Next() {
		var l entity.Location
		if err := rows.Scan(&l.ID, &l.SiteID, &l.Code, &l.Name, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
