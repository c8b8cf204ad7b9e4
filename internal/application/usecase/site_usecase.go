package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-transfer-api/internal/application/dto"
	"github.com/jhoicas/stock-transfer-api/internal/application/inventory"
	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
)

// SiteUseCase casos de uso para sedes y ubicaciones.
type SiteUseCase struct {
	txRunner inventory.TxRunner
}

// NewSiteUseCase construye el caso de uso.
func NewSiteUseCase(txRunner inventory.TxRunner) *SiteUseCase {
	return &SiteUseCase{txRunner: txRunner}
}

// Create crea una nueva sede. El código es único (ErrDuplicate).
func (uc *SiteUseCase) Create(ctx context.Context, in dto.CreateSiteRequest) (*dto.SiteResponse, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	site := &entity.Site{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      strings.TrimSpace(in.Name),
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.txRunner.Run(ctx, func(uow inventory.UnitOfWork) error {
		return uow.Sites().Create(ctx, site)
	})
	if err != nil {
		return nil, err
	}
	return toSiteResponse(site, nil), nil
}

// GetByID obtiene una sede con sus ubicaciones.
func (uc *SiteUseCase) GetByID(ctx context.Context, id string) (*dto.SiteResponse, error) {
	var out *dto.SiteResponse
	err := uc.txRunner.Run(ctx, func(uow inventory.UnitOfWork) error {
		site, err := uow.Sites().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if site == nil {
			return domain.ErrNotFound
		}
		locations, err := uow.Sites().ListLocations(ctx, id)
		if err != nil {
			return err
		}
		out = toSiteResponse(site, locations)
		return nil
	})
	return out, err
}

// List lista sedes con paginación.
func (uc *SiteUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.SiteListResponse, error) {
	page.DefaultPage()
	var out *dto.SiteListResponse
	err := uc.txRunner.Run(ctx, func(uow inventory.UnitOfWork) error {
		list, err := uow.Sites().List(ctx, page.Limit, page.Offset)
		if err != nil {
			return err
		}
		items := make([]dto.SiteResponse, 0, len(list))
		for _, s := range list {
			items = append(items, *toSiteResponse(s, nil))
		}
		out = &dto.SiteListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}
		return nil
	})
	return out, err
}

// AddLocation crea una ubicación en la sede. El código es único por sede.
func (uc *SiteUseCase) AddLocation(ctx context.Context, siteID string, in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	code := strings.TrimSpace(in.Code)
	if siteID == "" || code == "" {
		return nil, domain.ErrInvalidInput
	}
	loc := &entity.Location{
		ID:        uuid.New().String(),
		SiteID:    siteID,
		Code:      code,
		Name:      in.Name,
		CreatedAt: time.Now(),
	}
	err := uc.txRunner.Run(ctx, func(uow inventory.UnitOfWork) error {
		site, err := uow.Sites().GetByID(ctx, siteID)
		if err != nil {
			return err
		}
		if site == nil {
			return domain.ErrNotFound
		}
		return uow.Sites().CreateLocation(ctx, loc)
	})
	if err != nil {
		return nil, err
	}
	out := toLocationResponse(loc)
	return &out, nil
}

// Delete elimina una sede. Una sede referenciada por traslados o con saldos no se puede
// eliminar (ErrConflict).
func (uc *SiteUseCase) Delete(ctx context.Context, id string) error {
	return uc.txRunner.Run(ctx, func(uow inventory.UnitOfWork) error {
		site, err := uow.Sites().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if site == nil {
			return domain.ErrNotFound
		}
		referenced, err := uow.Transfers().ExistsForSite(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return domain.ErrConflict
		}
		return uow.Sites().Delete(ctx, id)
	})
}

func toSiteResponse(s *entity.Site, locations []*entity.Location) *dto.SiteResponse {
	if s == nil {
		return nil
	}
	resp := &dto.SiteResponse{
		ID:        s.ID,
		Code:      s.Code,
		Name:      s.Name,
		Address:   s.Address,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	for _, l := range locations {
		resp.Locations = append(resp.Locations, toLocationResponse(l))
	}
	return resp
}

func toLocationResponse(l *entity.Location) dto.LocationResponse {
	return dto.LocationResponse{
		ID:        l.ID,
		SiteID:    l.SiteID,
		Code:      l.Code,
		Name:      l.Name,
		CreatedAt: l.CreatedAt,
	}
}
