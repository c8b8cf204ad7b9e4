package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/jhoicas/stock-transfer-api/internal/domain/repository"
)

var _ repository.StockTransferRepository = (*StockTransferRepo)(nil)

// StockTransferRepo persiste el agregado StockTransfer (cabecera + líneas) sobre PostgreSQL.
type StockTransferRepo struct {
	q Querier
}

// NewStockTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockTransferRepository(q Querier) *StockTransferRepo {
	return &StockTransferRepo{q: q}
}

const transferColumns = `
	id, number, source_site_id, destination_site_id, source_location_id, destination_location_id,
	status, requested_date, shipped_date, received_date, shipped_by, received_by, created_by,
	notes, version, created_at, updated_at`

func scanTransfer(row pgx.Row) (*entity.StockTransfer, error) {
	var t entity.StockTransfer
	var srcLoc, dstLoc *string
	err := row.Scan(
		&t.ID, &t.Number, &t.SourceSiteID, &t.DestinationSiteID, &srcLoc, &dstLoc,
		&t.Status, &t.RequestedDate, &t.ShippedDate, &t.ReceivedDate, &t.ShippedBy, &t.ReceivedBy, &t.CreatedBy,
		&t.Notes, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.SourceLocationID = deref(srcLoc)
	t.DestinationLocationID = deref(dstLoc)
	return &t, nil
}

// Create inserta cabecera y líneas. Número repetido -> domain.ErrDuplicate.
func (r *StockTransferRepo) Create(ctx context.Context, t *entity.StockTransfer) error {
	query := `
		INSERT INTO stock_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.Number, t.SourceSiteID, t.DestinationSiteID, nullable(t.SourceLocationID), nullable(t.DestinationLocationID),
		t.Status, t.RequestedDate, t.ShippedDate, t.ReceivedDate, t.ShippedBy, t.ReceivedBy, t.CreatedBy,
		t.Notes, t.Version, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return writeError(err, "insert stock transfer")
	}
	return r.insertLines(ctx, t)
}

func (r *StockTransferRepo) insertLines(ctx context.Context, t *entity.StockTransfer) error {
	query := `
		INSERT INTO stock_transfer_lines (id, transfer_id, sequence, product_id, variant_id, quantity, quantity_received, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, l := range t.Lines {
		_, err := r.q.Exec(ctx, query,
			l.ID, t.ID, l.Sequence, l.ProductID, nullable(l.VariantID), l.Quantity, l.QuantityReceived, l.Notes,
		)
		if err != nil {
			return writeError(err, fmt.Sprintf("insert stock transfer line %d", l.Sequence))
		}
	}
	return nil
}

// GetByID obtiene el traslado con sus líneas; nil si no existe.
func (r *StockTransferRepo) GetByID(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.get(ctx, `id = $1`, id, false)
}

// GetForUpdate como GetByID pero bloquea la cabecera hasta el fin de la transacción.
func (r *StockTransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.get(ctx, `id = $1`, id, true)
}

// GetByNumber busca por número de documento; nil si no existe.
func (r *StockTransferRepo) GetByNumber(ctx context.Context, number string) (*entity.StockTransfer, error) {
	return r.get(ctx, `number = $1`, number, false)
}

func (r *StockTransferRepo) get(ctx context.Context, where string, arg string, lock bool) (*entity.StockTransfer, error) {
	if strings.HasPrefix(where, "id") && !isUUID(arg) {
		return nil, nil
	}
	query := `SELECT ` + transferColumns + ` FROM stock_transfers WHERE ` + where
	if lock {
		query += ` FOR UPDATE`
	}
	t, err := scanTransfer(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock transfer: %w", err)
	}
	lines, err := r.loadLines(ctx, []string{t.ID})
	if err != nil {
		return nil, err
	}
	t.Lines = lines[t.ID]
	return t, nil
}

func (r *StockTransferRepo) loadLines(ctx context.Context, ids []string) (map[string][]entity.StockTransferLine, error) {
	out := make(map[string][]entity.StockTransferLine, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `
		SELECT id, transfer_id, sequence, product_id, variant_id, quantity, quantity_received, notes
		FROM stock_transfer_lines WHERE transfer_id = ANY($1::uuid[])
		ORDER BY transfer_id, sequence`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list stock transfer lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.StockTransferLine
		var variantID *string
		if err := rows.Scan(&l.ID, &l.TransferID, &l.Sequence, &l.ProductID, &variantID,
			&l.Quantity, &l.QuantityReceived, &l.Notes); err != nil {
			return nil, fmt.Errorf("scan stock transfer line: %w", err)
		}
		l.VariantID = deref(variantID)
		out[l.TransferID] = append(out[l.TransferID], l)
	}
	return out, rows.Err()
}

// Update persiste cabecera y líneas si version = expectedVersion. En created las líneas se
// reemplazan completas conservando sus IDs; después solo cambia quantity_received.
func (r *StockTransferRepo) Update(ctx context.Context, t *entity.StockTransfer, expectedVersion int) error {
	query := `
		UPDATE stock_transfers SET
			source_location_id = $3, destination_location_id = $4, status = $5,
			requested_date = $6, shipped_date = $7, received_date = $8,
			shipped_by = $9, received_by = $10, notes = $11, version = $12, updated_at = $13
		WHERE id = $1 AND version = $2`
	cmd, err := r.q.Exec(ctx, query,
		t.ID, expectedVersion, nullable(t.SourceLocationID), nullable(t.DestinationLocationID), t.Status,
		t.RequestedDate, t.ShippedDate, t.ReceivedDate,
		t.ShippedBy, t.ReceivedBy, t.Notes, t.Version, t.UpdatedAt,
	)
	if err != nil {
		return writeError(err, "update stock transfer")
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stock_transfers WHERE id = $1)`, t.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check stock transfer: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}

	if !linesEditable(t.Status) {
		return r.updateReceived(ctx, t)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM stock_transfer_lines WHERE transfer_id = $1`, t.ID); err != nil {
		return fmt.Errorf("delete stock transfer lines: %w", err)
	}
	return r.insertLines(ctx, t)
}

// linesEditable true mientras producto, cantidad y orden de las líneas pueden cambiar.
func linesEditable(status string) bool {
	return status == entity.TransferStatusCreated
}

// updateReceived escribe solo las líneas cuyo quantity_received cambió.
func (r *StockTransferRepo) updateReceived(ctx context.Context, t *entity.StockTransfer) error {
	query := `
		UPDATE stock_transfer_lines SET quantity_received = $3
		WHERE transfer_id = $1 AND sequence = $2 AND quantity_received <> $3`
	for _, l := range t.Lines {
		if _, err := r.q.Exec(ctx, query, t.ID, l.Sequence, l.QuantityReceived); err != nil {
			return writeError(err, fmt.Sprintf("update stock transfer line %d", l.Sequence))
		}
	}
	return nil
}

// List traslados del más reciente al más antiguo. SiteID coincide con origen o destino.
func (r *StockTransferRepo) List(ctx context.Context, f repository.TransferFilter) ([]*entity.StockTransfer, error) {
	var where []string
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.SiteID != "" {
		if !isUUID(f.SiteID) {
			return nil, nil
		}
		args = append(args, f.SiteID)
		where = append(where, fmt.Sprintf("(source_site_id = $%d OR destination_site_id = $%d)", len(args), len(args)))
	}
	query := `SELECT ` + transferColumns + ` FROM stock_transfers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, number DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock transfers: %w", err)
	}
	var list []*entity.StockTransfer
	var ids []string
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan stock transfer: %w", err)
		}
		list = append(list, t)
		ids = append(ids, t.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		t.Lines = lines[t.ID]
	}
	return list, nil
}

// ExistsForSite true si algún traslado tiene la sede como origen o destino.
func (r *StockTransferRepo) ExistsForSite(ctx context.Context, siteID string) (bool, error) {
	if !isUUID(siteID) {
		return false, nil
	}
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM stock_transfers WHERE source_site_id = $1 OR destination_site_id = $1)`,
		siteID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check site transfers: %w", err)
	}
	return exists, nil
}
