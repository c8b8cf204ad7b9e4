package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-transfer-api/internal/application/dto"
	"github.com/jhoicas/stock-transfer-api/internal/application/inventory"
	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/jhoicas/stock-transfer-api/internal/domain/repository"
	"github.com/jhoicas/stock-transfer-api/internal/infrastructure/memory"
)

func repositoryFilter() repository.MovementFilter {
	return repository.MovementFilter{Limit: 100}
}

// Ciclo completo: creación, despacho y dos recepciones parciales.
func TestTransferLifecycle_CreateShipReceive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, f.s1, p1, 50)

	// A: crear
	id := f.create(t, "T1", ln(p1, 10))
	tr, err := f.transfers.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCreated, tr.Status)
	assert.True(t, f.physical(t, f.s1, p1).Equal(dec(50)), "crear no mueve stock")

	// B: despachar
	shipped, err := f.transfers.Ship(ctx, inventory.ShipTransferCommand{TransferID: id, ShippedBy: operator})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusShipped, shipped.Status)
	assert.Equal(t, fixedNow, *shipped.ShippedDate)
	assert.True(t, f.physical(t, f.s1, p1).Equal(dec(40)))
	out := f.movements(t, func(m *dto.MovementResponse) bool { return m.Type == entity.MovementTypeTransferOut })
	require.Len(t, out, 1)
	assert.True(t, out[0].Quantity.Equal(dec(10)))
	assert.Equal(t, entity.DirectionOut, out[0].Direction)
	assert.Equal(t, id, out[0].RelatedDocumentID)

	// C: recepción parcial
	got, err := f.transfers.Receive(ctx, inventory.ReceiveTransferCommand{
		TransferID: id, ReceivedBy: operator, ReceivedQuantities: map[int]decimal.Decimal{1: dec(6)},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusShipped, got.Status)
	assert.True(t, got.Lines[0].QuantityReceived.Equal(dec(6)))
	assert.True(t, f.physical(t, f.s2, p1).Equal(dec(6)))

	// D: completar
	got, err = f.transfers.Receive(ctx, inventory.ReceiveTransferCommand{
		TransferID: id, ReceivedBy: operator, ReceivedQuantities: map[int]decimal.Decimal{1: dec(4)},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusReceived, got.Status)
	assert.True(t, got.Lines[0].QuantityReceived.Equal(dec(10)))
	assert.True(t, f.physical(t, f.s2, p1).Equal(dec(10)))
	assert.Len(t, f.movements(t, func(m *dto.MovementResponse) bool { return m.Type == entity.MovementTypeTransferIn }), 2)

	// Conservación: lo que salió de S1 llegó a S2
	assert.True(t, f.physical(t, f.s1, p1).Add(f.physical(t, f.s2, p1)).Equal(dec(50)))
}

// E: stock insuficiente no deja ningún efecto.
func TestShip_InsufficientStock_NoMutation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, f.s1, p1, 5)
	id := f.create(t, "T2", ln(p1, 10))
	before := len(f.movements(t, nil))

	_, err := f.transfers.Ship(ctx, inventory.ShipTransferCommand{TransferID: id, ShippedBy: operator})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var se *domain.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Line)
	assert.True(t, se.Available.Equal(dec(5)))

	assert.True(t, f.physical(t, f.s1, p1).Equal(dec(5)))
	assert.Len(t, f.movements(t, nil), before)
	tr, err := f.transfers.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCreated, tr.Status)
	assert.Equal(t, 1, tr.Version)
}

// Si falla la segunda línea, la primera tampoco queda aplicada.
func TestShip_MultiLineFailure_RollsBackEarlierLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, f.s1, p1, 10)
	f.seed(t, f.s1, p2, 1)
	id := f.create(t, "T3", ln(p1, 5), ln(p2, 2))

	_, err := f.transfers.Ship(ctx, inventory.ShipTransferCommand{TransferID: id, ShippedBy: operator})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var se *domain.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Line)

	assert.True(t, f.physical(t, f.s1, p1).Equal(dec(10)))
	assert.Empty(t, f.movements(t, func(m *dto.MovementResponse) bool { return m.Type == entity.MovementTypeTransferOut }))
}

// F y demás transiciones inválidas.
func TestTransitions_Rejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, f.s1, p1, 20)
	id := f.create(t, "T4", ln(p1, 10))

	_, err := f.transfers.Receive(ctx, inventory.ReceiveTransferCommand{TransferID: id, ReceivedBy: operator})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.transfers.Ship(ctx, inventory.ShipTransferCommand{TransferID: id, ShippedBy: operator})
	require.NoError(t, err)

	_, err = f.transfers.Cancel(ctx, inventory.CancelTransferCommand{TransferID: id, CancelledBy: operator})
	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, entity.TransferStatusShipped, te.From)

	_, err = f.transfers.Ship(ctx, inventory.ShipTransferCommand{TransferID: id, ShippedBy: operator})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.True(t, f.physical(t, f.s1, p1).Equal(dec(10)), "un segundo despacho no descuenta")

	_, err = f.transfers.UpdateLines(ctx, inventory.UpdateTransferLinesCommand{TransferID: id, Lines: []inventory.TransferLineCommand{ln(p1, 1)}})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.transfers.Receive(ctx, inventory.ReceiveTransferCommand{
		TransferID: id, ReceivedBy: operator, ReceivedQuantities: map[int]decimal.Decimal{1: dec(11)},
	})
	assert.ErrorIs(t, err, domain.ErrOverReceipt)
	assert.Equal(t, 0, len(f.movements(t, func(m *dto.MovementResponse) bool { return m.Type == entity.MovementTypeTransferIn })))

	_, err = f.transfers.Receive(ctx, inventory.ReceiveTransferCommand{TransferID: id, ReceivedBy: operator})
	require.NoError(t, err)
	_, err = f.transfers.Receive(ctx, inventory.ReceiveTransferCommand{TransferID: id, ReceivedBy: operator})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "received es terminal")
}

func TestCancel_BeforeShip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, "T5", ln(p1, 3))

	got, err := f.transfers.Cancel(ctx, inventory.CancelTransferCommand{TransferID: id, CancelledBy: operator})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCancelled, got.Status)
	assert.Equal(t, 2, got.Version)
	assert.Empty(t, f.movements(t, nil))

	_, err = f.transfers.Ship(ctx, inventory.ShipTransferCommand{TransferID: id, ShippedBy: operator})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "T6", ln(p1, 1))

	base := func() inventory.CreateTransferCommand {
		return inventory.CreateTransferCommand{Number: "T7", SourceSiteID: f.s1, DestinationSiteID: f.s2, CreatedBy: operator, Lines: []inventory.TransferLineCommand{ln(p1, 1)}}
	}
	cases := []struct {
		name string
		mod  func(*inventory.CreateTransferCommand)
		want error
	}{
		{"número duplicado", func(c *inventory.CreateTransferCommand) { c.Number = " T6 " }, domain.ErrDuplicate},
		{"misma sede", func(c *inventory.CreateTransferCommand) { c.DestinationSiteID = f.s1 }, domain.ErrInvalidInput},
		{"sin líneas", func(c *inventory.CreateTransferCommand) { c.Lines = nil }, domain.ErrInvalidInput},
		{"cantidad negativa", func(c *inventory.CreateTransferCommand) { c.Lines = []inventory.TransferLineCommand{ln(p1, -1)} }, domain.ErrInvalidInput},
		{"sede inexistente", func(c *inventory.CreateTransferCommand) { c.DestinationSiteID = "nope" }, domain.ErrNotFound},
		{"ubicación de otra sede", func(c *inventory.CreateTransferCommand) { c.SourceLocationID = "nope" }, domain.ErrNotFound},
		{"sin autor", func(c *inventory.CreateTransferCommand) { c.CreatedBy = "" }, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := base()
			tc.mod(&cmd)
			_, err := f.transfers.Create(ctx, cmd)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreate_UnknownProductWithStrictCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, memory.WithStrictCatalog())
	f.store.AddProduct(p1, "v1")

	_, err := f.transfers.Create(ctx, inventory.CreateTransferCommand{
		Number: "T8", SourceSiteID: f.s1, DestinationSiteID: f.s2, CreatedBy: operator,
		Lines: []inventory.TransferLineCommand{ln(p1, 1), ln("desconocido", 1)},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
	var le *domain.LineError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 2, le.Line)

	_, err = f.transfers.Create(ctx, inventory.CreateTransferCommand{
		Number: "T8", SourceSiteID: f.s1, DestinationSiteID: f.s2, CreatedBy: operator,
		Lines: []inventory.TransferLineCommand{{ProductID: p1, VariantID: "v2", Quantity: dec(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound, "variante no registrada")

	_, err = f.transfers.Create(ctx, inventory.CreateTransferCommand{
		Number: "T8", SourceSiteID: f.s1, DestinationSiteID: f.s2, CreatedBy: operator,
		Lines: []inventory.TransferLineCommand{{ProductID: p1, VariantID: "v1", Quantity: dec(1)}},
	})
	assert.NoError(t, err)
}

func TestUpdateLines_ResequencesLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, "T9", ln(p1, 1))

	got, err := f.transfers.UpdateLines(ctx, inventory.UpdateTransferLinesCommand{
		TransferID: id, UpdatedBy: operator, Lines: []inventory.TransferLineCommand{ln(p2, 4), ln(p1, 2)},
	})
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, p2, got.Lines[0].ProductID)
	assert.Equal(t, 2, got.Lines[1].Sequence)
	assert.Equal(t, 2, got.Version)
}

func TestList_FiltersByStatusAndSite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, f.s1, p1, 10)
	a := f.create(t, "L1", ln(p1, 1))
	f.create(t, "L2", ln(p1, 1))
	_, err := f.transfers.Ship(ctx, inventory.ShipTransferCommand{TransferID: a, ShippedBy: operator})
	require.NoError(t, err)

	shipped, err := f.transfers.List(ctx, entity.TransferStatusShipped, "", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, shipped.Items, 1)
	assert.Equal(t, a, shipped.Items[0].ID)

	bySite, err := f.transfers.List(ctx, "", f.s2, dto.PageRequest{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, bySite.Items, 1)
	assert.Equal(t, "L2", bySite.Items[0].Number, "más recientes primero")

	_, err = f.transfers.List(ctx, "partially_received", "", dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Despachos concurrentes sobre el mismo saldo: nunca se vende más de lo disponible.
func TestShip_ConcurrentNeverOversells(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, f.s1, p1, 10)

	const n = 8
	ids := make([]string, n)
	for i := range ids {
		ids[i] = f.create(t, "C"+string(rune('A'+i)), ln(p1, 3))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.transfers.Ship(ctx, inventory.ShipTransferCommand{TransferID: id, ShippedBy: operator})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.True(t, f.physical(t, f.s1, p1).Equal(dec(1)))

	rec, err := f.stock.Reconcile(ctx, f.s1)
	require.NoError(t, err)
	assert.True(t, rec.Balanced)
}

func TestGetByID_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.transfers.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.transfers.Ship(context.Background(), inventory.ShipTransferCommand{TransferID: "missing", ShippedBy: operator})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
