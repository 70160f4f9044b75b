package order

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"farofatrip/internal/logger"
	"farofatrip/internal/models"
)

type recordingNotifier struct {
	orders []*models.Order
}

func (n *recordingNotifier) SendOrderCreated(_ context.Context, order *models.Order) {
	n.orders = append(n.orders, order)
}

func newTestService(t *testing.T) (*Service, *DB, *recordingNotifier) {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, models.Migrate(context.Background(), bunDB))
	t.Cleanup(func() { bunDB.Close() })

	db := &DB{Bun: bunDB}
	notifier := &recordingNotifier{}
	return NewService(db, notifier, nil, logger.Discard()), db, notifier
}

func seedEvent(t *testing.T, db *DB, nome, preco, precoExcursao string) *models.Event {
	t.Helper()
	event := &models.Event{
		Nome:          nome,
		Local:         "Espaço " + nome,
		Cidade:        "Campinas",
		Data:          time.Now().Add(72 * time.Hour),
		Preco:         decimal.RequireFromString(preco),
		PrecoExcursao: decimal.RequireFromString(precoExcursao),
	}
	_, err := db.Bun.NewInsert().Model(event).Exec(context.Background())
	require.NoError(t, err)
	return event
}

func seedUser(t *testing.T, db *DB, username string) int64 {
	t.Helper()
	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "x",
		Active:    true,
		CreatedAt: time.Now(),
	}
	_, err := db.Bun.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return user.ID
}

func intPtr(v int) *int { return &v }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestPlaceOrderSnapshotPricing(t *testing.T) {
	svc, db, notifier := newTestService(t)
	ctx := context.Background()

	event := seedEvent(t, db, "Farofa na Praia", "100.00", "20.00")

	order, err := svc.PlaceOrder(ctx, nil, OrderRequest{
		Itens: []ItemRequest{{EventoID: event.ID, Quantidade: intPtr(2)}},
	})
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.True(t, item.PrecoIngresso.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, item.PrecoExcursao.Equal(decimal.RequireFromString("20.00")))
	assert.Equal(t, "240.00", item.Subtotal.StringFixed(2))
	assert.Equal(t, "240.00", order.ValorTotal.StringFixed(2))
	assert.Equal(t, models.StatusPending, order.Status)

	require.Len(t, notifier.orders, 1)
	assert.Equal(t, order.ID, notifier.orders[0].ID)
}

func TestPlaceOrderPriceOverrideWins(t *testing.T) {
	svc, db, _ := newTestService(t)
	event := seedEvent(t, db, "Farofa na Praia", "100.00", "20.00")

	order, err := svc.PlaceOrder(context.Background(), nil, OrderRequest{
		Itens: []ItemRequest{{
			EventoID:      event.ID,
			Quantidade:    intPtr(3),
			PrecoIngresso: decPtr("80.00"),
			PrecoExcursao: decPtr("0.00"),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "240.00", order.Items[0].Subtotal.StringFixed(2))
	assert.Equal(t, "240.00", order.ValorTotal.StringFixed(2))
}

func TestPlaceOrderTotalsAcrossLines(t *testing.T) {
	svc, db, _ := newTestService(t)
	praia := seedEvent(t, db, "Farofa na Praia", "100.00", "20.00")
	serra := seedEvent(t, db, "Farofa na Serra", "50.50", "0.00")

	order, err := svc.PlaceOrder(context.Background(), nil, OrderRequest{
		FormaPagamento: models.PaymentPix,
		Itens: []ItemRequest{
			{EventoID: praia.ID, Quantidade: intPtr(2)},
			{EventoID: serra.ID}, // quantidade defaults to 1
		},
	})
	require.NoError(t, err)

	require.Len(t, order.Items, 2)
	assert.Equal(t, 1, order.Items[1].Quantidade)
	assert.Equal(t, "290.50", order.ValorTotal.StringFixed(2))
	assert.Equal(t, models.StatusPaid, order.Status)
}

func TestPlaceOrderWithoutItems(t *testing.T) {
	svc, _, _ := newTestService(t)

	order, err := svc.PlaceOrder(context.Background(), nil, OrderRequest{
		FormaPagamento: models.PaymentBoleto,
		Observacoes:    "reservar na porta",
	})
	require.NoError(t, err)
	assert.Empty(t, order.Items)
	assert.Equal(t, "0.00", order.ValorTotal.StringFixed(2))
	assert.Equal(t, models.StatusPaid, order.Status)
}

func TestPlaceOrderInvalidQuantityWritesNothing(t *testing.T) {
	svc, db, notifier := newTestService(t)
	ctx := context.Background()
	event := seedEvent(t, db, "Farofa na Praia", "100.00", "20.00")

	_, err := svc.PlaceOrder(ctx, nil, OrderRequest{
		Itens: []ItemRequest{
			{EventoID: event.ID, Quantidade: intPtr(1)},
			{EventoID: event.ID, Quantidade: intPtr(0)},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	count, err := db.Bun.NewSelect().Model((*models.Order)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, notifier.orders)
}

func TestPlaceOrderUnknownPaymentMethod(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.PlaceOrder(context.Background(), nil, OrderRequest{FormaPagamento: "dinheiro"})
	assert.ErrorIs(t, err, ErrInvalidPayment)
}

func TestPlaceOrderUnknownEventWritesNothing(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, nil, OrderRequest{
		Itens: []ItemRequest{{EventoID: 9999, Quantidade: intPtr(1)}},
	})
	assert.ErrorIs(t, err, ErrEventNotFound)

	count, err := db.Bun.NewSelect().Model((*models.Order)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListOrdersNewestFirst(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	event := seedEvent(t, db, "Farofa na Praia", "100.00", "20.00")
	userID := seedUser(t, db, "maria")

	first, err := svc.PlaceOrder(ctx, &userID, OrderRequest{
		Itens: []ItemRequest{{EventoID: event.ID}},
	})
	require.NoError(t, err)

	// Nudge the clock so ordering by criado_em is deterministic.
	_, err = db.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("criado_em = ?", time.Now().Add(-time.Hour)).
		Where("id = ?", first.ID).
		Exec(ctx)
	require.NoError(t, err)

	second, err := svc.PlaceOrder(ctx, &userID, OrderRequest{
		Itens: []ItemRequest{{EventoID: event.ID}},
	})
	require.NoError(t, err)

	orders, err := svc.ListOrders(ctx, userID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
	require.Len(t, orders[0].Items, 1)
}

func TestGetOrderIsOwnerScoped(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	event := seedEvent(t, db, "Farofa na Praia", "100.00", "20.00")
	maria := seedUser(t, db, "maria")
	joao := seedUser(t, db, "joao")

	order, err := svc.PlaceOrder(ctx, &maria, OrderRequest{
		Itens: []ItemRequest{{EventoID: event.ID}},
	})
	require.NoError(t, err)

	loaded, err := svc.GetOrder(ctx, order.ID, &maria)
	require.NoError(t, err)
	assert.Equal(t, order.ID, loaded.ID)

	_, err = svc.GetOrder(ctx, order.ID, &joao)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.GetOrder(ctx, order.ID, nil)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.GetOrder(ctx, 9999, &maria)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAnonymousOrderIsInvisibleToEveryone(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	event := seedEvent(t, db, "Farofa na Praia", "100.00", "20.00")
	maria := seedUser(t, db, "maria")

	order, err := svc.PlaceOrder(ctx, nil, OrderRequest{
		Itens: []ItemRequest{{EventoID: event.ID}},
	})
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, order.ID, &maria)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
