package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func testCart(clientID int64) domain.Order {
	return domain.Order{
		ClientID:   clientID,
		Status:     domain.OrderStatusCart,
		TotalMinor: 2000,
		Items: []domain.OrderItem{
			{ProductID: 1, Quantity: 2, UnitPriceMinor: 1000, SubtotalMinor: 2000},
		},
	}
}

func TestOrderRepositoryIntegration_CreateAndGet(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()
	clientID := seedClientForIntegrationTest(t, store)

	created, err := store.Orders().Create(ctx, testCart(clientID))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if created.ID == 0 || created.Items[0].ID == 0 {
		t.Fatalf("expected ids to be assigned, got %+v", created)
	}

	stored, err := store.Orders().Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.Status != domain.OrderStatusCart || len(stored.Items) != 1 {
		t.Fatalf("unexpected stored order: %+v", stored)
	}

	cart, err := store.Orders().FindCart(ctx, clientID)
	if err != nil {
		t.Fatalf("find cart: %v", err)
	}
	if cart.ID != created.ID {
		t.Fatalf("expected cart %d, got %d", created.ID, cart.ID)
	}
}

func TestOrderRepositoryIntegration_SaveSyncsItems(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()
	clientID := seedClientForIntegrationTest(t, store)

	created, err := store.Orders().Create(ctx, testCart(clientID))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	created.Items = append(created.Items, domain.OrderItem{
		ProductID: 2, Quantity: 1, UnitPriceMinor: 500, SubtotalMinor: 500,
	})
	created.RecalculateTotal()

	saved, err := store.Orders().Save(ctx, created)
	if err != nil {
		t.Fatalf("save order: %v", err)
	}
	if len(saved.Items) != 2 || saved.Items[1].ID == 0 {
		t.Fatalf("expected new item id, got %+v", saved.Items)
	}

	saved.Items = saved.Items[:1]
	saved.RecalculateTotal()
	if _, err := store.Orders().Save(ctx, saved); err != nil {
		t.Fatalf("save order: %v", err)
	}

	stored, _ := store.Orders().Get(ctx, saved.ID)
	if len(stored.Items) != 1 {
		t.Fatalf("expected pruned items, got %d", len(stored.Items))
	}
}

func TestOrderRepositoryIntegration_ListExcludesCarts(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()
	clientID := seedClientForIntegrationTest(t, store)

	if _, err := store.Orders().Create(ctx, testCart(clientID)); err != nil {
		t.Fatalf("create cart: %v", err)
	}
	ordered := testCart(clientID)
	ordered.Status = domain.OrderStatusOrdered
	if _, err := store.Orders().Create(ctx, ordered); err != nil {
		t.Fatalf("create order: %v", err)
	}

	orders, total, err := store.Orders().List(ctx, domain.OrderQuery{Limit: 20})
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if total != 1 || orders[0].Status != domain.OrderStatusOrdered {
		t.Fatalf("expected only non-cart orders, got total=%d", total)
	}
}

func TestOrderRepositoryIntegration_DeleteStaleCarts(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()
	clientID := seedClientForIntegrationTest(t, store)

	stale := testCart(clientID)
	stale.OrderDate = time.Now().UTC().Add(-48 * time.Hour)
	if _, err := store.Orders().Create(ctx, stale); err != nil {
		t.Fatalf("create stale cart: %v", err)
	}

	deleted, err := store.Orders().DeleteStaleCarts(ctx, time.Now().UTC().Add(-24*time.Hour), 100)
	if err != nil {
		t.Fatalf("delete stale carts: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted cart, got %d", deleted)
	}
	if _, err := store.Orders().FindCart(ctx, clientID); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expected cart to be gone, got %v", err)
	}
}
