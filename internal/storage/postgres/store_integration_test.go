package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func testUser(email string) domain.User {
	return domain.User{
		Name:         "integration",
		Email:        email,
		PasswordHash: "$2a$10$hash",
		Role:         domain.RoleClient,
	}
}

func testClient(userID int64) domain.Client {
	return domain.Client{
		UserID:   userID,
		FullName: "Integration Client",
		Status:   true,
	}
}

func testProduct(name string, stock int32) domain.Product {
	return domain.Product{
		Name:       name,
		PriceMinor: 1000,
		Stock:      stock,
	}
}

func TestStoreIntegration_WithinTxRollback(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()

	product, err := store.Products().Create(ctx, testProduct("chair", 5))
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	boom := errors.New("boom")
	err = store.WithinTx(ctx, func(tx domain.Store) error {
		if _, err := tx.Products().AdjustStock(ctx, product.ID, -3); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	stored, err := store.Products().Get(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if stored.Stock != 5 {
		t.Fatalf("expected stock rolled back to 5, got %d", stored.Stock)
	}
}

func TestStoreIntegration_WithinTxCommit(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()

	product, err := store.Products().Create(ctx, testProduct("table", 2))
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	err = store.WithinTx(ctx, func(tx domain.Store) error {
		_, err := tx.Products().AdjustStock(ctx, product.ID, -2)
		return err
	})
	if err != nil {
		t.Fatalf("tx failed: %v", err)
	}

	stored, _ := store.Products().Get(ctx, product.ID)
	if stored.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", stored.Stock)
	}
}

func TestStoreIntegration_AdjustStockGuards(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()

	product, err := store.Products().Create(ctx, testProduct("lamp", 1))
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	if _, err := store.Products().AdjustStock(ctx, product.ID, -2); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if _, err := store.Products().AdjustStock(ctx, 999999, -1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestStoreIntegration_UserEmailUnique(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()

	if _, err := store.Users().Create(ctx, testUser("dup@shop.dev")); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := store.Users().Create(ctx, testUser("Dup@Shop.Dev")); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}
