package client_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/client"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

var (
	admin = domain.Principal{ID: 1, Role: domain.RoleAdmin}
	alice = domain.Principal{ID: 2, Role: domain.RoleClient}
	bob   = domain.Principal{ID: 3, Role: domain.RoleClient}
)

func TestService_CreateOncePerUser(t *testing.T) {
	svc := client.NewService(memory.NewStore(), nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, alice, client.Input{FullName: ""}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	created, err := svc.Create(ctx, alice, client.Input{FullName: "Alice", Contact: "+7 900", Address: "Moscow"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.UserID != alice.ID || !created.Status {
		t.Fatalf("unexpected profile: %+v", created)
	}

	if _, err := svc.Create(ctx, alice, client.Input{FullName: "Alice again"}); !errors.Is(err, domain.ErrClientExists) {
		t.Fatalf("expected ErrClientExists, got %v", err)
	}
}

func TestService_AccessControl(t *testing.T) {
	svc := client.NewService(memory.NewStore(), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, alice, client.Input{FullName: "Alice"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.Get(ctx, alice, created.ID); err != nil {
		t.Fatalf("owner must read own profile: %v", err)
	}
	if _, err := svc.Get(ctx, admin, created.ID); err != nil {
		t.Fatalf("admin must read any profile: %v", err)
	}
	if _, err := svc.Get(ctx, bob, created.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for stranger, got %v", err)
	}

	if _, err := svc.List(ctx, alice); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for client list, got %v", err)
	}
	profiles, err := svc.List(ctx, admin)
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}

	if _, err := svc.Delete(ctx, alice, created.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for client delete, got %v", err)
	}
	if _, err := svc.Delete(ctx, admin, created.ID); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
}

func TestService_UpdateStatusIsAdminOnly(t *testing.T) {
	svc := client.NewService(memory.NewStore(), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, alice, client.Input{FullName: "Alice"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	disabled := false
	updated, err := svc.Update(ctx, alice, created.ID, client.Input{FullName: "Alice B.", Status: &disabled})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.FullName != "Alice B." {
		t.Fatalf("expected name updated, got %q", updated.FullName)
	}
	if !updated.Status {
		t.Fatal("client must not be able to change own status flag")
	}

	updated, err = svc.Update(ctx, admin, created.ID, client.Input{Status: &disabled})
	if err != nil {
		t.Fatalf("admin update failed: %v", err)
	}
	if updated.Status {
		t.Fatal("admin status change must apply")
	}
	if updated.FullName != "Alice B." {
		t.Fatalf("blank fields must be kept, got %q", updated.FullName)
	}

	if _, err := svc.Update(ctx, bob, created.ID, client.Input{FullName: "Hacker"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for stranger update, got %v", err)
	}
}
