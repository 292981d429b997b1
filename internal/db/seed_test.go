package db

import (
	"context"
	"testing"

	"github.com/geocoder89/filmlib/internal/config"
	"github.com/geocoder89/filmlib/internal/repo/memory"
	"github.com/geocoder89/filmlib/internal/security"
)

func TestEnsureUsers(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUsersRepo()

	seeds := []config.SeedUser{
		{Username: "john.doe@polito.it", Password: "password", Name: "John"},
		{Username: "mario.rossi@polito.it", Password: "password", Name: "Mario"},
	}

	if err := EnsureUsers(ctx, users, seeds, nil); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	first, err := users.GetByUsername(ctx, "john.doe@polito.it")
	if err != nil {
		t.Fatalf("seeded user missing: %v", err)
	}

	if err := security.CheckPassword(first.PasswordHash, "password"); err != nil {
		t.Fatalf("seeded password does not verify: %v", err)
	}

	// a second run keeps existing rows as they are
	seeds[0].Password = "changed"
	if err := EnsureUsers(ctx, users, seeds, nil); err != nil {
		t.Fatalf("reseed failed: %v", err)
	}

	again, _ := users.GetByUsername(ctx, "john.doe@polito.it")
	if again.ID != first.ID || again.PasswordHash != first.PasswordHash {
		t.Fatalf("existing user must not be modified")
	}
}
