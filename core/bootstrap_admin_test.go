package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBootstrapAdminCreatesOnce(t *testing.T) {
	repo := newMemUserRepo()
	passPath := filepath.Join(t.TempDir(), "initial_admin_password.secret")
	cfg := Config{BootstrapAdminEnabled: true, InitialAdminPasswordPath: passPath}
	ctx := context.Background()

	if err := BootstrapAdmin(ctx, repo, cfg); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	rec, err := repo.FindByEmail(ctx, bootstrapAdminEmail)
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if rec.Role != "admin" {
		t.Fatalf("role = %q", rec.Role)
	}

	// The written password matches the stored hash.
	raw, err := os.ReadFile(passPath)
	if err != nil {
		t.Fatalf("read password file: %v", err)
	}
	password := strings.TrimSpace(string(raw))
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		t.Fatalf("password does not match hash: %v", err)
	}

	// Second run is a no-op.
	if err := BootstrapAdmin(ctx, repo, cfg); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	n, _ := repo.Count(ctx)
	if n != 1 {
		t.Fatalf("user count = %d", n)
	}
}

func TestBootstrapAdminDisabled(t *testing.T) {
	repo := newMemUserRepo()
	if err := BootstrapAdmin(context.Background(), repo, Config{BootstrapAdminEnabled: false}); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	n, _ := repo.Count(context.Background())
	if n != 0 {
		t.Fatalf("user count = %d", n)
	}
}

func TestBootstrapAdminSkipsWhenAdminExists(t *testing.T) {
	repo := newMemUserRepo()
	ctx := context.Background()
	if _, err := repo.Create(ctx, UserRecord{Name: "Ops", Email: "ops@example.com", Role: "admin"}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if err := BootstrapAdmin(ctx, repo, Config{BootstrapAdminEnabled: true}); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if _, err := repo.FindByEmail(ctx, bootstrapAdminEmail); err == nil {
		t.Fatal("bootstrap admin created despite existing admin")
	}
}
