package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
)

func newTestAuth() (*RepositoryAuthService, *memUserRepo, *TokenIssuer) {
	users := newMemUserRepo()
	issuer := NewTokenIssuer("secret", TokenTTL)
	return NewRepositoryAuthService(users, issuer), users, issuer
}

func TestAuthSignUpNormalizesAndHashes(t *testing.T) {
	auth, users, _ := newTestAuth()
	ctx := context.Background()

	user, token, err := auth.SignUp(ctx, SignUpInput{
		Name:     "  Ada Lovelace  ",
		Email:    " Ada@Example.COM ",
		Password: "password1",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("email = %q", user.Email)
	}
	if user.Name != "Ada Lovelace" {
		t.Fatalf("name = %q", user.Name)
	}
	if token == "" {
		t.Fatal("no token issued")
	}

	rec, err := users.FindByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("stored user missing: %v", err)
	}
	if rec.PasswordHash == "password1" || rec.PasswordHash == "" {
		t.Fatalf("password stored unhashed: %q", rec.PasswordHash)
	}
}

// raceUserRepo simulates a concurrent sign-up: the pre-check sees no user,
// but the store's uniqueness constraint rejects the insert.
type raceUserRepo struct {
	*memUserRepo
}

func (r *raceUserRepo) FindByEmail(context.Context, string) (*UserRecord, error) {
	return nil, pgx.ErrNoRows
}

func TestAuthSignUpRaceFallsBackToUniqueViolation(t *testing.T) {
	users := newMemUserRepo()
	if _, err := users.Create(context.Background(), UserRecord{Email: "ada@example.com"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	auth := NewRepositoryAuthService(&raceUserRepo{users}, NewTokenIssuer("secret", TokenTTL))

	_, _, err := auth.SignUp(context.Background(), SignUpInput{Name: "Ada", Email: "ada@example.com", Password: "password1"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestAuthSignInEmptyCredentials(t *testing.T) {
	auth, _, _ := newTestAuth()
	if _, _, err := auth.SignIn(context.Background(), "", "password1"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("empty email err = %v", err)
	}
	if _, _, err := auth.SignIn(context.Background(), "ada@example.com", ""); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("empty password err = %v", err)
	}
}

func TestAuthSignInCaseInsensitiveEmail(t *testing.T) {
	auth, _, _ := newTestAuth()
	ctx := context.Background()
	if _, _, err := auth.SignUp(ctx, SignUpInput{Name: "Ada", Email: "ada@example.com", Password: "password1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	user, _, err := auth.SignIn(ctx, "ADA@Example.com", "password1")
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("email = %q", user.Email)
	}
}

func TestUserRecordProfileRedactsHash(t *testing.T) {
	rec := UserRecord{ID: "u-1", Email: "ada@example.com", PasswordHash: "$2a$10$abc"}
	profile := rec.Profile()
	if profile.ID != "u-1" || profile.Email != "ada@example.com" {
		t.Fatalf("profile = %+v", profile)
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "$2a$") {
		t.Fatalf("serialized profile leaks hash: %s", raw)
	}
}
