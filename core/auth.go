package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents an authenticated principal returned to handlers and clients.
// It never carries the password hash.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	CurrentGrade string    `json:"currentGrade,omitempty"`
	Country      string    `json:"country,omitempty"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

var (
	// ErrEmailTaken is returned when sign-up targets an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound is returned when sign-in targets an unknown email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidPassword is returned when the secret does not match the stored hash.
	ErrInvalidPassword = errors.New("invalid password")
)

// SignUpInput is the validated payload for creating a new user.
type SignUpInput struct {
	Name         string
	Email        string
	Password     string
	CurrentGrade string
	Country      string
	PhoneNumber  string
}

// AuthService defines credential verification and token issuance.
type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (User, string, error)
	SignIn(ctx context.Context, email, password string) (User, string, error)
}

// RepositoryAuthService implements AuthService over a UserRepository,
// hashing secrets with bcrypt and issuing bearer tokens.
type RepositoryAuthService struct {
	users  UserRepository
	issuer *TokenIssuer
}

func NewRepositoryAuthService(users UserRepository, issuer *TokenIssuer) *RepositoryAuthService {
	return &RepositoryAuthService{users: users, issuer: issuer}
}

// SignUp creates the user with a bcrypt-hashed secret and returns the
// profile plus a fresh token. Duplicate emails fail with ErrEmailTaken.
func (s *RepositoryAuthService) SignUp(ctx context.Context, in SignUpInput) (User, string, error) {
	in.Email = normalizeEmail(in.Email)

	if existing, err := s.users.FindByEmail(ctx, in.Email); err == nil && existing != nil {
		return User{}, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, "", err
	}

	rec, err := s.users.Create(ctx, UserRecord{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         "user",
		CurrentGrade: strings.TrimSpace(in.CurrentGrade),
		Country:      strings.TrimSpace(in.Country),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
	})
	if err != nil {
		// The store's uniqueness constraint is the final arbiter; a race
		// between concurrent sign-ups lands here.
		if isUniqueViolation(err) {
			return User{}, "", ErrEmailTaken
		}
		return User{}, "", err
	}

	user := rec.Profile()
	token, err := s.issuer.Issue(user)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// SignIn verifies the (email, password) pair and returns the profile plus
// a fresh token. Unknown email and bad password are distinct failures.
func (s *RepositoryAuthService) SignIn(ctx context.Context, email, password string) (User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, "", ErrInvalidPassword
	}

	rec, err := s.users.FindByEmail(ctx, email)
	if err != nil || rec == nil {
		return User{}, "", ErrUserNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return User{}, "", ErrInvalidPassword
	}

	user := rec.Profile()
	token, err := s.issuer.Issue(user)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isUniqueViolation detects duplicate-key failures from the store.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
