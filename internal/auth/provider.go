// Package auth is the credential provider for bus operators and the session
// store shared by operators and administrators.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"busroot.app/docstore"
)

const accountsCollection = "accounts"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountExists      = errors.New("an account with this email already exists")
	ErrInvalidEmail       = errors.New("email is required")
)

// Store is the subset of the document store the provider needs.
type Store interface {
	Get(ctx context.Context, collection string, key docstore.Key, dst any) error
	Set(ctx context.Context, collection string, key docstore.Key, value any) error
}

type Account struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Provider struct {
	store Store
	cost  int
}

// NewProvider returns a provider hashing with the given bcrypt cost. A cost of
// zero selects bcrypt.DefaultCost.
func NewProvider(store Store, cost int) *Provider {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Provider{store: store, cost: cost}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount registers a new email/password pair.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (Account, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return Account{}, ErrInvalidEmail
	}
	if err := ValidatePassword(password); err != nil {
		return Account{}, err
	}

	var existing Account
	err := p.store.Get(ctx, accountsCollection, docstore.Key{ID: email}, &existing)
	if err == nil {
		return Account{}, ErrAccountExists
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return Account{}, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	account := Account{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := p.store.Set(ctx, accountsCollection, docstore.Key{ID: email}, account); err != nil {
		return Account{}, fmt.Errorf("store account: %w", err)
	}
	return account, nil
}

// SignIn checks an email/password pair. Unknown emails and wrong passwords
// both report ErrInvalidCredentials.
func (p *Provider) SignIn(ctx context.Context, email, password string) (Account, error) {
	var account Account
	err := p.store.Get(ctx, accountsCollection, docstore.Key{ID: NormalizeEmail(email)}, &account)
	if errors.Is(err, docstore.ErrNotFound) || errors.Is(err, docstore.ErrInvalidKey) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, fmt.Errorf("lookup account: %w", err)
	}

	if !CheckPassword(account.PasswordHash, password) {
		return Account{}, ErrInvalidCredentials
	}
	return account, nil
}

// CheckPassword reports whether password matches a bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
