package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"busroot.app/docstore"
	"busroot.app/internal/appconf"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	store, err := docstore.NewClient(docstore.NewConfig(":memory:", appconf.Test, false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewProvider(store, bcrypt.MinCost)
}

func TestCreateAccountAndSignIn(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	account, err := provider.CreateAccount(ctx, "  Operator@Example.com ", "Secret1!")
	require.NoError(t, err)
	assert.Equal(t, "operator@example.com", account.Email)
	assert.NotEqual(t, "Secret1!", account.PasswordHash)

	signedIn, err := provider.SignIn(ctx, "OPERATOR@example.com", "Secret1!")
	require.NoError(t, err)
	assert.Equal(t, "operator@example.com", signedIn.Email)
}

func TestCreateAccountRejectsDuplicates(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	_, err := provider.CreateAccount(ctx, "op@example.com", "Secret1!")
	require.NoError(t, err)

	_, err = provider.CreateAccount(ctx, "OP@example.com", "Other2@x")
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestCreateAccountValidation(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	_, err := provider.CreateAccount(ctx, " ", "Secret1!")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = provider.CreateAccount(ctx, "op@example.com", "weak")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestSignInFailures(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	_, err := provider.CreateAccount(ctx, "op@example.com", "Secret1!")
	require.NoError(t, err)

	_, err = provider.SignIn(ctx, "op@example.com", "Secret2!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = provider.SignIn(ctx, "nobody@example.com", "Secret1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = provider.SignIn(ctx, "", "Secret1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCheckPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Admin123!"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckPassword(string(hash), "Admin123!"))
	assert.False(t, CheckPassword(string(hash), "admin123!"))
	assert.False(t, CheckPassword("not-a-hash", "Admin123!"))
}
