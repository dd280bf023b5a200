package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/repository/memory"
)

func TestResolveRecipient(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	tenant := &domain.Tenant{Name: "Kitchen"}
	require.NoError(t, store.InsertTenant(ctx, tenant))
	account := &domain.Account{Email: "alice@example.com", FullName: "Alice Smith"}
	require.NoError(t, store.InsertAccount(ctx, account))

	alice := &domain.Staff{TenantID: tenant.ID, Name: "Alice", LinkedUserID: &account.ID}
	bob := &domain.Staff{TenantID: tenant.ID, Name: "Bob"}
	require.NoError(t, store.InsertStaff(ctx, alice))
	require.NoError(t, store.InsertStaff(ctx, bob))

	got, err := ResolveRecipient(ctx, store, New(domain.NotificationSwapApproved, tenant.ID, alice.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, &Recipient{Email: "alice@example.com", Name: "Alice"}, got)

	_, err = ResolveRecipient(ctx, store, New(domain.NotificationSwapApproved, tenant.ID, bob.ID, nil))
	assert.ErrorIs(t, err, ErrNoRecipient)

	_, err = ResolveRecipient(ctx, store, New(domain.NotificationSwapApproved, tenant.ID, 9999, nil))
	assert.ErrorIs(t, err, ErrNoRecipient, "deleted staff are dropped, not retried")

	store.FailOn("GetStaff", domain.NewStoreError("get staff", errors.New("timeout")))
	_, err = ResolveRecipient(ctx, store, New(domain.NotificationSwapApproved, tenant.ID, alice.ID, nil))
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
}
