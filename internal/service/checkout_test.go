package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amellin794/delish/internal/model"
	"github.com/amellin794/delish/internal/repository"
)

func TestCompletePurchase(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t)
	list := env.createList(t, user.ID)

	order, token := env.completePurchase(t, list, "buyer@example.com")

	assert.Equal(t, model.OrderStatusPaid, order.Status)
	assert.Equal(t, "buyer@example.com", order.BuyerEmail)
	assert.Equal(t, list.PriceCents, order.AmountCents)

	grant, err := env.grants.ByOrderAndEmail(order.ID, "buyer@example.com")
	require.NoError(t, err)
	assert.False(t, grant.Revoked)

	// the emailed token is valid and backed by a session token row
	claims, err := env.tokens.VerifyUnlockToken(token)
	require.NoError(t, err)
	assert.Equal(t, order.ID, claims.OrderID)

	_, err = env.sessionTokens.ByID(claims.JTI)
	assert.NoError(t, err)
}

func TestCompletePurchaseIdempotent(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t)
	list := env.createList(t, user.ID)

	purchase := PurchaseCompleted{
		Provider:    model.ProviderStripe,
		SessionID:   "cs_redelivered",
		ChargeID:    "pi_1",
		ListID:      list.ID,
		OwnerID:     list.OwnerID,
		BuyerEmail:  "buyer@example.com",
		AmountCents: 500,
		Currency:    "usd",
	}

	require.NoError(t, env.checkout.CompletePurchase(purchase))
	require.NoError(t, env.checkout.CompletePurchase(purchase))
	require.NoError(t, env.checkout.CompletePurchase(purchase))

	count, err := env.orders.CountPaidByList(list.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// only the first delivery sends an email
	env.mailer.mu.Lock()
	defer env.mailer.mu.Unlock()
	assert.Len(t, env.mailer.unlockEmails, 1)
}

func TestCompletePurchaseUnknownList(t *testing.T) {
	env := newTestEnv(t)

	err := env.checkout.CompletePurchase(PurchaseCompleted{
		Provider:    model.ProviderStripe,
		SessionID:   "cs_orphan",
		ListID:      "missing-list",
		OwnerID:     "missing-owner",
		BuyerEmail:  "buyer@example.com",
		AmountCents: 500,
		Currency:    "usd",
	})
	// dropped, not retried
	require.NoError(t, err)

	_, err = env.orders.ByProviderSessionID("cs_orphan")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestCompletePurchaseMissingMetadata(t *testing.T) {
	env := newTestEnv(t)

	err := env.checkout.CompletePurchase(PurchaseCompleted{
		Provider:    model.ProviderStripe,
		SessionID:   "cs_no_meta",
		BuyerEmail:  "buyer@example.com",
		AmountCents: 500,
		Currency:    "usd",
	})
	require.NoError(t, err)

	_, err = env.orders.ByProviderSessionID("cs_no_meta")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestCompletePurchaseEmailFailureKeepsOrder(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t)
	list := env.createList(t, user.ID)
	env.mailer.failSend = true

	err := env.checkout.CompletePurchase(PurchaseCompleted{
		Provider:    model.ProviderStripe,
		SessionID:   "cs_email_down",
		ChargeID:    "pi_1",
		ListID:      list.ID,
		OwnerID:     list.OwnerID,
		BuyerEmail:  "buyer@example.com",
		AmountCents: 500,
		Currency:    "usd",
	})
	require.NoError(t, err)

	// order and grant survive, buyer can recover via the resend flow
	order, err := env.orders.ByProviderSessionID("cs_email_down")
	require.NoError(t, err)
	_, err = env.grants.ByOrderAndEmail(order.ID, "buyer@example.com")
	assert.NoError(t, err)
}

func TestHandleRefund(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t)
	list := env.createList(t, user.ID)
	order, _ := env.completePurchase(t, list, "buyer@example.com")

	require.NoError(t, env.checkout.HandleRefund(*order.ProviderChargeID))

	got, err := env.orders.ByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRefunded, got.Status)

	grant, err := env.grants.ByOrderAndEmail(order.ID, "buyer@example.com")
	require.NoError(t, err)
	assert.True(t, grant.Revoked)

	// refunds are idempotent too
	require.NoError(t, env.checkout.HandleRefund(*order.ProviderChargeID))
}

func TestHandleRefundUnknownCharge(t *testing.T) {
	env := newTestEnv(t)

	// unknown charges are dropped so the provider stops redelivering
	assert.NoError(t, env.checkout.HandleRefund("pi_unknown"))
}

func TestSessionStatus(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t)
	list := env.createList(t, user.ID)
	order, _ := env.completePurchase(t, list, "buyer@example.com")

	got, gotList, err := env.checkout.SessionStatus(order.ProviderSessionID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, list.Title, gotList.Title)

	_, _, err = env.checkout.SessionStatus("cs_not_yet")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}
