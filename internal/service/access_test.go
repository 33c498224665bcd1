package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amellin794/delish/internal/repository"
)

func TestRequestAccessLink(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t)
	list := env.createList(t, user.ID)
	env.completePurchase(t, list, "buyer@example.com")

	require.NoError(t, env.access.RequestAccessLink("buyer@example.com", list.Slug))

	sent := env.mailer.lastAccess(t)
	assert.Equal(t, "buyer@example.com", sent.To)
	assert.Equal(t, list.Title, sent.ListTitle)

	// the emailed token resolves to the content
	gotList, grant, err := env.access.ResolveAccessLink(sent.Token)
	require.NoError(t, err)
	assert.Equal(t, list.MapsListURL, gotList.MapsListURL)
	assert.NotNil(t, grant)
}

func TestRequestAccessLinkNoPurchase(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t)
	list := env.createList(t, user.ID)

	err := env.access.RequestAccessLink("stranger@example.com", list.Slug)
	assert.ErrorIs(t, err, ErrNoPurchase)
}

func TestRequestAccessLinkUnknownList(t *testing.T) {
	env := newTestEnv(t)

	err := env.access.RequestAccessLink("buyer@example.com", "no-such-list")
	assert.ErrorIs(t, err, repository.ErrListNotFound)
}

func TestRequestAccessLinkRefunded(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t)
	list := env.createList(t, user.ID)
	order, _ := env.completePurchase(t, list, "buyer@example.com")

	require.NoError(t, env.checkout.HandleRefund(*order.ProviderChargeID))

	err := env.access.RequestAccessLink("buyer@example.com", list.Slug)
	assert.ErrorIs(t, err, ErrNoPurchase)
}

func TestResolveAccessLinkRevokedAfterIssue(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t)
	list := env.createList(t, user.ID)
	order, _ := env.completePurchase(t, list, "buyer@example.com")

	require.NoError(t, env.access.RequestAccessLink("buyer@example.com", list.Slug))
	token := env.mailer.lastAccess(t).Token

	// refund lands after the link was sent; the link must stop working
	require.NoError(t, env.checkout.HandleRefund(*order.ProviderChargeID))

	_, _, err := env.access.ResolveAccessLink(token)
	assert.ErrorIs(t, err, ErrNoPurchase)
}

func TestResolveAccessLinkInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.access.ResolveAccessLink("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// an unlock token is not an access token
	unlockToken, _, err := env.tokens.IssueUnlockToken("order-1", "list-1", "buyer@example.com")
	require.NoError(t, err)
	_, _, err = env.access.ResolveAccessLink(unlockToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
