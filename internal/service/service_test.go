package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/amellin794/delish/internal/db"
	"github.com/amellin794/delish/internal/model"
	"github.com/amellin794/delish/internal/repository"
)

type sentEmail struct {
	To        string
	Token     string
	ListTitle string
}

// stubMailer records sent emails instead of delivering them.
type stubMailer struct {
	mu           sync.Mutex
	unlockEmails []sentEmail
	accessEmails []sentEmail
	failSend     bool
}

func (m *stubMailer) SendUnlockEmail(email, token, listTitle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend {
		return errors.New("smtp unavailable")
	}
	m.unlockEmails = append(m.unlockEmails, sentEmail{To: email, Token: token, ListTitle: listTitle})
	return nil
}

func (m *stubMailer) SendAccessLinkEmail(email, token, listTitle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend {
		return errors.New("smtp unavailable")
	}
	m.accessEmails = append(m.accessEmails, sentEmail{To: email, Token: token, ListTitle: listTitle})
	return nil
}

func (m *stubMailer) lastUnlock(t *testing.T) sentEmail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.unlockEmails)
	return m.unlockEmails[len(m.unlockEmails)-1]
}

func (m *stubMailer) lastAccess(t *testing.T) sentEmail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.accessEmails)
	return m.accessEmails[len(m.accessEmails)-1]
}

type testEnv struct {
	db            *sqlx.DB
	users         repository.UserRepository
	lists         repository.ListRepository
	orders        repository.OrderRepository
	grants        repository.AccessGrantRepository
	sessionTokens repository.SessionTokenRepository
	tokens        *TokenService
	mailer        *stubMailer
	checkout      *CheckoutService
	unlock        *UnlockService
	access        *AccessService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	database, err := db.Init("sqlite", conn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	t.Cleanup(func() {
		_ = database.Close()
	})

	env := &testEnv{
		db:            database,
		users:         repository.NewUserRepository(database),
		lists:         repository.NewListRepository(database),
		orders:        repository.NewOrderRepository(database),
		grants:        repository.NewAccessGrantRepository(database),
		sessionTokens: repository.NewSessionTokenRepository(database),
		tokens:        NewTokenService("test-secret", 10*time.Minute, time.Hour),
		mailer:        &stubMailer{},
	}
	env.checkout = NewCheckoutService(env.lists, env.orders, env.grants, env.sessionTokens, env.tokens, env.mailer)
	env.unlock = NewUnlockService(env.lists, env.orders, env.grants, env.sessionTokens, env.tokens)
	env.access = NewAccessService(env.lists, env.orders, env.grants, env.tokens, env.mailer)
	return env
}

func (env *testEnv) createUser(t *testing.T) *model.User {
	t.Helper()

	account := "acct_" + uuid.New().String()[:8]
	user := &model.User{
		Email:          fmt.Sprintf("creator-%s@example.com", uuid.New().String()[:8]),
		Name:           "Test Creator",
		PaymentAccount: &account,
	}
	require.NoError(t, env.users.Create(user))
	return user
}

func (env *testEnv) createList(t *testing.T, ownerID string) *model.List {
	t.Helper()

	list := &model.List{
		OwnerID:     ownerID,
		Slug:        fmt.Sprintf("best-tacos-%s", uuid.New().String()[:8]),
		Title:       "Best Tacos in Austin",
		Description: "My favorite taco spots",
		MapsListURL: "https://www.google.com/maps/@/data=test",
		PriceCents:  500,
		Currency:    "usd",
		Published:   true,
	}
	require.NoError(t, env.lists.Create(list))
	return list
}

// completePurchase runs a checkout completion and returns the recorded order
// plus the unlock token that was emailed.
func (env *testEnv) completePurchase(t *testing.T, list *model.List, buyerEmail string) (*model.Order, string) {
	t.Helper()

	sessionID := "cs_" + uuid.New().String()[:8]
	chargeID := "pi_" + uuid.New().String()[:8]
	require.NoError(t, env.checkout.CompletePurchase(PurchaseCompleted{
		Provider:    model.ProviderStripe,
		SessionID:   sessionID,
		ChargeID:    chargeID,
		ListID:      list.ID,
		OwnerID:     list.OwnerID,
		BuyerEmail:  buyerEmail,
		AmountCents: list.PriceCents,
		Currency:    list.Currency,
	}))

	order, err := env.orders.ByProviderSessionID(sessionID)
	require.NoError(t, err)
	return order, env.mailer.lastUnlock(t).Token
}
