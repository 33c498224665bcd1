package handler

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/amellin794/delish/internal/db"
	"github.com/amellin794/delish/internal/model"
	"github.com/amellin794/delish/internal/repository"
	"github.com/amellin794/delish/internal/service"
)

type stubMailer struct {
	unlockTokens []string
	accessTokens []string
}

func (m *stubMailer) SendUnlockEmail(email, token, listTitle string) error {
	m.unlockTokens = append(m.unlockTokens, token)
	return nil
}

func (m *stubMailer) SendAccessLinkEmail(email, token, listTitle string) error {
	m.accessTokens = append(m.accessTokens, token)
	return nil
}

var errNopStorage = errors.New("storage not configured in tests")

type nopStorage struct{}

func (nopStorage) Save(path string, file io.Reader) error { return errNopStorage }
func (nopStorage) Delete(path string) error               { return nil }
func (nopStorage) PublicURL(path string) string           { return "https://cdn.example.com/" + path }

type testEnv struct {
	db       *sqlx.DB
	users    repository.UserRepository
	lists    repository.ListRepository
	orders   repository.OrderRepository
	mailer   *stubMailer
	tokens   *service.TokenService
	listSvc  *service.ListService
	checkout *service.CheckoutService
	unlock   *service.UnlockService
	access   *service.AccessService
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

	users := repository.NewUserRepository(database)
	lists := repository.NewListRepository(database)
	orders := repository.NewOrderRepository(database)
	grants := repository.NewAccessGrantRepository(database)
	sessionTokens := repository.NewSessionTokenRepository(database)
	tokens := service.NewTokenService("test-secret", 10*time.Minute, time.Hour)
	mailer := &stubMailer{}

	return &testEnv{
		db:       database,
		users:    users,
		lists:    lists,
		orders:   orders,
		mailer:   mailer,
		tokens:   tokens,
		listSvc:  service.NewListService(lists, users, orders, nopStorage{}),
		checkout: service.NewCheckoutService(lists, orders, grants, sessionTokens, tokens, mailer),
		unlock:   service.NewUnlockService(lists, orders, grants, sessionTokens, tokens),
		access:   service.NewAccessService(lists, orders, grants, tokens, mailer),
	}
}

func (env *testEnv) createPublishedList(t *testing.T) *model.List {
	t.Helper()

	account := "acct_" + uuid.New().String()[:8]
	user := &model.User{
		Email:          fmt.Sprintf("creator-%s@example.com", uuid.New().String()[:8]),
		Name:           "Test Creator",
		PaymentAccount: &account,
	}
	require.NoError(t, env.users.Create(user))

	list := &model.List{
		OwnerID:     user.ID,
		Slug:        fmt.Sprintf("best-tacos-%s", uuid.New().String()[:8]),
		Title:       "Best Tacos in Austin",
		Description: "My favorite taco spots",
		MapsListURL: "https://www.google.com/maps/@/data=secret-list",
		PriceCents:  500,
		Currency:    "usd",
		Published:   true,
	}
	require.NoError(t, env.lists.Create(list))
	return list
}

// completePurchase records a paid checkout and returns the emailed unlock token.
func (env *testEnv) completePurchase(t *testing.T, list *model.List, buyerEmail string) string {
	t.Helper()

	require.NoError(t, env.checkout.CompletePurchase(service.PurchaseCompleted{
		Provider:    model.ProviderStripe,
		SessionID:   "cs_" + uuid.New().String()[:8],
		ChargeID:    "pi_" + uuid.New().String()[:8],
		ListID:      list.ID,
		OwnerID:     list.OwnerID,
		BuyerEmail:  buyerEmail,
		AmountCents: list.PriceCents,
		Currency:    list.Currency,
	}))
	require.NotEmpty(t, env.mailer.unlockTokens)
	return env.mailer.unlockTokens[len(env.mailer.unlockTokens)-1]
}
