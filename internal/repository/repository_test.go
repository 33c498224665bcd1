package repository

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/amellin794/delish/internal/db"
	"github.com/amellin794/delish/internal/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	database, err := db.Init("sqlite", conn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

func createTestUser(t *testing.T, database *sqlx.DB) *model.User {
	t.Helper()

	users := NewUserRepository(database)
	user := &model.User{
		Email: fmt.Sprintf("creator-%s@example.com", uuid.New().String()[:8]),
		Name:  "Test Creator",
	}
	require.NoError(t, users.Create(user))
	return user
}

func createTestList(t *testing.T, database *sqlx.DB, ownerID string) *model.List {
	t.Helper()

	lists := NewListRepository(database)
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
	require.NoError(t, lists.Create(list))
	return list
}

func createTestOrder(t *testing.T, database *sqlx.DB, listID, email string) *model.Order {
	t.Helper()

	orders := NewOrderRepository(database)
	now := time.Now()
	chargeID := "pi_" + uuid.New().String()[:8]
	order := &model.Order{
		ID:                uuid.New().String(),
		BuyerEmail:        email,
		ListID:            listID,
		AmountCents:       500,
		Currency:          "usd",
		Provider:          model.ProviderStripe,
		ProviderSessionID: "cs_" + uuid.New().String()[:8],
		ProviderChargeID:  &chargeID,
		Status:            model.OrderStatusPaid,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, orders.Create(order))
	return order
}
