package service

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amellin794/delish/internal/model"
	"github.com/amellin794/delish/internal/repository"
)

type stubStorage struct {
	saved map[string][]byte
}

func newStubStorage() *stubStorage {
	return &stubStorage{saved: map[string][]byte{}}
}

func (s *stubStorage) Save(path string, file io.Reader) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	s.saved[path] = data
	return nil
}

func (s *stubStorage) Delete(path string) error {
	delete(s.saved, path)
	return nil
}

func (s *stubStorage) PublicURL(path string) string {
	return "https://cdn.example.com/" + path
}

func newListEnv(t *testing.T) (*testEnv, *ListService, *stubStorage) {
	t.Helper()
	env := newTestEnv(t)
	store := newStubStorage()
	svc := NewListService(env.lists, env.users, env.orders, store)
	return env, svc, store
}

func validCreateInput() CreateListInput {
	return CreateListInput{
		Title:       "Best Tacos in Austin",
		Description: "My favorite taco spots",
		MapsListURL: "https://www.google.com/maps/@/data=test",
		PriceCents:  500,
	}
}

func TestListCreate(t *testing.T) {
	env, svc, _ := newListEnv(t)
	user := env.createUser(t)

	list, err := svc.Create(user.ID, validCreateInput())
	require.NoError(t, err)

	assert.Equal(t, "best-tacos-in-austin", list.Slug)
	assert.Equal(t, "usd", list.Currency)
	assert.False(t, list.Published)
	assert.NotEmpty(t, list.ID)
}

func TestListCreateSlugCollision(t *testing.T) {
	env, svc, _ := newListEnv(t)
	user := env.createUser(t)

	first, err := svc.Create(user.ID, validCreateInput())
	require.NoError(t, err)
	second, err := svc.Create(user.ID, validCreateInput())
	require.NoError(t, err)
	third, err := svc.Create(user.ID, validCreateInput())
	require.NoError(t, err)

	assert.Equal(t, "best-tacos-in-austin", first.Slug)
	assert.Equal(t, "best-tacos-in-austin-2", second.Slug)
	assert.Equal(t, "best-tacos-in-austin-3", third.Slug)
}

func TestListCreateValidation(t *testing.T) {
	env, svc, _ := newListEnv(t)
	user := env.createUser(t)

	input := validCreateInput()
	input.Title = ""
	_, err := svc.Create(user.ID, input)
	assert.Error(t, err)

	input = validCreateInput()
	input.PriceCents = 100
	_, err = svc.Create(user.ID, input)
	assert.Error(t, err)

	input = validCreateInput()
	input.PriceCents = 25000
	_, err = svc.Create(user.ID, input)
	assert.Error(t, err)

	input = validCreateInput()
	input.MapsListURL = "https://example.com/not-maps"
	_, err = svc.Create(user.ID, input)
	assert.Error(t, err)

	input = validCreateInput()
	input.Description = strings.Repeat("x", 501)
	_, err = svc.Create(user.ID, input)
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "best-tacos-in-austin", slugify("Best Tacos in Austin"))
	assert.Equal(t, "cafes-a-paris", slugify("Cafés à Paris"))
	assert.Equal(t, "top-10-ramen", slugify("  Top 10!! Ramen  "))
	assert.Equal(t, "", slugify("!!!"))
}

func TestListPublishRequiresPaymentAccount(t *testing.T) {
	env, svc, _ := newListEnv(t)

	// creator without a payout account
	noAccount := &model.User{Email: "broke@example.com", Name: "No Account"}
	require.NoError(t, env.users.Create(noAccount))

	list, err := svc.Create(noAccount.ID, validCreateInput())
	require.NoError(t, err)

	_, err = svc.Publish(noAccount.ID, list.ID)
	assert.ErrorIs(t, err, ErrPaymentAccountRequired)

	require.NoError(t, env.users.SetPaymentAccount(noAccount.ID, "acct_123"))

	published, err := svc.Publish(noAccount.ID, list.ID)
	require.NoError(t, err)
	assert.True(t, published.Published)
}

func TestListOwnerScoping(t *testing.T) {
	env, svc, _ := newListEnv(t)
	owner := env.createUser(t)
	other := env.createUser(t)

	list, err := svc.Create(owner.ID, validCreateInput())
	require.NoError(t, err)

	_, err = svc.ByIDForOwner(other.ID, list.ID)
	assert.ErrorIs(t, err, repository.ErrListNotFound)

	err = svc.Delete(other.ID, list.ID)
	assert.ErrorIs(t, err, repository.ErrListNotFound)

	title := "Stolen"
	_, err = svc.Update(other.ID, list.ID, UpdateListInput{Title: &title})
	assert.ErrorIs(t, err, repository.ErrListNotFound)
}

func TestListUpdatePartial(t *testing.T) {
	env, svc, _ := newListEnv(t)
	user := env.createUser(t)

	list, err := svc.Create(user.ID, validCreateInput())
	require.NoError(t, err)

	price := 900
	updated, err := svc.Update(user.ID, list.ID, UpdateListInput{PriceCents: &price})
	require.NoError(t, err)

	assert.Equal(t, 900, updated.PriceCents)
	assert.Equal(t, list.Title, updated.Title)
	// slug never changes, sold links stay stable
	assert.Equal(t, list.Slug, updated.Slug)
}

func TestPublishedBySlugHidesDrafts(t *testing.T) {
	env, svc, _ := newListEnv(t)
	user := env.createUser(t)

	list, err := svc.Create(user.ID, validCreateInput())
	require.NoError(t, err)

	_, err = svc.PublishedBySlug(list.Slug)
	assert.ErrorIs(t, err, repository.ErrListNotFound)

	_, err = svc.Publish(user.ID, list.ID)
	require.NoError(t, err)

	got, err := svc.PublishedBySlug(list.Slug)
	require.NoError(t, err)
	assert.Equal(t, list.ID, got.ID)
}

func TestUploadCover(t *testing.T) {
	env, svc, store := newListEnv(t)
	user := env.createUser(t)

	list, err := svc.Create(user.ID, validCreateInput())
	require.NoError(t, err)

	updated, err := svc.UploadCover(user.ID, list.ID, strings.NewReader("fake-png"), "cover.png")
	require.NoError(t, err)

	require.NotNil(t, updated.CoverImageURL)
	assert.Contains(t, *updated.CoverImageURL, list.ID)
	assert.Len(t, store.saved, 1)

	_, err = svc.UploadCover(user.ID, list.ID, strings.NewReader("nope"), "cover.exe")
	assert.ErrorIs(t, err, ErrInvalidCoverImage)
}
