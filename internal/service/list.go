package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/amellin794/delish/internal/model"
	"github.com/amellin794/delish/internal/repository"
	"github.com/amellin794/delish/internal/storage"
	"github.com/amellin794/delish/internal/validation"
)

var (
	ErrPaymentAccountRequired = errors.New("a payout account is required before publishing")
	ErrInvalidCoverImage      = errors.New("cover image must be a jpg, png, or webp file")
)

var coverImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

type CreateListInput struct {
	Title        string
	Description  string
	MapsListURL  string
	PriceCents   int
	Currency     string
	HostedMirror bool
}

type UpdateListInput struct {
	Title        *string
	Description  *string
	MapsListURL  *string
	PriceCents   *int
	HostedMirror *bool
}

// ListService owns creator-side list management: creation, editing,
// publishing, and cover images. All mutations are owner-scoped.
type ListService struct {
	lists   repository.ListRepository
	users   repository.UserRepository
	orders  repository.OrderRepository
	storage storage.Storage
}

func NewListService(
	lists repository.ListRepository,
	users repository.UserRepository,
	orders repository.OrderRepository,
	store storage.Storage,
) *ListService {
	return &ListService{
		lists:   lists,
		users:   users,
		orders:  orders,
		storage: store,
	}
}

// Create validates the input and inserts a draft list with a unique slug
// derived from the title.
func (s *ListService) Create(ownerID string, input CreateListInput) (*model.List, error) {
	if err := validation.ValidateListTitle(input.Title); err != nil {
		return nil, err
	}
	if err := validation.ValidateListDescription(input.Description); err != nil {
		return nil, err
	}
	if err := validation.ValidatePriceCents(input.PriceCents); err != nil {
		return nil, err
	}
	if err := validation.ValidateMapsListURL(input.MapsListURL); err != nil {
		return nil, err
	}

	currency := strings.ToLower(input.Currency)
	if currency == "" {
		currency = "usd"
	}

	slug, err := s.uniqueSlug(input.Title)
	if err != nil {
		return nil, err
	}

	list := &model.List{
		OwnerID:      ownerID,
		Slug:         slug,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		MapsListURL:  input.MapsListURL,
		PriceCents:   input.PriceCents,
		Currency:     currency,
		HostedMirror: input.HostedMirror,
	}
	if err := s.lists.Create(list); err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}

	slog.Info("list created", "list_id", list.ID, "owner_id", ownerID, "slug", list.Slug)
	return list, nil
}

// ByIDForOwner fetches a list only if the given user owns it.
func (s *ListService) ByIDForOwner(ownerID, listID string) (*model.List, error) {
	return s.lists.ByIDForOwner(ownerID, listID)
}

// ListsForOwner returns the owner's lists, optionally filtered to published
// or draft.
func (s *ListService) ListsForOwner(ownerID, filter string) ([]*model.List, error) {
	return s.lists.ByOwner(ownerID, filter)
}

// PublishedBySlug fetches a list for the public storefront. Drafts report
// not found.
func (s *ListService) PublishedBySlug(slug string) (*model.List, error) {
	list, err := s.lists.BySlug(slug)
	if err != nil {
		return nil, err
	}
	if !list.Published {
		return nil, repository.ErrListNotFound
	}
	return list, nil
}

// Update applies a partial edit to an owned list. Each provided field is
// validated; the slug is never regenerated so sold links stay stable.
func (s *ListService) Update(ownerID, listID string, input UpdateListInput) (*model.List, error) {
	list, err := s.lists.ByIDForOwner(ownerID, listID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if err := validation.ValidateListTitle(*input.Title); err != nil {
			return nil, err
		}
		list.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		if err := validation.ValidateListDescription(*input.Description); err != nil {
			return nil, err
		}
		list.Description = strings.TrimSpace(*input.Description)
	}
	if input.MapsListURL != nil {
		if err := validation.ValidateMapsListURL(*input.MapsListURL); err != nil {
			return nil, err
		}
		list.MapsListURL = *input.MapsListURL
	}
	if input.PriceCents != nil {
		if err := validation.ValidatePriceCents(*input.PriceCents); err != nil {
			return nil, err
		}
		list.PriceCents = *input.PriceCents
	}
	if input.HostedMirror != nil {
		list.HostedMirror = *input.HostedMirror
	}

	list.UpdatedAt = time.Now()
	if err := s.lists.Update(list); err != nil {
		return nil, fmt.Errorf("failed to update list: %w", err)
	}
	return list, nil
}

// Publish makes a list purchasable. The owner must have a connected payout
// account first, otherwise completed checkouts could never pay out.
func (s *ListService) Publish(ownerID, listID string) (*model.List, error) {
	list, err := s.lists.ByIDForOwner(ownerID, listID)
	if err != nil {
		return nil, err
	}

	owner, err := s.users.ByID(ownerID)
	if err != nil {
		return nil, err
	}
	if !owner.HasPaymentAccount() {
		return nil, ErrPaymentAccountRequired
	}

	list.Published = true
	list.UpdatedAt = time.Now()
	if err := s.lists.Update(list); err != nil {
		return nil, fmt.Errorf("failed to publish list: %w", err)
	}

	slog.Info("list published", "list_id", list.ID, "owner_id", ownerID)
	return list, nil
}

// Unpublish takes a list off the storefront. Existing buyers keep access.
func (s *ListService) Unpublish(ownerID, listID string) (*model.List, error) {
	list, err := s.lists.ByIDForOwner(ownerID, listID)
	if err != nil {
		return nil, err
	}

	list.Published = false
	list.UpdatedAt = time.Now()
	if err := s.lists.Update(list); err != nil {
		return nil, fmt.Errorf("failed to unpublish list: %w", err)
	}
	return list, nil
}

func (s *ListService) Delete(ownerID, listID string) error {
	return s.lists.Delete(ownerID, listID)
}

// SalesCount reports how many paid orders a list has.
func (s *ListService) SalesCount(listID string) (int, error) {
	return s.orders.CountPaidByList(listID)
}

// UploadCover stores a cover image for an owned list and records its URL.
func (s *ListService) UploadCover(ownerID, listID string, file io.Reader, filename string) (*model.List, error) {
	list, err := s.lists.ByIDForOwner(ownerID, listID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !coverImageExtensions[ext] {
		return nil, ErrInvalidCoverImage
	}

	path := fmt.Sprintf("covers/%s%s", list.ID, ext)
	if err := s.storage.Save(path, file); err != nil {
		return nil, fmt.Errorf("failed to store cover image: %w", err)
	}

	url := s.storage.PublicURL(path)
	list.CoverImageURL = &url
	list.UpdatedAt = time.Now()
	if err := s.lists.Update(list); err != nil {
		return nil, fmt.Errorf("failed to save cover image url: %w", err)
	}
	return list, nil
}

// uniqueSlug slugifies the title and appends -2, -3, ... until the slug is
// free.
func (s *ListService) uniqueSlug(title string) (string, error) {
	base := slugify(title)
	if base == "" {
		base = "list"
	}

	slug := base
	for i := 2; ; i++ {
		exists, err := s.lists.SlugExists(slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// slugify lowercases the title, strips diacritics, and collapses everything
// that is not a letter or digit into single hyphens.
func slugify(title string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), title)
	if err != nil {
		stripped = title
	}

	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(stripped) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
