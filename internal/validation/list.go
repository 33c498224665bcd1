package validation

import (
	"net/url"
	"strings"
)

const (
	// Price bounds in minor currency units ($2.00 .. $199.00)
	MinPriceCents = 200
	MaxPriceCents = 19900

	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

func ValidateListTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return newError("title is required")
	}
	if len(title) > MaxTitleLength {
		return newError("title must be less than 100 characters")
	}
	return nil
}

func ValidateListDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return newError("description must be less than 500 characters")
	}
	return nil
}

func ValidatePriceCents(cents int) error {
	if cents < MinPriceCents {
		return newError("minimum price is $2.00")
	}
	if cents > MaxPriceCents {
		return newError("maximum price is $199.00")
	}
	return nil
}

// ValidateMapsListURL checks the URL points at a Google Maps list.
func ValidateMapsListURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return newError("must be a valid URL")
	}

	if !strings.Contains(u.Hostname(), "google.com") || !strings.Contains(u.Path, "/maps") {
		return newError("must be a valid Google Maps list URL")
	}

	return nil
}
