package domain

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// ErrInvalidMetadata reports a catalog metadata validation failure. It is
// always returned before any store mutation.
var ErrInvalidMetadata = errors.New("invalid metadata")

// KeyMetadata is the catalog entry attached to an API key. The source data
// has diverging entity shapes (shoes carry sizes, phones carry storage and
// cpu), so the schema is an open bag: a handful of common fields plus
// free-form attributes for category-specific extras. None of it is
// security-relevant.
type KeyMetadata struct {
	Category string            `json:"category"`
	Brand    string            `json:"brand"`
	Model    string            `json:"model"`
	Size     string            `json:"size,omitempty"`
	Price    int64             `json:"price"`
	ImageURL string            `json:"image_url,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

const maxAttrs = 16

// Validate checks the metadata bag against its field constraints.
func (m KeyMetadata) Validate() error {
	if m.Category == "" || len(m.Category) > 50 {
		return fmt.Errorf("%w: category must be 1-50 characters", ErrInvalidMetadata)
	}
	if len(m.Brand) < 2 || len(m.Brand) > 100 {
		return fmt.Errorf("%w: brand must be 2-100 characters", ErrInvalidMetadata)
	}
	if m.Model == "" || len(m.Model) > 100 {
		return fmt.Errorf("%w: model must be 1-100 characters", ErrInvalidMetadata)
	}
	if len(m.Size) > 20 {
		return fmt.Errorf("%w: size must be at most 20 characters", ErrInvalidMetadata)
	}
	if m.Price < 1 {
		return fmt.Errorf("%w: price must be at least 1", ErrInvalidMetadata)
	}
	if m.ImageURL != "" {
		u, err := url.Parse(m.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: image_url must be a valid http(s) URL", ErrInvalidMetadata)
		}
	}
	if len(m.Attrs) > maxAttrs {
		return fmt.Errorf("%w: at most %d attributes allowed", ErrInvalidMetadata, maxAttrs)
	}
	for k, v := range m.Attrs {
		if k == "" || len(k) > 50 || len(v) > 200 {
			return fmt.Errorf("%w: attribute %q out of bounds", ErrInvalidMetadata, k)
		}
	}
	return nil
}

// APIKey is a persisted API key row. The plaintext secret is never stored;
// HashedKey is its SHA-256 fingerprint and Last4 the final four characters,
// kept only for masked display. Rows are never physically deleted; Revoked
// transitions false to true exactly once.
type APIKey struct {
	ID        string
	HashedKey string
	Last4     string
	Metadata  KeyMetadata
	Revoked   bool
	CreatedAt time.Time
}

// Masked returns the display form of the key: the issuance prefix, an
// ellipsis, and the last four characters.
func (k APIKey) Masked(prefix string) string {
	return prefix + "..." + k.Last4
}

// IssuedKey is the one-time issuance result. Key holds the plaintext secret
// and is the only place it ever appears.
type IssuedKey struct {
	ID       string
	Key      string
	Last4    string
	Metadata KeyMetadata
}

// VerifyReason explains a failed key verification.
type VerifyReason string

const (
	// ReasonNotFound means no key row matches the candidate's fingerprint.
	ReasonNotFound VerifyReason = "not_found"
	// ReasonRevoked means the key exists but has been revoked.
	ReasonRevoked VerifyReason = "revoked"
)

// KeyVerification is the outcome of checking a candidate key.
type KeyVerification struct {
	Valid  bool
	KeyID  string
	Reason VerifyReason
}
